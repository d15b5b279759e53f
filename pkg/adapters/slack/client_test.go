package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct {
	channel, text string
}

// fakeWebAPI records chat.postMessage calls and answers auth.test.
type fakeWebAPI struct {
	mu    sync.Mutex
	posts []post
}

func (f *fakeWebAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch r.URL.Path {
	case "/auth.test":
		w.Write([]byte(`{"ok":true,"user_id":"UBOT"}`))
	case "/chat.postMessage":
		channel := r.PostForm.Get("channel")
		if channel == "C-archived" {
			w.Write([]byte(`{"ok":false,"error":"is_archived"}`))
			return
		}
		f.mu.Lock()
		f.posts = append(f.posts, post{channel, r.PostForm.Get("text")})
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"channel":"` + channel + `","ts":"1700000000.000100"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeWebAPI) Posts() []post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.posts...)
}

func newFakeClient(t *testing.T) (*slackapi.Client, *fakeWebAPI) {
	t.Helper()
	api := &fakeWebAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", slackapi.OptionAPIURL(srv.URL+"/"), slackapi.OptionHTTPClient(srv.Client())), api
}

func TestClient(t *testing.T) {
	client, api := newFakeClient(t)
	ctx := context.Background()

	id, err := BotUserID(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, "UBOT", id)

	require.NoError(t, PostText(ctx, client, "C1", "hello"))
	assert.Equal(t, []post{{"C1", "hello"}}, api.Posts())

	err = PostText(ctx, client, "C-archived", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_archived")
}
