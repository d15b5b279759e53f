package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/pkg/adapters/memory"
	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/observability"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/session"
	"github.com/aretw0/tagbot/pkg/tags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, def *registry.Definition, opts ...Option) http.Handler {
	t.Helper()
	bot, err := tagbot.New(def)
	require.NoError(t, err)
	return NewHandler(session.NewManager(bot, memory.NewStore()), def, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestPostMessage_Flow(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())

	w := do(t, h, "POST", "/v1/conversations/c1/messages", `{"text":"office hours for justin"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[messageResponse](t, w)
	assert.Equal(t, "Are you asking about office hours for Justin?", resp.Reply)
	assert.Equal(t, "confirm_justin", resp.State)
	assert.Equal(t, 1, resp.Turns)
	assert.Empty(t, resp.Error)

	w = do(t, h, "GET", "/v1/conversations/c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[domain.Snapshot](t, w)
	assert.Equal(t, domain.StateID("confirm_justin"), snap.State)

	w = do(t, h, "POST", "/v1/conversations/c1/messages", `{"text":"yep"}`)
	resp = decode[messageResponse](t, w)
	assert.Equal(t, "Justin's office hours are Thursdays 3-5pm in Fowler 311.", resp.Reply)
	assert.Equal(t, "waiting", resp.State)

	w = do(t, h, "GET", "/v1/conversations", "")
	assert.Equal(t, []string{"c1"}, decode[[]string](t, w))

	w = do(t, h, "DELETE", "/v1/conversations/c1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/v1/conversations/c1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "GET", "/v1/conversations", "")
	assert.Equal(t, []string{}, decode[[]string](t, w))
}

func TestPostMessage_BadInput(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())

	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"text":`},
		{"Empty Text", `{"text":"   "}`},
		{"Oversized", `{"text":"` + strings.Repeat("a", 5000) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/v1/conversations/c1/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[errorResponse](t, w).Error)
		})
	}
}

func TestPostMessage_RecoveredErrorIsReported(t *testing.T) {
	def := &registry.Definition{
		Name:    "Silent",
		Default: "idle",
		States:  []domain.StateID{"idle"},
		Respond: map[domain.StateID]domain.RespondFunc{
			"idle": func(domain.Transitioner, string, domain.TagCount) (string, error) { return "", nil },
		},
		Finish: map[domain.FinishReason]domain.FinishFunc{"done": domain.Reply("bye")},
		Tags:   tags.MustNew(tags.Entry{Phrase: "bye", Tags: []domain.Tag{"bye"}}),
	}
	h := newTestHandler(t, def)

	w := do(t, h, "POST", "/v1/conversations/c1/messages", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[messageResponse](t, w)
	assert.Equal(t, "idle", resp.State)
	assert.Contains(t, resp.Error, "did not transition")
}

func TestGetBot(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())

	w := do(t, h, "GET", "/v1/bot", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[botResponse](t, w)
	assert.Equal(t, officehours.Name, resp.Name)
	assert.Equal(t, "waiting", resp.Default)
	assert.Contains(t, resp.States, "confirm_celia")
	assert.Contains(t, resp.FinishReasons, "location_kathryn")
	assert.Contains(t, resp.Tags, "office-hours")
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())

	w := do(t, h, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	info := decode[map[string]string](t, w)
	assert.Equal(t, tagbot.Version, info["version"])
	assert.Equal(t, officehours.Name, info["bot"])
}

func TestMetricsRoute(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/metrics", "").Code)

	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg, officehours.Name)
	require.NoError(t, err)

	bot, err := tagbot.New(officehours.Definition(), tagbot.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)
	mgr := session.NewManager(bot, memory.NewStore())
	h = NewHandler(mgr, bot.Definition(), WithGatherer(reg), WithResponder(m.Observe(mgr)))

	do(t, h, "POST", "/v1/conversations/c1/messages", `{"text":"thanks"}`)

	w := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tagbot_finish_total{bot="OfficeHoursBot",reason="thanks"} 1`)
	assert.Contains(t, w.Body.String(), `tagbot_messages_total{bot="OfficeHoursBot"} 1`)
}

func TestSlackRoute(t *testing.T) {
	called := false
	slack := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})
	h := newTestHandler(t, officehours.Definition(), WithSlack(slack))

	w := do(t, h, "POST", "/slack/events", `{}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, called)
}

func TestSubscribeEvents(t *testing.T) {
	h := newTestHandler(t, officehours.Definition())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/v1/conversations/c1/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	w := do(t, h, "POST", "/v1/conversations/c1/messages", `{"text":"thanks"}`)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, "event: reply")
	assert.Contains(t, output, `"reply":"You're welcome!"`)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
	_, open := <-ch
	assert.False(t, open)
}
