package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/pkg/adapters/memory"
	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/session"
)

func newHandler(t *testing.T, opts ...HandlerOption) (*Handler, *fakeWebAPI) {
	t.Helper()
	bot, err := tagbot.New(officehours.Definition())
	require.NoError(t, err)
	client, api := newFakeClient(t)
	return NewHandler(session.NewManager(bot, memory.NewStore()), client, "UBOT", opts...), api
}

// send delivers body and waits for the answer to be posted.
func send(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/slack/events", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	h.Wait()
	return w
}

func message(channel, text string) string {
	return `{"type":"event_callback","event":{"type":"message","channel":"` + channel + `","text":"` + text + `"}}`
}

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandler_URLVerification(t *testing.T) {
	h, _ := newHandler(t)
	w := send(h, `{"type":"url_verification","challenge":"abc123"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"challenge":"abc123"}`, w.Body.String())
}

func TestHandler_ConversationPerChannel(t *testing.T) {
	h, api := newHandler(t)

	send(h, message("C1", "<@UBOT> office hours for celia"), nil)
	send(h, message("C2", "<@UBOT> yes"), nil)
	send(h, message("C1", "<@UBOT> yes"), nil)
	send(h, message("C1", "no mention here"), nil)

	assert.Equal(t, []post{
		{"C1", "Are you asking about office hours for Celia?"},
		{"C2", officehours.ConfusedMessage},
		{"C1", "Celia's office hours are Tuesdays 2-4pm in Fowler 302."},
	}, api.Posts())
}

// blockingResponder holds every answer until release is closed.
type blockingResponder struct {
	ports.Responder
	release chan struct{}
}

func (b *blockingResponder) Respond(ctx context.Context, sessionID, text string) (ports.Reply, error) {
	<-b.release
	return b.Responder.Respond(ctx, sessionID, text)
}

func TestHandler_AcknowledgesBeforeAnswering(t *testing.T) {
	h, api := newHandler(t)
	blocking := &blockingResponder{Responder: h.Responder, release: make(chan struct{})}
	h.Responder = blocking

	req := httptest.NewRequest("POST", "/slack/events", strings.NewReader(message("C1", "<@UBOT> thanks")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "request must be acknowledged while the answer is pending")
	assert.Empty(t, api.Posts())

	close(blocking.release)
	h.Wait()
	assert.Equal(t, []post{{"C1", officehours.ThanksMessage}}, api.Posts())
}

func TestHandler_IgnoresRetries(t *testing.T) {
	h, api := newHandler(t)
	w := send(h, message("C1", "<@UBOT> thanks"), map[string]string{"X-Slack-Retry-Num": "1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, api.Posts())
}

func TestHandler_BadPayload(t *testing.T) {
	h, _ := newHandler(t)
	assert.Equal(t, http.StatusBadRequest, send(h, `{`, nil).Code)

	req := httptest.NewRequest("GET", "/slack/events", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandler_Signature(t *testing.T) {
	h, api := newHandler(t, WithSigningSecret("s3cret"))

	body := message("C1", "<@UBOT> thanks")
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	w := send(h, body, map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         "v0=deadbeef",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, api.Posts())

	w = send(h, body, map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         sign("s3cret", ts, body),
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []post{{"C1", officehours.ThanksMessage}}, api.Posts())
}

func TestHandler_StaleSignature(t *testing.T) {
	h, api := newHandler(t, WithSigningSecret("k"))

	body := message("C1", "<@UBOT> thanks")
	ts := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
	w := send(h, body, map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         sign("k", ts, body),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(h, body, map[string]string{"X-Slack-Request-Timestamp": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, api.Posts())
}
