package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/runner"
)

const (
	// maxBodySize bounds the size of an Events API request.
	maxBodySize = 1 << 20

	// EventTimeout bounds answering one event after it was acknowledged.
	EventTimeout = 30 * time.Second
)

// Handler serves the Slack Events API endpoint.
// Events are acknowledged before they are answered; Wait blocks until the
// answers in flight are posted.
type Handler struct {
	Responder     ports.Responder
	Poster        Poster
	BotID         string
	SigningSecret string
	Logger        *slog.Logger

	wg sync.WaitGroup
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithSigningSecret enables request signature verification.
func WithSigningSecret(secret string) HandlerOption {
	return func(h *Handler) {
		h.SigningSecret = secret
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.Logger = logger
	}
}

// NewHandler answers @-messages to botID with responder and posts replies with poster.
func NewHandler(responder ports.Responder, poster Poster, botID string, opts ...HandlerOption) *Handler {
	h := &Handler{
		Responder: responder,
		Poster:    poster,
		BotID:     botID,
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Wait blocks until every acknowledged event has been answered.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if h.SigningSecret != "" {
		if err := verify(r.Header, h.SigningSecret, body); err != nil {
			h.Logger.Warn("slack: rejected request", "err", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.Logger.Warn("slack: invalid payload", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": challenge.Challenge})
		return
	case slackevents.CallbackEvent:
		// Slack redelivers events it considers unacknowledged; the first delivery was answered.
		if r.Header.Get("X-Slack-Retry-Num") != "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			h.dispatch(r.Context(), ev)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// verify checks the v0 signature and the request age.
func verify(header http.Header, secret string, body []byte) error {
	sv, err := slackapi.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

// dispatch answers ev in the background so the request is acknowledged
// within Slack's three second window.
func (h *Handler) dispatch(parent context.Context, ev *slackevents.MessageEvent) {
	message, ok := AtMessage(ev, h.BotID)
	if !ok {
		return
	}
	message, err := runner.SanitizeInput(message)
	if err != nil || message == "" {
		h.Logger.Warn("slack: message rejected", "channel", ev.Channel, "err", err)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), EventTimeout)
		defer cancel()
		h.answer(ctx, ev.Channel, message)
	}()
}

func (h *Handler) answer(ctx context.Context, channel, message string) {
	reply, err := h.Responder.Respond(ctx, channel, message)
	if err != nil {
		h.Logger.Error("slack: respond failed", "channel", channel, "err", err)
		return
	}
	if reply.Err != nil {
		h.Logger.Warn("slack: conversation recovered", "channel", channel, "err", reply.Err)
	}
	if reply.Text == "" {
		return
	}
	if err := PostText(ctx, h.Poster, channel, reply.Text); err != nil {
		h.Logger.Error("slack: post failed", "channel", channel, "err", err)
	}
}
