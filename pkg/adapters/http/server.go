package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the conversation store the API operates on.
// *session.Manager implements it.
type Sessions interface {
	ports.Responder
	Get(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Reset(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Sessions  Sessions
	Responder ports.Responder
	Bot       *registry.Definition
	Streams   *StreamManager
	Logger    *slog.Logger

	gatherer prometheus.Gatherer
	slack    http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithResponder answers messages with r instead of the Sessions (e.g. an instrumented responder).
func WithResponder(r ports.Responder) Option {
	return func(s *Server) {
		s.Responder = r
	}
}

// WithGatherer mounts /metrics over g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithSlack mounts h on /slack/events.
func WithSlack(h http.Handler) Option {
	return func(s *Server) {
		s.slack = h
	}
}

// WithLogger configures the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for a bot served by sessions.
func NewHandler(sessions Sessions, bot *registry.Definition, opts ...Option) http.Handler {
	s := &Server{
		Sessions:  sessions,
		Responder: sessions,
		Bot:       bot,
		Streams:   NewStreamManager(),
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.slack != nil {
		r.Post("/slack/events", s.slack.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/bot", s.GetBot)
		r.Get("/conversations", s.ListConversations)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/", s.GetConversation)
			r.Delete("/", s.DeleteConversation)
			r.Post("/messages", s.PostMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	State string `json:"state"`
	Turns int    `json:"turns"`
	Error string `json:"error,omitempty"`
}

type botResponse struct {
	Name          string   `json:"name"`
	Default       string   `json:"default"`
	States        []string `json:"states"`
	FinishReasons []string `json:"finish_reasons"`
	Tags          []string `json:"tags"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PostMessage handles POST /v1/conversations/{id}/messages.
// A recovered transition error is not an HTTP error: the reply carries it
// in the error field and the conversation is back in the default state.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.Logger.Warn("PostMessage: invalid request body", "err", err)
		return
	}

	text, err := runner.SanitizeInput(strings.TrimSpace(body.Text))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		s.Logger.Warn("PostMessage: input rejected", "err", err, "size", len(body.Text))
		return
	}
	if text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := s.Responder.Respond(r.Context(), id, text)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "respond failed")
		s.Logger.Error("PostMessage: respond failed", "session_id", id, "err", err)
		return
	}

	resp := messageResponse{Reply: reply.Text, State: reply.State, Turns: reply.Turns}
	if reply.Err != nil {
		resp.Error = reply.Err.Error()
	}
	if data, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(id, string(data))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListConversations handles GET /v1/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list failed")
		s.Logger.Error("ListConversations failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetConversation handles GET /v1/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "load failed")
		s.Logger.Error("GetConversation failed", "session_id", id, "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteConversation handles DELETE /v1/conversations/{id}.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Reset(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		s.Logger.Error("DeleteConversation failed", "session_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBot handles GET /v1/bot.
func (s *Server) GetBot(w http.ResponseWriter, r *http.Request) {
	resp := botResponse{
		Name:    s.Bot.Name,
		Default: string(s.Bot.Default),
	}
	for _, st := range s.Bot.States {
		resp.States = append(resp.States, string(st))
	}
	for _, reason := range s.Bot.FinishReasons() {
		resp.FinishReasons = append(resp.FinishReasons, string(reason))
	}
	for _, tag := range s.Bot.Tags.Tags() {
		resp.Tags = append(resp.Tags, string(tag))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tagbot-http",
		"version": strings.TrimSpace(tagbot.Version),
		"bot":     s.Bot.Name,
	})
}

// SubscribeEvents handles GET /v1/conversations/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.Logger.Info("SSE: subscribing to conversation", "session_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
