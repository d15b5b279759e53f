package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/internal/logging"
	httpadapter "github.com/aretw0/tagbot/pkg/adapters/http"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/runner"
)

// BotURI is the resource exposing the bot description.
const BotURI = "tagbot://bot"

// Sessions is what the tools operate on. *session.Manager implements it.
type Sessions interface {
	ports.Responder
	Get(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Reset(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// RespondResult is the structured output of the respond tool.
type RespondResult struct {
	SessionID string `json:"session_id" jsonschema_description:"The conversation that answered"`
	Reply     string `json:"reply" jsonschema_description:"The bot reply"`
	State     string `json:"state" jsonschema_description:"The conversation state after the reply"`
	Turns     int    `json:"turns" jsonschema_description:"Messages answered in this conversation"`
	Error     string `json:"error,omitempty" jsonschema_description:"Set when the conversation recovered to the default state"`
}

// BotInfo describes the served bot.
type BotInfo struct {
	Name          string   `json:"name"`
	Default       string   `json:"default"`
	States        []string `json:"states"`
	FinishReasons []string `json:"finish_reasons"`
	Tags          []string `json:"tags"`
}

type respondArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Server exposes a bot as an MCP server.
type Server struct {
	sessions  Sessions
	responder ports.Responder
	bot       *registry.Definition
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithResponder answers messages with r instead of the Sessions.
func WithResponder(r ports.Responder) Option {
	return func(s *Server) {
		s.responder = r
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server for bot backed by sessions.
func NewServer(sessions Sessions, bot *registry.Definition, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		responder: sessions,
		bot:       bot,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tagbot-mcp", strings.TrimSpace(tagbot.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on standard input and output.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events on addr until ctx is done.
// baseURL is the address clients reach the server at.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sse.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sse.MessageHandler()))

	return httpadapter.ListenAndServe(ctx, addr, mux, s.logger)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	respondTool := mcp.NewTool("respond",
		mcp.WithDescription("Send a message to a conversation and get the bot reply. The conversation is created on first use."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithString("message", mcp.Required(), mcp.Description("User message")),
		mcp.WithOutputSchema[RespondResult](),
	)
	s.mcpServer.AddTool(respondTool, mcp.NewStructuredToolHandler(s.handleRespond))

	s.mcpServer.AddTool(mcp.NewTool("get_bot",
		mcp.WithDescription("Describe the bot: states, finish reasons and tags."),
		mcp.WithOutputSchema[BotInfo](),
	), mcp.NewStructuredToolHandler(s.handleGetBot))

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Get the stored snapshot of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
	), s.handleGetConversation)

	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List the stored conversation IDs."),
	), s.handleListConversations)

	s.mcpServer.AddTool(mcp.NewTool("reset_conversation",
		mcp.WithDescription("Forget a conversation; the next message starts at the default state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
	), s.handleReset)
}

func (s *Server) handleRespond(ctx context.Context, _ mcp.CallToolRequest, args respondArgs) (RespondResult, error) {
	if args.SessionID == "" {
		return RespondResult{}, errors.New("session_id is required")
	}
	text, err := runner.SanitizeInput(strings.TrimSpace(args.Message))
	if err != nil {
		s.logger.Warn("mcp: input rejected", "err", err, "size", len(args.Message))
		return RespondResult{}, fmt.Errorf("input rejected: %w", err)
	}
	if text == "" {
		return RespondResult{}, errors.New("message is required")
	}

	reply, err := s.responder.Respond(ctx, args.SessionID, text)
	if err != nil {
		s.logger.Error("mcp: respond failed", "session_id", args.SessionID, "err", err)
		return RespondResult{}, fmt.Errorf("respond failed: %w", err)
	}

	out := RespondResult{
		SessionID: args.SessionID,
		Reply:     reply.Text,
		State:     reply.State,
		Turns:     reply.Turns,
	}
	if reply.Err != nil {
		out.Error = reply.Err.Error()
	}
	return out, nil
}

func (s *Server) handleGetBot(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (BotInfo, error) {
	return s.botInfo(), nil
}

func (s *Server) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("conversation %q not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	data, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListConversations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Reset(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("conversation %q reset", id)), nil
}

func (s *Server) botInfo() BotInfo {
	info := BotInfo{
		Name:          s.bot.Name,
		Default:       string(s.bot.Default),
		States:        []string{},
		FinishReasons: []string{},
		Tags:          []string{},
	}
	for _, st := range s.bot.States {
		info.States = append(info.States, string(st))
	}
	for _, reason := range s.bot.FinishReasons() {
		info.FinishReasons = append(info.FinishReasons, string(reason))
	}
	for _, tag := range s.bot.Tags.Tags() {
		info.Tags = append(info.Tags, string(tag))
	}
	return info
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(BotURI, "Bot description",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.botInfo())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      BotURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
