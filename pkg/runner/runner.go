package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/ports"
)

// DefaultSessionID is used when no session ID is configured.
const DefaultSessionID = "local"

// Runner handles the conversation loop using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input/Output is used.
	Handler IOHandler

	// Responder answers the messages. Required.
	Responder ports.Responder

	// Name is the speaker label printed before every reply.
	Name string

	// SessionID identifies the conversation in the responder.
	SessionID string

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:     os.Stdin,
		Output:    os.Stdout,
		Name:      "Bot",
		SessionID: DefaultSessionID,
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the loop until exit/quit, end of input or an interrupt.
// All three are normal terminations and return nil.
// Responder failures are reported as system output and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	if r.Responder == nil {
		return errors.New("runner: no responder configured")
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	handler := r.resolveHandler()

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	for {
		text, err := r.readInput(signals, handler)
		if err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
		if text == "" {
			continue
		}
		if isExit(text) {
			r.Logger.Debug("exit requested", "session_id", r.SessionID)
			return nil
		}

		reply, err := r.Responder.Respond(signals.Context(), r.SessionID, text)
		if err != nil {
			if signals.Interrupted() {
				return nil
			}
			r.Logger.Error("respond failed", "session_id", r.SessionID, "err", err)
			if err := handler.SystemOutput(signals.Context(), err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		if reply.Err != nil {
			r.Logger.Debug("engine recovered", "session_id", r.SessionID, "err", reply.Err)
		}

		if err := handler.Output(signals.Context(), r.Name, reply); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// errStop marks a normal end of the loop.
var errStop = errors.New("stop")

func (r *Runner) readInput(signals *SignalManager, handler IOHandler) (string, error) {
	text, err := handler.Input(signals.Context())
	if err == nil {
		return text, nil
	}

	// Ctrl+C can surface as an input error just before the signal lands.
	signals.CheckRace()
	if signals.Interrupted() {
		r.Logger.Debug("runner input: context cancelled", "err", signals.Context().Err())
		return "", errStop
	}
	if errors.Is(err, io.EOF) {
		return "", errStop
	}
	return "", fmt.Errorf("input error: %w", err)
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output)
	th.Renderer = r.Renderer
	// Memoize to prevent creating new pumps on subsequent Run() calls
	r.Handler = th
	return th
}

func isExit(text string) bool {
	switch strings.ToLower(text) {
	case "exit", "quit":
		return true
	}
	return false
}
