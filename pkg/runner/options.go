package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/tagbot/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithResponder configures what answers the messages.
func WithResponder(responder ports.Responder) Option {
	return func(r *Runner) {
		r.Responder = responder
	}
}

// WithName sets the speaker label.
func WithName(name string) Option {
	return func(r *Runner) {
		r.Name = name
	}
}

// WithSessionID sets the conversation ID passed to the responder.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithIO sets the streams used by the default TextHandler.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}
