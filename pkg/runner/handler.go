package runner

import (
	"context"

	"github.com/aretw0/tagbot/pkg/ports"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Input reads the next message from the user.
	// It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (string, error)

	// Output presents the reply spoken by name.
	Output(ctx context.Context, name string, reply ports.Reply) error

	// SystemOutput presents a meta-message to the user (e.g. a recovered engine error).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
