package tagbot

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/internal/runtime"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/registry"
)

// Conversation is the state machine of a single conversation.
type Conversation = runtime.Machine

// Bot is the high-level entry point for the tagbot library.
// It holds a validated, immutable definition and creates conversations from it.
type Bot struct {
	def      *registry.Definition
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	rng      domain.Rand
	strict   bool
	warnings []registry.Warning
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithLifecycleHooks registers observability hooks. Calling it twice merges the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the bot.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithRand injects the random source used to pick canned responses.
// The source is shared by every conversation, so it must be safe for
// concurrent use when conversations are served in parallel.
func WithRand(r domain.Rand) Option {
	return func(b *Bot) {
		b.rng = r
	}
}

// WithStrictValidation turns definition warnings into construction errors.
func WithStrictValidation() Option {
	return func(b *Bot) {
		b.strict = true
	}
}

// New validates def and returns a Bot.
// Warnings are logged; with WithStrictValidation they fail construction with domain.ErrConfiguration.
func New(def *registry.Definition, opts ...Option) (*Bot, error) {
	b := &Bot{def: def}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}

	warnings, err := registry.Validate(def)
	if err != nil {
		return nil, err
	}
	b.logger = b.logger.With("bot", def.Name)
	b.warnings = warnings

	for _, w := range warnings {
		b.logger.Warn("bot definition warning", "state", w.State, "msg", w.Message)
	}
	if b.strict {
		if err := registry.Strict(warnings); err != nil {
			return nil, fmt.Errorf("bot %q: %w", def.Name, err)
		}
	}
	return b, nil
}

// NewConversation starts a conversation at the default state.
func (b *Bot) NewConversation() *Conversation {
	opts := []runtime.EngineOption{
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
	}
	if b.rng != nil {
		opts = append(opts, runtime.WithRand(b.rng))
	}
	return runtime.NewMachine(b.def, opts...)
}

// Name returns the bot name.
func (b *Bot) Name() string {
	return b.def.Name
}

// Definition returns the bot definition.
func (b *Bot) Definition() *registry.Definition {
	return b.def
}

// Warnings returns the validation warnings found at construction.
func (b *Bot) Warnings() []registry.Warning {
	return append([]registry.Warning(nil), b.warnings...)
}
