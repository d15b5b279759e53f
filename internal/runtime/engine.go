package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/registry"
)

// Machine is the dialogue state machine of one conversation.
// It is not safe for concurrent use; callers serialize access per conversation.
type Machine struct {
	def    *registry.Definition
	state  domain.StateID
	rng    domain.Rand
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// EngineOption configures a Machine.
type EngineOption func(*Machine)

// WithRand injects the random source used by enter producers.
func WithRand(r domain.Rand) EngineOption {
	return func(m *Machine) {
		if r != nil {
			m.rng = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// globalRand uses the top-level math/rand/v2 functions, which are safe for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewMachine creates a machine resting at the definition's default state.
// The definition is expected to be validated already.
func NewMachine(def *registry.Definition, opts ...EngineOption) *Machine {
	m := &Machine{
		def:    def,
		state:  def.Default,
		rng:    globalRand{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() domain.StateID {
	return m.state
}

// Definition returns the bot definition driving the machine.
func (m *Machine) Definition() *registry.Definition {
	return m.def
}

// Restore moves the machine to a previously persisted state.
// Unknown states leave the machine at the default state and return ErrInvalidTransition.
func (m *Machine) Restore(state domain.StateID) error {
	if state == m.def.Default || m.def.Declares(state) {
		m.state = state
		return nil
	}
	m.state = m.def.Default
	return fmt.Errorf("%w: cannot restore undeclared state %q", domain.ErrInvalidTransition, state)
}

// Respond feeds a message to the handler of the current state and returns its reply.
//
// If the handler fails, or returns without calling EnterState or Finish, the machine
// logs the problem, returns to the default state and reports the error so the caller
// can surface a diagnostic without ending the conversation.
func (m *Machine) Respond(ctx context.Context, message string) (string, error) {
	from := m.state
	handler := m.def.Respond[from]
	if handler == nil {
		return m.recover(ctx, from, fmt.Errorf("%w: no respond handler for state %q", domain.ErrConfiguration, from))
	}

	counts := m.def.Tags.Extract(message)
	m.logger.Debug("respond", "state", from, "tags", counts.Tags())

	t := &turn{m: m, ctx: ctx}
	reply, err := handler(t, message, counts)
	if err == nil && !t.transitioned {
		err = fmt.Errorf("%w: state %q", domain.ErrNoTransition, from)
	}
	if err != nil {
		return m.recover(ctx, from, err)
	}
	return reply, nil
}

// EnterState runs the enter producer of state and commits the transition.
// Entering the default state or an undeclared state fails with ErrInvalidTransition.
func (m *Machine) EnterState(state domain.StateID) (string, error) {
	return m.enter(context.Background(), state)
}

// Finish runs the finish handler for reason and resets the machine to the default state.
func (m *Machine) Finish(reason domain.FinishReason) (string, error) {
	return m.finish(context.Background(), reason)
}

func (m *Machine) enter(ctx context.Context, state domain.StateID) (string, error) {
	if state == m.def.Default {
		return "", fmt.Errorf("%w: do not enter the default state %q, finish instead", domain.ErrInvalidTransition, state)
	}
	if !m.def.Declares(state) {
		return "", fmt.Errorf("%w: state %q is not defined", domain.ErrInvalidTransition, state)
	}
	producer := m.def.Enter[state]
	if producer == nil {
		return "", fmt.Errorf("%w: state %q has no enter producer", domain.ErrInvalidTransition, state)
	}

	reply := producer(m.rng)
	from := m.state
	m.state = state

	m.logger.Debug("state entered", "from", from, "to", state)
	if m.hooks.OnStateEnter != nil {
		m.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: m.event(domain.EventStateEnter),
			From:      from,
			To:        state,
		})
	}
	return reply, nil
}

func (m *Machine) finish(ctx context.Context, reason domain.FinishReason) (string, error) {
	handler := m.def.Finish[reason]
	if handler == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownFinishReason, reason)
	}

	reply := handler()
	from := m.state
	m.state = m.def.Default

	m.logger.Debug("flow finished", "from", from, "reason", reason)
	if m.hooks.OnFinish != nil {
		m.hooks.OnFinish(ctx, &domain.FinishEvent{
			EventBase: m.event(domain.EventFinish),
			From:      from,
			Reason:    reason,
		})
	}
	return reply, nil
}

func (m *Machine) recover(ctx context.Context, from domain.StateID, err error) (string, error) {
	m.logger.Error("transition failed, returning to default state",
		"state", from,
		"default_state", m.def.Default,
		"err", err)
	m.state = m.def.Default

	if m.hooks.OnError != nil {
		m.hooks.OnError(ctx, &domain.ErrorEvent{
			EventBase: m.event(domain.EventError),
			State:     from,
			Err:       err,
		})
	}
	return "", fmt.Errorf("respond from %q: %w", from, err)
}

func (m *Machine) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		Bot:       m.def.Name,
	}
}

// turn is the Transitioner handed to a respond handler for one message.
type turn struct {
	m            *Machine
	ctx          context.Context
	transitioned bool
}

func (t *turn) EnterState(state domain.StateID) (string, error) {
	reply, err := t.m.enter(t.ctx, state)
	if err == nil {
		t.transitioned = true
	}
	return reply, err
}

func (t *turn) Finish(reason domain.FinishReason) (string, error) {
	reply, err := t.m.finish(t.ctx, reason)
	if err == nil {
		t.transitioned = true
	}
	return reply, err
}

func (t *turn) State() domain.StateID {
	return t.m.state
}
