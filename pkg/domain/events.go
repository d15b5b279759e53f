package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Bot       string    `json:"bot"`
}

// StateEvent is emitted after a state change was committed by EnterState.
type StateEvent struct {
	EventBase
	From StateID `json:"from"`
	To   StateID `json:"to"`
}

// FinishEvent is emitted after a flow finished and the state was reset.
type FinishEvent struct {
	EventBase
	From   StateID      `json:"from"`
	Reason FinishReason `json:"reason"`
}

// ErrorEvent is emitted when a respond call failed and the engine recovered.
type ErrorEvent struct {
	EventBase
	State StateID `json:"state"`
	Err   error   `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnFinish     func(context.Context, *FinishEvent)
	OnError      func(context.Context, *ErrorEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter: chain(h.OnStateEnter, other.OnStateEnter),
		OnFinish:     chain(h.OnFinish, other.OnFinish),
		OnError:      chain(h.OnError, other.OnError),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
