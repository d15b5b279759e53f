package domain

import "errors"

// ErrConfiguration is returned when a bot definition or tag table is malformed.
var ErrConfiguration = errors.New("invalid configuration")

// ErrInvalidTransition is returned when EnterState targets the default state
// or a state that was never declared.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrUnknownFinishReason is returned when Finish is called with a reason
// that has no registered handler.
var ErrUnknownFinishReason = errors.New("unknown finish reason")

// ErrNoTransition is returned when a respond handler returns without calling
// EnterState or Finish.
var ErrNoTransition = errors.New("handler did not transition")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
