package domain

import "strings"

// Rand is the random source used to pick among canned responses.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// EnterFunc produces the reply shown when a state is entered.
type EnterFunc func(r Rand) string

// FinishFunc produces the closing reply of a flow.
type FinishFunc func() string

// RespondFunc decides what happens with a message received in a state.
// It must end by returning the result of exactly one call to t.EnterState or t.Finish.
type RespondFunc func(t Transitioner, message string, tags TagCount) (string, error)

// Transitioner exposes the engine primitives to respond handlers.
type Transitioner interface {
	// EnterState runs the enter producer of state and makes it current.
	EnterState(state StateID) (string, error)

	// Finish runs the finish handler for reason and returns to the default state.
	Finish(reason FinishReason) (string, error)

	// State returns the current state.
	State() StateID
}

// Pick returns one of candidates chosen uniformly with r.
// It panics if candidates is empty.
func Pick(r Rand, candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[r.IntN(len(candidates))]
}

// OneOf returns an EnterFunc choosing uniformly among candidates.
func OneOf(candidates ...string) EnterFunc {
	if len(candidates) == 0 {
		panic("domain: OneOf requires at least one candidate")
	}
	fixed := append([]string(nil), candidates...)
	return func(r Rand) string {
		return Pick(r, fixed)
	}
}

// Say returns an EnterFunc with a single fixed reply.
func Say(text string) EnterFunc {
	return func(Rand) string { return text }
}

// Join returns an EnterFunc that concatenates one pick from every group.
func Join(sep string, groups ...[]string) EnterFunc {
	for _, g := range groups {
		if len(g) == 0 {
			panic("domain: Join requires non-empty groups")
		}
	}
	return func(r Rand) string {
		parts := make([]string, len(groups))
		for i, g := range groups {
			parts[i] = Pick(r, g)
		}
		return strings.Join(parts, sep)
	}
}

// Reply returns a FinishFunc with a fixed reply.
func Reply(text string) FinishFunc {
	return func() string { return text }
}
