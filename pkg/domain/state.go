package domain

import (
	"sort"
	"time"
)

// StateID identifies a conversational state.
type StateID string

// Tag is a label attached to a phrase. Tags, not raw words, drive transitions.
type Tag string

// FinishReason selects which finish handler closes a flow.
type FinishReason string

// TagCount maps a tag to the number of matched phrases carrying it.
type TagCount map[Tag]int

// Has reports whether the tag was matched at least once.
func (c TagCount) Has(tag Tag) bool {
	return c[tag] > 0
}

// Count returns the count for tag (zero if absent).
func (c TagCount) Count(tag Tag) int {
	return c[tag]
}

// Tags returns the matched tags in lexical order.
func (c TagCount) Tags() []Tag {
	out := make([]Tag, 0, len(c))
	for t, n := range c {
		if n > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot is the persisted pointer of one conversation.
// Only the current state is kept; transcripts are never stored.
type Snapshot struct {
	// State is the current state of the conversation.
	State StateID `json:"state"`

	// Turns counts the messages answered in this conversation.
	Turns int `json:"turns"`

	// UpdatedAt is the time of the last answered message.
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted form of the snapshot when the store is
	// wrapped by an encrypting middleware. State is then SealedState.
	Sealed string `json:"sealed,omitempty"`
}

// SealedState marks an envelope snapshot whose real content is in Sealed.
const SealedState StateID = "sealed"

// NewSnapshot creates a snapshot resting at the given default state.
func NewSnapshot(defaultState StateID) *Snapshot {
	return &Snapshot{
		State:     defaultState,
		UpdatedAt: time.Now().UTC(),
	}
}
