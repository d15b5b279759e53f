package ports

import "context"

// WordDetector answers whether text contains flagged words and which ones.
// *lexicon.Lexicon implements it.
type WordDetector interface {
	Contains(text string) bool
	Words(text string) []string
}

// Responder produces the reply of a conversation to a message.
// *session.Manager implements it; transport adapters depend on it.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (Reply, error)
}

// Reply is the outcome of one message.
type Reply struct {
	Text  string `json:"reply"`
	State string `json:"state"`
	Turns int    `json:"turns"`
	// Err holds the diagnostic when the engine recovered from a transition error.
	Err error `json:"-"`
}
