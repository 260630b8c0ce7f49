package domain

import (
	"context"
	"errors"
)

// DefaultMaxTokens is the generation length requested for every turn.
const DefaultMaxTokens = 250

// ErrReplyUnavailable is the only failure kind a user ever sees. Answerer
// implementations wrap transport and decoding failures with it.
var ErrReplyUnavailable = errors.New("reply unavailable")

// Answerer abstracts the remote text-generation backend.
type Answerer interface {
	// Answer sends prompt and returns the generated reply. An empty reply
	// with a nil error means the backend answered without a reply field.
	Answer(ctx context.Context, prompt string, maxTokens int) (string, error)
}
