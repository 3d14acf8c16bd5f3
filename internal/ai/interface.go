package ai

import (
	"context"

	"safeparking/internal/types"
)

// Classifier turns a raw utterance into the model's untyped classification.
// The returned map is the model's JSON as-is; validation and typing happen
// downstream. A malformed model response yields an empty map, not an error.
type Classifier interface {
	Classify(ctx context.Context, utterance, contextSummary string) (map[string]any, error)
}

// Responder composes the user-facing natural-language reply for a turn.
type Responder interface {
	Compose(ctx context.Context, summary ReplySummary) (string, error)
}

// ReplySummary is everything the response model needs to phrase one turn.
type ReplySummary struct {
	Utterance  string
	Intent     string
	Entities   []types.Entity
	Route      *types.RouteSummary
	Clarify    string
	RolledBack bool
	Restored   bool
}
