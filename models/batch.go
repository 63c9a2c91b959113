package models

import (
	"github.com/google/uuid"
)

// BatchSummary is the result of one auto-match invocation
type BatchSummary struct {
	RunID     uuid.UUID `json:"run_id"`
	Processed int       `json:"processed"`
	Matched   int       `json:"matched"`
	Missed    int       `json:"missed"`
	Errors    int       `json:"errors"`
}

// PairOutcome is the terminal state of one (lead, client) candidate pair
type PairOutcome string

const (
	PairOutcomeCompleted PairOutcome = "completed"
	PairOutcomeMissed    PairOutcome = "missed"
	PairOutcomeSkipped   PairOutcome = "skipped"
	PairOutcomeErrored   PairOutcome = "errored"
)
