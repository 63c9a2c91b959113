package service

import "errors"

var (
	// ErrNotAuthorized is returned when a caller lacks the admin capability.
	// It refuses the whole invocation before any reads occur.
	ErrNotAuthorized = errors.New("caller is not authorized to run matching")

	// ErrInsufficientCredits is returned by a conditional debit when the
	// client's balance is below the requested amount
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrVersionConflict is returned when a client row was modified by a
	// concurrent invocation between read and write
	ErrVersionConflict = errors.New("client version conflict")

	// ErrStageConflict is returned when a lead stage transition no longer
	// applies because another writer moved the lead first
	ErrStageConflict = errors.New("lead stage conflict")
)

// ValidationError reports a lead or payload that fails a validity check.
// It is recorded and skipped, never surfaced as a batch failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed on " + e.Field + ": " + e.Reason
}
