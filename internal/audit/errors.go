package audit

import "errors"

var (
	// ErrRunNotFound is returned when no audit run has the requested id.
	ErrRunNotFound = errors.New("audit run not found")
	// ErrDuplicateRun is returned when a run id is already stored.
	ErrDuplicateRun = errors.New("audit run already exists")
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the run's current state. The run is left unchanged.
	ErrInvalidTransition = errors.New("invalid audit run state transition")
	// ErrRetriesExhausted is returned when a failed run has used all retries.
	ErrRetriesExhausted = errors.New("audit run retries exhausted")
)
