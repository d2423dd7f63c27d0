package domain

import "errors"

// Sentinel errors surfaced at the entrypoint and controller boundaries.
// Failures below the round level are absorbed into status fields instead.
var (
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrCapacityExceeded = errors.New("session round capacity exceeded")
	ErrRoundConflict    = errors.New("a round is already in progress")
	ErrSessionNotActive = errors.New("session is not active")
	ErrRoundNotOpen     = errors.New("round is not awaiting feedback")
	ErrNoAgents         = errors.New("no agents assigned")
	ErrValidationFailed = errors.New("validation synthesis failed")
)
