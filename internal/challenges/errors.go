package challenges

import "errors"

// Domain errors, mapped to HTTP status codes by the handler layer.
var (
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrNotParticipating     = errors.New("not participating")
	ErrAlreadyParticipating = errors.New("already participating")
	ErrChallengeClosed      = errors.New("no longer accepting participants")
	ErrInvalidChallenge     = errors.New("invalid challenge definition")
)
