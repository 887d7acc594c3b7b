package treasury

import "errors"

// Error kinds surfaced by every entry point. All of them are terminal for the
// invocation; the caller retries with corrected input or waits for time-gated
// conditions. The HTTP layer maps each kind to a distinct status code.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrAlreadyApproved    = errors.New("already approved")
	ErrLimitExceeded      = errors.New("spending limit exceeded")
	ErrTimelockNotExpired = errors.New("timelock not expired")
	ErrNotDue             = errors.New("payment not due")
	ErrInvalidOperation   = errors.New("invalid operation")
)
