package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrUnauthenticated is returned when an operation runs without a branch-bound actor.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrProductClosed indicates a savings product is no longer ACTIVE.
	ErrProductClosed = errors.New("product_closed")
)
