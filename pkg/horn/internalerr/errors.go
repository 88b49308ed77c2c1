package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// Search-specific failures. These abort a run; branch-local rejections
	// are reported as rule.Status values instead.
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrInvalidOperation = errors.New("invalid rule operation")
	ErrUnknownSymbol    = errors.New("unknown symbol")
)
