package verify

import "errors"

// Business errors surfaced to command and HTTP handlers.
var (
	// ErrNotFound indicates the code, HWID or target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBanned indicates the record is banned and cannot be redeemed.
	ErrBanned = errors.New("banned")
	// ErrUnauthorized indicates the caller may not run admin operations.
	ErrUnauthorized = errors.New("unauthorized")
)
