package core

import "errors"

// Domain errors shared across the service layers. Handlers map these to HTTP
// statuses; collaborators return them so the recommendation pipeline can tell
// an absent record apart from a dead database.
var (
	// ErrNotFound means a record (user, book, history entry) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord means a record exists but could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnavailable means an upstream dependency could not be reached.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrInvalidInput means the caller supplied an unusable value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials means authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyExists means a unique constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")
)
