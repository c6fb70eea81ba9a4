package core

import "errors"

// Error taxonomy. Callers classify failures with errors.Is; every layer
// wraps with context but preserves the sentinel.
var (
	// ErrValidation marks malformed input: bad amount, bad date,
	// too-short credentials.
	ErrValidation = errors.New("invalid input")

	// ErrConflict marks a uniqueness violation (duplicate username or
	// per-user category name).
	ErrConflict = errors.New("already exists")

	// ErrAuth marks an authentication failure. It is deliberately
	// uninformative: it never reveals whether the username exists.
	ErrAuth = errors.New("invalid credentials")

	// ErrNotFound marks an operation on a record that does not exist or
	// is owned by a different user. The two cases are indistinguishable
	// on purpose.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a connectivity failure to the backing store.
	// It is propagated unchanged; the caller decides how to present it.
	ErrUnavailable = errors.New("backing store unavailable")
)
