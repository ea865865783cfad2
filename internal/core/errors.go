package core

import "errors"

// ErrIdempotencyConflict reports that an idempotency key was reused with a
// payload whose fingerprint differs from the one that first claimed the key.
// It never mutates state; the caller can resubmit with a new key.
var ErrIdempotencyConflict = errors.New("idempotency key was already used with a different request payload")

// ErrRequestInFlight reports that another request holds an open claim on the
// key and did not finalize within the polling budget. Retryable.
var ErrRequestInFlight = errors.New("a request with this idempotency key is still being processed")
