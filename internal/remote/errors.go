package remote

import "errors"

var (
	// ErrUnavailable marks transient network-class failures. Safe to retry
	// with backoff; retrying is left to the caller.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrRejected marks validation or permission failures. Not retryable;
	// the detail is surfaced verbatim.
	ErrRejected = errors.New("remote store rejected operation")

	// ErrNotFound is returned by Get for unknown document ids.
	ErrNotFound = errors.New("document not found")
)
