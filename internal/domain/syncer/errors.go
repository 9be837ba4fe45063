package syncer

import "errors"

// Sync domain errors
var (
	// ErrConfigMissing means no remote endpoint or token is configured.
	// The coordinator treats this as a no-op, not a failure.
	ErrConfigMissing = errors.New("no sync endpoint or auth token configured")

	// ErrTransportFailure covers network errors, timeouts, non-2xx statuses
	// and unparseable responses. Retried with backoff; no ledger mutation.
	ErrTransportFailure = errors.New("sync transport failure")

	// ErrServerRejected is a per-record rejection; the record moves to ERROR
	// and rides along on the next scheduled batch.
	ErrServerRejected = errors.New("record rejected by server")
)
