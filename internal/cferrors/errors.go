// Package cferrors defines the sentinel error kinds the Context Fusion
// Engine's components classify failures into. Adapters and extractors wrap
// these with fmt.Errorf("%w: ...") so callers can branch with errors.Is
// instead of matching strings.
package cferrors

import "errors"

var (
	// ErrPermissionDenied means the OS denied the capability the adapter
	// needs (Accessibility, screen recording). Not recoverable within the
	// current process invocation short of the user granting it out of band.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSourceUnavailable means the adapter's underlying API is absent on
	// this platform or OS version (e.g. a non-darwin stub).
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceTimeout means a bounded operation (AX query, AppleScript
	// oracle call) exceeded its deadline. The slot is left absent, not
	// retried inline.
	ErrSourceTimeout = errors.New("source timeout")

	// ErrQueueOverflow means the bounded observation queue was full and the
	// oldest eligible observation was evicted to make room.
	ErrQueueOverflow = errors.New("observation queue overflow")

	// ErrInvariantViolation means a data-model invariant (§3.2) was about to
	// be broken; the operation producing it is aborted instead.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrSinkSlow means a sink exceeded its soft per-event budget. The event
	// is still delivered; this only drives a warning log line.
	ErrSinkSlow = errors.New("sink exceeded soft budget")
)
