package domain

import "errors"

// Domain errors represent error conditions in the shipsync domain.
// These errors are returned by the public API and can be checked with
// errors.Is.
var (
	// ErrNotFound is returned when the carrier has no record for a
	// tracking number, or a business record vanished since listing.
	ErrNotFound = errors.New("shipsync: not found")

	// ErrRateLimited is returned when the carrier rejects a query for
	// exceeding its rate limit.
	ErrRateLimited = errors.New("shipsync: rate limited")

	// ErrTransient is returned for network failures and timeouts that are
	// worth a bounded retry.
	ErrTransient = errors.New("shipsync: transient failure")

	// ErrAuthFailure is returned when a credential is rejected. Fatal for
	// the whole cycle; the scheduler logs and waits for the next tick.
	ErrAuthFailure = errors.New("shipsync: authentication rejected")

	// ErrValidation is returned when the record store rejects a value.
	ErrValidation = errors.New("shipsync: validation failure")

	// ErrStoreUnavailable is returned when the record store cannot be
	// reached.
	ErrStoreUnavailable = errors.New("shipsync: record store unavailable")

	// ErrDeliveryFailed is returned when the notification channel stays
	// unreachable after the bounded retries.
	ErrDeliveryFailed = errors.New("shipsync: notification delivery failed")

	// ErrAlreadyRunning is returned when Start() is called on a running
	// instance.
	ErrAlreadyRunning = errors.New("shipsync: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped
	// instance.
	ErrNotRunning = errors.New("shipsync: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("shipsync: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("shipsync: invalid configuration")
)
