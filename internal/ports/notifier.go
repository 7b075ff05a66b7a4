package ports

import (
	"context"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// Notifier delivers cycle results to the notification channel.
// Delivery and store mutation are independent effects: a failed delivery
// never rolls back updates already applied to the record store.
type Notifier interface {
	// Deliver sends exactly one summary payload for the cycle.
	// Implementations retry with bounded backoff before returning
	// ErrDeliveryFailed.
	Deliver(ctx context.Context, summary domain.CycleSummary) error

	// Announce sends a plain informational message (startup notices).
	Announce(ctx context.Context, text string) error
}

// StatusRecorder records the outcome of the last cycle for operational
// surfaces (health checks, status files). It is never read back by the
// reconciler; the record store stays the only cross-cycle state.
type StatusRecorder interface {
	Record(ctx context.Context, summary domain.CycleSummary) error
}
