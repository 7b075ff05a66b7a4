package ports

import (
	"context"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// CarrierClient queries the carrier tracking API for one shipment.
type CarrierClient interface {
	// FetchStatus returns a normalized snapshot for the tracking number.
	// Failures are classified with the domain sentinels: ErrNotFound when
	// the carrier has no record, ErrRateLimited, ErrAuthFailure, and
	// ErrTransient for network trouble. Implementations retry transient
	// failures at most once before surfacing them.
	FetchStatus(ctx context.Context, trackingNumber string) (domain.Snapshot, error)
}
