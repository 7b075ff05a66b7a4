package ports

import (
	"context"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// RecordStore wraps the business-records system. It is the single source
// of truth for shipment status between cycles.
type RecordStore interface {
	// ListActiveShipments returns the shipments still worth tracking:
	// shipped, not delivered, not cancelled, within the configured
	// lookback window.
	ListActiveShipments(ctx context.Context) ([]domain.Shipment, error)

	// UpdateStatus applies a status update to one record. It must be
	// idempotent: re-applying an identical update is a no-op success.
	// Failures map to ErrStoreUnavailable, ErrNotFound (record vanished
	// since listing) or ErrValidation; none of them abort the cycle.
	UpdateStatus(ctx context.Context, recordID int64, update domain.StatusUpdate) error
}
