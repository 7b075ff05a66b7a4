package domain

import "time"

// Shipment is the business-record view of one tracked parcel. The record
// store owns it; the reconciler holds a transient, read-mostly copy per
// cycle and never persists state itself.
type Shipment struct {
	// TrackingNumber is the carrier tracking reference (unique key).
	TrackingNumber string

	// RecordID is the business-record identifier (stock.picking id).
	RecordID int64

	// Reference is the human-readable picking name (e.g. "WH/OUT/00042").
	Reference string

	// PartnerName is the customer the shipment is addressed to.
	PartnerName string

	// Status is the last status written back to the record store.
	Status Status

	// StatusAt is the event timestamp of the stored status.
	StatusAt time.Time

	// Delivered is the store's delivered flag. Active listings exclude
	// delivered shipments, so this is false for anything the reconciler
	// sees.
	Delivered bool
}

// StatusUpdate is the write-through payload applied to the record store.
// Applying the same update twice must leave the store unchanged.
type StatusUpdate struct {
	Status    Status
	At        time.Time
	Detail    string
	NextSteps string
}
