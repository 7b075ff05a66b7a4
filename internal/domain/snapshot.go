package domain

import "time"

// TrackingEvent is one entry in a shipment's location history.
type TrackingEvent struct {
	Time        time.Time
	Location    string
	Description string
}

// Snapshot is the ephemeral result of one carrier query. It is compared
// against the stored status and discarded; nothing outlives the cycle.
type Snapshot struct {
	// Status is the normalized carrier state.
	Status Status

	// Timestamp is the event time reported by the carrier for the
	// current status.
	Timestamp time.Time

	// Description is the carrier's human-readable status text.
	Description string

	// NextSteps carries the carrier's action-required hint, when present.
	NextSteps string

	// Events is the ordered location history, newest first as reported.
	Events []TrackingEvent

	// Delivered is the carrier's raw delivered flag.
	Delivered bool
}
