package domain

// Classification is the reconciler's verdict for one shipment in one cycle.
type Classification int

const (
	// ClassNoChange means the carrier agrees with the stored status (or
	// reported a regression, which never mutates the store).
	ClassNoChange Classification = iota

	// ClassInTransitUpdate means the status advanced but is not delivered,
	// or the carrier reported an exception. Requires write-through.
	ClassInTransitUpdate

	// ClassNewlyDelivered means the status advanced to delivered.
	// Requires write-through.
	ClassNewlyDelivered

	// ClassQueryFailed means the carrier query did not produce a usable
	// snapshot. Never mutates the store.
	ClassQueryFailed
)

// String returns a human-readable classification name.
func (c Classification) String() string {
	switch c {
	case ClassNoChange:
		return "no_change"
	case ClassInTransitUpdate:
		return "in_transit_update"
	case ClassNewlyDelivered:
		return "newly_delivered"
	case ClassQueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

// Transition is the classified delta between stored and freshly fetched
// status for one shipment. Created by the reconciler, consumed once by
// the notifier, never stored.
type Transition struct {
	TrackingNumber string
	RecordID       int64
	Reference      string
	PartnerName    string

	Previous Status
	New      Status
	Class    Classification

	// Exception marks an in-transit update caused by a carrier exception.
	Exception bool

	// Persisted reports whether the write-through reached the store.
	// A failed write keeps its classification but lands in the summary's
	// failures list; the next cycle re-detects the same mismatch.
	Persisted bool

	// Detail and NextSteps carry the carrier's status text for reporting.
	Detail    string
	NextSteps string

	// Err is the failure cause for query or write failures.
	Err error
}
