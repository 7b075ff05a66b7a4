package domain

import "time"

// CycleSummary aggregates every transition of one reconciliation cycle.
// It is created at cycle start, finalized at cycle end, handed to the
// notifier once, then discarded.
type CycleSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	// Total is the number of shipments examined this cycle.
	Total int

	// NoChange counts shipments whose status did not move. They are
	// counted but never itemized.
	NoChange int

	// NewlyDelivered lists shipments that advanced to delivered and were
	// persisted this cycle.
	NewlyDelivered []Transition

	// InTransit lists shipments with a persisted non-terminal update,
	// exceptions included.
	InTransit []Transition

	// Failures lists query failures and failed write-throughs.
	Failures []Transition
}

// Add records a transition in the appropriate bucket. Write-through
// failures keep their classification but are itemized under Failures
// only, so a delivery notification is never emitted for a state the
// store does not yet hold.
func (s *CycleSummary) Add(t Transition) {
	s.Total++
	switch {
	case t.Class == ClassQueryFailed:
		s.Failures = append(s.Failures, t)
	case t.Class == ClassNoChange:
		s.NoChange++
	case !t.Persisted:
		s.Failures = append(s.Failures, t)
	case t.Class == ClassNewlyDelivered:
		s.NewlyDelivered = append(s.NewlyDelivered, t)
	default:
		s.InTransit = append(s.InTransit, t)
	}
}

// Changed reports the number of itemized transitions.
func (s *CycleSummary) Changed() int {
	return len(s.NewlyDelivered) + len(s.InTransit) + len(s.Failures)
}
