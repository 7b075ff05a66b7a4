package domain

import "strings"

// Status is the normalized carrier state of a shipment.
type Status int

const (
	// StatusUnknown covers carrier states this system does not recognize.
	// Unknown never advances past a known stored status, so carrier-specific
	// states can never regress the store.
	StatusUnknown Status = iota
	StatusPreTransit
	StatusInTransit
	StatusOutForDelivery
	StatusDelivered

	// StatusException is orthogonal to the delivery order: it is always
	// reportable and never compared by rank.
	StatusException
)

// String returns the canonical token for the status. The record store
// persists this token, so it must round-trip through ParseStatus.
func (s Status) String() string {
	switch s {
	case StatusPreTransit:
		return "PRE_TRANSIT"
	case StatusInTransit:
		return "IN_TRANSIT"
	case StatusOutForDelivery:
		return "OUT_FOR_DELIVERY"
	case StatusDelivered:
		return "DELIVERED"
	case StatusException:
		return "EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// Rank returns the position of s in the total delivery order
// PRE_TRANSIT < IN_TRANSIT < OUT_FOR_DELIVERY < DELIVERED.
// Unknown and Exception have no position and rank lowest.
func (s Status) Rank() int {
	switch s {
	case StatusPreTransit:
		return 1
	case StatusInTransit:
		return 2
	case StatusOutForDelivery:
		return 3
	case StatusDelivered:
		return 4
	default:
		return 0
	}
}

// Ordered reports whether s participates in the delivery order.
func (s Status) Ordered() bool {
	return s.Rank() > 0
}

// ParseStatus maps a carrier status code and free-text description to a
// Status. It accepts both carrier wire codes ("pre-transit", "transit",
// "delivered", "failure") and the canonical tokens produced by
// Status.String. The description is a fallback for carriers that only
// populate free text.
func ParseStatus(code, description string) Status {
	switch normalizeToken(code) {
	case "pre-transit":
		return StatusPreTransit
	case "transit", "in-transit":
		return StatusInTransit
	case "out-for-delivery":
		return StatusOutForDelivery
	case "delivered", "ok":
		return StatusDelivered
	case "failure", "exception":
		return StatusException
	}

	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "delivered"):
		return StatusDelivered
	case strings.Contains(d, "out for delivery"),
		strings.Contains(d, "with delivery courier"):
		return StatusOutForDelivery
	case strings.Contains(d, "exception"),
		strings.Contains(d, "on hold"),
		strings.Contains(d, "attempt"),
		strings.Contains(d, "clearance"):
		return StatusException
	case strings.Contains(d, "transit"),
		strings.Contains(d, "departed"),
		strings.Contains(d, "arrived"),
		strings.Contains(d, "processed"):
		return StatusInTransit
	case strings.Contains(d, "shipment information received"),
		strings.Contains(d, "label created"),
		strings.Contains(d, "electronically"):
		return StatusPreTransit
	}
	return StatusUnknown
}

func normalizeToken(code string) string {
	t := strings.ToLower(strings.TrimSpace(code))
	return strings.ReplaceAll(t, "_", "-")
}
