package odoo

import (
	"strings"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
)

const dateDoneLayout = "2006-01-02 15:04:05"

// decodeShipment converts one search_read record into a domain shipment.
// Odoo returns false (not nil) for unset char fields and encodes
// many2one fields as [id, display_name] pairs.
func decodeShipment(fields map[string]interface{}) (domain.Shipment, bool) {
	tracking, _ := fields["carrier_tracking_ref"].(string)
	if tracking == "" {
		return domain.Shipment{}, false
	}
	id, ok := asInt64(fields["id"])
	if !ok {
		return domain.Shipment{}, false
	}

	sh := domain.Shipment{
		TrackingNumber: tracking,
		RecordID:       id,
	}
	sh.Reference, _ = fields["name"].(string)
	sh.PartnerName = partnerName(fields["partner_id"])

	if raw, _ := fields["date_done"].(string); raw != "" {
		if t, err := time.Parse(dateDoneLayout, raw); err == nil {
			sh.StatusAt = t
		}
	}

	if text, _ := fields["x_studio_last_status"].(string); text != "" {
		sh.Status = parseStoredStatus(text)
	}
	return sh, true
}

func partnerName(v interface{}) string {
	pair, ok := v.([]interface{})
	if !ok || len(pair) < 2 {
		return "Unknown"
	}
	name, ok := pair[1].(string)
	if !ok || name == "" {
		return "Unknown"
	}
	return name
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// statusText renders the stored status field. The first line is the
// canonical status token so parseStoredStatus can round-trip it; the
// rest is operator-readable detail, matching what the previous tracker
// wrote into the field.
func statusText(update domain.StatusUpdate) string {
	var b strings.Builder
	b.WriteString(update.Status.String())
	if !update.At.IsZero() {
		b.WriteString(" @ ")
		b.WriteString(update.At.UTC().Format(time.RFC3339))
	}
	if update.Detail != "" {
		b.WriteString("\nStatus: ")
		b.WriteString(update.Detail)
	}
	if update.NextSteps != "" {
		b.WriteString("\nNext Steps: ")
		b.WriteString(update.NextSteps)
	}
	return b.String()
}

// parseStoredStatus recovers the status enum from a stored status text.
// Unparseable text maps to StatusUnknown, which any known carrier state
// is allowed to advance past.
func parseStoredStatus(text string) domain.Status {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	token := line
	if i := strings.IndexByte(token, ' '); i >= 0 {
		token = token[:i]
	}
	return domain.ParseStatus(token, line)
}
