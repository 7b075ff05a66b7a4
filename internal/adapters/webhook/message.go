package webhook

import (
	"fmt"
	"strings"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// itemizedInTransitCap bounds the in-transit section so a busy cycle does
// not flood the channel; the remainder is summarized in one line.
const itemizedInTransitCap = 10

// formatSummary renders one cycle summary as Mattermost markdown.
func formatSummary(s domain.CycleSummary) string {
	var b strings.Builder

	b.WriteString(":package: **Shipment Update**\n\n")
	b.WriteString("**Summary:**\n")
	fmt.Fprintf(&b, "- Tracked: %d\n", s.Total)
	fmt.Fprintf(&b, "- Newly delivered: %d\n", len(s.NewlyDelivered))
	fmt.Fprintf(&b, "- In transit updates: %d\n", len(s.InTransit))
	fmt.Fprintf(&b, "- Unchanged: %d\n", s.NoChange)
	fmt.Fprintf(&b, "- Failures: %d\n", len(s.Failures))

	if len(s.NewlyDelivered) > 0 {
		b.WriteString("\n:white_check_mark: **Newly Delivered:**\n")
		for _, t := range s.NewlyDelivered {
			fmt.Fprintf(&b, "- `%s` - %s\n", t.TrackingNumber, t.PartnerName)
		}
	}

	if len(s.InTransit) > 0 {
		b.WriteString("\n:truck: **In Transit:**\n")
		for i, t := range s.InTransit {
			if i == itemizedInTransitCap {
				fmt.Fprintf(&b, "- ... and %d more shipments\n", len(s.InTransit)-itemizedInTransitCap)
				break
			}
			fmt.Fprintf(&b, "- `%s` - %s\n", t.TrackingNumber, t.PartnerName)
			if t.Exception {
				fmt.Fprintf(&b, "  :warning: Exception: %s\n", t.Detail)
			} else if t.Detail != "" {
				fmt.Fprintf(&b, "  Status: %s\n", t.Detail)
			}
			if t.NextSteps != "" {
				fmt.Fprintf(&b, "  Next Steps: %s\n", t.NextSteps)
			}
		}
	}

	if len(s.Failures) > 0 {
		b.WriteString("\n:x: **Failures:**\n")
		for _, t := range s.Failures {
			fmt.Fprintf(&b, "- `%s` - %s: %s\n", t.TrackingNumber, t.Class, failureCause(t))
		}
	}

	fmt.Fprintf(&b, "\nLast updated: %s", s.FinishedAt.Format("2006-01-02 | 15:04:05"))
	return b.String()
}

func failureCause(t domain.Transition) string {
	if t.Err != nil {
		return t.Err.Error()
	}
	return "unknown failure"
}
