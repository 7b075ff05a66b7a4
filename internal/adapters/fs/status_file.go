// Package fs provides file-system adapters.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// statusDoc is the serialized shape of the last cycle outcome. It exists
// for health checks and operators; the reconciler never reads it back.
type statusDoc struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Total          int       `json:"total"`
	NewlyDelivered int       `json:"newly_delivered"`
	InTransit      int       `json:"in_transit"`
	NoChange       int       `json:"no_change"`
	Failures       int       `json:"failures"`
}

// StatusFileRecorder implements ports.StatusRecorder using a JSON file.
type StatusFileRecorder struct {
	path string
}

// NewStatusFileRecorder creates a recorder writing to the given path.
func NewStatusFileRecorder(path string) *StatusFileRecorder {
	return &StatusFileRecorder{path: path}
}

// Record persists the cycle outcome atomically.
// Uses atomic write (write to temp file, then rename) to prevent
// corruption.
func (r *StatusFileRecorder) Record(ctx context.Context, summary domain.CycleSummary) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}

	doc := statusDoc{
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		Total:          summary.Total,
		NewlyDelivered: len(summary.NewlyDelivered),
		InTransit:      len(summary.InTransit),
		NoChange:       summary.NoChange,
		Failures:       len(summary.Failures),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Path returns the full path to the status file.
func (r *StatusFileRecorder) Path() string {
	return r.path
}
