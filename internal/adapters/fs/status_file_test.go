package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
)

func TestRecord_WritesAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "status.json")
	r := NewStatusFileRecorder(path)

	first := domain.CycleSummary{
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Total:      3,
		NoChange:   2,
		NewlyDelivered: []domain.Transition{
			{TrackingNumber: "JD0001", Class: domain.ClassNewlyDelivered, Persisted: true},
		},
	}
	if err := r.Record(context.Background(), first); err != nil {
		t.Fatalf("Record: %v", err)
	}

	second := first
	second.Total = 5
	if err := r.Record(context.Background(), second); err != nil {
		t.Fatalf("Record overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	var doc statusDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal status file: %v", err)
	}
	if doc.Total != 5 {
		t.Errorf("Total = %d, want 5", doc.Total)
	}
	if doc.NewlyDelivered != 1 {
		t.Errorf("NewlyDelivered = %d, want 1", doc.NewlyDelivered)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after rename")
	}
}
