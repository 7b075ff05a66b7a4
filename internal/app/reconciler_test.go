package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// carrierResult is one canned carrier answer.
type carrierResult struct {
	snap  domain.Snapshot
	err   error
	delay time.Duration
}

// fakeCarrier implements ports.CarrierClient with canned answers.
type fakeCarrier struct {
	mu      sync.Mutex
	results map[string]carrierResult
	calls   map[string]int
}

func newFakeCarrier() *fakeCarrier {
	return &fakeCarrier{
		results: make(map[string]carrierResult),
		calls:   make(map[string]int),
	}
}

func (f *fakeCarrier) set(tracking string, snap domain.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[tracking] = carrierResult{snap: snap, err: err}
}

func (f *fakeCarrier) FetchStatus(ctx context.Context, tracking string) (domain.Snapshot, error) {
	f.mu.Lock()
	res, ok := f.results[tracking]
	f.calls[tracking]++
	f.mu.Unlock()

	if res.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrTransient, ctx.Err())
		case <-time.After(res.delay):
		}
	}
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: no result configured", domain.ErrNotFound)
	}
	return res.snap, res.err
}

// fakeStore implements ports.RecordStore with an in-memory record set.
type fakeStore struct {
	mu        sync.Mutex
	shipments []domain.Shipment
	listErr   error
	updateErr map[int64]error
	updates   []appliedUpdate
	statuses  map[int64]domain.StatusUpdate
}

type appliedUpdate struct {
	recordID int64
	update   domain.StatusUpdate
}

func newFakeStore(shipments ...domain.Shipment) *fakeStore {
	return &fakeStore{
		shipments: shipments,
		updateErr: make(map[int64]error),
		statuses:  make(map[int64]domain.StatusUpdate),
	}
}

func (f *fakeStore) ListActiveShipments(ctx context.Context) ([]domain.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Shipment, len(f.shipments))
	copy(out, f.shipments)
	return out, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, recordID int64, update domain.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[recordID]; err != nil {
		return err
	}
	f.updates = append(f.updates, appliedUpdate{recordID: recordID, update: update})
	f.statuses[recordID] = update
	return nil
}

func (f *fakeStore) updatesFor(recordID int64) []appliedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []appliedUpdate
	for _, u := range f.updates {
		if u.recordID == recordID {
			out = append(out, u)
		}
	}
	return out
}

func snapshot(status domain.Status) domain.Snapshot {
	return domain.Snapshot{
		Status:    status,
		Timestamp: time.Date(2026, 8, 12, 14, 2, 0, 0, time.UTC),
		Delivered: status == domain.StatusDelivered,
	}
}

func shipment(id int64, tracking string, status domain.Status) domain.Shipment {
	return domain.Shipment{
		TrackingNumber: tracking,
		RecordID:       id,
		Reference:      fmt.Sprintf("WH/OUT/%05d", id),
		PartnerName:    "Partner " + tracking,
		Status:         status,
	}
}

// TestRun_MixedBatch is the A/B/C scenario: A unchanged, B delivered,
// C fails transiently. One store write (B), A and C untouched.
func TestRun_MixedBatch(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("A", snapshot(domain.StatusInTransit), nil)
	carrier.set("B", snapshot(domain.StatusDelivered), nil)
	carrier.set("C", domain.Snapshot{}, fmt.Errorf("%w: connection reset", domain.ErrTransient))

	store := newFakeStore(
		shipment(1, "A", domain.StatusInTransit),
		shipment(2, "B", domain.StatusOutForDelivery),
		shipment(3, "C", domain.StatusInTransit),
	)

	r := NewReconciler(carrier, store, mockLogger{}, 3)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 3 {
		t.Errorf("Total = %d, want 3", summary.Total)
	}
	if len(summary.NewlyDelivered) != 1 || summary.NewlyDelivered[0].TrackingNumber != "B" {
		t.Errorf("NewlyDelivered = %+v, want exactly [B]", summary.NewlyDelivered)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].TrackingNumber != "C" {
		t.Errorf("Failures = %+v, want exactly [C]", summary.Failures)
	}
	if summary.NoChange != 1 {
		t.Errorf("NoChange = %d, want 1 (A)", summary.NoChange)
	}
	if len(summary.InTransit) != 0 {
		t.Errorf("InTransit = %+v, want empty", summary.InTransit)
	}

	if got := len(store.updatesFor(2)); got != 1 {
		t.Errorf("updates for B = %d, want 1", got)
	}
	if got := len(store.updatesFor(1)) + len(store.updatesFor(3)); got != 0 {
		t.Errorf("updates for A and C = %d, want 0", got)
	}
}

func TestRun_NoChangeWritesNothing(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("A", snapshot(domain.StatusInTransit), nil)
	store := newFakeStore(shipment(1, "A", domain.StatusInTransit))

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.updates) != 0 {
		t.Errorf("store updates = %d, want 0", len(store.updates))
	}
	if summary.Changed() != 0 {
		t.Errorf("Changed() = %d, want 0", summary.Changed())
	}
	if summary.NoChange != 1 {
		t.Errorf("NoChange = %d, want 1", summary.NoChange)
	}
}

// TestRun_DeliveredOnlyOnce verifies the shipment appears in exactly one
// cycle's newly-delivered list: after the write from cycle N commits,
// cycle N+1 lists it as delivered-excluded (or at worst no-change).
func TestRun_DeliveredOnlyOnce(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("B", snapshot(domain.StatusDelivered), nil)
	store := newFakeStore(shipment(2, "B", domain.StatusOutForDelivery))

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	first, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(first.NewlyDelivered) != 1 {
		t.Fatalf("first cycle NewlyDelivered = %d, want 1", len(first.NewlyDelivered))
	}

	// The store's delivered flag now excludes B from the active listing.
	store.mu.Lock()
	store.shipments = nil
	store.mu.Unlock()

	second, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(second.NewlyDelivered) != 0 {
		t.Errorf("second cycle NewlyDelivered = %d, want 0", len(second.NewlyDelivered))
	}
}

func TestRun_BackwardTransitionNeverRegresses(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("A", snapshot(domain.StatusInTransit), nil)
	store := newFakeStore(shipment(1, "A", domain.StatusOutForDelivery))

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.updates) != 0 {
		t.Errorf("store updates = %d, want 0 (never regress)", len(store.updates))
	}
	if summary.NoChange != 1 {
		t.Errorf("NoChange = %d, want 1", summary.NoChange)
	}
}

func TestRun_ExceptionAlwaysReported(t *testing.T) {
	carrier := newFakeCarrier()
	snap := snapshot(domain.StatusException)
	snap.Description = "Clearance event"
	carrier.set("A", snap, nil)
	store := newFakeStore(shipment(1, "A", domain.StatusOutForDelivery))

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.InTransit) != 1 {
		t.Fatalf("InTransit = %d, want 1", len(summary.InTransit))
	}
	tr := summary.InTransit[0]
	if !tr.Exception {
		t.Error("Exception = false, want true")
	}
	if got := len(store.updatesFor(1)); got != 1 {
		t.Errorf("updates = %d, want 1 (exception writes through)", got)
	}
}

func TestRun_UpdateFailureKeepsClassification(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("B", snapshot(domain.StatusDelivered), nil)
	store := newFakeStore(shipment(2, "B", domain.StatusInTransit))
	store.updateErr[2] = fmt.Errorf("%w: odoo down", domain.ErrStoreUnavailable)

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.NewlyDelivered) != 0 {
		t.Errorf("NewlyDelivered = %d, want 0 (write failed)", len(summary.NewlyDelivered))
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(summary.Failures))
	}
	tr := summary.Failures[0]
	if tr.Class != domain.ClassNewlyDelivered {
		t.Errorf("Class = %v, want ClassNewlyDelivered (preserved)", tr.Class)
	}
	if tr.Persisted {
		t.Error("Persisted = true, want false")
	}
	if !errors.Is(tr.Err, domain.ErrStoreUnavailable) {
		t.Errorf("Err = %v, want ErrStoreUnavailable", tr.Err)
	}
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("A", domain.Snapshot{}, fmt.Errorf("%w: timeout", domain.ErrTransient))
	carrier.set("B", snapshot(domain.StatusOutForDelivery), nil)
	store := newFakeStore(
		shipment(1, "A", domain.StatusInTransit),
		shipment(2, "B", domain.StatusInTransit),
	)

	r := NewReconciler(carrier, store, mockLogger{}, 2)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Failures) != 1 {
		t.Errorf("Failures = %d, want 1", len(summary.Failures))
	}
	if len(summary.InTransit) != 1 || summary.InTransit[0].TrackingNumber != "B" {
		t.Errorf("InTransit = %+v, want [B] despite A failing", summary.InTransit)
	}
}

func TestRun_AuthFailureDegradesCycle(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.set("A", domain.Snapshot{}, fmt.Errorf("%w: key revoked", domain.ErrAuthFailure))
	store := newFakeStore(shipment(1, "A", domain.StatusInTransit))

	r := NewReconciler(carrier, store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if !errors.Is(err, domain.ErrAuthFailure) {
		t.Errorf("Run err = %v, want ErrAuthFailure", err)
	}
	if summary.Total != 1 || len(summary.Failures) != 1 {
		t.Errorf("summary = %+v, want the failed shipment reported", summary)
	}
}

func TestRun_ListFailureAbortsCycle(t *testing.T) {
	store := newFakeStore()
	store.listErr = fmt.Errorf("%w: refused", domain.ErrStoreUnavailable)

	r := NewReconciler(newFakeCarrier(), store, mockLogger{}, 1)
	summary, err := r.Run(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Run err = %v, want ErrStoreUnavailable", err)
	}
	if summary.Total != 0 {
		t.Errorf("Total = %d, want 0", summary.Total)
	}
}

func TestRun_DeadlineResolvesPendingAsFailed(t *testing.T) {
	carrier := newFakeCarrier()
	carrier.results["SLOW"] = carrierResult{snap: snapshot(domain.StatusDelivered), delay: 200 * time.Millisecond}
	carrier.set("FAST", snapshot(domain.StatusInTransit), nil)
	store := newFakeStore(
		shipment(1, "SLOW", domain.StatusInTransit),
		shipment(2, "FAST", domain.StatusInTransit),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := NewReconciler(carrier, store, mockLogger{}, 2)
	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 2 {
		t.Fatalf("Total = %d, want 2 (deadline still resolves every shipment)", summary.Total)
	}
	var slowFailed bool
	for _, tr := range summary.Failures {
		if tr.TrackingNumber == "SLOW" && tr.Class == domain.ClassQueryFailed {
			slowFailed = true
		}
	}
	if !slowFailed {
		t.Errorf("SLOW not classified query-failed; failures = %+v", summary.Failures)
	}
}

func TestRun_BoundedFanOut(t *testing.T) {
	const workers = 2

	var mu sync.Mutex
	var inFlight, peak int

	carrier := newFakeCarrier()
	store := newFakeStore()
	for i := int64(1); i <= 8; i++ {
		tn := fmt.Sprintf("JD%04d", i)
		carrier.results[tn] = carrierResult{snap: snapshot(domain.StatusInTransit), delay: 10 * time.Millisecond}
		store.shipments = append(store.shipments, shipment(i, tn, domain.StatusInTransit))
	}

	gate := &gatedCarrier{inner: carrier, enter: func() {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
	}, leave: func() {
		mu.Lock()
		inFlight--
		mu.Unlock()
	}}

	r := NewReconciler(gate, store, mockLogger{}, workers)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > workers {
		t.Errorf("peak concurrent fetches = %d, want <= %d", peak, workers)
	}
}

type gatedCarrier struct {
	inner ports.CarrierClient
	enter func()
	leave func()
}

func (g *gatedCarrier) FetchStatus(ctx context.Context, tracking string) (domain.Snapshot, error) {
	g.enter()
	defer g.leave()
	return g.inner.FetchStatus(ctx, tracking)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		stored, fresh domain.Status
		want          domain.Classification
		wantException bool
	}{
		{"equal", domain.StatusInTransit, domain.StatusInTransit, domain.ClassNoChange, false},
		{"advance", domain.StatusInTransit, domain.StatusOutForDelivery, domain.ClassInTransitUpdate, false},
		{"advance to delivered", domain.StatusOutForDelivery, domain.StatusDelivered, domain.ClassNewlyDelivered, false},
		{"skip to delivered", domain.StatusPreTransit, domain.StatusDelivered, domain.ClassNewlyDelivered, false},
		{"backward", domain.StatusOutForDelivery, domain.StatusInTransit, domain.ClassNoChange, false},
		{"exception", domain.StatusInTransit, domain.StatusException, domain.ClassInTransitUpdate, true},
		{"exception over delivered", domain.StatusDelivered, domain.StatusException, domain.ClassInTransitUpdate, true},
		{"unknown carrier state", domain.StatusInTransit, domain.StatusUnknown, domain.ClassNoChange, false},
		{"first status", domain.StatusUnknown, domain.StatusInTransit, domain.ClassInTransitUpdate, false},
		{"recovery from exception", domain.StatusException, domain.StatusDelivered, domain.ClassNewlyDelivered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exception := classify(tt.stored, tt.fresh)
			if got != tt.want || exception != tt.wantException {
				t.Errorf("classify(%v, %v) = (%v, %v), want (%v, %v)",
					tt.stored, tt.fresh, got, exception, tt.want, tt.wantException)
			}
		})
	}
}
