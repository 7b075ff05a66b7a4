// Package app contains the reconciliation engine: the per-cycle
// reconciler, the interval scheduler, and the lifecycle state machine.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

// DefaultWorkers bounds per-shipment fan-out when no limit is configured.
// Kept small to respect carrier rate limits.
const DefaultWorkers = 5

// Reconciler runs one reconciliation cycle: it pulls the active shipment
// list from the record store, queries the carrier per shipment, applies
// write-throughs, and joins everything into a cycle summary.
type Reconciler struct {
	carrier ports.CarrierClient
	store   ports.RecordStore
	logger  ports.Logger

	mu      sync.RWMutex
	workers int
}

// NewReconciler creates a reconciler with the given worker limit.
func NewReconciler(carrier ports.CarrierClient, store ports.RecordStore, logger ports.Logger, workers int) *Reconciler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Reconciler{
		carrier: carrier,
		store:   store,
		logger:  logger,
		workers: workers,
	}
}

// SetWorkers changes the fan-out limit for subsequent cycles.
func (r *Reconciler) SetWorkers(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.workers = n
	r.mu.Unlock()
}

func (r *Reconciler) workerLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workers
}

// Run executes one cycle. Per-shipment failures are contained in the
// summary and never returned as errors. A non-nil error means the cycle
// itself degraded: the active listing failed, or a credential was
// rejected mid-cycle (remaining fetches are cancelled). The returned
// summary is valid either way.
func (r *Reconciler) Run(ctx context.Context) (domain.CycleSummary, error) {
	summary := domain.CycleSummary{StartedAt: time.Now().UTC()}

	shipments, err := r.store.ListActiveShipments(ctx)
	if err != nil {
		summary.FinishedAt = time.Now().UTC()
		return summary, fmt.Errorf("list active shipments: %w", err)
	}
	r.logger.Info("cycle started", ports.Int("active_shipments", len(shipments)))

	results := make(chan domain.Transition, len(shipments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workerLimit())

	for _, sh := range shipments {
		sh := sh
		g.Go(func() error {
			t := r.reconcileOne(gctx, sh)
			results <- t
			// A rejected credential fails every remaining fetch the same
			// way; cancel the group and escalate to the scheduler.
			if t.Err != nil && errors.Is(t.Err, domain.ErrAuthFailure) {
				return t.Err
			}
			return nil
		})
	}

	groupErr := g.Wait()
	close(results)
	for t := range results {
		summary.Add(t)
	}
	summary.FinishedAt = time.Now().UTC()

	if groupErr != nil {
		return summary, fmt.Errorf("cycle degraded: %w", groupErr)
	}
	return summary, nil
}

// reconcileOne handles a single shipment independently of the rest of
// the batch. It never returns an error; every outcome is a transition.
func (r *Reconciler) reconcileOne(ctx context.Context, sh domain.Shipment) domain.Transition {
	t := domain.Transition{
		TrackingNumber: sh.TrackingNumber,
		RecordID:       sh.RecordID,
		Reference:      sh.Reference,
		PartnerName:    sh.PartnerName,
		Previous:       sh.Status,
		New:            sh.Status,
		Class:          domain.ClassNoChange,
	}

	// Shipments still pending when the cycle deadline hits resolve as
	// query failures rather than staying unresolved.
	if err := ctx.Err(); err != nil {
		t.Class = domain.ClassQueryFailed
		t.Err = fmt.Errorf("%w: cycle deadline: %v", domain.ErrTransient, err)
		return t
	}

	snap, err := r.carrier.FetchStatus(ctx, sh.TrackingNumber)
	if err != nil {
		t.Class = domain.ClassQueryFailed
		t.Err = err
		r.logger.Warn("carrier query failed",
			ports.String("tracking_number", sh.TrackingNumber),
			ports.Err(err),
		)
		return t
	}

	t.New = snap.Status
	t.Detail = snap.Description
	t.NextSteps = snap.NextSteps
	t.Class, t.Exception = classify(sh.Status, snap.Status)

	if t.Class == domain.ClassNoChange {
		if isRegression(sh.Status, snap.Status) {
			r.logger.Warn("carrier reported status regression",
				ports.String("tracking_number", sh.TrackingNumber),
				ports.String("stored", sh.Status.String()),
				ports.String("carrier", snap.Status.String()),
			)
		}
		return t
	}

	update := domain.StatusUpdate{
		Status:    snap.Status,
		At:        snap.Timestamp,
		Detail:    snap.Description,
		NextSteps: snap.NextSteps,
	}
	if err := r.store.UpdateStatus(ctx, sh.RecordID, update); err != nil {
		t.Err = err
		r.logger.Warn("status write-through failed",
			ports.String("tracking_number", sh.TrackingNumber),
			ports.String("class", t.Class.String()),
			ports.Err(err),
		)
		// Classification preserved, Persisted stays false; the next
		// cycle re-detects the same mismatch and retries naturally.
		return t
	}
	t.Persisted = true

	switch t.Class {
	case domain.ClassNewlyDelivered:
		r.logger.Info("shipment delivered",
			ports.String("tracking_number", sh.TrackingNumber),
			ports.String("partner", sh.PartnerName),
		)
	default:
		r.logger.Debug("shipment updated",
			ports.String("tracking_number", sh.TrackingNumber),
			ports.String("status", snap.Status.String()),
			ports.Bool("exception", t.Exception),
		)
	}
	return t
}

// classify applies the transition rules: equal means no change, an
// exception is always a reportable update, a forward move to delivered
// is newly delivered, any other forward move is an in-transit update,
// and backward or unknown states never mutate the store.
func classify(stored, fresh domain.Status) (domain.Classification, bool) {
	switch {
	case fresh == domain.StatusException:
		return domain.ClassInTransitUpdate, true
	case fresh == stored:
		return domain.ClassNoChange, false
	case !fresh.Ordered():
		return domain.ClassNoChange, false
	case stored.Ordered() && fresh.Rank() <= stored.Rank():
		return domain.ClassNoChange, false
	case fresh == domain.StatusDelivered:
		return domain.ClassNewlyDelivered, false
	default:
		return domain.ClassInTransitUpdate, false
	}
}

func isRegression(stored, fresh domain.Status) bool {
	return stored.Ordered() && fresh.Ordered() && fresh.Rank() < stored.Rank()
}
