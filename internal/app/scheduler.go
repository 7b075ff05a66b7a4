package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

// SchedulerConfig contains the cycle cadence parameters.
type SchedulerConfig struct {
	// Interval between cycle starts. The next cycle is scheduled relative
	// to the end of the previous one.
	Interval time.Duration

	// CycleTimeout is the overall deadline for one cycle's reconciliation
	// work. Zero disables the deadline.
	CycleTimeout time.Duration

	// Once runs a single cycle and returns.
	Once bool
}

// Scheduler drives reconciliation cycles at a fixed interval with
// single-flight semantics: at most one cycle executes at a time and an
// overlapping trigger is skipped, never queued behind a running cycle.
type Scheduler struct {
	reconciler *Reconciler
	notifier   ports.Notifier
	recorder   ports.StatusRecorder
	logger     ports.Logger

	mu       sync.Mutex
	cfg      SchedulerConfig
	inFlight bool

	trigger chan struct{}
}

// NewScheduler creates a scheduler. The recorder may be nil.
func NewScheduler(cfg SchedulerConfig, reconciler *Reconciler, notifier ports.Notifier, recorder ports.StatusRecorder, logger ports.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		notifier:   notifier,
		recorder:   recorder,
		logger:     logger,
		cfg:        cfg,
		trigger:    make(chan struct{}, 1),
	}
}

// Update swaps the cadence parameters. Takes effect for the next cycle.
func (s *Scheduler) Update(cfg SchedulerConfig) {
	s.mu.Lock()
	s.cfg.Interval = cfg.Interval
	s.cfg.CycleTimeout = cfg.CycleTimeout
	s.mu.Unlock()
}

func (s *Scheduler) config() SchedulerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// TriggerNow requests an immediate out-of-band cycle. A trigger arriving
// while a cycle runs is dropped.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes cycles until the context is done. The first cycle starts
// immediately. Returns nil in once mode, the context error otherwise.
func (s *Scheduler) Run(ctx context.Context) error {
	s.RunCycle(ctx)
	if s.config().Once {
		return nil
	}

	timer := time.NewTimer(s.config().Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			s.RunCycle(ctx)
			timer.Reset(s.config().Interval)
		case <-s.trigger:
			// Out-of-band cycles leave the timer running, so the
			// periodic cadence is not postponed by triggers.
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one cycle unless another is already in flight, in
// which case it reports false and does nothing. Faults inside a cycle,
// panics included, are contained at this boundary so the next scheduled
// cycle always fires.
func (s *Scheduler) RunCycle(ctx context.Context) bool {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn("cycle still running, skipping trigger")
		return false
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("cycle panicked", ports.Any("panic", rec))
		}
	}()

	s.cycle(ctx)
	return true
}

func (s *Scheduler) cycle(ctx context.Context) {
	cfg := s.config()

	cctx := ctx
	if cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, cfg.CycleTimeout)
		defer cancel()
	}

	summary, err := s.reconciler.Run(cctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthFailure):
			s.logger.Error("credentials rejected, waiting for next cycle", ports.Err(err))
		default:
			s.logger.Error("cycle failed", ports.Err(err))
		}
		if summary.Total == 0 {
			// Listing failed before any shipment was examined; there is
			// nothing to report.
			return
		}
	}

	// Store mutation and notification are independent effects: updates
	// already applied stay committed whatever happens below. Delivery
	// uses the parent context so a cycle that ran out of deadline still
	// reports its summary.
	if err := s.notifier.Deliver(ctx, summary); err != nil {
		s.logger.Error("summary delivery failed", ports.Err(err))
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, summary); err != nil {
			s.logger.Warn("status record failed", ports.Err(err))
		}
	}

	s.logger.Info("cycle complete",
		ports.Int("total", summary.Total),
		ports.Int("newly_delivered", len(summary.NewlyDelivered)),
		ports.Int("in_transit", len(summary.InTransit)),
		ports.Int("no_change", summary.NoChange),
		ports.Int("failures", len(summary.Failures)),
		ports.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
}
