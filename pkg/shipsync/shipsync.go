package shipsync

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/parcel-labs/shipsync/internal/adapters/dhl"
	"github.com/parcel-labs/shipsync/internal/adapters/fs"
	"github.com/parcel-labs/shipsync/internal/adapters/odoo"
	"github.com/parcel-labs/shipsync/internal/adapters/webhook"
	"github.com/parcel-labs/shipsync/internal/app"
	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

// State represents the lifecycle state of a Tracker.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return convertStateBack(s).String()
}

// Tracker is a shipment reconciliation agent that can be embedded in
// other applications. Use New() to create an instance, then Start() to
// begin the polling loop.
type Tracker struct {
	config     Config
	opts       options
	lifecycle  *app.Lifecycle
	reconciler *app.Reconciler
	scheduler  *app.Scheduler
	notifier   ports.Notifier
	sender     *webhook.Sender
	logger     ports.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new Tracker with the given configuration.
// The instance is created in StateStopped; call Start() to begin polling.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Tracker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	lifecycle := app.NewLifecycle(logger)

	carrier := o.carrier
	if carrier == nil {
		carrier = dhl.NewClient(cfg.CarrierURL, cfg.CarrierAPIKey, o.httpClient, logger)
	}

	store := o.store
	if store == nil {
		store = odoo.NewClient(odoo.Config{
			URL:         cfg.OdooURL,
			Database:    cfg.OdooDB,
			Username:    cfg.OdooUsername,
			Password:    cfg.OdooPassword,
			CarrierName: cfg.CarrierName,
			Lookback:    cfg.Lookback,
			Limit:       cfg.ShipmentLimit,
		}, logger)
	}

	var sender *webhook.Sender
	notifier := o.notifier
	if notifier == nil {
		sender = webhook.NewSender(cfg.WebhookURL, o.httpClient, logger)
		notifier = sender
	}

	recorder := o.recorder
	if recorder == nil && cfg.StatusFile != "" {
		recorder = fs.NewStatusFileRecorder(cfg.StatusFile)
	}

	reconciler := app.NewReconciler(carrier, store, logger, cfg.Workers)
	scheduler := app.NewScheduler(app.SchedulerConfig{
		Interval:     cfg.PollInterval,
		CycleTimeout: cfg.CycleTimeout,
		Once:         cfg.Once,
	}, reconciler, notifier, recorder, logger)

	return &Tracker{
		config:     cfg,
		opts:       o,
		lifecycle:  lifecycle,
		reconciler: reconciler,
		scheduler:  scheduler,
		notifier:   notifier,
		sender:     sender,
		logger:     logger,
	}, nil
}

// Start begins the polling loop in the background.
// Returns immediately after starting the scheduler goroutine.
// Returns an error if already running.
// The provided context bounds the lifetime of the polling loop.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := t.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.lifecycle.SetCancel(cancel)

	t.lifecycle.AddWorker()
	go func() {
		defer t.lifecycle.WorkerDone()

		if err := t.lifecycle.TransitionTo(app.StateRunning, "scheduler starting"); err != nil {
			t.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		// Startup notice is best effort; a dead webhook must not block
		// reconciliation.
		if err := t.notifier.Announce(runCtx, "Shipment tracking started"); err != nil {
			t.logger.Warn("startup announce failed", ports.Err(err))
		}

		err := t.scheduler.Run(runCtx)
		switch {
		case err == nil:
			// Once mode completed.
			_ = t.lifecycle.TransitionTo(app.StateStopping, "single cycle complete")
			_ = t.lifecycle.TransitionTo(app.StateStopped, "single cycle complete")
		case errors.Is(err, context.Canceled):
			// Stop() drives the shutdown transitions.
		default:
			t.logger.Error("scheduler error", ports.Err(err))
			_ = t.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the polling loop. A cycle in flight is
// given until ShutdownTimeout to finish. Returns nil on graceful
// shutdown, ErrShutdownTimeout if forced.
func (t *Tracker) Stop() error {
	t.mu.Lock()

	if !t.lifecycle.CanStop() {
		state := t.lifecycle.State()
		t.mu.Unlock()
		if state == app.StateStopped {
			// Once mode already finished; nothing to do.
			return nil
		}
		return domain.ErrNotRunning
	}

	if err := t.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		t.mu.Unlock()
		return err
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	err := t.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = t.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = t.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (t *Tracker) Status() State {
	return convertState(t.lifecycle.State())
}

// TriggerNow requests an immediate out-of-band cycle. A trigger arriving
// while a cycle runs is dropped.
func (t *Tracker) TriggerNow() {
	t.scheduler.TriggerNow()
}

// ApplyConfig applies a reloaded configuration to the running tracker.
// Only the hot-swappable fields take effect: poll interval, cycle
// timeout, worker count and webhook URL. Connection settings require a
// restart.
func (t *Tracker) ApplyConfig(cfg Config) {
	cfg.SetDefaults()

	t.scheduler.Update(app.SchedulerConfig{
		Interval:     cfg.PollInterval,
		CycleTimeout: cfg.CycleTimeout,
	})
	t.reconciler.SetWorkers(cfg.Workers)
	if t.sender != nil {
		t.sender.SetURL(cfg.WebhookURL)
	}

	t.logger.Info("configuration applied",
		ports.Duration("poll_interval", cfg.PollInterval),
		ports.Duration("cycle_timeout", cfg.CycleTimeout),
		ports.Int("workers", cfg.Workers),
	)
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertStateBack(s State) app.State {
	switch s {
	case StateStarting:
		return app.StateStarting
	case StateRunning:
		return app.StateRunning
	case StateStopping:
		return app.StateStopping
	case StateCrashed:
		return app.StateCrashed
	default:
		return app.StateStopped
	}
}
