package app

import (
	"context"
	"testing"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
)

func TestLifecycle_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"stopped to starting", StateStopped, StateStarting},
		{"starting to running", StateStarting, StateRunning},
		{"starting to stopping", StateStarting, StateStopping},
		{"starting to crashed", StateStarting, StateCrashed},
		{"running to stopping", StateRunning, StateStopping},
		{"running to crashed", StateRunning, StateCrashed},
		{"stopping to stopped", StateStopping, StateStopped},
		{"stopping to crashed", StateStopping, StateCrashed},
		{"crashed to starting", StateCrashed, StateStarting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(mockLogger{})
			l.state = tt.from
			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo(%v) from %v: %v", tt.to, tt.from, err)
			}
			if got := l.State(); got != tt.to {
				t.Errorf("State() = %v, want %v", got, tt.to)
			}
		})
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"stopped to running", StateStopped, StateRunning},
		{"stopped to stopping", StateStopped, StateStopping},
		{"running to starting", StateRunning, StateStarting},
		{"running to stopped", StateRunning, StateStopped},
		{"stopping to running", StateStopping, StateRunning},
		{"crashed to running", StateCrashed, StateRunning},
		{"crashed to stopped", StateCrashed, StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(mockLogger{})
			l.state = tt.from
			if err := l.TransitionTo(tt.to, "test"); err == nil {
				t.Errorf("TransitionTo(%v) from %v succeeded, want error", tt.to, tt.from)
			}
			if got := l.State(); got != tt.from {
				t.Errorf("State() = %v, want unchanged %v", got, tt.from)
			}
		})
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state    State
		canStart bool
		canStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(mockLogger{})
			l.state = tt.state
			if got := l.CanStart(); got != tt.canStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.canStart)
			}
			if got := l.CanStop(); got != tt.canStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.canStop)
			}
		})
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(mockLogger{})

	// Cancel without a cancel func must not panic.
	l.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context not cancelled")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(mockLogger{})

	l.AddWorker()
	go func() {
		time.Sleep(20 * time.Millisecond)
		l.WorkerDone()
	}()

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout: %v", err)
	}
}

func TestLifecycle_WaitTimeoutExpires(t *testing.T) {
	l := NewLifecycle(mockLogger{})

	l.AddWorker()
	defer l.WorkerDone()

	err := l.WaitWithTimeout(20 * time.Millisecond)
	if err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout = %v, want ErrShutdownTimeout", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
