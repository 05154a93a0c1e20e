package task

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State describes the lifecycle of a periodic runner.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// TickFunc is invoked once per interval. The context is cancelled when the
// runner begins stopping; an in-flight tick is allowed to finish.
type TickFunc func(ctx context.Context)

// Runner executes a TickFunc on a fixed interval. Ticks never overlap: if a
// tick is still running when the interval elapses, that interval is skipped.
type Runner struct {
	name     string
	interval time.Duration
	tick     TickFunc

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	lastRun time.Time
}

// NewRunner creates a stopped runner.
func NewRunner(name string, interval time.Duration, tick TickFunc) *Runner {
	return &Runner{name: name, interval: interval, tick: tick}
}

// Start launches the tick loop. The first tick fires immediately.
// Starting a runner that is not stopped is an error.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStopped {
		return fmt.Errorf("task %s: already %s", r.name, r.state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.state = StateRunning

	go r.loop(ctx)
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	r.lastRun = time.Now()
	r.mu.Unlock()
	r.tick(ctx)
}

// Stop cancels the loop and waits for an in-flight tick to finish, bounded by
// ctx.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return nil
	}
	r.state = StateStopping
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("task %s: stop: %w", r.name, ctx.Err())
	}

	r.mu.Lock()
	r.state = StateStopped
	r.mu.Unlock()
	return nil
}

// State reports the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Interval reports the configured tick interval.
func (r *Runner) Interval() time.Duration { return r.interval }

// LastRun reports when the last tick started; zero if never.
func (r *Runner) LastRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

// Status is a serializable snapshot of a runner, reported by the API layer.
type Status struct {
	Name     string        `json:"name"`
	State    string        `json:"state"`
	Interval time.Duration `json:"interval_ms"`
	LastRun  time.Time     `json:"last_run,omitempty"`
}

// StatusOf captures the status of a runner.
func StatusOf(r *Runner) Status {
	return Status{
		Name:     r.name,
		State:    r.State().String(),
		Interval: r.interval / time.Millisecond,
		LastRun:  r.LastRun(),
	}
}
