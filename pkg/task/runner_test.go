package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestImmediateFirstTick(t *testing.T) {
	var ticks atomic.Int32
	r := NewRunner("test", time.Hour, func(context.Context) { ticks.Add(1) })

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop(context.Background())

	deadline := time.Now().Add(time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ticks.Load() != 1 {
		t.Fatalf("expected immediate first tick, got %d", ticks.Load())
	}
}

func TestDoubleStartFails(t *testing.T) {
	r := NewRunner("test", time.Hour, func(context.Context) {})
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop(context.Background())

	if err := r.Start(); err == nil {
		t.Fatalf("second start must fail")
	}
}

func TestStopWaitsForTick(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewRunner("test", time.Hour, func(context.Context) {
		close(started)
		<-release
	})
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- r.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatalf("stop must wait for the in-flight tick")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-stopped; err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", r.State())
	}
}

func TestStopDeadline(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewRunner("test", time.Hour, func(context.Context) {
		close(started)
		<-release
	})
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Stop(ctx); err == nil {
		t.Fatalf("stop must report the exceeded deadline")
	}
}

func TestStopIdempotent(t *testing.T) {
	r := NewRunner("test", time.Hour, func(context.Context) {})
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stopping a stopped runner must be a no-op, got %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("second stop must be a no-op, got %v", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	var ticks atomic.Int32
	r := NewRunner("test", time.Hour, func(context.Context) { ticks.Add(1) })

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer r.Stop(context.Background())

	if r.State() != StateRunning {
		t.Fatalf("expected running after restart")
	}
}

func TestStatusOf(t *testing.T) {
	r := NewRunner("refresh", 5*time.Second, func(context.Context) {})
	s := StatusOf(r)
	if s.Name != "refresh" || s.State != "stopped" || s.Interval != 5000 {
		t.Fatalf("unexpected status %+v", s)
	}
}
