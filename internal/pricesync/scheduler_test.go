package pricesync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockCycler implements Cycler for testing.
type mockCycler struct {
	runCycleFn func(ctx context.Context) (*CycleResult, error)
}

func (m *mockCycler) RunCycle(ctx context.Context) (*CycleResult, error) {
	return m.runCycleFn(ctx)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	var calls atomic.Int32
	cycler := &mockCycler{runCycleFn: func(_ context.Context) (*CycleResult, error) {
		calls.Add(1)
		return &CycleResult{}, nil
	}}
	s := NewScheduler(cycler, 10*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	waitFor(t, func() bool { return calls.Load() >= 3 })
	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil after Stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestScheduler_StoppedBeforeRun(t *testing.T) {
	var calls atomic.Int32
	cycler := &mockCycler{runCycleFn: func(_ context.Context) (*CycleResult, error) {
		calls.Add(1)
		return &CycleResult{}, nil
	}}
	s := NewScheduler(cycler, time.Hour, nil)
	s.Stop()

	if err := s.Run(context.Background()); err != nil {
		t.Errorf("expected nil after Stop, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no cycle after Stop, got %d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = NewScheduler(cycler, time.Hour, nil)
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no cycle on a cancelled context, got %d", got)
	}
}

func TestScheduler_FailuresDoNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	cycler := &mockCycler{runCycleFn: func(_ context.Context) (*CycleResult, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}}
	s := NewScheduler(cycler, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, func() bool { return calls.Load() >= 3 })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScheduler_InFlightCycleFinishes(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var cycleCtxErr atomic.Value
	var calls atomic.Int32

	cycler := &mockCycler{runCycleFn: func(ctx context.Context) (*CycleResult, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			if err := ctx.Err(); err != nil {
				cycleCtxErr.Store(err)
			}
		}
		return &CycleResult{}, nil
	}}
	s := NewScheduler(cycler, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-entered
	cancel()
	s.Stop()

	select {
	case <-done:
		t.Fatal("Run returned while a cycle was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the cycle finished")
	}

	if err := cycleCtxErr.Load(); err != nil {
		t.Errorf("expected the in-flight cycle to keep a live context, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no further cycles after stop, got %d", calls.Load())
	}
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&mockCycler{}, 0, nil)
	if s.interval != DefaultInterval {
		t.Errorf("expected default interval %v, got %v", DefaultInterval, s.interval)
	}
}
