package pricesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "invtrack/internal/errors"
)

// DefaultInterval is the time between the starts of two scheduled cycles.
const DefaultInterval = 2 * time.Hour

// Cycler runs a single sync cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

// Scheduler runs a cycle immediately and then once per interval.
type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	log      *zap.SugaredLogger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new Scheduler. A non-positive interval falls back
// to DefaultInterval.
func NewScheduler(cycler Cycler, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		cycler:   cycler,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Run loops until ctx is cancelled or Stop is called. Cycle failures are
// logged and do not end the loop. Cancellation is only observed between
// cycles: a cycle that has started runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("price sync scheduler started", "interval", s.interval)
	if !s.stopped(ctx) {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("price sync scheduler stopped")
			return ctx.Err()
		case <-s.stop:
			s.log.Info("price sync scheduler stopped")
			return nil
		case <-ticker.C:
			if s.stopped(ctx) {
				continue
			}
			s.runOnce(ctx)
		}
	}
}

// Stop ends Run after the current cycle. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Scheduler) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.cycler.RunCycle(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, apperrors.ErrSyncInProgress):
		s.log.Info("price sync already running, skipping scheduled cycle")
	case err != nil:
		s.log.Errorw("price sync cycle failed", "error", err)
	default:
		for _, fe := range result.Errors {
			s.log.Warnw("price not refreshed", "ref", fe.Ref, "error", fe.Err)
		}
	}
}
