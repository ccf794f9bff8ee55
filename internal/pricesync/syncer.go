// Package pricesync refreshes stored market prices and the figures derived
// from them.
//
// A cycle runs in two phases. Refreshing fetches one price per distinct
// external reference, sequentially and with a cooldown between calls, and
// writes it to every item tracking that reference. Recomputing then derives
// the totals of every item again. The status marker is written only after
// both phases succeed.
package pricesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/pricesource"
	"invtrack/internal/repository"
	"invtrack/internal/syncstatus"
	"invtrack/internal/valuation"
)

// DefaultCooldown is the pause between two external price requests.
const DefaultCooldown = 4500 * time.Millisecond

// FetchError records a reference whose price could not be refreshed.
type FetchError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to refresh price for %s: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// CycleResult contains the outcome of a sync cycle.
type CycleResult struct {
	RefsFetched     int
	PricesUpdated   int64
	ItemsRecomputed int
	Errors          []FetchError
	Duration        time.Duration
	CompletedAt     time.Time
}

// Options configures a Syncer.
type Options struct {
	// Cooldown separates consecutive price requests. Zero disables it.
	Cooldown time.Duration
	// Location is the zone the completion time is recorded in. Defaults to UTC.
	Location *time.Location
	// CurrencyCode is the ISO 4217 code prices are quoted in, used for logging.
	CurrencyCode string
}

// Syncer runs price sync cycles. At most one cycle runs at a time.
type Syncer struct {
	repo     repository.InventoryRepository
	source   pricesource.Source
	status   syncstatus.Store
	cooldown time.Duration
	loc      *time.Location
	currency string
	log      *zap.SugaredLogger

	running atomic.Bool
	wg      sync.WaitGroup
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewSyncer creates a new Syncer.
func NewSyncer(repo repository.InventoryRepository, source pricesource.Source, status syncstatus.Store, opts Options, log *zap.SugaredLogger) *Syncer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CurrencyCode == "" {
		opts.CurrencyCode = money.USD
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Syncer{
		repo:     repo,
		source:   source,
		status:   status,
		cooldown: opts.Cooldown,
		loc:      opts.Location,
		currency: opts.CurrencyCode,
		log:      log,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Running reports whether a cycle is in progress.
func (s *Syncer) Running() bool { return s.running.Load() }

// RunCycle executes one refresh-then-recompute cycle. It returns
// ErrSyncInProgress without doing anything if another cycle is running.
//
// Unavailable prices and per-reference write failures are collected in the
// result and do not fail the cycle; the prior price stays in place. Any
// failure while recomputing aborts the cycle and leaves the marker untouched.
func (s *Syncer) RunCycle(ctx context.Context) (*CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.runCycle(ctx)
}

// StartCycle claims the cycle slot and runs the cycle in the background,
// detached from ctx's cancellation. It returns ErrSyncInProgress if another
// cycle is running; the outcome of the started cycle is only logged.
func (s *Syncer) StartCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return apperrors.ErrSyncInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.runCycle(context.WithoutCancel(ctx)); err != nil {
			s.log.Errorw("price sync cycle failed", "error", err)
		}
	}()
	return nil
}

// Wait blocks until every cycle started with StartCycle has finished.
func (s *Syncer) Wait() { s.wg.Wait() }

func (s *Syncer) runCycle(ctx context.Context) (*CycleResult, error) {
	start := s.now()
	result := &CycleResult{}

	if err := s.refresh(ctx, result); err != nil {
		result.Duration = s.now().Sub(start)
		return result, err
	}
	if err := s.recompute(ctx, result); err != nil {
		result.Duration = s.now().Sub(start)
		return result, err
	}

	completed := s.now().In(s.loc)
	if err := s.status.Write(ctx, syncstatus.Status{LastCompletedAt: completed}); err != nil {
		result.Duration = s.now().Sub(start)
		return result, apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	result.CompletedAt = completed
	result.Duration = s.now().Sub(start)

	s.log.Infow("price sync completed",
		"refs_fetched", result.RefsFetched,
		"prices_updated", result.PricesUpdated,
		"items_recomputed", result.ItemsRecomputed,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *Syncer) refresh(ctx context.Context, result *CycleResult) error {
	refs, err := s.repo.ListDistinctRefs(ctx)
	if err != nil {
		return err
	}
	s.log.Infow("refreshing prices", "source", s.source.Name(), "refs", len(refs))

	for i, ref := range refs {
		if i > 0 {
			if err := s.sleep(ctx, s.cooldown); err != nil {
				return err
			}
		}

		price, ok := s.source.FetchPrice(ctx, ref)
		result.RefsFetched++
		if !ok {
			result.Errors = append(result.Errors, FetchError{Ref: ref, Err: apperrors.ErrPriceUnavailable})
			continue
		}

		updated, err := s.repo.UpdatePriceByRef(ctx, ref, price)
		if err != nil {
			s.log.Warnw("price write failed", "ref", ref, "error", err)
			result.Errors = append(result.Errors, FetchError{Ref: ref, Err: err})
			continue
		}
		result.PricesUpdated += updated
		s.log.Debugw("price refreshed", "ref", ref, "price", s.display(price), "items", updated)
	}
	return nil
}

func (s *Syncer) recompute(ctx context.Context, result *CycleResult) error {
	items, err := s.repo.ListEvery(ctx)
	if err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		err := s.repo.Update(ctx, item.ID, repository.ItemUpdate{
			AcquiredDate: item.AcquiredDate,
			ExternalRef:  item.ExternalRef,
			DisplayName:  item.DisplayName,
			Valuation:    valuation.FromItem(item),
		})
		if errors.Is(err, apperrors.ErrItemNotFound) {
			// Deleted since ListEvery.
			continue
		}
		if err != nil {
			s.log.Errorw("recompute failed, aborting cycle", "item_id", item.ID, "error", err)
			return apperrors.Wrap(apperrors.ErrStorageWrite, err)
		}
		result.ItemsRecomputed++
	}
	return nil
}

// display formats price for log output in the configured currency.
func (s *Syncer) display(price decimal.Decimal) string {
	cur := money.GetCurrency(s.currency)
	if cur == nil {
		return price.StringFixed(valuation.Places)
	}
	minor := price.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), s.currency).Display()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
