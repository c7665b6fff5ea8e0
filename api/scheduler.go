/*
scheduler.go - Automated backfill scheduler

PURPOSE:
  Periodically reconciles a rolling window of days around today so that
  days nobody asked for explicitly still end up with a time entry.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Window is [today - LookbackDays, today + LookaheadDays], UTC days
  - Every pass goes through the same reconciler as the API, so passes
    over an already-covered window create nothing
  - Each pass is recorded as a reconciliation run (trigger=scheduler)

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: false via config)

USAGE:
  scheduler := NewBackfillScheduler(reconciler, runs, cfg.Scheduler, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: AddTimeEntries endpoint (manual reconciliation)
  - timeentry/reconciler.go: Reconciler
*/
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/config"
	"github.com/warp/timeentry/timeentry"
)

// BackfillScheduler reconciles a rolling window on a timer.
type BackfillScheduler struct {
	Reconciler    *timeentry.Reconciler
	Runs          timeentry.RunStore
	CheckInterval time.Duration
	LookbackDays  int
	LookaheadDays int
	Enabled       bool

	// Today returns the reference day of a pass. Defaults to calendar.Today.
	Today func() calendar.Date

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	// tickStart is the ticker's creation time in unix nanos; 0 when stopped.
	tickStart atomic.Int64
}

// NewBackfillScheduler creates a new scheduler.
func NewBackfillScheduler(reconciler *timeentry.Reconciler, runs timeentry.RunStore, cfg config.SchedulerConfig, logger *zap.Logger) *BackfillScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &BackfillScheduler{
		Reconciler:    reconciler,
		Runs:          runs,
		CheckInterval: interval,
		LookbackDays:  cfg.LookbackDays,
		LookaheadDays: cfg.LookaheadDays,
		Enabled:       cfg.Enabled,
		Today:         calendar.Today,
		logger:        logger.Named("scheduler"),
	}
}

// Start begins the scheduler. Calling Start on a running scheduler is a no-op.
func (bs *BackfillScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		bs.logger.Info("Disabled, not starting")
		return
	}
	if bs.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.cancel = cancel
	bs.stop = make(chan struct{})
	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.tickStart.Store(time.Now().UnixNano())
	bs.wg.Add(1)

	go bs.run(ctx)

	bs.logger.Info("Started",
		zap.Duration("check_interval", bs.CheckInterval),
		zap.Int("lookback_days", bs.LookbackDays),
		zap.Int("lookahead_days", bs.LookaheadDays),
	)
}

// Stop stops the scheduler and waits for an in-flight pass to return.
// The in-flight pass is cancelled.
func (bs *BackfillScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker == nil {
		return
	}
	bs.ticker.Stop()
	bs.cancel()
	close(bs.stop)
	bs.wg.Wait()
	bs.ticker = nil
	bs.tickStart.Store(0)
	bs.logger.Info("Stopped")
}

func (bs *BackfillScheduler) run(ctx context.Context) {
	defer bs.wg.Done()

	// Run immediately on start
	bs.pass(ctx)

	for {
		select {
		case <-bs.ticker.C:
			bs.pass(ctx)
		case <-bs.stop:
			return
		}
	}
}

// Window returns the interval the next pass will reconcile.
func (bs *BackfillScheduler) Window() calendar.Interval {
	today := bs.Today()
	return calendar.NewInterval(today.AddDays(-bs.LookbackDays), today.AddDays(bs.LookaheadDays))
}

// RunNow performs one pass immediately.
func (bs *BackfillScheduler) RunNow(ctx context.Context) (timeentry.Result, error) {
	window := bs.Window()
	result, err := timeentry.Audited(ctx, bs.Runs, bs.logger, timeentry.TriggerScheduler, window, bs.Reconciler.Reconcile)
	if err != nil {
		bs.logger.Error("Backfill failed", zap.Stringer("interval", window), zap.Error(err))
		return result, err
	}
	if result.Created() > 0 {
		bs.logger.Info("Backfill completed", zap.Stringer("interval", window), zap.Int("created", result.Created()))
	}
	return result, nil
}

func (bs *BackfillScheduler) pass(ctx context.Context) {
	bs.RunNow(ctx)
	bs.logger.Debug("Next pass scheduled", zap.Time("next_run", bs.NextRunTime()))
}

// NextRunTime returns when the ticker fires next, or the zero time when
// the scheduler is not running.
func (bs *BackfillScheduler) NextRunTime() time.Time {
	started := bs.tickStart.Load()
	if started == 0 {
		return time.Time{}
	}
	return nextTick(time.Unix(0, started), time.Now(), bs.CheckInterval)
}

// nextTick returns the first tick strictly after now of a ticker created
// at start with period every.
func nextTick(start, now time.Time, every time.Duration) time.Time {
	if now.Before(start) {
		return start.Add(every)
	}
	n := now.Sub(start)/every + 1
	return start.Add(n * every)
}
