package timeentry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/timeentry/calendar"
)

// =============================================================================
// RECONCILER - Probe once, diff, create the missing days concurrently
// =============================================================================

// Options configures a Reconciler.
type Options struct {
	// MaxConcurrency caps in-flight CreateDayRecord calls.
	// Zero or negative means one goroutine per missing day.
	MaxConcurrency int

	Logger *zap.Logger
}

// Reconciler makes sure every day of an interval has a time entry.
// It holds no per-request state and is safe for concurrent use.
type Reconciler struct {
	store          Store
	maxConcurrency int
	logger         *zap.Logger
}

// NewReconciler creates a Reconciler backed by store.
func NewReconciler(store Store, opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:          store,
		maxConcurrency: opts.MaxConcurrency,
		logger:         logger,
	}
}

// Reconcile creates an entry for every day in interval that has none.
//
// The store is probed exactly once, and the probe completes before any
// creation starts. On failure nothing already created is rolled back.
// The returned error wraps ErrStoreUnavailable, ErrUnknown or a context error.
func (r *Reconciler) Reconcile(ctx context.Context, interval calendar.Interval) (Result, error) {
	existing, err := r.ExistingDays(ctx, interval)
	if err != nil {
		return Result{}, err
	}

	missing := MissingDays(interval, existing)
	r.logger.Debug("Probed interval",
		zap.Stringer("interval", interval),
		zap.Int("days", interval.Len()),
		zap.Int("existing", len(existing)),
		zap.Int("missing", len(missing)),
	)

	ids, err := r.createAll(ctx, missing)
	if err != nil {
		r.logger.Error("Reconciliation failed during creation",
			zap.Stringer("interval", interval),
			zap.Int("missing", len(missing)),
			zap.Error(err),
		)
		return Result{}, err
	}

	r.logger.Info("Reconciled interval",
		zap.Stringer("interval", interval),
		zap.Int("created", len(ids)),
	)

	return Result{
		Interval:    interval,
		CreatedIDs:  ids,
		CreatedDays: missing,
	}, nil
}

// ExistingDays returns the distinct Start days of the records overlapping
// interval. Exactly one store round trip.
func (r *Reconciler) ExistingDays(ctx context.Context, interval calendar.Interval) (map[calendar.Date]struct{}, error) {
	records, err := r.store.QueryOverlapping(ctx, interval)
	if err != nil {
		return nil, classify("probe existing days", err)
	}

	existing := make(map[calendar.Date]struct{}, len(records))
	for _, rec := range records {
		if rec.Start.IsZero() {
			return nil, classify("probe existing days", fmt.Errorf("record %q has no start date", rec.ID))
		}
		existing[rec.Start] = struct{}{}
	}
	return existing, nil
}

// MissingDays returns the days of interval not present in existing,
// ascending.
func MissingDays(interval calendar.Interval, existing map[calendar.Date]struct{}) []calendar.Date {
	missing := make([]calendar.Date, 0, interval.Len())
	for day := range interval.Days() {
		if _, ok := existing[day]; !ok {
			missing = append(missing, day)
		}
	}
	return missing
}

// createAll issues one CreateDayRecord per day and waits for all of them.
// ids[i] belongs to days[i] whatever order the calls finish in. The first
// failure the join observes is returned; siblings are not cancelled.
func (r *Reconciler) createAll(ctx context.Context, days []calendar.Date) ([]RecordID, error) {
	ids := make([]RecordID, len(days))
	if len(days) == 0 {
		return ids, nil
	}

	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}

	for i, day := range days {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := r.store.CreateDayRecord(ctx, day)
			if err != nil {
				return classify("create entry for "+day.String(), err)
			}
			if id == "" {
				return classify("create entry for "+day.String(), fmt.Errorf("store returned an empty id"))
			}

			r.logger.Debug("Created time entry",
				zap.String("id", string(id)),
				zap.Stringer("day", day),
			)
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}
