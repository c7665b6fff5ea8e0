package timeentry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/timeentry/calendar"
)

// Coverage probes the store once and reports which days of interval have
// entries. It never creates anything.
func (r *Reconciler) Coverage(ctx context.Context, interval calendar.Interval) (Coverage, error) {
	existing, err := r.ExistingDays(ctx, interval)
	if err != nil {
		return Coverage{}, err
	}

	missing := MissingDays(interval, existing)
	total := interval.Len()
	present := total - len(missing)

	return Coverage{
		Interval:    interval,
		TotalDays:   total,
		PresentDays: present,
		MissingDays: missing,
		Ratio:       coverageRatio(present, total),
	}, nil
}

func coverageRatio(present, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(present)).
		Div(decimal.NewFromInt(int64(total))).
		Round(4)
}

// ValidateInterval checks the preconditions the Reconciler relies on.
// maxDays <= 0 disables the length check.
func ValidateInterval(interval calendar.Interval, maxDays int) error {
	if !interval.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if maxDays > 0 && interval.Len() > maxDays {
		return fmt.Errorf("%w: %d days (max %d)", ErrIntervalTooLong, interval.Len(), maxDays)
	}
	return nil
}
