/*
errors.go - Error taxonomy for reconciliation

ERROR CATEGORIES:
  1. ErrStoreUnavailable - the store could not be reached or rejected a call.
     Retryable. Mapped to 503 by the HTTP layer.
  2. ErrUnknown - anything else (malformed rows, bugs). Not retryable.
  3. context.Canceled / context.DeadlineExceeded - passed through as-is.

USAGE:
  Stores wrap driver failures in *StoreError, which unwraps to
  ErrStoreUnavailable AND the underlying cause:

    if errors.Is(err, timeentry.ErrStoreUnavailable) { ... }

  The Reconciler wraps every other failure with ErrUnknown.
*/
package timeentry

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/timeentry/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the record store could not be
	// reached or rejected a query or create call.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrUnknown marks any failure that is not a store availability problem.
	ErrUnknown = errors.New("unknown reconciliation failure")

	// ErrInvalidInterval is returned by callers that validate intervals
	// before handing them to the Reconciler.
	ErrInvalidInterval = errors.New("invalid interval: end before start")

	// ErrIntervalTooLong is returned when an interval exceeds the configured
	// maximum number of days.
	ErrIntervalTooLong = errors.New("interval too long")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Store operation names used in StoreError.Op.
const (
	OpQueryOverlapping = "query_overlapping"
	OpCreateDayRecord  = "create_day_record"
	OpSaveRun          = "save_run"
	OpListRuns         = "list_runs"
)

// StoreError describes a failed store call.
type StoreError struct {
	Op  string
	Day calendar.Date // zero unless Op is OpCreateDayRecord
	Err error
}

func (e *StoreError) Error() string {
	if e.Day.IsZero() {
		return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrStoreUnavailable, e.Op, e.Day, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// NewStoreError wraps err as a store availability failure.
// Context errors are returned unchanged so callers can tell cancellation
// apart from an outage.
func NewStoreError(op string, day calendar.Date, err error) error {
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		return err
	}
	return &StoreError{Op: op, Day: day, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsStoreUnavailable returns true if err was caused by the record store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsRetryable returns true if the same request might succeed later.
func IsRetryable(err error) bool {
	return IsStoreUnavailable(err) || isContextErr(err)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) || errors.Is(err, ErrIntervalTooLong)
}

// classify leaves store and context errors alone and marks everything else
// as ErrUnknown.
func classify(stage string, err error) error {
	if IsStoreUnavailable(err) || isContextErr(err) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, ErrUnknown, err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
