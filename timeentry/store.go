package timeentry

import (
	"context"

	"github.com/warp/timeentry/calendar"
)

// =============================================================================
// STORE - The record store consumed by the Reconciler
// =============================================================================

// Store is the record store. It is append-only from the Reconciler's point
// of view: no update, no delete.
type Store interface {
	// QueryOverlapping returns every record whose [Start, End] shares at
	// least one day with the interval. One round trip, no pagination.
	QueryOverlapping(ctx context.Context, interval calendar.Interval) ([]Record, error)

	// CreateDayRecord persists {Start: day, End: day} and returns its id.
	CreateDayRecord(ctx context.Context, day calendar.Date) (RecordID, error)
}

// =============================================================================
// RUN STORE - Reconciliation audit log (append + list)
// =============================================================================

// RunStore persists reconciliation audit rows.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error

	// ListRuns returns runs newest first. Empty status means all.
	ListRuns(ctx context.Context, status RunStatus, limit int) ([]Run, error)
}
