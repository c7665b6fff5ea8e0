/*
Package timeentry reconciles a requested date interval against a record
store so that every calendar day in the interval has a time entry.

PURPOSE:
  A time entry is a persisted record that marks one calendar day. Clients
  ask for an interval; the Reconciler creates the entries that are missing
  and leaves existing ones untouched.

PIPELINE:
  1. Normalize:  instants -> UTC calendar days (calendar.NormalizeInterval)
  2. Sequence:   every day in [Start, End] (calendar.Interval.Days)
  3. Probe:      ONE query for records overlapping the interval
  4. Diff:       sequenced days minus days already stored
  5. Create:     one CreateDayRecord per missing day, concurrently
  6. Aggregate:  ids ordered by missing day, or the first failure

PARTIAL EFFECTS:
  Creation failures do NOT roll back the entries that were created.
  Retrying the same interval is safe: the next probe sees them.

CROSS-REQUEST RACES:
  Two concurrent reconciliations of overlapping intervals can both create
  an entry for the same day. Nothing here deduplicates across requests.

SEE ALSO:
  - reconciler.go: The engine
  - store.go: Store and RunStore interfaces
  - errors.go: Error taxonomy
  - store/sqlite/sqlite.go: Production store
*/
package timeentry

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timeentry/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// RecordID identifies a stored time entry. Assigned by the store.
type RecordID string

// RunID identifies a reconciliation audit row.
type RunID string

// =============================================================================
// RECORDS
// =============================================================================

// Record is a stored time entry. Only Start matters for reconciliation:
// it is the day the entry represents.
type Record struct {
	ID        RecordID
	Start     calendar.Date
	End       calendar.Date
	CreatedAt time.Time
}

// Result is the outcome of a successful reconciliation.
// CreatedIDs[i] is the entry created for the i-th missing day, ascending.
type Result struct {
	Interval    calendar.Interval
	CreatedIDs  []RecordID
	CreatedDays []calendar.Date
}

// Created returns the number of entries created.
func (r Result) Created() int { return len(r.CreatedIDs) }

// =============================================================================
// COVERAGE
// =============================================================================

// Coverage reports how much of an interval already has entries.
type Coverage struct {
	Interval    calendar.Interval
	TotalDays   int
	PresentDays int
	MissingDays []calendar.Date
	Ratio       decimal.Decimal // PresentDays / TotalDays, 4 decimal places
}

// =============================================================================
// RUN AUDIT
// =============================================================================

// Trigger names what started a reconciliation.
type Trigger string

const (
	TriggerAPI       Trigger = "api"
	TriggerScheduler Trigger = "scheduler"
	TriggerCLI       Trigger = "cli"
)

// RunStatus is the final state of a reconciliation run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is an audit row for one reconciliation attempt.
type Run struct {
	ID          RunID
	Interval    calendar.Interval
	Trigger     Trigger
	Status      RunStatus
	Requested   int // days in the interval
	Created     int
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}
