package calendar

import (
	"iter"
	"time"
)

// =============================================================================
// INTERVAL - Inclusive range of calendar days
// =============================================================================

// Interval is an inclusive [Start, End] range of calendar days.
// Callers are expected to guarantee Start <= End.
type Interval struct {
	Start Date
	End   Date
}

// NewInterval builds an interval from two dates.
func NewInterval(start, end Date) Interval {
	return Interval{Start: start, End: end}
}

// NormalizeInterval converts an instant pair, in any location, to the
// interval of their UTC calendar days. It never fails and does not check
// ordering.
func NormalizeInterval(start, end time.Time) Interval {
	return Interval{Start: DateOf(start), End: DateOf(end)}
}

// Valid reports whether Start <= End.
func (i Interval) Valid() bool {
	return i.Start.BeforeOrEqual(i.End)
}

// Overlaps reports whether [start, end] shares at least one day with i.
func (i Interval) Overlaps(start, end Date) bool {
	return end.AfterOrEqual(i.Start) && start.BeforeOrEqual(i.End)
}

// Len is the number of days in the interval, 0 for an inverted interval.
func (i Interval) Len() int {
	if !i.Valid() {
		return 0
	}
	return DaysBetween(i.Start, i.End) + 1
}

// Days yields every day from Start to End inclusive, ascending.
// The sequence holds no state, so ranging over it twice walks it twice.
func (i Interval) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := i.Start; d.BeforeOrEqual(i.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// String returns a string representation of the interval.
func (i Interval) String() string {
	return "[" + i.Start.String() + ", " + i.End.String() + "]"
}
