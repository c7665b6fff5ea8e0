// Package store provides in-memory timeentry.Store and timeentry.RunStore
// implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/timeentry"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps records sorted by Start. Like any real store it does not
// deduplicate days: two creates for the same day give two records.
type Memory struct {
	mu      sync.RWMutex
	records []timeentry.Record
	runs    []timeentry.Run
}

func NewMemory() *Memory {
	return &Memory{}
}

// QueryOverlapping returns records whose [Start, End] overlaps interval.
func (m *Memory) QueryOverlapping(ctx context.Context, interval calendar.Interval) ([]timeentry.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timeentry.Record
	for _, rec := range m.records {
		if interval.Overlaps(rec.Start, rec.End) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// CreateDayRecord appends {Start: day, End: day}.
func (m *Memory) CreateDayRecord(ctx context.Context, day calendar.Date) (timeentry.RecordID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec := timeentry.Record{
		ID:        timeentry.NewRecordID(),
		Start:     day,
		End:       day,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rec)
	return rec.ID, nil
}

// Insert stores rec as-is. Used to seed existing entries, including
// multi-day ones.
func (m *Memory) Insert(rec timeentry.Record) {
	if rec.ID == "" {
		rec.ID = timeentry.NewRecordID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rec)
}

func (m *Memory) insertLocked(rec timeentry.Record) {
	// Binary search for insertion point, stable for equal Start
	i := sort.Search(len(m.records), func(i int) bool {
		return m.records[i].Start.After(rec.Start)
	})
	m.records = append(m.records, timeentry.Record{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec
}

// Records returns a copy of every stored record, ordered by Start.
func (m *Memory) Records() []timeentry.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]timeentry.Record, len(m.records))
	copy(result, m.records)
	return result
}

// =============================================================================
// RUN STORE
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run timeentry.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context, status timeentry.RunStatus, limit int) ([]timeentry.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timeentry.Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if status != "" && m.runs[i].Status != status {
			continue
		}
		result = append(result, m.runs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
