package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/timeentry"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func april(d int) calendar.Date {
	return calendar.NewDate(2022, time.April, d)
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func TestStore_CreateAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateDayRecord(ctx, april(15))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(15)))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, april(15), records[0].Start)
	assert.Equal(t, april(15), records[0].End)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestStore_QueryOverlapping_Boundaries(t *testing.T) {
	// GIVEN: Entries before, touching, spanning and after [15, 17]
	store := newTestStore(t)
	ctx := context.Background()

	seed := []timeentry.Record{
		{ID: "before", Start: april(10), End: april(14)},
		{ID: "touch-start", Start: april(12), End: april(15)},
		{ID: "inside", Start: april(16), End: april(16)},
		{ID: "span", Start: april(1), End: april(30)},
		{ID: "touch-end", Start: april(17), End: april(20)},
		{ID: "after", Start: april(18), End: april(18)},
	}
	for _, rec := range seed {
		_, err := store.InsertRecord(ctx, rec)
		require.NoError(t, err)
	}

	// WHEN: Probing [15, 17]
	records, err := store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(17)))
	require.NoError(t, err)

	// THEN: Only overlapping entries, ordered by start
	var ids []timeentry.RecordID
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []timeentry.RecordID{"span", "touch-start", "inside", "touch-end"}, ids)
}

func TestStore_NoDayUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateDayRecord(ctx, april(15))
	require.NoError(t, err)
	_, err = store.CreateDayRecord(ctx, april(15))
	require.NoError(t, err, "racing writers may both create the same day")

	records, err := store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(15)))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_ClosedDatabase_StoreUnavailable(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	ctx := context.Background()

	_, err := store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(17)))
	require.Error(t, err)
	assert.True(t, timeentry.IsStoreUnavailable(err))

	_, err = store.CreateDayRecord(ctx, april(15))
	require.Error(t, err)
	assert.True(t, timeentry.IsStoreUnavailable(err))

	var storeErr *timeentry.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, timeentry.OpCreateDayRecord, storeErr.Op)
	assert.Equal(t, april(15), storeErr.Day)
}

func TestStore_MalformedRow_NotStoreUnavailable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, start_on, end_on, created_at) VALUES ('bad', '2022-04-0x', '2022-04-16', '')")
	require.NoError(t, err)

	_, err = store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(17)))
	require.Error(t, err)
	assert.False(t, timeentry.IsStoreUnavailable(err))
}

// =============================================================================
// RECONCILER AGAINST SQLITE
// =============================================================================

func TestReconciler_WithSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.InsertRecord(ctx, timeentry.Record{Start: april(16), End: april(16)})
	require.NoError(t, err)

	r := timeentry.NewReconciler(store, timeentry.Options{MaxConcurrency: 4})

	result, err := r.Reconcile(ctx, calendar.NewInterval(april(15), april(20)))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{april(15), april(17), april(18), april(19), april(20)}, result.CreatedDays)

	records, err := store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(20)))
	require.NoError(t, err)
	assert.Len(t, records, 6)

	again, err := r.Reconcile(ctx, calendar.NewInterval(april(15), april(20)))
	require.NoError(t, err)
	assert.Empty(t, again.CreatedIDs)
}

func TestReconciler_WithSQLite_MalformedRowIsUnknown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, start_on, end_on, created_at) VALUES ('bad', '2022-04-0y', '2022-04-16', '')")
	require.NoError(t, err)

	r := timeentry.NewReconciler(store, timeentry.Options{})

	_, err = r.Reconcile(ctx, calendar.NewInterval(april(15), april(17)))
	assert.ErrorIs(t, err, timeentry.ErrUnknown)
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

func TestStore_Runs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2022, 4, 15, 12, 0, 0, 0, time.UTC)

	runs := []timeentry.Run{
		{
			ID: "run-1", Interval: calendar.NewInterval(april(1), april(3)),
			Trigger: timeentry.TriggerAPI, Status: timeentry.RunCompleted,
			Requested: 3, Created: 3, StartedAt: base, CompletedAt: base.Add(time.Second),
		},
		{
			ID: "run-2", Interval: calendar.NewInterval(april(4), april(4)),
			Trigger: timeentry.TriggerScheduler, Status: timeentry.RunFailed,
			Requested: 1, Error: "record store unavailable", StartedAt: base.Add(time.Minute), CompletedAt: base.Add(time.Minute),
		},
		{
			ID: "run-3", Interval: calendar.NewInterval(april(5), april(6)),
			Trigger: timeentry.TriggerCLI, Status: timeentry.RunCompleted,
			Requested: 2, Created: 1, StartedAt: base.Add(time.Hour), CompletedAt: base.Add(time.Hour),
		},
	}
	for _, r := range runs {
		require.NoError(t, store.SaveRun(ctx, r))
	}

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, timeentry.RunID("run-3"), all[0].ID, "newest first")
	assert.Equal(t, timeentry.TriggerCLI, all[0].Trigger)
	assert.Equal(t, april(5), all[0].Interval.Start)

	failed, err := store.ListRuns(ctx, timeentry.RunFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "record store unavailable", failed[0].Error)
	assert.Equal(t, base.Add(time.Minute), failed[0].StartedAt)

	limited, err := store.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_Runs_ClosedDatabase_StoreUnavailable(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	ctx := context.Background()

	err := store.SaveRun(ctx, timeentry.Run{ID: "run-1", Interval: calendar.NewInterval(april(1), april(1))})
	require.Error(t, err)
	assert.True(t, timeentry.IsStoreUnavailable(err))

	_, err = store.ListRuns(ctx, "", 0)
	require.Error(t, err)
	assert.True(t, timeentry.IsStoreUnavailable(err))

	var storeErr *timeentry.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, timeentry.OpListRuns, storeErr.Op)
}

func TestStore_Runs_MalformedRowRejected(t *testing.T) {
	tests := []struct {
		name   string
		insert string
	}{
		{"bad start_on", `INSERT INTO reconciliation_runs (id, start_on, end_on, triggered_by, status, started_at, completed_at)
			VALUES ('bad', 'april', '2022-04-02', 'api', 'completed', '2022-04-15T12:00:00.000000000Z', '2022-04-15T12:00:00.000000000Z')`},
		{"bad started_at", `INSERT INTO reconciliation_runs (id, start_on, end_on, triggered_by, status, started_at, completed_at)
			VALUES ('bad', '2022-04-01', '2022-04-02', 'api', 'completed', 'noon', '2022-04-15T12:00:00.000000000Z')`},
		{"bad completed_at", `INSERT INTO reconciliation_runs (id, start_on, end_on, triggered_by, status, started_at, completed_at)
			VALUES ('bad', '2022-04-01', '2022-04-02', 'api', 'completed', '2022-04-15T12:00:00.000000000Z', '')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			ctx := context.Background()
			_, err := store.db.ExecContext(ctx, tt.insert)
			require.NoError(t, err)

			runs, err := store.ListRuns(ctx, "", 0)
			require.Error(t, err)
			assert.Nil(t, runs)
			assert.Contains(t, err.Error(), "reconciliation run bad")
			assert.False(t, timeentry.IsStoreUnavailable(err))
		})
	}
}

func TestStore_MalformedCreatedAt_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, start_on, end_on, created_at) VALUES ('bad', '2022-04-15', '2022-04-15', 'yesterday')")
	require.NoError(t, err)

	_, err = store.QueryOverlapping(ctx, calendar.NewInterval(april(15), april(15)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
	assert.False(t, timeentry.IsStoreUnavailable(err))
}
