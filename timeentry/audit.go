package timeentry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/timeentry/calendar"
)

// ReconcileFunc is the shape of (*Reconciler).Reconcile.
type ReconcileFunc func(ctx context.Context, interval calendar.Interval) (Result, error)

// Audited runs fn and records a Run row describing the outcome.
// A nil runs store disables auditing. Audit failures are logged and never
// replace fn's result or error.
func Audited(ctx context.Context, runs RunStore, logger *zap.Logger, trigger Trigger, interval calendar.Interval, fn ReconcileFunc) (Result, error) {
	startedAt := time.Now().UTC()
	result, err := fn(ctx, interval)
	if runs == nil {
		return result, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	run := Run{
		ID:          NewRunID(),
		Interval:    interval,
		Trigger:     trigger,
		Status:      RunCompleted,
		Requested:   interval.Len(),
		Created:     result.Created(),
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	}

	// The request context may already be cancelled; the audit row still
	// has to land.
	if saveErr := runs.SaveRun(context.WithoutCancel(ctx), run); saveErr != nil {
		logger.Warn("Failed to record reconciliation run",
			zap.String("run_id", string(run.ID)),
			zap.Error(saveErr),
		)
	}
	return result, err
}

// NewRecordID returns a fresh time-ordered record id.
func NewRecordID() RecordID {
	return RecordID(uuid.Must(uuid.NewV7()).String())
}

// NewRunID returns a fresh time-ordered run id.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}
