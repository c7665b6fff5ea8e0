/*
handlers.go - HTTP API handlers for time-entry reconciliation

ENDPOINTS:
  Time entries:
    POST   /api/time-entries            Ensure an entry exists for every day
    GET    /api/time-entries            List entries overlapping ?start&end
    GET    /api/time-entries/coverage   Present/missing days for ?start&end

  Reconciliation:
    GET    /api/reconciliation/runs     Audit log (?status=&limit=)

  Health:
    GET    /healthz

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (required fields, start <= end, max length)
  3. Call the reconciler / store
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  - 400: Missing or unparseable fields, inverted or oversized interval
  - 503: Record or audit store unavailable, request cancelled or timed out
         (retryable)
  - 500: Anything else

SECURITY NOTE:
  No authentication. Put the service behind a gateway that authenticates.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/timeentry"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      timeentry.Store
	Runs       timeentry.RunStore
	Reconciler *timeentry.Reconciler

	// MaxIntervalDays rejects longer requests; 0 disables the check.
	MaxIntervalDays int

	logger *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(store timeentry.Store, runs timeentry.RunStore, reconciler *timeentry.Reconciler, maxIntervalDays int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:           store,
		Runs:            runs,
		Reconciler:      reconciler,
		MaxIntervalDays: maxIntervalDays,
		logger:          logger,
	}
}

// =============================================================================
// TIME ENTRY HANDLERS
// =============================================================================

// AddTimeEntries creates the missing entries of the requested interval.
func (h *Handler) AddTimeEntries(w http.ResponseWriter, r *http.Request) {
	var req AddTimeEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	interval, err := h.parseInterval(req.StartOn, req.EndOn, "start_on", "end_on")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interval", err)
		return
	}

	result, err := timeentry.Audited(r.Context(), h.Runs, h.logger, timeentry.TriggerAPI, interval, h.Reconciler.Reconcile)
	if err != nil {
		h.writeFailure(w, "Failed to add time entries", err)
		return
	}

	ids := make([]string, len(result.CreatedIDs))
	for i, id := range result.CreatedIDs {
		ids[i] = string(id)
	}

	writeJSON(w, http.StatusOK, AddTimeEntriesResponse{
		Start:      interval.Start.String(),
		End:        interval.End.String(),
		Created:    len(ids),
		CreatedIDs: ids,
	})
}

// ListTimeEntries returns the entries overlapping ?start&end.
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	interval, err := h.parseInterval(r.URL.Query().Get("start"), r.URL.Query().Get("end"), "start", "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interval", err)
		return
	}

	records, err := h.Store.QueryOverlapping(r.Context(), interval)
	if err != nil {
		h.writeFailure(w, "Failed to list time entries", err)
		return
	}

	dtos := make([]TimeEntryDTO, len(records))
	for i, rec := range records {
		dtos[i] = toTimeEntryDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCoverage reports which days of ?start&end have entries.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	interval, err := h.parseInterval(r.URL.Query().Get("start"), r.URL.Query().Get("end"), "start", "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interval", err)
		return
	}

	cov, err := h.Reconciler.Coverage(r.Context(), interval)
	if err != nil {
		h.writeFailure(w, "Failed to compute coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, toCoverageDTO(cov))
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// ListReconciliationRuns returns audit rows, newest first.
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	status := timeentry.RunStatus(r.URL.Query().Get("status"))
	switch status {
	case "", timeentry.RunCompleted, timeentry.RunFailed:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status (use completed or failed)", nil)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRuns(r.Context(), status, limit)
	if err != nil {
		h.writeFailure(w, "Failed to list reconciliation runs", err)
		return
	}

	dtos := make([]ReconciliationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unreachable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseInterval parses and normalizes a start/end pair, then checks the
// preconditions the reconciler relies on.
func (h *Handler) parseInterval(rawStart, rawEnd, startName, endName string) (calendar.Interval, error) {
	if rawStart == "" {
		return calendar.Interval{}, fmt.Errorf("%s is required", startName)
	}
	if rawEnd == "" {
		return calendar.Interval{}, fmt.Errorf("%s is required", endName)
	}

	start, err := calendar.ParseInstant(rawStart)
	if err != nil {
		return calendar.Interval{}, fmt.Errorf("%s: %w", startName, err)
	}
	end, err := calendar.ParseInstant(rawEnd)
	if err != nil {
		return calendar.Interval{}, fmt.Errorf("%s: %w", endName, err)
	}

	interval := calendar.NormalizeInterval(start, end)
	if err := timeentry.ValidateInterval(interval, h.MaxIntervalDays); err != nil {
		return calendar.Interval{}, err
	}
	return interval, nil
}

func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, message, err)
}

// statusFor maps reconciliation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case timeentry.IsClientError(err):
		return http.StatusBadRequest
	case timeentry.IsStoreUnavailable(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
