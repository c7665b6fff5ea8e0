/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DATES:
  Days are always YYYY-MM-DD. Request instants accept RFC3339 or
  YYYY-MM-DD and are normalized to UTC days by the handler.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/timeentry/timeentry"
)

// AddTimeEntriesRequest asks for a time entry on every day of
// [StartOn, EndOn]. Both fields are required.
type AddTimeEntriesRequest struct {
	StartOn string `json:"start_on"`
	EndOn   string `json:"end_on"`
}

// AddTimeEntriesResponse lists the ids of the entries created, ordered by day.
type AddTimeEntriesResponse struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Created    int      `json:"created"`
	CreatedIDs []string `json:"created_ids"`
}

// TimeEntryDTO represents a stored time entry.
type TimeEntryDTO struct {
	ID        string `json:"id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CoverageDTO reports how many days of an interval have entries.
type CoverageDTO struct {
	Start       string   `json:"start"`
	End         string   `json:"end"`
	TotalDays   int      `json:"total_days"`
	PresentDays int      `json:"present_days"`
	MissingDays []string `json:"missing_days"`
	Ratio       string   `json:"ratio"`
}

// ReconciliationRunDTO represents a reconciliation audit row.
type ReconciliationRunDTO struct {
	ID          string `json:"id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Trigger     string `json:"trigger"`
	Status      string `json:"status"`
	Requested   int    `json:"requested"`
	Created     int    `json:"created"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toTimeEntryDTO(rec timeentry.Record) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:    string(rec.ID),
		Start: rec.Start.String(),
		End:   rec.End.String(),
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toCoverageDTO(c timeentry.Coverage) CoverageDTO {
	missing := make([]string, len(c.MissingDays))
	for i, d := range c.MissingDays {
		missing[i] = d.String()
	}
	return CoverageDTO{
		Start:       c.Interval.Start.String(),
		End:         c.Interval.End.String(),
		TotalDays:   c.TotalDays,
		PresentDays: c.PresentDays,
		MissingDays: missing,
		Ratio:       c.Ratio.StringFixed(4),
	}
}

func toRunDTO(r timeentry.Run) ReconciliationRunDTO {
	return ReconciliationRunDTO{
		ID:          string(r.ID),
		Start:       r.Interval.Start.String(),
		End:         r.Interval.End.String(),
		Trigger:     string(r.Trigger),
		Status:      string(r.Status),
		Requested:   r.Requested,
		Created:     r.Created,
		Error:       r.Error,
		StartedAt:   r.StartedAt.Format(time.RFC3339),
		CompletedAt: r.CompletedAt.Format(time.RFC3339),
	}
}
