package attendance

import (
	"context"
	"iter"
	"time"
)

// AttendanceService governs the per-employee shift state machine and
// aggregates persisted records.
type AttendanceService interface {
	// StartShift opens a shift after ValidateStart passes.
	StartShift(ctx context.Context, req StartShiftRequest) (ActiveShift, error)

	// EndShift closes the employee's active shift and derives total hours.
	EndShift(ctx context.Context, req EndShiftRequest) (Record, error)

	// ForceCloseShift is the administrator variant of EndShift.
	ForceCloseShift(ctx context.Context, req ForceCloseRequest) (Record, error)

	// MarkDay records an ABSENT or ON_LEAVE marker for a date.
	MarkDay(ctx context.Context, req MarkDayRequest) (Record, error)

	// GetActiveShift returns the open shift for an employee, or nil.
	GetActiveShift(ctx context.Context, employeeID int64) (*ActiveShift, error)

	// ListStaleShifts returns open shifts that started before the cutoff.
	ListStaleShifts(ctx context.Context, checkedInBefore time.Time) ([]ActiveShift, error)

	// FetchRange returns one page of an employee's records.
	FetchRange(ctx context.Context, req RangeRequest) (RecordPage, error)

	// FetchAllUnpaged lazily yields every record matching q, batch by batch.
	FetchAllUnpaged(ctx context.Context, q Query) iter.Seq2[Record, error]

	// Summarize counts records per status.
	Summarize(records []Record) Summary

	// SummarizeRange folds Summarize over every record matching q.
	SummarizeRange(ctx context.Context, q Query) (Summary, error)
}
