package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for shift attendance records.
type AttendanceRepository interface {
	// CreateActive inserts an open record. It returns ErrAlreadyActive when the
	// employee already has one, so the precondition and the insert are atomic.
	CreateActive(ctx context.Context, record Record) (Record, error)

	// CreateMarker inserts a closed ABSENT or ON_LEAVE record for a day.
	CreateMarker(ctx context.Context, record Record) (Record, error)

	// GetActive returns the employee's open shift, or nil when there is none.
	GetActive(ctx context.Context, employeeID int64) (*ActiveShift, error)

	// GetActiveForUpdate is GetActive with a row lock held until the
	// surrounding transaction ends.
	GetActiveForUpdate(ctx context.Context, employeeID int64) (*ActiveShift, error)

	// Finalize closes an open record. It returns ErrNoActiveShift when the
	// record was already closed by a concurrent caller.
	Finalize(ctx context.Context, f Finalization) (Record, error)

	// List returns records in the range ordered by date, check-in and id.
	List(ctx context.Context, q Query, limit, offset int) ([]Record, error)

	// Count returns the number of records List would page through.
	Count(ctx context.Context, q Query) (int64, error)

	// ListStaleActive returns open shifts that started before checkedInBefore.
	ListStaleActive(ctx context.Context, checkedInBefore time.Time) ([]ActiveShift, error)
}
