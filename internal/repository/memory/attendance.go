package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

type attendanceRepository struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

// CreateActive implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateActive(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	defer unlock()

	if r.findOpen(record.EmployeeID) != nil {
		return attendance.Record{}, attendance.ErrAlreadyActive
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.CheckIn
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	r.s.records[record.ID] = record
	return record, nil
}

// CreateMarker implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateMarker(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	defer unlock()

	r.s.records[record.ID] = record
	return record, nil
}

// GetActive implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetActive(ctx context.Context, employeeID int64) (*attendance.ActiveShift, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec := r.findOpen(employeeID)
	if rec == nil {
		return nil, nil
	}
	active := rec.ActiveShift()
	return &active, nil
}

// GetActiveForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetActiveForUpdate(ctx context.Context, employeeID int64) (*attendance.ActiveShift, error) {
	return r.GetActive(ctx, employeeID)
}

// Finalize implements attendance.AttendanceRepository.
func (r *attendanceRepository) Finalize(ctx context.Context, f attendance.Finalization) (attendance.Record, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	defer unlock()

	rec, ok := r.s.records[f.RecordID]
	if !ok || !rec.IsActive() {
		return attendance.Record{}, attendance.ErrNoActiveShift
	}

	checkOut := f.CheckOut
	hours := f.TotalHours
	rec.CheckOut = &checkOut
	rec.TotalHours = &hours
	rec.Status = f.Status
	rec.Notes = f.Notes
	rec.IsAdminAction = f.IsAdminAction
	rec.ClosedBy = f.ClosedBy
	rec.UpdatedAt = f.UpdatedAt
	r.s.records[rec.ID] = rec
	return rec, nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, q attendance.Query, limit, offset int) ([]attendance.Record, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	matched := r.match(q)
	if offset >= len(matched) {
		return []attendance.Record{}, nil
	}
	end := min(offset+limit, len(matched))
	return slices.Clone(matched[offset:end]), nil
}

// Count implements attendance.AttendanceRepository.
func (r *attendanceRepository) Count(ctx context.Context, q attendance.Query) (int64, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	return int64(len(r.match(q))), nil
}

// ListStaleActive implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListStaleActive(ctx context.Context, checkedInBefore time.Time) ([]attendance.ActiveShift, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var stale []attendance.ActiveShift
	for _, rec := range r.s.records {
		if rec.IsActive() && rec.CheckIn.Before(checkedInBefore) {
			stale = append(stale, rec.ActiveShift())
		}
	}
	slices.SortFunc(stale, func(a, b attendance.ActiveShift) int {
		return a.CheckIn.Compare(b.CheckIn)
	})
	return stale, nil
}

func (r *attendanceRepository) findOpen(employeeID int64) *attendance.Record {
	for _, rec := range r.s.records {
		if rec.EmployeeID == employeeID && rec.IsActive() {
			return &rec
		}
	}
	return nil
}

// match returns records in q ordered by date, check-in and id.
func (r *attendanceRepository) match(q attendance.Query) []attendance.Record {
	from := q.StartDate.Format(validator.DateLayout)
	to := q.EndDate.Format(validator.DateLayout)

	var out []attendance.Record
	for _, rec := range r.s.records {
		if q.EmployeeID != nil && rec.EmployeeID != *q.EmployeeID {
			continue
		}
		day := rec.Date.Format(validator.DateLayout)
		if day < from || day > to {
			continue
		}
		out = append(out, rec)
	}

	slices.SortFunc(out, func(a, b attendance.Record) int {
		return cmp.Or(
			cmp.Compare(a.Date.Format(validator.DateLayout), b.Date.Format(validator.DateLayout)),
			a.CheckIn.Compare(b.CheckIn),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}
