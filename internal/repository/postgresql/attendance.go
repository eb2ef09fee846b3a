package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const activeShiftIndex = "shift_attendances_one_active_idx"

const recordColumns = `
	id, employee_id, date, check_in, check_out, total_hours, status,
	location, is_admin_action, closed_by, notes, created_at, updated_at
`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.TotalHours, &rec.Status,
		&rec.Location, &rec.IsAdminAction, &rec.ClosedBy, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (r *attendanceRepository) insert(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_attendances (
			id, employee_id, date, check_in, check_out, total_hours, status,
			location, is_admin_action, closed_by, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING ` + recordColumns

	return scanRecord(q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.Date,
		record.CheckIn,
		record.CheckOut,
		record.TotalHours,
		record.Status,
		record.Location,
		record.IsAdminAction,
		record.ClosedBy,
		record.Notes,
		record.CreatedAt,
		record.UpdatedAt,
	))
}

// CreateActive implements attendance.AttendanceRepository. The partial unique
// index on open shifts decides concurrent starts.
func (r *attendanceRepository) CreateActive(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	created, err := r.insert(ctx, record)
	if err != nil {
		if database.IsConstraintViolation(err, database.CodeUniqueViolation, activeShiftIndex) {
			return attendance.Record{}, attendance.ErrAlreadyActive
		}
		return attendance.Record{}, database.Classify(fmt.Errorf("failed to create active shift: %w", err))
	}
	return created, nil
}

// CreateMarker implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateMarker(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	created, err := r.insert(ctx, record)
	if err != nil {
		return attendance.Record{}, database.Classify(fmt.Errorf("failed to create attendance marker: %w", err))
	}
	return created, nil
}

func (r *attendanceRepository) getActive(ctx context.Context, employeeID int64, forUpdate bool) (*attendance.ActiveShift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, check_in, location
		FROM shift_attendances
		WHERE employee_id = $1
		  AND check_out IS NULL
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var active attendance.ActiveShift
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&active.RecordID, &active.EmployeeID, &active.Date, &active.CheckIn, &active.Location,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(fmt.Errorf("failed to get active shift: %w", err))
	}
	return &active, nil
}

// GetActive implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetActive(ctx context.Context, employeeID int64) (*attendance.ActiveShift, error) {
	return r.getActive(ctx, employeeID, false)
}

// GetActiveForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetActiveForUpdate(ctx context.Context, employeeID int64) (*attendance.ActiveShift, error) {
	return r.getActive(ctx, employeeID, true)
}

// Finalize implements attendance.AttendanceRepository.
func (r *attendanceRepository) Finalize(ctx context.Context, f attendance.Finalization) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_attendances
		SET check_out = $2,
		    total_hours = $3,
		    status = $4,
		    notes = $5,
		    is_admin_action = $6,
		    closed_by = $7,
		    updated_at = $8
		WHERE id = $1
		  AND check_out IS NULL
		RETURNING ` + recordColumns

	rec, err := scanRecord(q.QueryRow(ctx, query,
		f.RecordID, f.CheckOut, f.TotalHours, f.Status, f.Notes, f.IsAdminAction, f.ClosedBy, f.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNoActiveShift
		}
		return attendance.Record{}, database.Classify(fmt.Errorf("failed to finalize shift: %w", err))
	}
	return rec, nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, q attendance.Query, limit, offset int) ([]attendance.Record, error) {
	querier := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM shift_attendances
		WHERE ($1::BIGINT IS NULL OR employee_id = $1)
		  AND date BETWEEN $2 AND $3
		ORDER BY date ASC, check_in ASC, id ASC
		LIMIT $4 OFFSET $5
	`

	rows, err := querier.Query(ctx, query, q.EmployeeID, q.StartDate, q.EndDate, limit, offset)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list attendance records: %w", err))
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate attendance records: %w", err))
	}

	return records, nil
}

// Count implements attendance.AttendanceRepository.
func (r *attendanceRepository) Count(ctx context.Context, q attendance.Query) (int64, error) {
	querier := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM shift_attendances
		WHERE ($1::BIGINT IS NULL OR employee_id = $1)
		  AND date BETWEEN $2 AND $3
	`

	var total int64
	if err := querier.QueryRow(ctx, query, q.EmployeeID, q.StartDate, q.EndDate).Scan(&total); err != nil {
		return 0, database.Classify(fmt.Errorf("failed to count attendance records: %w", err))
	}
	return total, nil
}

// ListStaleActive implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListStaleActive(ctx context.Context, checkedInBefore time.Time) ([]attendance.ActiveShift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, check_in, location
		FROM shift_attendances
		WHERE check_out IS NULL
		  AND check_in < $1
		ORDER BY check_in ASC
	`

	rows, err := q.Query(ctx, query, checkedInBefore)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list stale shifts: %w", err))
	}

	stale, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.ActiveShift, error) {
		var s attendance.ActiveShift
		err := row.Scan(&s.RecordID, &s.EmployeeID, &s.Date, &s.CheckIn, &s.Location)
		return s, err
	})
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to scan stale shifts: %w", err))
	}
	return stale, nil
}
