package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultBatchSize    = 500
	defaultMaxBatches   = 10000
	defaultStoreTimeout = 5 * time.Second
)

// Options tunes an AttendanceServiceImpl. Zero values fall back to defaults.
type Options struct {
	Policy       attendance.LocationPolicy
	Location     *time.Location
	BatchSize    int
	MaxBatches   int
	StoreTimeout time.Duration
	Now          func() time.Time
}

type AttendanceServiceImpl struct {
	tx   database.Transactor
	repo attendance.AttendanceRepository

	policy       attendance.LocationPolicy
	location     *time.Location
	batchSize    int
	maxBatches   int
	storeTimeout time.Duration
	now          func() time.Time
}

func NewAttendanceService(tx database.Transactor, repo attendance.AttendanceRepository, opts Options) attendance.AttendanceService {
	s := &AttendanceServiceImpl{
		tx:           tx,
		repo:         repo,
		policy:       opts.Policy,
		location:     opts.Location,
		batchSize:    opts.BatchSize,
		maxBatches:   opts.MaxBatches,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxBatches <= 0 {
		s.maxBatches = defaultMaxBatches
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = defaultStoreTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *AttendanceServiceImpl) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// timestamp falls back to the service clock when the request omits one.
// Explicit zero times are rejected by request validation.
func (s *AttendanceServiceImpl) timestamp(ts *time.Time) time.Time {
	if ts == nil {
		return s.now().UTC()
	}
	return ts.UTC()
}

// anchorDate is the calendar day of ts in the configured timezone.
func (s *AttendanceServiceImpl) anchorDate(ts time.Time) time.Time {
	local := ts.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// StartShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartShift(ctx context.Context, req attendance.StartShiftRequest) (attendance.ActiveShift, error) {
	if err := req.Validate(); err != nil {
		return attendance.ActiveShift{}, err
	}

	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	ts := s.timestamp(req.Timestamp)

	active, err := s.repo.GetActive(ctx, req.EmployeeID)
	if err != nil {
		return attendance.ActiveShift{}, fmt.Errorf("failed to get active shift: %w", database.Classify(err))
	}
	if err := ValidateStart(active, ts, req.Location, s.policy); err != nil {
		return attendance.ActiveShift{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.ActiveShift{}, fmt.Errorf("failed to generate record id: %w", err)
	}
	now := s.now().UTC()

	// CreateActive re-checks for an open shift atomically; a concurrent start
	// that slipped past ValidateStart loses here with ErrAlreadyActive.
	created, err := s.repo.CreateActive(ctx, attendance.Record{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		Date:       s.anchorDate(ts),
		CheckIn:    ts,
		Status:     attendance.StatusIncomplete,
		Location:   req.Location,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return attendance.ActiveShift{}, fmt.Errorf("failed to start shift: %w", database.Classify(err))
	}

	return created.ActiveShift(), nil
}

// EndShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndShift(ctx context.Context, req attendance.EndShiftRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}
	return s.closeShift(ctx, req.EmployeeID, s.timestamp(req.Timestamp), req.Notes, nil)
}

// ForceCloseShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ForceCloseShift(ctx context.Context, req attendance.ForceCloseRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	adminID := req.AdminID
	record, err := s.closeShift(ctx, req.EmployeeID, s.timestamp(req.Timestamp), req.Notes, &adminID)
	if err != nil {
		return attendance.Record{}, err
	}

	slog.Info("Shift force-closed", "employee_id", record.EmployeeID, "record_id", record.ID, "admin_id", adminID, "total_hours", record.TotalHours)
	return record, nil
}

// closeShift finalizes the employee's active shift at ts. A non-nil adminID
// marks the record as an administrator action.
func (s *AttendanceServiceImpl) closeShift(ctx context.Context, employeeID int64, ts time.Time, notes, adminID *string) (attendance.Record, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	var record attendance.Record
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		active, err := s.repo.GetActiveForUpdate(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to get active shift: %w", err)
		}

		shift, err := ValidateEnd(active, ts)
		if err != nil {
			return err
		}

		hours, status := ComputeTotalHours(shift.CheckIn, ts)
		record, err = s.repo.Finalize(ctx, attendance.Finalization{
			RecordID:      shift.RecordID,
			CheckOut:      ts,
			TotalHours:    hours,
			Status:        status,
			Notes:         notes,
			IsAdminAction: adminID != nil,
			ClosedBy:      adminID,
			UpdatedAt:     s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to finalize shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, database.Classify(err)
	}

	return record, nil
}

// MarkDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkDay(ctx context.Context, req attendance.MarkDayRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	date, _ := validator.IsValidDate(req.Date)
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		return attendance.Record{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to generate record id: %w", err)
	}

	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	checkIn := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.location).UTC()
	checkOut := checkIn
	hours := decimal.Zero
	adminID := req.AdminID

	created, err := s.repo.CreateMarker(ctx, attendance.Record{
		ID:            id.String(),
		EmployeeID:    req.EmployeeID,
		Date:          date,
		CheckIn:       checkIn,
		CheckOut:      &checkOut,
		TotalHours:    &hours,
		Status:        status,
		IsAdminAction: true,
		ClosedBy:      &adminID,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to mark day: %w", database.Classify(err))
	}

	return created, nil
}

// GetActiveShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetActiveShift(ctx context.Context, employeeID int64) (*attendance.ActiveShift, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	active, err := s.repo.GetActive(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active shift: %w", database.Classify(err))
	}
	return active, nil
}

// ListStaleShifts implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListStaleShifts(ctx context.Context, checkedInBefore time.Time) ([]attendance.ActiveShift, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	stale, err := s.repo.ListStaleActive(ctx, checkedInBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale shifts: %w", database.Classify(err))
	}
	return stale, nil
}
