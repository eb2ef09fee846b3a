package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
)

// SystemActor is recorded as the closer of shifts closed by reconciliation.
const SystemActor = "system"

const autoCloseNote = "Auto-closed: no check-out recorded."

// ReconcileJobs closes shifts left open past the stale threshold.
type ReconcileJobs struct {
	attendance     attendance.AttendanceService
	staleThreshold time.Duration
	autoCloseAfter time.Duration
	now            func() time.Time
}

func NewReconcileJobs(svc attendance.AttendanceService, staleThreshold, autoCloseAfter time.Duration, now func() time.Time) *ReconcileJobs {
	if now == nil {
		now = time.Now
	}
	return &ReconcileJobs{
		attendance:     svc,
		staleThreshold: staleThreshold,
		autoCloseAfter: autoCloseAfter,
		now:            now,
	}
}

func (j *ReconcileJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(Job{
		Name:     "auto_close_stale_shifts",
		Interval: interval,
		Timeout:  interval,
		Fn: func(ctx context.Context) error {
			_, err := j.AutoCloseStaleShifts(ctx)
			return err
		},
	})
}

// AutoCloseStaleShifts force-closes every shift checked in before now minus
// the stale threshold. Each is closed at check-in plus the auto-close window,
// or now if that is earlier. It returns how many shifts were closed.
func (j *ReconcileJobs) AutoCloseStaleShifts(ctx context.Context) (int, error) {
	now := j.now().UTC()

	stale, err := j.attendance.ListStaleShifts(ctx, now.Add(-j.staleThreshold))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale shifts: %w", err)
	}
	if len(stale) == 0 {
		slog.Debug("Cron: No stale shifts found")
		return 0, nil
	}

	closed := 0
	var errs []error
	for _, shift := range stale {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		closeAt := shift.CheckIn.Add(j.autoCloseAfter)
		if closeAt.After(now) {
			closeAt = now
		}
		note := autoCloseNote

		_, err := j.attendance.ForceCloseShift(ctx, attendance.ForceCloseRequest{
			EmployeeID: shift.EmployeeID,
			Timestamp:  &closeAt,
			Notes:      &note,
			AdminID:    SystemActor,
		})
		switch {
		case err == nil:
			closed++
		case errors.Is(err, attendance.ErrNoActiveShift), errors.Is(err, attendance.ErrClockSkew):
			// Closed, or replaced by a newer shift, since the listing.
			slog.Debug("Cron: Stale shift already handled", "employee_id", shift.EmployeeID, "record_id", shift.RecordID)
		default:
			slog.Error("Cron: Failed to auto-close shift", "employee_id", shift.EmployeeID, "record_id", shift.RecordID, "error", err)
			errs = append(errs, err)
		}
	}

	slog.Info("Cron: Auto-closed stale shifts", "count", closed, "stale", len(stale))
	return closed, errors.Join(errs...)
}
