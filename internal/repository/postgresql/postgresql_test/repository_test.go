package postgresql_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func activeRecord(t *testing.T, employeeID int64, checkIn time.Time) attendance.Record {
	return attendance.Record{
		ID:         newID(t),
		EmployeeID: employeeID,
		Date:       time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC),
		CheckIn:    checkIn,
		Status:     attendance.StatusIncomplete,
		CreatedAt:  checkIn,
		UpdatedAt:  checkIn,
	}
}

func TestAttendanceRepository_OneActiveShift(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	checkIn := day(2).Add(8 * time.Hour)

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		conflict int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateActive(ctx, activeRecord(t, 7, checkIn))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, attendance.ErrAlreadyActive):
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, conflict)

	active, err := repo.GetActive(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.CheckIn.Equal(checkIn))

	none, err := repo.GetActive(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAttendanceRepository_FinalizeAndList(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	checkIn := day(3).Add(9 * time.Hour)

	created, err := repo.CreateActive(ctx, activeRecord(t, 1, checkIn))
	require.NoError(t, err)

	hours := decimal.RequireFromString("7.50")
	closed, err := repo.Finalize(ctx, attendance.Finalization{
		RecordID:   created.ID,
		CheckOut:   checkIn.Add(450 * time.Minute),
		TotalHours: hours,
		Status:     attendance.StatusPresent,
		UpdatedAt:  checkIn.Add(450 * time.Minute),
	})
	require.NoError(t, err)
	require.NotNil(t, closed.TotalHours)
	assert.True(t, closed.TotalHours.Equal(hours))
	assert.Equal(t, attendance.StatusPresent, closed.Status)
	assert.False(t, closed.IsActive())

	_, err = repo.Finalize(ctx, attendance.Finalization{RecordID: created.ID, CheckOut: checkIn.Add(time.Hour), UpdatedAt: checkIn})
	assert.ErrorIs(t, err, attendance.ErrNoActiveShift)

	employeeID := int64(1)
	q := attendance.Query{EmployeeID: &employeeID, StartDate: day(1), EndDate: day(31)}
	total, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	records, err := repo.List(ctx, q, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Date.Equal(day(3)))
}

func TestAttendanceRepository_ListStaleActive(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()

	_, err := repo.CreateActive(ctx, activeRecord(t, 1, day(1).Add(8*time.Hour)))
	require.NoError(t, err)
	_, err = repo.CreateActive(ctx, activeRecord(t, 2, day(2).Add(8*time.Hour)))
	require.NoError(t, err)

	stale, err := repo.ListStaleActive(ctx, day(2))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.EqualValues(t, 1, stale[0].EmployeeID)
}

func TestPayrollRepository_ExclusionConstraint(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPayrollRepository(setup.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	payment := func(start, end time.Time) payroll.SalaryPayment {
		return payroll.SalaryPayment{
			ID:             newID(t),
			EmployeeID:     1,
			PayPeriodStart: start,
			PayPeriodEnd:   end,
			HoursWorked:    decimal.NewFromInt(10),
			HourlyRate:     decimal.NewFromInt(20),
			NetSalary:      decimal.NewFromInt(200),
			PaymentStatus:  payroll.PaymentStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	first, err := repo.CreatePayment(ctx, payment(day(1), day(15)))
	require.NoError(t, err)

	_, err = repo.CreatePayment(ctx, payment(day(15), day(31)))
	assert.ErrorIs(t, err, payroll.ErrOverlappingPeriod)

	overlaps, err := repo.HasOverlappingPeriod(ctx, 1, day(10), day(20))
	require.NoError(t, err)
	assert.True(t, overlaps)

	first.PaymentStatus = payroll.PaymentStatusRejected
	first.UpdatedAt = now
	_, err = repo.UpdatePayment(ctx, first)
	require.NoError(t, err)

	overlaps, err = repo.HasOverlappingPeriod(ctx, 1, day(10), day(20))
	require.NoError(t, err)
	assert.False(t, overlaps)

	_, err = repo.CreatePayment(ctx, payment(day(15), day(31)))
	require.NoError(t, err)

	payments, err := repo.ListPaymentsByEmployee(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, err = repo.GetPaymentByID(ctx, newID(t))
	assert.ErrorIs(t, err, payroll.ErrPaymentNotFound)
}

func TestPayrollRepository_SalaryConfig(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPayrollRepository(setup.DB)
	ctx := context.Background()

	_, err := repo.GetSalaryConfig(ctx, 1)
	assert.ErrorIs(t, err, payroll.ErrNoSalaryConfig)

	_, err = repo.UpsertSalaryConfig(ctx, payroll.SalaryConfig{EmployeeID: 1, HourlyRate: decimal.NewFromInt(10), UpdatedAt: time.Now()})
	require.NoError(t, err)
	saved, err := repo.UpsertSalaryConfig(ctx, payroll.SalaryConfig{EmployeeID: 1, HourlyRate: decimal.RequireFromString("12.5"), UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, saved.HourlyRate.Equal(decimal.RequireFromString("12.5")))
}

func TestAdvanceRepository_Totals(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAdvanceRepository(setup.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	record := func(txType advance.TransactionType, amount int64, status advance.Status) {
		_, err := repo.Create(ctx, advance.AdvancePayment{
			ID:              newID(t),
			EmployeeID:      3,
			TransactionType: txType,
			Amount:          decimal.NewFromInt(amount),
			Status:          status,
			ReturnType:      advance.ReturnTypeNone,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		require.NoError(t, err)
	}

	record(advance.TransactionTypeAdvance, 1000, advance.StatusApproved)
	record(advance.TransactionTypeAdvance, 500, advance.StatusCompleted)
	record(advance.TransactionTypeAdvance, 900, advance.StatusRejected)
	record(advance.TransactionTypeRepayment, 300, advance.StatusApproved)
	record(advance.TransactionTypeRepayment, 200, advance.StatusPending)

	totals, err := repo.TotalsByEmployee(ctx, 3)
	require.NoError(t, err)
	assert.True(t, totals.Advances.Equal(decimal.NewFromInt(1500)))
	assert.True(t, totals.Repayments.Equal(decimal.NewFromInt(300)))
	assert.True(t, totals.PendingRepayments.Equal(decimal.NewFromInt(200)))
	assert.True(t, totals.Outstanding().Equal(decimal.NewFromInt(1200)))

	empty, err := repo.TotalsByEmployee(ctx, 99)
	require.NoError(t, err)
	assert.True(t, empty.Outstanding().IsZero())

	txs, err := repo.ListByEmployee(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, txs, 5)
}

func TestEmployeeRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewEmployeeRepository(setup.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	guard, err := repo.Create(ctx, employee.Employee{Name: "Ayu", RegNo: "R-1", Category: "Security", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotZero(t, guard.ID)

	_, err = repo.Create(ctx, employee.Employee{Name: "Budi", RegNo: "R-2", Category: "cleaning", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	_, err = repo.Create(ctx, employee.Employee{Name: "Dup", RegNo: "R-1", Category: "security", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, employee.ErrRegNoExists)

	got, err := repo.GetByID(ctx, guard.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayu", got.Name)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	security, err := repo.ListByCategories(ctx, []string{"SECURITY"})
	require.NoError(t, err)
	require.Len(t, security, 1)
	assert.Equal(t, guard.ID, security[0].ID)

	all, err := repo.ListByCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.ListByCategories(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactor(t *testing.T) {
	setup := NewTestDatabase(t)
	tx := postgresql.NewTransactor(setup.DB)
	repo := postgresql.NewPayrollRepository(setup.DB)
	ctx := context.Background()

	assert.Error(t, tx.LockEmployee(ctx, database.LockScopePayroll, 1))

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, tx.LockEmployee(ctx, database.LockScopePayroll, 1))
		_, err := repo.UpsertSalaryConfig(ctx, payroll.SalaryConfig{EmployeeID: 1, HourlyRate: decimal.NewFromInt(5), UpdatedAt: time.Now()})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetSalaryConfig(ctx, 1)
	assert.ErrorIs(t, err, payroll.ErrNoSalaryConfig, "rolled back")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := repo.UpsertSalaryConfig(ctx, payroll.SalaryConfig{EmployeeID: 1, HourlyRate: decimal.NewFromInt(5), UpdatedAt: time.Now()})
			return err
		})
	})
	require.NoError(t, err)

	_, err = repo.GetSalaryConfig(ctx, 1)
	assert.NoError(t, err)
}
