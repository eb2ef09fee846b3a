package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/testfixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewAttendanceRepository(store)
	t0 := testfixtures.ReferenceTime()

	errBoom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repo.CreateActive(ctx, attendance.Record{ID: "rec-1", EmployeeID: 1, Date: t0, CheckIn: t0, Status: attendance.StatusIncomplete})
		require.NoError(t, err)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	active, err := repo.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestWithinTx_NestedCallsJoin(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewAttendanceRepository(store)
	t0 := testfixtures.ReferenceTime()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			_, err := repo.CreateActive(ctx, attendance.Record{ID: "rec-1", EmployeeID: 1, Date: t0, CheckIn: t0, Status: attendance.StatusIncomplete})
			return err
		})
	})
	require.NoError(t, err)

	active, err := repo.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "rec-1", active.RecordID)
}

func TestLockEmployee_RequiresTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	assert.Error(t, store.LockEmployee(ctx, database.LockScopePayroll, 1))

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.LockEmployee(ctx, database.LockScopePayroll, 1)
	})
	assert.NoError(t, err)
}

func TestAcquire_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPayrollRepository(NewStore()).GetSalaryConfig(ctx, 1)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
}

func TestAttendanceRepository_Finalize(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(NewStore())
	t0 := testfixtures.ReferenceTime()

	_, err := repo.CreateActive(ctx, attendance.Record{ID: "rec-1", EmployeeID: 1, Date: t0, CheckIn: t0, Status: attendance.StatusIncomplete})
	require.NoError(t, err)

	_, err = repo.CreateActive(ctx, attendance.Record{ID: "rec-2", EmployeeID: 1, Date: t0, CheckIn: t0, Status: attendance.StatusIncomplete})
	assert.ErrorIs(t, err, attendance.ErrAlreadyActive)

	f := attendance.Finalization{RecordID: "rec-1", CheckOut: t0.Add(time.Hour), TotalHours: decimal.NewFromInt(1), Status: attendance.StatusPresent}
	rec, err := repo.Finalize(ctx, f)
	require.NoError(t, err)
	assert.False(t, rec.IsActive())

	_, err = repo.Finalize(ctx, f)
	assert.ErrorIs(t, err, attendance.ErrNoActiveShift)
}

func TestPayrollRepository_OverlapIgnoresRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewPayrollRepository(NewStore())
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	jan10 := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	_, err := repo.CreatePayment(ctx, payroll.SalaryPayment{ID: "pay-1", EmployeeID: 1, PayPeriodStart: jan1, PayPeriodEnd: jan15, PaymentStatus: payroll.PaymentStatusPending})
	require.NoError(t, err)

	overlaps, err := repo.HasOverlappingPeriod(ctx, 1, jan10, jan20)
	require.NoError(t, err)
	assert.True(t, overlaps)

	overlaps, err = repo.HasOverlappingPeriod(ctx, 2, jan10, jan20)
	require.NoError(t, err)
	assert.False(t, overlaps)

	payment, err := repo.GetPaymentByID(ctx, "pay-1")
	require.NoError(t, err)
	payment.PaymentStatus = payroll.PaymentStatusRejected
	_, err = repo.UpdatePayment(ctx, payment)
	require.NoError(t, err)

	overlaps, err = repo.HasOverlappingPeriod(ctx, 1, jan10, jan20)
	require.NoError(t, err)
	assert.False(t, overlaps)

	_, err = repo.GetPaymentByID(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrPaymentNotFound)
}

func TestAdvanceRepository_Totals(t *testing.T) {
	ctx := context.Background()
	repo := NewAdvanceRepository(NewStore())

	seed := []advance.AdvancePayment{
		{ID: "a1", EmployeeID: 1, TransactionType: advance.TransactionTypeAdvance, Amount: decimal.NewFromInt(1000), Status: advance.StatusApproved},
		{ID: "a2", EmployeeID: 1, TransactionType: advance.TransactionTypeAdvance, Amount: decimal.NewFromInt(500), Status: advance.StatusPending},
		{ID: "r1", EmployeeID: 1, TransactionType: advance.TransactionTypeRepayment, Amount: decimal.NewFromInt(300), Status: advance.StatusCompleted},
		{ID: "r2", EmployeeID: 1, TransactionType: advance.TransactionTypeRepayment, Amount: decimal.NewFromInt(100), Status: advance.StatusPending},
		{ID: "r3", EmployeeID: 1, TransactionType: advance.TransactionTypeRepayment, Amount: decimal.NewFromInt(50), Status: advance.StatusRejected},
		{ID: "o1", EmployeeID: 2, TransactionType: advance.TransactionTypeAdvance, Amount: decimal.NewFromInt(999), Status: advance.StatusApproved},
	}
	for _, p := range seed {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	totals, err := repo.TotalsByEmployee(ctx, 1)
	require.NoError(t, err)
	assert.True(t, totals.Advances.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Repayments.Equal(decimal.NewFromInt(300)))
	assert.True(t, totals.PendingRepayments.Equal(decimal.NewFromInt(100)))
}

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(NewStore())

	security, err := repo.Create(ctx, employee.Employee{Name: "Ayu", RegNo: "EMP-001", Category: "security"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), security.ID)

	_, err = repo.Create(ctx, employee.Employee{Name: "Budi", RegNo: "EMP-002", Category: "Cleaning"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, employee.Employee{Name: "Dup", RegNo: "EMP-001", Category: "security"})
	assert.ErrorIs(t, err, employee.ErrRegNoExists)

	all, err := repo.ListByCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cleaning, err := repo.ListByCategories(ctx, []string{"cleaning"})
	require.NoError(t, err)
	require.Len(t, cleaning, 1)
	assert.Equal(t, "Budi", cleaning[0].Name)

	none, err := repo.ListByCategories(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
