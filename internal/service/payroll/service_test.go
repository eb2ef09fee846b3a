package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/config"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/repository/memory"
	advancesvc "github.com/cmlabs-hris/shift-payroll-engine/internal/service/advance"
	attendancesvc "github.com/cmlabs-hris/shift-payroll-engine/internal/service/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/testfixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc        payroll.PayrollService
	attendance attendance.AttendanceService
	advances   advance.AdvanceService
	employees  employee.EmployeeRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := memory.NewStore()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	attendanceService := attendancesvc.NewAttendanceService(store, memory.NewAttendanceRepository(store), attendancesvc.Options{
		BatchSize: 3,
		Now:       clock.NowFunc(),
	})
	advanceService := advancesvc.NewAdvanceService(store, memory.NewAdvanceRepository(store), 0, clock.NowFunc())
	employees := memory.NewEmployeeRepository(store)

	svc := NewPayrollService(
		store,
		memory.NewPayrollRepository(store),
		employees,
		attendanceService,
		advanceService,
		storage.NewBaseURLResolver("https://files.example.com"),
		Options{Workers: 2, Now: clock.NowFunc()},
	)
	return testEnv{svc: svc, attendance: attendanceService, advances: advanceService, employees: employees}
}

func date(s string) time.Time {
	d, _ := validator.IsValidDate(s)
	return d
}

func (e testEnv) hire(t *testing.T, name, regNo, category string, rate string) employee.Employee {
	t.Helper()
	emp, err := e.employees.Create(context.Background(), employee.Employee{Name: name, RegNo: regNo, Category: category})
	require.NoError(t, err)
	if rate != "" {
		r := decimal.RequireFromString(rate)
		_, err = e.svc.SetHourlyRate(context.Background(), payroll.SetHourlyRateRequest{EmployeeID: emp.ID, HourlyRate: &r})
		require.NoError(t, err)
	}
	return emp
}

func (e testEnv) shift(t *testing.T, employeeID int64, checkIn time.Time, d time.Duration) {
	t.Helper()
	ctx := context.Background()
	_, err := e.attendance.StartShift(ctx, attendance.StartShiftRequest{EmployeeID: employeeID, Timestamp: &checkIn})
	require.NoError(t, err)
	checkOut := checkIn.Add(d)
	_, err = e.attendance.EndShift(ctx, attendance.EndShiftRequest{EmployeeID: employeeID, Timestamp: &checkOut})
	require.NoError(t, err)
}

func (e testEnv) mark(t *testing.T, employeeID int64, day, status string) {
	t.Helper()
	_, err := e.attendance.MarkDay(context.Background(), attendance.MarkDayRequest{EmployeeID: employeeID, Date: day, Status: status, AdminID: "admin-1"})
	require.NoError(t, err)
}

func at(day string, hour int) time.Time {
	return date(day).Add(time.Duration(hour) * time.Hour)
}

func TestComputeHoursWorked(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "")

	env.shift(t, emp.ID, at("2024-01-01", 8), 2*time.Hour+30*time.Minute)
	env.shift(t, emp.ID, at("2024-01-02", 8), 8*time.Hour)
	env.shift(t, emp.ID, at("2024-01-02", 18), 0)
	env.mark(t, emp.ID, "2024-01-03", "ON_LEAVE")
	env.mark(t, emp.ID, "2024-01-05", "ABSENT")

	worked, err := env.svc.ComputeHoursWorked(ctx, emp.ID, date("2024-01-01"), date("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, "10.5", worked.Hours.String())
	require.Len(t, worked.MissingFields, 1)
	assert.Equal(t, payroll.MissingFieldAttendance, worked.MissingFields[0].Field)
	assert.Equal(t, "2024-01-04", worked.MissingFields[0].Date.Format(validator.DateLayout))

	_, err = env.svc.ComputeHoursWorked(ctx, emp.ID, date("2024-01-05"), date("2024-01-01"))
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("hours times rate plus bonus minus deductions", func(t *testing.T) {
		env := newTestEnv(t)
		emp := env.hire(t, "Ayu", "EMP-001", "security", "12.345")
		env.shift(t, emp.ID, at("2024-01-02", 8), 2*time.Hour+30*time.Minute)

		bonus := decimal.NewFromInt(10)
		deductions := decimal.NewFromInt(5)
		result, err := env.svc.Calculate(ctx, payroll.CalculateRequest{
			EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-03",
			Bonus: &bonus, Deductions: &deductions,
		})
		require.NoError(t, err)

		p := result.Payment
		assert.Equal(t, "2.5", p.HoursWorked.String())
		assert.Equal(t, "35.86", p.NetSalary.String())
		assert.Equal(t, payroll.PaymentStatusPending, p.PaymentStatus)
		assert.False(t, result.HasActiveDebt)
		assert.Len(t, result.MissingFields, 2)
	})

	t.Run("overlapping period rejected", func(t *testing.T) {
		env := newTestEnv(t)
		emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

		_, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
		require.NoError(t, err)

		_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-10", PayPeriodEnd: "2024-01-20"})
		assert.ErrorIs(t, err, payroll.ErrOverlappingPeriod)

		_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-15", PayPeriodEnd: "2024-01-15"})
		assert.ErrorIs(t, err, payroll.ErrOverlappingPeriod)

		_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-16", PayPeriodEnd: "2024-01-31"})
		assert.NoError(t, err)
	})

	t.Run("rejected payment frees its period", func(t *testing.T) {
		env := newTestEnv(t)
		emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

		first, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
		require.NoError(t, err)
		_, err = env.svc.Reject(ctx, first.Payment.ID)
		require.NoError(t, err)

		_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-10", PayPeriodEnd: "2024-01-20"})
		assert.NoError(t, err)
	})

	t.Run("missing salary config", func(t *testing.T) {
		env := newTestEnv(t)
		emp := env.hire(t, "Ayu", "EMP-001", "security", "")

		_, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
		assert.ErrorIs(t, err, payroll.ErrNoSalaryConfig)

		payments, err := env.svc.ListPayments(ctx, emp.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("reversed period", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: 1, PayPeriodStart: "2024-01-15", PayPeriodEnd: "2024-01-01"})
		assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
	})

	t.Run("flags active debt without blocking", func(t *testing.T) {
		env := newTestEnv(t)
		emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

		adv, err := env.advances.RecordAdvance(ctx, advance.RecordAdvanceRequest{EmployeeID: emp.ID, Amount: decimal.NewFromInt(500), ReturnType: "full"})
		require.NoError(t, err)
		_, err = env.advances.Approve(ctx, adv.ID)
		require.NoError(t, err)

		result, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
		require.NoError(t, err)
		assert.True(t, result.HasActiveDebt)
	})
}

func TestCalculate_ConcurrentRunsDoNotDoublePay(t *testing.T) {
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		overlaps  int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Calculate(context.Background(), payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-02-01", PayPeriodEnd: "2024-02-29"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, payroll.ErrOverlappingPeriod):
				overlaps++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, overlaps)
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

	result, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
	require.NoError(t, err)
	id := result.Payment.ID

	_, err = env.svc.MarkPaid(ctx, id, nil)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition, "pending payments cannot be paid")

	_, err = env.svc.MarkFailed(ctx, id)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	approved, err := env.svc.Approve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentStatusApproved, approved.PaymentStatus)

	receipt := "receipts/jan.pdf"
	paid, err := env.svc.MarkPaid(ctx, id, &receipt)
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.ReceiptURL)
	assert.Equal(t, receipt, *paid.ReceiptURL)

	for name, action := range map[string]func(context.Context, string) (payroll.SalaryPayment, error){
		"approve": env.svc.Approve,
		"reject":  env.svc.Reject,
		"fail":    env.svc.MarkFailed,
	} {
		_, err := action(ctx, id)
		assert.ErrorIs(t, err, payroll.ErrInvalidTransition, name)
	}

	updated, err := env.svc.AttachReceipt(ctx, id, payroll.AttachReceiptRequest{ReceiptURL: "receipts/jan-v2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "receipts/jan-v2.pdf", *updated.ReceiptURL)
	assert.True(t, updated.NetSalary.Equal(paid.NetSalary))

	fetched, err := env.svc.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "receipts/jan-v2.pdf", *fetched.ReceiptURL)

	_, err = env.svc.GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrPaymentNotFound)
}

func TestMarkFailed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

	result, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-15"})
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, result.Payment.ID)
	require.NoError(t, err)

	failed, err := env.svc.MarkFailed(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentStatusFailed, failed.PaymentStatus)

	_, err = env.svc.MarkPaid(ctx, result.Payment.ID, nil)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestComputeHoursWorkedBulk(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	guard := env.hire(t, "Ayu", "EMP-001", "security", "")
	cleaner := env.hire(t, "Budi", "EMP-002", "cleaning", "")
	avatar := "avatars/3.png"
	nightGuard, err := env.employees.Create(ctx, employee.Employee{Name: "Citra", RegNo: "EMP-003", Category: "Security", AvatarPath: &avatar})
	require.NoError(t, err)

	env.shift(t, guard.ID, at("2024-01-01", 8), 8*time.Hour)
	env.shift(t, cleaner.ID, at("2024-01-01", 8), 4*time.Hour)
	env.shift(t, nightGuard.ID, at("2024-01-01", 20), 6*time.Hour)

	mapping := config.OrgCategoryMapping{"acme": {"security"}}

	t.Run("organization sees only its categories", func(t *testing.T) {
		rows, err := env.svc.ComputeHoursWorkedBulk(ctx, payroll.HoursReportRequest{DateFrom: "2024-01-01", DateTo: "2024-01-02", Organization: "acme"}, mapping)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, guard.ID, rows[0].EmployeeID)
		assert.Equal(t, "8", rows[0].Hours.String())
		assert.Len(t, rows[0].MissingFields, 1)
		assert.Nil(t, rows[0].AvatarURL)

		assert.Equal(t, nightGuard.ID, rows[1].EmployeeID)
		assert.Equal(t, "6", rows[1].Hours.String())
		require.NotNil(t, rows[1].AvatarURL)
		assert.Equal(t, "https://files.example.com/avatars/3.png", *rows[1].AvatarURL)
	})

	t.Run("category outside organization", func(t *testing.T) {
		category := "cleaning"
		_, err := env.svc.ComputeHoursWorkedBulk(ctx, payroll.HoursReportRequest{DateFrom: "2024-01-01", DateTo: "2024-01-02", Category: &category, Organization: "acme"}, mapping)
		assert.ErrorIs(t, err, payroll.ErrCategoryNotAllowed)
	})

	t.Run("unmapped organization sees everyone", func(t *testing.T) {
		rows, err := env.svc.ComputeHoursWorkedBulk(ctx, payroll.HoursReportRequest{DateFrom: "2024-01-01", DateTo: "2024-01-01", Organization: "other"}, mapping)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		for _, row := range rows {
			assert.Empty(t, row.MissingFields)
		}
	})

	t.Run("invalid dates", func(t *testing.T) {
		_, err := env.svc.ComputeHoursWorkedBulk(ctx, payroll.HoursReportRequest{DateFrom: "01/01/2024", DateTo: "2024-01-02"}, mapping)
		assert.Error(t, err)
	})
}

func TestSetHourlyRate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "")

	_, err := env.svc.GetSalaryConfig(ctx, emp.ID)
	assert.ErrorIs(t, err, payroll.ErrNoSalaryConfig)

	negative := decimal.NewFromInt(-1)
	_, err = env.svc.SetHourlyRate(ctx, payroll.SetHourlyRateRequest{EmployeeID: emp.ID, HourlyRate: &negative})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	rate := decimal.RequireFromString("42.50")
	_, err = env.svc.SetHourlyRate(ctx, payroll.SetHourlyRateRequest{EmployeeID: 99, HourlyRate: &rate})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	cfg, err := env.svc.SetHourlyRate(ctx, payroll.SetHourlyRateRequest{EmployeeID: emp.ID, HourlyRate: &rate})
	require.NoError(t, err)
	assert.True(t, cfg.HourlyRate.Equal(rate))

	got, err := env.svc.GetSalaryConfig(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, got.HourlyRate.Equal(rate))
}

func TestPeriodLengthIsBounded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "100")

	var verrs validator.ValidationErrors

	_, err := env.svc.ComputeHoursWorked(ctx, emp.ID, date("0001-01-01"), date("9999-12-31"))
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date_to")

	worked, err := env.svc.ComputeHoursWorked(ctx, emp.ID, date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, worked.MissingFields, payroll.DefaultMaxPeriodDays)

	_, err = env.svc.ComputeHoursWorked(ctx, emp.ID, date("2024-01-01"), date("2025-01-01"))
	assert.ErrorAs(t, err, &verrs)

	_, err = env.svc.ComputeHoursWorkedBulk(ctx, payroll.HoursReportRequest{DateFrom: "2000-01-01", DateTo: "2024-12-31"}, nil)
	assert.ErrorAs(t, err, &verrs)

	_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2020-01-01", PayPeriodEnd: "2024-12-31"})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "pay_period_end")

	payments, err := env.svc.ListPayments(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPeriodLength_Configurable(t *testing.T) {
	store := memory.NewStore()
	attendanceService := attendancesvc.NewAttendanceService(store, memory.NewAttendanceRepository(store), attendancesvc.Options{})
	svc := NewPayrollService(
		store,
		memory.NewPayrollRepository(store),
		memory.NewEmployeeRepository(store),
		attendanceService,
		advancesvc.NewAdvanceService(store, memory.NewAdvanceRepository(store), 0, nil),
		storage.NewBaseURLResolver("https://files.example.com"),
		Options{MaxPeriodDays: 7},
	)

	_, err := svc.ComputeHoursWorked(context.Background(), 1, date("2024-01-01"), date("2024-01-07"))
	assert.NoError(t, err)

	_, err = svc.ComputeHoursWorked(context.Background(), 1, date("2024-01-01"), date("2024-01-08"))
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestCalculate_MoneyPrecision(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	emp := env.hire(t, "Ayu", "EMP-001", "security", "")

	tooPrecise := decimal.RequireFromString("10.123456")
	_, err := env.svc.SetHourlyRate(ctx, payroll.SetHourlyRateRequest{EmployeeID: emp.ID, HourlyRate: &tooPrecise})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "hourly_rate")

	rate := decimal.RequireFromString("10.1234")
	_, err = env.svc.SetHourlyRate(ctx, payroll.SetHourlyRateRequest{EmployeeID: emp.ID, HourlyRate: &rate})
	require.NoError(t, err)
	env.shift(t, emp.ID, at("2024-01-02", 8), 2*time.Hour+30*time.Minute)

	halfCent := decimal.RequireFromString("0.005")
	_, err = env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-03", Bonus: &halfCent})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "bonus")

	bonus := decimal.RequireFromString("0.50")
	result, err := env.svc.Calculate(ctx, payroll.CalculateRequest{EmployeeID: emp.ID, PayPeriodStart: "2024-01-01", PayPeriodEnd: "2024-01-03", Bonus: &bonus})
	require.NoError(t, err)
	assert.Equal(t, "25.81", result.Payment.NetSalary.StringFixed(2))
	assert.True(t, result.Payment.NetSalary.Equal(result.Payment.NetSalary.Round(2)))
}
