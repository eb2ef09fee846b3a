package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers      = 8
	defaultStoreTimeout = 5 * time.Second
)

var tracer = otel.Tracer("github.com/cmlabs-hris/shift-payroll-engine/internal/service/payroll")

// Options tunes a PayrollServiceImpl. Zero values fall back to defaults.
type Options struct {
	Workers       int
	StoreTimeout  time.Duration
	MaxPeriodDays int
	Now           func() time.Time
}

type PayrollServiceImpl struct {
	tx           database.Transactor
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	attendance   attendance.AttendanceService
	advances     advance.AdvanceService
	urls         storage.URLResolver

	workers       int
	storeTimeout  time.Duration
	maxPeriodDays int
	now           func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceService attendance.AttendanceService,
	advanceService advance.AdvanceService,
	urls storage.URLResolver,
	opts Options,
) payroll.PayrollService {
	s := &PayrollServiceImpl{
		tx:           tx,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		attendance:   attendanceService,
		advances:     advanceService,
		urls:         urls,
		workers:       opts.Workers,
		storeTimeout:  opts.StoreTimeout,
		maxPeriodDays: opts.MaxPeriodDays,
		now:           opts.Now,
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = defaultStoreTimeout
	}
	if s.maxPeriodDays <= 0 {
		s.maxPeriodDays = payroll.DefaultMaxPeriodDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ComputeHoursWorked implements payroll.PayrollService. It only reports
// missing dates; it never refuses to compute.
func (s *PayrollServiceImpl) ComputeHoursWorked(ctx context.Context, employeeID int64, from, to time.Time) (result payroll.HoursWorked, err error) {
	ctx, span := tracer.Start(ctx, "payroll.ComputeHoursWorked", trace.WithAttributes(attribute.Int64("employee.id", employeeID)))
	defer func() { endSpan(span, err) }()

	if from.After(to) {
		return payroll.HoursWorked{}, payroll.ErrInvalidPeriod
	}
	if err := payroll.CheckPeriodLength("date_to", from, to, s.maxPeriodDays); err != nil {
		return payroll.HoursWorked{}, err
	}

	hours := decimal.Zero
	covered := make(map[string]bool)

	q := attendance.Query{EmployeeID: &employeeID, StartDate: from, EndDate: to}
	for rec, err := range s.attendance.FetchAllUnpaged(ctx, q) {
		if err != nil {
			return payroll.HoursWorked{}, fmt.Errorf("failed to fetch attendance: %w", err)
		}
		covered[rec.Date.Format(validator.DateLayout)] = true
		if rec.Status == attendance.StatusPresent && rec.TotalHours != nil {
			hours = hours.Add(*rec.TotalHours)
		}
	}

	missing := []payroll.MissingField{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !covered[day.Format(validator.DateLayout)] {
			missing = append(missing, payroll.MissingField{Field: payroll.MissingFieldAttendance, Date: day})
		}
	}

	return payroll.HoursWorked{
		EmployeeID:    employeeID,
		Hours:         hours,
		MissingFields: missing,
	}, nil
}

// ComputeHoursWorkedBulk implements payroll.PayrollService. Hours are computed
// per employee on a bounded worker pool; avatar URLs are resolved afterwards
// in one batch and zipped back by index.
func (s *PayrollServiceImpl) ComputeHoursWorkedBulk(ctx context.Context, req payroll.HoursReportRequest, mapping payroll.CategoryMapping) (rows []payroll.EmployeeHours, err error) {
	ctx, span := tracer.Start(ctx, "payroll.ComputeHoursWorkedBulk")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to, err := req.Period()
	if err != nil {
		return nil, err
	}
	if err := payroll.CheckPeriodLength("date_to", from, to, s.maxPeriodDays); err != nil {
		return nil, err
	}

	var categories []string
	if mapping != nil {
		var ok bool
		categories, ok = mapping.Categories(req.Organization, req.Category)
		if !ok {
			return nil, payroll.ErrCategoryNotAllowed
		}
	} else if req.Category != nil && *req.Category != "" {
		categories = []string{*req.Category}
	}

	listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	employees, err := s.employeeRepo.ListByCategories(listCtx, categories)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", database.Classify(err))
	}
	span.SetAttributes(attribute.Int("employees.count", len(employees)))

	rows = make([]payroll.EmployeeHours, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			worked, err := s.ComputeHoursWorked(gctx, emp.ID, from, to)
			if err != nil {
				return fmt.Errorf("employee %d: %w", emp.ID, err)
			}
			rows[i] = payroll.EmployeeHours{
				EmployeeID:    emp.ID,
				Name:          emp.Name,
				RegNo:         emp.RegNo,
				Category:      emp.Category,
				Hours:         worked.Hours,
				MissingFields: worked.MissingFields,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avatarPaths := make([]*string, len(employees))
	for i, emp := range employees {
		avatarPaths[i] = emp.AvatarPath
	}
	urls, err := storage.ResolveAll(ctx, s.urls, avatarPaths, s.workers)
	if err != nil {
		// Avatars are decorative; the report stands without them.
		slog.Warn("Failed to resolve avatar URLs", "error", err)
		return rows, nil
	}
	for i := range rows {
		rows[i].AvatarURL = urls[i]
	}

	return rows, nil
}

// Calculate implements payroll.PayrollService. The overlap check and the
// insert run in one transaction under the employee's payroll lock.
func (s *PayrollServiceImpl) Calculate(ctx context.Context, req payroll.CalculateRequest) (result payroll.CalculationResult, err error) {
	ctx, span := tracer.Start(ctx, "payroll.Calculate", trace.WithAttributes(attribute.Int64("employee.id", req.EmployeeID)))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return payroll.CalculationResult{}, err
	}
	start, end, err := req.Period()
	if err != nil {
		return payroll.CalculationResult{}, err
	}
	if err := payroll.CheckPeriodLength("pay_period_end", start, end, s.maxPeriodDays); err != nil {
		return payroll.CalculationResult{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.CalculationResult{}, fmt.Errorf("failed to generate payment id: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var (
		payment payroll.SalaryPayment
		missing []payroll.MissingField
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.LockEmployee(ctx, database.LockScopePayroll, req.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}

		overlaps, err := s.payrollRepo.HasOverlappingPeriod(ctx, req.EmployeeID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check pay period overlap: %w", err)
		}
		if overlaps {
			return payroll.ErrOverlappingPeriod
		}

		cfg, err := s.payrollRepo.GetSalaryConfig(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, payroll.ErrNoSalaryConfig) {
				return err
			}
			return fmt.Errorf("failed to get salary config: %w", err)
		}

		worked, err := s.ComputeHoursWorked(ctx, req.EmployeeID, start, end)
		if err != nil {
			return err
		}
		missing = worked.MissingFields

		bonus := req.BonusOrZero()
		deductions := req.DeductionsOrZero()
		gross := worked.Hours.Mul(cfg.HourlyRate).Round(2)
		now := s.now().UTC()

		payment, err = s.payrollRepo.CreatePayment(ctx, payroll.SalaryPayment{
			ID:             id.String(),
			EmployeeID:     req.EmployeeID,
			PayPeriodStart: start,
			PayPeriodEnd:   end,
			HoursWorked:    worked.Hours,
			HourlyRate:     cfg.HourlyRate,
			Bonus:          bonus,
			Deductions:     deductions,
			NetSalary:      gross.Add(bonus).Sub(deductions),
			PaymentStatus:  payroll.PaymentStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("failed to create salary payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.CalculationResult{}, database.Classify(err)
	}

	hasDebt, err := s.advances.HasActiveDebt(ctx, req.EmployeeID)
	if err != nil {
		// Debt is informational; the payment is already stored.
		slog.Warn("Failed to check active debt", "employee_id", req.EmployeeID, "payment_id", payment.ID, "error", err)
		hasDebt = false
	}

	slog.Info("Salary payment calculated", "employee_id", payment.EmployeeID, "payment_id", payment.ID, "net_salary", payment.NetSalary.String(), "missing_days", len(missing))

	return payroll.CalculationResult{
		Payment:       payment,
		HasActiveDebt: hasDebt,
		MissingFields: missing,
	}, nil
}

// Approve implements payroll.PayrollService.
func (s *PayrollServiceImpl) Approve(ctx context.Context, paymentID string) (payroll.SalaryPayment, error) {
	return s.transition(ctx, paymentID, payroll.ActionApprove, nil)
}

// Reject implements payroll.PayrollService.
func (s *PayrollServiceImpl) Reject(ctx context.Context, paymentID string) (payroll.SalaryPayment, error) {
	return s.transition(ctx, paymentID, payroll.ActionReject, nil)
}

// MarkFailed implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkFailed(ctx context.Context, paymentID string) (payroll.SalaryPayment, error) {
	return s.transition(ctx, paymentID, payroll.ActionFail, nil)
}

// MarkPaid implements payroll.PayrollService. Only Approved payments can be paid.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, paymentID string, receiptURL *string) (payroll.SalaryPayment, error) {
	return s.transition(ctx, paymentID, payroll.ActionPay, func(p *payroll.SalaryPayment, now time.Time) {
		p.PaidAt = &now
		if receiptURL != nil && *receiptURL != "" {
			p.ReceiptURL = receiptURL
		}
	})
}

func (s *PayrollServiceImpl) transition(ctx context.Context, paymentID string, action payroll.Action, apply func(p *payroll.SalaryPayment, now time.Time)) (payroll.SalaryPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var updated payroll.SalaryPayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.payrollRepo.GetPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		next, ok := payroll.NextStatus(action, current.PaymentStatus)
		if !ok {
			return fmt.Errorf("%w: cannot %s a %s payment", payroll.ErrInvalidTransition, action, current.PaymentStatus)
		}

		now := s.now().UTC()
		current.PaymentStatus = next
		current.UpdatedAt = now
		if apply != nil {
			apply(&current, now)
		}

		updated, err = s.payrollRepo.UpdatePayment(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to update salary payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.SalaryPayment{}, database.Classify(err)
	}

	slog.Info("Salary payment updated", "payment_id", updated.ID, "employee_id", updated.EmployeeID, "status", updated.PaymentStatus)
	return updated, nil
}

// AttachReceipt implements payroll.PayrollService. A receipt may be attached
// in any status, including Paid.
func (s *PayrollServiceImpl) AttachReceipt(ctx context.Context, paymentID string, req payroll.AttachReceiptRequest) (payroll.SalaryPayment, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryPayment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var updated payroll.SalaryPayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.payrollRepo.GetPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		receipt := req.ReceiptURL
		current.ReceiptURL = &receipt
		current.UpdatedAt = s.now().UTC()

		updated, err = s.payrollRepo.UpdatePayment(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to attach receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.SalaryPayment{}, database.Classify(err)
	}
	return updated, nil
}

// GetPayment implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayment(ctx context.Context, paymentID string) (payroll.SalaryPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	payment, err := s.payrollRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return payroll.SalaryPayment{}, database.Classify(err)
	}
	return payment, nil
}

// ListPayments implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListPayments(ctx context.Context, employeeID int64) ([]payroll.SalaryPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	payments, err := s.payrollRepo.ListPaymentsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary payments: %w", database.Classify(err))
	}
	return payments, nil
}

// GetSalaryConfig implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSalaryConfig(ctx context.Context, employeeID int64) (payroll.SalaryConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	cfg, err := s.payrollRepo.GetSalaryConfig(ctx, employeeID)
	if err != nil {
		return payroll.SalaryConfig{}, database.Classify(err)
	}
	return cfg, nil
}

// SetHourlyRate implements payroll.PayrollService.
func (s *PayrollServiceImpl) SetHourlyRate(ctx context.Context, req payroll.SetHourlyRateRequest) (payroll.SalaryConfig, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryConfig{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.SalaryConfig{}, database.Classify(err)
	}

	cfg, err := s.payrollRepo.UpsertSalaryConfig(ctx, payroll.SalaryConfig{
		EmployeeID: req.EmployeeID,
		HourlyRate: *req.HourlyRate,
		UpdatedAt:  s.now().UTC(),
	})
	if err != nil {
		return payroll.SalaryConfig{}, fmt.Errorf("failed to save salary config: %w", database.Classify(err))
	}

	slog.Info("Hourly rate updated", "employee_id", cfg.EmployeeID, "hourly_rate", cfg.HourlyRate.String())
	return cfg, nil
}

// HasActiveDebt implements payroll.PayrollService.
func (s *PayrollServiceImpl) HasActiveDebt(ctx context.Context, employeeID int64) (bool, error) {
	return s.advances.HasActiveDebt(ctx, employeeID)
}
