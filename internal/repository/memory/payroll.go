package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

// GetSalaryConfig implements payroll.PayrollRepository.
func (r *payrollRepository) GetSalaryConfig(ctx context.Context, employeeID int64) (payroll.SalaryConfig, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return payroll.SalaryConfig{}, err
	}
	defer unlock()

	cfg, ok := r.s.salaryConfigs[employeeID]
	if !ok {
		return payroll.SalaryConfig{}, payroll.ErrNoSalaryConfig
	}
	return cfg, nil
}

// UpsertSalaryConfig implements payroll.PayrollRepository.
func (r *payrollRepository) UpsertSalaryConfig(ctx context.Context, cfg payroll.SalaryConfig) (payroll.SalaryConfig, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return payroll.SalaryConfig{}, err
	}
	defer unlock()

	r.s.salaryConfigs[cfg.EmployeeID] = cfg
	return cfg, nil
}

// HasOverlappingPeriod implements payroll.PayrollRepository. Rejected
// payments no longer hold their period.
func (r *payrollRepository) HasOverlappingPeriod(ctx context.Context, employeeID int64, start, end time.Time) (bool, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	for _, p := range r.s.payments {
		if p.EmployeeID != employeeID || p.PaymentStatus == payroll.PaymentStatusRejected {
			continue
		}
		if p.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

// CreatePayment implements payroll.PayrollRepository.
func (r *payrollRepository) CreatePayment(ctx context.Context, payment payroll.SalaryPayment) (payroll.SalaryPayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return payroll.SalaryPayment{}, err
	}
	defer unlock()

	r.s.payments[payment.ID] = payment
	return payment, nil
}

// GetPaymentByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetPaymentByID(ctx context.Context, id string) (payroll.SalaryPayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return payroll.SalaryPayment{}, err
	}
	defer unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return payroll.SalaryPayment{}, payroll.ErrPaymentNotFound
	}
	return p, nil
}

// GetPaymentByIDForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetPaymentByIDForUpdate(ctx context.Context, id string) (payroll.SalaryPayment, error) {
	return r.GetPaymentByID(ctx, id)
}

// UpdatePayment implements payroll.PayrollRepository.
func (r *payrollRepository) UpdatePayment(ctx context.Context, payment payroll.SalaryPayment) (payroll.SalaryPayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return payroll.SalaryPayment{}, err
	}
	defer unlock()

	if _, ok := r.s.payments[payment.ID]; !ok {
		return payroll.SalaryPayment{}, payroll.ErrPaymentNotFound
	}
	r.s.payments[payment.ID] = payment
	return payment, nil
}

// ListPaymentsByEmployee implements payroll.PayrollRepository.
func (r *payrollRepository) ListPaymentsByEmployee(ctx context.Context, employeeID int64) ([]payroll.SalaryPayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []payroll.SalaryPayment{}
	for _, p := range r.s.payments {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b payroll.SalaryPayment) int {
		return a.PayPeriodStart.Compare(b.PayPeriodStart)
	})
	return out, nil
}
