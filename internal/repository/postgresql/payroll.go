package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const paymentOverlapConstraint = "salary_payments_no_overlap"

const paymentColumns = `
	id, employee_id, pay_period_start, pay_period_end, hours_worked, hourly_rate,
	bonus, deductions, net_salary, payment_status, receipt_url, paid_at, created_at, updated_at
`

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func scanPayment(row pgx.Row) (payroll.SalaryPayment, error) {
	var p payroll.SalaryPayment
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PayPeriodStart, &p.PayPeriodEnd, &p.HoursWorked, &p.HourlyRate,
		&p.Bonus, &p.Deductions, &p.NetSalary, &p.PaymentStatus, &p.ReceiptURL, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetSalaryConfig implements payroll.PayrollRepository.
func (r *payrollRepository) GetSalaryConfig(ctx context.Context, employeeID int64) (payroll.SalaryConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, hourly_rate, updated_at
		FROM salary_configs
		WHERE employee_id = $1
	`

	var cfg payroll.SalaryConfig
	err := q.QueryRow(ctx, query, employeeID).Scan(&cfg.EmployeeID, &cfg.HourlyRate, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryConfig{}, payroll.ErrNoSalaryConfig
		}
		return payroll.SalaryConfig{}, database.Classify(fmt.Errorf("failed to get salary config: %w", err))
	}
	return cfg, nil
}

// UpsertSalaryConfig implements payroll.PayrollRepository.
func (r *payrollRepository) UpsertSalaryConfig(ctx context.Context, cfg payroll.SalaryConfig) (payroll.SalaryConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_configs (employee_id, hourly_rate, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO UPDATE
		SET hourly_rate = EXCLUDED.hourly_rate,
		    updated_at = EXCLUDED.updated_at
		RETURNING employee_id, hourly_rate, updated_at
	`

	var saved payroll.SalaryConfig
	err := q.QueryRow(ctx, query, cfg.EmployeeID, cfg.HourlyRate, cfg.UpdatedAt).
		Scan(&saved.EmployeeID, &saved.HourlyRate, &saved.UpdatedAt)
	if err != nil {
		return payroll.SalaryConfig{}, database.Classify(fmt.Errorf("failed to upsert salary config: %w", err))
	}
	return saved, nil
}

// HasOverlappingPeriod implements payroll.PayrollRepository. Rejected
// payments do not hold their period.
func (r *payrollRepository) HasOverlappingPeriod(ctx context.Context, employeeID int64, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM salary_payments
			WHERE employee_id = $1
			  AND payment_status <> 'Rejected'
			  AND pay_period_start <= $3
			  AND pay_period_end >= $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&exists); err != nil {
		return false, database.Classify(fmt.Errorf("failed to check overlapping period: %w", err))
	}
	return exists, nil
}

// CreatePayment implements payroll.PayrollRepository.
func (r *payrollRepository) CreatePayment(ctx context.Context, p payroll.SalaryPayment) (payroll.SalaryPayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_payments (
			id, employee_id, pay_period_start, pay_period_end, hours_worked, hourly_rate,
			bonus, deductions, net_salary, payment_status, receipt_url, paid_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING ` + paymentColumns

	created, err := scanPayment(q.QueryRow(ctx, query,
		p.ID,
		p.EmployeeID,
		p.PayPeriodStart,
		p.PayPeriodEnd,
		p.HoursWorked,
		p.HourlyRate,
		p.Bonus,
		p.Deductions,
		p.NetSalary,
		p.PaymentStatus,
		p.ReceiptURL,
		p.PaidAt,
		p.CreatedAt,
		p.UpdatedAt,
	))
	if err != nil {
		if database.IsConstraintViolation(err, database.CodeExclusionViolation, paymentOverlapConstraint) {
			return payroll.SalaryPayment{}, payroll.ErrOverlappingPeriod
		}
		return payroll.SalaryPayment{}, database.Classify(fmt.Errorf("failed to create salary payment: %w", err))
	}
	return created, nil
}

func (r *payrollRepository) getPayment(ctx context.Context, id string, forUpdate bool) (payroll.SalaryPayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + paymentColumns + ` FROM salary_payments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p, err := scanPayment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryPayment{}, payroll.ErrPaymentNotFound
		}
		return payroll.SalaryPayment{}, database.Classify(fmt.Errorf("failed to get salary payment: %w", err))
	}
	return p, nil
}

// GetPaymentByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetPaymentByID(ctx context.Context, id string) (payroll.SalaryPayment, error) {
	return r.getPayment(ctx, id, false)
}

// GetPaymentByIDForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetPaymentByIDForUpdate(ctx context.Context, id string) (payroll.SalaryPayment, error) {
	return r.getPayment(ctx, id, true)
}

// UpdatePayment implements payroll.PayrollRepository. Only the mutable
// lifecycle columns are written.
func (r *payrollRepository) UpdatePayment(ctx context.Context, p payroll.SalaryPayment) (payroll.SalaryPayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_payments
		SET payment_status = $2,
		    receipt_url = $3,
		    paid_at = $4,
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + paymentColumns

	updated, err := scanPayment(q.QueryRow(ctx, query, p.ID, p.PaymentStatus, p.ReceiptURL, p.PaidAt, p.UpdatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryPayment{}, payroll.ErrPaymentNotFound
		}
		if database.IsConstraintViolation(err, database.CodeExclusionViolation, paymentOverlapConstraint) {
			return payroll.SalaryPayment{}, payroll.ErrOverlappingPeriod
		}
		return payroll.SalaryPayment{}, database.Classify(fmt.Errorf("failed to update salary payment: %w", err))
	}
	return updated, nil
}

// ListPaymentsByEmployee implements payroll.PayrollRepository.
func (r *payrollRepository) ListPaymentsByEmployee(ctx context.Context, employeeID int64) ([]payroll.SalaryPayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + paymentColumns + `
		FROM salary_payments
		WHERE employee_id = $1
		ORDER BY pay_period_start ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list salary payments: %w", err))
	}
	defer rows.Close()

	payments := []payroll.SalaryPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate salary payments: %w", err))
	}

	return payments, nil
}
