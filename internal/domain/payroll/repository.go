package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	// Salary config
	GetSalaryConfig(ctx context.Context, employeeID int64) (SalaryConfig, error)
	UpsertSalaryConfig(ctx context.Context, cfg SalaryConfig) (SalaryConfig, error)

	// Payments
	HasOverlappingPeriod(ctx context.Context, employeeID int64, start, end time.Time) (bool, error)
	CreatePayment(ctx context.Context, payment SalaryPayment) (SalaryPayment, error)
	GetPaymentByID(ctx context.Context, id string) (SalaryPayment, error)
	GetPaymentByIDForUpdate(ctx context.Context, id string) (SalaryPayment, error)
	UpdatePayment(ctx context.Context, payment SalaryPayment) (SalaryPayment, error)
	ListPaymentsByEmployee(ctx context.Context, employeeID int64) ([]SalaryPayment, error)
}
