package payroll

import (
	"context"
	"time"
)

// CategoryMapping resolves which employee categories an organization may
// report on. A nil slice means every category; ok is false when the requested
// filter is not visible to the organization.
type CategoryMapping interface {
	Categories(organization string, filter *string) (categories []string, ok bool)
}

type PayrollService interface {
	// Hours
	ComputeHoursWorked(ctx context.Context, employeeID int64, from, to time.Time) (HoursWorked, error)
	ComputeHoursWorkedBulk(ctx context.Context, req HoursReportRequest, mapping CategoryMapping) ([]EmployeeHours, error)

	// Payments
	Calculate(ctx context.Context, req CalculateRequest) (CalculationResult, error)
	Approve(ctx context.Context, paymentID string) (SalaryPayment, error)
	Reject(ctx context.Context, paymentID string) (SalaryPayment, error)
	MarkFailed(ctx context.Context, paymentID string) (SalaryPayment, error)
	MarkPaid(ctx context.Context, paymentID string, receiptURL *string) (SalaryPayment, error)
	AttachReceipt(ctx context.Context, paymentID string, req AttachReceiptRequest) (SalaryPayment, error)
	GetPayment(ctx context.Context, paymentID string) (SalaryPayment, error)
	ListPayments(ctx context.Context, employeeID int64) ([]SalaryPayment, error)

	// Salary config
	GetSalaryConfig(ctx context.Context, employeeID int64) (SalaryConfig, error)
	SetHourlyRate(ctx context.Context, req SetHourlyRateRequest) (SalaryConfig, error)

	// HasActiveDebt reports whether the employee owes on advances.
	HasActiveDebt(ctx context.Context, employeeID int64) (bool, error)
}
