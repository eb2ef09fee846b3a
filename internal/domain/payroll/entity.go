package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusApproved PaymentStatus = "Approved"
	PaymentStatusRejected PaymentStatus = "Rejected"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusApproved,
	PaymentStatusRejected,
	PaymentStatusPaid,
	PaymentStatusFailed,
}

// ParsePaymentStatus accepts any casing ("paid", "PAID", "Paid") and returns
// the canonical status. Unknown values are rejected.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	trimmed := strings.TrimSpace(s)
	for _, status := range paymentStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
}

// SalaryConfig holds the per-employee hourly rate.
type SalaryConfig struct {
	EmployeeID int64
	HourlyRate decimal.Decimal
	UpdatedAt  time.Time
}

// SalaryPayment is one disbursement for an employee and an inclusive period.
type SalaryPayment struct {
	ID             string
	EmployeeID     int64
	PayPeriodStart time.Time
	PayPeriodEnd   time.Time
	HoursWorked    decimal.Decimal
	HourlyRate     decimal.Decimal
	Bonus          decimal.Decimal
	Deductions     decimal.Decimal
	NetSalary      decimal.Decimal
	PaymentStatus  PaymentStatus
	ReceiptURL     *string
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overlaps reports whether the inclusive periods [start, end] intersect.
func (p SalaryPayment) Overlaps(start, end time.Time) bool {
	return !p.PayPeriodStart.After(end) && !start.After(p.PayPeriodEnd)
}

// MissingField flags a date that has neither an attendance record nor a
// leave marker.
type MissingField struct {
	Field string
	Date  time.Time
}

const MissingFieldAttendance = "attendance"

// HoursWorked is the result of summing PRESENT hours over a range.
type HoursWorked struct {
	EmployeeID    int64
	Hours         decimal.Decimal
	MissingFields []MissingField
}

// EmployeeHours is one row of the bulk hours report.
type EmployeeHours struct {
	EmployeeID    int64
	Name          string
	RegNo         string
	Category      string
	Hours         decimal.Decimal
	MissingFields []MissingField
	AvatarURL     *string
}

// CalculationResult is a created payment plus informational flags.
type CalculationResult struct {
	Payment       SalaryPayment
	HasActiveDebt bool
	MissingFields []MissingField
}
