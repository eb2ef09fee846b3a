package advance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enum
type TransactionType string

const (
	TransactionTypeAdvance   TransactionType = "ADVANCE"
	TransactionTypeRepayment TransactionType = "REPAYMENT"
)

// Status enum
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// Counts reports whether a transaction in this status affects the balance.
func (s Status) Counts() bool {
	return s == StatusApproved || s == StatusCompleted
}

// ParseStatus normalizes case-insensitive input.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ReturnType describes how an advance is paid back.
type ReturnType string

const (
	ReturnTypeFull         ReturnType = "full"
	ReturnTypeInstallments ReturnType = "installments"
	ReturnTypeNone         ReturnType = "none"
)

// ParseReturnType normalizes case-insensitive input.
func ParseReturnType(s string) (ReturnType, error) {
	switch rt := ReturnType(strings.ToLower(strings.TrimSpace(s))); rt {
	case ReturnTypeFull, ReturnTypeInstallments, ReturnTypeNone:
		return rt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReturnType, s)
}

// AdvancePayment is a cash advance or a repayment against one.
type AdvancePayment struct {
	ID                string
	EmployeeID        int64
	TransactionType   TransactionType
	Amount            decimal.Decimal
	Status            Status
	ReturnType        ReturnType
	InstallmentAmount *decimal.Decimal
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Totals aggregates an employee's transactions for balance checks.
type Totals struct {
	// ADVANCE amounts in APPROVED or COMPLETED.
	Advances decimal.Decimal
	// REPAYMENT amounts in APPROVED or COMPLETED.
	Repayments decimal.Decimal
	// REPAYMENT amounts still PENDING.
	PendingRepayments decimal.Decimal
}

// Outstanding is Advances minus Repayments, floored at zero.
func (t Totals) Outstanding() decimal.Decimal {
	out := t.Advances.Sub(t.Repayments)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Ledger summarizes an employee's advance position.
type Ledger struct {
	EmployeeID            int64
	Outstanding           decimal.Decimal
	InstallmentObligation decimal.Decimal
	HasActiveDebt         bool
	Transactions          []AdvancePayment
}
