package advance

import (
	"context"

	"github.com/shopspring/decimal"
)

// AdvanceService tracks advances and repayments against an employee.
type AdvanceService interface {
	RecordAdvance(ctx context.Context, req RecordAdvanceRequest) (AdvancePayment, error)
	RecordRepayment(ctx context.Context, req RecordRepaymentRequest) (AdvancePayment, error)

	Approve(ctx context.Context, id string) (AdvancePayment, error)
	Reject(ctx context.Context, id string) (AdvancePayment, error)
	Complete(ctx context.Context, id string) (AdvancePayment, error)

	CurrentOutstanding(ctx context.Context, employeeID int64) (decimal.Decimal, error)
	InstallmentObligation(ctx context.Context, employeeID int64) (decimal.Decimal, error)
	HasActiveDebt(ctx context.Context, employeeID int64) (bool, error)
	ListTransactions(ctx context.Context, employeeID int64) ([]AdvancePayment, error)
	GetLedger(ctx context.Context, employeeID int64) (Ledger, error)
}
