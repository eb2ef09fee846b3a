package advance

import (
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type RecordAdvanceRequest struct {
	EmployeeID        int64            `json:"employee_id"`
	Amount            decimal.Decimal  `json:"amount"`
	ReturnType        string           `json:"return_type"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
}

func (r *RecordAdvanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.HasMaxPlaces(r.Amount, validator.MoneyPlaces) {
		errs.Add("amount", "amount must have at most 2 decimal places")
	}
	if r.InstallmentAmount != nil && !validator.HasMaxPlaces(*r.InstallmentAmount, validator.MoneyPlaces) {
		errs.Add("installment_amount", "installment_amount must have at most 2 decimal places")
	}
	if validator.IsEmpty(r.ReturnType) {
		errs.Add("return_type", "return_type is required")
	} else if _, err := ParseReturnType(r.ReturnType); err != nil {
		errs.Add("return_type", "return_type must be one of full, installments, none")
	}
	if r.Notes != nil && !validator.MaxLength(*r.Notes, 1000) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

type RecordRepaymentRequest struct {
	EmployeeID int64           `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      *string         `json:"notes,omitempty"`
}

func (r *RecordRepaymentRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.HasMaxPlaces(r.Amount, validator.MoneyPlaces) {
		errs.Add("amount", "amount must have at most 2 decimal places")
	}
	if r.Notes != nil && !validator.MaxLength(*r.Notes, 1000) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

type AdvancePaymentResponse struct {
	ID                string           `json:"id"`
	EmployeeID        int64            `json:"employee_id"`
	TransactionType   TransactionType  `json:"transaction_type"`
	Amount            decimal.Decimal  `json:"amount"`
	Status            Status           `json:"status"`
	ReturnType        ReturnType       `json:"return_type"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func NewAdvancePaymentResponse(p AdvancePayment) AdvancePaymentResponse {
	return AdvancePaymentResponse{
		ID:                p.ID,
		EmployeeID:        p.EmployeeID,
		TransactionType:   p.TransactionType,
		Amount:            p.Amount,
		Status:            p.Status,
		ReturnType:        p.ReturnType,
		InstallmentAmount: p.InstallmentAmount,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type LedgerResponse struct {
	EmployeeID            int64                    `json:"employee_id"`
	Outstanding           decimal.Decimal          `json:"outstanding"`
	InstallmentObligation decimal.Decimal          `json:"installment_obligation"`
	HasActiveDebt         bool                     `json:"has_active_debt"`
	Transactions          []AdvancePaymentResponse `json:"transactions"`
}

func NewLedgerResponse(l Ledger) LedgerResponse {
	txs := make([]AdvancePaymentResponse, 0, len(l.Transactions))
	for _, p := range l.Transactions {
		txs = append(txs, NewAdvancePaymentResponse(p))
	}
	return LedgerResponse{
		EmployeeID:            l.EmployeeID,
		Outstanding:           l.Outstanding,
		InstallmentObligation: l.InstallmentObligation,
		HasActiveDebt:         l.HasActiveDebt,
		Transactions:          txs,
	}
}
