package advance

import "errors"

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrExceedsOutstandingDebt = errors.New("repayment exceeds outstanding debt")
	ErrInvalidTransition      = errors.New("advance status transition not allowed")
	ErrInvalidInstallment     = errors.New("installment amount must be greater than zero and not exceed the advance")
	ErrInvalidReturnType      = errors.New("invalid return type")
	ErrInvalidStatus          = errors.New("invalid advance status")
	ErrAdvanceNotFound        = errors.New("advance payment not found")
)
