package payroll

import "errors"

var (
	ErrOverlappingPeriod    = errors.New("pay period overlaps an existing salary payment")
	ErrNoSalaryConfig       = errors.New("employee has no salary configuration")
	ErrInvalidTransition    = errors.New("payment status transition not allowed")
	ErrPaymentNotFound      = errors.New("salary payment not found")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidPeriod        = errors.New("pay period start must not be after its end")
	ErrCategoryNotAllowed   = errors.New("category is not visible to this organization")
)
