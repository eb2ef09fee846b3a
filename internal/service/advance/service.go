package advance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultStoreTimeout = 5 * time.Second

type AdvanceServiceImpl struct {
	tx           database.Transactor
	repo         advance.AdvanceRepository
	storeTimeout time.Duration
	now          func() time.Time
}

func NewAdvanceService(tx database.Transactor, repo advance.AdvanceRepository, storeTimeout time.Duration, now func() time.Time) advance.AdvanceService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &AdvanceServiceImpl{
		tx:           tx,
		repo:         repo,
		storeTimeout: storeTimeout,
		now:          now,
	}
}

// RecordAdvance implements advance.AdvanceService.
func (s *AdvanceServiceImpl) RecordAdvance(ctx context.Context, req advance.RecordAdvanceRequest) (advance.AdvancePayment, error) {
	if err := req.Validate(); err != nil {
		return advance.AdvancePayment{}, err
	}
	if !req.Amount.IsPositive() {
		return advance.AdvancePayment{}, advance.ErrInvalidAmount
	}

	returnType, err := advance.ParseReturnType(req.ReturnType)
	if err != nil {
		return advance.AdvancePayment{}, err
	}

	switch returnType {
	case advance.ReturnTypeInstallments:
		if req.InstallmentAmount == nil || !req.InstallmentAmount.IsPositive() || req.InstallmentAmount.GreaterThan(req.Amount) {
			return advance.AdvancePayment{}, advance.ErrInvalidInstallment
		}
	default:
		if req.InstallmentAmount != nil {
			return advance.AdvancePayment{}, fmt.Errorf("%w: only installments advances carry an installment amount", advance.ErrInvalidInstallment)
		}
	}

	payment, err := s.newTransaction(req.EmployeeID, advance.TransactionTypeAdvance, req.Amount, req.Notes)
	if err != nil {
		return advance.AdvancePayment{}, err
	}
	payment.ReturnType = returnType
	payment.InstallmentAmount = req.InstallmentAmount

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return advance.AdvancePayment{}, fmt.Errorf("failed to record advance: %w", database.Classify(err))
	}
	return created, nil
}

// RecordRepayment implements advance.AdvanceService. The balance check and the
// insert run under the employee's advance lock.
func (s *AdvanceServiceImpl) RecordRepayment(ctx context.Context, req advance.RecordRepaymentRequest) (advance.AdvancePayment, error) {
	if err := req.Validate(); err != nil {
		return advance.AdvancePayment{}, err
	}
	if !req.Amount.IsPositive() {
		return advance.AdvancePayment{}, advance.ErrInvalidAmount
	}

	payment, err := s.newTransaction(req.EmployeeID, advance.TransactionTypeRepayment, req.Amount, req.Notes)
	if err != nil {
		return advance.AdvancePayment{}, err
	}
	payment.ReturnType = advance.ReturnTypeNone

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var created advance.AdvancePayment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.LockEmployee(ctx, database.LockScopeAdvance, req.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}

		totals, err := s.repo.TotalsByEmployee(ctx, req.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get advance totals: %w", err)
		}

		// Pending repayments already claim part of the balance.
		available := totals.Outstanding().Sub(totals.PendingRepayments)
		if req.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: requested %s, available %s", advance.ErrExceedsOutstandingDebt, req.Amount, available.Truncate(2))
		}

		created, err = s.repo.Create(ctx, payment)
		if err != nil {
			return fmt.Errorf("failed to record repayment: %w", err)
		}
		return nil
	})
	if err != nil {
		return advance.AdvancePayment{}, database.Classify(err)
	}
	return created, nil
}

func (s *AdvanceServiceImpl) newTransaction(employeeID int64, txType advance.TransactionType, amount decimal.Decimal, notes *string) (advance.AdvancePayment, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return advance.AdvancePayment{}, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	now := s.now().UTC()
	return advance.AdvancePayment{
		ID:              id.String(),
		EmployeeID:      employeeID,
		TransactionType: txType,
		Amount:          amount,
		Status:          advance.StatusPending,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Approve implements advance.AdvanceService. Approving a repayment re-checks
// it against the balance it would reduce.
func (s *AdvanceServiceImpl) Approve(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return s.transition(ctx, id, advance.ActionApprove)
}

// Reject implements advance.AdvanceService.
func (s *AdvanceServiceImpl) Reject(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return s.transition(ctx, id, advance.ActionReject)
}

// Complete implements advance.AdvanceService.
func (s *AdvanceServiceImpl) Complete(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return s.transition(ctx, id, advance.ActionComplete)
}

func (s *AdvanceServiceImpl) transition(ctx context.Context, id string, action advance.Action) (advance.AdvancePayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var updated advance.AdvancePayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.tx.LockEmployee(ctx, database.LockScopeAdvance, current.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}

		current, err = s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		next, ok := advance.NextStatus(action, current.Status)
		if !ok {
			return fmt.Errorf("%w: cannot %s a %s transaction", advance.ErrInvalidTransition, action, current.Status)
		}

		if action == advance.ActionApprove && current.TransactionType == advance.TransactionTypeRepayment {
			totals, err := s.repo.TotalsByEmployee(ctx, current.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to get advance totals: %w", err)
			}
			if current.Amount.GreaterThan(totals.Outstanding()) {
				return fmt.Errorf("%w: repayment %s, outstanding %s", advance.ErrExceedsOutstandingDebt, current.Amount, totals.Outstanding())
			}
		}

		updated, err = s.repo.UpdateStatus(ctx, id, next, s.now().UTC())
		if err != nil {
			return fmt.Errorf("failed to update advance status: %w", err)
		}
		return nil
	})
	if err != nil {
		return advance.AdvancePayment{}, database.Classify(err)
	}

	slog.Info("Advance transaction updated", "id", updated.ID, "employee_id", updated.EmployeeID, "type", updated.TransactionType, "status", updated.Status)
	return updated, nil
}

// CurrentOutstanding implements advance.AdvanceService.
func (s *AdvanceServiceImpl) CurrentOutstanding(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	totals, err := s.repo.TotalsByEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get advance totals: %w", database.Classify(err))
	}
	return totals.Outstanding(), nil
}

// InstallmentObligation implements advance.AdvanceService. Any approved
// advance due in full makes the whole balance due; otherwise the approved
// installments are due, capped at the balance.
func (s *AdvanceServiceImpl) InstallmentObligation(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	totals, err := s.repo.TotalsByEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get advance totals: %w", database.Classify(err))
	}
	txs, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list advance transactions: %w", database.Classify(err))
	}
	return installmentObligation(totals.Outstanding(), txs), nil
}

func installmentObligation(outstanding decimal.Decimal, txs []advance.AdvancePayment) decimal.Decimal {
	if !outstanding.IsPositive() {
		return decimal.Zero
	}

	due := decimal.Zero
	for _, p := range txs {
		if p.TransactionType != advance.TransactionTypeAdvance || p.Status != advance.StatusApproved {
			continue
		}
		switch p.ReturnType {
		case advance.ReturnTypeFull:
			return outstanding
		case advance.ReturnTypeInstallments:
			if p.InstallmentAmount != nil {
				due = due.Add(*p.InstallmentAmount)
			}
		}
	}
	return decimal.Min(due, outstanding)
}

// HasActiveDebt implements advance.AdvanceService.
func (s *AdvanceServiceImpl) HasActiveDebt(ctx context.Context, employeeID int64) (bool, error) {
	outstanding, err := s.CurrentOutstanding(ctx, employeeID)
	if err != nil {
		return false, err
	}
	return outstanding.IsPositive(), nil
}

// ListTransactions implements advance.AdvanceService.
func (s *AdvanceServiceImpl) ListTransactions(ctx context.Context, employeeID int64) ([]advance.AdvancePayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	txs, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list advance transactions: %w", database.Classify(err))
	}
	return txs, nil
}

// GetLedger implements advance.AdvanceService.
func (s *AdvanceServiceImpl) GetLedger(ctx context.Context, employeeID int64) (advance.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	totals, err := s.repo.TotalsByEmployee(ctx, employeeID)
	if err != nil {
		return advance.Ledger{}, fmt.Errorf("failed to get advance totals: %w", database.Classify(err))
	}
	txs, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return advance.Ledger{}, fmt.Errorf("failed to list advance transactions: %w", database.Classify(err))
	}

	outstanding := totals.Outstanding()
	return advance.Ledger{
		EmployeeID:            employeeID,
		Outstanding:           outstanding,
		InstallmentObligation: installmentObligation(outstanding, txs),
		HasActiveDebt:         outstanding.IsPositive(),
		Transactions:          txs,
	}, nil
}
