package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/shopspring/decimal"
)

type advanceRepository struct {
	s *Store
}

func NewAdvanceRepository(s *Store) advance.AdvanceRepository {
	return &advanceRepository{s: s}
}

// Create implements advance.AdvanceRepository.
func (r *advanceRepository) Create(ctx context.Context, payment advance.AdvancePayment) (advance.AdvancePayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return advance.AdvancePayment{}, err
	}
	defer unlock()

	r.s.advances[payment.ID] = payment
	return payment, nil
}

// GetByID implements advance.AdvanceRepository.
func (r *advanceRepository) GetByID(ctx context.Context, id string) (advance.AdvancePayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return advance.AdvancePayment{}, err
	}
	defer unlock()

	p, ok := r.s.advances[id]
	if !ok {
		return advance.AdvancePayment{}, advance.ErrAdvanceNotFound
	}
	return p, nil
}

// GetByIDForUpdate implements advance.AdvanceRepository.
func (r *advanceRepository) GetByIDForUpdate(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return r.GetByID(ctx, id)
}

// UpdateStatus implements advance.AdvanceRepository.
func (r *advanceRepository) UpdateStatus(ctx context.Context, id string, status advance.Status, updatedAt time.Time) (advance.AdvancePayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return advance.AdvancePayment{}, err
	}
	defer unlock()

	p, ok := r.s.advances[id]
	if !ok {
		return advance.AdvancePayment{}, advance.ErrAdvanceNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	r.s.advances[id] = p
	return p, nil
}

// ListByEmployee implements advance.AdvanceRepository.
func (r *advanceRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]advance.AdvancePayment, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []advance.AdvancePayment{}
	for _, p := range r.s.advances {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b advance.AdvancePayment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// TotalsByEmployee implements advance.AdvanceRepository.
func (r *advanceRepository) TotalsByEmployee(ctx context.Context, employeeID int64) (advance.Totals, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return advance.Totals{}, err
	}
	defer unlock()

	totals := advance.Totals{Advances: decimal.Zero, Repayments: decimal.Zero, PendingRepayments: decimal.Zero}
	for _, p := range r.s.advances {
		if p.EmployeeID != employeeID {
			continue
		}
		switch {
		case p.TransactionType == advance.TransactionTypeAdvance && p.Status.Counts():
			totals.Advances = totals.Advances.Add(p.Amount)
		case p.TransactionType == advance.TransactionTypeRepayment && p.Status.Counts():
			totals.Repayments = totals.Repayments.Add(p.Amount)
		case p.TransactionType == advance.TransactionTypeRepayment && p.Status == advance.StatusPending:
			totals.PendingRepayments = totals.PendingRepayments.Add(p.Amount)
		}
	}
	return totals, nil
}
