package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const advanceColumns = `
	id, employee_id, transaction_type, amount, status, return_type,
	installment_amount, notes, created_at, updated_at
`

type advanceRepository struct {
	db *database.DB
}

func NewAdvanceRepository(db *database.DB) advance.AdvanceRepository {
	return &advanceRepository{db: db}
}

func scanAdvance(row pgx.Row) (advance.AdvancePayment, error) {
	var p advance.AdvancePayment
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.TransactionType, &p.Amount, &p.Status, &p.ReturnType,
		&p.InstallmentAmount, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create implements advance.AdvanceRepository.
func (r *advanceRepository) Create(ctx context.Context, p advance.AdvancePayment) (advance.AdvancePayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO advance_payments (
			id, employee_id, transaction_type, amount, status, return_type,
			installment_amount, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING ` + advanceColumns

	created, err := scanAdvance(q.QueryRow(ctx, query,
		p.ID,
		p.EmployeeID,
		p.TransactionType,
		p.Amount,
		p.Status,
		p.ReturnType,
		p.InstallmentAmount,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	))
	if err != nil {
		return advance.AdvancePayment{}, database.Classify(fmt.Errorf("failed to create advance transaction: %w", err))
	}
	return created, nil
}

func (r *advanceRepository) get(ctx context.Context, id string, forUpdate bool) (advance.AdvancePayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + advanceColumns + ` FROM advance_payments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p, err := scanAdvance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return advance.AdvancePayment{}, advance.ErrAdvanceNotFound
		}
		return advance.AdvancePayment{}, database.Classify(fmt.Errorf("failed to get advance transaction: %w", err))
	}
	return p, nil
}

// GetByID implements advance.AdvanceRepository.
func (r *advanceRepository) GetByID(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate implements advance.AdvanceRepository.
func (r *advanceRepository) GetByIDForUpdate(ctx context.Context, id string) (advance.AdvancePayment, error) {
	return r.get(ctx, id, true)
}

// UpdateStatus implements advance.AdvanceRepository.
func (r *advanceRepository) UpdateStatus(ctx context.Context, id string, status advance.Status, updatedAt time.Time) (advance.AdvancePayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE advance_payments
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + advanceColumns

	p, err := scanAdvance(q.QueryRow(ctx, query, id, status, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return advance.AdvancePayment{}, advance.ErrAdvanceNotFound
		}
		return advance.AdvancePayment{}, database.Classify(fmt.Errorf("failed to update advance status: %w", err))
	}
	return p, nil
}

// ListByEmployee implements advance.AdvanceRepository.
func (r *advanceRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]advance.AdvancePayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + advanceColumns + `
		FROM advance_payments
		WHERE employee_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list advance transactions: %w", err))
	}

	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (advance.AdvancePayment, error) {
		return scanAdvance(row)
	})
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to scan advance transactions: %w", err))
	}
	return txs, nil
}

// TotalsByEmployee implements advance.AdvanceRepository.
func (r *advanceRepository) TotalsByEmployee(ctx context.Context, employeeID int64) (advance.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (
				WHERE transaction_type = 'ADVANCE' AND status IN ('APPROVED', 'COMPLETED')
			), 0),
			COALESCE(SUM(amount) FILTER (
				WHERE transaction_type = 'REPAYMENT' AND status IN ('APPROVED', 'COMPLETED')
			), 0),
			COALESCE(SUM(amount) FILTER (
				WHERE transaction_type = 'REPAYMENT' AND status = 'PENDING'
			), 0)
		FROM advance_payments
		WHERE employee_id = $1
	`

	var totals advance.Totals
	err := q.QueryRow(ctx, query, employeeID).Scan(&totals.Advances, &totals.Repayments, &totals.PendingRepayments)
	if err != nil {
		return advance.Totals{}, database.Classify(fmt.Errorf("failed to sum advance transactions: %w", err))
	}
	return totals, nil
}
