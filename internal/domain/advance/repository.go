package advance

import (
	"context"
	"time"
)

type AdvanceRepository interface {
	Create(ctx context.Context, payment AdvancePayment) (AdvancePayment, error)
	GetByID(ctx context.Context, id string) (AdvancePayment, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (AdvancePayment, error)

	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) (AdvancePayment, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]AdvancePayment, error)
	TotalsByEmployee(ctx context.Context, employeeID int64) (Totals, error)
}
