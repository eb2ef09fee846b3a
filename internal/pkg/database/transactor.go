package database

import "context"

// Transactor runs a unit of work atomically. Repositories called with the
// context passed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// LockEmployee serializes work for one employee inside the current
	// transaction. scope separates unrelated critical sections.
	LockEmployee(ctx context.Context, scope string, employeeID int64) error
}

// Lock scopes used by the services.
const (
	LockScopePayroll = "payroll"
	LockScopeAdvance = "advance"
)
