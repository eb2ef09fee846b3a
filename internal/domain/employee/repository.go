package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id int64) (Employee, error)

	// ListByCategories returns active employees ordered by id. A nil slice
	// matches every category; an empty non-nil slice matches none.
	ListByCategories(ctx context.Context, categories []string) ([]Employee, error)
}
