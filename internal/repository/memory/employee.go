package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

// Create implements employee.EmployeeRepository. A zero ID is assigned.
func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	defer unlock()

	for _, existing := range r.s.employees {
		if existing.RegNo == e.RegNo {
			return employee.Employee{}, employee.ErrRegNoExists
		}
	}

	if e.ID == 0 {
		r.s.nextEmployeeID++
		e.ID = r.s.nextEmployeeID
	} else if e.ID > r.s.nextEmployeeID {
		r.s.nextEmployeeID = e.ID
	}
	r.s.employees[e.ID] = e
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	defer unlock()

	e, ok := r.s.employees[id]
	if !ok || e.DeletedAt != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// ListByCategories implements employee.EmployeeRepository.
func (r *employeeRepository) ListByCategories(ctx context.Context, categories []string) ([]employee.Employee, error) {
	unlock, err := r.s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []employee.Employee{}
	for _, e := range r.s.employees {
		if e.DeletedAt != nil {
			continue
		}
		if categories != nil && !slices.ContainsFunc(categories, func(c string) bool { return strings.EqualFold(c, e.Category) }) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
