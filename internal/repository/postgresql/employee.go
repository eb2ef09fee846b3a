package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const regNoConstraint = "employees_reg_no_key"

const employeeColumns = `id, name, reg_no, category, avatar_path, created_at, updated_at, deleted_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.Name, &emp.RegNo, &emp.Category, &emp.AvatarPath,
		&emp.CreatedAt, &emp.UpdatedAt, &emp.DeletedAt,
	)
	return emp, err
}

// Create implements employee.EmployeeRepository. A zero ID lets the sequence
// assign one.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	var row pgx.Row
	if newEmployee.ID == 0 {
		query := `
			INSERT INTO employees (name, reg_no, category, avatar_path, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + employeeColumns
		row = q.QueryRow(ctx, query,
			newEmployee.Name, newEmployee.RegNo, newEmployee.Category, newEmployee.AvatarPath,
			newEmployee.CreatedAt, newEmployee.UpdatedAt,
		)
	} else {
		query := `
			INSERT INTO employees (id, name, reg_no, category, avatar_path, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + employeeColumns
		row = q.QueryRow(ctx, query,
			newEmployee.ID, newEmployee.Name, newEmployee.RegNo, newEmployee.Category, newEmployee.AvatarPath,
			newEmployee.CreatedAt, newEmployee.UpdatedAt,
		)
	}

	created, err := scanEmployee(row)
	if err != nil {
		if database.IsConstraintViolation(err, database.CodeUniqueViolation, regNoConstraint) {
			return employee.Employee{}, fmt.Errorf("%w: %s", employee.ErrRegNoExists, newEmployee.RegNo)
		}
		return employee.Employee{}, database.Classify(fmt.Errorf("failed to create employee: %w", err))
	}
	return created, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, database.Classify(fmt.Errorf("failed to get employee with id %d: %w", id, err))
	}
	return emp, nil
}

// ListByCategories implements employee.EmployeeRepository. A nil slice lists
// every category; an empty one lists nothing.
func (e *employeeRepositoryImpl) ListByCategories(ctx context.Context, categories []string) ([]employee.Employee, error) {
	if categories != nil && len(categories) == 0 {
		return []employee.Employee{}, nil
	}

	q := GetQuerier(ctx, e.db)

	var (
		query = `SELECT ` + employeeColumns + ` FROM employees WHERE deleted_at IS NULL`
		args  []any
	)
	if categories != nil {
		lowered := make([]string, 0, len(categories))
		for _, c := range categories {
			lowered = append(lowered, strings.ToLower(c))
		}
		query += ` AND LOWER(category) = ANY($1)`
		args = append(args, lowered)
	}
	query += ` ORDER BY id ASC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list employees: %w", err))
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate employees: %w", err))
	}

	return employees, nil
}
