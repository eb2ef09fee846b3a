// Package memory provides in-process repositories used for development and
// tests. A single mutex guards every table; WithinTx holds it for the whole
// unit of work and restores a snapshot when the work fails.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
)

var errNoTransaction = errors.New("employee lock requires an open transaction")

type txKey struct{}

type Store struct {
	mu sync.Mutex

	records        map[string]attendance.Record
	salaryConfigs  map[int64]payroll.SalaryConfig
	payments       map[string]payroll.SalaryPayment
	advances       map[string]advance.AdvancePayment
	employees      map[int64]employee.Employee
	nextEmployeeID int64
}

func NewStore() *Store {
	return &Store{
		records:       make(map[string]attendance.Record),
		salaryConfigs: make(map[int64]payroll.SalaryConfig),
		payments:      make(map[string]payroll.SalaryPayment),
		advances:      make(map[string]advance.AdvancePayment),
		employees:     make(map[int64]employee.Employee),
	}
}

type snapshot struct {
	records        map[string]attendance.Record
	salaryConfigs  map[int64]payroll.SalaryConfig
	payments       map[string]payroll.SalaryPayment
	advances       map[string]advance.AdvancePayment
	employees      map[int64]employee.Employee
	nextEmployeeID int64
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		records:        maps.Clone(s.records),
		salaryConfigs:  maps.Clone(s.salaryConfigs),
		payments:       maps.Clone(s.payments),
		advances:       maps.Clone(s.advances),
		employees:      maps.Clone(s.employees),
		nextEmployeeID: s.nextEmployeeID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.records = snap.records
	s.salaryConfigs = snap.salaryConfigs
	s.payments = snap.payments
	s.advances = snap.advances
	s.employees = snap.employees
	s.nextEmployeeID = snap.nextEmployeeID
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// acquire takes the store lock unless ctx already runs inside WithinTx.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, database.Classify(err)
	}
	if s.inTx(ctx) {
		return func() {}, nil
	}
	s.mu.Lock()
	return s.mu.Unlock, nil
}

// WithinTx implements database.Transactor. Nested calls join the outer unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return database.Classify(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// LockEmployee implements database.Transactor. The store lock held by
// WithinTx already serializes every employee.
func (s *Store) LockEmployee(ctx context.Context, scope string, employeeID int64) error {
	if !s.inTx(ctx) {
		return errNoTransaction
	}
	return nil
}

var _ database.Transactor = (*Store)(nil)
