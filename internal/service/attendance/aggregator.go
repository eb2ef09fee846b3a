package attendance

import (
	"context"
	"fmt"
	"iter"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// FetchRange implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) FetchRange(ctx context.Context, req attendance.RangeRequest) (attendance.RecordPage, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordPage{}, err
	}
	if req.StartDate.After(req.EndDate) {
		return attendance.RecordPage{}, attendance.ErrInvalidRange
	}

	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	employeeID := req.EmployeeID
	q := attendance.Query{EmployeeID: &employeeID, StartDate: req.StartDate, EndDate: req.EndDate}

	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return attendance.RecordPage{}, fmt.Errorf("failed to count attendance records: %w", database.Classify(err))
	}

	offset := (req.Page - 1) * req.PageSize
	records, err := s.repo.List(ctx, q, req.PageSize, offset)
	if err != nil {
		return attendance.RecordPage{}, fmt.Errorf("failed to list attendance records: %w", database.Classify(err))
	}

	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))

	return attendance.RecordPage{
		Records:     records,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: req.Page,
		PageSize:    req.PageSize,
	}, nil
}

// FetchAllUnpaged implements attendance.AttendanceService. Every range over
// the returned sequence starts again from the first batch.
func (s *AttendanceServiceImpl) FetchAllUnpaged(ctx context.Context, q attendance.Query) iter.Seq2[attendance.Record, error] {
	return func(yield func(attendance.Record, error) bool) {
		if q.StartDate.After(q.EndDate) {
			yield(attendance.Record{}, attendance.ErrInvalidRange)
			return
		}

		offset := 0
		for batch := 0; ; batch++ {
			if batch >= s.maxBatches {
				yield(attendance.Record{}, fmt.Errorf("%w: %d batches of %d", attendance.ErrBatchLimitExceeded, s.maxBatches, s.batchSize))
				return
			}

			records, err := s.listBatch(ctx, q, offset)
			if err != nil {
				yield(attendance.Record{}, err)
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}
			if len(records) < s.batchSize {
				return
			}
			offset += len(records)
		}
	}
}

func (s *AttendanceServiceImpl) listBatch(ctx context.Context, q attendance.Query, offset int) ([]attendance.Record, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	records, err := s.repo.List(ctx, q, s.batchSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance batch at offset %d: %w", offset, database.Classify(err))
	}
	return records, nil
}

// Summarize implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Summarize(records []attendance.Record) attendance.Summary {
	var t tally
	for _, rec := range records {
		t.add(rec)
	}
	return t.summary()
}

// SummarizeRange implements attendance.AttendanceService. Records are folded
// batch by batch and never held all at once.
func (s *AttendanceServiceImpl) SummarizeRange(ctx context.Context, q attendance.Query) (attendance.Summary, error) {
	var t tally
	for rec, err := range s.FetchAllUnpaged(ctx, q) {
		if err != nil {
			return attendance.Summary{}, err
		}
		t.add(rec)
	}
	return t.summary(), nil
}

type tally struct {
	present, absent, onLeave, incomplete, total int
}

func (t *tally) add(rec attendance.Record) {
	t.total++
	switch rec.Status {
	case attendance.StatusPresent:
		t.present++
	case attendance.StatusAbsent:
		t.absent++
	case attendance.StatusOnLeave:
		t.onLeave++
	case attendance.StatusIncomplete:
		t.incomplete++
	}
}

func (t tally) summary() attendance.Summary {
	return attendance.Summary{
		Present:           t.present,
		Absent:            t.absent,
		OnLeave:           t.onLeave,
		Incomplete:        t.incomplete,
		Total:             t.total,
		PresentPercentage: presentPercentage(t.present, t.total),
	}
}

// presentPercentage rounds half-up to one decimal; an empty set is 0%.
func presentPercentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(present)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
	return pct.InexactFloat64()
}
