package attendance

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/sse"
)

// Shift event names.
const (
	EventShiftStarted     = "shift.started"
	EventShiftEnded       = "shift.ended"
	EventShiftForceClosed = "shift.force_closed"
)

// TopicAllShifts carries every shift event.
const TopicAllShifts = "shifts"

// EmployeeTopic carries the shift events of one employee.
func EmployeeTopic(employeeID int64) string {
	return fmt.Sprintf("employee:%d", employeeID)
}

type EventPublisher interface {
	PublishToMany(topics []string, event sse.Event)
}

type publishingService struct {
	attendance.AttendanceService
	publisher EventPublisher
}

// WithEvents publishes a shift event after every successful start, end and
// force-close. Failed transitions publish nothing.
func WithEvents(svc attendance.AttendanceService, publisher EventPublisher) attendance.AttendanceService {
	if publisher == nil {
		return svc
	}
	return &publishingService{AttendanceService: svc, publisher: publisher}
}

func (s *publishingService) StartShift(ctx context.Context, req attendance.StartShiftRequest) (attendance.ActiveShift, error) {
	shift, err := s.AttendanceService.StartShift(ctx, req)
	if err != nil {
		return shift, err
	}
	s.publish(shift.EmployeeID, EventShiftStarted, attendance.NewActiveShiftResponse(shift))
	return shift, nil
}

func (s *publishingService) EndShift(ctx context.Context, req attendance.EndShiftRequest) (attendance.Record, error) {
	record, err := s.AttendanceService.EndShift(ctx, req)
	if err != nil {
		return record, err
	}
	s.publish(record.EmployeeID, EventShiftEnded, attendance.NewRecordResponse(record))
	return record, nil
}

func (s *publishingService) ForceCloseShift(ctx context.Context, req attendance.ForceCloseRequest) (attendance.Record, error) {
	record, err := s.AttendanceService.ForceCloseShift(ctx, req)
	if err != nil {
		return record, err
	}
	s.publish(record.EmployeeID, EventShiftForceClosed, attendance.NewRecordResponse(record))
	return record, nil
}

func (s *publishingService) publish(employeeID int64, name string, data any) {
	s.publisher.PublishToMany(
		[]string{TopicAllShifts, EmployeeTopic(employeeID)},
		sse.Event{Name: name, Data: data},
	)
}
