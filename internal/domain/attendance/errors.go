package attendance

import "errors"

// Attendance domain errors
var (
	// Clock event errors
	ErrAlreadyActive   = errors.New("employee already has an active shift")
	ErrNoActiveShift   = errors.New("employee has no active shift")
	ErrClockSkew       = errors.New("shift end is before shift start")
	ErrInvalidLocation = errors.New("location is missing, malformed or outside the allowed sites")

	// Query errors
	ErrInvalidRange       = errors.New("start date must not be after end date")
	ErrInvalidStatus      = errors.New("invalid attendance status")
	ErrBatchLimitExceeded = errors.New("batch limit exceeded while fetching attendance records")
)
