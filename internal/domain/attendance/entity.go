package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies a shift attendance record.
type Status string

const (
	StatusPresent    Status = "PRESENT"
	StatusAbsent     Status = "ABSENT"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusIncomplete Status = "INCOMPLETE"
)

// ParseStatus normalizes loosely-cased input such as "on_leave" or "Present".
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch Status(normalized) {
	case StatusPresent, StatusAbsent, StatusOnLeave, StatusIncomplete:
		return Status(normalized), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Record is one work session of an employee. CheckOut is nil while the
// session is the employee's active shift.
type Record struct {
	ID            string
	EmployeeID    int64
	Date          time.Time
	CheckIn       time.Time
	CheckOut      *time.Time
	TotalHours    *decimal.Decimal
	Status        Status
	Location      *string
	IsAdminAction bool
	ClosedBy      *string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r Record) IsActive() bool {
	return r.CheckOut == nil
}

// ActiveShift returns the in-progress view of an open record.
func (r Record) ActiveShift() ActiveShift {
	return ActiveShift{
		RecordID:   r.ID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		CheckIn:    r.CheckIn,
		Location:   r.Location,
	}
}

// ActiveShift is an employee's checked-in, not yet checked-out session.
type ActiveShift struct {
	RecordID   string
	EmployeeID int64
	Date       time.Time
	CheckIn    time.Time
	Location   *string
}

// Finalization carries the fields written when an active shift is closed.
type Finalization struct {
	RecordID      string
	CheckOut      time.Time
	TotalHours    decimal.Decimal
	Status        Status
	Notes         *string
	IsAdminAction bool
	ClosedBy      *string
	UpdatedAt     time.Time
}

// GeoSite is a location employees are allowed to check in from.
type GeoSite struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// LocationPolicy controls how the check-in location is validated.
type LocationPolicy struct {
	Required bool
	Sites    []GeoSite
}

// Query selects records for unpaged iteration. A nil EmployeeID matches every
// employee.
type Query struct {
	EmployeeID *int64
	StartDate  time.Time
	EndDate    time.Time
}

// Summary counts records per status over a set of records.
type Summary struct {
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	OnLeave           int     `json:"on_leave"`
	Incomplete        int     `json:"incomplete"`
	Total             int     `json:"total"`
	PresentPercentage float64 `json:"present_percentage"`
}
