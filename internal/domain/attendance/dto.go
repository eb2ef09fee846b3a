package attendance

import (
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// MaxPageSize bounds a single FetchRange page.
const MaxPageSize = 500

const maxNotesLength = 1000

// ========================================
// SHIFT DTOs
// ========================================

type StartShiftRequest struct {
	EmployeeID int64      `json:"employee_id"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Location   *string    `json:"location,omitempty"`
}

func (r *StartShiftRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	checkTimestamp(r.Timestamp, &errs)
	return errs.Err()
}

// checkTimestamp rejects an explicit zero time. An omitted timestamp means now.
func checkTimestamp(ts *time.Time, errs *validator.ValidationErrors) {
	if ts != nil && ts.IsZero() {
		errs.Add("timestamp", "timestamp must not be the zero time")
	}
}

type EndShiftRequest struct {
	EmployeeID int64      `json:"employee_id"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

func (r *EndShiftRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	checkTimestamp(r.Timestamp, &errs)
	if r.Notes != nil && !validator.MaxLength(*r.Notes, maxNotesLength) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

// ForceCloseRequest closes an employee's shift on their behalf. AdminID is
// taken from the caller's identity, never from the request body.
type ForceCloseRequest struct {
	EmployeeID int64      `json:"employee_id"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	AdminID    string     `json:"-"`
}

func (r *ForceCloseRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	checkTimestamp(r.Timestamp, &errs)
	if validator.IsEmpty(r.AdminID) {
		errs.Add("admin_id", "admin_id is required")
	}
	if r.Notes != nil && !validator.MaxLength(*r.Notes, maxNotesLength) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

// MarkDayRequest flags a whole day as ABSENT or ON_LEAVE.
type MarkDayRequest struct {
	EmployeeID int64   `json:"employee_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
	AdminID    string  `json:"-"`
}

func (r *MarkDayRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	if status, err := ParseStatus(r.Status); err != nil || (status != StatusAbsent && status != StatusOnLeave) {
		errs.Add("status", "status must be ABSENT or ON_LEAVE")
	}
	if validator.IsEmpty(r.AdminID) {
		errs.Add("admin_id", "admin_id is required")
	}
	if r.Notes != nil && !validator.MaxLength(*r.Notes, maxNotesLength) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

// ========================================
// QUERY DTOs
// ========================================

// RangeRequest asks for one page of an employee's records between two
// inclusive dates.
type RangeRequest struct {
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Page       int
	PageSize   int
}

func (r *RangeRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Page < 1 {
		errs.Add("page", "page must be at least 1")
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		errs.Add("page_size", "page_size must be between 1 and 500")
	}
	return errs.Err()
}

// RecordPage is one page of FetchRange results.
type RecordPage struct {
	Records     []Record
	TotalCount  int64
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// ========================================
// RESPONSE DTOs
// ========================================

type ActiveShiftResponse struct {
	RecordID   string    `json:"record_id"`
	EmployeeID int64     `json:"employee_id"`
	Date       string    `json:"date"`
	CheckIn    time.Time `json:"check_in"`
	Location   *string   `json:"location,omitempty"`
}

func NewActiveShiftResponse(s ActiveShift) ActiveShiftResponse {
	return ActiveShiftResponse{
		RecordID:   s.RecordID,
		EmployeeID: s.EmployeeID,
		Date:       s.Date.Format(validator.DateLayout),
		CheckIn:    s.CheckIn,
		Location:   s.Location,
	}
}

type RecordResponse struct {
	ID            string           `json:"id"`
	EmployeeID    int64            `json:"employee_id"`
	Date          string           `json:"date"`
	CheckIn       time.Time        `json:"check_in"`
	CheckOut      *time.Time       `json:"check_out"`
	TotalHours    *decimal.Decimal `json:"total_hours"`
	Status        Status           `json:"status"`
	Location      *string          `json:"location,omitempty"`
	IsAdminAction bool             `json:"is_admin_action"`
	ClosedBy      *string          `json:"closed_by,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Date:          r.Date.Format(validator.DateLayout),
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		TotalHours:    r.TotalHours,
		Status:        r.Status,
		Location:      r.Location,
		IsAdminAction: r.IsAdminAction,
		ClosedBy:      r.ClosedBy,
		Notes:         r.Notes,
	}
}

func NewRecordResponses(records []Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, NewRecordResponse(r))
	}
	return out
}
