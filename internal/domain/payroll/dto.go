package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DefaultMaxPeriodDays bounds an inclusive pay or report period when no
// other limit is configured.
const DefaultMaxPeriodDays = 366

// CheckPeriodLength rejects an inclusive period longer than maxDays. A
// non-positive maxDays disables the check.
func CheckPeriodLength(field string, start, end time.Time, maxDays int) error {
	if maxDays <= 0 || !end.After(start.AddDate(0, 0, maxDays-1)) {
		return nil
	}
	var errs validator.ValidationErrors
	errs.Add(field, fmt.Sprintf("period must not exceed %d days", maxDays))
	return errs
}

// parsePeriod validates two YYYY-MM-DD fields and returns them parsed.
func parsePeriod(fromField, from, toField, to string) (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	start, ok := validator.IsValidDate(from)
	if !ok {
		errs.Add(fromField, fromField+" must be in YYYY-MM-DD format")
	}
	end, ok := validator.IsValidDate(to)
	if !ok {
		errs.Add(toField, toField+" must be in YYYY-MM-DD format")
	}
	if err := errs.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return start, end, nil
}

// ========== CALCULATION ==========

type CalculateRequest struct {
	EmployeeID     int64            `json:"employee_id"`
	PayPeriodStart string           `json:"pay_period_start"`
	PayPeriodEnd   string           `json:"pay_period_end"`
	Bonus          *decimal.Decimal `json:"bonus,omitempty"`
	Deductions     *decimal.Decimal `json:"deductions,omitempty"`
}

func (r *CalculateRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Bonus != nil {
		if !validator.IsNonNegative(*r.Bonus) {
			errs.Add("bonus", "bonus must not be negative")
		} else if !validator.HasMaxPlaces(*r.Bonus, validator.MoneyPlaces) {
			errs.Add("bonus", "bonus must have at most 2 decimal places")
		}
	}
	if r.Deductions != nil {
		if !validator.IsNonNegative(*r.Deductions) {
			errs.Add("deductions", "deductions must not be negative")
		} else if !validator.HasMaxPlaces(*r.Deductions, validator.MoneyPlaces) {
			errs.Add("deductions", "deductions must have at most 2 decimal places")
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}
	_, _, err := r.Period()
	return err
}

// Period returns the parsed inclusive pay period.
func (r *CalculateRequest) Period() (time.Time, time.Time, error) {
	return parsePeriod("pay_period_start", r.PayPeriodStart, "pay_period_end", r.PayPeriodEnd)
}

func (r *CalculateRequest) BonusOrZero() decimal.Decimal {
	if r.Bonus == nil {
		return decimal.Zero
	}
	return *r.Bonus
}

func (r *CalculateRequest) DeductionsOrZero() decimal.Decimal {
	if r.Deductions == nil {
		return decimal.Zero
	}
	return *r.Deductions
}

// ========== HOURS ==========

// HoursReportRequest asks for hours of every employee visible to an
// organization, optionally narrowed to one category.
type HoursReportRequest struct {
	DateFrom     string  `json:"date_from"`
	DateTo       string  `json:"date_to"`
	Category     *string `json:"category,omitempty"`
	Organization string  `json:"-"`
}

func (r *HoursReportRequest) Validate() error {
	_, _, err := r.Period()
	return err
}

func (r *HoursReportRequest) Period() (time.Time, time.Time, error) {
	return parsePeriod("date_from", r.DateFrom, "date_to", r.DateTo)
}

// ========== SALARY CONFIG ==========

type SetHourlyRateRequest struct {
	EmployeeID int64            `json:"-"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}

func (r *SetHourlyRateRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.HourlyRate == nil {
		errs.Add("hourly_rate", "hourly_rate is required")
	} else if !validator.IsNonNegative(*r.HourlyRate) {
		errs.Add("hourly_rate", "hourly_rate must not be negative")
	} else if !validator.HasMaxPlaces(*r.HourlyRate, validator.RatePlaces) {
		errs.Add("hourly_rate", "hourly_rate must have at most 4 decimal places")
	}
	return errs.Err()
}

// ========== PAYMENT UPDATES ==========

type MarkPaidRequest struct {
	ReceiptURL *string `json:"receipt_url,omitempty"`
}

type AttachReceiptRequest struct {
	ReceiptURL string `json:"receipt_url"`
}

func (r *AttachReceiptRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ReceiptURL) {
		errs.Add("receipt_url", "receipt_url is required")
	}
	return errs.Err()
}

// ========== RESPONSES ==========

type MissingFieldResponse struct {
	Field string `json:"field"`
	Date  string `json:"date"`
}

func NewMissingFieldResponses(fields []MissingField) []MissingFieldResponse {
	out := make([]MissingFieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, MissingFieldResponse{Field: f.Field, Date: f.Date.Format(validator.DateLayout)})
	}
	return out
}

type HoursWorkedResponse struct {
	EmployeeID    int64                  `json:"employee_id"`
	Hours         decimal.Decimal        `json:"hours"`
	MissingFields []MissingFieldResponse `json:"missing_fields"`
}

func NewHoursWorkedResponse(h HoursWorked) HoursWorkedResponse {
	return HoursWorkedResponse{
		EmployeeID:    h.EmployeeID,
		Hours:         h.Hours,
		MissingFields: NewMissingFieldResponses(h.MissingFields),
	}
}

type EmployeeHoursResponse struct {
	EmployeeID    int64                  `json:"employee_id"`
	Name          string                 `json:"name"`
	RegNo         string                 `json:"reg_no"`
	Category      string                 `json:"category"`
	Hours         decimal.Decimal        `json:"hours"`
	MissingFields []MissingFieldResponse `json:"missing_fields"`
	AvatarURL     *string                `json:"avatar_url,omitempty"`
}

func NewEmployeeHoursResponses(rows []EmployeeHours) []EmployeeHoursResponse {
	out := make([]EmployeeHoursResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, EmployeeHoursResponse{
			EmployeeID:    h.EmployeeID,
			Name:          h.Name,
			RegNo:         h.RegNo,
			Category:      h.Category,
			Hours:         h.Hours,
			MissingFields: NewMissingFieldResponses(h.MissingFields),
			AvatarURL:     h.AvatarURL,
		})
	}
	return out
}

type SalaryConfigResponse struct {
	EmployeeID int64           `json:"employee_id"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewSalaryConfigResponse(c SalaryConfig) SalaryConfigResponse {
	return SalaryConfigResponse{EmployeeID: c.EmployeeID, HourlyRate: c.HourlyRate, UpdatedAt: c.UpdatedAt}
}

type SalaryPaymentResponse struct {
	ID             string          `json:"id"`
	EmployeeID     int64           `json:"employee_id"`
	PayPeriodStart string          `json:"pay_period_start"`
	PayPeriodEnd   string          `json:"pay_period_end"`
	HoursWorked    decimal.Decimal `json:"hours_worked"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Bonus          decimal.Decimal `json:"bonus"`
	Deductions     decimal.Decimal `json:"deductions"`
	NetSalary      decimal.Decimal `json:"net_salary"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	ReceiptURL     *string         `json:"receipt_url,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewSalaryPaymentResponse(p SalaryPayment) SalaryPaymentResponse {
	return SalaryPaymentResponse{
		ID:             p.ID,
		EmployeeID:     p.EmployeeID,
		PayPeriodStart: p.PayPeriodStart.Format(validator.DateLayout),
		PayPeriodEnd:   p.PayPeriodEnd.Format(validator.DateLayout),
		HoursWorked:    p.HoursWorked,
		HourlyRate:     p.HourlyRate,
		Bonus:          p.Bonus,
		Deductions:     p.Deductions,
		NetSalary:      p.NetSalary,
		PaymentStatus:  p.PaymentStatus,
		ReceiptURL:     p.ReceiptURL,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewSalaryPaymentResponses(payments []SalaryPayment) []SalaryPaymentResponse {
	out := make([]SalaryPaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewSalaryPaymentResponse(p))
	}
	return out
}

type CalculationResponse struct {
	Payment       SalaryPaymentResponse  `json:"payment"`
	HasActiveDebt bool                   `json:"has_active_debt"`
	MissingFields []MissingFieldResponse `json:"missing_fields"`
}

func NewCalculationResponse(r CalculationResult) CalculationResponse {
	return CalculationResponse{
		Payment:       NewSalaryPaymentResponse(r.Payment),
		HasActiveDebt: r.HasActiveDebt,
		MissingFields: NewMissingFieldResponses(r.MissingFields),
	}
}
