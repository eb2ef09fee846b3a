package http

import (
	"net/http"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

type PayrollHandler interface {
	// Hours
	HoursReport(w http.ResponseWriter, r *http.Request)
	EmployeeHours(w http.ResponseWriter, r *http.Request)

	// Payments
	Calculate(w http.ResponseWriter, r *http.Request)
	GetPayment(w http.ResponseWriter, r *http.Request)
	ListPayments(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	MarkFailed(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	AttachReceipt(w http.ResponseWriter, r *http.Request)

	// Salary config
	GetSalaryConfig(w http.ResponseWriter, r *http.Request)
	SetHourlyRate(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	categories     payroll.CategoryMapping
}

func NewPayrollHandler(payrollService payroll.PayrollService, categories payroll.CategoryMapping) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService, categories: categories}
}

// ========== HOURS ==========

func (h *payrollHandlerImpl) HoursReport(w http.ResponseWriter, r *http.Request) {
	identity, err := jwt.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req := payroll.HoursReportRequest{
		DateFrom:     r.URL.Query().Get("date_from"),
		DateTo:       r.URL.Query().Get("date_to"),
		Category:     queryString(r, "category"),
		Organization: identity.Organization,
	}

	rows, err := h.payrollService.ComputeHoursWorkedBulk(r.Context(), req, h.categories)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewEmployeeHoursResponses(rows))
}

func (h *payrollHandlerImpl) EmployeeHours(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	from := queryDate(r, "date_from", &errs)
	to := queryDate(r, "date_to", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	hours, err := h.payrollService.ComputeHoursWorked(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewHoursWorkedResponse(hours))
}

// ========== PAYMENTS ==========

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	var req payroll.CalculateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary payment calculated", payroll.NewCalculationResponse(result))
}

func (h *payrollHandlerImpl) GetPayment(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	id := urlUUID(r, "id", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	payment, err := h.payrollService.GetPayment(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewSalaryPaymentResponse(payment))
}

func (h *payrollHandlerImpl) ListPayments(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	payments, err := h.payrollService.ListPayments(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewSalaryPaymentResponses(payments))
}

func (h *payrollHandlerImpl) transition(w http.ResponseWriter, r *http.Request, message string, fn func(id string) (payroll.SalaryPayment, error)) {
	var errs validator.ValidationErrors
	id := urlUUID(r, "id", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	payment, err := fn(id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, payroll.NewSalaryPaymentResponse(payment))
}

func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Salary payment approved", func(id string) (payroll.SalaryPayment, error) {
		return h.payrollService.Approve(r.Context(), id)
	})
}

func (h *payrollHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Salary payment rejected", func(id string) (payroll.SalaryPayment, error) {
		return h.payrollService.Reject(r.Context(), id)
	})
}

func (h *payrollHandlerImpl) MarkFailed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Salary payment marked failed", func(id string) (payroll.SalaryPayment, error) {
		return h.payrollService.MarkFailed(r.Context(), id)
	})
}

func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req payroll.MarkPaidRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	h.transition(w, r, "Salary payment marked paid", func(id string) (payroll.SalaryPayment, error) {
		return h.payrollService.MarkPaid(r.Context(), id, req.ReceiptURL)
	})
}

func (h *payrollHandlerImpl) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	var req payroll.AttachReceiptRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	h.transition(w, r, "Receipt attached", func(id string) (payroll.SalaryPayment, error) {
		return h.payrollService.AttachReceipt(r.Context(), id, req)
	})
}

// ========== SALARY CONFIG ==========

func (h *payrollHandlerImpl) GetSalaryConfig(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	cfg, err := h.payrollService.GetSalaryConfig(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewSalaryConfigResponse(cfg))
}

func (h *payrollHandlerImpl) SetHourlyRate(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.SetHourlyRateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	cfg, err := h.payrollService.SetHourlyRate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Hourly rate updated", payroll.NewSalaryConfigResponse(cfg))
}
