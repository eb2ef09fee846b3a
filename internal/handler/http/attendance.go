package http

import (
	"net/http"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

const defaultPageSize = 20

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	MarkDay(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := queryInt64(r, "employee_id", true, &errs)
	req := attendance.RangeRequest{
		StartDate: queryDate(r, "date_from", &errs),
		EndDate:   queryDate(r, "date_to", &errs),
		Page:      queryInt(r, "page", 1, &errs),
		PageSize:  queryInt(r, "page_size", defaultPageSize, &errs),
	}
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = *employeeID

	page, err := h.attendanceService.FetchRange(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithPage(w, attendance.NewRecordResponses(page.Records), response.Page{
		Count:       page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// Summary implements AttendanceHandler. Without employee_id it summarizes
// every employee in the range.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	q := attendance.Query{
		EmployeeID: queryInt64(r, "employee_id", false, &errs),
		StartDate:  queryDate(r, "date_from", &errs),
		EndDate:    queryDate(r, "date_to", &errs),
	}
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.attendanceService.SummarizeRange(r.Context(), q)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// MarkDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkDay(w http.ResponseWriter, r *http.Request) {
	identity, err := jwt.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.MarkDayRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.AdminID = identity.UserID

	record, err := h.attendanceService.MarkDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance marked", attendance.NewRecordResponse(record))
}
