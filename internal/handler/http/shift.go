package http

import (
	"net/http"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

type ShiftHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	End(w http.ResponseWriter, r *http.Request)
	ForceClose(w http.ResponseWriter, r *http.Request)
	GetActive(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewShiftHandler(attendanceService attendance.AttendanceService) ShiftHandler {
	return &shiftHandlerImpl{attendanceService: attendanceService}
}

// Start implements ShiftHandler.
func (h *shiftHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	var req attendance.StartShiftRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	shift, err := h.attendanceService.StartShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift started", attendance.NewActiveShiftResponse(shift))
}

// End implements ShiftHandler.
func (h *shiftHandlerImpl) End(w http.ResponseWriter, r *http.Request) {
	var req attendance.EndShiftRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	record, err := h.attendanceService.EndShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift ended", attendance.NewRecordResponse(record))
}

// ForceClose implements ShiftHandler. The acting admin comes from the token.
func (h *shiftHandlerImpl) ForceClose(w http.ResponseWriter, r *http.Request) {
	identity, err := jwt.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.ForceCloseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.AdminID = identity.UserID

	record, err := h.attendanceService.ForceCloseShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift force-closed", attendance.NewRecordResponse(record))
}

// GetActive implements ShiftHandler.
func (h *shiftHandlerImpl) GetActive(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	shift, err := h.attendanceService.GetActiveShift(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if shift == nil {
		response.Success(w, nil)
		return
	}

	response.Success(w, attendance.NewActiveShiftResponse(*shift))
}
