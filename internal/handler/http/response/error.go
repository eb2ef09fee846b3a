package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Infrastructure
	case errors.Is(err, database.ErrStoreUnavailable):
		slog.Warn("Store unavailable", "error", err)
		ServiceUnavailable(w)

	// Identity
	case errors.Is(err, jwt.ErrInvalidClaims):
		Unauthorized(w, "Invalid access token")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyActive):
		Conflict(w, "ALREADY_ACTIVE", err.Error())
	case errors.Is(err, attendance.ErrNoActiveShift):
		Conflict(w, "NO_ACTIVE_SHIFT", err.Error())
	case errors.Is(err, attendance.ErrClockSkew):
		Error(w, http.StatusBadRequest, "CLOCK_SKEW", err.Error())
	case errors.Is(err, attendance.ErrInvalidLocation):
		Error(w, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
	case errors.Is(err, attendance.ErrInvalidRange):
		Error(w, http.StatusBadRequest, "INVALID_RANGE", err.Error())
	case errors.Is(err, attendance.ErrInvalidStatus):
		Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, attendance.ErrBatchLimitExceeded):
		Error(w, http.StatusUnprocessableEntity, "BATCH_LIMIT_EXCEEDED", err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrRegNoExists):
		Conflict(w, "REG_NO_EXISTS", "Registration number already exists")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrNoSalaryConfig):
		Error(w, http.StatusFailedDependency, "SALARY_CONFIG_MISSING", err.Error())
	case errors.Is(err, payroll.ErrOverlappingPeriod):
		Conflict(w, "OVERLAPPING_PERIOD", err.Error())
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, payroll.ErrPaymentNotFound):
		NotFound(w, "Salary payment not found")
	case errors.Is(err, payroll.ErrInvalidPaymentStatus):
		Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod):
		Error(w, http.StatusBadRequest, "INVALID_RANGE", err.Error())
	case errors.Is(err, payroll.ErrCategoryNotAllowed):
		Forbidden(w, err.Error())

	// Advance domain errors
	case errors.Is(err, advance.ErrInvalidAmount):
		Error(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, advance.ErrInvalidInstallment):
		Error(w, http.StatusBadRequest, "INVALID_INSTALLMENT", err.Error())
	case errors.Is(err, advance.ErrInvalidReturnType), errors.Is(err, advance.ErrInvalidStatus):
		Error(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, advance.ErrExceedsOutstandingDebt):
		Conflict(w, "EXCEEDS_OUTSTANDING_DEBT", err.Error())
	case errors.Is(err, advance.ErrInvalidTransition):
		Conflict(w, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, advance.ErrAdvanceNotFound):
		NotFound(w, "Advance transaction not found")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
