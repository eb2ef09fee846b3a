package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleError(t *testing.T) {
	var verrs validator.ValidationErrors
	verrs.Add("employee_id", "employee_id is required")

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", verrs.Err(), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"already active", fmt.Errorf("start: %w", attendance.ErrAlreadyActive), http.StatusConflict, "ALREADY_ACTIVE"},
		{"clock skew", attendance.ErrClockSkew, http.StatusBadRequest, "CLOCK_SKEW"},
		{"missing salary config", payroll.ErrNoSalaryConfig, http.StatusFailedDependency, "SALARY_CONFIG_MISSING"},
		{"overlap", payroll.ErrOverlappingPeriod, http.StatusConflict, "OVERLAPPING_PERIOD"},
		{"category", payroll.ErrCategoryNotAllowed, http.StatusForbidden, "FORBIDDEN"},
		{"debt", advance.ErrExceedsOutstandingDebt, http.StatusConflict, "EXCEEDS_OUTSTANDING_DEBT"},
		{"store", fmt.Errorf("%w: timeout", database.ErrStoreUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, fmt.Errorf("pq: password authentication failed for user app"))

	body := decode(t, rec)
	assert.Equal(t, "An unexpected error occurred", body["error"])
}

func TestSuccessWithPage(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessWithPage(rec, []int{1, 2}, Page{Count: 12, TotalPages: 6, CurrentPage: 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 12, body["count"])
	assert.EqualValues(t, 6, body["total_pages"])
	assert.EqualValues(t, 2, body["current_page"])
}
