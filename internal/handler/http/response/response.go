package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint writes. Paged reads fill Count,
// TotalPages and CurrentPage.
type Response struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	Data        interface{}       `json:"data,omitempty"`
	Error       string            `json:"error,omitempty"`
	Code        string            `json:"code,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	Count       *int64            `json:"count,omitempty"`
	TotalPages  *int              `json:"total_pages,omitempty"`
	CurrentPage *int              `json:"current_page,omitempty"`
}

// Page describes one page of a paged read.
type Page struct {
	Count       int64
	TotalPages  int
	CurrentPage int
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fallback := Response{
			Success: false,
			Error:   "Failed to encode response",
			Code:    "ENCODING_ERROR",
		}
		_ = json.NewEncoder(w).Encode(fallback)
	}
}

// Success responses
func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithPage(w http.ResponseWriter, data interface{}, page Page) {
	writeJSON(w, http.StatusOK, Response{
		Success:     true,
		Data:        data,
		Count:       &page.Count,
		TotalPages:  &page.TotalPages,
		CurrentPage: &page.CurrentPage,
	})
}

// Error writes a failure envelope with an explicit status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// Error responses
func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Error:   message,
		Code:    "BAD_REQUEST",
		Details: details,
	})
}

func ValidationError(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Response{
		Success: false,
		Error:   "Validation failed",
		Code:    "VALIDATION_ERROR",
		Details: details,
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusConflict, code, message)
}

func ServiceUnavailable(w http.ResponseWriter) {
	Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, please try again")
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}
