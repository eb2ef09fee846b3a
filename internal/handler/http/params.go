package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a bounded JSON body into dst. An empty body is allowed
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return errEmptyBody
		}
		return err
	}
	return nil
}

func urlInt64(r *http.Request, name string, errs *validator.ValidationErrors) int64 {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errs.Add(name, name+" must be a positive integer")
		return 0
	}
	return id
}

func urlUUID(r *http.Request, name string, errs *validator.ValidationErrors) string {
	raw := chi.URLParam(r, name)
	if !validator.IsValidUUID(raw) {
		errs.Add(name, name+" must be a valid UUID")
		return ""
	}
	return raw
}

func queryInt64(r *http.Request, name string, required bool, errs *validator.ValidationErrors) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			errs.Add(name, name+" is required")
		}
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		errs.Add(name, name+" must be a positive integer")
		return nil
	}
	return &n
}

func queryInt(r *http.Request, name string, fallback int, errs *validator.ValidationErrors) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(name, name+" must be an integer")
		return fallback
	}
	return n
}

func queryDate(r *http.Request, name string, errs *validator.ValidationErrors) time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		errs.Add(name, name+" is required")
		return time.Time{}
	}
	d, ok := validator.IsValidDate(raw)
	if !ok {
		errs.Add(name, name+" must be in YYYY-MM-DD format")
	}
	return d
}

func queryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}
