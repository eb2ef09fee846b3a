package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	attendanceService "github.com/cmlabs-hris/shift-payroll-engine/internal/service/attendance"
)

const keepaliveInterval = 30 * time.Second

type EventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventsHandlerImpl struct {
	hub *sse.Hub
}

func NewEventsHandler(hub *sse.Hub) EventsHandler {
	return &eventsHandlerImpl{hub: hub}
}

// Stream sends shift events as server-sent events. With employee_id it only
// sends that employee's events.
func (h *eventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := queryInt64(r, "employee_id", false, &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	topic := attendanceService.TopicAllShifts
	if employeeID != nil {
		topic = attendanceService.EmployeeTopic(*employeeID)
	}
	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"topic\":%q}\n\n", topic)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("Failed to encode shift event", "event", event.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
