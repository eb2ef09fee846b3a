package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the app settings the router needs.
type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
}

type Handlers struct {
	Shift      ShiftHandler
	Attendance AttendanceHandler
	Payroll    PayrollHandler
	Advance    AdvanceHandler
	Events     EventsHandler
}

// tokenFromQuery lets EventSource clients, which cannot set headers, pass
// the access token as ?token=.
func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shift-payroll-engine"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {

		// Live shift events, admin only
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, tokenFromQuery))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.AdminOnly)
			r.Get("/events/shifts", h.Events.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/shifts", func(r chi.Router) {
				r.Post("/start", h.Shift.Start)
				r.Post("/end", h.Shift.End)
				r.Get("/active/{employeeID}", h.Shift.GetActive)

				// Admin only
				r.With(middleware.AdminOnly).Post("/force-close", h.Shift.ForceClose)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.List)
				r.Get("/summary", h.Attendance.Summary)

				// Admin only
				r.With(middleware.AdminOnly).Post("/mark-day", h.Attendance.MarkDay)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/hours", h.Payroll.HoursReport)
				r.Get("/employees/{employeeID}/hours", h.Payroll.EmployeeHours)
				r.Get("/employees/{employeeID}/payments", h.Payroll.ListPayments)
				r.Get("/payments/{id}", h.Payroll.GetPayment)
				r.Get("/salary-config/{employeeID}", h.Payroll.GetSalaryConfig)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/calculate", h.Payroll.Calculate)
					r.Put("/salary-config/{employeeID}", h.Payroll.SetHourlyRate)

					r.Route("/payments/{id}", func(r chi.Router) {
						r.Post("/approve", h.Payroll.Approve)
						r.Post("/reject", h.Payroll.Reject)
						r.Post("/fail", h.Payroll.MarkFailed)
						r.Post("/pay", h.Payroll.MarkPaid)
						r.Put("/receipt", h.Payroll.AttachReceipt)
					})
				})
			})

			r.Route("/advances", func(r chi.Router) {
				r.Post("/", h.Advance.RecordAdvance)
				r.Post("/repayments", h.Advance.RecordRepayment)
				r.Get("/employees/{employeeID}", h.Advance.GetLedger)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/{id}/approve", h.Advance.Approve)
					r.Post("/{id}/reject", h.Advance.Reject)
					r.Post("/{id}/complete", h.Advance.Complete)
				})
			})
		})
	})
	return r
}
