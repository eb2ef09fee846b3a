package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/config"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/telemetry"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/repository/postgresql"
	advanceService "github.com/cmlabs-hris/shift-payroll-engine/internal/service/advance"
	attendanceService "github.com/cmlabs-hris/shift-payroll-engine/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/shift-payroll-engine/internal/service/payroll"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "v1.0.0"

// repositories is the persistence backend selected by STORE_DRIVER.
type repositories struct {
	tx         database.Transactor
	attendance attendance.AttendanceRepository
	payroll    payroll.PayrollRepository
	advance    advance.AdvanceRepository
	employee   employee.EmployeeRepository
	close      func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	repos, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	hub := sse.NewHub(cfg.Events.BufferSize)
	attendanceSvc := attendanceService.WithEvents(
		attendanceService.NewAttendanceService(repos.tx, repos.attendance, attendanceService.Options{
			Policy:       cfg.Attendance.LocationPolicy(),
			Location:     cfg.App.Timezone,
			BatchSize:    cfg.Fetch.BatchSize,
			MaxBatches:   cfg.Fetch.MaxBatches,
			StoreTimeout: cfg.Store.Timeout,
		}),
		hub,
	)
	advanceSvc := advanceService.NewAdvanceService(repos.tx, repos.advance, cfg.Store.Timeout, nil)
	payrollSvc := payrollService.NewPayrollService(
		repos.tx,
		repos.payroll,
		repos.employee,
		attendanceSvc,
		advanceSvc,
		storage.NewBaseURLResolver(cfg.Storage.BaseURL),
		payrollService.Options{
			Workers:       cfg.Payroll.Workers,
			StoreTimeout:  cfg.Store.Timeout,
			MaxPeriodDays: cfg.Payroll.MaxPeriodDays,
		},
	)

	scheduler := cron.NewScheduler()
	cron.NewReconcileJobs(
		attendanceSvc,
		cfg.Attendance.StaleShiftThreshold,
		cfg.Attendance.AutoCloseShiftHours,
		nil,
	).RegisterJobs(scheduler, cfg.Attendance.ReconcileInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       level,
	}, jwtService, appHTTP.Handlers{
		Shift:      appHTTP.NewShiftHandler(attendanceSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc, cfg.Organizations),
		Advance:    appHTTP.NewAdvanceHandler(advanceSvc),
		Events:     appHTTP.NewEventsHandler(hub),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", server.Addr, "store", cfg.Store.Driver, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		slog.Warn("Using in-memory store; data is lost on restart")
		return repositories{
			tx:         store,
			attendance: memory.NewAttendanceRepository(store),
			payroll:    memory.NewPayrollRepository(store),
			advance:    memory.NewAdvanceRepository(store),
			employee:   memory.NewEmployeeRepository(store),
			close:      func() {},
		}, nil

	case config.StoreDriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		db, err := database.NewPostgreSQLDB(connectCtx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return repositories{}, fmt.Errorf("connect to database: %w", err)
		}

		if cfg.Database.AutoMigrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				db.Close()
				return repositories{}, fmt.Errorf("migrate database: %w", err)
			}
		}

		return repositories{
			tx:         postgresql.NewTransactor(db),
			attendance: postgresql.NewAttendanceRepository(db),
			payroll:    postgresql.NewPayrollRepository(db),
			advance:    postgresql.NewAdvanceRepository(db),
			employee:   postgresql.NewEmployeeRepository(db),
			close:      db.Close,
		}, nil

	default:
		return repositories{}, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
