package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Database      DatabaseConfig
	JWT           JWTConfig
	App           AppConfig
	Store         StoreConfig
	Attendance    AttendanceConfig
	Fetch         FetchConfig
	Payroll       PayrollConfig
	Organizations OrgCategoryMapping
	Storage       StorageConfig
	Telemetry     TelemetryConfig
	Events        EventsConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	Timezone       *time.Location
}

// StoreConfig selects the persistence backend and bounds every store call.
type StoreConfig struct {
	Driver  string
	Timeout time.Duration
}

// AttendanceConfig holds clock event policy and reconciliation settings.
type AttendanceConfig struct {
	LocationRequired    bool
	Sites               []attendance.GeoSite
	StaleShiftThreshold time.Duration
	AutoCloseShiftHours time.Duration
	ReconcileInterval   time.Duration
}

// LocationPolicy converts the settings into the validator policy.
func (a AttendanceConfig) LocationPolicy() attendance.LocationPolicy {
	return attendance.LocationPolicy{Required: a.LocationRequired, Sites: a.Sites}
}

// FetchConfig controls unpaged batch iteration.
type FetchConfig struct {
	BatchSize  int
	MaxBatches int
}

// PayrollConfig holds bulk computation settings and the longest period, in
// days, a report or calculation may cover.
type PayrollConfig struct {
	Workers       int
	MaxPeriodDays int
}

type StorageConfig struct {
	BaseURL string
}

type TelemetryConfig struct {
	ServiceName string
}

// EventsConfig sizes each live shift event subscriber's buffer.
type EventsConfig struct {
	BufferSize int
}

// OrgCategoryMapping maps an organization to the employee categories it may
// see in payroll reports.
type OrgCategoryMapping map[string][]string

// Categories resolves the categories to report for an organization and an
// optional category filter. A nil result means every category; ok is false
// when the filter is outside what the organization may see.
func (m OrgCategoryMapping) Categories(organization string, filter *string) (categories []string, ok bool) {
	allowed, mapped := m[organization]

	if filter == nil || strings.TrimSpace(*filter) == "" {
		if !mapped {
			return nil, true
		}
		return slices.Clone(allowed), true
	}

	category := strings.TrimSpace(*filter)
	if !mapped {
		return []string{category}, true
	}
	idx := slices.IndexFunc(allowed, func(c string) bool { return strings.EqualFold(c, category) })
	if idx < 0 {
		return []string{}, false
	}
	return []string{allowed[idx]}, true
}

func Load() (*Config, error) {
	// .env is optional; real deployments pass the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getEnvBool("DB_AUTO_MIGRATE", false)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "shift_payroll"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(maxConns),
		MinConns:    int32(minConns),
		AutoMigrate: autoMigrate,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	timezone, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", ",", []string{"http://localhost:3000"}),
		Timezone:       timezone,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Store configuration
	storeTimeout, err := getEnvDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	config.Store = StoreConfig{
		Driver:  strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		Timeout: storeTimeout,
	}

	// Attendance configuration
	locationRequired, err := getEnvBool("ATTENDANCE_LOCATION_REQUIRED", false)
	if err != nil {
		return nil, err
	}
	sites, err := ParseGeoSites(getEnv("ATTENDANCE_GEOFENCE_SITES", ""))
	if err != nil {
		return nil, err
	}
	staleThreshold, err := getEnvDuration("STALE_SHIFT_THRESHOLD", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	autoCloseHours, err := getEnvDuration("AUTO_CLOSE_SHIFT_HOURS", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	reconcileInterval, err := getEnvDuration("RECONCILE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	config.Attendance = AttendanceConfig{
		LocationRequired:    locationRequired,
		Sites:               sites,
		StaleShiftThreshold: staleThreshold,
		AutoCloseShiftHours: autoCloseHours,
		ReconcileInterval:   reconcileInterval,
	}

	// Batch fetch configuration
	batchSize, err := getEnvInt("FETCH_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}
	maxBatches, err := getEnvInt("FETCH_MAX_BATCHES", 10000)
	if err != nil {
		return nil, err
	}
	config.Fetch = FetchConfig{BatchSize: batchSize, MaxBatches: maxBatches}

	workers, err := getEnvInt("PAYROLL_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	maxPeriodDays, err := getEnvInt("MAX_PERIOD_DAYS", 366)
	if err != nil {
		return nil, err
	}
	config.Payroll = PayrollConfig{Workers: workers, MaxPeriodDays: maxPeriodDays}

	config.Organizations, err = ParseOrgCategories(getEnv("ORG_CATEGORIES", ""))
	if err != nil {
		return nil, err
	}

	config.Storage = StorageConfig{BaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads")}
	config.Telemetry = TelemetryConfig{ServiceName: getEnv("OTEL_SERVICE_NAME", "shift-payroll-engine")}

	eventBuffer, err := getEnvInt("EVENTS_BUFFER_SIZE", 16)
	if err != nil {
		return nil, err
	}
	config.Events = EventsConfig{BufferSize: eventBuffer}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be positive")
	}
	if c.Fetch.MaxBatches <= 0 {
		return fmt.Errorf("FETCH_MAX_BATCHES must be positive")
	}
	if c.Payroll.Workers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if c.Payroll.MaxPeriodDays <= 0 {
		return fmt.Errorf("MAX_PERIOD_DAYS must be positive")
	}
	if c.Attendance.StaleShiftThreshold <= 0 || c.Attendance.AutoCloseShiftHours <= 0 || c.Attendance.ReconcileInterval <= 0 {
		return fmt.Errorf("attendance durations must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ParseGeoSites parses "name:lat,lng:radius;..." into geofence sites.
func ParseGeoSites(value string) ([]attendance.GeoSite, error) {
	var sites []attendance.GeoSite
	for _, entry := range splitNonEmpty(value, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid ATTENDANCE_GEOFENCE_SITES entry %q: want name:lat,lng:radius", entry)
		}
		coords := strings.Split(parts[1], ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinates in geofence site %q", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in geofence site %q: %w", entry, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in geofence site %q: %w", entry, err)
		}
		radius, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || radius <= 0 {
			return nil, fmt.Errorf("invalid radius in geofence site %q", entry)
		}
		sites = append(sites, attendance.GeoSite{
			Name:         strings.TrimSpace(parts[0]),
			Latitude:     lat,
			Longitude:    lng,
			RadiusMeters: radius,
		})
	}
	return sites, nil
}

// ParseOrgCategories parses "org:catA|catB;org2:catC".
func ParseOrgCategories(value string) (OrgCategoryMapping, error) {
	mapping := OrgCategoryMapping{}
	for _, entry := range splitNonEmpty(value, ";") {
		org, cats, found := strings.Cut(entry, ":")
		org = strings.TrimSpace(org)
		if !found || org == "" {
			return nil, fmt.Errorf("invalid ORG_CATEGORIES entry %q: want org:category|category", entry)
		}
		mapping[org] = append(mapping[org], splitNonEmpty(cats, "|")...)
	}
	return mapping, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key, sep string, fallback []string) []string {
	values := splitNonEmpty(os.Getenv(key), sep)
	if len(values) == 0 {
		return fallback
	}
	return values
}

func splitNonEmpty(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
