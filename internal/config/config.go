package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	OrderingRequest = "request"
	OrderingArrival = "arrival"

	SnapshotMemory   = "memory"
	SnapshotPostgres = "postgres"
	SnapshotSQLite   = "sqlite"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Intake   IntakeConfig
	Snapshot SnapshotConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    string
	AllowOrigins []string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type IntakeConfig struct {
	Ordering           string
	RateLimitPerMinute int
	RateLimitBurst     int
}

type SnapshotConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Load загружает конфигурацию сервера из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	// SSE-поток держит соединение открытым, поэтому по умолчанию без таймаута записи.
	writeTimeout, err := parseOptionalDurationEnv("SERVER_WRITE_TIMEOUT", 0)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BodyLimit:    getEnv("SERVER_BODY_LIMIT", "10M"),
		AllowOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS"),
	}

	cfg.Backend, err = loadBackend()
	if err != nil {
		return cfg, err
	}

	sessionTTL, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return cfg, err
	}

	cfg.Session = SessionConfig{
		Secret: getEnv("SESSION_SECRET", ""),
		Issuer: getEnv("SESSION_ISSUER", "smartshelf"),
		TTL:    sessionTTL,
	}

	rateLimitPerMinute, err := parseIntEnv("INTAKE_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return cfg, err
	}

	rateLimitBurst, err := parseIntEnv("INTAKE_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	cfg.Intake = IntakeConfig{
		Ordering:           strings.ToLower(getEnv("INTAKE_ORDERING", OrderingRequest)),
		RateLimitPerMinute: rateLimitPerMinute,
		RateLimitBurst:     rateLimitBurst,
	}

	cfg.Snapshot = SnapshotConfig{
		Driver:     strings.ToLower(getEnv("SNAPSHOT_DRIVER", SnapshotMemory)),
		SQLitePath: getEnv("SNAPSHOT_SQLITE_PATH", "data/snapshots.db"),
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "smartshelf"),
		Password:        getEnv("DB_PASSWORD", "smartshelf"),
		Name:            getEnv("DB_NAME", "smartshelf"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadBackend загружает только настройки бэкенда (для CLI).
func LoadBackend() (BackendConfig, error) {
	if err := loadEnv(); err != nil {
		return BackendConfig{}, err
	}

	cfg, err := loadBackend()
	if err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadBackend() (BackendConfig, error) {
	timeout, err := parseDurationEnv("BACKEND_TIMEOUT", 60*time.Second)
	if err != nil {
		return BackendConfig{}, err
	}

	baseURL := getEnv("SMARTSHELF_BACKEND_URI", "")
	if baseURL == "" {
		baseURL = getEnv("NEXT_PUBLIC_BACKEND_URI", "http://localhost:8000")
	}

	return BackendConfig{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Timeout: timeout,
	}, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c BackendConfig) validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("SMARTSHELF_BACKEND_URI must be an absolute URL, got %q", c.BaseURL)
	}

	return nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if err := c.Backend.validate(); err != nil {
		return err
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if c.Intake.RateLimitPerMinute <= 0 || c.Intake.RateLimitBurst <= 0 {
		return fmt.Errorf("INTAKE_RATE_LIMIT_PER_MINUTE and INTAKE_RATE_LIMIT_BURST must be greater than 0")
	}

	switch c.Intake.Ordering {
	case OrderingRequest, OrderingArrival:
	default:
		return fmt.Errorf("INTAKE_ORDERING must be %q or %q", OrderingRequest, OrderingArrival)
	}

	switch c.Snapshot.Driver {
	case SnapshotMemory:
	case SnapshotSQLite:
		if c.Snapshot.SQLitePath == "" {
			return fmt.Errorf("SNAPSHOT_SQLITE_PATH is required")
		}
	case SnapshotPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}

		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}

		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}

		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
		}
	default:
		return fmt.Errorf("SNAPSHOT_DRIVER must be one of memory, postgres, sqlite")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

// parseOptionalDurationEnv допускает 0 как "без ограничения".
func parseOptionalDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
