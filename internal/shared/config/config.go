package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Plaid      PlaidConfig
	Auth0      Auth0Config
	Encryption EncryptionConfig
	Redis      RedisConfig
	Sync       SyncConfig
	Scheduler  SchedulerConfig
	TLS        TLSConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
}

// DatabaseConfig selects the store backend. Driver is "postgres" or
// "sqlite"; URL, when set, is used verbatim as the DSN.
type DatabaseConfig struct {
	Driver     string
	URL        string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type PlaidConfig struct {
	ClientID     string
	Secret       string
	Environment  string
	ClientName   string
	CountryCodes []string
	PageSize     int
}

type Auth0Config struct {
	Domain   string
	Audience string
}

type EncryptionConfig struct {
	Key string
}

// RedisConfig enables the cross-process sync lock when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SyncConfig struct {
	MaxPages   int
	LockTTL    time.Duration // refreshed while a run lasts
	RunTimeout time.Duration
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
	SampleRatio  float64
}

func Load() (*Config, error) {

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	plaidPageSize, err := getIntEnv("PLAID_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	syncMaxPages, err := getIntEnv("SYNC_MAX_PAGES", 1000)
	if err != nil {
		return nil, err
	}
	syncLockTTL, err := time.ParseDuration(getEnv("SYNC_LOCK_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOCK_TTL: %w", err)
	}
	syncRunTimeout, err := time.ParseDuration(getEnv("SYNC_RUN_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RUN_TIMEOUT: %w", err)
	}

	// Parse scheduler configuration
	schedulerEnabled := getBoolEnv("SCHEDULER_ENABLED", true)
	schedulerTimes := splitList(getEnv("SCHEDULER_TIMES", "05:00,10:00,14:00,20:00"))
	schedulerWorkers, err := getIntEnv("SCHEDULER_WORKERS", 5)
	if err != nil {
		return nil, err
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := getIntEnv("SCHEDULER_QUEUE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	schedulerRunOnStartup := getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false)

	sampleRatio, err := strconv.ParseFloat(getEnv("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLE_RATIO: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: splitList(getEnv("ALLOWED_HOSTS", "")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       dbPort,
			User:       getEnv("DB_USER", "finsync"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "finsync"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "finsync.db"),
		},
		Plaid: PlaidConfig{
			ClientID:     getEnv("PLAID_CLIENT_ID", ""),
			Secret:       getEnv("PLAID_SECRET", ""),
			Environment:  strings.ToLower(getEnv("PLAID_ENV", "sandbox")),
			ClientName:   getEnv("PLAID_CLIENT_NAME", "finsync"),
			CountryCodes: splitList(getEnv("PLAID_COUNTRY_CODES", "US")),
			PageSize:     plaidPageSize,
		},
		Auth0: Auth0Config{
			Domain:   getEnv("AUTH0_DOMAIN", ""),
			Audience: getEnv("AUTH0_AUDIENCE", ""),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Sync: SyncConfig{
			MaxPages:   syncMaxPages,
			LockTTL:    syncLockTTL,
			RunTimeout: syncRunTimeout,
		},
		Scheduler: SchedulerConfig{
			Enabled:       schedulerEnabled,
			ScheduleTimes: schedulerTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  schedulerRunOnStartup,
		},
		TLS: TLSConfig{
			Enabled:      getBoolEnv("TLS_ENABLED", false),
			CertPath:     getEnv("TLS_CERT_PATH", ""),
			KeyPath:      getEnv("TLS_KEY_PATH", ""),
			RedirectHTTP: getBoolEnv("TLS_REDIRECT_HTTP", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "finsync-api"),
			Environment:  getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
			SampleRatio:  sampleRatio,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Plaid.ClientID == "" || c.Plaid.Secret == "" {
		return fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	switch c.Plaid.Environment {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox, development or production, got %q", c.Plaid.Environment)
	}
	if c.Auth0.Domain == "" || c.Auth0.Audience == "" {
		return fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE are required")
	}
	if c.Encryption.Key == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Sync.MaxPages <= 0 {
		return fmt.Errorf("SYNC_MAX_PAGES must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1")
	}

	// Validate TLS configuration
	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return nil
}

// DSN returns the data source name for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return c.ConnectionString()
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
