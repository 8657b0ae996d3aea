package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"lotto/application"
	"lotto/database"
	"lotto/domain/services"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Redis configuration, used for draw locks and the settings cache
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// NATS configuration
	NATSServers    string        `env:"NATS_SERVERS"` // comma-separated, empty disables event publishing
	NATSMaxDeliver int           `env:"NATS_MAX_DELIVER" envDefault:"5"`
	NATSAckWait    time.Duration `env:"NATS_ACK_WAIT" envDefault:"60s"`

	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Engine
	Timezone             string          `env:"TIMEZONE" envDefault:"Asia/Bangkok"`
	StoreTimeout         time.Duration   `env:"STORE_TIMEOUT" envDefault:"5s"`
	GamesEnabled         bool            `env:"GAMES_ENABLED" envDefault:"true"`
	ReferralBonusPercent decimal.Decimal `env:"REFERRAL_BONUS_PERCENT" envDefault:"5"`
	SystemAccountID      int64           `env:"SYSTEM_ACCOUNT_ID" envDefault:"0"`
	TicketRetryMax       int             `env:"TICKET_RETRY_MAX" envDefault:"3"`

	// Settlement
	SettlementTimeout             time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"2m"`
	SettlementLockTTL             time.Duration `env:"SETTLEMENT_LOCK_TTL" envDefault:"2m"`
	SettlementRecoveryConcurrency int           `env:"SETTLEMENT_RECOVERY_CONCURRENCY" envDefault:"4"`
	SettlementGrace               time.Duration `env:"SETTLEMENT_GRACE" envDefault:"5m"`
	RecoveryInterval              time.Duration `env:"SETTLEMENT_RECOVERY_INTERVAL" envDefault:"1m"`
	RecoveryBatchSize             int           `env:"SETTLEMENT_RECOVERY_BATCH_SIZE" envDefault:"50"`
	SettingsCacheTTL              time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"30s"`

	// OpenTelemetry
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"console"` // "console", "otlp" or "none"
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"lotto"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MILLIS" envDefault:"60000"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads an optional .env file, then parses the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.ReferralBonusPercent.IsNegative() || c.ReferralBonusPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("REFERRAL_BONUS_PERCENT must be between 0 and 100")
	}
	if c.TicketRetryMax < 0 {
		return fmt.Errorf("TICKET_RETRY_MAX cannot be negative")
	}
	if c.NATSMaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	if c.SettlementTimeout < c.StoreTimeout {
		return fmt.Errorf("SETTLEMENT_TIMEOUT cannot be shorter than STORE_TIMEOUT")
	}
	if c.SettlementRecoveryConcurrency < 1 {
		return fmt.Errorf("SETTLEMENT_RECOVERY_CONCURRENCY must be at least 1")
	}
	return nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Location returns the engine timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EngineOptions returns the process-wide settings handed to the domain services
func (c *Config) EngineOptions() services.EngineOptions {
	return services.EngineOptions{
		GamesEnabled:         c.GamesEnabled,
		ReferralBonusPercent: c.ReferralBonusPercent,
		SystemAccountID:      c.SystemAccountID,
		Location:             c.Location(),
	}
}

// HandlerOptions returns the options shared by the application handlers
func (c *Config) HandlerOptions() application.HandlerOptions {
	return application.HandlerOptions{
		Engine:             c.EngineOptions(),
		StoreTimeout:       c.StoreTimeout,
		SettlementTimeout:  c.SettlementTimeout,
		TicketRetryMax:     c.TicketRetryMax,
		SettlementLockTTL:  c.SettlementLockTTL,
		SettlementGrace:    c.SettlementGrace,
		RecoveryInterval:   c.RecoveryInterval,
		RecoveryBatchSize:  c.RecoveryBatchSize,
		RecoveryConcurrent: c.SettlementRecoveryConcurrency,
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:                   "test",
		LogLevel:                      "debug",
		HTTPAddr:                      ":0",
		Timezone:                      "UTC",
		StoreTimeout:                  5 * time.Second,
		GamesEnabled:                  true,
		ReferralBonusPercent:          decimal.NewFromInt(5),
		TicketRetryMax:                3,
		SettlementTimeout:             time.Minute,
		SettlementLockTTL:             time.Minute,
		SettlementRecoveryConcurrency: 1,
		SettlementGrace:               time.Minute,
		RecoveryInterval:              time.Minute,
		RecoveryBatchSize:             10,
		SettingsCacheTTL:              time.Second,
		NATSMaxDeliver:                1,
		OTelExporterType:              "none",
		OTelServiceName:               "lotto-test",
	}
}
