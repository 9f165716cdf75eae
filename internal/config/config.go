package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Store
	StoreBackend       string `envconfig:"STORE_BACKEND" default:"memory"`
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	RedisAddr          string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	StoreMaxValueBytes int    `envconfig:"STORE_MAX_VALUE_BYTES" default:"5242880"`

	// Analyzer
	AnalyzerProvider string        `envconfig:"ANALYZER_PROVIDER" default:"mock"`
	GenAIURL         string        `envconfig:"GENAI_URL"`
	GenAIAPIKey      string        `envconfig:"GENAI_API_KEY"`
	GenAIModel       string        `envconfig:"GENAI_MODEL"`
	GenAITimeout     time.Duration `envconfig:"GENAI_TIMEOUT" default:"60s"`
	AWSRegion        string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// Rate limiting
	CooldownSeconds int `envconfig:"COOLDOWN_SECONDS" default:"15"`

	// Emergency defaults
	MaintenanceMode     bool   `envconfig:"MAINTENANCE_MODE" default:"false"`
	MaxRequestsPerHour  int    `envconfig:"MAX_REQUESTS_PER_HOUR" default:"10"`
	RequestDelaySeconds int    `envconfig:"REQUEST_DELAY_SECONDS" default:"0"`
	EmergencyConfigURL  string `envconfig:"EMERGENCY_CONFIG_URL"`

	// HTTP limiter, per client
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"1000"`

	// Security
	AdminJWTSecret string        `envconfig:"ADMIN_JWT_SECRET" required:"true"`
	AdminJWTIssuer string        `envconfig:"ADMIN_JWT_ISSUER" default:"onlyfachas"`
	AdminTokenTTL  time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.AnalyzerProvider == "genai" && c.GenAIAPIKey == "" {
		return errors.New("GENAI_API_KEY is required when ANALYZER_PROVIDER=genai")
	}
	if c.CooldownSeconds < 0 {
		return errors.New("COOLDOWN_SECONDS must be >= 0")
	}
	return c.EmergencyDefaults().Validate()
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// EmergencyDefaults is the emergency config used until an operator writes one
func (c *Config) EmergencyDefaults() domain.EmergencyConfig {
	return domain.EmergencyConfig{
		MaintenanceMode:     c.MaintenanceMode,
		MaxRequestsPerHour:  c.MaxRequestsPerHour,
		RequestDelaySeconds: c.RequestDelaySeconds,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
