package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read when no explicit path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-tracker.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys, the unlock PIN) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// CookieDomain is the domain for the unlock cookie (optional).
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Auth     AuthConfig     `yaml:"auth"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_tracker"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional dashboard cache connection.
// An empty host disables caching.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"5m"`
}

// OracleConfig selects and configures the generative search provider.
type OracleConfig struct {
	// Provider is "anthropic" (web search tool) or "openai" (search-capable chat model).
	Provider  string `yaml:"provider" env:"ORACLE_PROVIDER" env-default:"anthropic"`
	Model     string `yaml:"model" env:"ORACLE_MODEL" env-default:"claude-sonnet-4-20250514"`
	MaxTokens int    `yaml:"max_tokens" env:"ORACLE_MAX_TOKENS" env-default:"4000"`
	BaseURL   string `yaml:"base_url" env:"ORACLE_BASE_URL" env-default:""`

	// BreakerThreshold consecutive failed calls open the circuit for BreakerReset. 0 disables it.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"ORACLE_BREAKER_THRESHOLD" env-default:"3"`
	BreakerReset     time.Duration `yaml:"breaker_reset" env:"ORACLE_BREAKER_RESET" env-default:"5m"`

	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
}

// APIKey returns the secret matching the configured provider.
func (c *OracleConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// RefreshConfig controls the AI refresh trigger.
type RefreshConfig struct {
	// Enabled is the feature flag for POST /api/ai-update.
	Enabled bool `yaml:"enabled" env:"ENABLE_AI_UPDATE" env-default:"false"`

	// LookbackDays is the news window named in the prompt.
	LookbackDays int `yaml:"lookback_days" env:"REFRESH_LOOKBACK_DAYS" env-default:"30"`

	// Timeout bounds the oracle call. Zero leaves it to the transport.
	Timeout time.Duration `yaml:"timeout" env:"REFRESH_TIMEOUT" env-default:"0s"`

	// CatalogPath overrides the embedded canonical vendor catalog.
	CatalogPath string `yaml:"catalog_path" env:"VENDOR_CATALOG_PATH" env-default:""`
}

// AuthConfig holds PIN gating configuration.
type AuthConfig struct {
	// PIN unlocks mutating endpoints. Empty disables gating.
	PIN string `yaml:"-" env:"TRACKER_PIN"`

	// SessionSecret signs the unlock cookie and token. Required when PIN is set.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"`

	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"12h"`
}

// GatingEnabled returns true if a PIN is configured.
func (c *AuthConfig) GatingEnabled() bool {
	return c.PIN != ""
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Load reads configuration from the YAML file at path with environment variable overrides.
// A missing file is not an error: configuration then comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Oracle.Provider) {
	case "anthropic", "openai":
		c.Oracle.Provider = strings.ToLower(c.Oracle.Provider)
	default:
		return fmt.Errorf("oracle.provider must be anthropic or openai, got %q", c.Oracle.Provider)
	}

	if c.Oracle.MaxTokens <= 0 {
		return fmt.Errorf("oracle.max_tokens must be positive")
	}
	if c.Refresh.LookbackDays <= 0 {
		return fmt.Errorf("refresh.lookback_days must be positive")
	}
	if c.Auth.GatingEnabled() && c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when TRACKER_PIN is set")
	}

	return nil
}

// IsLocal reports whether the service runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the host:port of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
