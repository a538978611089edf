// Package config provides configuration management for the GreenWipe service.
// It handles loading configuration from YAML files, applying environment variable
// and command line overrides, and validating configuration values for server,
// database, JWT, anchoring, AI suggestion, logging, and security settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Anchoring  AnchoringConfig  `yaml:"anchoring"`
	Suggestion SuggestionConfig `yaml:"suggestion"`
	Logging    LoggingConfig    `yaml:"logging"`
	Security   SecurityConfig   `yaml:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled"`
	TLSCert      string        `yaml:"tls_cert"`
	TLSKey       string        `yaml:"tls_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
// URL, when set, takes precedence over the individual connection fields.
type PostgresConfig struct {
	URL          string `yaml:"url"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Expiration time.Duration `yaml:"expiration"`
	Issuer     string        `yaml:"issuer"`
}

// AnchoringConfig controls the simulated ledger anchoring step
type AnchoringConfig struct {
	Delay      time.Duration `yaml:"delay"`
	Timeout    time.Duration `yaml:"timeout"`
	Workers    int           `yaml:"workers"`
	QueueSize  int           `yaml:"queue_size"`
	AutoAnchor bool          `yaml:"auto_anchor"`
}

// SuggestionConfig holds the LLM provider settings used for wipe suggestions
type SuggestionConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Endpoint         string        `yaml:"endpoint"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	Timeout          time.Duration `yaml:"timeout"`
	AssistedCreation bool          `yaml:"assisted_creation"`
	BreakerFailures  uint32        `yaml:"breaker_failures"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSEnabled       bool          `yaml:"cors_enabled"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	RateLimitEnabled  bool          `yaml:"rate_limit_enabled"`
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "./data/greenwipe.db",
			},
			Postgres: PostgresConfig{
				Port:         5432,
				SSLMode:      "require",
				MaxOpenConns: 25,
				MaxIdleConns: 5,
			},
		},
		JWT: JWTConfig{
			Expiration: 24 * time.Hour,
			Issuer:     "greenwipe",
		},
		Anchoring: AnchoringConfig{
			Delay:      5 * time.Second,
			Timeout:    30 * time.Second,
			Workers:    2,
			QueueSize:  100,
			AutoAnchor: true,
		},
		Suggestion: SuggestionConfig{
			Endpoint:        "https://api.openai.com/v1/chat/completions",
			Model:           "gpt-4o-mini",
			Timeout:         20 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			CORSEnabled:       true,
			CORSOrigins:       []string{"http://localhost:3000"},
			RateLimitEnabled:  true,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it exists),
// GREENWIPE_* environment variables and finally command line flags.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if flags != nil {
		if err := cfg.applyFlags(flags); err != nil {
			return nil, fmt.Errorf("invalid command line flag: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvOverrides() {
	// Server overrides
	if port := os.Getenv("GREENWIPE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("GREENWIPE_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// Database overrides
	if dbType := os.Getenv("GREENWIPE_DB_TYPE"); dbType != "" {
		c.Database.Type = dbType
	}
	if dbPath := os.Getenv("GREENWIPE_DB_SQLITE_PATH"); dbPath != "" {
		c.Database.SQLite.Path = dbPath
	}
	if dbURL := os.Getenv("GREENWIPE_DATABASE_URL"); dbURL != "" {
		c.Database.Type = "postgres"
		c.Database.Postgres.URL = dbURL
	}
	if pgHost := os.Getenv("GREENWIPE_DB_POSTGRES_HOST"); pgHost != "" {
		c.Database.Postgres.Host = pgHost
	}
	if pgPort := os.Getenv("GREENWIPE_DB_POSTGRES_PORT"); pgPort != "" {
		if p, err := strconv.Atoi(pgPort); err == nil {
			c.Database.Postgres.Port = p
		}
	}
	if pgDB := os.Getenv("GREENWIPE_DB_POSTGRES_DATABASE"); pgDB != "" {
		c.Database.Postgres.Database = pgDB
	}
	if pgUser := os.Getenv("GREENWIPE_DB_POSTGRES_USER"); pgUser != "" {
		c.Database.Postgres.User = pgUser
	}
	if pgPass := os.Getenv("GREENWIPE_DB_POSTGRES_PASSWORD"); pgPass != "" {
		c.Database.Postgres.Password = pgPass
	}

	// JWT overrides
	if jwtSecret := os.Getenv("GREENWIPE_JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	// Anchoring overrides
	if delay := os.Getenv("GREENWIPE_ANCHOR_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			c.Anchoring.Delay = d
		}
	}

	// Suggestion overrides
	if apiKey := os.Getenv("GREENWIPE_LLM_API_KEY"); apiKey != "" {
		c.Suggestion.APIKey = apiKey
	}
	if endpoint := os.Getenv("GREENWIPE_LLM_ENDPOINT"); endpoint != "" {
		c.Suggestion.Endpoint = endpoint
	}
	if model := os.Getenv("GREENWIPE_LLM_MODEL"); model != "" {
		c.Suggestion.Model = model
	}

	// Logging overrides
	if logLevel := os.Getenv("GREENWIPE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.TLSEnabled {
		if c.Server.TLSCert == "" || c.Server.TLSKey == "" {
			return fmt.Errorf("TLS enabled but cert or key not specified")
		}
	}

	// Validate database config
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("invalid database type: %s (must be 'sqlite' or 'postgres')", c.Database.Type)
	}
	if c.Database.Type == "sqlite" && c.Database.SQLite.Path == "" {
		return fmt.Errorf("SQLite path not specified")
	}
	if c.Database.Type == "postgres" && c.Database.Postgres.URL == "" {
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL host and database must be specified")
		}
	}

	// Validate anchoring config
	if c.Anchoring.Delay < 0 {
		return fmt.Errorf("anchoring delay must not be negative")
	}
	if c.Anchoring.Timeout <= 0 {
		return fmt.Errorf("anchoring timeout must be positive")
	}
	if c.Anchoring.Timeout <= c.Anchoring.Delay {
		return fmt.Errorf("anchoring timeout (%s) must exceed the anchoring delay (%s)", c.Anchoring.Timeout, c.Anchoring.Delay)
	}
	if c.Anchoring.Workers < 1 {
		return fmt.Errorf("anchoring workers must be at least 1")
	}
	if c.Anchoring.QueueSize < 1 {
		return fmt.Errorf("anchoring queue size must be at least 1")
	}

	// Validate suggestion config
	if c.Suggestion.Enabled {
		if c.Suggestion.Endpoint == "" || c.Suggestion.Model == "" {
			return fmt.Errorf("suggestion endpoint and model must be specified when suggestions are enabled")
		}
		if c.Suggestion.Timeout <= 0 {
			return fmt.Errorf("suggestion timeout must be positive")
		}
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate rate limiting
	if c.Security.RateLimitEnabled {
		if c.Security.RateLimitRequests < 1 || c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit requires positive requests and window")
		}
	}

	return nil
}

// GetDSN returns the database connection string based on the configured type
func (c *Config) GetDSN() string {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.SQLite.Path
	case "postgres":
		if c.Database.Postgres.URL != "" {
			return c.Database.Postgres.URL
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Postgres.Host,
			c.Database.Postgres.Port,
			c.Database.Postgres.User,
			c.Database.Postgres.Password,
			c.Database.Postgres.Database,
			c.Database.Postgres.SSLMode,
		)
	default:
		return ""
	}
}
