package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for clausewise-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (passwords, API
// keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3650"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration for the event bridge. Optional: when unset the
	// engine falls back to the in-memory bridge (single-process mode).
	Redis RedisConfig `yaml:"redis"`

	// Review configuration
	Review ReviewConfig `yaml:"review"`

	// Extraction collaborator configuration
	Extraction ExtractionConfig `yaml:"extraction"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"clausewise"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"clausewise_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// ReviewConfig holds clause review behavior settings.
type ReviewConfig struct {
	// DefaultMode is the strictness applied when a trigger event does not
	// request one. Must be a valid review mode.
	DefaultMode string `yaml:"default_mode" env:"REVIEW_DEFAULT_MODE" env-default:"standard"`

	// SeedFile is an optional YAML file of review rules loaded on startup
	// when the catalog is empty.
	SeedFile string `yaml:"seed_file" env:"REVIEW_SEED_FILE" env-default:""`
}

// ExtractionConfig holds configuration for the clause extraction collaborator.
type ExtractionConfig struct {
	// Provider selects the extraction backend: "anthropic" or "openai".
	Provider string `yaml:"provider" env:"EXTRACTION_PROVIDER" env-default:"anthropic"`
	Model    string `yaml:"model" env:"EXTRACTION_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"EXTRACTION_API_KEY"` // Secret - not in YAML
	// DocumentBaseURL is the base URL of the document service attachments
	// are fetched from.
	DocumentBaseURL string `yaml:"document_base_url" env:"EXTRACTION_DOCUMENT_BASE_URL" env-default:"http://localhost:3651"`
	// Workers is the number of concurrent run workers in the consumer.
	Workers int `yaml:"workers" env:"EXTRACTION_WORKERS" env-default:"2"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Review.DefaultMode {
	case "relaxed", "standard", "strict":
	default:
		return fmt.Errorf("unknown review default_mode %q", c.Review.DefaultMode)
	}
	switch c.Extraction.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown extraction provider %q", c.Extraction.Provider)
	}
	if c.Extraction.Workers <= 0 {
		return fmt.Errorf("extraction workers must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
