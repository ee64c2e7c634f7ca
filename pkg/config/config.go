package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for schemalens.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets
// (passwords, keys, tokens) must only come from environment variables.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Metadata store (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Credential vault
	Vault VaultConfig `yaml:"vault"`

	// Reasoning service
	AI AIConfig `yaml:"ai"`

	// Analysis tuning
	Analysis AnalysisConfig `yaml:"analysis"`

	// Encryption key for environment connection config stored at rest.
	// Must be a 32-byte key, base64 encoded. Generate with: openssl rand -base64 32
	ConfigEncryptionKey string `yaml:"-" env:"CONFIG_ENCRYPTION_KEY"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL metadata store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"schemalens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"schemalens"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// VaultConfig holds credential vault settings.
// Address and token default to the standard VAULT_ADDR / VAULT_TOKEN vars.
type VaultConfig struct {
	Address string `yaml:"address" env:"VAULT_ADDR" env-default:""`
	Token   string `yaml:"-" env:"VAULT_TOKEN"` // Secret - not in YAML
	Mount   string `yaml:"mount" env:"VAULT_MOUNT" env-default:"secret"`
}

// AIConfig holds reasoning-service endpoints.
// Provider selects the backing client: "openai" (any OpenAI-compatible
// endpoint) or "anthropic".
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// AnalysisConfig tunes the schema intelligence pipeline.
type AnalysisConfig struct {
	// SampleLimit is the number of rows sampled per table (clamped 10..100).
	SampleLimit int `yaml:"sample_limit" env:"ANALYSIS_SAMPLE_LIMIT" env-default:"50"`
	// MaxConcurrentColumns bounds concurrent per-column reasoning calls.
	MaxConcurrentColumns int `yaml:"max_concurrent_columns" env:"ANALYSIS_MAX_CONCURRENT_COLUMNS" env-default:"8"`
	// ConnectTimeoutSeconds is the default engine connection timeout,
	// overridable per environment config.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"ANALYSIS_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.SampleLimit < 10 {
		c.Analysis.SampleLimit = 10
	}
	if c.Analysis.SampleLimit > 100 {
		c.Analysis.SampleLimit = 100
	}
	if c.Analysis.MaxConcurrentColumns < 1 {
		c.Analysis.MaxConcurrentColumns = 8
	}
	if c.ConfigEncryptionKey == "" {
		return fmt.Errorf("CONFIG_ENCRYPTION_KEY is required")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string for the
// metadata store.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
