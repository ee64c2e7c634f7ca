package postgres

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    engine.IntValue(config, DefaultPort(), "port"),
		SSLMode: DefaultSSLMode(),
	}

	cfg.Host = engine.StringValue(config, "host")
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	cfg.Username = engine.StringValue(config, "username", "user")
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	cfg.Password = engine.StringValue(config, "password")

	cfg.Database = engine.StringValue(config, "database", "name")
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	if sslMode := engine.StringValue(config, "ssl_mode", "sslmode"); sslMode != "" {
		cfg.SSLMode = sslMode
	}

	return cfg, nil
}
