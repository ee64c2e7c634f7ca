package mssql

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Encrypt  string // "true", "false", "disable"
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    engine.IntValue(config, DefaultPort(), "port"),
		Encrypt: "true",
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

	if encrypt := engine.StringValue(config, "encrypt", "ssl"); encrypt != "" {
		cfg.Encrypt = encrypt
	}

	return cfg, nil
}
