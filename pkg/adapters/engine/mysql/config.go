package mysql

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains MySQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	TLS      string // go-sql-driver tls mode: "true", "false", "skip-verify", "preferred"
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port: engine.IntValue(config, DefaultPort(), "port"),
		TLS:  "preferred",
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

	if tls := engine.StringValue(config, "tls", "ssl"); tls != "" {
		cfg.TLS = tls
	}

	return cfg, nil
}
