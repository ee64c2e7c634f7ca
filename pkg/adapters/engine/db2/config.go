package db2

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains Db2-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Security string // "SSL" to enable TLS
}

// DefaultPort returns the default Db2 port.
func DefaultPort() int {
	return 50000
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:     engine.IntValue(config, DefaultPort(), "port"),
		Security: engine.StringValue(config, "security", "ssl_mode"),
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

	return cfg, nil
}
