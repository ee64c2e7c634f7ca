package databricks

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains Databricks SQL warehouse connection options. Catalog is
// the Unity Catalog name whose schemas are introspected.
type Config struct {
	Host     string
	Port     int
	Token    string
	Catalog  string
	HTTPPath string
}

// DefaultPort returns the default Databricks SQL warehouse port.
func DefaultPort() int {
	return 443
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Host:     engine.StringValue(config, "host"),
		Port:     engine.IntValue(config, DefaultPort(), "port"),
		Token:    engine.StringValue(config, "token", "password"),
		Catalog:  engine.StringValue(config, "catalog", "database", "name"),
		HTTPPath: engine.StringValue(config, "http_path"),
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if cfg.Catalog == "" {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.HTTPPath == "" {
		return nil, fmt.Errorf("http_path is required")
	}
	return cfg, nil
}
