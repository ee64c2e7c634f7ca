package bigquery

import (
	"fmt"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

// Config contains BigQuery-specific connection options. CredentialsJSON is
// a service account key; when empty, application default credentials apply.
type Config struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		ProjectID:       engine.StringValue(config, "project_id", "project"),
		CredentialsJSON: engine.StringValue(config, "credentials_json", "credentials"),
		Location:        engine.StringValue(config, "location"),
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	return cfg, nil
}
