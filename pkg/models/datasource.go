package models

import (
	"time"

	"github.com/google/uuid"
)

// EngineKind identifies a supported database engine.
type EngineKind string

const (
	EnginePostgres   EngineKind = "postgres"
	EngineMySQL      EngineKind = "mysql"
	EngineMSSQL      EngineKind = "mssql"
	EngineBigQuery   EngineKind = "bigquery"
	EngineDatabricks EngineKind = "databricks"
	EngineDB2        EngineKind = "db2"
)

// EngineKinds lists every supported engine.
var EngineKinds = []EngineKind{
	EnginePostgres, EngineMySQL, EngineMSSQL,
	EngineBigQuery, EngineDatabricks, EngineDB2,
}

// Valid reports whether k names a supported engine.
func (k EngineKind) Valid() bool {
	for _, kind := range EngineKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DataSource is a registered connection target. Connection parameters and
// credentials live on its Environments, not here.
type DataSource struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	EngineKind EngineKind `json:"engine_kind"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// HealthStatus describes the last known connectivity of an environment.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "HEALTHY"
	HealthUnhealthy HealthStatus = "UNHEALTHY"
	HealthUnknown   HealthStatus = "UNKNOWN"
)

// Environment is a named connection profile under a DataSource
// (e.g. "production"). Config holds engine-specific connection parameters
// (host, port, database, project, ...) and is encrypted at rest by the
// service layer. CredentialsKey references secrets in the external vault.
type Environment struct {
	ID             uuid.UUID      `json:"id"`
	DataSourceID   uuid.UUID      `json:"datasource_id"`
	Name           string         `json:"name"`
	Config         map[string]any `json:"config"`
	CredentialsKey string         `json:"credentials_key"`
	HealthStatus   HealthStatus   `json:"health_status"`
	LastCheckedAt  *time.Time     `json:"last_checked_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
