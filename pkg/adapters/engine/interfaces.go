// Package engine defines the uniform adapter contract over the supported
// database engines: connection testing, schema listing, column
// introspection, and bounded row sampling. One subpackage per engine
// registers itself into the registry; selection happens once at the
// connection-resolver boundary.
package engine

import "context"

// LargeTableThreshold is the row count above which adapters switch from an
// order-by-random scan to an engine-native block sampling method.
const LargeTableThreshold = 10000

// Row is a sampled row with values already coerced to strings.
// NULL values are absent from the map.
type Row map[string]string

// TableMeta describes a discovered table.
type TableMeta struct {
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
	RowCount   int64  `json:"row_count"`
}

// ColumnMeta is the normalized column shape produced by every engine,
// independent of its metadata catalog layout. Foreign-key fields are
// best-effort: populated where the engine exposes constraint metadata.
type ColumnMeta struct {
	Name             string `json:"name"`
	DataType         string `json:"data_type"`
	IsNullable       bool   `json:"is_nullable"`
	IsPrimaryKey     bool   `json:"is_primary_key"`
	IsForeignKey     bool   `json:"is_foreign_key"`
	ReferencedTable  string `json:"referenced_table,omitempty"`
	ReferencedColumn string `json:"referenced_column,omitempty"`
	Comment          string `json:"comment,omitempty"`
}

// Adapter is the per-engine capability set. Each implementation owns its
// connection and must be closed when done; connections are opened per
// operation set and closed on both success and error paths by the caller.
type Adapter interface {
	// TestConnection verifies the engine is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// ListSchemas returns all schema (namespace) names visible to the
	// connected user, including system schemas. Callers apply filtering.
	ListSchemas(ctx context.Context) ([]string, error)

	// ListTables returns tables passing the schema filter.
	ListTables(ctx context.Context, filter SchemaFilter) ([]TableMeta, error)

	// ListColumns returns normalized column metadata for one table.
	ListColumns(ctx context.Context, schemaName, tableName string) ([]ColumnMeta, error)

	// CountRows returns the exact row count of one table.
	CountRows(ctx context.Context, schemaName, tableName string) (int64, error)

	// SampleRows returns up to limit randomly sampled rows. totalRows
	// selects the sampling strategy: above LargeTableThreshold the engine's
	// block sampling method is used, falling back to a plain limited scan
	// if that method is unsupported or errors.
	SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]Row, error)

	// Close releases the engine connection.
	Close() error
}
