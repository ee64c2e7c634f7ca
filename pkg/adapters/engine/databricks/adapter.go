package databricks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/databricks/databricks-sql-go"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "databricks"

var defaultExcludedSchemas = []string{"information_schema"}

// Adapter provides Databricks SQL warehouse connectivity. Unity Catalog
// schemas play the role of database schemas; the catalog exposes no key
// constraints through information_schema on most workspaces, so key fields
// stay unset.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter opens a warehouse connection and verifies connectivity.
// DSN format: databricks://token:<token>@<host>:<port>/<catalog>?http_path=<path>
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	dsn := fmt.Sprintf("databricks://token:%s@%s:%d/%s?http_path=%s",
		cfg.Token, cfg.Host, cfg.Port, cfg.Catalog, cfg.HTTPPath)

	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, engine.NewConnectionError(engineKind, "connect", err)
	}
	return &Adapter{config: cfg, db: db, logger: logger}, nil
}

func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return engine.NewConnectionError(engineKind, "ping", err)
	}
	return nil
}

func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT schema_name FROM %s.information_schema.schemata ORDER BY schema_name",
		quoteIdent(a.config.Catalog))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list schemas", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema name: %w", err)
		}
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}

// ListTables reports a zero row count for every table; information_schema
// carries no row statistics, so counts come from CountRows at analysis time.
func (a *Adapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	query := fmt.Sprintf(`
		SELECT table_schema, table_name
		FROM %s.information_schema.tables
		WHERE table_type = 'MANAGED' OR table_type = 'EXTERNAL'
		ORDER BY table_schema, table_name`, quoteIdent(a.config.Catalog))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list tables", err)
	}
	defer rows.Close()

	var tables []engine.TableMeta
	for rows.Next() {
		var t engine.TableMeta
		if err := rows.Scan(&t.SchemaName, &t.TableName); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		if filter.Allowed(t.SchemaName, defaultExcludedSchemas) {
			tables = append(tables, t)
		}
	}
	return tables, rows.Err()
}

func (a *Adapter) ListColumns(ctx context.Context, schemaName, tableName string) ([]engine.ColumnMeta, error) {
	query := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable, COALESCE(comment, '')
		FROM %s.information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position`,
		quoteIdent(a.config.Catalog), quoteLiteral(schemaName), quoteLiteral(tableName))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list columns", err)
	}
	defer rows.Close()

	var columns []engine.ColumnMeta
	for rows.Next() {
		var col engine.ColumnMeta
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.IsNullable = strings.EqualFold(nullable, "YES")
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (a *Adapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.qualifiedName(schemaName, tableName))
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	return count, nil
}

func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := a.qualifiedName(schemaName, tableName)

	if totalRows > engine.LargeTableThreshold {
		query := fmt.Sprintf("SELECT * FROM %s TABLESAMPLE (%d ROWS)", qualified, limit)
		sampled, err := a.queryRows(ctx, query)
		if err == nil {
			return sampled, nil
		}
		a.logger.Warn("block sampling failed, falling back to limited scan",
			zap.String("table", tableName), zap.Error(err))
		return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, limit))
	}

	return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rand() LIMIT %d", qualified, limit))
}

func (a *Adapter) queryRows(ctx context.Context, query string) ([]engine.Row, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "sample rows", err)
	}
	defer rows.Close()
	return engine.ScanRows(rows)
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) qualifiedName(schemaName, tableName string) string {
	return quoteIdent(a.config.Catalog) + "." + quoteIdent(schemaName) + "." + quoteIdent(tableName)
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
