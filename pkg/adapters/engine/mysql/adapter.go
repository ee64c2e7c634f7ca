package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "mysql"

var defaultExcludedSchemas = []string{"mysql", "information_schema", "performance_schema", "sys"}

// Adapter provides MySQL connectivity over database/sql.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter opens a connection and verifies connectivity.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?tls=%s&parseTime=true",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.TLS)

	db, err := sql.Open("mysql", dsn)
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
	rows, err := a.db.QueryContext(ctx, `SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA ORDER BY SCHEMA_NAME`)
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

func (a *Adapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, COALESCE(TABLE_ROWS, 0)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list tables", err)
	}
	defer rows.Close()

	var tables []engine.TableMeta
	for rows.Next() {
		var t engine.TableMeta
		if err := rows.Scan(&t.SchemaName, &t.TableName, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		if filter.Allowed(t.SchemaName, defaultExcludedSchemas) {
			tables = append(tables, t)
		}
	}
	return tables, rows.Err()
}

func (a *Adapter) ListColumns(ctx context.Context, schemaName, tableName string) ([]engine.ColumnMeta, error) {
	query := `
		SELECT c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE = 'YES', c.COLUMN_KEY = 'PRI',
			COALESCE(k.REFERENCED_TABLE_NAME, ''), COALESCE(k.REFERENCED_COLUMN_NAME, ''),
			COALESCE(c.COLUMN_COMMENT, '')
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
			ON k.TABLE_SCHEMA = c.TABLE_SCHEMA AND k.TABLE_NAME = c.TABLE_NAME
			AND k.COLUMN_NAME = c.COLUMN_NAME AND k.REFERENCED_TABLE_NAME IS NOT NULL
		WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
		ORDER BY c.ORDINAL_POSITION`

	rows, err := a.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list columns", err)
	}
	defer rows.Close()

	var columns []engine.ColumnMeta
	for rows.Next() {
		var col engine.ColumnMeta
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.IsPrimaryKey,
			&col.ReferencedTable, &col.ReferencedColumn, &col.Comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.IsForeignKey = col.ReferencedTable != ""
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (a *Adapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualifiedName(schemaName, tableName))
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	return count, nil
}

// SampleRows uses ORDER BY RAND() for small tables. MySQL has no block
// sampling clause, so large tables fall back to a plain limited scan rather
// than paying a full-table sort.
func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := qualifiedName(schemaName, tableName)

	var query string
	if totalRows > engine.LargeTableThreshold {
		query = fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, limit)
	} else {
		query = fmt.Sprintf("SELECT * FROM %s ORDER BY RAND() LIMIT %d", qualified, limit)
	}

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

func qualifiedName(schemaName, tableName string) string {
	return quoteIdent(schemaName) + "." + quoteIdent(tableName)
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
