package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "mssql"

var defaultExcludedSchemas = []string{
	"sys", "INFORMATION_SCHEMA", "guest",
	"db_accessadmin", "db_backupoperator", "db_datareader", "db_datawriter",
	"db_ddladmin", "db_denydatareader", "db_denydatawriter", "db_owner", "db_securityadmin",
}

// Adapter provides SQL Server connectivity over database/sql.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter opens a connection and verifies connectivity.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	q := url.Values{}
	q.Set("database", cfg.Database)
	q.Set("encrypt", cfg.Encrypt)
	u.RawQuery = q.Encode()

	db, err := sql.Open("sqlserver", u.String())
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
	rows, err := a.db.QueryContext(ctx, `SELECT name FROM sys.schemas ORDER BY name`)
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
		SELECT s.name, t.name, COALESCE(SUM(p.rows), 0)
		FROM sys.tables t
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		LEFT JOIN sys.partitions p ON p.object_id = t.object_id AND p.index_id IN (0, 1)
		GROUP BY s.name, t.name
		ORDER BY s.name, t.name`

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
		SELECT c.COLUMN_NAME, c.DATA_TYPE,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
			CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END,
			COALESCE(fk.ref_table, ''), COALESCE(fk.ref_column, '')
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT kcu.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
				ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
				AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
		) pk ON pk.COLUMN_NAME = c.COLUMN_NAME
		LEFT JOIN (
			SELECT kcu.COLUMN_NAME, kcu2.TABLE_NAME AS ref_table, kcu2.COLUMN_NAME AS ref_column
			FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
				ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu2
				ON kcu2.CONSTRAINT_NAME = rc.UNIQUE_CONSTRAINT_NAME
				AND kcu2.ORDINAL_POSITION = kcu.ORDINAL_POSITION
			WHERE kcu.TABLE_SCHEMA = @p1 AND kcu.TABLE_NAME = @p2
		) fk ON fk.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
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
			&col.ReferencedTable, &col.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.IsForeignKey = col.ReferencedTable != ""
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (a *Adapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", qualifiedName(schemaName, tableName))
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	return count, nil
}

func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := qualifiedName(schemaName, tableName)

	if totalRows > engine.LargeTableThreshold {
		// TABLESAMPLE returns approximately the requested rows; TOP trims.
		query := fmt.Sprintf("SELECT TOP %d * FROM %s TABLESAMPLE (%d ROWS)", limit, qualified, limit*2)
		sampled, err := a.queryRows(ctx, query)
		if err == nil {
			return sampled, nil
		}
		a.logger.Warn("block sampling failed, falling back to limited scan",
			zap.String("table", tableName), zap.Error(err))
		return a.queryRows(ctx, fmt.Sprintf("SELECT TOP %d * FROM %s", limit, qualified))
	}

	return a.queryRows(ctx, fmt.Sprintf("SELECT TOP %d * FROM %s ORDER BY NEWID()", limit, qualified))
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

func qualifiedName(schemaName, tableName string) string {
	return quoteIdent(schemaName) + "." + quoteIdent(tableName)
}

func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
