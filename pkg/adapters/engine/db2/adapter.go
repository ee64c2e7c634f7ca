package db2

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ibmdb/go_ibm_db"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "db2"

var defaultExcludedSchemas = []string{
	"SYSIBM", "SYSCAT", "SYSSTAT", "SYSTOOLS", "SYSIBMADM",
	"SYSPUBLIC", "SYSFUN", "SYSPROC", "NULLID",
}

// Adapter provides IBM Db2 connectivity over database/sql.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter opens a connection and verifies connectivity.
// Connection string format: HOSTNAME=host;DATABASE=db;PORT=port;UID=user;PWD=pass;
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	var connString strings.Builder
	fmt.Fprintf(&connString, "HOSTNAME=%s;DATABASE=%s;PORT=%d;UID=%s;PWD=%s;",
		cfg.Host, cfg.Database, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Security != "" {
		fmt.Fprintf(&connString, "Security=%s;", cfg.Security)
	}

	db, err := sql.Open("go_ibm_db", connString.String())
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
	rows, err := a.db.QueryContext(ctx, `SELECT TRIM(SCHEMANAME) FROM SYSCAT.SCHEMATA ORDER BY SCHEMANAME`)
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

// ListTables reports the CARD statistic as the row count; -1 means never
// analyzed, which maps to zero here. Exact counts come from CountRows.
func (a *Adapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	query := `
		SELECT TRIM(TABSCHEMA), TRIM(TABNAME), CASE WHEN CARD < 0 THEN 0 ELSE CARD END
		FROM SYSCAT.TABLES
		WHERE TYPE = 'T'
		ORDER BY TABSCHEMA, TABNAME`

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
		SELECT TRIM(c.COLNAME), TRIM(c.TYPENAME),
			CASE WHEN c.NULLS = 'Y' THEN 1 ELSE 0 END,
			CASE WHEN c.KEYSEQ IS NOT NULL AND c.KEYSEQ > 0 THEN 1 ELSE 0 END,
			COALESCE(TRIM(fk.REFTABNAME), ''), COALESCE(TRIM(fk.REFCOLNAME), ''),
			COALESCE(c.REMARKS, '')
		FROM SYSCAT.COLUMNS c
		LEFT JOIN (
			SELECT TRIM(k.COLNAME) AS COLNAME, r.REFTABNAME,
				TRIM(fkc.COLNAME) AS REFCOLNAME
			FROM SYSCAT.REFERENCES r
			JOIN SYSCAT.KEYCOLUSE k
				ON k.CONSTNAME = r.CONSTNAME AND k.TABSCHEMA = r.TABSCHEMA AND k.TABNAME = r.TABNAME
			JOIN SYSCAT.KEYCOLUSE fkc
				ON fkc.CONSTNAME = r.REFKEYNAME AND fkc.TABSCHEMA = r.REFTABSCHEMA
				AND fkc.TABNAME = r.REFTABNAME AND fkc.COLSEQ = k.COLSEQ
			WHERE r.TABSCHEMA = ? AND r.TABNAME = ?
		) fk ON fk.COLNAME = TRIM(c.COLNAME)
		WHERE c.TABSCHEMA = ? AND c.TABNAME = ?
		ORDER BY c.COLNO`

	rows, err := a.db.QueryContext(ctx, query, schemaName, tableName, schemaName, tableName)
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

func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := qualifiedName(schemaName, tableName)

	if totalRows > engine.LargeTableThreshold {
		pct := float64(limit) / float64(totalRows) * 100 * 2
		if pct > 100 {
			pct = 100
		}
		if pct < 0.0001 {
			pct = 0.0001
		}
		query := fmt.Sprintf("SELECT * FROM %s TABLESAMPLE BERNOULLI(%f) FETCH FIRST %d ROWS ONLY",
			qualified, pct, limit)
		sampled, err := a.queryRows(ctx, query)
		if err == nil {
			return sampled, nil
		}
		a.logger.Warn("block sampling failed, falling back to limited scan",
			zap.String("table", tableName), zap.Error(err))
		return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s FETCH FIRST %d ROWS ONLY", qualified, limit))
	}

	return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY RAND() FETCH FIRST %d ROWS ONLY", qualified, limit))
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
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
