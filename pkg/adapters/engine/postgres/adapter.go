package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "postgres"

// Schemas hidden unless explicitly included.
var defaultExcludedSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}

// Adapter provides PostgreSQL connectivity over pgx.
type Adapter struct {
	config *Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter opens a connection pool and verifies connectivity.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, cfg.dsn())
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "configure pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, engine.NewConnectionError(engineKind, "connect", err)
	}
	return &Adapter{config: cfg, pool: pool, logger: logger}, nil
}

func (c *Config) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return engine.NewConnectionError(engineKind, "ping", err)
	}
	return nil
}

func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := a.pool.Query(ctx, `SELECT nspname FROM pg_namespace ORDER BY nspname`)
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

// ListTables returns base and partitioned tables with planner row estimates;
// exact counts come from CountRows when a table is analyzed.
func (a *Adapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	query := `
		SELECT n.nspname, c.relname, GREATEST(c.reltuples::bigint, 0)
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p')
		ORDER BY n.nspname, c.relname`

	rows, err := a.pool.Query(ctx, query)
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
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := a.pool.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "list columns", err)
	}
	defer rows.Close()

	var columns []engine.ColumnMeta
	for rows.Next() {
		var col engine.ColumnMeta
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	primaryKeys, err := a.primaryKeyColumns(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	foreignKeys, err := a.foreignKeyColumns(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	comments, err := a.columnComments(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}

	for i := range columns {
		if primaryKeys[columns[i].Name] {
			columns[i].IsPrimaryKey = true
		}
		if ref, ok := foreignKeys[columns[i].Name]; ok {
			columns[i].IsForeignKey = true
			columns[i].ReferencedTable = ref.table
			columns[i].ReferencedColumn = ref.column
		}
		columns[i].Comment = comments[columns[i].Name]
	}
	return columns, nil
}

func (a *Adapter) primaryKeyColumns(ctx context.Context, schemaName, tableName string) (map[string]bool, error) {
	query := `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary`

	qualified := pgx.Identifier{schemaName, tableName}.Sanitize()
	rows, err := a.pool.Query(ctx, query, qualified)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "read primary keys", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key column: %w", err)
		}
		keys[name] = true
	}
	return keys, rows.Err()
}

type foreignKeyRef struct {
	table  string
	column string
}

func (a *Adapter) foreignKeyColumns(ctx context.Context, schemaName, tableName string) (map[string]foreignKeyRef, error) {
	query := `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1 AND tc.table_name = $2`

	rows, err := a.pool.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "read foreign keys", err)
	}
	defer rows.Close()

	refs := make(map[string]foreignKeyRef)
	for rows.Next() {
		var column string
		var ref foreignKeyRef
		if err := rows.Scan(&column, &ref.table, &ref.column); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		refs[column] = ref
	}
	return refs, rows.Err()
}

func (a *Adapter) columnComments(ctx context.Context, schemaName, tableName string) (map[string]string, error) {
	query := `
		SELECT a.attname, COALESCE(col_description(a.attrelid, a.attnum), '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped`

	rows, err := a.pool.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "read column comments", err)
	}
	defer rows.Close()

	comments := make(map[string]string)
	for rows.Next() {
		var name, comment string
		if err := rows.Scan(&name, &comment); err != nil {
			return nil, fmt.Errorf("scan column comment: %w", err)
		}
		if comment != "" {
			comments[name] = comment
		}
	}
	return comments, rows.Err()
}

func (a *Adapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	qualified := pgx.Identifier{schemaName, tableName}.Sanitize()
	var count int64
	if err := a.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified)).Scan(&count); err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	return count, nil
}

func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := pgx.Identifier{schemaName, tableName}.Sanitize()

	if totalRows > engine.LargeTableThreshold {
		query := fmt.Sprintf("SELECT * FROM %s TABLESAMPLE BERNOULLI(%s) LIMIT %d",
			qualified, samplePercent(limit, totalRows), limit)
		sampled, err := a.queryRows(ctx, query)
		if err == nil {
			return sampled, nil
		}
		a.logger.Warn("block sampling failed, falling back to limited scan",
			zap.String("table", tableName), zap.Error(err))
		return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, limit))
	}

	return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT %d", qualified, limit))
}

func (a *Adapter) queryRows(ctx context.Context, query string) ([]engine.Row, error) {
	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "sample rows", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	var result []engine.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read sample row: %w", err)
		}
		result = append(result, engine.CoerceRow(columns, values))
	}
	return result, rows.Err()
}

func (a *Adapter) Close() error {
	a.pool.Close()
	return nil
}

// samplePercent oversamples 2x so BERNOULLI usually yields at least limit
// rows; the LIMIT clause trims the excess.
func samplePercent(limit int, totalRows int64) string {
	pct := float64(limit) / float64(totalRows) * 100 * 2
	if pct > 100 {
		pct = 100
	}
	if pct < 0.0001 {
		pct = 0.0001
	}
	return strconv.FormatFloat(pct, 'f', 4, 64)
}
