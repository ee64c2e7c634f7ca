package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

const engineKind = "bigquery"

// Adapter provides BigQuery connectivity. Datasets play the role of
// schemas; there are no system datasets to exclude and the catalog carries
// no key constraints.
type Adapter struct {
	config *Config
	client *bigquery.Client
	logger *zap.Logger
}

var _ engine.Adapter = (*Adapter)(nil)

// NewAdapter creates a BigQuery client and verifies dataset access.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "create client", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	a := &Adapter{config: cfg, client: client, logger: logger}
	if err := a.TestConnection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return a, nil
}

func (a *Adapter) TestConnection(ctx context.Context) error {
	it := a.client.Datasets(ctx)
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return engine.NewConnectionError(engineKind, "list datasets", err)
	}
	return nil
}

func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	var schemas []string
	it := a.client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, engine.NewConnectionError(engineKind, "list datasets", err)
		}
		schemas = append(schemas, ds.DatasetID)
	}
	return schemas, nil
}

func (a *Adapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	schemas, err := a.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}

	var tables []engine.TableMeta
	for _, datasetID := range schemas {
		if !filter.Allowed(datasetID, nil) {
			continue
		}
		it := a.client.Dataset(datasetID).Tables(ctx)
		for {
			t, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, engine.NewConnectionError(engineKind, "list tables", err)
			}
			md, err := t.Metadata(ctx)
			if err != nil {
				return nil, engine.NewConnectionError(engineKind, "read table metadata", err)
			}
			if md.Type != bigquery.RegularTable {
				continue
			}
			tables = append(tables, engine.TableMeta{
				SchemaName: datasetID,
				TableName:  t.TableID,
				RowCount:   int64(md.NumRows),
			})
		}
	}
	return tables, nil
}

func (a *Adapter) ListColumns(ctx context.Context, schemaName, tableName string) ([]engine.ColumnMeta, error) {
	md, err := a.client.Dataset(schemaName).Table(tableName).Metadata(ctx)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "read table metadata", err)
	}

	columns := make([]engine.ColumnMeta, 0, len(md.Schema))
	for _, field := range md.Schema {
		columns = append(columns, engine.ColumnMeta{
			Name:       field.Name,
			DataType:   string(field.Type),
			IsNullable: !field.Required,
			Comment:    field.Description,
		})
	}
	return columns, nil
}

func (a *Adapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.qualifiedName(schemaName, tableName))
	it, err := a.client.Query(query).Read(ctx)
	if err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil {
		return 0, engine.NewConnectionError(engineKind, "count rows", err)
	}
	count, ok := row[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", row[0])
	}
	return count, nil
}

func (a *Adapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	qualified := a.qualifiedName(schemaName, tableName)

	if totalRows > engine.LargeTableThreshold {
		pct := float64(limit) / float64(totalRows) * 100 * 2
		if pct > 100 {
			pct = 100
		}
		if pct < 0.01 {
			pct = 0.01
		}
		query := fmt.Sprintf("SELECT * FROM %s TABLESAMPLE SYSTEM (%.2f PERCENT) LIMIT %d", qualified, pct, limit)
		sampled, err := a.queryRows(ctx, query)
		if err == nil {
			return sampled, nil
		}
		a.logger.Warn("block sampling failed, falling back to limited scan",
			zap.String("table", tableName), zap.Error(err))
		return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, limit))
	}

	return a.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY RAND() LIMIT %d", qualified, limit))
}

func (a *Adapter) queryRows(ctx context.Context, query string) ([]engine.Row, error) {
	it, err := a.client.Query(query).Read(ctx)
	if err != nil {
		return nil, engine.NewConnectionError(engineKind, "sample rows", err)
	}

	var result []engine.Row
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sample row: %w", err)
		}
		columns := make([]string, len(it.Schema))
		for i, f := range it.Schema {
			columns[i] = f.Name
		}
		raw := make([]any, len(values))
		for i, v := range values {
			raw[i] = v
		}
		result = append(result, engine.CoerceRow(columns, raw))
	}
	return result, nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) qualifiedName(schemaName, tableName string) string {
	return fmt.Sprintf("`%s.%s.%s`", a.config.ProjectID, schemaName, tableName)
}
