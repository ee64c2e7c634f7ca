package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/crypto"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/repositories"
)

// TableSelection names one source table to import.
type TableSelection struct {
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
}

// AvailableTables is a source-side table listing. Note is set when the
// connected user can see no schemas at all, which usually means missing
// grants rather than an empty database.
type AvailableTables struct {
	Tables []engine.TableMeta `json:"tables"`
	Note   string             `json:"note,omitempty"`
}

// DataSourceService manages datasources, their environments, and table
// import. Environment connection config is encrypted before it reaches the
// metadata store and decrypted on the way out.
type DataSourceService interface {
	CreateDataSource(ctx context.Context, name string, kind models.EngineKind) (*models.DataSource, error)
	GetDataSource(ctx context.Context, id uuid.UUID) (*models.DataSource, error)
	ListDataSources(ctx context.Context) ([]*models.DataSource, error)
	RenameDataSource(ctx context.Context, id uuid.UUID, name string) error
	DeleteDataSource(ctx context.Context, id uuid.UUID) error

	CreateEnvironment(ctx context.Context, dataSourceID uuid.UUID, name string, config map[string]any, credentialsKey string) (*models.Environment, error)
	GetEnvironment(ctx context.Context, id uuid.UUID) (*models.Environment, error)
	ListEnvironments(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, error)
	UpdateEnvironment(ctx context.Context, id uuid.UUID, config map[string]any, credentialsKey string) error
	DeleteEnvironment(ctx context.Context, id uuid.UUID) error

	// ListAvailableTables connects to the environment's engine and lists
	// tables passing the schema filter.
	ListAvailableTables(ctx context.Context, environmentID uuid.UUID, filter engine.SchemaFilter) (*AvailableTables, error)

	// ImportTables introspects and records the selected tables and their
	// columns. Imported tables start in PENDING analysis state.
	ImportTables(ctx context.Context, environmentID uuid.UUID, selections []TableSelection) ([]*models.Table, error)
}

type dataSourceService struct {
	dataSources  repositories.DataSourceRepository
	environments repositories.EnvironmentRepository
	tables       repositories.TableRepository
	columns      repositories.ColumnRepository
	encryptor    *crypto.ConfigEncryptor
	resolver     ConnectionResolver
	logger       *zap.Logger
}

// NewDataSourceService creates the datasource service.
func NewDataSourceService(
	dataSources repositories.DataSourceRepository,
	environments repositories.EnvironmentRepository,
	tables repositories.TableRepository,
	columns repositories.ColumnRepository,
	encryptor *crypto.ConfigEncryptor,
	resolver ConnectionResolver,
	logger *zap.Logger,
) DataSourceService {
	return &dataSourceService{
		dataSources:  dataSources,
		environments: environments,
		tables:       tables,
		columns:      columns,
		encryptor:    encryptor,
		resolver:     resolver,
		logger:       logger.Named("datasource-service"),
	}
}

var _ DataSourceService = (*dataSourceService)(nil)

func (s *dataSourceService) CreateDataSource(ctx context.Context, name string, kind models.EngineKind) (*models.DataSource, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedEngine, kind)
	}

	ds := &models.DataSource{Name: name, EngineKind: kind}
	if err := s.dataSources.Create(ctx, ds); err != nil {
		return nil, err
	}

	s.logger.Info("Datasource created",
		zap.String("name", name), zap.String("engine", string(kind)))
	return ds, nil
}

func (s *dataSourceService) GetDataSource(ctx context.Context, id uuid.UUID) (*models.DataSource, error) {
	return s.dataSources.GetByID(ctx, id)
}

func (s *dataSourceService) ListDataSources(ctx context.Context) ([]*models.DataSource, error) {
	return s.dataSources.List(ctx)
}

func (s *dataSourceService) RenameDataSource(ctx context.Context, id uuid.UUID, name string) error {
	return s.dataSources.Rename(ctx, id, name)
}

func (s *dataSourceService) DeleteDataSource(ctx context.Context, id uuid.UUID) error {
	return s.dataSources.Delete(ctx, id)
}

func (s *dataSourceService) CreateEnvironment(ctx context.Context, dataSourceID uuid.UUID, name string, config map[string]any, credentialsKey string) (*models.Environment, error) {
	if _, err := s.dataSources.GetByID(ctx, dataSourceID); err != nil {
		return nil, err
	}

	encrypted, err := s.encryptConfig(config)
	if err != nil {
		return nil, err
	}

	env := &models.Environment{
		DataSourceID:   dataSourceID,
		Name:           name,
		Config:         config,
		CredentialsKey: credentialsKey,
	}
	if err := s.environments.Create(ctx, env, encrypted); err != nil {
		return nil, err
	}
	return env, nil
}

func (s *dataSourceService) GetEnvironment(ctx context.Context, id uuid.UUID) (*models.Environment, error) {
	env, encrypted, err := s.environments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	env.Config, err = s.decryptConfig(encrypted)
	if err != nil {
		return nil, err
	}
	return env, nil
}

func (s *dataSourceService) ListEnvironments(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, error) {
	envs, configs, err := s.environments.ListByDataSource(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}
	for i, env := range envs {
		env.Config, err = s.decryptConfig(configs[i])
		if err != nil {
			return nil, err
		}
	}
	return envs, nil
}

func (s *dataSourceService) UpdateEnvironment(ctx context.Context, id uuid.UUID, config map[string]any, credentialsKey string) error {
	encrypted, err := s.encryptConfig(config)
	if err != nil {
		return err
	}
	return s.environments.Update(ctx, id, encrypted, credentialsKey)
}

func (s *dataSourceService) DeleteEnvironment(ctx context.Context, id uuid.UUID) error {
	return s.environments.Delete(ctx, id)
}

func (s *dataSourceService) ListAvailableTables(ctx context.Context, environmentID uuid.UUID, filter engine.SchemaFilter) (*AvailableTables, error) {
	env, kind, err := s.environmentWithKind(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.resolver.Connect(ctx, env, kind)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	tables, err := adapter.ListTables(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &AvailableTables{Tables: tables}
	if len(tables) == 0 {
		schemas, err := adapter.ListSchemas(ctx)
		if err == nil && len(schemas) == 0 {
			result.Note = "connected user can see no schemas; check grants"
		}
	}
	return result, nil
}

func (s *dataSourceService) ImportTables(ctx context.Context, environmentID uuid.UUID, selections []TableSelection) ([]*models.Table, error) {
	env, kind, err := s.environmentWithKind(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.resolver.Connect(ctx, env, kind)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	var imported []*models.Table
	for _, sel := range selections {
		columnMeta, err := adapter.ListColumns(ctx, sel.SchemaName, sel.TableName)
		if err != nil {
			return imported, fmt.Errorf("introspect %s.%s: %w", sel.SchemaName, sel.TableName, err)
		}

		table := &models.Table{
			EnvironmentID: environmentID,
			SchemaName:    sel.SchemaName,
			Name:          sel.TableName,
		}
		if err := s.tables.Create(ctx, table); err != nil {
			return imported, fmt.Errorf("import %s.%s: %w", sel.SchemaName, sel.TableName, err)
		}

		columns := make([]*models.Column, len(columnMeta))
		for i, meta := range columnMeta {
			columns[i] = &models.Column{
				TableID:          table.ID,
				Name:             meta.Name,
				DataType:         meta.DataType,
				IsNullable:       meta.IsNullable,
				IsPrimaryKey:     meta.IsPrimaryKey,
				IsForeignKey:     meta.IsForeignKey,
				ReferencedTable:  meta.ReferencedTable,
				ReferencedColumn: meta.ReferencedColumn,
				Comment:          meta.Comment,
			}
		}
		if err := s.columns.CreateBatch(ctx, columns); err != nil {
			return imported, fmt.Errorf("import columns of %s.%s: %w", sel.SchemaName, sel.TableName, err)
		}

		imported = append(imported, table)
	}

	s.logger.Info("Tables imported",
		zap.String("environment", env.Name), zap.Int("count", len(imported)))
	return imported, nil
}

func (s *dataSourceService) environmentWithKind(ctx context.Context, environmentID uuid.UUID) (*models.Environment, models.EngineKind, error) {
	env, err := s.GetEnvironment(ctx, environmentID)
	if err != nil {
		return nil, "", err
	}
	ds, err := s.dataSources.GetByID(ctx, env.DataSourceID)
	if err != nil {
		return nil, "", err
	}
	return env, ds.EngineKind, nil
}

func (s *dataSourceService) encryptConfig(config map[string]any) (string, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("marshal environment config: %w", err)
	}
	encrypted, err := s.encryptor.Encrypt(string(raw))
	if err != nil {
		return "", fmt.Errorf("encrypt environment config: %w", err)
	}
	return encrypted, nil
}

func (s *dataSourceService) decryptConfig(encrypted string) (map[string]any, error) {
	if encrypted == "" {
		return map[string]any{}, nil
	}
	raw, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt environment config: %w", err)
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("unmarshal environment config: %w", err)
	}
	return config, nil
}
