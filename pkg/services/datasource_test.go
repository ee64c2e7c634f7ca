package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/crypto"
	"github.com/schemalens/schemalens/pkg/models"
)

// fakeDataSourceRepo is an in-memory DataSourceRepository.
type fakeDataSourceRepo struct {
	mu          sync.Mutex
	dataSources map[uuid.UUID]*models.DataSource
}

func newFakeDataSourceRepo() *fakeDataSourceRepo {
	return &fakeDataSourceRepo{dataSources: make(map[uuid.UUID]*models.DataSource)}
}

func (r *fakeDataSourceRepo) Create(ctx context.Context, ds *models.DataSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.dataSources {
		if existing.Name == ds.Name {
			return apperrors.ErrConflict
		}
	}
	ds.ID = uuid.New()
	r.dataSources[ds.ID] = ds
	return nil
}

func (r *fakeDataSourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.dataSources[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ds, nil
}

func (r *fakeDataSourceRepo) List(ctx context.Context) ([]*models.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DataSource
	for _, ds := range r.dataSources {
		out = append(out, ds)
	}
	return out, nil
}

func (r *fakeDataSourceRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.dataSources[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	ds.Name = name
	return nil
}

func (r *fakeDataSourceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dataSources[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.dataSources, id)
	return nil
}

// fakeEnvironmentRepo stores environments with their encrypted configs,
// mirroring the real repository's contract.
type fakeEnvironmentRepo struct {
	fakeEnvironmentHealthRepo
	mu        sync.Mutex
	envs      map[uuid.UUID]*models.Environment
	encrypted map[uuid.UUID]string
}

func newFakeEnvironmentRepo() *fakeEnvironmentRepo {
	return &fakeEnvironmentRepo{
		envs:      make(map[uuid.UUID]*models.Environment),
		encrypted: make(map[uuid.UUID]string),
	}
}

func (r *fakeEnvironmentRepo) Create(ctx context.Context, env *models.Environment, encryptedConfig string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	env.ID = uuid.New()
	r.envs[env.ID] = env
	r.encrypted[env.ID] = encryptedConfig
	return nil
}

func (r *fakeEnvironmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Environment, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[id]
	if !ok {
		return nil, "", apperrors.ErrNotFound
	}
	clone := *env
	return &clone, r.encrypted[id], nil
}

func (r *fakeEnvironmentRepo) ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var envs []*models.Environment
	var configs []string
	for id, env := range r.envs {
		if env.DataSourceID == dataSourceID {
			clone := *env
			envs = append(envs, &clone)
			configs = append(configs, r.encrypted[id])
		}
	}
	return envs, configs, nil
}

func (r *fakeEnvironmentRepo) Update(ctx context.Context, id uuid.UUID, encryptedConfig, credentialsKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.encrypted[id] = encryptedConfig
	env.CredentialsKey = credentialsKey
	return nil
}

func (r *fakeEnvironmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.envs[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.envs, id)
	delete(r.encrypted, id)
	return nil
}

type datasourceFixture struct {
	service      DataSourceService
	dataSources  *fakeDataSourceRepo
	environments *fakeEnvironmentRepo
	tables       *fakeTableRepo
	columns      *fakeColumnRepo
	adapter      *fakeAdapter
}

func newDatasourceFixture(t *testing.T) *datasourceFixture {
	t.Helper()

	encryptor, err := crypto.NewConfigEncryptor("test-key")
	require.NoError(t, err)

	fx := &datasourceFixture{
		dataSources:  newFakeDataSourceRepo(),
		environments: newFakeEnvironmentRepo(),
		tables:       newFakeTableRepo(),
		columns:      newFakeColumnRepo(),
		adapter:      &fakeAdapter{},
	}
	fx.service = NewDataSourceService(
		fx.dataSources, fx.environments, fx.tables, fx.columns,
		encryptor, &fakeResolver{adapter: fx.adapter}, zap.NewNop())
	return fx
}

func TestCreateDataSource_InvalidKind(t *testing.T) {
	fx := newDatasourceFixture(t)
	_, err := fx.service.CreateDataSource(context.Background(), "legacy", "oracle")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedEngine)
}

func TestCreateDataSource_DuplicateName(t *testing.T) {
	fx := newDatasourceFixture(t)
	_, err := fx.service.CreateDataSource(context.Background(), "warehouse", models.EnginePostgres)
	require.NoError(t, err)
	_, err = fx.service.CreateDataSource(context.Background(), "warehouse", models.EngineMySQL)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestEnvironmentConfig_EncryptedAtRest(t *testing.T) {
	fx := newDatasourceFixture(t)
	ds, err := fx.service.CreateDataSource(context.Background(), "warehouse", models.EnginePostgres)
	require.NoError(t, err)

	config := map[string]any{"host": "db.internal", "port": float64(5432), "database": "app"}
	env, err := fx.service.CreateEnvironment(context.Background(), ds.ID, "prod", config, "db/prod")
	require.NoError(t, err)

	// The stored form is ciphertext, not the JSON config.
	stored := fx.environments.encrypted[env.ID]
	assert.NotEmpty(t, stored)
	assert.NotContains(t, stored, "db.internal")

	// Reads decrypt transparently.
	got, err := fx.service.GetEnvironment(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Equal(t, config, got.Config)
	assert.Equal(t, "db/prod", got.CredentialsKey)
}

func TestCreateEnvironment_UnknownDataSource(t *testing.T) {
	fx := newDatasourceFixture(t)
	_, err := fx.service.CreateEnvironment(context.Background(), uuid.New(), "prod", nil, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImportTables(t *testing.T) {
	fx := newDatasourceFixture(t)
	ds, err := fx.service.CreateDataSource(context.Background(), "warehouse", models.EnginePostgres)
	require.NoError(t, err)
	env, err := fx.service.CreateEnvironment(context.Background(), ds.ID, "prod",
		map[string]any{"host": "db"}, "")
	require.NoError(t, err)

	fx.adapter.columns = []engine.ColumnMeta{
		{Name: "id", DataType: "uuid", IsPrimaryKey: true},
		{Name: "email", DataType: "text", IsNullable: true, Comment: "login email"},
	}

	imported, err := fx.service.ImportTables(context.Background(), env.ID,
		[]TableSelection{{SchemaName: "public", TableName: "users"}})
	require.NoError(t, err)
	require.Len(t, imported, 1)

	table := imported[0]
	assert.Equal(t, models.AnalysisPending, table.AnalysisStatus)
	assert.Equal(t, "users", table.Name)

	columns, err := fx.columns.ListByTable(context.Background(), table.ID)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.True(t, fx.adapter.closed)
}

func TestListAvailableTables_NoSchemasNote(t *testing.T) {
	fx := newDatasourceFixture(t)
	ds, err := fx.service.CreateDataSource(context.Background(), "warehouse", models.EnginePostgres)
	require.NoError(t, err)
	env, err := fx.service.CreateEnvironment(context.Background(), ds.ID, "prod",
		map[string]any{"host": "db"}, "")
	require.NoError(t, err)

	result, err := fx.service.ListAvailableTables(context.Background(), env.ID, engine.SchemaFilter{})
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	assert.Equal(t, "connected user can see no schemas; check grants", result.Note)
}

func TestListAvailableTables_FilterApplied(t *testing.T) {
	fx := newDatasourceFixture(t)
	ds, err := fx.service.CreateDataSource(context.Background(), "warehouse", models.EnginePostgres)
	require.NoError(t, err)
	env, err := fx.service.CreateEnvironment(context.Background(), ds.ID, "prod",
		map[string]any{"host": "db"}, "")
	require.NoError(t, err)

	fx.adapter.schemas = []string{"public", "audit"}
	fx.adapter.tables = []engine.TableMeta{
		{SchemaName: "public", TableName: "users"},
		{SchemaName: "audit", TableName: "events"},
	}

	result, err := fx.service.ListAvailableTables(context.Background(), env.ID,
		engine.SchemaFilter{IncludeSchemas: []string{"public"}})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, "users", result.Tables[0].TableName)
	assert.Empty(t, result.Note)
}
