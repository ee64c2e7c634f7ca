package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/models"
)

// fakeEnvironmentHealthRepo records only the health updates; the rest of
// the repository surface is unused by the health checker.
type fakeEnvironmentHealthRepo struct {
	healthUpdates []models.HealthStatus
	updateErr     error
}

func (r *fakeEnvironmentHealthRepo) Create(ctx context.Context, env *models.Environment, encryptedConfig string) error {
	return nil
}

func (r *fakeEnvironmentHealthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Environment, string, error) {
	return nil, "", apperrors.ErrNotFound
}

func (r *fakeEnvironmentHealthRepo) ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, []string, error) {
	return nil, nil, nil
}

func (r *fakeEnvironmentHealthRepo) Update(ctx context.Context, id uuid.UUID, encryptedConfig, credentialsKey string) error {
	return nil
}

func (r *fakeEnvironmentHealthRepo) UpdateHealth(ctx context.Context, id uuid.UUID, status models.HealthStatus, checkedAt time.Time) error {
	r.healthUpdates = append(r.healthUpdates, status)
	return r.updateErr
}

func (r *fakeEnvironmentHealthRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func TestCheckEnvironment_Healthy(t *testing.T) {
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	adapter := &fakeAdapter{}
	repo := &fakeEnvironmentHealthRepo{}
	svc := NewHealthService(repo,
		&fakeDataSourceProvider{env: env, kind: models.EnginePostgres},
		&fakeResolver{adapter: adapter},
		zap.NewNop())

	status, err := svc.CheckEnvironment(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HealthHealthy, status)
	assert.Equal(t, []models.HealthStatus{models.HealthHealthy}, repo.healthUpdates)
	assert.True(t, adapter.closed)
}

func TestCheckEnvironment_ConnectFailure(t *testing.T) {
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	repo := &fakeEnvironmentHealthRepo{}
	svc := NewHealthService(repo,
		&fakeDataSourceProvider{env: env, kind: models.EnginePostgres},
		&fakeResolver{err: errors.New("connection refused")},
		zap.NewNop())

	status, err := svc.CheckEnvironment(context.Background(), env.ID)
	require.Error(t, err)
	assert.Equal(t, models.HealthUnhealthy, status)
	assert.Equal(t, []models.HealthStatus{models.HealthUnhealthy}, repo.healthUpdates)
}

func TestCheckEnvironment_TestConnectionFailure(t *testing.T) {
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	adapter := &fakeAdapter{testConnectionErr: errors.New("auth failed")}
	repo := &fakeEnvironmentHealthRepo{}
	svc := NewHealthService(repo,
		&fakeDataSourceProvider{env: env, kind: models.EngineMySQL},
		&fakeResolver{adapter: adapter},
		zap.NewNop())

	status, err := svc.CheckEnvironment(context.Background(), env.ID)
	require.Error(t, err)
	assert.Equal(t, models.HealthUnhealthy, status)
	assert.True(t, adapter.closed)
}

func TestCheckEnvironment_UnknownEnvironment(t *testing.T) {
	repo := &fakeEnvironmentHealthRepo{}
	svc := NewHealthService(repo,
		&fakeDataSourceProvider{kind: models.EnginePostgres},
		&fakeResolver{},
		zap.NewNop())

	status, err := svc.CheckEnvironment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, models.HealthUnknown, status)
	assert.Empty(t, repo.healthUpdates)
}

func TestCheckEnvironment_PersistFailureDoesNotMaskResult(t *testing.T) {
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	repo := &fakeEnvironmentHealthRepo{updateErr: errors.New("db down")}
	svc := NewHealthService(repo,
		&fakeDataSourceProvider{env: env, kind: models.EnginePostgres},
		&fakeResolver{adapter: &fakeAdapter{}},
		zap.NewNop())

	status, err := svc.CheckEnvironment(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HealthHealthy, status)
}
