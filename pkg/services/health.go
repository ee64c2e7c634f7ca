package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/repositories"
)

// HealthService checks environment connectivity and records the outcome.
type HealthService interface {
	// CheckEnvironment tests the environment's engine connection and
	// persists HEALTHY or UNHEALTHY with the check timestamp. The returned
	// error reflects the connection failure, not the bookkeeping.
	CheckEnvironment(ctx context.Context, environmentID uuid.UUID) (models.HealthStatus, error)
}

type healthService struct {
	environments repositories.EnvironmentRepository
	dataSources  DataSourceService
	resolver     ConnectionResolver
	logger       *zap.Logger
}

// NewHealthService creates the environment health checker.
func NewHealthService(
	environments repositories.EnvironmentRepository,
	dataSources DataSourceService,
	resolver ConnectionResolver,
	logger *zap.Logger,
) HealthService {
	return &healthService{
		environments: environments,
		dataSources:  dataSources,
		resolver:     resolver,
		logger:       logger.Named("health-service"),
	}
}

var _ HealthService = (*healthService)(nil)

func (s *healthService) CheckEnvironment(ctx context.Context, environmentID uuid.UUID) (models.HealthStatus, error) {
	env, err := s.dataSources.GetEnvironment(ctx, environmentID)
	if err != nil {
		return models.HealthUnknown, err
	}
	ds, err := s.dataSources.GetDataSource(ctx, env.DataSourceID)
	if err != nil {
		return models.HealthUnknown, err
	}

	status := models.HealthHealthy
	var checkErr error

	adapter, err := s.resolver.Connect(ctx, env, ds.EngineKind)
	if err != nil {
		status = models.HealthUnhealthy
		checkErr = err
	} else {
		if err := adapter.TestConnection(ctx); err != nil {
			status = models.HealthUnhealthy
			checkErr = err
		}
		adapter.Close()
	}

	if err := s.environments.UpdateHealth(ctx, environmentID, status, time.Now()); err != nil {
		s.logger.Warn("Could not persist health check result",
			zap.String("environment", env.Name), zap.Error(err))
	}

	if checkErr != nil {
		s.logger.Info("Environment health check failed",
			zap.String("environment", env.Name), zap.Error(checkErr))
	}
	return status, checkErr
}
