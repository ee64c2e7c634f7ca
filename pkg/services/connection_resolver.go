package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/vault"
)

// ConnectionResolver turns an environment into a connected engine adapter:
// it merges the environment's connection config with vaulted credentials
// and hands the result to the adapter factory.
type ConnectionResolver interface {
	// ResolveConfig returns the full connection parameter map for an
	// environment, credentials included.
	ResolveConfig(ctx context.Context, env *models.Environment, kind models.EngineKind) (map[string]any, error)

	// Connect opens an adapter for the environment. The caller owns Close.
	Connect(ctx context.Context, env *models.Environment, kind models.EngineKind) (engine.Adapter, error)
}

type connectionResolver struct {
	credentials vault.CredentialSource
	factory     engine.Factory
	logger      *zap.Logger
}

// NewConnectionResolver creates a connection resolver.
func NewConnectionResolver(credentials vault.CredentialSource, factory engine.Factory, logger *zap.Logger) ConnectionResolver {
	return &connectionResolver{
		credentials: credentials,
		factory:     factory,
		logger:      logger.Named("connection-resolver"),
	}
}

var _ ConnectionResolver = (*connectionResolver)(nil)

func (r *connectionResolver) ResolveConfig(ctx context.Context, env *models.Environment, kind models.EngineKind) (map[string]any, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedEngine, kind)
	}

	// Never hand an adapter blank credentials; an environment without a
	// vault key cannot be connected to.
	if env.CredentialsKey == "" {
		return nil, fmt.Errorf("%w: environment %s has no credentials key",
			apperrors.ErrCredentialsUnavailable, env.Name)
	}

	config := make(map[string]any, len(env.Config)+4)
	for k, v := range env.Config {
		config[k] = v
	}

	if !r.credentials.HasProvider() {
		return nil, fmt.Errorf("%w: environment %s references key %q but no vault is configured",
			apperrors.ErrCredentialsUnavailable, env.Name, env.CredentialsKey)
	}

	creds, err := r.credentials.GetCredentials(ctx, env.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCredentialsUnavailable, err)
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: key %q resolved to nothing",
			apperrors.ErrCredentialsUnavailable, env.CredentialsKey)
	}

	for field, value := range creds {
		config[field] = value
	}
	// Vaults populated by other tooling sometimes store "user"; adapters
	// prefer "username", so promote it when only the short form is present.
	if _, ok := config["username"]; !ok {
		if user, ok := config["user"]; ok {
			config["username"] = user
		}
	}

	return config, nil
}

func (r *connectionResolver) Connect(ctx context.Context, env *models.Environment, kind models.EngineKind) (engine.Adapter, error) {
	config, err := r.ResolveConfig(ctx, env, kind)
	if err != nil {
		return nil, err
	}

	adapter, err := r.factory.New(ctx, string(kind), config)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Engine connection established",
		zap.String("engine", string(kind)),
		zap.String("environment", env.Name))
	return adapter, nil
}
