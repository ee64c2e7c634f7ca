package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/database"
	"github.com/schemalens/schemalens/pkg/models"
)

// EnvironmentRepository defines data access for connection environments.
// Config is stored as encrypted TEXT; encryption and decryption happen in
// the service layer, so every method passes the ciphertext through opaque.
type EnvironmentRepository interface {
	// Create inserts a new environment under a datasource.
	Create(ctx context.Context, env *models.Environment, encryptedConfig string) error

	// GetByID retrieves an environment and its encrypted config.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Environment, string, error)

	// ListByDataSource retrieves all environments of one datasource with
	// their encrypted configs, index-aligned.
	ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, []string, error)

	// Update replaces the encrypted config and credentials key.
	Update(ctx context.Context, id uuid.UUID, encryptedConfig, credentialsKey string) error

	// UpdateHealth records the outcome of a connectivity check.
	UpdateHealth(ctx context.Context, id uuid.UUID, status models.HealthStatus, checkedAt time.Time) error

	// Delete removes an environment and everything under it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type environmentRepository struct {
	db *database.DB
}

// NewEnvironmentRepository creates a new environment repository.
func NewEnvironmentRepository(db *database.DB) EnvironmentRepository {
	return &environmentRepository{db: db}
}

var _ EnvironmentRepository = (*environmentRepository)(nil)

func (r *environmentRepository) Create(ctx context.Context, env *models.Environment, encryptedConfig string) error {
	now := time.Now()
	env.CreatedAt = now
	env.UpdatedAt = now
	if env.HealthStatus == "" {
		env.HealthStatus = models.HealthUnknown
	}

	query := `
		INSERT INTO environments (datasource_id, name, config, credentials_key, health_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		env.DataSourceID, env.Name, encryptedConfig, env.CredentialsKey,
		env.HealthStatus, env.CreatedAt, env.UpdatedAt,
	).Scan(&env.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("create environment: %w", err)
	}
	return nil
}

func (r *environmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Environment, string, error) {
	query := `
		SELECT id, datasource_id, name, config, credentials_key, health_status, last_checked_at, created_at, updated_at
		FROM environments
		WHERE id = $1`

	var env models.Environment
	var encryptedConfig string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&env.ID, &env.DataSourceID, &env.Name, &encryptedConfig, &env.CredentialsKey,
		&env.HealthStatus, &env.LastCheckedAt, &env.CreatedAt, &env.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", fmt.Errorf("get environment: %w", err)
	}
	return &env, encryptedConfig, nil
}

func (r *environmentRepository) ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.Environment, []string, error) {
	query := `
		SELECT id, datasource_id, name, config, credentials_key, health_status, last_checked_at, created_at, updated_at
		FROM environments
		WHERE datasource_id = $1
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, dataSourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("list environments: %w", err)
	}
	defer rows.Close()

	var envs []*models.Environment
	var configs []string
	for rows.Next() {
		var env models.Environment
		var encryptedConfig string
		if err := rows.Scan(&env.ID, &env.DataSourceID, &env.Name, &encryptedConfig, &env.CredentialsKey,
			&env.HealthStatus, &env.LastCheckedAt, &env.CreatedAt, &env.UpdatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan environment: %w", err)
		}
		envs = append(envs, &env)
		configs = append(configs, encryptedConfig)
	}
	return envs, configs, rows.Err()
}

func (r *environmentRepository) Update(ctx context.Context, id uuid.UUID, encryptedConfig, credentialsKey string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE environments SET config = $1, credentials_key = $2, updated_at = $3 WHERE id = $4`,
		encryptedConfig, credentialsKey, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update environment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *environmentRepository) UpdateHealth(ctx context.Context, id uuid.UUID, status models.HealthStatus, checkedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE environments SET health_status = $1, last_checked_at = $2, updated_at = $3 WHERE id = $4`,
		status, checkedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update environment health: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *environmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM environments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
