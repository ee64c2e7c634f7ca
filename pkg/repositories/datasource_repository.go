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

// DataSourceRepository defines data access for registered datasources.
type DataSourceRepository interface {
	// Create inserts a new datasource. Returns ErrConflict if the name is taken.
	Create(ctx context.Context, ds *models.DataSource) error

	// GetByID retrieves a datasource by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.DataSource, error)

	// List retrieves all datasources ordered by name.
	List(ctx context.Context) ([]*models.DataSource, error)

	// Rename updates only the name of a datasource.
	Rename(ctx context.Context, id uuid.UUID, name string) error

	// Delete removes a datasource and everything under it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type dataSourceRepository struct {
	db *database.DB
}

// NewDataSourceRepository creates a new datasource repository.
func NewDataSourceRepository(db *database.DB) DataSourceRepository {
	return &dataSourceRepository{db: db}
}

var _ DataSourceRepository = (*dataSourceRepository)(nil)

func (r *dataSourceRepository) Create(ctx context.Context, ds *models.DataSource) error {
	now := time.Now()
	ds.CreatedAt = now
	ds.UpdatedAt = now

	query := `
		INSERT INTO datasources (name, engine_kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, ds.Name, ds.EngineKind, ds.CreatedAt, ds.UpdatedAt).Scan(&ds.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("create datasource: %w", err)
	}
	return nil
}

func (r *dataSourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DataSource, error) {
	query := `
		SELECT id, name, engine_kind, created_at, updated_at
		FROM datasources
		WHERE id = $1`

	var ds models.DataSource
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ds.ID, &ds.Name, &ds.EngineKind, &ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get datasource: %w", err)
	}
	return &ds, nil
}

func (r *dataSourceRepository) List(ctx context.Context) ([]*models.DataSource, error) {
	query := `
		SELECT id, name, engine_kind, created_at, updated_at
		FROM datasources
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list datasources: %w", err)
	}
	defer rows.Close()

	var result []*models.DataSource
	for rows.Next() {
		var ds models.DataSource
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.EngineKind, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan datasource: %w", err)
		}
		result = append(result, &ds)
	}
	return result, rows.Err()
}

func (r *dataSourceRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE datasources SET name = $1, updated_at = $2 WHERE id = $3`,
		name, time.Now(), id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("rename datasource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes the datasource; environments, tables, columns, and
// relationships beneath it go with it via ON DELETE CASCADE.
func (r *dataSourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM datasources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete datasource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
