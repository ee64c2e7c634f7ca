package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/database"
	"github.com/schemalens/schemalens/pkg/models"
)

// RelationshipRepository defines data access for inferred table
// relationships. The (environment, source table, source column, target
// table, target column) tuple is unique; Create maps violations to
// ErrConflict so inference can treat duplicates as already-known.
type RelationshipRepository interface {
	// Create inserts a relationship. Returns ErrConflict for duplicates.
	Create(ctx context.Context, rel *models.Relationship) error

	// Exists reports whether the dedup tuple already has a relationship.
	Exists(ctx context.Context, environmentID, sourceTableID uuid.UUID, sourceColumn string, targetTableID uuid.UUID, targetColumn string) (bool, error)

	// ListByEnvironment retrieves all relationships of one environment.
	ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error)

	// SetVerified marks a relationship as human-confirmed or not.
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error

	// Delete removes a relationship by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

type relationshipRepository struct {
	db *database.DB
}

// NewRelationshipRepository creates a new relationship repository.
func NewRelationshipRepository(db *database.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

var _ RelationshipRepository = (*relationshipRepository)(nil)

func (r *relationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	rel.CreatedAt = time.Now()

	query := `
		INSERT INTO relationships (environment_id, source_table_id, source_column, target_table_id,
			target_column, kind, confidence, description, example, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		rel.EnvironmentID, rel.SourceTableID, rel.SourceColumn, rel.TargetTableID,
		rel.TargetColumn, rel.Kind, rel.Confidence, rel.Description, rel.Example,
		rel.IsVerified, rel.CreatedAt,
	).Scan(&rel.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("create relationship: %w", err)
	}
	return nil
}

func (r *relationshipRepository) Exists(ctx context.Context, environmentID, sourceTableID uuid.UUID, sourceColumn string, targetTableID uuid.UUID, targetColumn string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM relationships
			WHERE environment_id = $1 AND source_table_id = $2 AND source_column = $3
				AND target_table_id = $4 AND target_column = $5
		)`

	var exists bool
	err := r.db.QueryRow(ctx, query,
		environmentID, sourceTableID, sourceColumn, targetTableID, targetColumn,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check relationship exists: %w", err)
	}
	return exists, nil
}

func (r *relationshipRepository) ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error) {
	query := `
		SELECT id, environment_id, source_table_id, source_column, target_table_id,
			target_column, kind, confidence, description, example, is_verified, created_at
		FROM relationships
		WHERE environment_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, environmentID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []*models.Relationship
	for rows.Next() {
		var rel models.Relationship
		if err := rows.Scan(&rel.ID, &rel.EnvironmentID, &rel.SourceTableID, &rel.SourceColumn,
			&rel.TargetTableID, &rel.TargetColumn, &rel.Kind, &rel.Confidence,
			&rel.Description, &rel.Example, &rel.IsVerified, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}

func (r *relationshipRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE relationships SET is_verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("set relationship verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *relationshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
