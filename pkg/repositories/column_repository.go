package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/database"
	"github.com/schemalens/schemalens/pkg/models"
)

// ColumnRepository defines data access for imported columns. The AI
// description triple is stored as JSONB and only ever written whole.
type ColumnRepository interface {
	// CreateBatch inserts all columns of one table.
	CreateBatch(ctx context.Context, columns []*models.Column) error

	// GetByID retrieves a column by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error)

	// ListByTable retrieves all columns of one table in creation order.
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)

	// UpdateAIDescription stores the complete description triple.
	UpdateAIDescription(ctx context.Context, id uuid.UUID, desc *models.ColumnAIDescription) error
}

type columnRepository struct {
	db *database.DB
}

// NewColumnRepository creates a new column repository.
func NewColumnRepository(db *database.DB) ColumnRepository {
	return &columnRepository{db: db}
}

var _ ColumnRepository = (*columnRepository)(nil)

func (r *columnRepository) CreateBatch(ctx context.Context, columns []*models.Column) error {
	if len(columns) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		INSERT INTO columns (table_id, name, data_type, is_nullable, is_primary_key, is_foreign_key,
			referenced_table, referenced_column, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	now := time.Now()
	for _, col := range columns {
		col.CreatedAt = now
		col.UpdatedAt = now
		err := tx.QueryRow(ctx, query,
			col.TableID, col.Name, col.DataType, col.IsNullable, col.IsPrimaryKey, col.IsForeignKey,
			col.ReferencedTable, col.ReferencedColumn, col.Comment, col.CreatedAt, col.UpdatedAt,
		).Scan(&col.ID)
		if err != nil {
			return fmt.Errorf("create column %s: %w", col.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *columnRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	query := `
		SELECT id, table_id, name, data_type, is_nullable, is_primary_key, is_foreign_key,
			referenced_table, referenced_column, comment, ai_description, created_at, updated_at
		FROM columns
		WHERE id = $1`

	col, err := scanColumn(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get column: %w", err)
	}
	return col, nil
}

func (r *columnRepository) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	query := `
		SELECT id, table_id, name, data_type, is_nullable, is_primary_key, is_foreign_key,
			referenced_table, referenced_column, comment, ai_description, created_at, updated_at
		FROM columns
		WHERE table_id = $1
		ORDER BY created_at, name`

	rows, err := r.db.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var columns []*models.Column
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (r *columnRepository) UpdateAIDescription(ctx context.Context, id uuid.UUID, desc *models.ColumnAIDescription) error {
	descJSON, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal column description: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE columns SET ai_description = $1, updated_at = $2 WHERE id = $3`,
		descJSON, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update column description: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanColumn(row pgx.Row) (*models.Column, error) {
	var col models.Column
	var descJSON []byte
	err := row.Scan(&col.ID, &col.TableID, &col.Name, &col.DataType, &col.IsNullable,
		&col.IsPrimaryKey, &col.IsForeignKey, &col.ReferencedTable, &col.ReferencedColumn,
		&col.Comment, &descJSON, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(descJSON) > 0 {
		var desc models.ColumnAIDescription
		if err := json.Unmarshal(descJSON, &desc); err != nil {
			return nil, fmt.Errorf("unmarshal column description: %w", err)
		}
		col.AIDescription = &desc
	}
	return &col, nil
}
