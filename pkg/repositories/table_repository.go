package repositories

import (
	"context"
	"encoding/json"
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

// TableRepository defines data access for imported tables and their
// analysis lifecycle. The analysis result is stored as JSONB.
type TableRepository interface {
	// Create inserts a new table in PENDING state.
	Create(ctx context.Context, table *models.Table) error

	// GetByID retrieves a table by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Table, error)

	// ListByEnvironment retrieves all tables of one environment.
	ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error)

	// MarkAnalyzing moves the table to ANALYZING and clears any previous
	// result and error so a rerun starts clean.
	MarkAnalyzing(ctx context.Context, id uuid.UUID) error

	// CompleteAnalysis stores the result, updates the description, and
	// moves the table to COMPLETED.
	CompleteAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, description string) error

	// FailAnalysis records the failure reason and moves the table to FAILED.
	FailAnalysis(ctx context.Context, id uuid.UUID, analysisError string) error

	// UpdateDescription sets a user-provided description.
	UpdateDescription(ctx context.Context, id uuid.UUID, description string) error

	// Delete removes the table, its columns, and any relationship touching
	// it, atomically.
	Delete(ctx context.Context, id uuid.UUID) error
}

type tableRepository struct {
	db *database.DB
}

// NewTableRepository creates a new table repository.
func NewTableRepository(db *database.DB) TableRepository {
	return &tableRepository{db: db}
}

var _ TableRepository = (*tableRepository)(nil)

func (r *tableRepository) Create(ctx context.Context, table *models.Table) error {
	now := time.Now()
	table.CreatedAt = now
	table.UpdatedAt = now
	if table.AnalysisStatus == "" {
		table.AnalysisStatus = models.AnalysisPending
	}

	query := `
		INSERT INTO tables (environment_id, schema_name, name, description, analysis_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		table.EnvironmentID, table.SchemaName, table.Name, table.Description,
		table.AnalysisStatus, table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("create table record: %w", err)
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	query := `
		SELECT id, environment_id, schema_name, name, description, analysis_status,
			analysis_result, COALESCE(analysis_error, ''), created_at, updated_at
		FROM tables
		WHERE id = $1`

	table, err := scanTable(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	return table, nil
}

func (r *tableRepository) ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error) {
	query := `
		SELECT id, environment_id, schema_name, name, description, analysis_status,
			analysis_result, COALESCE(analysis_error, ''), created_at, updated_at
		FROM tables
		WHERE environment_id = $1
		ORDER BY schema_name, name`

	rows, err := r.db.Query(ctx, query, environmentID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (r *tableRepository) MarkAnalyzing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tables
		SET analysis_status = $1, analysis_result = NULL, analysis_error = '', updated_at = $2
		WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, models.AnalysisAnalyzing, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark table analyzing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) CompleteAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, description string) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	query := `
		UPDATE tables
		SET analysis_status = $1, analysis_result = $2, analysis_error = '', description = $3, updated_at = $4
		WHERE id = $5`

	tag, err := r.db.Exec(ctx, query, models.AnalysisCompleted, resultJSON, description, time.Now(), id)
	if err != nil {
		return fmt.Errorf("complete table analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) FailAnalysis(ctx context.Context, id uuid.UUID, analysisError string) error {
	query := `
		UPDATE tables
		SET analysis_status = $1, analysis_error = $2, updated_at = $3
		WHERE id = $4`

	tag, err := r.db.Exec(ctx, query, models.AnalysisFailed, analysisError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("fail table analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tables SET description = $1, updated_at = $2 WHERE id = $3`,
		description, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update table description: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	if _, err := tx.Exec(ctx,
		`DELETE FROM relationships WHERE source_table_id = $1 OR target_table_id = $1`, id); err != nil {
		return fmt.Errorf("delete table relationships: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM columns WHERE table_id = $1`, id); err != nil {
		return fmt.Errorf("delete table columns: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanTable(row pgx.Row) (*models.Table, error) {
	var table models.Table
	var resultJSON []byte
	err := row.Scan(&table.ID, &table.EnvironmentID, &table.SchemaName, &table.Name,
		&table.Description, &table.AnalysisStatus, &resultJSON, &table.AnalysisError,
		&table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		var result models.AnalysisResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		table.AnalysisResult = &result
	}
	return &table, nil
}
