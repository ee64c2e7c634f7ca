package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/llm"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/repositories"
)

// InferenceResult is the outcome of one relationship inference run.
type InferenceResult struct {
	Created  []*models.Relationship `json:"created"`
	Skipped  int                    `json:"skipped"`
	Analysis string                 `json:"analysis,omitempty"`
	Usage    models.TokenUsage      `json:"usage"`
}

// RelationshipService infers and manages cross-table relationships within
// an environment.
type RelationshipService interface {
	// InferRelationships proposes relationships across all imported tables
	// of the environment and persists the new ones. Requires at least two
	// tables; candidates naming unknown tables or columns are dropped, and
	// duplicates of stored relationships are skipped.
	InferRelationships(ctx context.Context, environmentID uuid.UUID) (*InferenceResult, error)

	// ListRelationships returns all stored relationships of an environment.
	ListRelationships(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error)

	// VerifyRelationship marks a relationship as human-confirmed or not.
	VerifyRelationship(ctx context.Context, id uuid.UUID, verified bool) error

	// DeleteRelationship removes a relationship.
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
}

type relationshipService struct {
	tables        repositories.TableRepository
	columns       repositories.ColumnRepository
	relationships repositories.RelationshipRepository
	reasoner      llm.ReasoningService
	logger        *zap.Logger
}

// NewRelationshipService creates the relationship inference service.
func NewRelationshipService(
	tables repositories.TableRepository,
	columns repositories.ColumnRepository,
	relationships repositories.RelationshipRepository,
	reasoner llm.ReasoningService,
	logger *zap.Logger,
) RelationshipService {
	return &relationshipService{
		tables:        tables,
		columns:       columns,
		relationships: relationships,
		reasoner:      reasoner,
		logger:        logger.Named("relationship-service"),
	}
}

var _ RelationshipService = (*relationshipService)(nil)

// tableIndex resolves candidate table and column names against the
// imported schema, case-insensitively.
type tableIndex struct {
	tables  map[string]*models.Table
	columns map[string]map[string]bool
}

func (idx *tableIndex) resolve(tableName, columnName string) (*models.Table, bool) {
	table, ok := idx.tables[strings.ToLower(tableName)]
	if !ok {
		return nil, false
	}
	if !idx.columns[strings.ToLower(tableName)][strings.ToLower(columnName)] {
		return nil, false
	}
	return table, true
}

func (s *relationshipService) InferRelationships(ctx context.Context, environmentID uuid.UUID) (*InferenceResult, error) {
	tables, err := s.tables.ListByEnvironment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	if len(tables) < 2 {
		return nil, apperrors.ErrInsufficientTables
	}

	schemas := make([]llm.TableSchema, 0, len(tables))
	idx := &tableIndex{
		tables:  make(map[string]*models.Table, len(tables)),
		columns: make(map[string]map[string]bool, len(tables)),
	}

	for _, table := range tables {
		cols, err := s.columns.ListByTable(ctx, table.ID)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(table.Name)
		idx.tables[key] = table
		idx.columns[key] = make(map[string]bool, len(cols))

		schema := llm.TableSchema{Name: table.Name, Columns: make([]llm.SchemaColumn, len(cols))}
		for i, col := range cols {
			idx.columns[key][strings.ToLower(col.Name)] = true
			schema.Columns[i] = llm.SchemaColumn{
				Name:         col.Name,
				DataType:     col.DataType,
				IsPrimaryKey: col.IsPrimaryKey,
			}
		}
		schemas = append(schemas, schema)
	}

	proposal, err := s.reasoner.GenerateStructuredRelationships(ctx, schemas)
	if err != nil {
		return nil, fmt.Errorf("infer relationships: %w", err)
	}

	result := &InferenceResult{
		Analysis: proposal.Analysis,
		Usage: models.TokenUsage{
			PromptTokens:     proposal.Usage.PromptTokens,
			CompletionTokens: proposal.Usage.CompletionTokens,
			TotalTokens:      proposal.Usage.TotalTokens,
		},
	}

	for _, candidate := range proposal.Relationships {
		source, ok := idx.resolve(candidate.SourceTable, candidate.SourceColumn)
		if !ok {
			s.logger.Debug("Dropping candidate with unknown source",
				zap.String("table", candidate.SourceTable),
				zap.String("column", candidate.SourceColumn))
			result.Skipped++
			continue
		}
		target, ok := idx.resolve(candidate.TargetTable, candidate.TargetColumn)
		if !ok {
			s.logger.Debug("Dropping candidate with unknown target",
				zap.String("table", candidate.TargetTable),
				zap.String("column", candidate.TargetColumn))
			result.Skipped++
			continue
		}

		exists, err := s.relationships.Exists(ctx, environmentID,
			source.ID, candidate.SourceColumn, target.ID, candidate.TargetColumn)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		rel := &models.Relationship{
			EnvironmentID: environmentID,
			SourceTableID: source.ID,
			SourceColumn:  candidate.SourceColumn,
			TargetTableID: target.ID,
			TargetColumn:  candidate.TargetColumn,
			Kind:          models.ParseRelationshipKind(candidate.Kind),
			Confidence:    candidate.Confidence,
			Description:   candidate.Description,
			Example:       candidate.Example,
			IsVerified:    false,
		}
		if err := s.relationships.Create(ctx, rel); err != nil {
			// A concurrent run may have stored the same tuple between the
			// Exists check and the insert.
			if errors.Is(err, apperrors.ErrConflict) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Created = append(result.Created, rel)
	}

	s.logger.Info("Relationship inference completed",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
		zap.Int("tokens", result.Usage.TotalTokens))
	return result, nil
}

func (s *relationshipService) ListRelationships(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error) {
	return s.relationships.ListByEnvironment(ctx, environmentID)
}

func (s *relationshipService) VerifyRelationship(ctx context.Context, id uuid.UUID, verified bool) error {
	return s.relationships.SetVerified(ctx, id, verified)
}

func (s *relationshipService) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	return s.relationships.Delete(ctx, id)
}
