package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/services"
)

// fakeAnalysisService is a function-field mock of services.AnalysisService.
type fakeAnalysisService struct {
	AnalyzeTableFunc            func(ctx context.Context, tableID uuid.UUID, customPrompt string) (*models.Table, error)
	GetTableFunc                func(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
	ListTablesFunc              func(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error)
	DeleteTableFunc             func(ctx context.Context, tableID uuid.UUID) error
	UpdateTableDescriptionFunc  func(ctx context.Context, tableID uuid.UUID, description string) error
	ListColumnsFunc             func(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)
	UpdateColumnDescriptionFunc func(ctx context.Context, columnID uuid.UUID, desc *models.ColumnAIDescription) error
}

var _ services.AnalysisService = (*fakeAnalysisService)(nil)

func (f *fakeAnalysisService) AnalyzeTable(ctx context.Context, tableID uuid.UUID, customPrompt string) (*models.Table, error) {
	return f.AnalyzeTableFunc(ctx, tableID, customPrompt)
}

func (f *fakeAnalysisService) GetTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	return f.GetTableFunc(ctx, tableID)
}

func (f *fakeAnalysisService) ListTables(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error) {
	return f.ListTablesFunc(ctx, environmentID)
}

func (f *fakeAnalysisService) DeleteTable(ctx context.Context, tableID uuid.UUID) error {
	return f.DeleteTableFunc(ctx, tableID)
}

func (f *fakeAnalysisService) UpdateTableDescription(ctx context.Context, tableID uuid.UUID, description string) error {
	return f.UpdateTableDescriptionFunc(ctx, tableID, description)
}

func (f *fakeAnalysisService) ListColumns(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	return f.ListColumnsFunc(ctx, tableID)
}

func (f *fakeAnalysisService) UpdateColumnDescription(ctx context.Context, columnID uuid.UUID, desc *models.ColumnAIDescription) error {
	return f.UpdateColumnDescriptionFunc(ctx, columnID, desc)
}

// fakeRelationshipService is a function-field mock of services.RelationshipService.
type fakeRelationshipService struct {
	InferRelationshipsFunc func(ctx context.Context, environmentID uuid.UUID) (*services.InferenceResult, error)
	ListRelationshipsFunc  func(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error)
	VerifyRelationshipFunc func(ctx context.Context, id uuid.UUID, verified bool) error
	DeleteRelationshipFunc func(ctx context.Context, id uuid.UUID) error
}

var _ services.RelationshipService = (*fakeRelationshipService)(nil)

func (f *fakeRelationshipService) InferRelationships(ctx context.Context, environmentID uuid.UUID) (*services.InferenceResult, error) {
	return f.InferRelationshipsFunc(ctx, environmentID)
}

func (f *fakeRelationshipService) ListRelationships(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error) {
	return f.ListRelationshipsFunc(ctx, environmentID)
}

func (f *fakeRelationshipService) VerifyRelationship(ctx context.Context, id uuid.UUID, verified bool) error {
	return f.VerifyRelationshipFunc(ctx, id, verified)
}

func (f *fakeRelationshipService) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	return f.DeleteRelationshipFunc(ctx, id)
}
