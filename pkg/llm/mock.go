package llm

import (
	"context"
)

// MockClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	GenerateResponseCalls int
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// GenerateResponse implements Client.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)

// MockReasoningService is a configurable mock for the high-level
// reasoning-service contract.
type MockReasoningService struct {
	// GenerateBriefColumnDescriptionFunc is called per column.
	// If nil, returns a generic description.
	GenerateBriefColumnDescriptionFunc func(ctx context.Context, req ColumnDescriptionRequest) (*ColumnDescription, error)

	// AnalyzeTableFunc is called for the table-level summary.
	// If nil, returns a generic summary.
	AnalyzeTableFunc func(ctx context.Context, req TableAnalysisRequest) (*TableAnalysis, error)

	// GenerateStructuredRelationshipsFunc is called for relationship
	// inference. If nil, returns an empty proposal.
	GenerateStructuredRelationshipsFunc func(ctx context.Context, tables []TableSchema) (*RelationshipProposal, error)

	// Call tracking for verification
	ColumnDescriptionCalls int
	AnalyzeTableCalls      int
	RelationshipCalls      int
}

// NewMockReasoningService creates a new mock reasoning service.
func NewMockReasoningService() *MockReasoningService {
	return &MockReasoningService{}
}

// GenerateBriefColumnDescription implements ReasoningService.
func (m *MockReasoningService) GenerateBriefColumnDescription(ctx context.Context, req ColumnDescriptionRequest) (*ColumnDescription, error) {
	m.ColumnDescriptionCalls++
	if m.GenerateBriefColumnDescriptionFunc != nil {
		return m.GenerateBriefColumnDescriptionFunc(ctx, req)
	}
	return &ColumnDescription{
		Description:  "Column " + req.ColumnName + " of table " + req.TableName,
		ExampleValue: firstOrEmpty(req.SampleValues),
		ValueType:    "free_text",
	}, nil
}

// AnalyzeTable implements ReasoningService.
func (m *MockReasoningService) AnalyzeTable(ctx context.Context, req TableAnalysisRequest) (*TableAnalysis, error) {
	m.AnalyzeTableCalls++
	if m.AnalyzeTableFunc != nil {
		return m.AnalyzeTableFunc(ctx, req)
	}
	return &TableAnalysis{Content: "Table " + req.TableName + " stores business records."}, nil
}

// GenerateStructuredRelationships implements ReasoningService.
func (m *MockReasoningService) GenerateStructuredRelationships(ctx context.Context, tables []TableSchema) (*RelationshipProposal, error) {
	m.RelationshipCalls++
	if m.GenerateStructuredRelationshipsFunc != nil {
		return m.GenerateStructuredRelationshipsFunc(ctx, tables)
	}
	return &RelationshipProposal{}, nil
}

func firstOrEmpty(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// Ensure MockReasoningService implements ReasoningService at compile time.
var _ ReasoningService = (*MockReasoningService)(nil)
