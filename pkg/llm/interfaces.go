// Package llm provides the reasoning-service collaborator used to turn
// structured schema and sample input into descriptive metadata.
package llm

import (
	"context"
)

// GenerateResponseResult holds a chat completion plus token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client defines the low-level interface for LLM chat operations.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// ColumnDescriptionRequest carries the context for one column's
// description call.
type ColumnDescriptionRequest struct {
	TableName    string
	ColumnName   string
	DataType     string
	IsNullable   bool
	IsPrimaryKey bool
	SampleValues []string
	CustomPrompt string
}

// ColumnDescription is the structured triple returned for a column.
// Usage is filled in from the completion response, not from the model's
// JSON output.
type ColumnDescription struct {
	Description  string `json:"description"`
	ExampleValue string `json:"example_value"`
	ValueType    string `json:"value_type"`
	Usage        Usage  `json:"-"`
}

// TableField describes one column in a table-level analysis request.
type TableField struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	Description  string `json:"description,omitempty"`
}

// TableAnalysisRequest carries the context for a table-level summary call.
type TableAnalysisRequest struct {
	TableName string
	Fields    []TableField
	RowCount  int64
	Note      string // e.g. "no sample data available"
}

// TableAnalysis is the table-level summary plus usage.
type TableAnalysis struct {
	Content string
	Usage   Usage
}

// Usage records token consumption for one reasoning call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TableSchema is the compact schema description supplied to relationship
// inference: table name plus column name/type/primary-key flags.
type TableSchema struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaColumn is one column in a TableSchema.
type SchemaColumn struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// RelationshipCandidate is one proposed cross-table link.
type RelationshipCandidate struct {
	SourceTable  string  `json:"source_table"`
	SourceColumn string  `json:"source_column"`
	TargetTable  string  `json:"target_table"`
	TargetColumn string  `json:"target_column"`
	Kind         string  `json:"relationship_type"`
	Confidence   float64 `json:"confidence"`
	Description  string  `json:"description"`
	Example      string  `json:"example,omitempty"`
}

// RelationshipProposal is the full relationship inference response.
type RelationshipProposal struct {
	Relationships []RelationshipCandidate
	Analysis      string
	Usage         Usage
}

// ReasoningService is the collaborator contract consumed by the pipeline.
// All calls are request/response, no streaming.
type ReasoningService interface {
	// GenerateBriefColumnDescription produces a structured triple for one column.
	GenerateBriefColumnDescription(ctx context.Context, req ColumnDescriptionRequest) (*ColumnDescription, error)

	// AnalyzeTable produces a business-purpose summary across all fields.
	AnalyzeTable(ctx context.Context, req TableAnalysisRequest) (*TableAnalysis, error)

	// GenerateStructuredRelationships proposes candidate cross-table links.
	GenerateStructuredRelationships(ctx context.Context, tables []TableSchema) (*RelationshipProposal, error)
}
