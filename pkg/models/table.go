package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus is the table analysis state machine.
// PENDING -> ANALYZING -> {COMPLETED | FAILED}; COMPLETED and FAILED are
// terminal until a new analysis request resets the table to ANALYZING.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "PENDING"
	AnalysisAnalyzing AnalysisStatus = "ANALYZING"
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisFailed    AnalysisStatus = "FAILED"
)

// Table is an imported source table tracked for analysis.
// Belongs to exactly one Environment.
type Table struct {
	ID             uuid.UUID       `json:"id"`
	EnvironmentID  uuid.UUID       `json:"environment_id"`
	SchemaName     string          `json:"schema_name,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	AnalysisStatus AnalysisStatus  `json:"analysis_status"`
	AnalysisResult *AnalysisResult `json:"analysis_result,omitempty"`
	AnalysisError  string          `json:"analysis_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TokenUsage records reasoning-service token consumption for one analysis.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ColumnFinding is the per-column outcome of one analysis run.
// Failed findings carry the fallback description plus the error marker.
type ColumnFinding struct {
	ColumnName   string `json:"column_name"`
	Description  string `json:"description"`
	ExampleValue string `json:"example_value,omitempty"`
	ValuePattern string `json:"value_pattern,omitempty"`
	Failed       bool   `json:"failed,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AnalysisResult is the structured outcome of a completed analysis run,
// persisted as JSONB on the table row.
type AnalysisResult struct {
	Summary               string          `json:"summary"`
	ColumnsAnalyzed       int             `json:"columns_analyzed"`
	ColumnFindings        []ColumnFinding `json:"column_findings"`
	SuggestedImprovements []string        `json:"suggested_improvements,omitempty"`
	AnalyzedAt            time.Time       `json:"analyzed_at"`
	Usage                 TokenUsage      `json:"usage"`
}
