package models

import (
	"time"

	"github.com/google/uuid"
)

// ColumnAIDescription is the structured triple produced by the reasoning
// service for a column. It is written atomically: a stored description is
// always a complete triple, never partially written.
type ColumnAIDescription struct {
	Purpose      string `json:"purpose"`
	ExampleValue string `json:"example_value,omitempty"`
	ValuePattern string `json:"value_pattern,omitempty"`
}

// Column is an imported source column. Created during import; the AI
// description is mutated only by the analysis orchestrator.
type Column struct {
	ID               uuid.UUID            `json:"id"`
	TableID          uuid.UUID            `json:"table_id"`
	Name             string               `json:"name"`
	DataType         string               `json:"data_type"`
	IsNullable       bool                 `json:"is_nullable"`
	IsPrimaryKey     bool                 `json:"is_primary_key"`
	IsForeignKey     bool                 `json:"is_foreign_key"`
	ReferencedTable  string               `json:"referenced_table,omitempty"`
	ReferencedColumn string               `json:"referenced_column,omitempty"`
	Comment          string               `json:"comment,omitempty"`
	AIDescription    *ColumnAIDescription `json:"ai_description,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
