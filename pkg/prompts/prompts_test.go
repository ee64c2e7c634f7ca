package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildColumnDescriptionPrompt(t *testing.T) {
	prompt := BuildColumnDescriptionPrompt(ColumnDescriptionPromptInput{
		TableName:    "users",
		ColumnName:   "email",
		DataType:     "text",
		IsNullable:   true,
		SampleValues: []string{"a@x.com", "b@x.com"},
	})

	assert.Contains(t, prompt, "Table: users")
	assert.Contains(t, prompt, "Column: email")
	assert.Contains(t, prompt, "Declared type: text")
	assert.Contains(t, prompt, "Nullable: true")
	assert.Contains(t, prompt, "Sample values: a@x.com, b@x.com")
	assert.NotContains(t, prompt, "Additional guidance")
}

func TestBuildColumnDescriptionPrompt_CapsSamples(t *testing.T) {
	prompt := BuildColumnDescriptionPrompt(ColumnDescriptionPromptInput{
		TableName:    "users",
		ColumnName:   "email",
		SampleValues: []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7"},
	})

	assert.Contains(t, prompt, "v5")
	assert.NotContains(t, prompt, "v6")
}

func TestBuildColumnDescriptionPrompt_NoSamples(t *testing.T) {
	prompt := BuildColumnDescriptionPrompt(ColumnDescriptionPromptInput{
		TableName:  "users",
		ColumnName: "email",
	})
	assert.Contains(t, prompt, "Sample values: (none available)")
}

func TestBuildColumnDescriptionPrompt_CustomGuidance(t *testing.T) {
	prompt := BuildColumnDescriptionPrompt(ColumnDescriptionPromptInput{
		TableName:    "users",
		ColumnName:   "email",
		CustomPrompt: "This is a healthcare dataset.",
	})
	assert.Contains(t, prompt, "Additional guidance: This is a healthcare dataset.")
}

func TestBuildTableAnalysisPrompt(t *testing.T) {
	prompt := BuildTableAnalysisPrompt("orders", []TableAnalysisField{
		{Name: "id", DataType: "uuid", IsPrimaryKey: true},
		{Name: "total", DataType: "numeric", Description: "Order total in cents"},
	}, 1200, "")

	assert.Contains(t, prompt, "Table: orders")
	assert.Contains(t, prompt, "Row count: 1200")
	assert.Contains(t, prompt, "- id (uuid) [primary key]")
	assert.Contains(t, prompt, "- total (numeric): Order total in cents")
	assert.NotContains(t, prompt, "Note:")
}

func TestBuildTableAnalysisPrompt_WithNote(t *testing.T) {
	prompt := BuildTableAnalysisPrompt("orders", nil, 0, "no sample data available")
	assert.Contains(t, prompt, "Note: no sample data available")
}

func TestBuildRelationshipInferencePrompt(t *testing.T) {
	prompt := BuildRelationshipInferencePrompt([]RelationshipTable{
		{Name: "orders", Columns: []RelationshipColumn{
			{Name: "id", DataType: "uuid", IsPrimaryKey: true},
			{Name: "customer_id", DataType: "uuid"},
		}},
		{Name: "customers", Columns: []RelationshipColumn{
			{Name: "id", DataType: "uuid", IsPrimaryKey: true},
		}},
	})

	assert.Contains(t, prompt, "Table orders:")
	assert.Contains(t, prompt, "Table customers:")
	assert.Contains(t, prompt, "- customer_id (uuid)")
	// orders appears before customers, mirroring the input order.
	assert.Less(t, strings.Index(prompt, "Table orders:"), strings.Index(prompt, "Table customers:"))
}

func TestSystemMessagesDemandStructuredOutput(t *testing.T) {
	assert.Contains(t, ColumnDescriptionSystemMessage(), "JSON")
	assert.Contains(t, RelationshipInferenceSystemMessage(), "relationships")
	assert.Contains(t, TableAnalysisSystemMessage(), "plain text")
}
