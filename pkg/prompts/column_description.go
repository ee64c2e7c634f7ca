// Package prompts builds the reasoning-service prompts used by the
// schema intelligence pipeline.
package prompts

import (
	"fmt"
	"strings"
)

// ColumnDescriptionSystemMessage instructs the model to return the
// structured triple for a single column.
func ColumnDescriptionSystemMessage() string {
	return `You are a database documentation assistant. Given one column of a database table plus sample values, respond with a single JSON object and nothing else:
{"description": "<one sentence describing the column's business purpose>", "example_value": "<one representative value>", "value_type": "<a short tag for the value pattern, e.g. identifier, numeric, currency, date, email, enum, free_text, boolean, json>"}`
}

// ColumnDescriptionPromptInput carries the context for one column.
type ColumnDescriptionPromptInput struct {
	TableName    string
	ColumnName   string
	DataType     string
	IsNullable   bool
	IsPrimaryKey bool
	SampleValues []string
	CustomPrompt string
}

// BuildColumnDescriptionPrompt renders the per-column prompt.
// At most 5 sample values are included.
func BuildColumnDescriptionPrompt(in ColumnDescriptionPromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n", in.TableName)
	fmt.Fprintf(&b, "Column: %s\n", in.ColumnName)
	fmt.Fprintf(&b, "Declared type: %s\n", in.DataType)
	fmt.Fprintf(&b, "Nullable: %t\n", in.IsNullable)
	fmt.Fprintf(&b, "Primary key: %t\n", in.IsPrimaryKey)

	samples := in.SampleValues
	if len(samples) > 5 {
		samples = samples[:5]
	}
	if len(samples) > 0 {
		fmt.Fprintf(&b, "Sample values: %s\n", strings.Join(samples, ", "))
	} else {
		b.WriteString("Sample values: (none available)\n")
	}

	if in.CustomPrompt != "" {
		fmt.Fprintf(&b, "\nAdditional guidance: %s\n", in.CustomPrompt)
	}

	b.WriteString("\nDescribe this column as specified.")
	return b.String()
}
