package prompts

import (
	"fmt"
	"strings"
)

// TableAnalysisSystemMessage instructs the model to summarize a table.
func TableAnalysisSystemMessage() string {
	return `You are a database documentation assistant. Given a table's fields and row count, write a concise summary (2-4 sentences) of the table's business purpose and notable data patterns. Respond with plain text only, no JSON, no markdown.`
}

// TableAnalysisField describes one field in the table-level prompt.
type TableAnalysisField struct {
	Name         string
	DataType     string
	IsPrimaryKey bool
	Description  string
}

// BuildTableAnalysisPrompt renders the table-level summary prompt.
func BuildTableAnalysisPrompt(tableName string, fields []TableAnalysisField, rowCount int64, note string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n", tableName)
	fmt.Fprintf(&b, "Row count: %d\n", rowCount)
	b.WriteString("Fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "  - %s (%s)", f.Name, f.DataType)
		if f.IsPrimaryKey {
			b.WriteString(" [primary key]")
		}
		if f.Description != "" {
			fmt.Fprintf(&b, ": %s", f.Description)
		}
		b.WriteString("\n")
	}
	if note != "" {
		fmt.Fprintf(&b, "Note: %s\n", note)
	}

	b.WriteString("\nSummarize the business purpose and data patterns of this table.")
	return b.String()
}
