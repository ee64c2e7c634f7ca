package prompts

import (
	"fmt"
	"strings"
)

// RelationshipInferenceSystemMessage instructs the model to propose
// candidate foreign-key-like links across tables.
func RelationshipInferenceSystemMessage() string {
	return `You are a database schema analyst. Given the tables and columns of one database environment, propose likely relationships between tables (foreign-key-like links), even where no constraint is declared. Respond with a single JSON object and nothing else:
{
  "relationships": [
    {"source_table": "...", "source_column": "...", "target_table": "...", "target_column": "...", "relationship_type": "one_to_one|one_to_many|many_to_many", "confidence": 0.0, "description": "...", "example": "..."}
  ],
  "analysis": "<short overall assessment of the schema's structure>"
}
Only propose relationships between the tables and columns provided. Confidence is between 0 and 1.`
}

// RelationshipTable is one table in the compact schema description.
type RelationshipTable struct {
	Name    string
	Columns []RelationshipColumn
}

// RelationshipColumn is one column in a RelationshipTable.
type RelationshipColumn struct {
	Name         string
	DataType     string
	IsPrimaryKey bool
}

// BuildRelationshipInferencePrompt renders the compact schema description
// for the single relationship inference call.
func BuildRelationshipInferencePrompt(tables []RelationshipTable) string {
	var b strings.Builder

	b.WriteString("Database schema:\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "\nTable %s:\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s)", c.Name, c.DataType)
			if c.IsPrimaryKey {
				b.WriteString(" [primary key]")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nPropose the relationships as specified.")
	return b.String()
}
