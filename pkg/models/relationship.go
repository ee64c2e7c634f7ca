package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RelationshipKind classifies an inferred or confirmed table link.
type RelationshipKind string

const (
	OneToOne   RelationshipKind = "ONE_TO_ONE"
	OneToMany  RelationshipKind = "ONE_TO_MANY"
	ManyToMany RelationshipKind = "MANY_TO_MANY"
)

// ParseRelationshipKind maps the reasoning service's free-form kind
// vocabulary onto the stored enum. Unknown kinds default to ONE_TO_MANY.
func ParseRelationshipKind(raw string) RelationshipKind {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))) {
	case "one_to_one", "1:1", "one to one":
		return OneToOne
	case "many_to_many", "n:m", "m:n", "many to many":
		return ManyToMany
	case "one_to_many", "1:n", "1:m", "one to many", "many_to_one", "n:1", "many to one":
		return OneToMany
	default:
		return OneToMany
	}
}

// Relationship is a directed edge between two tables' columns within one
// environment. No two relationships may share (source table, source column,
// target table, target column) in the same environment; the metadata store
// enforces this with a unique index.
type Relationship struct {
	ID            uuid.UUID        `json:"id"`
	EnvironmentID uuid.UUID        `json:"environment_id"`
	SourceTableID uuid.UUID        `json:"source_table_id"`
	SourceColumn  string           `json:"source_column"`
	TargetTableID uuid.UUID        `json:"target_table_id"`
	TargetColumn  string           `json:"target_column"`
	Kind          RelationshipKind `json:"kind"`
	Confidence    float64          `json:"confidence"`
	Description   string           `json:"description,omitempty"`
	Example       string           `json:"example,omitempty"`
	IsVerified    bool             `json:"is_verified"`
	CreatedAt     time.Time        `json:"created_at"`
}
