package engine

import "strings"

// SchemaFilter controls which schemas appear in table listings.
// Precedence: a non-empty include-list wins outright (exclusive);
// otherwise the engine's default system-schema excludes are applied
// together with the user exclude-list (additive).
type SchemaFilter struct {
	IncludeSchemas []string
	ExcludeSchemas []string
}

// Allowed reports whether schemaName passes the filter given the engine's
// default system-schema excludes. Matching is case-insensitive.
func (f SchemaFilter) Allowed(schemaName string, defaultExcludes []string) bool {
	if len(f.IncludeSchemas) > 0 {
		return containsFold(f.IncludeSchemas, schemaName)
	}
	if containsFold(defaultExcludes, schemaName) {
		return false
	}
	return !containsFold(f.ExcludeSchemas, schemaName)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
