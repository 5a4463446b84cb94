package catalog

import (
	"fmt"
	"strings"
)

// RuleViolation describes one invalid field on one rule.
type RuleViolation struct {
	RuleID string // may be empty when the id itself is missing
	Index  int    // position of the rule in the load input
	Field  string
	Reason string
}

func (v RuleViolation) String() string {
	id := v.RuleID
	if id == "" {
		id = fmt.Sprintf("rule[%d]", v.Index)
	}
	return fmt.Sprintf("%s: %s: %s", id, v.Field, v.Reason)
}

// CatalogError rejects an entire catalog load. A single invalid rule fails
// the whole load; no partial catalog is ever installed.
type CatalogError struct {
	Violations []RuleViolation
}

func (e *CatalogError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("catalog rejected: %s", e.Violations[0])
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("catalog rejected (%d violations): %s",
		len(e.Violations), strings.Join(parts, "; "))
}
