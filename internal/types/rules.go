package types

import "fmt"

/*
 * Domain types for rule evaluation.
 *
 * RuleDefinition mirrors one row of the rule sheet. Constraint values are
 * kept as raw sheet tokens; coercion against the target column's kind
 * happens during evaluation (internal/rules/coercion.go) so that type
 * handling lives in exactly one place.
 *
 * Dependencies: None (standard library only).
 */

// ConstraintKind identifies one of the independent checks a rule can carry.
// The numeric order is the canonical report order: allowed, contains,
// not_empty.
type ConstraintKind int

const (
	ConstraintAllowed ConstraintKind = iota
	ConstraintContains
	ConstraintNotEmpty
)

// String returns the sheet-facing constraint name.
func (c ConstraintKind) String() string {
	switch c {
	case ConstraintAllowed:
		return "allowed"
	case ConstraintContains:
		return "contains"
	case ConstraintNotEmpty:
		return "not_empty"
	default:
		return "unknown"
	}
}

// RuleDefinition is one row of the rule sheet. Index is the 1-based position
// in the sheet and identifies the rule in reports; rules have no other ID.
type RuleDefinition struct {
	Index    int
	Column   string   // target column the constraints apply to
	Scope    string   // raw scope expression ("" = all records)
	Allowed  []string // allowed-values list (nil = constraint absent)
	Contains []string // required-values list (nil = constraint absent)
	NotEmpty bool
}

// Label returns the human-readable rule identifier used in reports.
func (r RuleDefinition) Label() string {
	return fmt.Sprintf("rule %d (%s)", r.Index, r.Column)
}

// HasConstraints reports whether any constraint kind is present.
// A rule without constraints is a sheet authoring no-op and produces no
// report entries.
func (r RuleDefinition) HasConstraints() bool {
	return len(r.Allowed) > 0 || len(r.Contains) > 0 || r.NotEmpty
}

// Constraints returns the kinds present on this rule in canonical order.
func (r RuleDefinition) Constraints() []ConstraintKind {
	kinds := make([]ConstraintKind, 0, 3)
	if len(r.Allowed) > 0 {
		kinds = append(kinds, ConstraintAllowed)
	}
	if len(r.Contains) > 0 {
		kinds = append(kinds, ConstraintContains)
	}
	if r.NotEmpty {
		kinds = append(kinds, ConstraintNotEmpty)
	}
	return kinds
}
