// internal/rules/scope.go
package rules

import (
	"fmt"
	"strings"

	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Scope expression parsing.
 *
 * Translates the human-authored scope cell of a rule row into a tagged
 * ScopePlan variant. The grammar is small and closed:
 *
 *   scope      = ""                                        -> AllRecords
 *              | "each date of: " column [where-clause]    -> PartitionByDate
 *              | "each month of: " column [where-clause]   -> PartitionByMonth
 *              | "all dates in range: " comparison         -> Predicate
 *              | comparison                                -> Predicate
 *   where-clause = " where " comparison
 *   comparison   = column op literal        op in > >= < <= ==
 *
 * Anything else is ErrScopeSyntax naming the offending expression - never a
 * silent misinterpretation. Parsing is pure and independent of the dataset;
 * column existence and kind checks happen at Bind time so that a syntax
 * error and a missing column report under distinct codes.
 *
 * Combined scope + filter: a where-clause on an each-* production applies
 * the filter BEFORE partitioning (filter-then-group precedence). A trailing
 * where-clause on a bare comparison is not a production and fails to parse.
 */

// ScopeKind discriminates the ScopePlan variant.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeEachDate
	ScopeEachMonth
	ScopePredicate
)

// Predicate is one parsed comparison. Literal stays a raw token; it is
// coerced against the column's kind at Bind time.
type Predicate struct {
	Column  string
	Op      Operator
	Literal string
}

// Label returns the normalized comparison text used as a partition key.
func (p *Predicate) Label() string {
	return fmt.Sprintf("%s %s '%s'", p.Column, p.Op, p.Literal)
}

// ScopePlan is the resolved form of a scope expression.
type ScopePlan struct {
	Kind      ScopeKind
	KeyColumn string     // grouping column for each-* variants
	Filter    *Predicate // predicate variant, or pre-partition filter
	Label     string     // human-readable scope label for report entries
}

const (
	prefixEachDate  = "each date of:"
	prefixEachMonth = "each month of:"
	prefixEach      = "each"
	prefixDateRange = "all dates in range:"
	whereSeparator  = " where "
)

// ParseScope resolves a scope expression string into a ScopePlan.
// Pure and deterministic: no dataset access, no side effects.
func ParseScope(expr string) (*ScopePlan, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return &ScopePlan{Kind: ScopeAll, Label: "all records"}, nil
	}

	switch {
	case strings.HasPrefix(trimmed, prefixEachDate):
		return parseEach(trimmed, ScopeEachDate, prefixEachDate)
	case strings.HasPrefix(trimmed, prefixEachMonth):
		return parseEach(trimmed, ScopeEachMonth, prefixEachMonth)
	case strings.HasPrefix(trimmed, prefixEach):
		// "each" with any other continuation is reserved, not a comparison
		return nil, scopeErr(trimmed, "only 'each date of:' and 'each month of:' are supported")
	case strings.HasPrefix(trimmed, prefixDateRange):
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, prefixDateRange))
		pred, err := parseComparison(rest)
		if err != nil {
			return nil, scopeErr(trimmed, "expected a comparison after 'all dates in range:'")
		}
		return &ScopePlan{Kind: ScopePredicate, Filter: pred, Label: trimmed}, nil
	default:
		pred, err := parseComparison(trimmed)
		if err != nil {
			return nil, scopeErr(trimmed, "not a recognized scope form")
		}
		return &ScopePlan{Kind: ScopePredicate, Filter: pred, Label: trimmed}, nil
	}
}

// parseEach handles the two partition-by-key productions, including the
// optional where-clause.
func parseEach(expr string, kind ScopeKind, prefix string) (*ScopePlan, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(expr, prefix))
	if rest == "" {
		return nil, scopeErr(expr, "missing column name")
	}

	plan := &ScopePlan{Kind: kind, Label: expr}

	if idx := strings.Index(rest, whereSeparator); idx >= 0 {
		column := strings.TrimSpace(rest[:idx])
		pred, err := parseComparison(rest[idx+len(whereSeparator):])
		if err != nil {
			return nil, scopeErr(expr, "malformed where-clause")
		}
		if column == "" {
			return nil, scopeErr(expr, "missing column name before where-clause")
		}
		plan.KeyColumn = column
		plan.Filter = pred
		return plan, nil
	}

	plan.KeyColumn = rest
	return plan, nil
}

// parseComparison splits "column op literal" on the first operator token.
// Two-character operators are matched before their one-character prefixes.
// Surrounding single or double quotes on the literal are stripped.
func parseComparison(s string) (*Predicate, error) {
	s = strings.TrimSpace(s)
	for _, cand := range operatorTokens {
		idx := strings.Index(s, cand.Token)
		if idx < 0 {
			continue
		}
		column := strings.TrimSpace(s[:idx])
		literal := unquote(strings.TrimSpace(s[idx+len(cand.Token):]))
		if column == "" || literal == "" {
			return nil, types.ErrScopeSyntax
		}
		return &Predicate{Column: column, Op: cand.Op, Literal: literal}, nil
	}
	return nil, types.ErrScopeSyntax
}

// unquote strips one matching pair of surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// scopeErr wraps ErrScopeSyntax with the offending expression and a hint.
func scopeErr(expr, hint string) error {
	return fmt.Errorf("%w: %q (%s)", types.ErrScopeSyntax, expr, hint)
}
