// internal/rules/operators.go
package rules

import "github.com/yangizzy/tablekeeper/internal/types"

/*
 * Operator comparison logic for predicate scopes.
 *
 * Implements the 5 comparison operators of the scope grammar with kind-aware
 * ordering. Values reach Compare() already coerced to the column's kind via
 * CoerceToken, so cross-kind comparison never happens here; an empty cell
 * compares false under every operator.
 *
 * Ordering rules:
 *   - number: float ordering
 *   - date: instant ordering (time.Before/After)
 *   - string: lexicographic byte ordering
 *
 * Why function-based: 5 operators via switch statement is cleaner than 5
 * interface implementations with minimal behavior variation.
 */

// Operator is a comparison operator recognized in scope expressions.
type Operator int

const (
	OpUnspecified Operator = iota
	OpGt
	OpGte
	OpLt
	OpLte
	OpEq
)

// operatorTokens maps surface syntax to operators. Two-character tokens must
// be tried before their one-character prefixes when scanning.
var operatorTokens = []struct {
	Token string
	Op    Operator
}{
	{">=", OpGte},
	{"<=", OpLte},
	{"==", OpEq},
	{">", OpGt},
	{"<", OpLt},
}

// String returns the surface syntax for the operator.
func (op Operator) String() string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpEq:
		return "=="
	default:
		return "?"
	}
}

// Compare applies the operator to a cell value and a target literal.
// Both must share a kind; empty or incomparable pairs compare false under
// every operator, so predicate scopes silently exclude empty cells.
func Compare(op Operator, value, target types.Value) bool {
	if op == OpEq {
		return value.Equal(target)
	}
	ord, ok := compareOrder(value, target)
	if !ok {
		return false
	}
	switch op {
	case OpGt:
		return ord > 0
	case OpGte:
		return ord >= 0
	case OpLt:
		return ord < 0
	case OpLte:
		return ord <= 0
	default:
		return false
	}
}

// compareOrder performs three-way comparison (-1/0/1) of same-kind values.
// Returns ok=false for empty values or kind mismatches.
func compareOrder(a, b types.Value) (int, bool) {
	if a.IsEmpty() || b.IsEmpty() || a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case types.KindNumber:
		switch {
		case a.Num < b.Num:
			return -1, true
		case a.Num > b.Num:
			return 1, true
		default:
			return 0, true
		}
	case types.KindDate:
		switch {
		case a.Time.Before(b.Time):
			return -1, true
		case a.Time.After(b.Time):
			return 1, true
		default:
			return 0, true
		}
	default:
		switch {
		case a.Str < b.Str:
			return -1, true
		case a.Str > b.Str:
			return 1, true
		default:
			return 0, true
		}
	}
}
