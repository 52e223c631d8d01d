// internal/rules/coercion.go
package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Type coercion for cell values and rule-sheet tokens.
 *
 * Implements the 4-kind cell system (STRING, NUMBER, DATE, EMPTY) with one
 * centralized set of conversion rules. Loaders infer column kinds here and
 * constraint evaluation coerces sheet tokens here, so type handling is never
 * scattered per-constraint.
 *
 * Key distinction: empty cells vs coercion failures. An empty cell is a
 * legitimate value (governed by the not_empty constraint) and never a
 * coercion error. A non-empty token that cannot convert to the target kind
 * (e.g. "abc" to number) returns ErrCoercionFailed, which evaluation
 * surfaces as a TYPE_MISMATCH report entry rather than a crash.
 *
 * Kind modes:
 *   - NUMBER: strict - numeric strings only, whitespace trimmed
 *   - DATE: strict - fixed layout list, midnight normalization left to caller
 *   - STRING: lenient - any token passes through verbatim
 */

// dateLayouts is the fixed set of layouts recognized in cells and sheet
// tokens, tried in order. Calendar-date layouts precede timestamped ones so
// "2023-01-02" never picks up a spurious midnight offset.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate attempts to parse a token as a date using the canonical layout
// list. All dates are interpreted in UTC for stable ordering.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber attempts to parse a token as a number.
// Whitespace-only tokens are not valid numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// InferKind classifies a single raw cell without building a value.
// Order matters: dates before numbers, so "2006/01/02" is a date even though
// substrings of it parse numerically.
func InferKind(cell string) types.Kind {
	if strings.TrimSpace(cell) == "" {
		return types.KindEmpty
	}
	if _, ok := ParseDate(cell); ok {
		return types.KindDate
	}
	if _, ok := ParseNumber(cell); ok {
		return types.KindNumber
	}
	return types.KindString
}

// InferColumnKind folds per-cell kinds into one column kind. A column is
// date or number only when every non-empty cell agrees; any disagreement
// falls back to string. A column with no non-empty cells stays empty.
func InferColumnKind(cells []string) types.Kind {
	kind := types.KindEmpty
	for _, cell := range cells {
		ck := InferKind(cell)
		if ck == types.KindEmpty {
			continue
		}
		if kind == types.KindEmpty {
			kind = ck
			continue
		}
		if kind != ck {
			return types.KindString
		}
	}
	return kind
}

// CoerceToken converts a raw sheet token to a value of the target kind.
// Empty tokens coerce to the empty value for every kind. Returns
// ErrCoercionFailed when a non-empty token cannot convert.
func CoerceToken(token string, kind types.Kind) (types.Value, error) {
	if strings.TrimSpace(token) == "" {
		return types.EmptyValue(), nil
	}
	switch kind {
	case types.KindNumber:
		if n, ok := ParseNumber(token); ok {
			return types.NumberValue(n), nil
		}
		return types.Value{}, types.ErrCoercionFailed
	case types.KindDate:
		if t, ok := ParseDate(token); ok {
			return types.DateValue(t), nil
		}
		return types.Value{}, types.ErrCoercionFailed
	case types.KindEmpty:
		// Column held no non-empty values; compare as text.
		return types.StringValue(token), nil
	default:
		return types.StringValue(token), nil
	}
}

// CoerceValue converts an already-typed value to the target kind.
// Same-kind values pass through; cross-kind conversion goes through the
// rendered text form. Used by the SQL dataset source where driver types may
// disagree with the inferred column kind.
func CoerceValue(v types.Value, kind types.Kind) (types.Value, error) {
	if v.IsEmpty() || v.Kind == kind || kind == types.KindEmpty {
		return v, nil
	}
	return CoerceToken(v.Render(), kind)
}
