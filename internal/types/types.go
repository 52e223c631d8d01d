// Package types provides domain models shared across TableKeeper components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rule engine can be embedded without pulling in
// storage or CLI dependencies. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

import (
	"strconv"
	"time"
)

// Kind tags the scalar type of a cell value or a dataset column.
// Determined once at load time; coercion rules live in internal/rules.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
)

// String returns the lowercase kind name used in reports and cache metadata.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// ParseKind converts a stored kind name back to a Kind.
// Unknown names map to KindString (safe fallback: everything renders as text).
func ParseKind(s string) Kind {
	switch s {
	case "number":
		return KindNumber
	case "date":
		return KindDate
	case "empty":
		return KindEmpty
	default:
		return KindString
	}
}

// Value is one typed cell. Exactly one of Str/Num/Time is meaningful,
// selected by Kind. Empty cells carry KindEmpty and no payload.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Constructors keep call sites readable in loaders and tests.

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Time: t} }
func EmptyValue() Value           { return Value{Kind: KindEmpty} }

// IsEmpty reports whether the value is an empty/null cell.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// Render returns the canonical text form used in violation lists and the
// cache. Dates render as a calendar date when they carry no time component.
func (v Value) Render() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal compares two values. Numbers compare by float equality, dates by
// instant. Empty equals only empty.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

// Record is one dataset row: a stable synthetic identifier plus cells keyed
// by column name. RowID is the 1-based data row of the source sheet (header
// excluded), assigned at load and never reassigned, so violation entries
// reference records unambiguously regardless of evaluation order.
type Record struct {
	RowID int64
	Cells map[string]Value
}

// Cell returns the value for a column, or an empty value when the column is
// absent from this record.
func (r Record) Cell(column string) Value {
	if v, ok := r.Cells[column]; ok {
		return v
	}
	return EmptyValue()
}

// Dataset is an immutable in-memory snapshot of a tabular source.
//
// INVARIANTS:
//   - Columns order matches the source sheet and never changes after load
//   - Kinds has an entry for every column in Columns
//   - Records order matches the source sheet; RowIDs are strictly increasing
//
// No component mutates a Dataset after construction; it may be shared across
// all rule evaluations without locking.
type Dataset struct {
	Columns []string
	Kinds   map[string]Kind
	Records []Record
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Kinds[name]
	return ok
}

// ColumnKind returns the inferred kind of a column (KindEmpty if absent or
// the column held no non-empty values).
func (d *Dataset) ColumnKind(name string) Kind {
	return d.Kinds[name]
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}
