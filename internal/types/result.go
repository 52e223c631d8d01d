package types

/*
 * Evaluation result types.
 *
 * ConstraintResult is the outcome for one (rule, partition, constraint)
 * triple, immutable once produced. Error entries reuse the same shape with
 * StatusError and a RuleError; they carry no constraint kind because the
 * whole rule failed to resolve.
 *
 * Violations are kept in full: aggregation adds counts and groupings on top
 * of the result list but never summarizes away which records failed.
 */

// Status is the outcome of one constraint evaluation.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusError
)

// String returns the report vocabulary for the status.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	default:
		return "ERROR"
	}
}

// ConstraintNone marks rule-level error entries that carry no constraint.
const ConstraintNone ConstraintKind = -1

// Violation is one offending record or value retained in the report.
// RowID is 0 for value-level violations (e.g. a missing contains value).
type Violation struct {
	RowID int64
	Value string
}

// ConstraintResult is the outcome for one (rule, partition) pair and one
// constraint kind.
type ConstraintResult struct {
	RuleIndex    int
	RuleLabel    string
	Column       string
	ScopeLabel   string
	PartitionKey string
	Constraint   ConstraintKind
	Status       Status
	Violations   []Violation
	Err          *RuleError // non-nil iff Status == StatusError
}
