// Package report aggregates constraint results into the final validation
// report and renders it for the log destination.
//
// Aggregation only adds counts and groupings on top of the full result
// list; the entries keep every violating record and value. Ordering is
// deterministic: rules in input order, partitions in plan order, constraint
// kinds in canonical order - the engine emits entries that way and
// Aggregate preserves it.
package report

import (
	"github.com/yangizzy/tablekeeper/internal/types"
)

// RuleSummary is the per-rule rollup.
type RuleSummary struct {
	RuleIndex int
	RuleLabel string
	Passed    int
	Failed    int
	Errors    int
	PassRate  float64 // Passed / (Passed + Failed); 0 when nothing evaluated
}

// Summary is the run-level rollup.
type Summary struct {
	Total  int
	Passed int
	Failed int
	Errors int
	Rules  []RuleSummary // first-seen rule order
}

// Report is the finalized outcome of one validation run. Created once per
// run, never mutated after Aggregate returns.
type Report struct {
	RunID   types.RunID
	Entries []types.ConstraintResult
	Summary Summary
}

// Passed reports whether the run had no failures and no errors.
func (r *Report) Passed() bool {
	return r.Summary.Failed == 0 && r.Summary.Errors == 0
}

// Aggregate builds a Report from entries, preserving their order and
// computing run and per-rule counts. The caller stamps the RunID.
func Aggregate(entries []types.ConstraintResult) *Report {
	rep := &Report{Entries: entries}
	rep.Summary.Total = len(entries)

	perRule := make(map[int]int) // rule index -> position in Summary.Rules
	for _, e := range entries {
		pos, ok := perRule[e.RuleIndex]
		if !ok {
			pos = len(rep.Summary.Rules)
			perRule[e.RuleIndex] = pos
			rep.Summary.Rules = append(rep.Summary.Rules, RuleSummary{
				RuleIndex: e.RuleIndex,
				RuleLabel: e.RuleLabel,
			})
		}
		rs := &rep.Summary.Rules[pos]

		switch e.Status {
		case types.StatusPass:
			rep.Summary.Passed++
			rs.Passed++
		case types.StatusFail:
			rep.Summary.Failed++
			rs.Failed++
		default:
			rep.Summary.Errors++
			rs.Errors++
		}
	}

	for i := range rep.Summary.Rules {
		rs := &rep.Summary.Rules[i]
		if evaluated := rs.Passed + rs.Failed; evaluated > 0 {
			rs.PassRate = float64(rs.Passed) / float64(evaluated)
		}
	}

	return rep
}
