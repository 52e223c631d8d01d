// internal/rules/engine.go
package rules

import (
	"fmt"
	"strings"

	"github.com/yangizzy/tablekeeper/internal/report"
	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Rule evaluation orchestration.
 *
 * Run processes rules in sheet order against one immutable dataset
 * snapshot: resolve scope -> bind partitions -> evaluate constraints per
 * partition -> aggregate. All per-rule failures (scope syntax, missing
 * columns, kind mismatches) are recovered locally and surfaced as report
 * error entries; one rule never aborts the run.
 *
 * Only FATAL_INPUT halts evaluation: an empty rule set or an empty dataset
 * means there is nothing meaningful to report, and the caller gets an error
 * instead of a hollow report. The caller therefore always receives either a
 * complete report or a fatal error - never a silently truncated report.
 *
 * Evaluation is single-threaded and synchronous; the snapshot is shared
 * read-only across all rules without locking. Running twice on the same
 * snapshot and rule set yields identical entries in identical order.
 */

// Run validates the dataset against the rule set and returns the finalized
// report, stamped with a fresh run ID.
func Run(defs []types.RuleDefinition, ds *types.Dataset) (*report.Report, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", types.ErrFatalInput)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: rule set is empty", types.ErrFatalInput)
	}

	var entries []types.ConstraintResult

	for _, rule := range defs {
		if !rule.HasConstraints() {
			continue
		}

		if !ds.HasColumn(rule.Column) {
			err := fmt.Errorf("%w: target column %q", types.ErrColumnNotFound, rule.Column)
			entries = append(entries, errorEntry(rule, scopeLabelFor(rule), err))
			continue
		}

		plan, err := ParseScope(rule.Scope)
		if err != nil {
			entries = append(entries, errorEntry(rule, scopeLabelFor(rule), err))
			continue
		}

		parts, err := plan.Bind(ds)
		if err != nil {
			entries = append(entries, errorEntry(rule, plan.Label, err))
			continue
		}

		kind := ds.ColumnKind(rule.Column)
		for _, part := range parts {
			entries = append(entries, EvaluateConstraints(rule, kind, part, plan.Label)...)
		}
	}

	rep := report.Aggregate(entries)
	rep.RunID = types.NewRunID()
	return rep, nil
}

// errorEntry builds a rule-level error entry from a recovered failure.
func errorEntry(rule types.RuleDefinition, scopeLabel string, err error) types.ConstraintResult {
	return types.ConstraintResult{
		RuleIndex:    rule.Index,
		RuleLabel:    rule.Label(),
		Column:       rule.Column,
		ScopeLabel:   scopeLabel,
		Constraint:   types.ConstraintNone,
		Status:       types.StatusError,
		Err:          types.NewRuleError(types.CodeForError(err), err, err.Error()),
	}
}

// scopeLabelFor labels entries for rules whose scope never resolved.
func scopeLabelFor(rule types.RuleDefinition) string {
	if s := strings.TrimSpace(rule.Scope); s != "" {
		return s
	}
	return "all records"
}
