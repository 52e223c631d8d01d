package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Text rendering for the log destination.
 *
 * Output is deterministic byte-for-byte for a given report (golden-tested):
 * entries in report order, one block per entry, then the summary. The run
 * ID line is the only run-varying content.
 */

// Render writes the human-readable report to w.
func Render(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString("TableKeeper validation report\n")
	fmt.Fprintf(&b, "run: %s\n\n", r.RunID)

	for _, e := range r.Entries {
		renderEntry(&b, e)
	}

	fmt.Fprintf(&b, "summary: %d entries, %d passed, %d failed, %d errors\n",
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Errors)
	for _, rs := range r.Summary.Rules {
		fmt.Fprintf(&b, "  %s: %d passed, %d failed", rs.RuleLabel, rs.Passed, rs.Failed)
		if rs.Errors > 0 {
			fmt.Fprintf(&b, ", %d errors", rs.Errors)
		}
		fmt.Fprintf(&b, " (pass rate %.1f%%)\n", rs.PassRate*100)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// renderEntry writes one result block: a status line, then one line per
// retained violation.
func renderEntry(b *strings.Builder, e types.ConstraintResult) {
	if e.Status == types.StatusError {
		fmt.Fprintf(b, "ERROR %s [%s]\n", e.RuleLabel, e.ScopeLabel)
		fmt.Fprintf(b, "      %s\n", e.Err.Error())
		return
	}

	fmt.Fprintf(b, "%-5s %s %s [%s / %s]\n",
		e.Status, e.RuleLabel, e.Constraint, e.ScopeLabel, e.PartitionKey)

	for _, v := range e.Violations {
		switch e.Constraint {
		case types.ConstraintAllowed:
			fmt.Fprintf(b, "      value %q (row %d)\n", v.Value, v.RowID)
		case types.ConstraintContains:
			fmt.Fprintf(b, "      missing required value %q\n", v.Value)
		case types.ConstraintNotEmpty:
			fmt.Fprintf(b, "      row %d is empty\n", v.RowID)
		}
	}
}
