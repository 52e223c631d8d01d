// internal/rules/evaluate.go
package rules

import (
	"fmt"

	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Constraint evaluation.
 *
 * Applies one rule's constraints to one partition of records. Each
 * constraint kind evaluates independently in canonical order (allowed,
 * contains, not_empty); a failing constraint never short-circuits the
 * others, so a single rule can report several failures at once.
 *
 * Type handling: sheet tokens (allowed/contains lists) are coerced to the
 * target column's kind before any comparison. A token that cannot coerce
 * produces a TYPE_MISMATCH error result for that one constraint; the other
 * constraints on the rule still evaluate.
 *
 * Empty-cell semantics: empty values are exempt from allowed (membership is
 * only meaningful for present values) and are governed solely by not_empty.
 * The allowed violation list holds every distinct offending value exactly
 * once, tagged with its first-occurrence row.
 */

// EvaluateConstraints runs every constraint present on the rule against one
// partition, returning one result per constraint kind in canonical order.
func EvaluateConstraints(rule types.RuleDefinition, columnKind types.Kind, part Partition, scopeLabel string) []types.ConstraintResult {
	results := make([]types.ConstraintResult, 0, 3)

	base := types.ConstraintResult{
		RuleIndex:    rule.Index,
		RuleLabel:    rule.Label(),
		Column:       rule.Column,
		ScopeLabel:   scopeLabel,
		PartitionKey: part.Key,
	}

	if len(rule.Allowed) > 0 {
		results = append(results, evaluateAllowed(rule, columnKind, part, base))
	}
	if len(rule.Contains) > 0 {
		results = append(results, evaluateContains(rule, columnKind, part, base))
	}
	if rule.NotEmpty {
		results = append(results, evaluateNotEmpty(rule, part, base))
	}

	return results
}

// evaluateAllowed checks that every non-empty target value is a member of
// the allowed list.
func evaluateAllowed(rule types.RuleDefinition, columnKind types.Kind, part Partition, base types.ConstraintResult) types.ConstraintResult {
	res := base
	res.Constraint = types.ConstraintAllowed

	allowed, err := coerceTokens(rule.Allowed, columnKind)
	if err != nil {
		res.Status = types.StatusError
		res.Err = types.NewRuleError(types.CodeTypeMismatch, types.ErrCoercionFailed,
			fmt.Sprintf("allowed list does not match %s column %q: %v", columnKind, rule.Column, err))
		return res
	}

	seen := make(map[string]bool)
	for _, rec := range part.Records {
		v := rec.Cell(rule.Column)
		if v.IsEmpty() {
			continue
		}
		if memberOf(v, allowed) {
			continue
		}
		rendered := v.Render()
		if seen[rendered] {
			continue
		}
		seen[rendered] = true
		res.Violations = append(res.Violations, types.Violation{RowID: rec.RowID, Value: rendered})
	}

	if len(res.Violations) > 0 {
		res.Status = types.StatusFail
	}
	return res
}

// evaluateContains checks that every required value appears at least once
// among the target column's values.
func evaluateContains(rule types.RuleDefinition, columnKind types.Kind, part Partition, base types.ConstraintResult) types.ConstraintResult {
	res := base
	res.Constraint = types.ConstraintContains

	required, err := coerceTokens(rule.Contains, columnKind)
	if err != nil {
		res.Status = types.StatusError
		res.Err = types.NewRuleError(types.CodeTypeMismatch, types.ErrCoercionFailed,
			fmt.Sprintf("contains list does not match %s column %q: %v", columnKind, rule.Column, err))
		return res
	}

	for _, want := range required {
		found := false
		for _, rec := range part.Records {
			if rec.Cell(rule.Column).Equal(want) {
				found = true
				break
			}
		}
		if !found {
			res.Violations = append(res.Violations, types.Violation{Value: want.Render()})
		}
	}

	if len(res.Violations) > 0 {
		res.Status = types.StatusFail
	}
	return res
}

// evaluateNotEmpty checks that no record has an empty target value,
// listing every offending record.
func evaluateNotEmpty(rule types.RuleDefinition, part Partition, base types.ConstraintResult) types.ConstraintResult {
	res := base
	res.Constraint = types.ConstraintNotEmpty

	for _, rec := range part.Records {
		if rec.Cell(rule.Column).IsEmpty() {
			res.Violations = append(res.Violations, types.Violation{RowID: rec.RowID})
		}
	}

	if len(res.Violations) > 0 {
		res.Status = types.StatusFail
	}
	return res
}

// coerceTokens converts a sheet token list against the column kind.
// Fails on the first unconvertible token.
func coerceTokens(tokens []string, kind types.Kind) ([]types.Value, error) {
	out := make([]types.Value, 0, len(tokens))
	for _, tok := range tokens {
		v, err := CoerceToken(tok, kind)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// memberOf reports whether v equals any element of set. Numeric columns get
// numeric equality via Value.Equal; text columns compare case-sensitively.
func memberOf(v types.Value, set []types.Value) bool {
	for _, s := range set {
		if v.Equal(s) {
			return true
		}
	}
	return false
}
