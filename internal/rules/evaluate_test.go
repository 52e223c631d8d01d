package rules

import (
	"testing"

	"github.com/yangizzy/tablekeeper/internal/types"
)

func allPartition(ds *types.Dataset) Partition {
	return Partition{Key: PartitionAll, Records: ds.Records}
}

func TestEvaluateAllowed_Fail(t *testing.T) {
	ds := buildDataset(t, []string{"Status"}, [][]string{
		{"Active"},
		{"Bogus"},
		{""},
		{"Bogus"},
		{"Inactive"},
	})
	rule := types.RuleDefinition{Index: 1, Column: "Status", Allowed: []string{"Active", "Inactive"}}

	results := EvaluateConstraints(rule, ds.ColumnKind("Status"), allPartition(ds), "all records")
	if len(results) != 1 {
		t.Fatalf("EvaluateConstraints() returned %d results, want 1", len(results))
	}

	res := results[0]
	if res.Constraint != types.ConstraintAllowed {
		t.Errorf("Constraint = %v, want allowed", res.Constraint)
	}
	if res.Status != types.StatusFail {
		t.Errorf("Status = %v, want FAIL", res.Status)
	}
	// Distinct offending values only, tagged with the first offending row.
	// The empty cell at row 3 is exempt.
	if len(res.Violations) != 1 {
		t.Fatalf("Violations = %+v, want exactly one", res.Violations)
	}
	if res.Violations[0].Value != "Bogus" || res.Violations[0].RowID != 2 {
		t.Errorf("Violation = %+v, want {RowID:2 Value:Bogus}", res.Violations[0])
	}
}

func TestEvaluateAllowed_Pass(t *testing.T) {
	ds := buildDataset(t, []string{"Status"}, [][]string{{"Active"}, {""}, {"Inactive"}})
	rule := types.RuleDefinition{Index: 1, Column: "Status", Allowed: []string{"Active", "Inactive"}}

	results := EvaluateConstraints(rule, ds.ColumnKind("Status"), allPartition(ds), "all records")
	if results[0].Status != types.StatusPass {
		t.Errorf("Status = %v, want PASS", results[0].Status)
	}
	if len(results[0].Violations) != 0 {
		t.Errorf("Violations = %+v, want none", results[0].Violations)
	}
}

func TestEvaluateAllowed_NumericEquality(t *testing.T) {
	// "10.0" in the sheet and "10" in the data are the same number.
	ds := buildDataset(t, []string{"Amount"}, [][]string{{"10"}, {"20"}})
	rule := types.RuleDefinition{Index: 1, Column: "Amount", Allowed: []string{"10.0", "20.00"}}

	results := EvaluateConstraints(rule, ds.ColumnKind("Amount"), allPartition(ds), "all records")
	if results[0].Status != types.StatusPass {
		t.Errorf("Status = %v, want PASS, violations %+v", results[0].Status, results[0].Violations)
	}
}

func TestEvaluateAllowed_TypeMismatchDoesNotShortCircuit(t *testing.T) {
	ds := buildDataset(t, []string{"Amount"}, [][]string{{"10"}, {""}})
	rule := types.RuleDefinition{
		Index:    1,
		Column:   "Amount",
		Allowed:  []string{"abc"},
		NotEmpty: true,
	}

	results := EvaluateConstraints(rule, ds.ColumnKind("Amount"), allPartition(ds), "all records")
	if len(results) != 2 {
		t.Fatalf("EvaluateConstraints() returned %d results, want 2", len(results))
	}

	if results[0].Status != types.StatusError {
		t.Errorf("allowed Status = %v, want ERROR", results[0].Status)
	}
	if results[0].Err == nil || results[0].Err.Code != types.CodeTypeMismatch {
		t.Errorf("allowed Err = %+v, want TYPE_MISMATCH", results[0].Err)
	}

	// The other constraint on the rule still evaluates.
	if results[1].Constraint != types.ConstraintNotEmpty {
		t.Errorf("second Constraint = %v, want not_empty", results[1].Constraint)
	}
	if results[1].Status != types.StatusFail {
		t.Errorf("not_empty Status = %v, want FAIL", results[1].Status)
	}
}

func TestEvaluateContains(t *testing.T) {
	ds := buildDataset(t, []string{"Region"}, [][]string{{"US"}, {"US"}, {"APAC"}})
	rule := types.RuleDefinition{Index: 1, Column: "Region", Contains: []string{"US", "EU", "APAC"}}

	results := EvaluateConstraints(rule, ds.ColumnKind("Region"), allPartition(ds), "all records")
	res := results[0]
	if res.Constraint != types.ConstraintContains {
		t.Errorf("Constraint = %v, want contains", res.Constraint)
	}
	if res.Status != types.StatusFail {
		t.Errorf("Status = %v, want FAIL", res.Status)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("Violations = %+v, want exactly one", res.Violations)
	}
	// Missing required values are value-level: no row to point at.
	if res.Violations[0].Value != "EU" || res.Violations[0].RowID != 0 {
		t.Errorf("Violation = %+v, want {RowID:0 Value:EU}", res.Violations[0])
	}
}

func TestEvaluateContains_EmptyPartition(t *testing.T) {
	// A filter can legitimately produce an empty partition. Contains fails
	// (nothing present), allowed and not_empty pass vacuously.
	ds := buildDataset(t, []string{"Region"}, [][]string{{"US"}})
	rule := types.RuleDefinition{
		Index:    1,
		Column:   "Region",
		Allowed:  []string{"US"},
		Contains: []string{"US"},
		NotEmpty: true,
	}
	empty := Partition{Key: "Region == 'none'", Records: nil}

	results := EvaluateConstraints(rule, ds.ColumnKind("Region"), empty, "Region == 'none'")
	if len(results) != 3 {
		t.Fatalf("EvaluateConstraints() returned %d results, want 3", len(results))
	}
	if results[0].Status != types.StatusPass {
		t.Errorf("allowed Status = %v, want PASS", results[0].Status)
	}
	if results[1].Status != types.StatusFail {
		t.Errorf("contains Status = %v, want FAIL", results[1].Status)
	}
	if results[2].Status != types.StatusPass {
		t.Errorf("not_empty Status = %v, want PASS", results[2].Status)
	}
}

func TestEvaluateNotEmpty(t *testing.T) {
	ds := buildDataset(t, []string{"Amount"}, [][]string{{"1"}, {""}, {"3"}, {"  "}})
	rule := types.RuleDefinition{Index: 1, Column: "Amount", NotEmpty: true}

	results := EvaluateConstraints(rule, ds.ColumnKind("Amount"), allPartition(ds), "all records")
	res := results[0]
	if res.Status != types.StatusFail {
		t.Errorf("Status = %v, want FAIL", res.Status)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("Violations = %+v, want two", res.Violations)
	}
	if res.Violations[0].RowID != 2 || res.Violations[1].RowID != 4 {
		t.Errorf("violating rows = [%d, %d], want [2, 4]", res.Violations[0].RowID, res.Violations[1].RowID)
	}
}

func TestEvaluateConstraints_CanonicalOrder(t *testing.T) {
	ds := buildDataset(t, []string{"Status"}, [][]string{{"Active"}})
	rule := types.RuleDefinition{
		Index:    1,
		Column:   "Status",
		Allowed:  []string{"Active"},
		Contains: []string{"Active"},
		NotEmpty: true,
	}

	results := EvaluateConstraints(rule, ds.ColumnKind("Status"), allPartition(ds), "all records")
	want := []types.ConstraintKind{types.ConstraintAllowed, types.ConstraintContains, types.ConstraintNotEmpty}
	if len(results) != len(want) {
		t.Fatalf("EvaluateConstraints() returned %d results, want %d", len(results), len(want))
	}
	for i, kind := range want {
		if results[i].Constraint != kind {
			t.Errorf("results[%d].Constraint = %v, want %v", i, results[i].Constraint, kind)
		}
		if results[i].Status != types.StatusPass {
			t.Errorf("results[%d].Status = %v, want PASS", i, results[i].Status)
		}
	}
}

func TestEvaluateConstraints_ResultMetadata(t *testing.T) {
	ds := buildDataset(t, []string{"Status"}, [][]string{{"Active"}})
	rule := types.RuleDefinition{Index: 7, Column: "Status", NotEmpty: true}
	part := Partition{Key: "2023-01-01", Records: ds.Records}

	results := EvaluateConstraints(rule, ds.ColumnKind("Status"), part, "each date of: Date")
	res := results[0]
	if res.RuleIndex != 7 {
		t.Errorf("RuleIndex = %d, want 7", res.RuleIndex)
	}
	if res.RuleLabel != "rule 7 (Status)" {
		t.Errorf("RuleLabel = %q, want %q", res.RuleLabel, "rule 7 (Status)")
	}
	if res.ScopeLabel != "each date of: Date" {
		t.Errorf("ScopeLabel = %q", res.ScopeLabel)
	}
	if res.PartitionKey != "2023-01-01" {
		t.Errorf("PartitionKey = %q", res.PartitionKey)
	}
}
