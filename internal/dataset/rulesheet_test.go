package dataset

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yangizzy/tablekeeper/internal/types"
)

func TestParseListCell(t *testing.T) {
	tests := []struct {
		name    string
		cell    string
		want    []string
		wantErr bool
	}{
		{
			name: "empty cell means absent",
			cell: "",
			want: nil,
		},
		{
			name: "whitespace cell means absent",
			cell: "   ",
			want: nil,
		},
		{
			name: "bracketed quoted list",
			cell: "['Active', 'Inactive']",
			want: []string{"Active", "Inactive"},
		},
		{
			name: "bare comma list",
			cell: "Active, Inactive",
			want: []string{"Active", "Inactive"},
		},
		{
			name: "double quoted values",
			cell: `["US", "EU"]`,
			want: []string{"US", "EU"},
		},
		{
			name: "quoted value containing comma",
			cell: `["a,b", 'c']`,
			want: []string{"a,b", "c"},
		},
		{
			name: "numeric tokens stay raw",
			cell: "[1, 2.5, -3]",
			want: []string{"1", "2.5", "-3"},
		},
		{
			name: "date range expands inclusively",
			cell: "all dates in range: 2023-01-01 - 2023-01-03",
			want: []string{"2023-01-01", "2023-01-02", "2023-01-03"},
		},
		{
			name: "single day range",
			cell: "all dates in range: 2023-01-01 - 2023-01-01",
			want: []string{"2023-01-01"},
		},
		{
			name:    "empty bracket list",
			cell:    "[]",
			wantErr: true,
		},
		{
			name:    "range missing separator",
			cell:    "all dates in range: 2023-01-01",
			wantErr: true,
		},
		{
			name:    "range with bad start",
			cell:    "all dates in range: junk - 2023-01-03",
			wantErr: true,
		},
		{
			name:    "range end before start",
			cell:    "all dates in range: 2023-01-03 - 2023-01-01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListCell(tt.cell)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseListCell(%q) = %v, want error", tt.cell, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListCell(%q) error = %v", tt.cell, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseListCell(%q) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestReadRulesCSV(t *testing.T) {
	input := strings.Join([]string{
		"column,scope,allowed,contains,not_empty",
		`Status,,"['Active', 'Inactive']",,1`,
		`Region,each date of: Date,,"US, EU",true`,
		`Amount,Amount > 100,,,`,
	}, "\n")

	defs, err := ReadRulesCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRulesCSV() error = %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("ReadRulesCSV() returned %d rules, want 3", len(defs))
	}

	want := []types.RuleDefinition{
		{Index: 1, Column: "Status", Allowed: []string{"Active", "Inactive"}, NotEmpty: true},
		{Index: 2, Column: "Region", Scope: "each date of: Date", Contains: []string{"US", "EU"}, NotEmpty: true},
		{Index: 3, Column: "Amount", Scope: "Amount > 100"},
	}
	for i := range want {
		if !reflect.DeepEqual(defs[i], want[i]) {
			t.Errorf("rule %d = %+v, want %+v", i+1, defs[i], want[i])
		}
	}
}

func TestReadRulesCSV_HeaderVariants(t *testing.T) {
	// Header matching is case-insensitive, column order free.
	input := strings.Join([]string{
		"Not_Empty,COLUMN",
		"yes,Status",
		"no,Region",
	}, "\n")

	defs, err := ReadRulesCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRulesCSV() error = %v", err)
	}
	if !defs[0].NotEmpty || defs[0].Column != "Status" {
		t.Errorf("rule 1 = %+v, want not_empty Status", defs[0])
	}
	if defs[1].NotEmpty {
		t.Errorf("rule 2 = %+v, want not_empty false", defs[1])
	}
}

func TestReadRulesCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "missing column header", input: "scope,allowed\n,\n"},
		{name: "header only", input: "column,scope\n"},
		{name: "bad list cell", input: "column,allowed\nStatus,[]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRulesCSV(strings.NewReader(tt.input))
			if !errors.Is(err, types.ErrFatalInput) {
				t.Errorf("ReadRulesCSV() error = %v, want ErrFatalInput", err)
			}
		})
	}
}

func TestReadRulesYAML(t *testing.T) {
	input := `
- column: Status
  allowed:
    - Active
    - Inactive
  not_empty: true
- column: Region
  scope: "each month of: Date"
  contains: "US, EU"
- column: Date
  allowed: "all dates in range: 2023-01-01 - 2023-01-02"
`

	defs, err := ReadRulesYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRulesYAML() error = %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("ReadRulesYAML() returned %d rules, want 3", len(defs))
	}

	want := []types.RuleDefinition{
		{Index: 1, Column: "Status", Allowed: []string{"Active", "Inactive"}, NotEmpty: true},
		{Index: 2, Column: "Region", Scope: "each month of: Date", Contains: []string{"US", "EU"}},
		{Index: 3, Column: "Date", Allowed: []string{"2023-01-01", "2023-01-02"}},
	}
	for i := range want {
		if !reflect.DeepEqual(defs[i], want[i]) {
			t.Errorf("rule %d = %+v, want %+v", i+1, defs[i], want[i])
		}
	}
}

func TestReadRulesYAML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not a sequence", input: "column: Status\n"},
		{name: "empty document", input: "[]\n"},
		{name: "invalid yaml", input: ":\n  - ]["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRulesYAML(strings.NewReader(tt.input))
			if !errors.Is(err, types.ErrFatalInput) {
				t.Errorf("ReadRulesYAML() error = %v, want ErrFatalInput", err)
			}
		})
	}
}
