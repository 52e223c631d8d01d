package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yangizzy/tablekeeper/internal/rules"
	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Rule sheet loading.
 *
 * The rule sheet is tabular: one rule per row with columns column, scope,
 * allowed, contains, not_empty. Two formats are accepted: a CSV sheet
 * (default file stem "rules") and a YAML document for rules kept under
 * version control.
 *
 * Cell syntax follows the authoring conventions of the sheet:
 *   - bracketed lists: ['Active', 'Inactive']
 *   - bare comma lists: Active, Inactive
 *   - date-range expansion: "all dates in range: 2023-01-01 - 2023-01-05"
 *     generates one date token per day, inclusive
 *   - not_empty: 1 / true / yes (anything else is false)
 *
 * Loader failures are fatal input errors: a rule sheet that cannot be read
 * aborts the run before any evaluation.
 */

// RulesSheetName is the default rule sheet file stem.
const RulesSheetName = "rules"

// LoadRules reads a rule sheet, dispatching on file extension:
// .yaml/.yml parse as YAML, everything else as CSV.
func LoadRules(path string) ([]types.RuleDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}
	defer f.Close()

	var defs []types.RuleDefinition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		defs, err = ReadRulesYAML(f)
	default:
		defs, err = ReadRulesCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ReadRulesCSV parses a CSV rule sheet. The header must name a "column"
// column; scope, allowed, contains and not_empty are optional.
func ReadRulesCSV(r io.Reader) ([]types.RuleDefinition, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: rule sheet has no header row", types.ErrFatalInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := pos["column"]; !ok {
		return nil, fmt.Errorf("%w: rule sheet header missing %q", types.ErrFatalInput, "column")
	}

	cell := func(row []string, name string) string {
		i, ok := pos[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var defs []types.RuleDefinition
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: rule row %d: %v", types.ErrFatalInput, len(defs)+2, err)
		}

		index := len(defs) + 1
		allowed, err := ParseListCell(cell(row, "allowed"))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d allowed cell: %v", types.ErrFatalInput, index, err)
		}
		contains, err := ParseListCell(cell(row, "contains"))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d contains cell: %v", types.ErrFatalInput, index, err)
		}

		defs = append(defs, types.RuleDefinition{
			Index:    index,
			Column:   cell(row, "column"),
			Scope:    cell(row, "scope"),
			Allowed:  allowed,
			Contains: contains,
			NotEmpty: parseBoolCell(cell(row, "not_empty")),
		})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: rule sheet has no rules", types.ErrFatalInput)
	}
	return defs, nil
}

// yamlRule mirrors one rule document entry. List fields accept either a
// YAML sequence or a single sheet-syntax string.
type yamlRule struct {
	Column   string   `yaml:"column"`
	Scope    string   `yaml:"scope"`
	Allowed  listCell `yaml:"allowed"`
	Contains listCell `yaml:"contains"`
	NotEmpty bool     `yaml:"not_empty"`
}

// listCell unmarshals a YAML sequence of scalars or a single string in
// sheet cell syntax.
type listCell []string

func (l *listCell) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		items, err := ParseListCell(s)
		if err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("list cell must be a sequence or a string")
	}
}

// ReadRulesYAML parses a YAML rule document: a top-level sequence of rules.
func ReadRulesYAML(r io.Reader) ([]types.RuleDefinition, error) {
	var raw []yamlRule
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: rule document has no rules", types.ErrFatalInput)
	}

	defs := make([]types.RuleDefinition, len(raw))
	for i, y := range raw {
		defs[i] = types.RuleDefinition{
			Index:    i + 1,
			Column:   strings.TrimSpace(y.Column),
			Scope:    strings.TrimSpace(y.Scope),
			Allowed:  y.Allowed,
			Contains: y.Contains,
			NotEmpty: y.NotEmpty,
		}
	}
	return defs, nil
}

const dateRangePrefix = "all dates in range:"

// ParseListCell parses one allowed/contains sheet cell into raw tokens.
// Empty cells mean "constraint absent" and return nil.
func ParseListCell(cell string) ([]string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	if strings.HasPrefix(cell, dateRangePrefix) {
		return expandDateRange(strings.TrimSpace(strings.TrimPrefix(cell, dateRangePrefix)))
	}

	if strings.HasPrefix(cell, "[") && strings.HasSuffix(cell, "]") {
		cell = cell[1 : len(cell)-1]
	}

	var tokens []string
	for _, part := range splitQuoted(cell) {
		tok := stripQuotes(strings.TrimSpace(part))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no values in list cell %q", cell)
	}
	return tokens, nil
}

// expandDateRange generates one date token per day of "start - end",
// inclusive on both ends.
func expandDateRange(spec string) ([]string, error) {
	parts := strings.SplitN(spec, " - ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("date range %q must be %q", spec, "<start> - <end>")
	}
	start, ok := rules.ParseDate(strings.TrimSpace(parts[0]))
	if !ok {
		return nil, fmt.Errorf("invalid range start %q", parts[0])
	}
	end, ok := rules.ParseDate(strings.TrimSpace(parts[1]))
	if !ok {
		return nil, fmt.Errorf("invalid range end %q", parts[1])
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %q precedes start %q", parts[1], parts[0])
	}

	var tokens []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		tokens = append(tokens, d.Format("2006-01-02"))
	}
	return tokens, nil
}

// splitQuoted splits on commas outside single or double quotes.
func splitQuoted(s string) []string {
	var parts []string
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// stripQuotes removes one matching pair of surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parseBoolCell interprets the not_empty flag cell.
func parseBoolCell(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
