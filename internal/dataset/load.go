// Package dataset loads tabular snapshots and rule sheets for validation.
//
// Sources: CSV files (load.go), SQL tables or queries via sqlx (sql.go),
// and the snapshot cache (cache.go). Every source produces the same fully
// materialized, immutable types.Dataset: ordered columns, one inferred kind
// per column, cells coerced to the column kind, stable 1-based row IDs.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/yangizzy/tablekeeper/internal/rules"
	"github.com/yangizzy/tablekeeper/internal/types"
)

// LoadCSV reads a dataset from a CSV file with a header row.
// Unreadable or empty sources are fatal input errors.
func LoadCSV(path string) (*types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV content: header row first, then one record per data
// row. Column kinds are inferred over the whole column (date before number,
// any disagreement falls back to string) and every cell is coerced to its
// column's kind, so evaluation never sees mixed-kind columns.
func ReadCSV(r io.Reader) (*types.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", types.ErrFatalInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if name == "" {
			return nil, fmt.Errorf("%w: empty column name in header", types.ErrFatalInput)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q in header", types.ErrFatalInput, name)
		}
		seen[name] = true
	}

	var raw [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", types.ErrFatalInput, len(raw)+2, err)
		}
		raw = append(raw, row)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no data rows", types.ErrFatalInput)
	}

	kinds := make(map[string]types.Kind, len(header))
	for col, name := range header {
		cells := make([]string, len(raw))
		for i, row := range raw {
			if col < len(row) {
				cells[i] = row[col]
			}
		}
		kinds[name] = rules.InferColumnKind(cells)
	}

	records := make([]types.Record, len(raw))
	for i, row := range raw {
		cells := make(map[string]types.Value, len(header))
		for col, name := range header {
			var token string
			if col < len(row) {
				token = row[col]
			}
			v, err := rules.CoerceToken(token, kinds[name])
			if err != nil {
				// Unreachable for inferred kinds; guard against future layouts.
				v = types.StringValue(token)
			}
			cells[name] = v
		}
		records[i] = types.Record{RowID: int64(i + 1), Cells: cells}
	}

	return &types.Dataset{
		Columns: append([]string(nil), header...),
		Kinds:   kinds,
		Records: records,
	}, nil
}
