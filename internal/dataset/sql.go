package dataset

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yangizzy/tablekeeper/internal/rules"
	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * SQL dataset source.
 *
 * Materializes a snapshot from a SQL query (typically "SELECT * FROM t")
 * over any driver the core/db package opens. Driver values map onto the
 * cell kind system: NULL -> empty, time.Time -> date, numeric types ->
 * number, text -> inferred (a TEXT column holding ISO dates becomes a date
 * column, matching the CSV loader). Column kinds fold the same way as CSV
 * inference: any disagreement across rows falls back to string.
 *
 * Row IDs are assigned by result order, so the query's ORDER BY defines
 * record identity for violation reporting.
 */

// LoadSQL runs the query and materializes the full result set as an
// immutable dataset snapshot.
func LoadSQL(db *sqlx.DB, query string) (*types.Dataset, error) {
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}

	var cells [][]types.Value
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", types.ErrFatalInput, len(cells)+1, err)
		}
		row := make([]types.Value, len(columns))
		for i, v := range raw {
			row[i] = nativeValue(v)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: query returned no rows", types.ErrFatalInput)
	}

	kinds := make(map[string]types.Kind, len(columns))
	for i, name := range columns {
		kind := types.KindEmpty
		for _, row := range cells {
			ck := row[i].Kind
			if ck == types.KindEmpty {
				continue
			}
			if kind == types.KindEmpty {
				kind = ck
			} else if kind != ck {
				kind = types.KindString
				break
			}
		}
		kinds[name] = kind
	}

	records := make([]types.Record, len(cells))
	for r, row := range cells {
		rec := make(map[string]types.Value, len(columns))
		for i, name := range columns {
			v, err := rules.CoerceValue(row[i], kinds[name])
			if err != nil {
				v = types.StringValue(row[i].Render())
			}
			rec[name] = v
		}
		records[r] = types.Record{RowID: int64(r + 1), Cells: rec}
	}

	return &types.Dataset{
		Columns: append([]string(nil), columns...),
		Kinds:   kinds,
		Records: records,
	}, nil
}

// nativeValue maps one driver value onto the cell kind system.
func nativeValue(v any) types.Value {
	switch t := v.(type) {
	case nil:
		return types.EmptyValue()
	case time.Time:
		return types.DateValue(t.UTC())
	case float64:
		return types.NumberValue(t)
	case float32:
		return types.NumberValue(float64(t))
	case int64:
		return types.NumberValue(float64(t))
	case int:
		return types.NumberValue(float64(t))
	case bool:
		if t {
			return types.StringValue("true")
		}
		return types.StringValue("false")
	case []byte:
		return textValue(string(t))
	case string:
		return textValue(t)
	default:
		return types.StringValue(fmt.Sprintf("%v", t))
	}
}

// textValue infers the kind of a text cell the same way the CSV loader does.
func textValue(s string) types.Value {
	v, err := rules.CoerceToken(s, rules.InferKind(s))
	if err != nil {
		return types.StringValue(s)
	}
	return v
}
