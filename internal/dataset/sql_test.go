package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yangizzy/tablekeeper/internal/types"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoadSQL(t *testing.T) {
	conn := openTestDB(t)
	conn.MustExec(`CREATE TABLE tx (day TEXT, amount REAL, status TEXT)`)
	conn.MustExec(`INSERT INTO tx VALUES
		('2023-01-01', 10.5, 'Active'),
		('2023-01-02', NULL, 'Inactive'),
		(NULL, 20, 'Active')`)

	ds, err := LoadSQL(conn, "SELECT day, amount, status FROM tx ORDER BY rowid")
	if err != nil {
		t.Fatalf("LoadSQL() error = %v", err)
	}

	if len(ds.Columns) != 3 {
		t.Fatalf("Columns = %v, want 3", ds.Columns)
	}
	// A TEXT column holding ISO dates becomes a date column, same as CSV.
	if got := ds.ColumnKind("day"); got != types.KindDate {
		t.Errorf("ColumnKind(day) = %v, want date", got)
	}
	if got := ds.ColumnKind("amount"); got != types.KindNumber {
		t.Errorf("ColumnKind(amount) = %v, want number", got)
	}
	if got := ds.ColumnKind("status"); got != types.KindString {
		t.Errorf("ColumnKind(status) = %v, want string", got)
	}

	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
	for i, rec := range ds.Records {
		if rec.RowID != int64(i+1) {
			t.Errorf("Records[%d].RowID = %d, want %d", i, rec.RowID, i+1)
		}
	}

	wantDate := types.DateValue(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if got := ds.Records[0].Cell("day"); !got.Equal(wantDate) {
		t.Errorf("row 1 day = %+v, want %+v", got, wantDate)
	}
	if !ds.Records[1].Cell("amount").IsEmpty() {
		t.Errorf("row 2 amount = %+v, want empty", ds.Records[1].Cell("amount"))
	}
	if !ds.Records[2].Cell("day").IsEmpty() {
		t.Errorf("row 3 day = %+v, want empty", ds.Records[2].Cell("day"))
	}
	if got := ds.Records[2].Cell("amount"); !got.Equal(types.NumberValue(20)) {
		t.Errorf("row 3 amount = %+v, want 20", got)
	}
}

func TestLoadSQL_MixedTextFallsBackToString(t *testing.T) {
	conn := openTestDB(t)
	conn.MustExec(`CREATE TABLE t (code TEXT)`)
	conn.MustExec(`INSERT INTO t VALUES ('42'), ('hello')`)

	ds, err := LoadSQL(conn, "SELECT code FROM t ORDER BY rowid")
	if err != nil {
		t.Fatalf("LoadSQL() error = %v", err)
	}
	if got := ds.ColumnKind("code"); got != types.KindString {
		t.Fatalf("ColumnKind = %v, want string", got)
	}
	if got := ds.Records[0].Cell("code"); !got.Equal(types.StringValue("42")) {
		t.Errorf("row 1 code = %+v, want string 42", got)
	}
}

func TestLoadSQL_Errors(t *testing.T) {
	conn := openTestDB(t)
	conn.MustExec(`CREATE TABLE empty_t (x TEXT)`)

	t.Run("empty result", func(t *testing.T) {
		_, err := LoadSQL(conn, "SELECT x FROM empty_t")
		if !errors.Is(err, types.ErrFatalInput) {
			t.Errorf("LoadSQL() error = %v, want ErrFatalInput", err)
		}
	})

	t.Run("bad query", func(t *testing.T) {
		_, err := LoadSQL(conn, "SELECT nope FROM missing")
		if !errors.Is(err, types.ErrFatalInput) {
			t.Errorf("LoadSQL() error = %v, want ErrFatalInput", err)
		}
	})
}
