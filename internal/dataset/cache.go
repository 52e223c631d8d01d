package dataset

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yangizzy/tablekeeper/internal/core/db"
	"github.com/yangizzy/tablekeeper/internal/rules"
	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Dataset snapshot cache.
 *
 * Re-running validation against an unchanged source should not re-parse the
 * source. The materialized snapshot is stored relationally: one row per
 * snapshot keyed by source fingerprint, columns with their inferred kinds,
 * and one JSON cell object per record. Because every cell is coerced to its
 * column kind at load time, the rendered-text form plus the stored kind
 * round-trips losslessly.
 *
 * Staleness: the fingerprint is the SHA256 of the source bytes, so any
 * content change misses the cache and the stale snapshot is replaced on the
 * next store. The engine never sees a partially written snapshot - stores
 * are transactional.
 */

// Cache stores materialized dataset snapshots in the cache database.
type Cache struct {
	q *db.Queries
}

// NewCache wraps an open cache connection. The schema must already be
// migrated (db.MigrateUp).
func NewCache(conn *sqlx.DB) (*Cache, error) {
	q, err := db.LoadQueries(conn)
	if err != nil {
		return nil, err
	}
	return &Cache{q: q}, nil
}

// Fingerprint computes the cache key for a source file: SHA256 over its
// content.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// SnapshotInfo is cache metadata for one stored snapshot.
type SnapshotInfo struct {
	Fingerprint string `db:"fingerprint"`
	Source      string `db:"source"`
	CachedAt    string `db:"cached_at"`
	RowCount    int64  `db:"row_count"`
}

// cachedRow is one stored record: the row ID plus a JSON object of column
// name to rendered cell text (empty cells omitted).
type cachedRow struct {
	RowID int64  `db:"row_id"`
	Cells string `db:"cells"`
}

type cachedColumn struct {
	Name string `db:"name"`
	Kind string `db:"kind"`
}

// Lookup returns the cached snapshot for a fingerprint, or found=false on a
// cache miss.
func (c *Cache) Lookup(fingerprint string) (*types.Dataset, bool, error) {
	var info SnapshotInfo
	err := c.q.Get("get-snapshot", &info, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	var cols []cachedColumn
	if err := c.q.Select("list-columns", &cols, fingerprint); err != nil {
		return nil, false, fmt.Errorf("cache columns: %w", err)
	}

	var rows []cachedRow
	if err := c.q.Select("list-rows", &rows, fingerprint); err != nil {
		return nil, false, fmt.Errorf("cache rows: %w", err)
	}

	ds := &types.Dataset{
		Columns: make([]string, 0, len(cols)),
		Kinds:   make(map[string]types.Kind, len(cols)),
		Records: make([]types.Record, 0, len(rows)),
	}
	for _, col := range cols {
		ds.Columns = append(ds.Columns, col.Name)
		ds.Kinds[col.Name] = types.ParseKind(col.Kind)
	}

	for _, row := range rows {
		var cellText map[string]string
		if err := json.Unmarshal([]byte(row.Cells), &cellText); err != nil {
			return nil, false, fmt.Errorf("cache row %d: %w", row.RowID, err)
		}
		cells := make(map[string]types.Value, len(ds.Columns))
		for _, name := range ds.Columns {
			text, ok := cellText[name]
			if !ok {
				cells[name] = types.EmptyValue()
				continue
			}
			v, err := rules.CoerceToken(text, ds.Kinds[name])
			if err != nil {
				return nil, false, fmt.Errorf("cache row %d, column %q: %w", row.RowID, name, err)
			}
			cells[name] = v
		}
		ds.Records = append(ds.Records, types.Record{RowID: row.RowID, Cells: cells})
	}

	return ds, true, nil
}

// Store replaces any snapshot under the fingerprint with the given dataset.
// The whole replacement is one transaction.
func (c *Cache) Store(fingerprint, source string, ds *types.Dataset) error {
	tx, err := c.q.DB().Beginx()
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}

	if err := c.storeTx(tx, fingerprint, source, ds); err != nil {
		tx.Rollback()
		return fmt.Errorf("cache store: %w", err)
	}
	return tx.Commit()
}

func (c *Cache) storeTx(tx *sqlx.Tx, fingerprint, source string, ds *types.Dataset) error {
	for _, name := range []string{"delete-rows", "delete-columns", "delete-snapshot"} {
		if err := c.execTx(tx, name, fingerprint); err != nil {
			return err
		}
	}

	cachedAt := time.Now().UTC().Format(time.RFC3339)
	if err := c.execTx(tx, "insert-snapshot", fingerprint, source, cachedAt, int64(ds.Len())); err != nil {
		return err
	}

	for i, name := range ds.Columns {
		if err := c.execTx(tx, "insert-column", fingerprint, i, name, ds.Kinds[name].String()); err != nil {
			return err
		}
	}

	for _, rec := range ds.Records {
		cellText := make(map[string]string, len(rec.Cells))
		for name, v := range rec.Cells {
			if v.IsEmpty() {
				continue
			}
			cellText[name] = v.Render()
		}
		blob, err := json.Marshal(cellText)
		if err != nil {
			return err
		}
		if err := c.execTx(tx, "insert-row", fingerprint, rec.RowID, string(blob)); err != nil {
			return err
		}
	}

	return nil
}

func (c *Cache) execTx(tx *sqlx.Tx, name string, args ...interface{}) error {
	query, err := c.q.Raw(name)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Snapshots lists cache metadata in cache order.
func (c *Cache) Snapshots() ([]SnapshotInfo, error) {
	var infos []SnapshotInfo
	if err := c.q.Select("list-snapshots", &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Clear drops every cached snapshot.
func (c *Cache) Clear() error {
	tx, err := c.q.DB().Beginx()
	if err != nil {
		return err
	}
	for _, name := range []string{"delete-all-rows", "delete-all-columns", "delete-all-snapshots"} {
		if err := c.execTx(tx, name); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadCSVCached loads a CSV dataset through the cache: a fingerprint hit
// returns the stored snapshot, a miss parses the source and stores it.
// fromCache reports which path was taken.
func LoadCSVCached(c *Cache, path string) (ds *types.Dataset, fromCache bool, err error) {
	fingerprint, err := Fingerprint(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", types.ErrFatalInput, err)
	}

	if ds, ok, err := c.Lookup(fingerprint); err == nil && ok {
		return ds, true, nil
	} else if err != nil {
		return nil, false, err
	}

	ds, err = LoadCSV(path)
	if err != nil {
		return nil, false, err
	}
	if err := c.Store(fingerprint, path, ds); err != nil {
		return nil, false, err
	}
	return ds, false, nil
}
