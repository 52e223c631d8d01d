// internal/rules/partition.go
package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/yangizzy/tablekeeper/internal/types"
)

/*
 * Partition binding.
 *
 * Applies a parsed ScopePlan to a dataset snapshot, producing the ordered
 * record groups the constraints evaluate against. Binding validates what
 * parsing could not: referenced columns must exist (COLUMN_NOT_FOUND) and
 * each-* key columns must be date-kinded (TYPE_MISMATCH).
 *
 * Ordering: partition-by-key groups sort ascending by their key instant,
 * never by map iteration order, so the same expression and snapshot always
 * yield the same partitions in the same order. Records keep dataset order
 * inside every partition.
 *
 * Records with an empty key cell belong to no partition: the union of all
 * date partitions equals the dataset filtered to non-null dates in the key
 * column, and partitions are disjoint.
 */

// PartitionAll is the partition key for the unscoped (all records) case.
const PartitionAll = "ALL"

// Partition is one group of records evaluated independently against a
// rule's constraints.
type Partition struct {
	Key     string
	Records []types.Record
}

// Bind applies the plan to a dataset, returning partitions in evaluation
// order. The dataset is never mutated; record slices alias the snapshot.
func (p *ScopePlan) Bind(ds *types.Dataset) ([]Partition, error) {
	records := ds.Records

	if p.Filter != nil {
		var err error
		records, err = filterRecords(ds, records, p.Filter)
		if err != nil {
			return nil, err
		}
	}

	switch p.Kind {
	case ScopeAll:
		return []Partition{{Key: PartitionAll, Records: records}}, nil
	case ScopePredicate:
		return []Partition{{Key: p.Filter.Label(), Records: records}}, nil
	case ScopeEachDate:
		return p.groupByKey(ds, records, "2006-01-02", truncateToDay)
	case ScopeEachMonth:
		return p.groupByKey(ds, records, "2006-01", truncateToMonth)
	default:
		return nil, fmt.Errorf("%w: unknown scope kind %d", types.ErrScopeSyntax, p.Kind)
	}
}

// filterRecords applies a predicate, coercing the literal against the
// column's kind once up front.
func filterRecords(ds *types.Dataset, records []types.Record, pred *Predicate) ([]types.Record, error) {
	if !ds.HasColumn(pred.Column) {
		return nil, fmt.Errorf("%w: scope column %q", types.ErrColumnNotFound, pred.Column)
	}
	target, err := CoerceToken(pred.Literal, ds.ColumnKind(pred.Column))
	if err != nil {
		return nil, fmt.Errorf("%w: literal %q does not match %s column %q",
			types.ErrCoercionFailed, pred.Literal, ds.ColumnKind(pred.Column), pred.Column)
	}

	var matched []types.Record
	for _, rec := range records {
		if Compare(pred.Op, rec.Cell(pred.Column), target) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// groupByKey builds one partition per distinct truncated key instant,
// ordered ascending.
func (p *ScopePlan) groupByKey(ds *types.Dataset, records []types.Record, layout string, truncate func(time.Time) time.Time) ([]Partition, error) {
	if !ds.HasColumn(p.KeyColumn) {
		return nil, fmt.Errorf("%w: scope column %q", types.ErrColumnNotFound, p.KeyColumn)
	}
	if kind := ds.ColumnKind(p.KeyColumn); kind != types.KindDate {
		return nil, fmt.Errorf("%w: scope column %q is a %s column, not date",
			types.ErrCoercionFailed, p.KeyColumn, kind)
	}

	groups := make(map[time.Time][]types.Record)
	for _, rec := range records {
		cell := rec.Cell(p.KeyColumn)
		if cell.IsEmpty() {
			continue
		}
		key := truncate(cell.Time)
		groups[key] = append(groups[key], rec)
	}

	keys := make([]time.Time, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	parts := make([]Partition, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, Partition{Key: k.Format(layout), Records: groups[k]})
	}
	return parts, nil
}

// truncateToDay drops any time-of-day component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// truncateToMonth drops the day and time-of-day components.
func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
