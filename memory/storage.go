// Package memory is the storage engine a plan.BaseTable wraps: row storage
// keyed by an internal monotonic id, plus one ordered index per indexed
// column, grounded in the teacher's own in-memory "memory" package (the
// table implementation its test harness and examples construct fixtures
// against) but holding relit rows/scalars instead of the teacher's
// sql.Row/sql.Type values.
package memory

import (
	"sort"
	"sync"

	"github.com/relit/relit/sql"
	"github.com/relit/relit/sql/index"
)

// Storage is the mutable backing store of one base table: it owns row
// storage and every secondary/unique/primary index declared on the schema.
// It does not implement sql.Table itself — plan.BaseTable wraps a Storage
// and supplies the fluent builder semantics, per the layering decision that
// keeps memory a one-directional dependency of plan rather than the reverse.
type Storage struct {
	mu      sync.RWMutex
	schema  sql.Schema
	rows    map[sql.RowID]sql.Row
	order   []sql.RowID // insertion order, for deterministic full scans
	nextID  sql.RowID
	indexes map[string]index.Index
	cfg     sql.EngineConfig
}

// NewStorage allocates an empty store for schema, building one Index per
// column carrying an IndexHint other than IndexNone.
func NewStorage(schema sql.Schema, cfg sql.EngineConfig) *Storage {
	s := &Storage{
		schema:  schema,
		rows:    make(map[sql.RowID]sql.Row),
		indexes: make(map[string]index.Index),
		cfg:     cfg,
	}
	for _, col := range schema {
		if col.Indexed() {
			s.indexes[col.Name] = index.NewMultimapIndex(col.Name, cfg.IndexOverflowThreshold)
		}
	}
	return s
}

func (s *Storage) Schema() sql.Schema { return s.schema }

// Indexed reports whether col carries a usable index, and if so its hint.
func (s *Storage) Indexed(col string) (sql.IndexHint, bool) {
	i := s.schema.IndexOf(col)
	if i < 0 {
		return sql.IndexNone, false
	}
	hint := s.schema[i].IndexHint
	return hint, hint != sql.IndexNone
}

func (s *Storage) packKey(col string, v sql.Scalar) []byte {
	i := s.schema.IndexOf(col)
	if i < 0 {
		return nil
	}
	switch s.schema[i].Type {
	case sql.TypeInt:
		return index.PackInt(v.Int)
	case sql.TypeFloat, sql.TypeDecimal:
		f, _ := v.AsFloat()
		return index.PackFloat(f)
	case sql.TypeText:
		return index.PackText(sql.CollationKey(v.Text))
	case sql.TypeBinary:
		return index.PackBinary(v.Binary)
	default:
		return index.PackBinary([]byte(v.String()))
	}
}

// Insert appends row, enforcing primary/unique-key violations (§7 Integrity
// errors) before any index is mutated.
func (s *Storage) Insert(row sql.Row) (sql.RowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, col := range s.schema {
		if col.IndexHint != sql.IndexPrimary && col.IndexHint != sql.IndexUnique {
			continue
		}
		v := row.Get(col.Name)
		if v.IsNull() {
			continue
		}
		key := s.packKey(col.Name, v)
		ids, err := s.indexes[col.Name].PointLookup(key)
		if err != nil {
			return 0, err
		}
		if len(ids) > 0 {
			if col.IndexHint == sql.IndexPrimary {
				return 0, sql.ErrPrimaryKeyViolation.New(col.Name)
			}
			return 0, sql.ErrUniqueViolation.New(col.Name)
		}
	}

	id := s.nextID
	s.nextID++
	s.rows[id] = row.Clone()
	s.order = append(s.order, id)

	for col, idx := range s.indexes {
		v := row.Get(col)
		if v.IsNull() {
			continue
		}
		if err := idx.Insert(s.packKey(col, v), id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Delete removes the row with id, if present.
func (s *Storage) Delete(id sql.RowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	for col, idx := range s.indexes {
		v := row.Get(col)
		if v.IsNull() {
			continue
		}
		if err := idx.Delete(s.packKey(col, v), id); err != nil {
			return err
		}
	}
	delete(s.rows, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Update applies changes to the row at id, re-keying any affected index.
func (s *Storage) Update(id sql.RowID, changes sql.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	for col, idx := range s.indexes {
		old := row.Get(col)
		if nv, touched := changes[col]; touched && !old.IsNull() {
			if eq, _ := sql.Equal(old, nv); !eq {
				idx.Delete(s.packKey(col, old), id)
			}
		}
	}
	merged := sql.Merge(row, changes)
	s.rows[id] = merged
	for col, idx := range s.indexes {
		old := row.Get(col)
		nv := merged.Get(col)
		if _, touched := changes[col]; !touched {
			continue
		}
		if eq, _ := sql.Equal(old, nv); eq {
			continue
		}
		if !nv.IsNull() {
			idx.Insert(s.packKey(col, nv), id)
		}
	}
	return nil
}

// Get returns the row at id.
func (s *Storage) Get(id sql.RowID) (sql.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	return row, ok
}

// ScanAll returns every row id in insertion order, for the base table's
// default full-scan iteration path.
func (s *Storage) ScanAll() []sql.RowID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sql.RowID, len(s.order))
	copy(out, s.order)
	return out
}

// Count is the number of live rows.
func (s *Storage) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows))
}

// EqLookup returns the row ids whose col equals v, via the column's index.
// ok is false if col has no index (the caller falls back to a full scan).
func (s *Storage) EqLookup(col string, v sql.Scalar) (ids []sql.RowID, ok bool, err error) {
	s.mu.RLock()
	idx, has := s.indexes[col]
	s.mu.RUnlock()
	if !has {
		return nil, false, nil
	}
	ids, err = idx.PointLookup(s.packKey(col, v))
	return ids, true, err
}

// RangeLookup returns row ids whose indexed col falls within [lo, hi] (a nil
// bound means unbounded), in ascending order unless reverse.
func (s *Storage) RangeLookup(col string, lo, hi *sql.Scalar, reverse bool) (ids []sql.RowID, ok bool, err error) {
	s.mu.RLock()
	idx, has := s.indexes[col]
	s.mu.RUnlock()
	if !has {
		return nil, false, nil
	}
	var loKey, hiKey []byte
	if lo != nil {
		loKey = s.packKey(col, *lo)
	}
	if hi != nil {
		hiKey = s.packKey(col, *hi)
	}
	ids, err = idx.Range(loKey, hiKey, reverse)
	return ids, true, err
}

// SortedRows returns a copy of every live row id in ascending id order. It
// takes no ordering spec and consults no column index.
func (s *Storage) SortedRows() []sql.RowID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]sql.RowID, len(s.order))
	copy(ids, s.order)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close releases every index's resources (temp overflow files).
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, idx := range s.indexes {
		if err := idx.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
