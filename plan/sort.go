package plan

import (
	"container/heap"
	"io"
	"sort"

	"github.com/relit/relit/sql"
)

// Sort implements §4.5: ordering by one or more keys, using the numeric
// three-way comparison, the locale collator for text (via sql.Compare,
// which already dispatches to sql.CollateText), and byte comparison for
// everything else. Nulls sort last regardless of direction.
type Sort struct {
	*builderDefaults
	child sql.Table
	defs  []sql.OrderDef
	tag   string
}

func NewSort(child sql.Table, defs []sql.OrderDef) *Sort {
	s := &Sort{child: child, defs: defs, tag: sql.NewOperatorTag()}
	s.builderDefaults = &builderDefaults{self: s}
	return s
}

func (s *Sort) Child() sql.Table        { return s.child }
func (s *Sort) Columns() sql.Schema     { return s.child.Columns() }
func (s *Sort) AllColumns() sql.Schema  { return s.child.AllColumns() }
func (s *Sort) GetLimit() (int64, bool) { return 0, false }
func (s *Sort) GetOffset() int64        { return 0 }

func (s *Sort) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return s.tag, true
	}
	return s.child.GetProperty(name)
}

func compareScalarsNullable(a, b sql.Scalar) (int, error) {
	switch {
	case a.IsNull() && b.IsNull():
		return 0, nil
	case a.IsNull():
		return 1, nil
	case b.IsNull():
		return -1, nil
	default:
		return sql.Compare(a, b)
	}
}

func (s *Sort) compareRows(a, b sql.Row) (int, error) {
	for _, d := range s.defs {
		av, bv := a.Get(d.Column), b.Get(d.Column)
		c, err := compareScalarsNullable(av, bv)
		if err != nil {
			return 0, err
		}
		if d.Direction == sql.Desc && !av.IsNull() && !bv.IsNull() {
			c = -c
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

type sortItem struct {
	id  sql.RowID
	row sql.Row
}

// fullSort materializes the child and sorts every row — the fallback path
// when no bounded-heap k applies.
func (s *Sort) fullSort(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	ids, rows, err := drainAll(ctx, s.child)
	if err != nil {
		return nil, nil, err
	}
	items := make([]sortItem, len(ids))
	for i := range ids {
		items[i] = sortItem{id: ids[i], row: rows[i]}
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := s.compareRows(items[i].row, items[j].row)
		if err != nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, nil, sortErr
	}
	outIDs := make([]sql.RowID, len(items))
	outRows := make([]sql.Row, len(items))
	for i, it := range items {
		outIDs[i], outRows[i] = it.id, it.row
	}
	return outIDs, outRows, nil
}

// topKHeap is a bounded max-heap (by the sort's own ordering) used to track
// the k smallest elements seen so far without ever materializing more than
// k+1 at once.
type topKHeap struct {
	s     *Sort
	items []sortItem
	err   error
}

func (h *topKHeap) Len() int { return len(h.items) }
func (h *topKHeap) Less(i, j int) bool {
	c, err := h.s.compareRows(h.items[i].row, h.items[j].row)
	if err != nil && h.err == nil {
		h.err = err
	}
	return c > 0 // max-heap: largest (by sort order) at the root, for eviction
}
func (h *topKHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap) Push(x interface{}) { h.items = append(h.items, x.(sortItem)) }
func (h *topKHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// TopK returns the k smallest rows under this sort's ordering, implementing
// the bounded max-heap top-k strategy of §4.5: only ever holds k+1 rows,
// regardless of how many the child produces. Callers (Barrier) only invoke
// this when k is within the configured threshold.
func (s *Sort) TopK(ctx *sql.Context, k int64) ([]sql.RowID, []sql.Row, error) {
	if k <= 0 {
		return nil, nil, nil
	}
	it, err := s.child.Iterate(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close(ctx)

	h := &topKHeap{s: s}
	for {
		id, row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		heap.Push(h, sortItem{id: id, row: row})
		if h.err != nil {
			return nil, nil, h.err
		}
		if int64(h.Len()) > k {
			heap.Pop(h)
			if h.err != nil {
				return nil, nil, h.err
			}
		}
	}
	items := make([]sortItem, len(h.items))
	copy(items, h.items)
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		c, err := s.compareRows(items[i].row, items[j].row)
		if err != nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, nil, sortErr
	}
	ids := make([]sql.RowID, len(items))
	rows := make([]sql.Row, len(items))
	for i, it := range items {
		ids[i], rows[i] = it.id, it.row
	}
	return ids, rows, nil
}

func (s *Sort) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := s.fullSort(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (s *Sort) Count(ctx *sql.Context) (int64, error) { return s.child.Count(ctx) }
func (s *Sort) Exists(ctx *sql.Context) (bool, error) { return s.child.Exists(ctx) }

func (s *Sort) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	return s.child.Load(ctx, id)
}

func (s *Sort) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	return s.child.Has(ctx, member)
}
