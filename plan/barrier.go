package plan

import (
	"github.com/relit/relit/sql"
)

// Barrier is the §4.6 pagination fence: it freezes a paginated child's
// window so that any later filter/order/pagination call composes on top of
// the already-materialized result instead of reaching through it. Every
// other operator's generic builder methods call BarrierIfPaginated before
// wrapping a new node, which is what gives the whole tree this behavior
// without each operator special-casing it.
type Barrier struct {
	*builderDefaults
	child    sql.Table
	hasLimit bool
	limit    int64
	offset   int64
	tag      string
}

// NewBarrier freezes child's own reported pagination and clears it from the
// child so the frozen window isn't applied twice.
func NewBarrier(child sql.Table) *Barrier {
	limit, hasLimit := child.GetLimit()
	offset := child.GetOffset()
	frozen := child
	if pc, ok := child.(sql.PaginationClearer); ok {
		frozen = pc.WithoutPagination()
	}
	b := &Barrier{child: frozen, hasLimit: hasLimit, limit: limit, offset: offset, tag: sql.NewOperatorTag()}
	b.builderDefaults = &builderDefaults{self: b}
	return b
}

// BarrierIfPaginated wraps t in a Barrier only if it is not already one and
// it reports a pagination window of its own; otherwise it is returned
// unchanged. This is the single mechanism backing every absorption rule in
// §4.6.
func BarrierIfPaginated(t sql.Table) sql.Table {
	if _, ok := t.(*Barrier); ok {
		return t
	}
	_, hasLimit := t.GetLimit()
	if !hasLimit && t.GetOffset() == 0 {
		return t
	}
	return NewBarrier(t)
}

func (b *Barrier) Child() sql.Table { return b.child }

func (b *Barrier) Columns() sql.Schema    { return b.child.Columns() }
func (b *Barrier) AllColumns() sql.Schema { return b.child.AllColumns() }

// GetLimit/GetOffset always report "no pagination" upward: a Barrier's own
// window is absorbed, never re-exposed to a parent that might compose past
// it.
func (b *Barrier) GetLimit() (int64, bool) { return 0, false }
func (b *Barrier) GetOffset() int64        { return 0 }

// CurrentPagination exposes the real frozen window for applyLimit/
// applyOffset's own use when a chained .limit()/.offset() call lands
// directly on this Barrier — unlike GetLimit/GetOffset, which must keep
// lying to parents, this one tells the truth to the mutation helpers below.
func (b *Barrier) CurrentPagination() (bool, int64, int64) { return b.hasLimit, b.limit, b.offset }

func (b *Barrier) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return b.tag, true
	}
	return nil, false
}

// topKTable is implemented by Sort; a Barrier sitting directly on top of a
// Sort with a bounded limit+offset uses it instead of materializing and
// discarding everything past the window, per §4.5's bounded max-heap
// strategy.
type topKTable interface {
	TopK(ctx *sql.Context, k int64) ([]sql.RowID, []sql.Row, error)
}

func (b *Barrier) candidateRows(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	if b.hasLimit {
		if topker, ok := b.child.(topKTable); ok {
			k := b.offset + b.limit
			if k >= 0 && k <= engineConfig().SortHeapMaxK {
				return topker.TopK(ctx, k)
			}
		}
	}
	return drainAll(ctx, b.child)
}

func (b *Barrier) window(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	ids, rows, err := b.candidateRows(ctx)
	if err != nil {
		return nil, nil, err
	}
	lo := b.offset
	if lo > int64(len(ids)) {
		lo = int64(len(ids))
	}
	hi := int64(len(ids))
	if b.hasLimit && lo+b.limit < hi {
		hi = lo + b.limit
	}
	return ids[lo:hi], rows[lo:hi], nil
}

func (b *Barrier) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := b.window(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (b *Barrier) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := b.window(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (b *Barrier) Exists(ctx *sql.Context) (bool, error) {
	n, err := b.Count(ctx)
	return n > 0, err
}

func (b *Barrier) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := b.window(ctx)
	if err != nil {
		return nil, false, err
	}
	for i, candidate := range ids {
		if candidate == id {
			return rows[i], true, nil
		}
	}
	return nil, false, nil
}

func (b *Barrier) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	_, rows, err := b.window(ctx)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if rowEqual(row, member, b.Columns().Names()) {
			return true, nil
		}
	}
	return false, nil
}

// WithoutPagination reports the Barrier unchanged: a Barrier's window is
// never "pending" pagination from a parent's point of view (GetLimit/
// GetOffset already say so), so there is nothing to clear.
func (b *Barrier) WithoutPagination() sql.Table { return b }

// WithPagination replaces the frozen window itself — this is how
// `.limit()`/`.offset()` calls directly on a Barrier (or on anything that
// got absorbed into one) mutate the absorbed window instead of stacking a
// second Barrier on top, matching "limit/offset clone the barrier".
func (b *Barrier) WithPagination(hasLimit bool, limit, offset int64) sql.Table {
	clone := *b
	clone.hasLimit = hasLimit
	clone.limit = limit
	clone.offset = offset
	clone.tag = sql.NewOperatorTag()
	nb := &clone
	nb.builderDefaults = &builderDefaults{self: nb}
	return nb
}
