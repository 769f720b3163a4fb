package plan

import (
	"io"
	"sort"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

// BaseTable is the leaf operator of §4.2: it wraps a memory.Storage and
// pushes predicate clauses and pagination down into the storage layer
// rather than wrapping itself in a generic Filter/Barrier node. The one
// exception is a filter chained after this node already carries a
// limit/offset (see pending), which goes through builderDefaults instead.
// Every other builder call (Or, Project, Distinct, set operations, alias)
// falls through to builderDefaults, which wraps a new node on top — a base
// table has no native way to do those things cheaper than the generic
// operator would.
type BaseTable struct {
	*builderDefaults
	name     string
	storage  *memory.Storage
	pred     sql.Predicate
	hasLimit bool
	limit    int64
	offset   int64
	tag      string
}

// NewBaseTable constructs the leaf over a storage engine.
func NewBaseTable(name string, storage *memory.Storage) *BaseTable {
	t := &BaseTable{name: name, storage: storage, tag: sql.NewOperatorTag()}
	t.builderDefaults = &builderDefaults{self: t}
	return t
}

func (t *BaseTable) Columns() sql.Schema    { return t.storage.Schema() }
func (t *BaseTable) AllColumns() sql.Schema { return t.storage.Schema() }

func (t *BaseTable) GetLimit() (int64, bool) { return t.limit, t.hasLimit }
func (t *BaseTable) GetOffset() int64        { return t.offset }

// CurrentPagination mirrors GetLimit/GetOffset here (a base table doesn't
// hide its own pagination the way Barrier does) but satisfies the same
// selfPaginated interface so applyLimit/applyOffset can treat both uniformly.
func (t *BaseTable) CurrentPagination() (bool, int64, int64) { return t.hasLimit, t.limit, t.offset }

func (t *BaseTable) GetProperty(name string) (interface{}, bool) {
	switch name {
	case "__id__":
		return t.tag, true
	case "__bind__":
		return t.pred.UnboundNames(), true
	case "__name__":
		return t.name, true
	default:
		return nil, false
	}
}

func (t *BaseTable) clone() *BaseTable {
	c := *t
	c.tag = sql.NewOperatorTag()
	c.builderDefaults = &builderDefaults{self: &c}
	return &c
}

// withClause fuses a newly chained clause into any existing clause(s) on
// the same column using the same §4.3 rewrite table Filter uses, so a
// contradiction chained directly onto a base table (e.g.
// `users.gt(age,40).lt(age,20)`) is proven empty at builder time exactly
// as it would be one level up through a Filter node.
func (t *BaseTable) withClause(col string, op sql.Op, v sql.ClauseValue) (sql.Table, error) {
	incoming := sql.Clause{Column: col, Op: op, Value: v}
	var same, rest []sql.Clause
	for _, c := range t.pred.Clauses {
		if c.Column == col {
			same = append(same, c)
		} else {
			rest = append(rest, c)
		}
	}
	fused, empty, err := fuseColumnClauses(same, incoming)
	if err != nil {
		return nil, err
	}
	if empty {
		return newEmptyTable(t.Columns(), t.AllColumns(), t), nil
	}
	c := t.clone()
	c.pred = sql.Predicate{Clauses: append(rest, fused...)}
	return c, nil
}

// pending reports whether this node already carries a pagination window
// that a new filter clause must not be allowed to reach through — the same
// barrier-absorption rule §4.6 applies one level up through Filter applies
// here too, since a base table accumulates its own limit/offset directly
// instead of always wrapping a Barrier.
func (t *BaseTable) pending() bool { return t.hasLimit || t.offset != 0 }

func (t *BaseTable) Eq(col string, v sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Eq(col, v)
	}
	return t.withClause(col, sql.OpEq, sql.BoundValue(v))
}
func (t *BaseTable) Lt(col string, v sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Lt(col, v)
	}
	return t.withClause(col, sql.OpLt, sql.BoundValue(v))
}
func (t *BaseTable) Lte(col string, v sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Lte(col, v)
	}
	return t.withClause(col, sql.OpLte, sql.BoundValue(v))
}
func (t *BaseTable) Gt(col string, v sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Gt(col, v)
	}
	return t.withClause(col, sql.OpGt, sql.BoundValue(v))
}
func (t *BaseTable) Gte(col string, v sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Gte(col, v)
	}
	return t.withClause(col, sql.OpGte, sql.BoundValue(v))
}
func (t *BaseTable) In(col string, vs []sql.Scalar) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.In(col, vs)
	}
	return t.withClause(col, sql.OpIn, sql.BoundValues(vs))
}
func (t *BaseTable) Like(col string, pattern string) (sql.Table, error) {
	if t.pending() {
		return t.builderDefaults.Like(col, pattern)
	}
	return t.withClause(col, sql.OpLike, sql.BoundValue(sql.Text(pattern)))
}

// candidateIDs picks the cheapest available seed set for the accumulated
// predicate: an indexed equality clause first, then an indexed range
// clause, falling back to a full scan. Every candidate is still
// re-evaluated against the full predicate afterward, so an imperfect seed
// choice can never produce a wrong answer, only a slower one.
func (t *BaseTable) candidateIDs() ([]sql.RowID, error) {
	for _, c := range t.pred.Clauses {
		if c.Op != sql.OpEq || !c.Value.Bound {
			continue
		}
		ids, ok, err := t.storage.EqLookup(c.Column, c.Value.Value)
		if err != nil {
			return nil, err
		}
		if ok {
			return ids, nil
		}
	}
	for _, c := range t.pred.Clauses {
		if !c.Value.Bound {
			continue
		}
		var lo, hi *sql.Scalar
		switch c.Op {
		case sql.OpLt, sql.OpLte:
			hi = &c.Value.Value
		case sql.OpGt, sql.OpGte:
			lo = &c.Value.Value
		default:
			continue
		}
		ids, ok, err := t.storage.RangeLookup(c.Column, lo, hi, false)
		if err != nil {
			return nil, err
		}
		if ok {
			return ids, nil
		}
	}
	return t.storage.ScanAll(), nil
}

func (t *BaseTable) filtered() ([]sql.RowID, []sql.Row, error) {
	if err := t.pred.Require(); err != nil {
		return nil, nil, err
	}
	candidates, err := t.candidateIDs()
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[sql.RowID]bool, len(candidates))
	var ids []sql.RowID
	var rows []sql.Row
	for _, id := range candidates {
		if seen[id] {
			continue
		}
		seen[id] = true
		row, ok := t.storage.Get(id)
		if !ok {
			continue
		}
		ok, err := t.pred.Eval(row)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			ids = append(ids, id)
			rows = append(rows, row)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	byID := make(map[sql.RowID]sql.Row, len(ids))
	for i, id := range ids {
		byID[id] = rows[i]
	}
	for i, id := range ids {
		rows[i] = byID[id]
	}
	return ids, rows, nil
}

func (t *BaseTable) window(ids []sql.RowID, rows []sql.Row) ([]sql.RowID, []sql.Row) {
	lo := t.offset
	if lo > int64(len(ids)) {
		lo = int64(len(ids))
	}
	hi := int64(len(ids))
	if t.hasLimit && lo+t.limit < hi {
		hi = lo + t.limit
	}
	return ids[lo:hi], rows[lo:hi]
}

func (t *BaseTable) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := t.filtered()
	if err != nil {
		return nil, err
	}
	ids, rows = t.window(ids, rows)
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (t *BaseTable) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := t.filtered()
	if err != nil {
		return 0, err
	}
	ids, _ = t.window(ids, make([]sql.Row, len(ids)))
	return int64(len(ids)), nil
}

func (t *BaseTable) Exists(ctx *sql.Context) (bool, error) {
	if err := t.pred.Require(); err != nil {
		return false, err
	}
	it, err := t.Iterate(ctx)
	if err != nil {
		return false, err
	}
	defer it.Close(ctx)
	_, _, err = it.Next(ctx)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *BaseTable) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := t.filtered()
	if err != nil {
		return nil, false, err
	}
	ids, rows = t.window(ids, rows)
	for i, candidate := range ids {
		if candidate == id {
			return rows[i], true, nil
		}
	}
	return nil, false, nil
}

func (t *BaseTable) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	_, rows, err := t.filtered()
	if err != nil {
		return false, err
	}
	cols := t.Columns().Names()
	for _, row := range rows {
		if rowEqual(row, member, cols) {
			return true, nil
		}
	}
	return false, nil
}

func (t *BaseTable) WithoutPagination() sql.Table {
	c := t.clone()
	c.hasLimit, c.limit, c.offset = false, 0, 0
	return c
}

func (t *BaseTable) WithPagination(hasLimit bool, limit, offset int64) sql.Table {
	c := t.clone()
	c.hasLimit, c.limit, c.offset = hasLimit, limit, offset
	return c
}

// Insert/Update/Delete implement sql.MutableTable directly over storage
// (§4.14); the accumulated predicate on this particular node value is not
// consulted because mutation always targets the underlying base relation,
// not the view a chain of filters happens to produce — Update/Delete take
// the view as an explicit argument instead.
func (t *BaseTable) Insert(ctx *sql.Context, row sql.Row) (sql.RowID, error) {
	return t.storage.Insert(row)
}

func (t *BaseTable) Update(ctx *sql.Context, view sql.Table, changes sql.Row) (int64, error) {
	if !derivesFrom(view, t) {
		return 0, sql.ErrViewNotDerived.New()
	}
	ids, _, err := drainAll(ctx, view)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := t.storage.Update(id, changes); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

func (t *BaseTable) Delete(ctx *sql.Context, view sql.Table) (int64, error) {
	if !derivesFrom(view, t) {
		return 0, sql.ErrViewNotDerived.New()
	}
	ids, _, err := drainAll(ctx, view)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := t.storage.Delete(id); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

// childTable and childrenTable are the structural interfaces every
// single-child and multi-child operator node implements; derivesFrom walks
// them to decide whether a view was built by composing builder calls on top
// of base, refusing Update/Delete otherwise (§7 usage errors).
type childTable interface{ Child() sql.Table }
type childrenTable interface{ Children() []sql.Table }

func derivesFrom(view sql.Table, base *BaseTable) bool {
	if bt, ok := view.(*BaseTable); ok {
		return bt.storage == base.storage
	}
	if c, ok := view.(childTable); ok {
		return derivesFrom(c.Child(), base)
	}
	if c, ok := view.(childrenTable); ok {
		for _, ch := range c.Children() {
			if derivesFrom(ch, base) {
				return true
			}
		}
	}
	return false
}
