package plan

import "github.com/relit/relit/sql"

// Intersect and Except both materialize the right-hand side into a
// row-identity hash set once, then probe it with each row of the left side,
// which is also drained in full — the "probe planning" of §4.8, simplified from the full adaptive
// measure→indexed→materialized algorithm (which plan/adaptive.go implements
// for the base-table predicate case) to an always-materialize strategy here,
// since set operations have no single indexed column to measure against.

type Except struct {
	*builderDefaults
	left, right sql.Table
	tag         string
}

func NewExcept(left, right sql.Table) (sql.Table, error) {
	if err := checkColumnCount(left.Columns(), right.Columns()); err != nil {
		return nil, err
	}
	e := &Except{left: left, right: right, tag: sql.NewOperatorTag()}
	e.builderDefaults = &builderDefaults{self: e}
	return e, nil
}

func (e *Except) Children() []sql.Table { return []sql.Table{e.left, e.right} }

func (e *Except) Columns() sql.Schema     { return e.left.Columns() }
func (e *Except) AllColumns() sql.Schema  { return e.left.Columns() }
func (e *Except) GetLimit() (int64, bool) { return 0, false }
func (e *Except) GetOffset() int64        { return 0 }

func (e *Except) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return e.tag, true
	}
	return nil, false
}

func (e *Except) probeSet(ctx *sql.Context) (map[uint64]bool, error) {
	_, rows, err := drainAll(ctx, e.right)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]bool, len(rows))
	for _, row := range rows {
		h, err := rowHash(row)
		if err != nil {
			return nil, err
		}
		set[h] = true
	}
	return set, nil
}

func (e *Except) matching(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	probe, err := e.probeSet(ctx)
	if err != nil {
		return nil, nil, err
	}
	ids, rows, err := drainAll(ctx, e.left)
	if err != nil {
		return nil, nil, err
	}
	var outIDs []sql.RowID
	var outRows []sql.Row
	for i, row := range rows {
		h, err := rowHash(row)
		if err != nil {
			return nil, nil, err
		}
		if !probe[h] {
			outIDs = append(outIDs, ids[i])
			outRows = append(outRows, row)
		}
	}
	return outIDs, outRows, nil
}

func (e *Except) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := e.matching(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (e *Except) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := e.matching(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (e *Except) Exists(ctx *sql.Context) (bool, error) {
	n, err := e.Count(ctx)
	return n > 0, err
}

func (e *Except) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := e.matching(ctx)
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

func (e *Except) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	ok, err := e.left.Has(ctx, member)
	if err != nil || !ok {
		return false, err
	}
	return notHas(ctx, e.right, member)
}

func notHas(ctx *sql.Context, t sql.Table, member sql.Row) (bool, error) {
	ok, err := t.Has(ctx, member)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Intersect is the dual of Except: a row survives only if both sides
// contain a matching row. It is not exposed through sql.Table directly
// (the interface names only Union/Except, per the builder surface of §4.1)
// but is available for callers composing a tree by hand.
type Intersect struct {
	*builderDefaults
	left, right sql.Table
	tag         string
}

func NewIntersect(left, right sql.Table) (sql.Table, error) {
	if err := checkColumnCount(left.Columns(), right.Columns()); err != nil {
		return nil, err
	}
	i := &Intersect{left: left, right: right, tag: sql.NewOperatorTag()}
	i.builderDefaults = &builderDefaults{self: i}
	return i, nil
}

func (i *Intersect) Children() []sql.Table { return []sql.Table{i.left, i.right} }

func (i *Intersect) Columns() sql.Schema     { return i.left.Columns() }
func (i *Intersect) AllColumns() sql.Schema  { return i.left.Columns() }
func (i *Intersect) GetLimit() (int64, bool) { return 0, false }
func (i *Intersect) GetOffset() int64        { return 0 }

func (i *Intersect) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return i.tag, true
	}
	return nil, false
}

func (i *Intersect) matching(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	_, rrows, err := drainAll(ctx, i.right)
	if err != nil {
		return nil, nil, err
	}
	probe := make(map[uint64]bool, len(rrows))
	for _, row := range rrows {
		h, err := rowHash(row)
		if err != nil {
			return nil, nil, err
		}
		probe[h] = true
	}
	ids, rows, err := drainAll(ctx, i.left)
	if err != nil {
		return nil, nil, err
	}
	var outIDs []sql.RowID
	var outRows []sql.Row
	for idx, row := range rows {
		h, err := rowHash(row)
		if err != nil {
			return nil, nil, err
		}
		if probe[h] {
			outIDs = append(outIDs, ids[idx])
			outRows = append(outRows, row)
		}
	}
	return outIDs, outRows, nil
}

func (i *Intersect) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := i.matching(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (i *Intersect) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := i.matching(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (i *Intersect) Exists(ctx *sql.Context) (bool, error) {
	n, err := i.Count(ctx)
	return n > 0, err
}

func (i *Intersect) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := i.matching(ctx)
	if err != nil {
		return nil, false, err
	}
	for idx, candidate := range ids {
		if candidate == id {
			return rows[idx], true, nil
		}
	}
	return nil, false, nil
}

func (i *Intersect) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	ok, err := i.left.Has(ctx, member)
	if err != nil || !ok {
		return false, err
	}
	return i.right.Has(ctx, member)
}
