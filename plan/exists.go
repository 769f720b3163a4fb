package plan

import "github.com/relit/relit/sql"

// Exists implements §4.10: keep a left row only if some right row shares
// its key value (a semi-join), or, when negate is true, only if none does
// (an anti-join / NotExists). Like Join it always executes as a hash probe
// and never as a sort-merge: the whole right side is drained into one
// in-memory set of key values, with no chunking, and each left row is
// checked against that set.
type Exists struct {
	*builderDefaults
	left, right       sql.Table
	leftCol, rightCol string
	negate            bool
	tag               string
}

func NewExists(left, right sql.Table, leftCol, rightCol string, negate bool) *Exists {
	e := &Exists{left: left, right: right, leftCol: leftCol, rightCol: rightCol, negate: negate, tag: sql.NewOperatorTag()}
	e.builderDefaults = &builderDefaults{self: e}
	return e
}

func (e *Exists) Children() []sql.Table { return []sql.Table{e.left, e.right} }

func (e *Exists) Columns() sql.Schema     { return e.left.Columns() }
func (e *Exists) AllColumns() sql.Schema  { return e.left.Columns() }
func (e *Exists) GetLimit() (int64, bool) { return 0, false }
func (e *Exists) GetOffset() int64        { return 0 }

func (e *Exists) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return e.tag, true
	}
	return nil, false
}

func (e *Exists) keySet(ctx *sql.Context) (map[uint64]bool, error) {
	_, rrows, err := drainAll(ctx, e.right)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]bool, len(rrows))
	for _, rrow := range rrows {
		v := rrow.Get(e.rightCol)
		if v.IsNull() {
			continue
		}
		h, err := rowHash(sql.Row{"k": v})
		if err != nil {
			return nil, err
		}
		set[h] = true
	}
	return set, nil
}

func (e *Exists) matching(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	set, err := e.keySet(ctx)
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
		v := row.Get(e.leftCol)
		var present bool
		if !v.IsNull() {
			h, err := rowHash(sql.Row{"k": v})
			if err != nil {
				return nil, nil, err
			}
			present = set[h]
		}
		if present != e.negate {
			outIDs = append(outIDs, ids[i])
			outRows = append(outRows, row)
		}
	}
	return outIDs, outRows, nil
}

func (e *Exists) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := e.matching(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (e *Exists) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := e.matching(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (e *Exists) Exists(ctx *sql.Context) (bool, error) {
	n, err := e.Count(ctx)
	return n > 0, err
}

func (e *Exists) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
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

func (e *Exists) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	ok, err := e.left.Has(ctx, member)
	if err != nil || !ok {
		return false, err
	}
	v := member.Get(e.leftCol)
	if v.IsNull() {
		return e.negate, nil
	}
	set, err := e.keySet(ctx)
	if err != nil {
		return false, err
	}
	h, err := rowHash(sql.Row{"k": v})
	if err != nil {
		return false, err
	}
	return set[h] != e.negate, nil
}
