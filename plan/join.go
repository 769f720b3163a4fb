package plan

import "github.com/relit/relit/sql"

// JoinKind selects one of the five join shapes of §4.9.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	case JoinCross:
		return "cross"
	default:
		return "unknown"
	}
}

// Join implements equi-joins (inner/left/right/full, keyed on one column per
// side) and the cross join (optionally filtered by an arbitrary predicate
// rather than an equi-key, or left entirely unfiltered). Every equi-join
// executes as a hash join: both sides are fully materialized, every right
// row is hashed into one in-memory index (filled HashJoinChunkSize rows at a
// time, which does not bound its size), and each left row then probes that
// index. There is no sort-merge strategy, and memory use grows with the size
// of both inputs.
type Join struct {
	*builderDefaults
	left, right     sql.Table
	leftCol, rightCol string
	kind            JoinKind
	pred            *sql.Predicate
	tag             string
}

func NewEquiJoin(left, right sql.Table, leftCol, rightCol string, kind JoinKind) (sql.Table, error) {
	if err := checkJoinColumns(left, right); err != nil {
		return nil, err
	}
	j := &Join{left: left, right: right, leftCol: leftCol, rightCol: rightCol, kind: kind, tag: sql.NewOperatorTag()}
	j.builderDefaults = &builderDefaults{self: j}
	return j, nil
}

func NewCrossJoin(left, right sql.Table, pred *sql.Predicate) (sql.Table, error) {
	if err := checkJoinColumns(left, right); err != nil {
		return nil, err
	}
	j := &Join{left: left, right: right, kind: JoinCross, pred: pred, tag: sql.NewOperatorTag()}
	j.builderDefaults = &builderDefaults{self: j}
	return j, nil
}

func checkJoinColumns(left, right sql.Table) error {
	names := make(map[string]bool, len(left.Columns()))
	for _, c := range left.Columns().Names() {
		names[c] = true
	}
	for _, c := range right.Columns().Names() {
		if names[c] {
			return sql.ErrJoinColumnConflict.New(c)
		}
	}
	return nil
}

func (j *Join) Children() []sql.Table { return []sql.Table{j.left, j.right} }

func (j *Join) Columns() sql.Schema {
	return append(append(sql.Schema{}, j.left.Columns()...), j.right.Columns()...)
}
func (j *Join) AllColumns() sql.Schema { return j.Columns() }
func (j *Join) GetLimit() (int64, bool) { return 0, false }
func (j *Join) GetOffset() int64        { return 0 }

func (j *Join) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return j.tag, true
	}
	return nil, false
}

func nullRow(schema sql.Schema) sql.Row {
	row := make(sql.Row, len(schema))
	for _, c := range schema {
		row[c.Name] = sql.Null()
	}
	return row
}

func (j *Join) matches(ctx *sql.Context) ([]sql.RowID, []sql.Row, error) {
	_, lrows, err := drainAll(ctx, j.left)
	if err != nil {
		return nil, nil, err
	}
	_, rrows, err := drainAll(ctx, j.right)
	if err != nil {
		return nil, nil, err
	}

	var outRows []sql.Row

	if j.kind == JoinCross {
		for _, lrow := range lrows {
			for _, rrow := range rrows {
				merged := sql.Merge(lrow, rrow)
				if j.pred != nil {
					ok, err := j.pred.Eval(merged)
					if err != nil {
						return nil, nil, err
					}
					if !ok {
						continue
					}
				}
				outRows = append(outRows, merged)
			}
		}
		return assignIDs(outRows), outRows, nil
	}

	chunkSize := engineConfig().HashJoinChunkSize
	if chunkSize <= 0 {
		chunkSize = 64
	}
	index := make(map[uint64][]sql.Row, len(rrows))
	rightMatched := make([]bool, len(rrows))
	for start := 0; start < len(rrows); start += chunkSize {
		end := start + chunkSize
		if end > len(rrows) {
			end = len(rrows)
		}
		for i := start; i < end; i++ {
			key, err := rowHash(sql.Row{"k": rrows[i].Get(j.rightCol)})
			if err != nil {
				return nil, nil, err
			}
			index[key] = append(index[key], rrows[i])
		}
	}
	rightIndexOf := make(map[uint64][]int, len(rrows))
	for i, rrow := range rrows {
		key, err := rowHash(sql.Row{"k": rrow.Get(j.rightCol)})
		if err != nil {
			return nil, nil, err
		}
		rightIndexOf[key] = append(rightIndexOf[key], i)
	}

	for _, lrow := range lrows {
		lv := lrow.Get(j.leftCol)
		if lv.IsNull() {
			if j.kind == JoinLeft || j.kind == JoinFull {
				outRows = append(outRows, sql.Merge(lrow, nullRow(j.right.Columns())))
			}
			continue
		}
		key, err := rowHash(sql.Row{"k": lv})
		if err != nil {
			return nil, nil, err
		}
		candidates := index[key]
		found := false
		for _, rrow := range candidates {
			eq, err := sql.Equal(lv, rrow.Get(j.rightCol))
			if err != nil {
				return nil, nil, err
			}
			if !eq {
				continue
			}
			found = true
			outRows = append(outRows, sql.Merge(lrow, rrow))
		}
		if found {
			for _, idx := range rightIndexOf[key] {
				eq, _ := sql.Equal(lv, rrows[idx].Get(j.rightCol))
				if eq {
					rightMatched[idx] = true
				}
			}
		}
		if !found && (j.kind == JoinLeft || j.kind == JoinFull) {
			outRows = append(outRows, sql.Merge(lrow, nullRow(j.right.Columns())))
		}
	}

	if j.kind == JoinRight || j.kind == JoinFull {
		for i, rrow := range rrows {
			if !rightMatched[i] {
				outRows = append(outRows, sql.Merge(nullRow(j.left.Columns()), rrow))
			}
		}
	}

	return assignIDs(outRows), outRows, nil
}

func assignIDs(rows []sql.Row) []sql.RowID {
	ids := make([]sql.RowID, len(rows))
	for i := range ids {
		ids[i] = sql.RowID(i)
	}
	return ids
}

func (j *Join) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	ids, rows, err := j.matches(ctx)
	if err != nil {
		return nil, err
	}
	return sql.IDRowsToRowIter(ids, rows), nil
}

func (j *Join) Count(ctx *sql.Context) (int64, error) {
	ids, _, err := j.matches(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (j *Join) Exists(ctx *sql.Context) (bool, error) {
	n, err := j.Count(ctx)
	return n > 0, err
}

func (j *Join) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := j.matches(ctx)
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

func (j *Join) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	_, rows, err := j.matches(ctx)
	if err != nil {
		return false, err
	}
	cols := j.Columns().Names()
	for _, row := range rows {
		if rowEqual(row, member, cols) {
			return true, nil
		}
	}
	return false, nil
}
