package plan

import (
	"io"

	"github.com/relit/relit/sql"
)

// Filter applies a predicate to its child, fusing a newly chained clause on
// the same column into the existing one per the §4.3 rewrite table wherever
// possible, and proving the whole node empty at builder time when two
// clauses on the same column can never both hold.
type Filter struct {
	*builderDefaults
	child sql.Table
	pred  sql.Predicate
	tag   string
}

// NewFilter wraps child in a single clause. Builder calls on the result
// route through Eq/Lt/... below, which is where same-column fusion happens.
func NewFilter(child sql.Table, clause sql.Clause) sql.Table {
	f := &Filter{child: child, pred: sql.Predicate{Clauses: []sql.Clause{clause}}, tag: sql.NewOperatorTag()}
	f.builderDefaults = &builderDefaults{self: f}
	return f
}

func newFilterPred(child sql.Table, pred sql.Predicate) sql.Table {
	if pred.Empty() {
		return child
	}
	f := &Filter{child: child, pred: pred, tag: sql.NewOperatorTag()}
	f.builderDefaults = &builderDefaults{self: f}
	return f
}

func (f *Filter) Child() sql.Table         { return f.child }
func (f *Filter) Columns() sql.Schema      { return f.child.Columns() }
func (f *Filter) AllColumns() sql.Schema   { return f.child.AllColumns() }
func (f *Filter) GetLimit() (int64, bool)  { return f.child.GetLimit() }
func (f *Filter) GetOffset() int64         { return f.child.GetOffset() }

func (f *Filter) GetProperty(name string) (interface{}, bool) {
	switch name {
	case "__id__":
		return f.tag, true
	case "__bind__":
		return f.pred.UnboundNames(), true
	default:
		return f.child.GetProperty(name)
	}
}

func (f *Filter) addClause(col string, op sql.Op, v sql.ClauseValue) (sql.Table, error) {
	incoming := sql.Clause{Column: col, Op: op, Value: v}
	var same, rest []sql.Clause
	for _, c := range f.pred.Clauses {
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
		return newEmptyTable(f.child.Columns(), f.child.AllColumns(), f), nil
	}
	newPred := sql.Predicate{Clauses: append(rest, fused...)}
	return newFilterPred(f.child, newPred), nil
}

func (f *Filter) Eq(col string, v sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpEq, sql.BoundValue(v))
}
func (f *Filter) Lt(col string, v sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpLt, sql.BoundValue(v))
}
func (f *Filter) Lte(col string, v sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpLte, sql.BoundValue(v))
}
func (f *Filter) Gt(col string, v sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpGt, sql.BoundValue(v))
}
func (f *Filter) Gte(col string, v sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpGte, sql.BoundValue(v))
}
func (f *Filter) In(col string, vs []sql.Scalar) (sql.Table, error) {
	return f.addClause(col, sql.OpIn, sql.BoundValues(vs))
}
func (f *Filter) Like(col string, pattern string) (sql.Table, error) {
	return f.addClause(col, sql.OpLike, sql.BoundValue(sql.Text(pattern)))
}

func (f *Filter) rows(ctx *sql.Context) (sql.RowIter, error) {
	if err := f.pred.Require(); err != nil {
		return nil, err
	}
	it, err := f.child.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &filterIter{ctx: ctx, pred: f.pred, child: it}, nil
}

type filterIter struct {
	ctx   *sql.Context
	pred  sql.Predicate
	child sql.RowIter
}

func (it *filterIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	for {
		id, row, err := it.child.Next(ctx)
		if err != nil {
			return 0, nil, err
		}
		ok, err := it.pred.Eval(row)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return id, row, nil
		}
	}
}

func (it *filterIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

func (f *Filter) Iterate(ctx *sql.Context) (sql.RowIter, error) { return f.rows(ctx) }

func (f *Filter) Count(ctx *sql.Context) (int64, error) {
	it, err := f.rows(ctx)
	if err != nil {
		return 0, err
	}
	defer it.Close(ctx)
	var n int64
	for {
		_, _, err := it.Next(ctx)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

func (f *Filter) Exists(ctx *sql.Context) (bool, error) {
	it, err := f.rows(ctx)
	if err != nil {
		return false, err
	}
	defer it.Close(ctx)
	_, _, err = it.Next(ctx)
	if err == io.EOF {
		return false, nil
	}
	return err == nil, err
}

func (f *Filter) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	row, ok, err := f.child.Load(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := f.pred.Require(); err != nil {
		return nil, false, err
	}
	match, err := f.pred.Eval(row)
	if err != nil || !match {
		return nil, false, err
	}
	return row, true, nil
}

func (f *Filter) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	match, err := f.pred.Eval(member)
	if err != nil || !match {
		return false, err
	}
	return f.child.Has(ctx, member)
}

// fuseColumnClauses implements the §4.3 same-column rewrite table. same is
// the set of existing clauses already on this column (0, 1, or 2 — a column
// can carry at most one lower and one upper bound before this logic
// collapses it further); incoming is the clause being chained. It returns
// the replacement clause set for that column, or empty=true if the
// combination can never match any row.
func fuseColumnClauses(same []sql.Clause, incoming sql.Clause) ([]sql.Clause, bool, error) {
	all := append(append([]sql.Clause{}, same...), incoming)

	// eq dominates: once any clause on the column is a bound eq, every
	// other bound clause on the column is checked against it directly and
	// the whole group collapses to that single eq or to empty.
	for _, eqC := range all {
		if eqC.Op != sql.OpEq || !eqC.Value.Bound {
			continue
		}
		ok, err := evalAgainstEq(all, eqC)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, true, nil
		}
		return []sql.Clause{eqC}, false, nil
	}

	// in/eq, eq/in are handled above since eq is checked against `in` via
	// evalAgainstEq; here we fold multiple `in` clauses on the same column
	// into their intersection.
	ins := filterOp(all, sql.OpIn)
	if len(ins) > 1 {
		inter, err := intersectIn(ins)
		if err != nil {
			return nil, false, err
		}
		if len(inter) == 0 {
			return nil, true, nil
		}
		rest := excludeOp(all, sql.OpIn)
		return append(rest, sql.Clause{Column: incoming.Column, Op: sql.OpIn, Value: sql.BoundValues(inter)}), false, nil
	}

	// Tighten same-direction bounds: lt/lte collapse to the smaller upper
	// bound, gt/gte collapse to the larger lower bound.
	upper, hasUpper, err := tightestBound(all, true)
	if err != nil {
		return nil, false, err
	}
	lower, hasLower, err := tightestBound(all, false)
	if err != nil {
		return nil, false, err
	}

	if hasUpper && hasLower {
		cmp, err := sql.Compare(lower.Value.Value, upper.Value.Value)
		if err != nil {
			return nil, false, err
		}
		switch {
		case cmp > 0:
			return nil, true, nil
		case cmp == 0 && (lower.Op == sql.OpGt || upper.Op == sql.OpLt):
			return nil, true, nil
		}
	}

	out := filterOp(all, sql.OpLike)
	out = append(out, ins...)
	if hasUpper {
		out = append(out, upper)
	}
	if hasLower {
		out = append(out, lower)
	}
	if len(out) == 0 {
		out = append(out, incoming)
	}
	return out, false, nil
}

func evalAgainstEq(all []sql.Clause, eqC sql.Clause) (bool, error) {
	for _, c := range all {
		if !c.Value.Bound || c.Op == sql.OpEq {
			continue
		}
		ok, err := sql.EvalClause(sql.Row{c.Column: eqC.Value.Value}, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	for _, c := range all {
		if c.Op == sql.OpEq && c.Value.Bound {
			eq, err := sql.Equal(c.Value.Value, eqC.Value.Value)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
	}
	return true, nil
}

func filterOp(cs []sql.Clause, op sql.Op) []sql.Clause {
	var out []sql.Clause
	for _, c := range cs {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func excludeOp(cs []sql.Clause, op sql.Op) []sql.Clause {
	var out []sql.Clause
	for _, c := range cs {
		if c.Op != op {
			out = append(out, c)
		}
	}
	return out
}

func intersectIn(clauses []sql.Clause) ([]sql.Scalar, error) {
	result := clauses[0].Value.Values
	for _, c := range clauses[1:] {
		var next []sql.Scalar
		for _, v := range result {
			for _, w := range c.Value.Values {
				eq, err := sql.Equal(v, w)
				if err != nil {
					return nil, err
				}
				if eq {
					next = append(next, v)
					break
				}
			}
		}
		result = next
	}
	return result, nil
}

// tightestBound returns the single tightest upper (lt/lte) or lower
// (gt/gte) clause among cs, if any exist.
func tightestBound(cs []sql.Clause, upper bool) (sql.Clause, bool, error) {
	var best sql.Clause
	found := false
	for _, c := range cs {
		if !c.Value.Bound {
			continue
		}
		isUpper := c.Op == sql.OpLt || c.Op == sql.OpLte
		isLower := c.Op == sql.OpGt || c.Op == sql.OpGte
		if upper && !isUpper {
			continue
		}
		if !upper && !isLower {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		cmp, err := sql.Compare(c.Value.Value, best.Value.Value)
		if err != nil {
			return sql.Clause{}, false, err
		}
		if upper {
			if cmp < 0 || (cmp == 0 && c.Op == sql.OpLt) {
				best = c
			}
		} else {
			if cmp > 0 || (cmp == 0 && c.Op == sql.OpGt) {
				best = c
			}
		}
	}
	return best, found, nil
}
