package plan

import (
	"io"

	"github.com/relit/relit/sql"
)

// Or is the §4.4 OR-of-predicates operator: a row survives if it matches
// any of the supplied predicates (each itself an AND of clauses). Empty
// (no-clause) predicates in the list are skipped, as sql.Predicate documents
// for or() arguments, so a list with no non-empty predicate matches nothing.
type Or struct {
	*builderDefaults
	child sql.Table
	preds []sql.Predicate
	tag   string
}

func NewOr(child sql.Table, preds []sql.Predicate) *Or {
	o := &Or{child: child, preds: preds, tag: sql.NewOperatorTag()}
	o.builderDefaults = &builderDefaults{self: o}
	return o
}

func (o *Or) Child() sql.Table        { return o.child }
func (o *Or) Columns() sql.Schema     { return o.child.Columns() }
func (o *Or) AllColumns() sql.Schema  { return o.child.AllColumns() }
func (o *Or) GetLimit() (int64, bool) { return o.child.GetLimit() }
func (o *Or) GetOffset() int64        { return o.child.GetOffset() }

func (o *Or) GetProperty(name string) (interface{}, bool) {
	switch name {
	case "__id__":
		return o.tag, true
	case "__bind__":
		seen := map[string]bool{}
		var names []string
		for _, p := range o.preds {
			for _, n := range p.UnboundNames() {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
		return names, true
	default:
		return o.child.GetProperty(name)
	}
}

func (o *Or) eval(row sql.Row) (bool, error) {
	if len(o.preds) == 0 {
		return false, nil
	}
	for _, p := range o.preds {
		if p.Empty() {
			continue
		}
		if err := p.Require(); err != nil {
			return false, err
		}
		ok, err := p.Eval(row)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type orIter struct {
	o     *Or
	child sql.RowIter
}

func (it *orIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	for {
		id, row, err := it.child.Next(ctx)
		if err != nil {
			return 0, nil, err
		}
		ok, err := it.o.eval(row)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return id, row, nil
		}
	}
}

func (it *orIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

func (o *Or) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	it, err := o.child.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &orIter{o: o, child: it}, nil
}

func (o *Or) Count(ctx *sql.Context) (int64, error) {
	it, err := o.Iterate(ctx)
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

func (o *Or) Exists(ctx *sql.Context) (bool, error) {
	it, err := o.Iterate(ctx)
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

func (o *Or) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	row, ok, err := o.child.Load(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	match, err := o.eval(row)
	if err != nil || !match {
		return nil, false, err
	}
	return row, true, nil
}

func (o *Or) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	match, err := o.eval(member)
	if err != nil || !match {
		return false, err
	}
	return o.child.Has(ctx, member)
}
