package plan

import "github.com/relit/relit/sql"

// Project narrows the visible column set (§4.7). AllColumns still reports
// every column the underlying base table carries, so a filter chained after
// a projection can still reach a column that was projected away — only the
// rows actually materialized by Iterate are narrowed. A second projection
// may only narrow further; naming a column outside the current Columns() is
// an error (ErrProjectionWiden).
type Project struct {
	*builderDefaults
	child sql.Table
	cols  []string
	tag   string
}

func NewProject(child sql.Table, cols []string) (sql.Table, error) {
	current := child.Columns().Names()
	currentSet := make(map[string]bool, len(current))
	for _, c := range current {
		currentSet[c] = true
	}
	for _, c := range cols {
		if !currentSet[c] {
			return nil, sql.ErrProjectionWiden.New(cols, current)
		}
	}
	p := &Project{child: child, cols: append([]string{}, cols...), tag: sql.NewOperatorTag()}
	p.builderDefaults = &builderDefaults{self: p}
	return p, nil
}

func (p *Project) Child() sql.Table { return p.child }

func (p *Project) Columns() sql.Schema {
	s, _ := p.child.AllColumns().Project(p.cols)
	return s
}

func (p *Project) AllColumns() sql.Schema  { return p.child.AllColumns() }
func (p *Project) GetLimit() (int64, bool) { return p.child.GetLimit() }
func (p *Project) GetOffset() int64        { return p.child.GetOffset() }

func (p *Project) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return p.tag, true
	}
	return p.child.GetProperty(name)
}

func (p *Project) Project(cols ...string) (sql.Table, error) {
	return NewProject(p, cols)
}

// Filter builders run below the projection and re-project the result.
func (p *Project) reproject(t sql.Table, err error) (sql.Table, error) {
	if err != nil {
		return nil, err
	}
	return NewProject(t, p.cols)
}
func (p *Project) Eq(col string, v sql.Scalar) (sql.Table, error)  { return p.reproject(p.child.Eq(col, v)) }
func (p *Project) Lt(col string, v sql.Scalar) (sql.Table, error)  { return p.reproject(p.child.Lt(col, v)) }
func (p *Project) Lte(col string, v sql.Scalar) (sql.Table, error) { return p.reproject(p.child.Lte(col, v)) }
func (p *Project) Gt(col string, v sql.Scalar) (sql.Table, error)  { return p.reproject(p.child.Gt(col, v)) }
func (p *Project) Gte(col string, v sql.Scalar) (sql.Table, error) { return p.reproject(p.child.Gte(col, v)) }
func (p *Project) In(col string, vs []sql.Scalar) (sql.Table, error) {
	return p.reproject(p.child.In(col, vs))
}
func (p *Project) Like(col string, pattern string) (sql.Table, error) {
	return p.reproject(p.child.Like(col, pattern))
}

type projectIter struct {
	child sql.RowIter
	cols  []string
}

func (it *projectIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	id, row, err := it.child.Next(ctx)
	if err != nil {
		return 0, nil, err
	}
	return id, row.Project(it.cols), nil
}

func (it *projectIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

func (p *Project) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	it, err := p.child.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &projectIter{child: it, cols: p.cols}, nil
}

func (p *Project) Count(ctx *sql.Context) (int64, error) { return p.child.Count(ctx) }
func (p *Project) Exists(ctx *sql.Context) (bool, error) { return p.child.Exists(ctx) }

func (p *Project) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	row, ok, err := p.child.Load(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return row.Project(p.cols), true, nil
}

func (p *Project) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	return p.child.Has(ctx, member)
}
