package plan

import (
	"io"

	"github.com/relit/relit/sql"
)

// Concat implements the positional schema reconciliation §4.8 describes for
// set operations: both sides must carry the same column count, and the
// combined schema borrows column names from the left side, with right-side
// rows remapped positionally onto those names (no "left wins on a type
// conflict" guarantee; the design notes leave that undefined). Union is
// Distinct(Concat(left, right)) — see builderDefaults.Union.
type Concat struct {
	*builderDefaults
	left, right sql.Table
	tag         string
}

func NewConcat(left, right sql.Table) *Concat {
	c := &Concat{left: left, right: right, tag: sql.NewOperatorTag()}
	c.builderDefaults = &builderDefaults{self: c}
	return c
}

func (c *Concat) Children() []sql.Table { return []sql.Table{c.left, c.right} }

func (c *Concat) Columns() sql.Schema     { return c.left.Columns() }
func (c *Concat) AllColumns() sql.Schema  { return c.left.Columns() }
func (c *Concat) GetLimit() (int64, bool) { return 0, false }
func (c *Concat) GetOffset() int64        { return 0 }

func (c *Concat) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return c.tag, true
	}
	return nil, false
}

func remapPositional(row sql.Row, from, to []string) sql.Row {
	out := make(sql.Row, len(to))
	for i, name := range to {
		if i < len(from) {
			out[name] = row.Get(from[i])
		}
	}
	return out
}

func checkColumnCount(left, right sql.Schema) error {
	if len(left) != len(right) {
		return sql.ErrColumnCountMismatch.New(len(left), len(right))
	}
	return nil
}

type concatIter struct {
	ctx         *sql.Context
	leftNames   []string
	rightNames  []string
	left, right sql.RowIter
	onLeft      bool
	nextID      sql.RowID
}

func (it *concatIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	if it.onLeft {
		_, row, err := it.left.Next(ctx)
		if err == io.EOF {
			it.onLeft = false
			return it.Next(ctx)
		}
		if err != nil {
			return 0, nil, err
		}
		id := it.nextID
		it.nextID++
		return id, row.Project(it.leftNames), nil
	}
	_, row, err := it.right.Next(ctx)
	if err != nil {
		return 0, nil, err
	}
	id := it.nextID
	it.nextID++
	return id, remapPositional(row, it.rightNames, it.leftNames), nil
}

func (it *concatIter) Close(ctx *sql.Context) error {
	err1 := it.left.Close(ctx)
	err2 := it.right.Close(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}

func (c *Concat) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	if err := checkColumnCount(c.left.Columns(), c.right.Columns()); err != nil {
		return nil, err
	}
	li, err := c.left.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	ri, err := c.right.Iterate(ctx)
	if err != nil {
		li.Close(ctx)
		return nil, err
	}
	return &concatIter{
		leftNames:  c.left.Columns().Names(),
		rightNames: c.right.Columns().Names(),
		left:       li,
		right:      ri,
		onLeft:     true,
	}, nil
}

func (c *Concat) Count(ctx *sql.Context) (int64, error) {
	ln, err := c.left.Count(ctx)
	if err != nil {
		return 0, err
	}
	rn, err := c.right.Count(ctx)
	if err != nil {
		return 0, err
	}
	return ln + rn, nil
}

func (c *Concat) Exists(ctx *sql.Context) (bool, error) {
	ok, err := c.left.Exists(ctx)
	if err != nil || ok {
		return ok, err
	}
	return c.right.Exists(ctx)
}

func (c *Concat) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	ids, rows, err := drainAll(ctx, c)
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

func (c *Concat) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	cols := c.Columns().Names()
	ok, err := c.left.Has(ctx, member)
	if err != nil || ok {
		return ok, err
	}
	remapped := remapPositional(member, cols, c.right.Columns().Names())
	return c.right.Has(ctx, remapped)
}
