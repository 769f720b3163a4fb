package plan

import (
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/relit/relit/sql"
)

// Distinct removes duplicate rows by full row-identity hash (§4.8), using
// the teacher's own row-hashing dependency instead of a hand-rolled
// equality comparison, since rows here are plain maps and hashstructure
// already knows how to hash a Go map canonically.
type Distinct struct {
	*builderDefaults
	child sql.Table
	tag   string
}

func NewDistinct(child sql.Table) *Distinct {
	d := &Distinct{child: child, tag: sql.NewOperatorTag()}
	d.builderDefaults = &builderDefaults{self: d}
	return d
}

func (d *Distinct) Child() sql.Table        { return d.child }
func (d *Distinct) Columns() sql.Schema     { return d.child.Columns() }
func (d *Distinct) AllColumns() sql.Schema  { return d.child.AllColumns() }
func (d *Distinct) GetLimit() (int64, bool) { return 0, false }
func (d *Distinct) GetOffset() int64        { return 0 }

func (d *Distinct) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return d.tag, true
	}
	return d.child.GetProperty(name)
}

func rowHash(row sql.Row) (uint64, error) {
	return hashstructure.Hash(row, nil)
}

type distinctIter struct {
	child sql.RowIter
	seen  map[uint64]bool
}

func (it *distinctIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	for {
		id, row, err := it.child.Next(ctx)
		if err != nil {
			return 0, nil, err
		}
		h, err := rowHash(row)
		if err != nil {
			return 0, nil, err
		}
		if it.seen[h] {
			continue
		}
		it.seen[h] = true
		return id, row, nil
	}
}

func (it *distinctIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

func (d *Distinct) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	it, err := d.child.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &distinctIter{child: it, seen: map[uint64]bool{}}, nil
}

func (d *Distinct) Count(ctx *sql.Context) (int64, error) {
	it, err := d.Iterate(ctx)
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

func (d *Distinct) Exists(ctx *sql.Context) (bool, error) { return d.child.Exists(ctx) }

func (d *Distinct) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	return d.child.Load(ctx, id)
}

func (d *Distinct) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	return d.child.Has(ctx, member)
}
