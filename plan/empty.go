package plan

import "github.com/relit/relit/sql"

// EmptyTable is the result of proving a predicate can never match any row at
// builder time (§4.3, §8 scenario `users.gt(age,40).lt(age,20)`). It keeps
// the schema and the provenance chain of whatever it replaced so Update/
// Delete and further builder calls still behave sanely over an empty view.
type EmptyTable struct {
	*builderDefaults
	columns    sql.Schema
	allColumns sql.Schema
	origin     sql.Table
	tag        string
}

func NewEmptyTable(columns, allColumns sql.Schema) *EmptyTable {
	return newEmptyTable(columns, allColumns, nil)
}

func newEmptyTable(columns, allColumns sql.Schema, origin sql.Table) *EmptyTable {
	e := &EmptyTable{columns: columns, allColumns: allColumns, origin: origin, tag: sql.NewOperatorTag()}
	e.builderDefaults = &builderDefaults{self: e}
	return e
}

func (e *EmptyTable) Child() sql.Table {
	return e.origin
}

func (e *EmptyTable) Columns() sql.Schema    { return e.columns }
func (e *EmptyTable) AllColumns() sql.Schema { return e.allColumns }
func (e *EmptyTable) GetLimit() (int64, bool) { return 0, false }
func (e *EmptyTable) GetOffset() int64        { return 0 }

func (e *EmptyTable) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return e.tag, true
	}
	return nil, false
}

func (e *EmptyTable) Iterate(ctx *sql.Context) (sql.RowIter, error) { return sql.EmptyRowIter(), nil }
func (e *EmptyTable) Count(ctx *sql.Context) (int64, error)         { return 0, nil }
func (e *EmptyTable) Exists(ctx *sql.Context) (bool, error)         { return false, nil }
func (e *EmptyTable) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	return nil, false, nil
}
func (e *EmptyTable) Has(ctx *sql.Context, member sql.Row) (bool, error) { return false, nil }
