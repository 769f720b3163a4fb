package sql

// Op is one of the predicate comparison operators of §3.
type Op uint8

const (
	OpEq Op = iota
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpLike
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpIn:
		return "in"
	case OpLike:
		return "like"
	default:
		return "?"
	}
}

// Direction is the sort direction of one OrderDef key.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// OrderDef is one key of an ORDER BY-style specification.
type OrderDef struct {
	Column    string
	Direction Direction
}

// Table is the contract every operator in the tree presents (§4.1). All
// builder methods return a new Table; none mutates the receiver.
type Table interface {
	// Iterate returns a lazy, restartable row stream. Row-ids are opaque
	// and not stable across operators.
	Iterate(ctx *Context) (RowIter, error)
	// Count returns the total rows after this operator's transforms; it
	// may have to iterate fully to compute it.
	Count(ctx *Context) (int64, error)
	// Exists reports count() > 0 and should short-circuit where possible.
	Exists(ctx *Context) (bool, error)
	// Columns is the visible projection; AllColumns includes hidden-but-
	// filterable columns.
	Columns() Schema
	AllColumns() Schema
	// Load looks a single row up by its opaque id, returning ok=false if
	// the id is filtered out by this operator.
	Load(ctx *Context, id RowID) (Row, bool, error)
	// Has reports whether a row with the supplied field values exists in
	// this operator's result.
	Has(ctx *Context, member Row) (bool, error)
	// GetLimit/GetOffset report the pagination this operator intends to
	// apply to its own output (not to its parent's).
	GetLimit() (limit int64, ok bool)
	GetOffset() int64
	// GetProperty is the side-channel of §4.1, used internally for
	// diagnostics; domain correlation (the source's __bind__) is instead
	// surfaced through the explicit Join constructor per the §9 design
	// note.
	GetProperty(name string) (interface{}, bool)

	Eq(col string, v Scalar) (Table, error)
	Lt(col string, v Scalar) (Table, error)
	Lte(col string, v Scalar) (Table, error)
	Gt(col string, v Scalar) (Table, error)
	Gte(col string, v Scalar) (Table, error)
	In(col string, vs []Scalar) (Table, error)
	Like(col string, pattern string) (Table, error)
	Or(preds ...Predicate) (Table, error)
	Order(defs ...OrderDef) (Table, error)
	Limit(n int64) (Table, error)
	Offset(n int64) (Table, error)
	Project(cols ...string) (Table, error)
	Distinct() (Table, error)
	Union(other Table) (Table, error)
	Except(other Table) (Table, error)
	WithAlias(prefix string, columnAliases map[string]string) (Table, error)
	WithProperty(name string, value interface{}) (Table, error)
}

// Set is a membership oracle over a subset of columns.
type Set interface {
	Columns() []string
	Contains(member Row) bool
}

// MutableTable adds insert/update/delete to a Table.
type MutableTable interface {
	Table
	Insert(ctx *Context, row Row) (RowID, error)
	Update(ctx *Context, view Table, changes Row) (int64, error)
	Delete(ctx *Context, view Table) (int64, error)
}

// PaginationClearer is implemented by any Table that accumulates its own
// limit/offset as plain fields (rather than always wrapping a Barrier); the
// Barrier uses it to take a snapshot of a paginated child with that
// pagination zeroed out, so the frozen child itself applies nothing twice.
type PaginationClearer interface {
	WithoutPagination() Table
}

// Paginator is implemented by any Table whose Limit/Offset builders must
// replace (not wrap) their own accumulated window; plan's generic
// Limit/Offset helpers use it.
type Paginator interface {
	WithPagination(hasLimit bool, limit int64, offset int64) Table
}
