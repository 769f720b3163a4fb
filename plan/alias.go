package plan

import "github.com/relit/relit/sql"

// Alias implements §4.11: every column is renamed to "prefix.column" unless
// an explicit entry in columnAliases overrides that name for one column.
// It exists chiefly to let joins disambiguate identically-named columns
// from each side (§4.9, ErrJoinColumnConflict).
type Alias struct {
	*builderDefaults
	child   sql.Table
	prefix  string
	aliases map[string]string
	tag     string
}

func NewAlias(child sql.Table, prefix string, columnAliases map[string]string) (sql.Table, error) {
	a := &Alias{child: child, prefix: prefix, aliases: columnAliases, tag: sql.NewOperatorTag()}
	a.builderDefaults = &builderDefaults{self: a}
	return a, nil
}

func (a *Alias) Child() sql.Table { return a.child }

func (a *Alias) aliasName(col string) string {
	if n, ok := a.aliases[col]; ok {
		return n
	}
	if a.prefix == "" {
		return col
	}
	return a.prefix + "." + col
}

func (a *Alias) remap(row sql.Row) sql.Row {
	out := make(sql.Row, len(row))
	for k, v := range row {
		out[a.aliasName(k)] = v
	}
	return out
}

func (a *Alias) Columns() sql.Schema {
	src := a.child.Columns()
	out := make(sql.Schema, len(src))
	for i, c := range src {
		c.Name = a.aliasName(c.Name)
		out[i] = c
	}
	return out
}

func (a *Alias) AllColumns() sql.Schema {
	src := a.child.AllColumns()
	out := make(sql.Schema, len(src))
	for i, c := range src {
		c.Name = a.aliasName(c.Name)
		out[i] = c
	}
	return out
}

func (a *Alias) GetLimit() (int64, bool) { return a.child.GetLimit() }
func (a *Alias) GetOffset() int64        { return a.child.GetOffset() }

func (a *Alias) GetProperty(name string) (interface{}, bool) {
	if name == "__id__" {
		return a.tag, true
	}
	return a.child.GetProperty(name)
}

type aliasIter struct {
	a     *Alias
	child sql.RowIter
}

func (it *aliasIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	id, row, err := it.child.Next(ctx)
	if err != nil {
		return 0, nil, err
	}
	return id, it.a.remap(row), nil
}

func (it *aliasIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

func (a *Alias) Iterate(ctx *sql.Context) (sql.RowIter, error) {
	it, err := a.child.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &aliasIter{a: a, child: it}, nil
}

func (a *Alias) Count(ctx *sql.Context) (int64, error) { return a.child.Count(ctx) }
func (a *Alias) Exists(ctx *sql.Context) (bool, error) { return a.child.Exists(ctx) }

func (a *Alias) Load(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	row, ok, err := a.child.Load(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return a.remap(row), true, nil
}

func (a *Alias) unalias(row sql.Row) sql.Row {
	inv := make(map[string]string, len(a.aliases))
	for orig, aliased := range a.aliases {
		inv[aliased] = orig
	}
	out := make(sql.Row, len(row))
	for k, v := range row {
		if orig, ok := inv[k]; ok {
			out[orig] = v
			continue
		}
		if a.prefix != "" && len(k) > len(a.prefix)+1 && k[:len(a.prefix)+1] == a.prefix+"." {
			out[k[len(a.prefix)+1:]] = v
			continue
		}
		out[k] = v
	}
	return out
}

func (a *Alias) Has(ctx *sql.Context, member sql.Row) (bool, error) {
	return a.child.Has(ctx, a.unalias(member))
}
