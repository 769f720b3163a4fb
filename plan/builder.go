// Package plan holds every concrete sql.Table-implementing operator node:
// the base table leaf, the barrier, and every transform/combinator built on
// top of it. It imports sql (contracts) and memory (the storage engine) in
// one direction only, matching the teacher's own sql/plan package layering
// (sql/plan imports sql but not the reverse).
package plan

import "github.com/relit/relit/sql"

// builderDefaults supplies the generic "absorb pagination, then wrap in a
// new node" behavior described in §4.1/§4.6 for every builder method an
// operator does not need to special-case. A concrete node embeds
// *builderDefaults and points its self field at itself, so the wrapping
// helpers below construct the right kind of parent node around the node
// the caller actually invoked the method on — self-referential embedding
// instead of per-type boilerplate for the dozen pass-through builder calls.
type builderDefaults struct {
	self sql.Table
}

func (d *builderDefaults) absorbed() sql.Table {
	return BarrierIfPaginated(d.self)
}

func (d *builderDefaults) Eq(col string, v sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpEq, Value: sql.BoundValue(v)}), nil
}

func (d *builderDefaults) Lt(col string, v sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpLt, Value: sql.BoundValue(v)}), nil
}

func (d *builderDefaults) Lte(col string, v sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpLte, Value: sql.BoundValue(v)}), nil
}

func (d *builderDefaults) Gt(col string, v sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpGt, Value: sql.BoundValue(v)}), nil
}

func (d *builderDefaults) Gte(col string, v sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpGte, Value: sql.BoundValue(v)}), nil
}

func (d *builderDefaults) In(col string, vs []sql.Scalar) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpIn, Value: sql.BoundValues(vs)}), nil
}

func (d *builderDefaults) Like(col string, pattern string) (sql.Table, error) {
	return NewFilter(d.absorbed(), sql.Clause{Column: col, Op: sql.OpLike, Value: sql.BoundValue(sql.Text(pattern))}), nil
}

func (d *builderDefaults) Or(preds ...sql.Predicate) (sql.Table, error) {
	return NewOr(d.absorbed(), preds), nil
}

func (d *builderDefaults) Order(defs ...sql.OrderDef) (sql.Table, error) {
	return NewSort(d.absorbed(), defs), nil
}

func (d *builderDefaults) Limit(n int64) (sql.Table, error) {
	return applyLimit(d.self, n), nil
}

func (d *builderDefaults) Offset(n int64) (sql.Table, error) {
	return applyOffset(d.self, n), nil
}

func (d *builderDefaults) Project(cols ...string) (sql.Table, error) {
	return NewProject(d.absorbed(), cols)
}

func (d *builderDefaults) Distinct() (sql.Table, error) {
	return NewDistinct(d.absorbed()), nil
}

func (d *builderDefaults) Union(other sql.Table) (sql.Table, error) {
	return NewDistinct(NewConcat(d.absorbed(), BarrierIfPaginated(other))), nil
}

func (d *builderDefaults) Except(other sql.Table) (sql.Table, error) {
	return NewExcept(d.absorbed(), BarrierIfPaginated(other))
}

func (d *builderDefaults) WithAlias(prefix string, columnAliases map[string]string) (sql.Table, error) {
	return NewAlias(d.absorbed(), prefix, columnAliases)
}

func (d *builderDefaults) WithProperty(name string, value interface{}) (sql.Table, error) {
	return withPropertyDefault(d.self, name, value), nil
}

// selfPaginated is implemented by nodes (Barrier, BaseTable, propertyShim)
// that can report their real, current window. Barrier's GetLimit/GetOffset
// deliberately lie to a *parent* about carrying pagination (it always
// reports none, so a parent never wraps a second one around it), and
// applyLimit/applyOffset need the real window when mutating the node
// *itself* via a direct chained call, so they consult this instead of the
// public GetLimit/GetOffset.
type selfPaginated interface {
	CurrentPagination() (hasLimit bool, limit, offset int64)
}

// applyLimit/applyOffset implement Limit/Offset/WithPagination uniformly: a
// node that already carries its own pagination (a Barrier, or a base table
// tracking limit/offset) replaces that window via sql.Paginator; anything
// else gets wrapped in a fresh Barrier carrying the requested window.
func applyLimit(self sql.Table, n int64) sql.Table {
	if p, ok := self.(sql.Paginator); ok {
		_, offset := currentWindow(self)
		return p.WithPagination(true, n, offset)
	}
	return NewBarrier(self).WithPagination(true, n, 0)
}

func applyOffset(self sql.Table, n int64) sql.Table {
	if p, ok := self.(sql.Paginator); ok {
		hasLimit, limit := currentLimit(self)
		return p.WithPagination(hasLimit, limit, n)
	}
	return NewBarrier(self).WithPagination(false, 0, n)
}

func currentWindow(self sql.Table) (hasLimit bool, offset int64) {
	if sp, ok := self.(selfPaginated); ok {
		hasLimit, _, offset = sp.CurrentPagination()
		return hasLimit, offset
	}
	return false, self.GetOffset()
}

func currentLimit(self sql.Table) (hasLimit bool, limit int64) {
	if sp, ok := self.(selfPaginated); ok {
		hasLimit, limit, _ = sp.CurrentPagination()
		return hasLimit, limit
	}
	limit, hasLimit = self.GetLimit()
	return hasLimit, limit
}

// withPropertyDefault stores an arbitrary side-channel value by wrapping
// self in a new propertyShim, whatever self already carries. Only
// propertyShim overrides WithProperty, and it too chains another shim.
func withPropertyDefault(self sql.Table, name string, value interface{}) sql.Table {
	return &propertyShim{Table: self, name: name, value: value}
}

// propertyShim adds exactly one GetProperty entry on top of an arbitrary
// child, delegating everything else untouched. Nested WithProperty calls
// chain shims, each shadowing the last value for a repeated name.
type propertyShim struct {
	sql.Table
	name  string
	value interface{}
}

func (p *propertyShim) Child() sql.Table { return p.Table }

func (p *propertyShim) GetProperty(name string) (interface{}, bool) {
	if name == p.name {
		return p.value, true
	}
	return p.Table.GetProperty(name)
}

func (p *propertyShim) Eq(col string, v sql.Scalar) (sql.Table, error) { return p.Table.Eq(col, v) }
func (p *propertyShim) Lt(col string, v sql.Scalar) (sql.Table, error) { return p.Table.Lt(col, v) }
func (p *propertyShim) Lte(col string, v sql.Scalar) (sql.Table, error) {
	return p.Table.Lte(col, v)
}
func (p *propertyShim) Gt(col string, v sql.Scalar) (sql.Table, error) { return p.Table.Gt(col, v) }
func (p *propertyShim) Gte(col string, v sql.Scalar) (sql.Table, error) {
	return p.Table.Gte(col, v)
}
func (p *propertyShim) In(col string, vs []sql.Scalar) (sql.Table, error) {
	return p.Table.In(col, vs)
}
func (p *propertyShim) Like(col string, pattern string) (sql.Table, error) {
	return p.Table.Like(col, pattern)
}
func (p *propertyShim) Or(preds ...sql.Predicate) (sql.Table, error) { return p.Table.Or(preds...) }
func (p *propertyShim) Order(defs ...sql.OrderDef) (sql.Table, error) {
	return p.Table.Order(defs...)
}
func (p *propertyShim) Limit(n int64) (sql.Table, error)  { return p.Table.Limit(n) }
func (p *propertyShim) Offset(n int64) (sql.Table, error) { return p.Table.Offset(n) }
func (p *propertyShim) Project(cols ...string) (sql.Table, error) {
	return p.Table.Project(cols...)
}
func (p *propertyShim) Distinct() (sql.Table, error)         { return p.Table.Distinct() }
func (p *propertyShim) Union(other sql.Table) (sql.Table, error) { return p.Table.Union(other) }
func (p *propertyShim) Except(other sql.Table) (sql.Table, error) {
	return p.Table.Except(other)
}
func (p *propertyShim) WithAlias(prefix string, aliases map[string]string) (sql.Table, error) {
	return p.Table.WithAlias(prefix, aliases)
}
func (p *propertyShim) WithProperty(name string, value interface{}) (sql.Table, error) {
	return withPropertyDefault(p, name, value), nil
}

func (p *propertyShim) WithoutPagination() sql.Table {
	if pc, ok := p.Table.(sql.PaginationClearer); ok {
		return &propertyShim{Table: pc.WithoutPagination(), name: p.name, value: p.value}
	}
	return p
}

func (p *propertyShim) WithPagination(hasLimit bool, limit, offset int64) sql.Table {
	if pg, ok := p.Table.(sql.Paginator); ok {
		return &propertyShim{Table: pg.WithPagination(hasLimit, limit, offset), name: p.name, value: p.value}
	}
	return NewBarrier(p).WithPagination(hasLimit, limit, offset)
}

// CurrentPagination forwards to the wrapped node when it truthfully reports
// its own window (selfPaginated), so a chained .limit()/.offset() call on a
// property-tagged Barrier or base table still sees the real window instead
// of whatever GetLimit/GetOffset promotes through the embedded sql.Table.
func (p *propertyShim) CurrentPagination() (bool, int64, int64) {
	if sp, ok := p.Table.(selfPaginated); ok {
		return sp.CurrentPagination()
	}
	limit, hasLimit := p.Table.GetLimit()
	return hasLimit, limit, p.Table.GetOffset()
}
