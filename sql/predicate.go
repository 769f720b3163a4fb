package sql

import (
	"fmt"
	"sort"
)

// Placeholder is a named (:name) or positional (0, 1, …) bind marker.
type Placeholder struct {
	Name string // empty means positional
	Pos  int
}

func (p Placeholder) key() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%d", p.Pos)
}

// ClauseValue is the right-hand side of a predicate clause: either a bound
// scalar/list, or an unbound placeholder awaiting bind().
type ClauseValue struct {
	Bound       bool
	Value       Scalar
	Values      []Scalar // populated for OpIn
	Placeholder *Placeholder
}

func BoundValue(v Scalar) ClauseValue   { return ClauseValue{Bound: true, Value: v} }
func BoundValues(vs []Scalar) ClauseValue { return ClauseValue{Bound: true, Values: vs} }
func UnboundValue(p Placeholder) ClauseValue {
	ph := p
	return ClauseValue{Bound: false, Placeholder: &ph}
}

// Clause is a single (column, op, value) condition.
type Clause struct {
	Column string
	Op     Op
	Value  ClauseValue
}

// Predicate is an AND-combined sequence of clauses. An empty predicate
// matches nothing when used as an or() argument (by convention, §3) and
// matches everything when trivially AND-combined into a scan.
type Predicate struct {
	Clauses []Clause
}

func NewPredicate(clauses ...Clause) Predicate { return Predicate{Clauses: clauses} }

func (p Predicate) Empty() bool { return len(p.Clauses) == 0 }

// Bound reports whether every clause's value has been resolved.
func (p Predicate) Bound() bool {
	for _, c := range p.Clauses {
		if !c.Value.Bound {
			return false
		}
	}
	return true
}

// UnboundNames lists the placeholder keys (name, or stringified position)
// still awaiting a value, sorted, with duplicates removed.
func (p Predicate) UnboundNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range p.Clauses {
		if c.Value.Bound || c.Value.Placeholder == nil {
			continue
		}
		k := c.Value.Placeholder.key()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Bind resolves placeholders by name/position, returning a new Predicate
// (bind never mutates). Binding an already-bound name is an error, as is
// supplying a name the predicate doesn't reference — go-errors.v1 kinds per
// §7 Binding error.
func (p Predicate) Bind(args map[string]Scalar) (Predicate, error) {
	used := map[string]bool{}
	out := make([]Clause, len(p.Clauses))
	for i, c := range p.Clauses {
		out[i] = c
		if c.Value.Bound || c.Value.Placeholder == nil {
			continue
		}
		key := c.Value.Placeholder.key()
		v, ok := args[key]
		if !ok {
			continue
		}
		out[i].Value = BoundValue(v)
		used[key] = true
	}
	for k := range used {
		delete(args, k)
	}
	if len(args) > 0 {
		for k := range args {
			return Predicate{}, ErrUnknownPlaceholder.New(k)
		}
	}
	return Predicate{Clauses: out}, nil
}

// Require returns ErrUnboundParameters if any clause is still unbound;
// the predicate-carrying operators (BaseTable, Filter, Or) call this before
// evaluating a predicate.
func (p Predicate) Require() error {
	if names := p.UnboundNames(); len(names) > 0 {
		return ErrUnboundParameters.New(names)
	}
	return nil
}

// Eval tests a single row against the predicate (AND of all clauses). It is
// used by the OR-of-predicates operator (§4.4), by Set membership tests, and
// as the scan fallback any operator uses for a column with no usable index
// (§4.2/§4.3).
func (p Predicate) Eval(row Row) (bool, error) {
	for _, c := range p.Clauses {
		ok, err := EvalClause(row, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// EvalClause evaluates one clause against a row, applying the null-handling
// rules of §3: eq(col, null) means IS NULL; ordering operators exclude rows
// with a null compared column rather than erroring.
func EvalClause(row Row, c Clause) (bool, error) {
	if !c.Value.Bound {
		return false, ErrUnboundParameters.New([]string{c.Value.Placeholder.key()})
	}
	field := row.Get(c.Column)
	switch c.Op {
	case OpEq:
		return Equal(field, c.Value.Value)
	case OpIn:
		if field.IsNull() {
			return false, nil
		}
		for _, v := range c.Value.Values {
			ok, err := Equal(field, v)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpLike:
		if field.IsNull() {
			return false, nil
		}
		if field.Kind != KindText || c.Value.Value.Kind != KindText {
			return false, ErrNotComparable.New(field.Kind, c.Op)
		}
		return MatchLike(field.Text, c.Value.Value.Text), nil
	case OpLt, OpLte, OpGt, OpGte:
		if field.IsNull() {
			return false, nil
		}
		cmp, err := Compare(field, c.Value.Value)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		case OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	default:
		return false, fmt.Errorf("relit: unknown op %v", c.Op)
	}
}
