package plan

import (
	"fmt"

	yaml "gopkg.in/yaml.v2"

	"github.com/relit/relit/sql"
)

// explainNode is the serializable shape of one operator in a tree dump:
// just enough to tell two trees apart in a test failure (node kind, the
// absorbed pagination window if any, chosen join strategy) without
// reproducing a full %#v of every field.
type explainNode struct {
	Kind     string        `yaml:"kind"`
	Limit    *int64        `yaml:"limit,omitempty"`
	Offset   int64         `yaml:"offset,omitempty"`
	Detail   string        `yaml:"detail,omitempty"`
	Children []explainNode `yaml:"children,omitempty"`
}

// Explain renders t's operator tree as YAML, walking the same childTable/
// childrenTable structural interfaces derivesFrom uses, so a test can assert
// on the shape the builder actually produced (e.g. that .limit(5).eq(...)
// really did wrap a Barrier) instead of re-deriving it.
func Explain(t sql.Table) (string, error) {
	node := explain(t)
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func explain(t sql.Table) explainNode {
	node := explainNode{Kind: kindOf(t)}
	if sp, ok := t.(selfPaginated); ok {
		if hasLimit, limit, offset := sp.CurrentPagination(); hasLimit || offset != 0 {
			if hasLimit {
				node.Limit = &limit
			}
			node.Offset = offset
		}
	} else if limit, hasLimit := t.GetLimit(); hasLimit {
		node.Limit = &limit
		node.Offset = t.GetOffset()
	}
	node.Detail = detailOf(t)
	if c, ok := t.(childTable); ok {
		if child := c.Child(); child != nil {
			node.Children = append(node.Children, explain(child))
		}
	}
	if c, ok := t.(childrenTable); ok {
		for _, ch := range c.Children() {
			node.Children = append(node.Children, explain(ch))
		}
	}
	return node
}

func kindOf(t sql.Table) string {
	switch t.(type) {
	case *BaseTable:
		return "base_table"
	case *Barrier:
		return "barrier"
	case *Filter:
		return "filter"
	case *Or:
		return "or"
	case *Sort:
		return "sort"
	case *Project:
		return "project"
	case *Distinct:
		return "distinct"
	case *Concat:
		return "concat"
	case *Except:
		return "except"
	case *Intersect:
		return "intersect"
	case *Join:
		return "join"
	case *Exists:
		return "exists"
	case *Alias:
		return "alias"
	case *Adaptive:
		return "adaptive"
	case *adaptiveEq:
		return "adaptive_eq"
	case *EmptyTable:
		return "empty_table"
	case *propertyShim:
		return "with_property"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func detailOf(t sql.Table) string {
	switch n := t.(type) {
	case *BaseTable:
		return n.name
	case *Join:
		return n.kind.String()
	case *Exists:
		if n.negate {
			return "not_exists:" + n.leftCol + "=" + n.rightCol
		}
		return "exists:" + n.leftCol + "=" + n.rightCol
	case *Alias:
		return n.prefix
	case *Adaptive:
		return n.col
	default:
		return ""
	}
}
