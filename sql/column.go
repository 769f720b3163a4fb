package sql

// ColumnType is one of the scalar domains a column may declare.
type ColumnType uint8

const (
	TypeInt ColumnType = iota
	TypeFloat
	TypeDecimal
	TypeText
	TypeBinary
	TypeDate
	TypeTime
	TypeDateTime
)

// IndexHint describes how a column participates in its table's indexing.
type IndexHint uint8

const (
	IndexNone IndexHint = iota
	IndexSecondary
	IndexUnique
	IndexPrimary
)

// Column is the descriptor (name, type, index_hint, index_group) of §3.
type Column struct {
	Name       string
	Type       ColumnType
	Scale      int // significant for TypeDecimal
	IndexHint  IndexHint
	IndexGroup string
}

// IsNumeric drives == vs === semantics and ordering (§3).
func (c Column) IsNumeric() bool {
	return c.Type == TypeInt || c.Type == TypeFloat || c.Type == TypeDecimal
}

// UsesLocaleCollator is true only for text columns (§3).
func (c Column) UsesLocaleCollator() bool {
	return c.Type == TypeText
}

func (c Column) Indexed() bool {
	return c.IndexHint != IndexNone
}

// Schema is an ordered column list. getColumns()/all_columns() both return a
// Schema; operators must keep it stable across iterations until a
// projection or alias produces a new operator (§3 invariant).
type Schema []Column

// IndexOf returns the position of name in the schema, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Project returns the subset of the schema named by cols, in cols' order.
func (s Schema) Project(cols []string) (Schema, error) {
	out := make(Schema, 0, len(cols))
	for _, name := range cols {
		i := s.IndexOf(name)
		if i < 0 {
			return nil, ErrUnknownColumn.New(name)
		}
		out = append(out, s[i])
	}
	return out, nil
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
