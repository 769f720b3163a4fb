package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicate_RequireFlagsUnboundPlaceholders(t *testing.T) {
	p := Predicate{Clauses: []Clause{
		{Column: "age", Op: OpGt, Value: UnboundValue(Placeholder{Name: "min_age"})},
	}}
	assert.True(t, p.UnboundNames()[0] == "min_age")
	err := p.Require()
	require.Error(t, err)
}

func TestPredicate_BindResolvesNamedPlaceholder(t *testing.T) {
	p := Predicate{Clauses: []Clause{
		{Column: "age", Op: OpGt, Value: UnboundValue(Placeholder{Name: "min_age"})},
	}}
	bound, err := p.Bind(map[string]Scalar{"min_age": Int(21)})
	require.NoError(t, err)
	require.NoError(t, bound.Require())

	ok, err := bound.Eval(Row{"age": Int(30)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bound.Eval(Row{"age": Int(10)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicate_BindUnknownPlaceholderErrors(t *testing.T) {
	p := Predicate{Clauses: []Clause{
		{Column: "age", Op: OpGt, Value: UnboundValue(Placeholder{Name: "min_age"})},
	}}
	_, err := p.Bind(map[string]Scalar{"typo": Int(21)})
	assert.Error(t, err)
}

func TestEvalClause_EqNullIsIsNullTest(t *testing.T) {
	ok, err := EvalClause(Row{"x": Null()}, Clause{Column: "x", Op: OpEq, Value: BoundValue(Null())})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalClause_OrderingExcludesNullRatherThanErroring(t *testing.T) {
	ok, err := EvalClause(Row{"x": Null()}, Clause{Column: "x", Op: OpGt, Value: BoundValue(Int(5))})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScalarEqual_NumericCrossKindCoercion(t *testing.T) {
	eq, err := Equal(Int(5), Float(5.0))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(Int(5), Decimal("5.00"))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestMatchLike_WildcardsAndCaseFold(t *testing.T) {
	assert.True(t, MatchLike("Sales", "sa%"))
	assert.True(t, MatchLike("Sales", "s_les"))
	assert.False(t, MatchLike("Sales", "eng%"))
}
