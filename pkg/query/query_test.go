package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/schema"
)

func TestOperatorValid(t *testing.T) {
	for _, op := range []Operator{OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpIn} {
		assert.True(t, op.Valid(), string(op))
	}
	assert.False(t, Operator("LIKE").Valid())
	assert.False(t, Operator("").Valid())
}

func TestRangeOnBoolRejected(t *testing.T) {
	columns := schema.Columns{
		{Name: "flag", Type: schema.FieldTypeBool, Filter: schema.FilterRange},
	}
	tr := NewTranslator(columns, nil, zap.NewNop())

	_, err := tr.Translate(Request{
		Predicates: []Predicate{
			{Column: "flag", Op: OpGt, Value: true},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}

func TestPredicateMatchesNilNeverMatches(t *testing.T) {
	preds := []Predicate{
		{Op: OpEq, Value: "x"},
		{Op: OpNe, Value: "x"},
		{Op: OpGt, Value: "x"},
		{Op: OpIn, Values: []interface{}{"x"}},
	}
	for _, p := range preds {
		assert.False(t, p.Matches(schema.FieldTypeString, nil), string(p.Op))
	}
}

func TestPredicateMatchesOrdering(t *testing.T) {
	p := Predicate{Op: OpGt, Value: int64(10)}
	assert.True(t, p.Matches(schema.FieldTypeInt, int64(11)))
	assert.False(t, p.Matches(schema.FieldTypeInt, int64(10)))
	assert.False(t, p.Matches(schema.FieldTypeInt, int64(9)))

	p = Predicate{Op: OpLe, Value: int64(10)}
	assert.True(t, p.Matches(schema.FieldTypeInt, int64(10)))
	assert.False(t, p.Matches(schema.FieldTypeInt, int64(11)))
}

func TestPredicateMatchesTemporal(t *testing.T) {
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Predicate{Op: OpGe, Value: cutoff}

	assert.True(t, p.Matches(schema.FieldTypeDatetime, cutoff))
	assert.True(t, p.Matches(schema.FieldTypeDatetime, cutoff.Add(time.Hour)))
	assert.False(t, p.Matches(schema.FieldTypeDatetime, cutoff.Add(-time.Second)))
}

func TestPredicateMatchesIn(t *testing.T) {
	p := Predicate{Op: OpIn, Values: []interface{}{"a", "c"}}
	assert.True(t, p.Matches(schema.FieldTypeString, "a"))
	assert.False(t, p.Matches(schema.FieldTypeString, "b"))
	assert.True(t, p.Matches(schema.FieldTypeString, "c"))
}

func TestNormalizeOperandIntForms(t *testing.T) {
	for _, v := range []interface{}{42, int64(42), float64(42), "42"} {
		got, err := normalizeOperand(schema.FieldTypeInt, v)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got)
	}

	_, err := normalizeOperand(schema.FieldTypeInt, 42.5)
	assert.Error(t, err)
	_, err = normalizeOperand(schema.FieldTypeInt, nil)
	assert.Error(t, err)
}

func TestNormalizeOperandDate(t *testing.T) {
	got, err := normalizeOperand(schema.FieldTypeDate, "2020-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = normalizeOperand(schema.FieldTypeDate, "2020-13-01")
	assert.Error(t, err)
}

func TestRenderOperand(t *testing.T) {
	assert.Equal(t, "hr", renderOperand(schema.FieldTypeString, "hr"))
	assert.Equal(t, "117", renderOperand(schema.FieldTypeInt, int64(117)))
	assert.Equal(t, "true", renderOperand(schema.FieldTypeBool, true))

	ts := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", renderOperand(schema.FieldTypeDate, ts))
	assert.Equal(t, "2024-03-15T08:30:00Z", renderOperand(schema.FieldTypeDatetime, ts))
}
