// Package query models the filter/sort/limit request a host engine hands to
// an adapter for one scan, and translates it into a remote-request plan: the
// query parameters that can be pushed down to the API, and the residual
// predicates that must be re-applied locally after fetch.
package query

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/schema"
)

// Operator is a filter predicate operator. The set is fixed; anything else
// is a capability error at plan time.
type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpIn Operator = "IN"
)

// Valid reports whether the operator belongs to the supported set.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpIn:
		return true
	default:
		return false
	}
}

// isRange reports whether the operator is a range bound.
func (op Operator) isRange() bool {
	switch op {
	case OpGt, OpGe, OpLt, OpLe:
		return true
	default:
		return false
	}
}

// Predicate is a single column filter. Predicates in a Request combine by
// logical AND. Value holds the operand for scalar operators; Values holds
// the operand list for IN.
type Predicate struct {
	Column string
	Op     Operator
	Value  interface{}
	Values []interface{}
}

// Sort is a requested ordering on a single column.
type Sort struct {
	Column string
	Desc   bool
}

// Request is one scan's immutable filter/sort/limit request.
// A Limit of zero or less means no limit.
type Request struct {
	Predicates []Predicate
	Sort       *Sort
	Limit      int
}

// normalizeOperand converts a host-supplied operand into the column's
// canonical Go type (string, int64, float64, bool, time.Time). Operands that
// cannot be represented in the declared type are capability errors: the
// predicate could never be satisfied either remotely or locally.
func normalizeOperand(t schema.FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, errors.New(errors.ErrorTypeCapability, "predicate operand must not be nil")
	}

	switch t {
	case schema.FieldTypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case schema.FieldTypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, nil
			}
		}

	case schema.FieldTypeFloat:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, nil
			}
		}

	case schema.FieldTypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, ok := parseBoolToken(b); ok {
				return parsed, nil
			}
		}

	case schema.FieldTypeDate:
		switch d := v.(type) {
		case time.Time:
			return d.Truncate(24 * time.Hour), nil
		case string:
			if ts, err := time.Parse(schema.DateFormat, d); err == nil {
				return ts, nil
			}
		}

	case schema.FieldTypeDatetime:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			if ts, err := time.Parse(schema.DatetimeFormat, d); err == nil {
				return ts, nil
			}
		}
	}

	return nil, errors.Newf(errors.ErrorTypeCapability,
		"operand %v is not representable as %s", v, t)
}

// parseBoolToken recognizes the fixed boolean literal set.
func parseBoolToken(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// renderOperand formats a normalized operand as a remote query parameter
// value, using the column's wire format for temporal types.
func renderOperand(t schema.FieldType, v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if t == schema.FieldTypeDate {
			return val.Format(schema.DateFormat)
		}
		return val.UTC().Format(schema.DatetimeFormat)
	default:
		return ""
	}
}

// Matches evaluates a residual predicate against a coerced row value.
// Operands in residual predicates are already normalized to the column's
// canonical type, so comparison is type-homogeneous. A nil (missing) value
// never satisfies any predicate, mirroring SQL NULL comparison semantics.
func (p Predicate) Matches(t schema.FieldType, value interface{}) bool {
	if value == nil {
		return false
	}

	switch p.Op {
	case OpEq:
		return compare(t, value, p.Value) == 0
	case OpNe:
		return compare(t, value, p.Value) != 0
	case OpGt:
		return compare(t, value, p.Value) > 0
	case OpGe:
		return compare(t, value, p.Value) >= 0
	case OpLt:
		return compare(t, value, p.Value) < 0
	case OpLe:
		return compare(t, value, p.Value) <= 0
	case OpIn:
		for _, candidate := range p.Values {
			if compare(t, value, candidate) == 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compare orders two values of the column's canonical type. Returns -1, 0 or
// 1. Mismatched dynamic types compare unequal (non-zero), which only happens
// if a caller bypassed operand normalization.
func compare(t schema.FieldType, a, b interface{}) int {
	switch t {
	case schema.FieldTypeString:
		av, aok := a.(string)
		bv, bok := b.(string)
		if aok && bok {
			return strings.Compare(av, bv)
		}
	case schema.FieldTypeInt:
		av, aok := a.(int64)
		bv, bok := b.(int64)
		if aok && bok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case schema.FieldTypeFloat:
		av, aok := a.(float64)
		bv, bok := b.(float64)
		if aok && bok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case schema.FieldTypeBool:
		av, aok := a.(bool)
		bv, bok := b.(bool)
		if aok && bok {
			if av == bv {
				return 0
			}
			return 1
		}
	case schema.FieldTypeDate, schema.FieldTypeDatetime:
		av, aok := a.(time.Time)
		bv, bok := b.(time.Time)
		if aok && bok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			default:
				return 0
			}
		}
	}
	return 1
}
