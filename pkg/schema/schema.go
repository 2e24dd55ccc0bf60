// Package schema defines the column descriptors a virtual table exposes to
// the host query engine: the column name, its declared type, which filter
// operators the adapter guarantees to satisfy, and whether the column's order
// can be delegated to the remote API.
//
// Schemas here are compile-time constants. There is no discovery call, no
// versioning, and no evolution: a table instance declares its columns once
// and every row it ever produces matches that declaration in arity and
// per-position type.
package schema

import "time"

// FieldType represents the declared data type of a column.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInt      FieldType = "int"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBool     FieldType = "bool"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
)

// Wire formats for temporal columns. The GovInfo API uses exactly these; the
// coercer rejects anything else rather than guessing.
const (
	DateFormat     = "2006-01-02"
	DatetimeFormat = "2006-01-02T15:04:05Z"
)

// FilterCapability declares which predicate shapes a column supports.
// A predicate on a column is satisfiable when the capability covers its
// operator; whether it is satisfied remotely (pushdown) or locally (residual
// re-filtering) is the request translator's decision, not the schema's.
type FilterCapability uint8

const (
	// FilterNone marks a column that accepts no filter pushdown; predicates
	// on it are always applied locally after fetch.
	FilterNone FilterCapability = 0
	// FilterEquality covers ==, != and IN.
	FilterEquality FilterCapability = 1 << 0
	// FilterRange covers >, >=, < and <=.
	FilterRange FilterCapability = 1 << 1
)

// Equality reports whether equality-shaped predicates are supported.
func (c FilterCapability) Equality() bool { return c&FilterEquality != 0 }

// Range reports whether range-shaped predicates are supported.
func (c FilterCapability) Range() bool { return c&FilterRange != 0 }

func (c FilterCapability) String() string {
	switch {
	case c.Equality() && c.Range():
		return "equality+range"
	case c.Equality():
		return "equality"
	case c.Range():
		return "range"
	default:
		return "none"
	}
}

// Column describes one column of a virtual table. Immutable once the table
// is constructed.
type Column struct {
	// Name is the column name presented to the host engine, unique within
	// the table.
	Name string
	// Type is the declared value type; every emitted row holds a value of
	// this type (or nil) at the column's position.
	Type FieldType
	// Filter declares the predicate shapes the adapter will satisfy on this
	// column, by pushdown or by residual filtering.
	Filter FilterCapability
	// Sortable reports whether a sort on this column can be delegated to
	// the remote API. A false value means the adapter returns rows in API
	// order and surfaces the unapplied sort to the host.
	Sortable bool
	// Required marks columns that must be present in every record; a
	// missing or uncoercible value on a required column skips the row.
	Required bool
	// APIField is the key of this column in raw API records.
	APIField string
}

// Columns is an ordered column list. Row tuples align to this order.
type Columns []Column

// Index returns the position of the named column, or -1 if absent.
func (cs Columns) Index(name string) int {
	for i, c := range cs {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the named column and whether it exists.
func (cs Columns) Lookup(name string) (Column, bool) {
	if i := cs.Index(name); i >= 0 {
		return cs[i], true
	}
	return Column{}, false
}

// Names returns the column names in declaration order.
func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// GoType returns the zero value's dynamic type for documentation purposes:
// string, int64, float64, bool or time.Time. Nil columns hold untyped nil.
func (t FieldType) GoType() interface{} {
	switch t {
	case FieldTypeString:
		return ""
	case FieldTypeInt:
		return int64(0)
	case FieldTypeFloat:
		return float64(0)
	case FieldTypeBool:
		return false
	case FieldTypeDate, FieldTypeDatetime:
		return time.Time{}
	default:
		return nil
	}
}
