package govinfo

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/adapter"
	"github.com/civicdata/govtable/pkg/schema"
)

// coerceRecord maps one raw API record onto the declared column order,
// coercing each field to its canonical Go type. Missing or uncoercible
// optional fields become nil; a missing or uncoercible required field drops
// the whole record (ok=false). Coercion never fails a scan.
func coerceRecord(columns schema.Columns, rec map[string]interface{}, log *zap.Logger) (adapter.Row, bool) {
	row := make(adapter.Row, len(columns))

	for i, col := range columns {
		raw, present := rec[col.APIField]
		if !present || raw == nil {
			if col.Required {
				log.Debug("record skipped, required field missing",
					zap.String("column", col.Name))
				return nil, false
			}
			row[i] = nil
			continue
		}

		val, ok := coerceValue(col.Type, raw)
		if !ok {
			if col.Required {
				log.Debug("record skipped, required field uncoercible",
					zap.String("column", col.Name))
				return nil, false
			}
			log.Debug("field nulled, value uncoercible",
				zap.String("column", col.Name))
			row[i] = nil
			continue
		}
		row[i] = val
	}

	return row, true
}

// coerceValue converts a decoded JSON value to the column's canonical type.
// No cross-type guessing: a numeric string does not become an int, a number
// does not become a string. Temporal values must match the API's exact wire
// formats.
func coerceValue(t schema.FieldType, raw interface{}) (interface{}, bool) {
	switch t {
	case schema.FieldTypeString:
		if s, ok := raw.(string); ok {
			return s, true
		}

	case schema.FieldTypeInt:
		if n, ok := raw.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		}

	case schema.FieldTypeFloat:
		if n, ok := raw.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}

	case schema.FieldTypeBool:
		if b, ok := raw.(bool); ok {
			return b, true
		}

	case schema.FieldTypeDate:
		if s, ok := raw.(string); ok {
			if ts, err := time.Parse(schema.DateFormat, strings.TrimSpace(s)); err == nil {
				return ts, true
			}
		}

	case schema.FieldTypeDatetime:
		if s, ok := raw.(string); ok {
			if ts, err := time.Parse(schema.DatetimeFormat, strings.TrimSpace(s)); err == nil {
				return ts, true
			}
		}
	}

	return nil, false
}
