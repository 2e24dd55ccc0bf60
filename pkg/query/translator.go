package query

import (
	"strings"

	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/schema"
)

// Params maps remote API parameter names to rendered values for one fetch
// sequence.
type Params map[string]string

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RemoteBinding declares how predicates on one column translate to remote
// query parameters. A zero binding means nothing on the column is pushable
// and every predicate goes residual.
type RemoteBinding struct {
	// EqualityParam is the exact-match parameter name ("" if unsupported).
	EqualityParam string
	// LowerParam and UpperParam are the range-bound parameter names.
	// Remote bounds are treated as inclusive: strict predicates (>, <) are
	// pushed as the matching inclusive bound and re-checked residually.
	LowerParam string
	UpperParam string
	// SortParam is the ordering parameter name ("" if the API cannot sort
	// on this column). The rendered value is "column:asc" or "column:desc".
	SortParam string
	// MultiValue reports whether EqualityParam accepts comma-separated
	// value lists, allowing IN to push down as a single request.
	MultiValue bool
}

// Plan is the normalized remote-request plan for one scan.
//
// Sequences holds one parameter set per fetch sequence. There is normally
// exactly one; an IN predicate on a pushdown-capable column without
// multi-value support fans out into one sequence per value, and the scan
// concatenates the sequences' results in value order. This fan-out is an
// explicit, declared policy: the host can inspect Sequences to see it.
type Plan struct {
	Sequences []Params
	// Residual predicates must be re-applied to each record after fetch.
	// Operands are normalized to the column's canonical type.
	Residual []Predicate
	// Limit carries the request's row limit (0 = none). It is pushed to
	// the remote side only as a page-size hint; the scan enforces it.
	Limit int
	// SortApplied reports whether the requested sort was pushed down.
	// When false and Sort is non-nil, rows come back in API order and the
	// host engine is responsible for ordering.
	SortApplied bool
	// Sort echoes the requested sort, applied or not, so an unapplied
	// sort is surfaced rather than silently ignored.
	Sort *Sort
}

// Translator turns Requests into Plans for a fixed column set and its
// remote parameter bindings.
type Translator struct {
	columns  schema.Columns
	bindings map[string]RemoteBinding
	logger   *zap.Logger
}

// NewTranslator creates a translator for the given columns. The bindings map
// is keyed by column name; columns absent from it have no remote expression.
func NewTranslator(columns schema.Columns, bindings map[string]RemoteBinding, logger *zap.Logger) *Translator {
	if bindings == nil {
		bindings = map[string]RemoteBinding{}
	}
	return &Translator{
		columns:  columns,
		bindings: bindings,
		logger:   logger.With(zap.String("component", "translator")),
	}
}

// Translate builds the remote-request plan for one request. All capability
// errors surface here, before any HTTP call is made: unknown columns,
// operators outside the fixed set, operands not representable in the
// column's type, and ordering requests on unorderable types.
func (t *Translator) Translate(req Request) (*Plan, error) {
	base := Params{}
	plan := &Plan{Limit: req.Limit}

	// At most one IN predicate may fan out into per-value sequences;
	// further non-pushable INs are satisfied residually instead of
	// multiplying the request count.
	var fanParam string
	var fanValues []string

	for _, pred := range req.Predicates {
		col, ok := t.columns.Lookup(pred.Column)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCapability,
				"unknown column %q", pred.Column)
		}
		if !pred.Op.Valid() {
			return nil, errors.Newf(errors.ErrorTypeCapability,
				"unsupported operator %q on column %q", pred.Op, pred.Column)
		}
		if pred.Op.isRange() && col.Type == schema.FieldTypeBool {
			return nil, errors.Newf(errors.ErrorTypeCapability,
				"ordering is not defined for boolean column %q", pred.Column)
		}

		norm, err := t.normalizePredicate(col, pred)
		if err != nil {
			return nil, err
		}

		binding := t.bindings[col.Name]

		switch norm.Op {
		case OpEq:
			if binding.EqualityParam != "" && col.Filter.Equality() {
				base[binding.EqualityParam] = renderOperand(col.Type, norm.Value)
			} else {
				plan.Residual = append(plan.Residual, norm)
			}

		case OpNe:
			// No remote API in scope expresses exclusion; always local.
			plan.Residual = append(plan.Residual, norm)

		case OpGt, OpGe:
			if binding.LowerParam != "" && col.Filter.Range() {
				base[binding.LowerParam] = renderOperand(col.Type, norm.Value)
				if norm.Op == OpGt {
					// Inclusive remote bound; keep exactness locally.
					plan.Residual = append(plan.Residual, norm)
				}
			} else {
				plan.Residual = append(plan.Residual, norm)
			}

		case OpLt, OpLe:
			if binding.UpperParam != "" && col.Filter.Range() {
				base[binding.UpperParam] = renderOperand(col.Type, norm.Value)
				if norm.Op == OpLt {
					plan.Residual = append(plan.Residual, norm)
				}
			} else {
				plan.Residual = append(plan.Residual, norm)
			}

		case OpIn:
			switch {
			case binding.EqualityParam != "" && col.Filter.Equality() && binding.MultiValue:
				rendered := make([]string, len(norm.Values))
				for i, v := range norm.Values {
					rendered[i] = renderOperand(col.Type, v)
				}
				base[binding.EqualityParam] = strings.Join(rendered, ",")

			case binding.EqualityParam != "" && col.Filter.Equality() && fanParam == "":
				fanParam = binding.EqualityParam
				fanValues = make([]string, len(norm.Values))
				for i, v := range norm.Values {
					fanValues[i] = renderOperand(col.Type, v)
				}

			default:
				plan.Residual = append(plan.Residual, norm)
			}
		}
	}

	if req.Sort != nil {
		col, ok := t.columns.Lookup(req.Sort.Column)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCapability,
				"unknown sort column %q", req.Sort.Column)
		}
		sortCopy := *req.Sort
		plan.Sort = &sortCopy

		binding := t.bindings[col.Name]
		if col.Sortable && binding.SortParam != "" {
			dir := "asc"
			if req.Sort.Desc {
				dir = "desc"
			}
			base[binding.SortParam] = col.Name + ":" + dir
			plan.SortApplied = true
		} else {
			t.logger.Warn("sort not pushable, rows will be in API order",
				zap.String("column", req.Sort.Column))
		}
	}

	if fanParam != "" {
		plan.Sequences = make([]Params, 0, len(fanValues))
		for _, v := range fanValues {
			p := base.Clone()
			p[fanParam] = v
			plan.Sequences = append(plan.Sequences, p)
		}
	} else {
		plan.Sequences = []Params{base}
	}

	return plan, nil
}

// normalizePredicate normalizes all operands of a predicate to the column's
// canonical type.
func (t *Translator) normalizePredicate(col schema.Column, pred Predicate) (Predicate, error) {
	norm := Predicate{Column: pred.Column, Op: pred.Op}

	if pred.Op == OpIn {
		if len(pred.Values) == 0 {
			return norm, errors.Newf(errors.ErrorTypeCapability,
				"IN predicate on column %q has no values", pred.Column)
		}
		norm.Values = make([]interface{}, len(pred.Values))
		for i, v := range pred.Values {
			nv, err := normalizeOperand(col.Type, v)
			if err != nil {
				return norm, errors.Wrap(err, errors.ErrorTypeCapability,
					"invalid IN operand for column "+pred.Column)
			}
			norm.Values[i] = nv
		}
		return norm, nil
	}

	nv, err := normalizeOperand(col.Type, pred.Value)
	if err != nil {
		return norm, errors.Wrap(err, errors.ErrorTypeCapability,
			"invalid operand for column "+pred.Column)
	}
	norm.Value = nv
	return norm, nil
}
