// internal/query/spec.go
//
// Filter specification model and its construction from parsed relaxed
// literals.
//
// Context
// -------
// A specification has four parts: where (conditions), order_by, offset,
// and limit.  Where conditions are ordered — the evaluator applies them
// sequentially and OR unions preserve first-seen order — so the model is
// built from the relaxed parser's ordered member list, never from a Go
// map.
//
// Each condition carries exactly one operator.  When an authored
// condition mapping names several, the first recognized operator in the
// fixed declaration order below wins; a mapping naming none is
// structurally invalid.
package query

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/relaxed"
)

// ErrInvalidSpec reports a structurally malformed filter specification —
// not a bad literal (that is the relaxed package's ErrMalformed), but a
// well-formed literal whose shape makes no sense as a query.
var ErrInvalidSpec = errors.New("query: invalid filter specification")

// Operator is one condition operator.  Declaration order is the fixed
// resolution priority when a condition mapping carries several.
type Operator uint8

const (
	OpEquals Operator = iota
	OpContains
	OpStartsWith
	OpEndsWith
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpIn
	OpNotIn
	OpNotEquals
	OpNotContains
	OpRegex
	opCount
)

var opNames = [opCount]string{
	"equals",
	"contains",
	"starts_with",
	"ends_with",
	"gt",
	"gte",
	"lt",
	"lte",
	"in",
	"not_in",
	"not_equals",
	"not_contains",
	"regex",
}

func (op Operator) String() string { return opNames[op] }

// Condition tests one field against one operator and operand.  The
// operand is plain Go data; a relaxed.Expr operand is an unevaluated
// dynamic expression and, like any other type mismatch, simply never
// matches.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Order names a sort field and direction.
type Order struct {
	Field string
	Desc  bool
}

// Spec is one complete filter specification.
type Spec struct {
	Conds      []Condition // top-level where members plus where.and, in order
	Or         []Condition // where.or, in order
	OrderBy    *Order
	Offset     *int
	Limit      *int
	Collection string // query_store only: the store collection to query
}

// ParseSpec builds a Spec from a parsed relaxed literal.  The literal
// must be an object; unknown top-level members are ignored.
func ParseSpec(v relaxed.Value) (*Spec, error) {
	if v.Kind != relaxed.Object {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrInvalidSpec, v.Kind)
	}
	spec := &Spec{}
	for _, m := range v.Mems {
		switch m.Key {
		case "where":
			if err := parseWhere(spec, m.Val); err != nil {
				return nil, err
			}
		case "order_by":
			if err := parseOrderBy(spec, m.Val); err != nil {
				return nil, err
			}
		case "offset", "limit":
			// A dynamic expression here (`pagination.per_page * …`) is the
			// paginated-template authoring pattern; expressions are never
			// evaluated, so the member is treated as unset.
			if m.Val.Kind == relaxed.Expression {
				zap.S().Warnw("dynamic expression in filter literal treated as unset",
					"member", m.Key, "expr", m.Val.Str)
				continue
			}
			n, ok := m.Val.Int()
			if !ok {
				return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidSpec, m.Key)
			}
			if m.Key == "offset" {
				spec.Offset = &n
			} else {
				spec.Limit = &n
			}
		case "collection":
			if m.Val.Kind != relaxed.String && m.Val.Kind != relaxed.Expression {
				return nil, fmt.Errorf("%w: collection must be a string", ErrInvalidSpec)
			}
			spec.Collection = m.Val.Str
		}
	}
	return spec, nil
}

func parseWhere(spec *Spec, v relaxed.Value) error {
	if v.Kind != relaxed.Object {
		return fmt.Errorf("%w: where is %s, want object", ErrInvalidSpec, v.Kind)
	}
	for _, m := range v.Mems {
		switch m.Key {
		case "and":
			conds, err := parseConditionList(m.Val)
			if err != nil {
				return err
			}
			spec.Conds = append(spec.Conds, conds...)
		case "or":
			conds, err := parseConditionList(m.Val)
			if err != nil {
				return err
			}
			spec.Or = append(spec.Or, conds...)
		default:
			c, err := parseCondition(m.Key, m.Val)
			if err != nil {
				return err
			}
			spec.Conds = append(spec.Conds, c)
		}
	}
	return nil
}

// parseConditionList handles where.and / where.or: a sequence of
// single-member {field: condition} objects.
func parseConditionList(v relaxed.Value) ([]Condition, error) {
	if v.Kind != relaxed.Array {
		return nil, fmt.Errorf("%w: and/or must be a sequence", ErrInvalidSpec)
	}
	var out []Condition
	for _, elem := range v.Elems {
		if elem.Kind != relaxed.Object {
			return nil, fmt.Errorf("%w: and/or entries must be objects", ErrInvalidSpec)
		}
		for _, m := range elem.Mems {
			c, err := parseCondition(m.Key, m.Val)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// parseCondition turns one {field: value-or-operator-mapping} member into
// a Condition.  A scalar value is shorthand for equals.
func parseCondition(field string, v relaxed.Value) (Condition, error) {
	switch v.Kind {
	case relaxed.String, relaxed.Number, relaxed.Bool, relaxed.Expression:
		return Condition{Field: field, Op: OpEquals, Value: v.Interface()}, nil
	case relaxed.Object:
		for op := OpEquals; op < opCount; op++ {
			if operand, ok := v.Get(opNames[op]); ok {
				return Condition{Field: field, Op: op, Value: operand.Interface()}, nil
			}
		}
		return Condition{}, fmt.Errorf("%w: condition on %q names no recognized operator", ErrInvalidSpec, field)
	default:
		return Condition{}, fmt.Errorf("%w: condition on %q is %s, want scalar or operator mapping", ErrInvalidSpec, field, v.Kind)
	}
}

func parseOrderBy(spec *Spec, v relaxed.Value) error {
	if v.Kind != relaxed.Object {
		return fmt.Errorf("%w: order_by must be an object", ErrInvalidSpec)
	}
	if f, ok := v.Get("asc"); ok && (f.Kind == relaxed.String || f.Kind == relaxed.Expression) {
		spec.OrderBy = &Order{Field: f.Str}
		return nil
	}
	if f, ok := v.Get("desc"); ok && (f.Kind == relaxed.String || f.Kind == relaxed.Expression) {
		spec.OrderBy = &Order{Field: f.Str, Desc: true}
		return nil
	}
	return fmt.Errorf("%w: order_by needs asc or desc naming a field", ErrInvalidSpec)
}
