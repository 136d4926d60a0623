// internal/relaxed/value.go
//
// Tagged value union for parsed relaxed literals.
//
// Context
// -------
// Object literals hand-written inside template source are loosely quoted
// and loosely typed.  After parsing, every node is one of six kinds.  The
// interesting one is Expression: a bare value that is not a number or a
// boolean (e.g. `pagination.current_page + 1`).  Such values are carried
// as opaque source text, never evaluated, so a consumer can always tell a
// real string apart from an unparsed expression placeholder.
//
// Objects keep their members in authored order.  Filter evaluation depends
// on that order (OR unions preserve first-seen order), so a plain Go map
// is not enough.
package relaxed

import "strconv"

// Kind discriminates the Value union.
type Kind uint8

const (
	String Kind = iota
	Number
	Bool
	Expression
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Expression:
		return "expression"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "invalid"
}

// Value is one node of a parsed relaxed literal.
type Value struct {
	Kind Kind

	// Str holds the decoded text for String, the raw source text for
	// Expression, and the numeric lexeme for Number.  Keeping the lexeme
	// instead of a float makes Normalize idempotent byte for byte.
	Str   string
	B     bool
	Mems  []Member // Object members, authored order
	Elems []Value  // Array elements
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key string
	Val Value
}

// Expr marks a deferred expression when a Value tree is flattened with
// Interface.  Consumers that only care about literals can ignore it;
// consumers that must distinguish (the filter-spec parser) type-switch
// on it.
type Expr string

// Get returns the member named key on an Object value.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	for _, m := range v.Mems {
		if m.Key == key {
			return m.Val, true
		}
	}
	return Value{}, false
}

// Has reports whether an Object value carries the named member.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Without returns a copy of an Object value with the named members
// removed.  Non-objects are returned unchanged.
func (v Value) Without(keys ...string) Value {
	if v.Kind != Object {
		return v
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := Value{Kind: Object}
	for _, m := range v.Mems {
		if !drop[m.Key] {
			out.Mems = append(out.Mems, m)
		}
	}
	return out
}

// Float returns the numeric value of a Number node.
func (v Value) Float() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Str, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the integer value of a Number node; false when the lexeme
// carries a fractional part.
func (v Value) Int() (int, bool) {
	if v.Kind != Number {
		return 0, false
	}
	n, err := strconv.Atoi(v.Str)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Interface flattens the tree into plain Go data: map[string]any for
// objects (authored order is lost), []any for arrays, string / float64 /
// bool for scalars, and Expr for deferred expressions.
func (v Value) Interface() any {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		f, _ := v.Float()
		return f
	case Bool:
		return v.B
	case Expression:
		return Expr(v.Str)
	case Object:
		m := make(map[string]any, len(v.Mems))
		for _, mem := range v.Mems {
			m[mem.Key] = mem.Val.Interface()
		}
		return m
	case Array:
		s := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			s[i] = e.Interface()
		}
		return s
	}
	return nil
}
