// internal/relaxed/normalize.go
//
// Canonical strict-JSON encoding of parsed relaxed literals.
//
// Normalize(Parse(x)) is idempotent: the canonical form is itself valid
// input under the relaxed grammar and re-encodes byte for byte.  Deferred
// expressions are emitted as plain quoted strings so the output is always
// consumable by a strict JSON decoder; they exist in the output only to
// keep the literal syntactically whole.
package relaxed

import (
	"strconv"
	"strings"
)

// Normalize repairs a relaxed literal into strict JSON text.  Single
// quotes become double quotes, trailing commas and raw newlines are
// dropped, bare scalars are quoted, numeric and boolean lexemes are
// unquoted, and string payloads pass through untouched.
func Normalize(text string) (string, error) {
	v, err := Parse(text)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	encode(&sb, v)
	return sb.String(), nil
}

func encode(sb *strings.Builder, v Value) {
	switch v.Kind {
	case String, Expression:
		sb.WriteString(quote(v.Str))
	case Number:
		sb.WriteString(v.Str)
	case Bool:
		if v.B {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Object:
		sb.WriteByte('{')
		for i, m := range v.Mems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quote(m.Key))
			sb.WriteString(": ")
			encode(sb, m.Val)
		}
		sb.WriteByte('}')
	case Array:
		sb.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			encode(sb, e)
		}
		sb.WriteByte(']')
	}
}

// quote emits a JSON string literal.  strconv.Quote handles escaping of
// quotes, backslashes, and control characters.
func quote(s string) string {
	return strconv.Quote(s)
}
