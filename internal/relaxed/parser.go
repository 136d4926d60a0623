// internal/relaxed/parser.go
//
// Recursive-descent parser for relaxed object literals.
//
// Context
// -------
// Templates and front matter hand-write object literals with single
// quotes, trailing commas, capitalized booleans, and unquoted values.
// Earlier revisions of this system repaired such text with an
// order-dependent regex pipeline; this parser accepts the same relaxed
// grammar directly and reports a byte offset when the input is beyond
// repair.
//
// Grammar (EBNF-ish):
//
//	literal := object EOF
//	object  := "{" [ member { "," member } [ "," ] ] "}"
//	member  := key ":" value
//	key     := string | raw
//	value   := string | object | array | raw
//	array   := "[" [ value { "," value } [ "," ] ] "]"
//
// A raw value is classified as a Number (optional sign, optional decimal
// part), a Bool (case-insensitive true/false), or otherwise an opaque
// Expression.
package relaxed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed reports a relaxed literal that could not be parsed even
// under the relaxed grammar.  Callers that recover by treating filters as
// unknown match against it with errors.Is.
var ErrMalformed = errors.New("relaxed: malformed literal")

var numberPat = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

type parser struct {
	lex    lexer
	tok    token
	peeked bool
}

func (p *parser) advance() error {
	if p.peeked {
		p.peeked = false
		return nil
	}
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) unread() { p.peeked = true }

// Parse decodes a relaxed literal into a Value tree.  The input must be a
// single top-level object; trailing garbage after the closing brace is an
// error.
func Parse(text string) (Value, error) {
	p := &parser{lex: lexer{src: text}}
	if err := p.advance(); err != nil {
		return Value{}, err
	}
	if p.tok.kind != tokLBrace {
		return Value{}, fmt.Errorf("%w: expected '{' at offset %d", ErrMalformed, p.tok.off)
	}
	v, err := p.object()
	if err != nil {
		return Value{}, err
	}
	if err := p.advance(); err != nil {
		return Value{}, err
	}
	if p.tok.kind != tokEOF {
		return Value{}, fmt.Errorf("%w: unexpected trailing input at offset %d", ErrMalformed, p.tok.off)
	}
	return v, nil
}

// object parses from the already-consumed "{" to its matching "}".
func (p *parser) object() (Value, error) {
	obj := Value{Kind: Object}
	for {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		switch p.tok.kind {
		case tokRBrace:
			return obj, nil
		case tokString, tokRaw:
			key := p.tok.text
			if key == "" {
				return Value{}, fmt.Errorf("%w: empty key at offset %d", ErrMalformed, p.tok.off)
			}
			if err := p.advance(); err != nil {
				return Value{}, err
			}
			if p.tok.kind != tokColon {
				return Value{}, fmt.Errorf("%w: expected ':' after key %q at offset %d", ErrMalformed, key, p.tok.off)
			}
			val, err := p.value()
			if err != nil {
				return Value{}, err
			}
			obj.Mems = append(obj.Mems, Member{Key: key, Val: val})

			if err := p.advance(); err != nil {
				return Value{}, err
			}
			switch p.tok.kind {
			case tokComma:
				// Trailing comma before "}" is tolerated by the loop.
			case tokRBrace:
				return obj, nil
			default:
				return Value{}, fmt.Errorf("%w: expected ',' or '}' at offset %d", ErrMalformed, p.tok.off)
			}
		default:
			return Value{}, fmt.Errorf("%w: expected member key at offset %d", ErrMalformed, p.tok.off)
		}
	}
}

// array parses from the already-consumed "[" to its matching "]".
func (p *parser) array() (Value, error) {
	arr := Value{Kind: Array, Elems: []Value{}}
	for {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		if p.tok.kind == tokRBracket {
			return arr, nil
		}
		p.unread()
		elem, err := p.value()
		if err != nil {
			return Value{}, err
		}
		arr.Elems = append(arr.Elems, elem)

		if err := p.advance(); err != nil {
			return Value{}, err
		}
		switch p.tok.kind {
		case tokComma:
		case tokRBracket:
			return arr, nil
		default:
			return Value{}, fmt.Errorf("%w: expected ',' or ']' at offset %d", ErrMalformed, p.tok.off)
		}
	}
}

func (p *parser) value() (Value, error) {
	if err := p.advance(); err != nil {
		return Value{}, err
	}
	switch p.tok.kind {
	case tokString:
		return Value{Kind: String, Str: p.tok.text}, nil
	case tokLBrace:
		return p.object()
	case tokLBracket:
		return p.array()
	case tokRaw:
		return classify(p.tok)
	default:
		return Value{}, fmt.Errorf("%w: expected value at offset %d", ErrMalformed, p.tok.off)
	}
}

// classify types a bare (unquoted) run.  Anything that is not a number or
// boolean is a dynamic expression the author expects the template engine
// to evaluate later; it is captured verbatim and never interpreted here.
func classify(t token) (Value, error) {
	if t.text == "" {
		return Value{}, fmt.Errorf("%w: empty value at offset %d", ErrMalformed, t.off)
	}
	if numberPat.MatchString(t.text) {
		return Value{Kind: Number, Str: t.text}, nil
	}
	if strings.EqualFold(t.text, "true") {
		return Value{Kind: Bool, B: true}, nil
	}
	if strings.EqualFold(t.text, "false") {
		return Value{Kind: Bool, B: false}, nil
	}
	return Value{Kind: Expression, Str: t.text}, nil
}
