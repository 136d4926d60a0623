// internal/relaxed/lexer.go
//
// Tokenizer for the relaxed object-literal grammar.
//
// The lexer understands exactly what template authors actually write:
// single- or double-quoted strings (with escaped quotes), structural
// punctuation, and "raw runs" — everything else between delimiters, which
// the parser later classifies as a number, a boolean, or an opaque
// expression.  Strings are decoded here so no later stage can corrupt
// their payload.
package relaxed

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokLBrace tokenKind = iota
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString // decoded payload in text
	tokRaw    // trimmed raw run in text
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	off  int // byte offset of the token start
}

type lexer struct {
	src string
	pos int
}

// next returns the next token, skipping whitespace.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '{':
			return l.punct(tokLBrace), nil
		case c == '}':
			return l.punct(tokRBrace), nil
		case c == '[':
			return l.punct(tokLBracket), nil
		case c == ']':
			return l.punct(tokRBracket), nil
		case c == ':':
			return l.punct(tokColon), nil
		case c == ',':
			return l.punct(tokComma), nil
		case c == '\'' || c == '"':
			return l.quoted(c)
		default:
			return l.raw(), nil
		}
	}
	return token{kind: tokEOF, off: l.pos}, nil
}

func (l *lexer) punct(kind tokenKind) token {
	t := token{kind: kind, text: l.src[l.pos : l.pos+1], off: l.pos}
	l.pos++
	return t
}

// quoted consumes a string delimited by quote, decoding backslash
// escapes.  An apostrophe escaped inside a single-quoted string and a
// double quote escaped inside a double-quoted one both decode to the bare
// character, so re-encoding can choose its own canonical quoting.
func (l *lexer) quoted(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, fmt.Errorf("%w: unterminated escape at offset %d", ErrMalformed, l.pos)
			}
			esc := l.src[l.pos+1]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '/', '\'', '"':
				sb.WriteByte(esc)
			default:
				// Unknown escape: keep it verbatim rather than guessing.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			l.pos += 2
		case quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), off: start}, nil
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			sb.WriteRune(r)
			l.pos += size
		}
	}
	return token{}, fmt.Errorf("%w: unterminated string at offset %d", ErrMalformed, start)
}

// raw consumes a run of anything that is not punctuation or a quote.  The
// run is trimmed; interior spaces survive so expressions like
// "pagination.per_page * 2" stay in one piece.
func (l *lexer) raw() token {
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '{', '}', '[', ']', ':', ',', '\'', '"', '\n', '\r':
			return token{kind: tokRaw, text: strings.TrimSpace(l.src[start:l.pos]), off: start}
		}
		l.pos++
	}
	return token{kind: tokRaw, text: strings.TrimSpace(l.src[start:l.pos]), off: start}
}
