// internal/relaxed/relaxed_test.go
//
// Unit-tests for the relaxed-literal parser and normalizer.
//
// Run: go test ./internal/relaxed -v

package relaxed

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeSingleQuotesAndTrailingCommas(t *testing.T) {
	in := "{'where': {'category': {'equals': 'tech'},},}"
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := `{"where": {"category": {"equals": "tech"}}}`
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeUnquotedScalars(t *testing.T) {
	in := "{'limit': 5, 'draft': False, 'score': -1.5, 'flag': TRUE}"
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := `{"limit": 5, "draft": false, "score": -1.5, "flag": true}`
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeDynamicExpressionBecomesOpaqueString(t *testing.T) {
	in := "{'offset': pagination.per_page * 2}"
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := `{"offset": "pagination.per_page * 2"}`
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}

	// The parsed form must still distinguish expression from string.
	v, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	off, ok := v.Get("offset")
	if !ok || off.Kind != Expression {
		t.Fatalf("offset kind = %v, want Expression", off.Kind)
	}
	if _, isExpr := off.Interface().(Expr); !isExpr {
		t.Fatalf("Interface() of expression should be relaxed.Expr")
	}
}

func TestNormalizeEscapedQuotesInsideStrings(t *testing.T) {
	in := `{'title': 'it\'s "fine"', "note": "say \"hi\""}`
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(got), &m); err != nil {
		t.Fatalf("output is not strict JSON: %v\n%s", err, got)
	}
	if m["title"] != `it's "fine"` {
		t.Fatalf("title = %q", m["title"])
	}
	if m["note"] != `say "hi"` {
		t.Fatalf("note = %q", m["note"])
	}
}

func TestNormalizeNewlinesAndTabs(t *testing.T) {
	in := "{\n\t'tags': ['go',\n\t\t'ssg',],\n}"
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := `{"tags": ["go", "ssg"]}`
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"{'a': 1, 'b': 'two', 'c': [1, 2, 3,], 'd': {'nested': True},}",
		"{'where': {'or': [{'category': {'equals': 'tech'}}, {'tags': {'contains': 'go'}}]}}",
		"{'expr': some.variable + 1}",
		"{}",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)) error: %v", in, err)
		}
		if once != twice {
			t.Fatalf("not idempotent:\n once: %s\ntwice: %s", once, twice)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// A mapping written as a relaxed (single-quoted, trailing-comma)
	// literal must survive normalization structurally intact.
	in := "{'s': 'text', 'n': 42, 'f': 1.25, 'b': true, 'list': ['a', 2, false,], 'obj': {'k': 'v',},}"
	want := map[string]any{
		"s":    "text",
		"n":    float64(42),
		"f":    1.25,
		"b":    true,
		"list": []any{"a", float64(2), false},
		"obj":  map[string]any{"k": "v"},
	}
	norm, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(norm), &got); err != nil {
		t.Fatalf("strict decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got: %#v\nwant: %#v", got, want)
	}
}

func TestParsePreservesMemberOrder(t *testing.T) {
	v, err := Parse("{'z': 1, 'a': 2, 'm': 3}")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	keys := make([]string, 0, len(v.Mems))
	for _, m := range v.Mems {
		keys = append(keys, m.Key)
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Fatalf("member order = %v", keys)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"{'a': }",
		"{'a' 1}",
		"not a literal",
		"{'a': 'unterminated}",
		"{'a': 1} trailing",
		"{: 1}",
	}
	for _, in := range cases {
		if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestParseErrorReportsOffset(t *testing.T) {
	_, err := Parse("{'a' 1}")
	if err == nil || !strings.Contains(err.Error(), "offset") {
		t.Fatalf("error should carry the offending offset, got %v", err)
	}
}

func TestWithout(t *testing.T) {
	v, err := Parse("{'where': {'x': 1}, 'offset': 5, 'limit': 10}")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	stripped := v.Without("offset", "limit")
	if stripped.Has("offset") || stripped.Has("limit") {
		t.Fatalf("offset/limit survived Without: %#v", stripped)
	}
	if !stripped.Has("where") {
		t.Fatalf("where dropped by Without")
	}
	// Original value untouched.
	if !v.Has("offset") {
		t.Fatalf("Without mutated its receiver")
	}
}
