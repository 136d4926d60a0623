// internal/query/eval.go
//
// In-memory filter/sort/slice evaluation over content records.
//
// Pipeline (fixed order):
//
//  1. draft exclusion (article mode only, re-applied after every stage)
//  2. AND conditions, applied sequentially
//  3. OR conditions — each evaluated against the AND-stage output, their
//     union (first-seen order, deduplicated) REPLACING the AND result
//  4. order_by
//  5. offset, then limit
//
// The OR semantic is union-after-narrowing, not boolean AND-of-ORs; the
// tests pin it because the intersection variant is the easy mistake.
//
// Evaluation never errors: missing fields and type mismatches degrade to
// "condition not satisfied", and date-coercion failures fall back to the
// raw value with a logged warning.
package query

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/content"
)

// dateFields are the field names whose values get date coercion when used
// as sort keys or compared against date-shaped strings.
var dateFields = map[string]bool{
	"published_datetime": true,
	"modified_datetime":  true,
	"date":               true,
}

// Evaluate runs a specification over a record sequence.  Used for store
// collections, which have no draft notion.
func Evaluate(records []content.Record, spec *Spec) []content.Record {
	return evaluate(records, spec, false)
}

// EvaluateArticles runs a specification over the article corpus.  Draft
// records are removed before any user condition and again after every
// stage: no composition of conditions may resurrect a draft.
func EvaluateArticles(records []content.Record, spec *Spec) []content.Record {
	return evaluate(records, spec, true)
}

func evaluate(records []content.Record, spec *Spec, excludeDrafts bool) []content.Record {
	out := records
	if excludeDrafts {
		out = dropDrafts(out)
	}
	if spec == nil {
		spec = &Spec{}
	}

	// AND stage: each condition narrows the set.
	for _, c := range spec.Conds {
		out = filter(out, c)
		if excludeDrafts {
			out = dropDrafts(out)
		}
	}

	// OR stage: union over the AND-stage output, replacing it.
	if len(spec.Or) > 0 {
		var union []content.Record
		for _, c := range spec.Or {
			for _, rec := range filter(out, c) {
				if !containsRecord(union, rec) {
					union = append(union, rec)
				}
			}
		}
		out = union
		if excludeDrafts {
			out = dropDrafts(out)
		}
	}

	out = order(out, spec.OrderBy)

	if spec.Offset != nil {
		off := *spec.Offset
		if off < 0 {
			off = 0
		}
		if off > len(out) {
			off = len(out)
		}
		out = out[off:]
	}
	if spec.Limit != nil && *spec.Limit >= 0 && *spec.Limit < len(out) {
		out = out[:*spec.Limit]
	}
	return out
}

func dropDrafts(records []content.Record) []content.Record {
	out := make([]content.Record, 0, len(records))
	for _, r := range records {
		if !content.Truthy(r.Get("draft")) {
			out = append(out, r)
		}
	}
	return out
}

func filter(records []content.Record, c Condition) []content.Record {
	out := make([]content.Record, 0, len(records))
	for _, r := range records {
		if matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func containsRecord(set []content.Record, rec content.Record) bool {
	for _, r := range set {
		if reflect.DeepEqual(r, rec) {
			return true
		}
	}
	return false
}

// matches applies one condition to one record.  Absent fields are never
// an error: they evaluate to "not satisfied" under every operator.
func matches(rec content.Record, c Condition) bool {
	fv := rec.Get(c.Field)
	switch c.Op {
	case OpEquals:
		return rec.Has(c.Field) && valueEqual(coerce(c.Field, fv), coerce(c.Field, c.Value))
	case OpNotEquals:
		return rec.Has(c.Field) && !valueEqual(coerce(c.Field, fv), coerce(c.Field, c.Value))
	case OpContains:
		return sequenceContains(fv, c.Value)
	case OpNotContains:
		return rec.Has(c.Field) && !sequenceContains(fv, c.Value)
	case OpStartsWith:
		s, ok := fv.(string)
		pre, ok2 := c.Value.(string)
		return ok && ok2 && strings.HasPrefix(s, pre)
	case OpEndsWith:
		s, ok := fv.(string)
		suf, ok2 := c.Value.(string)
		return ok && ok2 && strings.HasSuffix(s, suf)
	case OpGT, OpGTE, OpLT, OpLTE:
		if fv == nil {
			return false
		}
		cmp, ok := compare(coerce(c.Field, fv), coerce(c.Field, c.Value))
		if !ok {
			return false
		}
		switch c.Op {
		case OpGT:
			return cmp > 0
		case OpGTE:
			return cmp >= 0
		case OpLT:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpIn:
		return rec.Has(c.Field) && memberOf(fv, c.Value)
	case OpNotIn:
		return rec.Has(c.Field) && !memberOf(fv, c.Value)
	case OpRegex:
		s, ok := fv.(string)
		pat, ok2 := c.Value.(string)
		if !ok || !ok2 {
			return false
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			zap.S().Warnw("invalid regex in filter condition", "field", c.Field, "pattern", pat, "err", err)
			return false
		}
		return re.MatchString(s)
	}
	return false
}

// coerce date-parses strings on both sides of a comparison when the field
// is date-like.  Anything that does not parse passes through unchanged.
func coerce(field string, v any) any {
	if !dateFields[field] {
		return v
	}
	s, ok := v.(string)
	if !ok || !content.LooksLikeDate(s) {
		return v
	}
	if t, ok := content.CoerceDate(s); ok {
		return t
	}
	return v
}

func valueEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// sequenceContains implements the contains operator: membership for
// sequence fields, substring containment for scalar strings.
func sequenceContains(fv, needle any) bool {
	switch seq := fv.(type) {
	case []any:
		for _, e := range seq {
			if valueEqual(e, needle) {
				return true
			}
		}
		return false
	case []string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		for _, e := range seq {
			if e == s {
				return true
			}
		}
		return false
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(seq, s)
	}
	return false
}

// memberOf implements in/not_in: the field value against a candidate
// sequence.
func memberOf(fv, candidates any) bool {
	seq, ok := candidates.([]any)
	if !ok {
		return false
	}
	for _, e := range seq {
		if valueEqual(fv, e) {
			return true
		}
	}
	return false
}

// compare orders two values of like type: times, numbers, or strings.
// Unlike or unordered types report !ok and the condition fails.
func compare(a, b any) (int, bool) {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// order sorts records by the named field.  Date-like fields get coerced
// sort keys: nil and empty string become the zero time (with a warning —
// the record is missing its date, not the build broken), strings are
// parsed, and anything unparseable sorts by its raw value.  The sort is
// stable and never panics on mixed key types; incomparable pairs fall
// back to their printed forms.
func order(records []content.Record, ob *Order) []content.Record {
	if ob == nil {
		return records
	}
	type keyed struct {
		rec content.Record
		key any
	}
	pairs := make([]keyed, len(records))
	for i, r := range records {
		pairs[i] = keyed{rec: r, key: sortKey(ob.Field, r)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if ob.Desc {
			return keyLess(pairs[j].key, pairs[i].key)
		}
		return keyLess(pairs[i].key, pairs[j].key)
	})
	out := make([]content.Record, len(pairs))
	for i, p := range pairs {
		out[i] = p.rec
	}
	return out
}

func sortKey(field string, rec content.Record) any {
	v := rec.Get(field)
	if !dateFields[field] {
		return v
	}
	if _, ok := v.(time.Time); ok {
		return v
	}
	switch s := v.(type) {
	case nil:
		zap.S().Warnw("sorting by date field with no value, using minimal date",
			"field", field, "path", rec.Get("path"))
		return time.Time{}
	case string:
		if strings.TrimSpace(s) == "" {
			zap.S().Warnw("sorting by date field with empty value, using minimal date",
				"field", field, "path", rec.Get("path"))
			return time.Time{}
		}
		if t, ok := content.CoerceDate(s); ok {
			return t
		}
		zap.S().Warnw("sorting by unparseable date value, using raw value",
			"field", field, "value", s, "path", rec.Get("path"))
		return s
	}
	return v
}

func keyLess(a, b any) bool {
	if cmp, ok := compare(a, b); ok {
		return cmp < 0
	}
	// Mixed-type keys: total order over printed forms keeps the sort
	// deterministic instead of panicking.
	return fmt.Sprint(a) < fmt.Sprint(b)
}
