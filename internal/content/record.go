// internal/content/record.go
//
// Content records: immutable per-build snapshots of one article or store
// item, exposed to templates and to the query evaluator as flat mappings.
package content

import "time"

// Record is one piece of content.  Keys are snake_case because templates
// address them directly ({{ .title }}, {{ .published_datetime }}).
// Records are built once per build and never mutated afterwards.
type Record map[string]any

// Get returns the field value, or nil when absent.  Query conditions rely
// on missing fields degrading to nil instead of erroring.
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// Has reports field presence.
func (r Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r[key]
	return ok
}

// Truthy reports whether a front-matter flag value should be treated as
// set.  Booleans and numbers behave as expected; strings count as set
// unless empty, "0", or a case-insensitive "false" (authors write
// draft: 'false' expecting it to mean false).
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch t {
		case "", "0", "false", "False", "FALSE":
			return false
		}
		return true
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}

// Date layouts accepted throughout the pipeline: full UTC datetime first,
// date-only second.
const (
	LayoutDateTime = "2006-01-02T15:04:05Z"
	LayoutDate     = "2006-01-02"
)

// CoerceDate parses a date string in either accepted layout.
func CoerceDate(s string) (time.Time, bool) {
	if t, err := time.Parse(LayoutDateTime, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(LayoutDate, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// LooksLikeDate reports whether a string starts with a YYYY-MM-DD shape,
// cheap gate before attempting a real parse.
func LooksLikeDate(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i, c := range s[:10] {
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
