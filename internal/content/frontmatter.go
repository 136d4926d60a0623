// internal/content/frontmatter.go
//
// Front matter extraction and stripping.
//
// Context
// -------
// Authors embed page metadata as a JSON-like block between literal
// @frontmatter … @endfrontmatter markers, in both markdown and template
// source.  The block is parsed through the relaxed-literal parser, so the
// usual hand-written looseness (single quotes, trailing commas) is fine.
// A file may carry several blocks (e.g. one pulled in from an include);
// they merge in order with the last one winning per key.
//
// Rendered output still contains the markers — markdown conversion wraps
// them in <p> tags — so the writer strips them from every generated page.
package content

import (
	"fmt"
	"regexp"

	"github.com/yanizio/vellum/internal/relaxed"
)

var (
	fmBlock     = regexp.MustCompile(`(?s)@frontmatter\s*(.*?)\s*@endfrontmatter`)
	fmStripP    = regexp.MustCompile(`(?s)<p>@frontmatter\s*.*?\s*@endfrontmatter</p>`)
	fmStripBare = regexp.MustCompile(`(?s)@frontmatter\s*.*?\s*@endfrontmatter`)
)

// ExtractFrontMatter pulls every front-matter block out of source text
// and merges them into one mapping, last block winning.  Returns nil when
// the text has no front matter.  A block that opens with "{" but cannot
// be parsed is a build-authoring error and is reported, not skipped.
func ExtractFrontMatter(src string) (map[string]any, error) {
	matches := fmBlock.FindAllStringSubmatch(src, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	var merged map[string]any
	for _, m := range matches {
		body := m[1]
		if len(body) == 0 || body[0] != '{' {
			continue
		}
		v, err := relaxed.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		obj, ok := v.Interface().(map[string]any)
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(obj))
		}
		for k, val := range obj {
			merged[k] = val
		}
	}
	return merged, nil
}

// StripFrontMatter removes front-matter blocks, including ones the
// markdown converter wrapped in <p> tags, from rendered output.
func StripFrontMatter(s string) string {
	s = fmStripP.ReplaceAllString(s, "")
	s = fmStripBare.ReplaceAllString(s, "")
	return s
}
