// internal/content/markdown.go
//
// Markdown corpus loading.
//
// Context
// -------
// The markdown tree has two halves:
//
//   - partials/ — fragments exposed to templates as render arguments,
//     nested directories becoming nested keys
//     (partials/collections/quote.md → {{ .collections.quote }}).
//   - articles/ — one page per file, each carrying front matter and an
//     URL segment derived from its directory.
//
// Conversion uses goldmark with fenced-code syntax highlighting; the
// rendered fragments are template.HTML so templates emit them verbatim.
package content

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// Page is one markdown article prepared for rendering: converted HTML,
// the URL segment its directory maps to, and its parsed front matter.
type Page struct {
	Name        string // file name without extension
	URLSegment  string // directory below articles/, "/"-prefixed, "" at root
	SrcPath     string // absolute source path, for error reporting
	HTML        string
	FrontMatter map[string]any
}

// MarkdownLoader reads and converts the markdown tree under one root.
type MarkdownLoader struct {
	root string
	md   goldmark.Markdown
}

// NewMarkdownLoader builds a loader rooted at dir (the directory holding
// partials/ and articles/).  codeStyle selects the chroma style for
// fenced code blocks; empty means "onedark".
func NewMarkdownLoader(dir, codeStyle string) *MarkdownLoader {
	if codeStyle == "" {
		codeStyle = "onedark"
	}
	return &MarkdownLoader{
		root: dir,
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAttribute(),
			),
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				highlighting.NewHighlighting(
					highlighting.WithStyle(codeStyle),
					highlighting.WithFormatOptions(chromahtml.TabWidth(2)),
				),
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithUnsafe(),
			),
		),
	}
}

// Convert renders one markdown document to HTML.
func (l *MarkdownLoader) Convert(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadPartials converts every partials/**/*.md fragment and arranges the
// results in a nested map keyed by subdirectory, file base name last.
func (l *MarkdownLoader) LoadPartials() (map[string]any, error) {
	zap.S().Infow("reading markdown partials", "dir", l.root)
	partials := make(map[string]any)
	base := filepath.Join(l.root, "partials")
	if _, err := os.Stat(base); err != nil {
		return partials, nil
	}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		html, err := l.Convert(src)
		if err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
		rel, _ := filepath.Rel(base, filepath.Dir(path))
		name := strings.TrimSuffix(d.Name(), ".md")

		// Walk/create the nested key chain for the subdirectory.
		node := partials
		if rel != "." {
			for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
				child, ok := node[seg].(map[string]any)
				if !ok {
					child = make(map[string]any)
					node[seg] = child
				}
				node = child
			}
		}
		node[name] = template.HTML(html)
		return nil
	})
	return partials, err
}

// LoadArticles converts every articles/**/*.md file into a Page with its
// front matter attached.  A malformed front-matter block fails the build
// naming the file.
func (l *MarkdownLoader) LoadArticles() ([]*Page, error) {
	zap.S().Infow("reading markdown articles", "dir", l.root)
	var pages []*Page
	base := filepath.Join(l.root, "articles")
	if _, err := os.Stat(base); err != nil {
		return pages, nil
	}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fm, err := ExtractFrontMatter(string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		html, err := l.Convert(src)
		if err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
		rel, _ := filepath.Rel(base, filepath.Dir(path))
		segment := ""
		if rel != "." {
			segment = "/" + filepath.ToSlash(rel)
		}
		abs, _ := filepath.Abs(path)
		pages = append(pages, &Page{
			Name:        strings.TrimSuffix(d.Name(), ".md"),
			URLSegment:  segment,
			SrcPath:     abs,
			HTML:        html,
			FrontMatter: fm,
		})
		return nil
	})
	return pages, err
}
