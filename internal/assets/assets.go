// internal/assets/assets.go
//
// Static asset pipeline: favicon, scripts, and images are copied into the
// build tree, stylesheets are concatenated into one
// static/styles/main.css.  The four writers are independent, so they run
// concurrently under an errgroup; the first failure cancels the build.
package assets

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Paths names the asset sources and the build destination.  Missing
// sources are skipped, not errors; not every site ships images or a
// favicon.
type Paths struct {
	Favicon  string // single file → <build>/favicon.ico
	Scripts  string // directory  → <build>/static/scripts
	Images   string // directory  → <build>/static/images
	Styles   string // directory  → <build>/static/styles/main.css
	BuildDir string
}

// Write copies every asset class into the build directory.
func Write(ctx context.Context, p Paths) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return copyFile(p.Favicon, filepath.Join(p.BuildDir, "favicon.ico")) })
	g.Go(func() error { return copyTree(p.Scripts, filepath.Join(p.BuildDir, "static", "scripts")) })
	g.Go(func() error { return copyTree(p.Images, filepath.Join(p.BuildDir, "static", "images")) })
	g.Go(func() error { return combineCSS(p.Styles, filepath.Join(p.BuildDir, "static", "styles", "main.css")) })
	return g.Wait()
}

func copyFile(src, dest string) error {
	if src == "" {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func copyTree(src, dest string) error {
	if src == "" {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		return nil
	}
	zap.S().Debugw("copying assets", "from", src, "to", dest)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// combineCSS concatenates every top-level *.css file, in lexical order,
// into one stylesheet with a blank line between inputs.
func combineCSS(src, dest string) error {
	if src == "" {
		return nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".css") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	zap.S().Debugw("combining stylesheets", "dir", src, "count", len(names))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	for i, name := range names {
		raw, err := os.ReadFile(filepath.Join(src, name))
		if err != nil {
			return err
		}
		if _, err := out.Write(raw); err != nil {
			return err
		}
		if i < len(names)-1 {
			if _, err := out.WriteString("\n\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
