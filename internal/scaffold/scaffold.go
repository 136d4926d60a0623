// internal/scaffold/scaffold.go
//
// Project scaffolding for `vellum init`: copies the embedded starter
// tree — config, views, a sample article, store data, and assets — into
// a target directory so a new site builds on the first run.
//
// Existing files are overwritten, matching a template copy into an
// already-started directory.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed starter
var starterFS embed.FS

// Create writes the starter project into dest, creating it if needed.
func Create(dest string) error {
	return fs.WalkDir(starterFS, "starter", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, "starter")
		rel = strings.TrimPrefix(rel, "/")
		out := filepath.Join(dest, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		data, err := starterFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read starter %s: %w", path, err)
		}
		return os.WriteFile(out, data, 0o644)
	})
}
