// internal/content/store.go
//
// JSON data store loading.  Every store/**/*.json file contributes its
// top-level keys to one merged mapping; each key names a collection (or a
// plain render argument) templates can reach directly or query through
// query_store.  Files are strict JSON — they are machine-edited data, not
// hand-written literals — and merge in walk (lexical) order.
package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LoadStore reads and merges every JSON file under dir.  A missing dir is
// not an error; sites without structured data simply have no store.
func LoadStore(dir string) (map[string]any, error) {
	out := make(map[string]any)
	if _, err := os.Stat(dir); err != nil {
		return out, nil
	}
	zap.S().Infow("loading JSON store", "dir", dir)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}
		for k, v := range doc {
			out[k] = v
		}
		return nil
	})
	return out, err
}
