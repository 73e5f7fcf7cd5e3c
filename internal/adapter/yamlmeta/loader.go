// Package yamlmeta implements metadata.Loader with gopkg.in/yaml.v3.
package yamlmeta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads YAML metadata files from the local filesystem.
type Loader struct{}

// New returns a Loader.
func New() *Loader { return &Loader{} }

// LoadYAML parses the file at path. A missing file reports ok=false.
func (l *Loader) LoadYAML(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a directory listing
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("yamlmeta: read %s: %w", path, err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("yamlmeta: parse %s: %w", path, err)
	}
	return doc, true, nil
}
