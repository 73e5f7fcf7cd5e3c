// Package metadata defines the port for reading structured metadata files
// (testinfo.yml, untestable.yml, the project test configuration).
package metadata

// Loader reads a YAML document into a generic map.
type Loader interface {
	// LoadYAML parses the file at path. ok is false when the file does not
	// exist; that case is not an error. An empty document yields an empty map.
	LoadYAML(path string) (doc map[string]any, ok bool, err error)
}
