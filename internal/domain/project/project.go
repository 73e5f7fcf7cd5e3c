// Package project defines the approved Project entity and the registry used
// to resolve sample program files to projects.
package project

import (
	"fmt"
	"strings"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/naming"
	"github.com/Strob0t/subete/internal/domain/provenance"
)

// ImportExportKey is the single identifier shared by the import and export
// projects, which are documented as one combined entry.
const ImportExportKey = "import-export"

// TestRequirements is the per-project test configuration. Its presence on a
// Project means the project is covered by the test harness.
type TestRequirements struct {
	Words              []string `json:"words,omitempty"`
	RequiresParameters bool     `json:"requires_parameters"`
	AcronymScheme      string   `json:"acronym_scheme,omitempty"`
}

// Project is an approved sample program project, e.g. "hello-world".
type Project struct {
	key             string
	requirementsURL string
	tests           *TestRequirements

	docs     provenance.Provenance
	attached bool
}

// New creates a Project. Keys mentioning import or export collapse into
// ImportExportKey. tests may be nil when the project has no test metadata.
func New(key string, tests *TestRequirements, urls domain.URLs) *Project {
	key = CanonicalKey(key)
	return &Project{
		key:             key,
		requirementsURL: strings.TrimRight(urls.DocsBase, "/") + "/projects/" + key,
		tests:           tests,
	}
}

// CanonicalKey applies the import/export rule to a pathlike identifier.
func CanonicalKey(key string) string {
	if strings.Contains(key, "import") || strings.Contains(key, "export") {
		return ImportExportKey
	}
	return key
}

// Key returns the pathlike identifier (e.g. hello-world).
func (p *Project) Key() string { return p.key }

// Name returns the human-readable name (e.g. Hello World, MST).
func (p *Project) Name() string { return naming.ProjectName(p.key) }

// String implements fmt.Stringer.
func (p *Project) String() string { return p.Name() }

// RequirementsURL returns the project's requirements page on the docs site.
func (p *Project) RequirementsURL() string { return p.requirementsURL }

// Tests returns the project's test requirements, if any.
func (p *Project) Tests() (*TestRequirements, bool) {
	return p.tests, p.tests != nil
}

// HasTesting reports whether the project has test metadata.
func (p *Project) HasTesting() bool { return p.tests != nil }

// Equal reports whether two projects share the same key.
func (p *Project) Equal(o *Project) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.key == o.key
}

// Documentation returns the provenance of the project's documentation files.
// It is the zero value until the repo has been enriched.
func (p *Project) Documentation() provenance.Provenance { return p.docs }

// AttachDocumentation records documentation provenance. It may be called
// once; later calls fail with domain.ErrAlreadyEnriched.
func (p *Project) AttachDocumentation(doc provenance.Provenance) error {
	if p.attached {
		return fmt.Errorf("project %s: %w", p.key, domain.ErrAlreadyEnriched)
	}
	p.docs = doc
	p.attached = true
	return nil
}

// TestRequirementsFromMap converts one entry of the test configuration's
// "projects" mapping. Unknown keys are ignored.
func TestRequirementsFromMap(m map[string]any) *TestRequirements {
	if m == nil {
		return nil
	}
	tr := &TestRequirements{}
	if words, ok := m["words"].([]any); ok {
		for _, w := range words {
			if s, ok := w.(string); ok {
				tr.Words = append(tr.Words, s)
			}
		}
	}
	if v, ok := m["requires_parameters"].(bool); ok {
		tr.RequiresParameters = v
	}
	if v, ok := m["acronym_scheme"].(string); ok {
		tr.AcronymScheme = v
	}
	return tr
}
