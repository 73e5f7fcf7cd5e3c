package sample

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/naming"
	"github.com/Strob0t/subete/internal/domain/project"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/port/metadata"
)

// Companion files recognised in a language directory.
const (
	TestinfoFile   = "testinfo.yml"
	UntestableFile = "untestable.yml"
	ReadmeFile     = "README.md"
)

// skippedExts are extensions that never denote a sample program.
var skippedExts = map[string]bool{".md": true, "": true, ".yml": true}

// BuildOptions carries the collaborators used while building a collection.
type BuildOptions struct {
	URLs   domain.URLs
	Loader metadata.Loader
	Logger *slog.Logger
}

// Collection is the set of sample programs for one language directory.
type Collection struct {
	key  string
	path string
	name string

	docsURL     string
	testinfoURL string

	programs []*Program
	byName   map[string]*Program

	testinfo      map[string]any
	hasTestinfo   bool
	untestable    map[string]any
	hasUntestable bool
	readmePath    string

	missing    []*project.Project
	unresolved []string

	docs     provenance.Provenance
	attached bool
}

// Build resolves every candidate file in a language directory to a program.
// files are the names of the regular files directly inside path. Files that
// resolve to no project are dropped and reported by Unresolved; I/O errors
// on candidate files are returned.
func Build(name, path string, files []string, registry *project.Registry, opts BuildOptions) (*Collection, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Collection{
		key:    name,
		path:   path,
		name:   naming.LanguageName(name),
		byName: make(map[string]*Program),
	}
	base := strings.TrimRight(opts.URLs.DocsBase, "/")
	c.docsURL = base + "/languages/" + name
	if name != "" {
		c.testinfoURL = strings.TrimRight(opts.URLs.ArchiveBlobBase, "/") +
			"/archive/" + name[:1] + "/" + name + "/" + TestinfoFile
	}

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	for _, f := range sorted {
		if skippedExts[strings.ToLower(naming.Ext(f))] {
			continue
		}
		p, err := NewProgram(path, f, c, registry, opts.URLs)
		if errors.Is(err, domain.ErrUnresolvedProject) {
			log.Debug("dropping unresolved file", "language", name, "file", f, "error", err)
			c.unresolved = append(c.unresolved, f)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", name, err)
		}
		if prev, dup := c.byName[p.ProjectName()]; dup {
			log.Debug("program replaces earlier file for project",
				"language", name, "project", p.ProjectKey(), "file", f, "replaced", prev.FileName())
		}
		c.byName[p.ProjectName()] = p
	}

	c.programs = make([]*Program, 0, len(c.byName))
	for _, p := range c.byName {
		c.programs = append(c.programs, p)
	}
	sort.Slice(c.programs, func(i, j int) bool {
		return c.programs[i].ProjectName() < c.programs[j].ProjectName()
	})

	have := make(map[string]bool, len(c.programs))
	for _, p := range c.programs {
		have[p.ProjectKey()] = true
	}
	for _, proj := range registry.All() {
		if !have[proj.Key()] {
			c.missing = append(c.missing, proj)
		}
	}

	c.loadCompanions(sorted, opts.Loader, log)

	log.Debug("language collected", "language", name, "programs", len(c.programs),
		"missing", len(c.missing), "unresolved", len(c.unresolved))
	return c, nil
}

// loadCompanions detects README.md, testinfo.yml and untestable.yml by
// exact name. Presence alone decides HasTestinfo and HasUntestable; a file
// that cannot be parsed is logged and exposes an empty mapping.
func (c *Collection) loadCompanions(files []string, loader metadata.Loader, log *slog.Logger) {
	present := make(map[string]bool, 3)
	for _, f := range files {
		switch f {
		case TestinfoFile, UntestableFile, ReadmeFile:
			present[f] = true
		}
	}

	if present[ReadmeFile] {
		c.readmePath = filepath.Join(c.path, ReadmeFile)
	}
	c.hasTestinfo = present[TestinfoFile]
	c.hasUntestable = present[UntestableFile]
	if c.hasTestinfo {
		c.testinfo = c.loadMetadata(loader, TestinfoFile, log)
	}
	if c.hasUntestable {
		c.untestable = c.loadMetadata(loader, UntestableFile, log)
	}
}

func (c *Collection) loadMetadata(loader metadata.Loader, file string, log *slog.Logger) map[string]any {
	if loader == nil {
		return map[string]any{}
	}
	doc, ok, err := loader.LoadYAML(filepath.Join(c.path, file))
	if err != nil {
		log.Warn("ignoring unreadable language metadata", "language", c.key, "file", file, "error", err)
		return map[string]any{}
	}
	if !ok || doc == nil {
		return map[string]any{}
	}
	return doc
}

// Key returns the raw directory name, e.g. "c-sharp".
func (c *Collection) Key() string { return c.key }

// Path returns the language directory.
func (c *Collection) Path() string { return c.path }

// Name returns the display name, e.g. "C#".
func (c *Collection) Name() string { return c.name }

// String implements fmt.Stringer.
func (c *Collection) String() string { return c.name }

// Program looks up a program by project display name (e.g. "Hello World").
func (c *Collection) Program(projectName string) (*Program, bool) {
	p, ok := c.byName[projectName]
	return p, ok
}

// Programs returns the programs ordered by project display name. The slice
// must not be modified.
func (c *Collection) Programs() []*Program { return c.programs }

// Testinfo returns the parsed testinfo.yml, if present.
func (c *Collection) Testinfo() (map[string]any, bool) { return c.testinfo, c.hasTestinfo }

// HasTestinfo reports whether the language has a testinfo.yml.
func (c *Collection) HasTestinfo() bool { return c.hasTestinfo }

// Untestable returns the parsed untestable.yml, if present.
func (c *Collection) Untestable() (map[string]any, bool) { return c.untestable, c.hasUntestable }

// HasUntestable reports whether the language has an untestable.yml.
func (c *Collection) HasUntestable() bool { return c.hasUntestable }

// Readme reads README.md. ok is false when the language has none.
func (c *Collection) Readme() (text string, ok bool, err error) {
	if c.readmePath == "" {
		return "", false, nil
	}
	raw, err := os.ReadFile(c.readmePath)
	if err != nil {
		return "", false, fmt.Errorf("read readme for %s: %w", c.key, err)
	}
	return decode(raw), true, nil
}

// TotalPrograms returns the number of programs.
func (c *Collection) TotalPrograms() int { return len(c.programs) }

// TotalSize sums program sizes in bytes. Companion files are not counted.
func (c *Collection) TotalSize() int64 {
	var n int64
	for _, p := range c.programs {
		n += p.Size()
	}
	return n
}

// TotalLineCount sums program line counts.
func (c *Collection) TotalLineCount() int {
	n := 0
	for _, p := range c.programs {
		n += p.LineCount()
	}
	return n
}

// MissingPrograms returns the approved projects with no program in this
// language, ordered by key.
func (c *Collection) MissingPrograms() []*project.Project { return c.missing }

// MissingProgramsCount returns len(MissingPrograms()).
func (c *Collection) MissingProgramsCount() int { return len(c.missing) }

// Unresolved returns the candidate files that matched no project.
func (c *Collection) Unresolved() []string { return c.unresolved }

// DocsURL returns the language page on the docs site.
func (c *Collection) DocsURL() string { return c.docsURL }

// TestinfoURL returns the testinfo.yml location in the archive on GitHub.
func (c *Collection) TestinfoURL() string { return c.testinfoURL }

// Documentation returns authorship of the language description.
func (c *Collection) Documentation() provenance.Provenance { return c.docs }

// AttachDocumentation records documentation provenance once.
func (c *Collection) AttachDocumentation(doc provenance.Provenance) error {
	if c.attached {
		return fmt.Errorf("language %s: %w", c.key, domain.ErrAlreadyEnriched)
	}
	c.docs = doc
	c.attached = true
	return nil
}
