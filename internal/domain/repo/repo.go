// Package repo assembles the full sample programs graph: every language
// collection in the code archive, cross-referenced with the approved
// projects from the documentation tree.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/project"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/domain/sample"
	"github.com/Strob0t/subete/internal/port/fswalk"
	"github.com/Strob0t/subete/internal/port/metadata"
)

// Input describes where and how to read the two source trees.
type Input struct {
	// ArchiveRoot is the code archive, e.g. sample-programs/archive.
	ArchiveRoot string
	// DocsRoot is the documentation sources, e.g. sample-programs-website/sources.
	DocsRoot string
	// TestConfigPath is the project test configuration (.glotter.yml).
	// Empty or missing means no project is tested.
	TestConfigPath string

	Walker fswalk.Walker
	Loader metadata.Loader
	URLs   domain.URLs
	Logger *slog.Logger
}

// Repo is the root of the graph. It is immutable once Attach has run.
type Repo struct {
	archiveRoot string
	docsRoot    string

	registry  *project.Registry
	languages []*sample.Collection
	byName    map[string]*sample.Collection
	byKey     map[string]*sample.Collection
	letters   []string

	enriched bool
}

// Assemble walks the archive and builds every language collection. Each
// leaf directory below ArchiveRoot (hidden directories excluded) is one
// language. Missing roots fail with domain.ErrSourceUnavailable.
func Assemble(ctx context.Context, in Input) (*Repo, error) {
	log := in.Logger
	if log == nil {
		log = slog.Default()
	}

	registry, err := loadRegistry(in)
	if err != nil {
		return nil, err
	}

	letters, err := in.Walker.ListDirs(in.ArchiveRoot)
	if err != nil {
		return nil, fmt.Errorf("archive root %s: %w: %w", in.ArchiveRoot, domain.ErrSourceUnavailable, err)
	}

	r := &Repo{
		archiveRoot: in.ArchiveRoot,
		docsRoot:    in.DocsRoot,
		registry:    registry,
		byName:      make(map[string]*sample.Collection),
		byKey:       make(map[string]*sample.Collection),
		letters:     letters,
	}
	sort.SliceStable(r.letters, func(i, j int) bool {
		return strings.ToLower(r.letters[i]) < strings.ToLower(r.letters[j])
	})

	opts := sample.BuildOptions{URLs: in.URLs, Loader: in.Loader, Logger: log}
	err = in.Walker.Walk(in.ArchiveRoot, func(dir string, subdirs, files []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(subdirs) > 0 || filepath.Clean(dir) == filepath.Clean(in.ArchiveRoot) {
			return nil
		}
		c, err := sample.Build(filepath.Base(dir), dir, files, registry, opts)
		if err != nil {
			return err
		}
		r.languages = append(r.languages, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assemble archive: %w", err)
	}

	sort.SliceStable(r.languages, func(i, j int) bool {
		return strings.ToLower(r.languages[i].Name()) < strings.ToLower(r.languages[j].Name())
	})
	for _, c := range r.languages {
		if _, dup := r.byKey[c.Key()]; dup {
			log.Warn("duplicate language directory", "language", c.Key(), "path", c.Path())
		}
		if prev, dup := r.byName[c.Name()]; dup {
			log.Warn("language display name collision", "name", c.Name(),
				"language", c.Key(), "replaced", prev.Key())
		}
		r.byKey[c.Key()] = c
		r.byName[c.Name()] = c
	}

	log.Info("repo assembled",
		"languages", len(r.languages),
		"programs", r.TotalPrograms(),
		"projects", registry.Len())
	return r, nil
}

func loadRegistry(in Input) (*project.Registry, error) {
	keys, err := in.Walker.ListDirs(filepath.Join(in.DocsRoot, "projects"))
	if err != nil {
		return nil, fmt.Errorf("docs projects: %w: %w", domain.ErrSourceUnavailable, err)
	}

	var tests map[string]any
	if in.TestConfigPath != "" && in.Loader != nil {
		doc, ok, err := in.Loader.LoadYAML(in.TestConfigPath)
		if err != nil {
			return nil, fmt.Errorf("test config: %w", err)
		}
		if ok {
			tests, _ = doc["projects"].(map[string]any)
		}
	}

	projects := make([]*project.Project, 0, len(keys))
	for _, key := range keys {
		var tr *project.TestRequirements
		if entry, ok := tests[strings.ReplaceAll(key, "-", "")]; ok {
			m, _ := entry.(map[string]any)
			if m == nil {
				m = map[string]any{}
			}
			tr = project.TestRequirementsFromMap(m)
		}
		projects = append(projects, project.New(key, tr, in.URLs))
	}
	return project.NewRegistry(projects...), nil
}

// ArchiveRoot returns the code archive directory the repo was built from.
func (r *Repo) ArchiveRoot() string { return r.archiveRoot }

// DocsRoot returns the documentation sources directory.
func (r *Repo) DocsRoot() string { return r.docsRoot }

// Languages returns all collections ordered by case-folded display name.
func (r *Repo) Languages() []*sample.Collection { return r.languages }

// Language looks up a collection by display name, e.g. "C#".
func (r *Repo) Language(name string) (*sample.Collection, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// LanguageByKey looks up a collection by directory name, e.g. "c-sharp".
func (r *Repo) LanguageByKey(key string) (*sample.Collection, bool) {
	c, ok := r.byKey[key]
	return c, ok
}

// Projects returns the approved projects ordered by key.
func (r *Repo) Projects() []*project.Project { return r.registry.All() }

// Project looks up an approved project by key.
func (r *Repo) Project(key string) (*project.Project, bool) { return r.registry.Get(key) }

// Registry returns the approved project registry.
func (r *Repo) Registry() *project.Registry { return r.registry }

// TotalPrograms sums programs across all languages.
func (r *Repo) TotalPrograms() int {
	n := 0
	for _, c := range r.languages {
		n += c.TotalPrograms()
	}
	return n
}

// TotalTested counts languages with a testinfo file.
func (r *Repo) TotalTested() int {
	n := 0
	for _, c := range r.languages {
		if c.HasTestinfo() {
			n++
		}
	}
	return n
}

// TotalUntestable counts languages with an untestable file.
func (r *Repo) TotalUntestable() int {
	n := 0
	for _, c := range r.languages {
		if c.HasUntestable() {
			n++
		}
	}
	return n
}

// TotalApprovedProjects returns the size of the project registry.
func (r *Repo) TotalApprovedProjects() int { return r.registry.Len() }

// RandomProgram picks a language uniformly among those with at least one
// program, then a program uniformly within it. ok is false when the repo
// has no programs.
func (r *Repo) RandomProgram(rng *rand.Rand) (*sample.Program, bool) {
	var candidates []*sample.Collection
	for _, c := range r.languages {
		if c.TotalPrograms() > 0 {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	c := candidates[rng.IntN(len(candidates))]
	programs := c.Programs()
	return programs[rng.IntN(len(programs))], true
}

// ValidateLetter returns a wrapped domain.ErrValidation unless letter is a
// single character, the shape of an archive letter directory.
func ValidateLetter(letter string) error {
	if utf8.RuneCountInString(letter) != 1 {
		return fmt.Errorf("%w: letter must be a single character, got %q", domain.ErrValidation, letter)
	}
	return nil
}

// LanguagesByLetter returns the collections whose directory name starts with
// letter, ordered by case-folded display name.
func (r *Repo) LanguagesByLetter(letter string) []*sample.Collection {
	if letter == "" {
		return nil
	}
	var out []*sample.Collection
	for _, c := range r.languages {
		if strings.HasPrefix(c.Key(), letter) {
			out = append(out, c)
		}
	}
	return out
}

// SortedLetters returns the top-level archive directories (one per initial
// letter), case-insensitively sorted.
func (r *Repo) SortedLetters() []string { return r.letters }

// ProgramRef identifies a program by language and project key.
type ProgramRef struct {
	Language string
	Project  string
}

// ProgramProvenance is the enrichment result for one program.
type ProgramProvenance struct {
	Code provenance.Provenance
	Docs provenance.Provenance
}

// Index holds enrichment results keyed by entity. Entities absent from the
// index are attached with a zero (undocumented) Provenance.
type Index struct {
	Projects  map[string]provenance.Provenance
	Languages map[string]provenance.Provenance
	Programs  map[ProgramRef]ProgramProvenance
}

// Enriched reports whether Attach has run.
func (r *Repo) Enriched() bool { return r.enriched }

// Attach distributes enrichment results to every entity. It is the second
// and final construction phase and may run only once.
func (r *Repo) Attach(idx Index) error {
	if r.enriched {
		return fmt.Errorf("repo: %w", domain.ErrAlreadyEnriched)
	}
	for _, p := range r.registry.All() {
		if err := p.AttachDocumentation(idx.Projects[p.Key()]); err != nil {
			return err
		}
	}
	for _, c := range r.languages {
		if err := c.AttachDocumentation(idx.Languages[c.Key()]); err != nil {
			return err
		}
		for _, p := range c.Programs() {
			pp := idx.Programs[ProgramRef{Language: c.Key(), Project: p.ProjectKey()}]
			if err := p.AttachProvenance(pp.Code, pp.Docs); err != nil {
				return err
			}
		}
	}
	r.enriched = true
	return nil
}
