package http

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/repo"
	"github.com/Strob0t/subete/internal/domain/sample"
)

// Handlers serves one immutable Repo.
type Handlers struct {
	repo    *repo.Repo
	version string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewHandlers creates Handlers for r. rng drives /random; nil seeds a new
// generator.
func NewHandlers(r *repo.Repo, version string, rng *rand.Rand) *Handlers {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Handlers{repo: r, version: version, rng: rng}
}

// Version returns the API version.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// Summary returns repo-wide statistics.
func (h *Handlers) Summary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.Summarize())
}

// Snapshot returns the complete graph.
func (h *Handlers) Snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.Snapshot())
}

// Letters returns the sorted first letters of the archive.
func (h *Handlers) Letters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.SortedLetters())
}

// ListLanguages returns every language, or those under ?letter=.
func (h *Handlers) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := h.repo.Languages()
	if q := r.URL.Query(); q.Has("letter") {
		letter := q.Get("letter")
		if err := repo.ValidateLetter(letter); err != nil {
			writeDomainError(w, err, "invalid letter")
			return
		}
		langs = h.repo.LanguagesByLetter(letter)
	}
	views := make([]repo.LanguageView, 0, len(langs))
	for _, c := range langs {
		views = append(views, repo.NewLanguageView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetLanguage returns a language with all its programs.
func (h *Handlers) GetLanguage(w http.ResponseWriter, r *http.Request) {
	c, err := h.language(r)
	if err != nil {
		writeDomainError(w, err, "language not found")
		return
	}
	writeJSON(w, http.StatusOK, repo.LanguageDetail(c))
}

// GetReadme returns a language's README.md.
func (h *Handlers) GetReadme(w http.ResponseWriter, r *http.Request) {
	c, err := h.language(r)
	if err != nil {
		writeDomainError(w, err, "language not found")
		return
	}
	text, ok, err := c.Readme()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "language has no README")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// GetProgram returns one program of a language.
func (h *Handlers) GetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := h.program(r)
	if err != nil {
		writeDomainError(w, err, "program not found")
		return
	}
	writeJSON(w, http.StatusOK, repo.NewProgramView(p))
}

// GetProgramCode returns a program's source as text.
func (h *Handlers) GetProgramCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.program(r)
	if err != nil {
		writeDomainError(w, err, "program not found")
		return
	}
	code, err := p.Code()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(code))
}

// ListProjects returns every approved project.
func (h *Handlers) ListProjects(w http.ResponseWriter, _ *http.Request) {
	projects := h.repo.Projects()
	views := make([]repo.ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, repo.NewProjectView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

type projectDetail struct {
	repo.ProjectView
	Languages []string `json:"languages"`
}

// GetProject returns a project and the languages implementing it.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.repo.Project(urlParam(r, "key"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	langs := []string{}
	for _, c := range h.repo.Languages() {
		if _, ok := c.Program(p.Name()); ok {
			langs = append(langs, c.Key())
		}
	}
	writeJSON(w, http.StatusOK, projectDetail{ProjectView: repo.NewProjectView(p), Languages: langs})
}

// Random returns a uniformly chosen language, then program.
func (h *Handlers) Random(w http.ResponseWriter, _ *http.Request) {
	h.rngMu.Lock()
	p, ok := h.repo.RandomProgram(h.rng)
	h.rngMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "repo has no programs")
		return
	}
	writeJSON(w, http.StatusOK, repo.NewProgramView(p))
}

func (h *Handlers) language(r *http.Request) (*sample.Collection, error) {
	key := urlParam(r, "language")
	c, ok := h.repo.LanguageByKey(key)
	if !ok {
		return nil, fmt.Errorf("language %q: %w", key, domain.ErrNotFound)
	}
	return c, nil
}

func (h *Handlers) program(r *http.Request) (*sample.Program, error) {
	c, err := h.language(r)
	if err != nil {
		return nil, err
	}
	key := urlParam(r, "project")
	p, ok := h.repo.Project(key)
	if !ok {
		return nil, fmt.Errorf("project %q: %w", key, domain.ErrNotFound)
	}
	prog, ok := c.Program(p.Name())
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", key, c.Key(), domain.ErrNotFound)
	}
	return prog, nil
}
