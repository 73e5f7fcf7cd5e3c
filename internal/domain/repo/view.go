package repo

import (
	"github.com/Strob0t/subete/internal/domain/project"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/domain/sample"
)

// Summary is the top-level statistics view of a repo.
type Summary struct {
	Languages        int      `json:"languages"`
	Programs         int      `json:"programs"`
	Tested           int      `json:"tested"`
	Untestable       int      `json:"untestable"`
	ApprovedProjects int      `json:"approved_projects"`
	Letters          []string `json:"letters"`
	Enriched         bool     `json:"enriched"`
}

// ProjectView is the serialisable form of a project.
type ProjectView struct {
	Key             string                    `json:"key"`
	Name            string                    `json:"name"`
	RequirementsURL string                    `json:"requirements_url"`
	Tested          bool                      `json:"tested"`
	Tests           *project.TestRequirements `json:"tests,omitempty"`
	Documentation   provenance.Provenance     `json:"documentation"`
}

// ProgramView is the serialisable form of a program.
type ProgramView struct {
	FileName         string                `json:"file_name"`
	Project          string                `json:"project"`
	ProjectName      string                `json:"project_name"`
	Language         string                `json:"language"`
	LanguageName     string                `json:"language_name"`
	Size             int64                 `json:"size"`
	LineCount        int                   `json:"line_count"`
	DocumentationURL string                `json:"documentation_url"`
	IssueQueryURL    string                `json:"issue_query_url"`
	Code             provenance.Provenance `json:"code_provenance"`
	Documentation    provenance.Provenance `json:"documentation"`
}

// LanguageView is the serialisable form of a language collection. Programs
// is only filled by LanguageDetail.
type LanguageView struct {
	Key             string                `json:"key"`
	Name            string                `json:"name"`
	DocsURL         string                `json:"docs_url"`
	TestinfoURL     string                `json:"testinfo_url"`
	HasTestinfo     bool                  `json:"has_testinfo"`
	HasUntestable   bool                  `json:"has_untestable"`
	TotalPrograms   int                   `json:"total_programs"`
	TotalSize       int64                 `json:"total_size"`
	TotalLineCount  int                   `json:"total_line_count"`
	MissingPrograms []string              `json:"missing_programs"`
	Unresolved      []string              `json:"unresolved,omitempty"`
	Documentation   provenance.Provenance `json:"documentation"`
	Programs        []ProgramView         `json:"programs,omitempty"`
}

// Snapshot is the complete graph in serialisable form.
type Snapshot struct {
	Summary   Summary        `json:"summary"`
	Projects  []ProjectView  `json:"projects"`
	Languages []LanguageView `json:"languages"`
}

// Summarize returns the repo statistics.
func (r *Repo) Summarize() Summary {
	return Summary{
		Languages:        len(r.languages),
		Programs:         r.TotalPrograms(),
		Tested:           r.TotalTested(),
		Untestable:       r.TotalUntestable(),
		ApprovedProjects: r.TotalApprovedProjects(),
		Letters:          r.letters,
		Enriched:         r.enriched,
	}
}

// NewProjectView converts a project.
func NewProjectView(p *project.Project) ProjectView {
	tests, ok := p.Tests()
	return ProjectView{
		Key:             p.Key(),
		Name:            p.Name(),
		RequirementsURL: p.RequirementsURL(),
		Tested:          ok,
		Tests:           tests,
		Documentation:   p.Documentation(),
	}
}

// NewProgramView converts a program.
func NewProgramView(p *sample.Program) ProgramView {
	return ProgramView{
		FileName:         p.FileName(),
		Project:          p.ProjectKey(),
		ProjectName:      p.ProjectName(),
		Language:         p.LanguageKey(),
		LanguageName:     p.LanguageName(),
		Size:             p.Size(),
		LineCount:        p.LineCount(),
		DocumentationURL: p.DocumentationURL(),
		IssueQueryURL:    p.IssueQueryURL(),
		Code:             p.CodeProvenance(),
		Documentation:    p.Documentation(),
	}
}

// NewLanguageView converts a collection without its programs.
func NewLanguageView(c *sample.Collection) LanguageView {
	missing := make([]string, 0, c.MissingProgramsCount())
	for _, p := range c.MissingPrograms() {
		missing = append(missing, p.Key())
	}
	return LanguageView{
		Key:             c.Key(),
		Name:            c.Name(),
		DocsURL:         c.DocsURL(),
		TestinfoURL:     c.TestinfoURL(),
		HasTestinfo:     c.HasTestinfo(),
		HasUntestable:   c.HasUntestable(),
		TotalPrograms:   c.TotalPrograms(),
		TotalSize:       c.TotalSize(),
		TotalLineCount:  c.TotalLineCount(),
		MissingPrograms: missing,
		Unresolved:      c.Unresolved(),
		Documentation:   c.Documentation(),
	}
}

// LanguageDetail converts a collection including every program.
func LanguageDetail(c *sample.Collection) LanguageView {
	v := NewLanguageView(c)
	v.Programs = make([]ProgramView, 0, c.TotalPrograms())
	for _, p := range c.Programs() {
		v.Programs = append(v.Programs, NewProgramView(p))
	}
	return v
}

// Snapshot converts the whole graph.
func (r *Repo) Snapshot() Snapshot {
	s := Snapshot{
		Summary:   r.Summarize(),
		Projects:  make([]ProjectView, 0, r.registry.Len()),
		Languages: make([]LanguageView, 0, len(r.languages)),
	}
	for _, p := range r.registry.All() {
		s.Projects = append(s.Projects, NewProjectView(p))
	}
	for _, c := range r.languages {
		s.Languages = append(s.Languages, LanguageDetail(c))
	}
	return s
}
