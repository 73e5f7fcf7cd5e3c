// Package sample models language collections and the sample program files
// they contain.
package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/naming"
	"github.com/Strob0t/subete/internal/domain/project"
	"github.com/Strob0t/subete/internal/domain/provenance"
)

// Program is a single source file implementing one project in one language.
type Program struct {
	dir      string
	fileName string
	language *Collection
	project  *project.Project

	docURL   string
	issueURL string

	size      int64
	lineCount int

	code     provenance.Provenance
	docs     provenance.Provenance
	attached bool
}

// NewProgram resolves fileName to an approved project and reads the file once
// to record its size and line count. Files whose normalized stem matches no
// project fail with domain.ErrUnresolvedProject.
func NewProgram(dir, fileName string, lang *Collection, registry *project.Registry, urls domain.URLs) (*Program, error) {
	stem := naming.Normalize(naming.Stem(fileName))
	proj, ok := registry.Lookup(stem)
	if !ok {
		return nil, fmt.Errorf("%s (%s): %w", fileName, stem, domain.ErrUnresolvedProject)
	}

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", fileName, err)
	}

	p := &Program{
		dir:       dir,
		fileName:  fileName,
		language:  lang,
		project:   proj,
		size:      int64(len(raw)),
		lineCount: CountLines(decode(raw)),
	}
	p.docURL = proj.RequirementsURL() + "/" + filepath.Base(dir)

	langName := ""
	if lang != nil {
		langName = lang.Name()
	}
	p.issueURL = urls.IssueQueryBase +
		strings.ReplaceAll(proj.Key(), "-", "+") + "+" +
		strings.ToLower(strings.ReplaceAll(langName, " ", "+"))
	return p, nil
}

// Dir returns the directory containing the file.
func (p *Program) Dir() string { return p.dir }

// FileName returns the file name including all extensions.
func (p *Program) FileName() string { return p.fileName }

// Path returns the full path of the source file.
func (p *Program) Path() string { return filepath.Join(p.dir, p.fileName) }

// Language returns the collection this program belongs to.
func (p *Program) Language() *Collection { return p.language }

// LanguageName is shorthand for Language().Name().
func (p *Program) LanguageName() string {
	if p.language == nil {
		return ""
	}
	return p.language.Name()
}

// LanguageKey is shorthand for Language().Key().
func (p *Program) LanguageKey() string {
	if p.language == nil {
		return ""
	}
	return p.language.Key()
}

// Project returns the approved project this program implements. Never nil.
func (p *Program) Project() *project.Project { return p.project }

// ProjectName is shorthand for Project().Name().
func (p *Program) ProjectName() string { return p.project.Name() }

// ProjectKey is shorthand for Project().Key().
func (p *Program) ProjectKey() string { return p.project.Key() }

// DocumentationURL returns the program's article on the docs site.
func (p *Program) DocumentationURL() string { return p.docURL }

// IssueQueryURL returns a GitHub search for open article issues about this
// program. The query is not escaped.
func (p *Program) IssueQueryURL() string { return p.issueURL }

// Size returns the file size in bytes, as read at construction.
func (p *Program) Size() int64 { return p.size }

// LineCount returns the number of lines, as read at construction.
func (p *Program) LineCount() int { return p.lineCount }

// Code reads the source file. Invalid UTF-8 is replaced with U+FFFD.
func (p *Program) Code() (string, error) {
	raw, err := os.ReadFile(p.Path())
	if err != nil {
		return "", fmt.Errorf("read program %s: %w", p.fileName, err)
	}
	return decode(raw), nil
}

// String renders "{project} in {language}", e.g. "Hello World in Python".
func (p *Program) String() string {
	return p.ProjectName() + " in " + p.LanguageName()
}

// Equal reports whether both programs refer to the same file of the same
// language collection.
func (p *Program) Equal(o *Program) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.fileName != o.fileName || p.dir != o.dir {
		return false
	}
	if p.language == nil || o.language == nil {
		return p.language == o.language
	}
	return p.language.key == o.language.key && p.language.path == o.language.path
}

// CodeProvenance returns authorship of the source file itself.
func (p *Program) CodeProvenance() provenance.Provenance { return p.code }

// Documentation returns authorship of the program's article files.
func (p *Program) Documentation() provenance.Provenance { return p.docs }

// AttachProvenance records code and documentation provenance once.
func (p *Program) AttachProvenance(code, docs provenance.Provenance) error {
	if p.attached {
		return fmt.Errorf("program %s: %w", p.fileName, domain.ErrAlreadyEnriched)
	}
	p.code = code
	p.docs = docs
	p.attached = true
	return nil
}

func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// CountLines counts lines using the Unicode line boundaries (\n, \r, \r\n,
// \v, \f, file/group/record separators, NEL, LS and PS). A trailing break
// does not start a new line.
func CountLines(s string) int {
	lines := 0
	pending := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '\r':
			if i < len(s) && s[i] == '\n' {
				i++
			}
			lines++
			pending = false
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines++
			pending = false
		default:
			pending = true
		}
	}
	if pending {
		lines++
	}
	return lines
}
