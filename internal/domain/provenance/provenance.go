// Package provenance aggregates version-control blame data into authorship
// and timestamp metadata for documented entities.
package provenance

import (
	"sort"
	"time"
)

// Blame is the authorship information for a single file at the current
// revision: every distinct author plus the commit timestamp of each line.
type Blame struct {
	Authors    []string    `json:"authors"`
	Timestamps []time.Time `json:"timestamps"`
}

// Provenance describes who wrote an entity's files and when.
// The zero value means "undocumented".
type Provenance struct {
	Authors  []string  `json:"authors,omitempty"`
	Created  time.Time `json:"created,omitzero"`
	Modified time.Time `json:"modified,omitzero"`
	Files    []string  `json:"files,omitempty"`
}

// Documented reports whether at least one file contributed to p.
func (p Provenance) Documented() bool {
	return len(p.Files) > 0
}

// HasTimestamps reports whether p carries created/modified times.
func (p Provenance) HasTimestamps() bool {
	return !p.Created.IsZero()
}

// Aggregate folds the blame of every file into one Provenance: authors are
// unioned and sorted, Created is the earliest timestamp and Modified the
// latest. files lists the paths that were blamed, in the same order as blames.
func Aggregate(files []string, blames []Blame) Provenance {
	if len(files) == 0 {
		return Provenance{}
	}

	authors := make(map[string]struct{})
	var created, modified time.Time
	for _, b := range blames {
		for _, a := range b.Authors {
			if a != "" {
				authors[a] = struct{}{}
			}
		}
		for _, ts := range b.Timestamps {
			if ts.IsZero() {
				continue
			}
			if created.IsZero() || ts.Before(created) {
				created = ts
			}
			if modified.IsZero() || ts.After(modified) {
				modified = ts
			}
		}
	}

	p := Provenance{
		Created:  created,
		Modified: modified,
		Files:    append([]string(nil), files...),
	}
	if len(authors) > 0 {
		p.Authors = make([]string, 0, len(authors))
		for a := range authors {
			p.Authors = append(p.Authors, a)
		}
		sort.Strings(p.Authors)
	}
	return p
}
