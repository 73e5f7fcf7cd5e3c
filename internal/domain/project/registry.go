package project

import (
	"sort"
	"strings"
)

// Registry is the approved set of projects, keyed by pathlike identifier.
// It is built once and never modified.
type Registry struct {
	byKey  map[string]*Project
	sorted []*Project
}

// NewRegistry builds a registry. Projects with a duplicate key (for example
// the import and export projects) are dropped in favour of the first one.
func NewRegistry(projects ...*Project) *Registry {
	r := &Registry{byKey: make(map[string]*Project, len(projects))}
	for _, p := range projects {
		if p == nil {
			continue
		}
		if _, dup := r.byKey[p.key]; dup {
			continue
		}
		r.byKey[p.key] = p
		r.sorted = append(r.sorted, p)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].key < r.sorted[j].key })
	return r
}

// Get returns the project with exactly the given key.
func (r *Registry) Get(key string) (*Project, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// Lookup resolves a normalized file stem to a project. An exact key match
// wins; otherwise the shortest key containing the stem is returned (ties are
// broken lexically). Empty stems never match.
func (r *Registry) Lookup(stem string) (*Project, bool) {
	if stem == "" {
		return nil, false
	}
	stem = CanonicalKey(stem)
	if p, ok := r.byKey[stem]; ok {
		return p, true
	}

	var best *Project
	for _, p := range r.sorted {
		if !strings.Contains(p.key, stem) {
			continue
		}
		if best == nil || len(p.key) < len(best.key) {
			best = p
		}
	}
	return best, best != nil
}

// All returns every project ordered by key. The slice must not be modified.
func (r *Registry) All() []*Project { return r.sorted }

// Len returns the number of approved projects.
func (r *Registry) Len() int { return len(r.sorted) }
