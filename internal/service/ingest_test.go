package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/subete/internal/adapter/fswalk"
	"github.com/Strob0t/subete/internal/adapter/yamlmeta"
	"github.com/Strob0t/subete/internal/config"
	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/port/events"
	"github.com/Strob0t/subete/internal/port/vcs"
)

// fakeRepo serves canned blame results keyed by slash-separated path.
type fakeRepo struct {
	root     string
	revision string
	blames   map[string]provenance.Blame
	blameErr error

	mu     sync.Mutex
	calls  map[string]int
	closed bool
}

func (f *fakeRepo) Root() string { return f.root }

func (f *fakeRepo) Revision(context.Context) (string, error) { return f.revision, nil }

func (f *fakeRepo) Blame(_ context.Context, relPath string) (provenance.Blame, error) {
	key := filepath.ToSlash(relPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[key]++
	if f.blameErr != nil {
		return provenance.Blame{}, f.blameErr
	}
	return f.blames[key], nil
}

func (f *fakeRepo) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRepo) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeRepo) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type fakeOpener struct {
	repos map[string]*fakeRepo
}

func (o *fakeOpener) Name() string { return "fake" }

func (o *fakeOpener) Open(_ context.Context, location string) (vcs.Repository, error) {
	r, ok := o.repos[location]
	if !ok {
		return nil, fmt.Errorf("fake: %s: %w", location, domain.ErrSourceUnavailable)
	}
	return r, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Ingested
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Ingested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

var (
	t2019 = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	t2020 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2021 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
)

// sources lays out an archive repository with python/rust programs and a
// docs repository documenting some of them.
func sources(t *testing.T) (*fakeRepo, *fakeRepo) {
	t.Helper()
	root := t.TempDir()
	archiveRoot := filepath.Join(root, "sample-programs")
	docsRoot := filepath.Join(root, "website")

	write(t, filepath.Join(archiveRoot, "archive", "p", "python", "hello_world.py"), "print('Hello, World!')\n")
	write(t, filepath.Join(archiveRoot, "archive", "p", "python", "fizz_buzz.py"), "a\nb\n")
	write(t, filepath.Join(archiveRoot, "archive", "r", "rust", "hello-world.rs"), "fn main() {}\n")
	write(t, filepath.Join(archiveRoot, "archive", "p", "python", "testinfo.yml"), "folder:\n  naming: underscore\n")
	write(t, filepath.Join(archiveRoot, ".glotter.yml"), "projects:\n  helloworld:\n")

	docs := filepath.Join(docsRoot, "sources")
	write(t, filepath.Join(docs, "projects", "hello-world", "description.md"), "Hello")
	write(t, filepath.Join(docs, "projects", "hello-world", "requirements.md"), "Print it")
	write(t, filepath.Join(docs, "projects", "fizz-buzz", "description.md"), "Fizz")
	if err := os.MkdirAll(filepath.Join(docs, "projects", "mst"), 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(docs, "languages", "python", "description.md"), "Python")
	write(t, filepath.Join(docs, "programs", "hello-world", "python", "how-to-run-the-solution.md"), "python hello_world.py")

	archive := &fakeRepo{
		root:     archiveRoot,
		revision: "a1",
		blames: map[string]provenance.Blame{
			"archive/p/python/hello_world.py": {Authors: []string{"Jeremy"}, Timestamps: []time.Time{t2019}},
			"archive/p/python/fizz_buzz.py":   {Authors: []string{"Ana", "Jeremy"}, Timestamps: []time.Time{t2020, t2021}},
		},
	}
	website := &fakeRepo{
		root:     docsRoot,
		revision: "d1",
		blames: map[string]provenance.Blame{
			"sources/projects/hello-world/description.md":                    {Authors: []string{"Jeremy"}, Timestamps: []time.Time{t2019}},
			"sources/projects/hello-world/requirements.md":                   {Authors: []string{"Zed"}, Timestamps: []time.Time{t2021}},
			"sources/projects/fizz-buzz/description.md":                      {Authors: []string{"Ana"}, Timestamps: []time.Time{t2020}},
			"sources/languages/python/description.md":                        {Authors: []string{"Ana"}, Timestamps: []time.Time{t2020}},
			"sources/programs/hello-world/python/how-to-run-the-solution.md": {Authors: []string{"Jeremy"}, Timestamps: []time.Time{t2021}},
		},
	}
	return archive, website
}

func testSources() config.Sources {
	return config.Sources{
		Archive:       "archive-loc",
		ArchiveSubdir: "archive",
		TestConfig:    ".glotter.yml",
		Docs:          "docs-loc",
		DocsSubdir:    "sources",
	}
}

func newIngest(archive, docs *fakeRepo, enricher *EnrichService, pub events.Publisher) *IngestService {
	repos := map[string]*fakeRepo{}
	if archive != nil {
		repos["archive-loc"] = archive
	}
	if docs != nil {
		repos["docs-loc"] = docs
	}
	return NewIngestService(testSources(), domain.DefaultURLs(), IngestDeps{
		Opener:    &fakeOpener{repos: repos},
		Walker:    fswalk.New(),
		Loader:    yamlmeta.New(),
		Enricher:  enricher,
		Publisher: pub,
	})
}

func TestIngest_EnrichesGraph(t *testing.T) {
	archive, docs := sources(t)
	pub := &recordingPublisher{}
	svc := newIngest(archive, docs, NewEnrichService(4, &memCache{}, time.Hour, nil), pub)

	res, err := svc.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	r := res.Repo
	if !r.Enriched() {
		t.Fatal("expected enriched repo")
	}
	if res.ArchiveRevision != "a1" || res.DocsRevision != "d1" || res.RunID == "" {
		t.Errorf("result = %+v", res)
	}

	hw, _ := r.Project("hello-world")
	doc := hw.Documentation()
	if len(doc.Files) != 2 || len(doc.Authors) != 2 || doc.Authors[0] != "Jeremy" || doc.Authors[1] != "Zed" {
		t.Errorf("hello-world docs = %+v", doc)
	}
	if !doc.Created.Equal(t2019) || !doc.Modified.Equal(t2021) {
		t.Errorf("hello-world created/modified = %v/%v", doc.Created, doc.Modified)
	}

	mst, _ := r.Project("mst")
	if mst.Documentation().Documented() {
		t.Error("mst has no documentation files and should be undocumented")
	}

	python, ok := r.LanguageByKey("python")
	if !ok {
		t.Fatal("python missing")
	}
	if got := python.Documentation().Authors; len(got) != 1 || got[0] != "Ana" {
		t.Errorf("python docs authors = %v", got)
	}
	rust, _ := r.LanguageByKey("rust")
	if rust.Documentation().Documented() {
		t.Error("rust should be undocumented")
	}

	hwPy, ok := python.Program("Hello World")
	if !ok {
		t.Fatal("python hello world missing")
	}
	if code := hwPy.CodeProvenance(); len(code.Authors) != 1 || !code.Created.Equal(t2019) {
		t.Errorf("hello world code provenance = %+v", code)
	}
	if d := hwPy.Documentation(); !d.Documented() || !d.Modified.Equal(t2021) {
		t.Errorf("hello world program docs = %+v", d)
	}
	fb, _ := python.Program("Fizz Buzz")
	if fb.Documentation().Documented() {
		t.Error("fizz buzz program has no docs")
	}
	if code := fb.CodeProvenance(); len(code.Authors) != 2 || !code.Modified.Equal(t2021) {
		t.Errorf("fizz buzz code provenance = %+v", code)
	}
	rustHW, _ := rust.Program("Hello World")
	if code := rustHW.CodeProvenance(); !code.Documented() || code.HasTimestamps() {
		t.Errorf("rust code provenance = %+v, want file without blame data", code)
	}

	if !archive.isClosed() || !docs.isClosed() {
		t.Error("both sources must be released after ingestion")
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.RunID != res.RunID || ev.Programs != 3 || ev.Languages != 2 || ev.Tested != 1 || !ev.Enriched {
		t.Errorf("event = %+v", ev)
	}

	rec := res.Record()
	if rec.RunID != res.RunID || rec.Graph.Summary.Programs != 3 {
		t.Errorf("record = %+v", rec.Graph.Summary)
	}
}

func TestIngest_WithoutEnrichment(t *testing.T) {
	archive, docs := sources(t)
	res, err := newIngest(archive, docs, nil, nil).Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Repo.Enriched() {
		t.Error("repo should not be enriched")
	}
	if n := docs.callCount("sources/projects/hello-world/description.md"); n != 0 {
		t.Errorf("blame called %d times without enrichment", n)
	}
}

func TestIngest_SourceUnavailable(t *testing.T) {
	archive, _ := sources(t)
	_, err := newIngest(archive, nil, nil, nil).Ingest(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if !archive.isClosed() {
		t.Error("archive should be released when docs cannot be opened")
	}
}

func TestIngest_MissingDocsTree(t *testing.T) {
	archive, docs := sources(t)
	if err := os.RemoveAll(filepath.Join(docs.root, "sources", "projects")); err != nil {
		t.Fatal(err)
	}
	_, err := newIngest(archive, docs, nil, nil).Ingest(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if !archive.isClosed() || !docs.isClosed() {
		t.Error("sources must be released on failure")
	}
}

func TestIngest_BlameFailureAborts(t *testing.T) {
	archive, docs := sources(t)
	docs.blameErr = errors.New("git blame: exit status 128")
	pub := &recordingPublisher{}

	_, err := newIngest(archive, docs, NewEnrichService(2, nil, 0, nil), pub).Ingest(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !archive.isClosed() || !docs.isClosed() {
		t.Error("sources must be released on failure")
	}
	if len(pub.events) != 0 {
		t.Error("no event should be published for a failed run")
	}
}

func TestIngest_PublishFailureIsNotFatal(t *testing.T) {
	archive, docs := sources(t)
	pub := &recordingPublisher{err: errors.New("nats: timeout")}

	if _, err := newIngest(archive, docs, nil, pub).Ingest(context.Background()); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
}

func TestCachedBlamer(t *testing.T) {
	ctx := context.Background()
	path := "sources/languages/python/description.md"

	tests := []struct {
		name      string
		revision  string
		wantCalls int
	}{
		{"tracked revision is cached", "d1", 1},
		{"untracked tree bypasses cache", "", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, docs := sources(t)
			b := &cachedBlamer{repo: docs, revision: tt.revision, cache: &memCache{}, ttl: time.Hour}

			for range 2 {
				got, err := b.Blame(ctx, path)
				if err != nil {
					t.Fatal(err)
				}
				if len(got.Authors) != 1 || got.Authors[0] != "Ana" || !got.Timestamps[0].Equal(t2020) {
					t.Fatalf("Blame = %+v", got)
				}
			}
			if n := docs.callCount(path); n != tt.wantCalls {
				t.Errorf("repository blamed %d times, want %d", n, tt.wantCalls)
			}
		})
	}
}
