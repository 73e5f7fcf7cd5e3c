package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/subete/internal/adapter/postgres"
	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/domain/repo"
	"github.com/Strob0t/subete/internal/port/snapshot"
)

var _ snapshot.Store = (*postgres.SnapshotStore)(nil)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use SnapshotStore. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.SnapshotStore {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewSnapshotStore(pool)
}

// testGraph returns a small graph with a uniquely named language so
// LanguageHistory only sees rows written by this test.
func testGraph(langKey string, programs int) repo.Snapshot {
	jan := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	progs := make([]repo.ProgramView, 0, programs)
	for i := range programs {
		key := []string{"hello-world", "fizz-buzz"}[i%2]
		progs = append(progs, repo.ProgramView{
			FileName:  key + ".py",
			Project:   key,
			Language:  langKey,
			Size:      42,
			LineCount: 3,
			Code:      provenance.Provenance{Authors: []string{"Jeremy"}, Created: jan, Modified: jan, Files: []string{key + ".py"}},
		})
	}
	return repo.Snapshot{
		Summary: repo.Summary{Languages: 1, Programs: programs, ApprovedProjects: 2, Letters: []string{"p"}},
		Projects: []repo.ProjectView{
			{Key: "hello-world", Name: "Hello World", Tested: true},
			{Key: "fizz-buzz", Name: "Fizz Buzz"},
		},
		Languages: []repo.LanguageView{{
			Key:             langKey,
			Name:            "Python",
			TotalPrograms:   programs,
			TotalSize:       int64(42 * programs),
			MissingPrograms: []string{"mst"},
			Programs:        progs,
		}},
	}
}

func TestSnapshotStore_SaveAndLatest(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	lang := "lang-" + uuid.NewString()[:8]

	rec := snapshot.Record{
		RunID:           uuid.NewString(),
		ArchiveRevision: "abc123",
		CreatedAt:       time.Now().UTC().Add(time.Hour),
		Graph:           testGraph(lang, 2),
	}
	id, err := store.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != id || got.RunID != rec.RunID || got.ArchiveRevision != "abc123" {
		t.Errorf("Latest = %+v, want id %s", got, id)
	}
	if got.Graph.Summary.Programs != 2 || len(got.Graph.Languages) != 1 || len(got.Graph.Languages[0].Programs) != 2 {
		t.Errorf("graph not round-tripped: %+v", got.Graph.Summary)
	}

	byID, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if byID.RunID != rec.RunID {
		t.Errorf("Get RunID = %q, want %q", byID.RunID, rec.RunID)
	}
}

func TestSnapshotStore_ListAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	lang := "lang-" + uuid.NewString()[:8]
	base := time.Now().UTC()

	for i, n := range []int{1, 2} {
		_, err := store.Save(ctx, snapshot.Record{
			RunID:     uuid.NewString(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Graph:     testGraph(lang, n),
		})
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	metas, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(metas))
	}

	points, err := store.LanguageHistory(ctx, lang, 10)
	if err != nil {
		t.Fatalf("LanguageHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("LanguageHistory returned %d points, want 2", len(points))
	}
	if points[0].TotalPrograms != 2 || points[1].TotalPrograms != 1 {
		t.Errorf("history = %+v, want newest first", points)
	}
	if points[0].Missing != 1 {
		t.Errorf("missing = %d, want 1", points[0].Missing)
	}
}

func TestSnapshotStore_GetNotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := store.Get(ctx, id)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestMigrationVersion(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v < 1 {
		t.Errorf("version = %d, want >= 1", v)
	}
}
