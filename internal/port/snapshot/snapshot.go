// Package snapshot defines the port for persisting ingested repo graphs.
package snapshot

import (
	"context"
	"time"

	"github.com/Strob0t/subete/internal/domain/repo"
)

// Record is one stored ingestion result.
type Record struct {
	ID              string        `json:"id"`
	RunID           string        `json:"run_id"`
	ArchiveRevision string        `json:"archive_revision,omitempty"`
	DocsRevision    string        `json:"docs_revision,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	Graph           repo.Snapshot `json:"graph"`
}

// Meta is a Record without its graph.
type Meta struct {
	ID              string       `json:"id"`
	RunID           string       `json:"run_id"`
	ArchiveRevision string       `json:"archive_revision,omitempty"`
	DocsRevision    string       `json:"docs_revision,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	Summary         repo.Summary `json:"summary"`
}

// LanguagePoint is the size of one language in one stored snapshot.
type LanguagePoint struct {
	SnapshotID    string    `json:"snapshot_id"`
	CreatedAt     time.Time `json:"created_at"`
	TotalPrograms int       `json:"total_programs"`
	Missing       int       `json:"missing"`
}

// Store persists snapshots. Latest and Get return domain.ErrNotFound when
// nothing matches.
type Store interface {
	Save(ctx context.Context, rec Record) (string, error)
	Latest(ctx context.Context) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, limit int) ([]Meta, error)
	LanguageHistory(ctx context.Context, languageKey string, limit int) ([]LanguagePoint, error)
}
