package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/subete/internal/domain/repo"
	"github.com/Strob0t/subete/internal/port/snapshot"
)

// SnapshotStore implements snapshot.Store using PostgreSQL. The full graph is
// kept as JSONB; projects, languages and programs are also flattened into
// tables for reporting queries.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a store backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

var (
	projectColumns  = []string{"snapshot_id", "key", "name", "tested", "authors", "created", "modified"}
	languageColumns = []string{"snapshot_id", "key", "name", "total_programs", "total_size", "total_line_count", "missing", "has_testinfo", "has_untestable"}
	programColumns  = []string{"snapshot_id", "language", "project", "file_name", "size", "line_count", "authors", "created", "modified"}
)

// Save stores rec in one transaction and returns its ID. An empty rec.ID is
// replaced by a new UUID.
func (s *SnapshotStore) Save(ctx context.Context, rec snapshot.Record) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	summary, err := json.Marshal(rec.Graph.Summary)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	graph, err := json.Marshal(rec.Graph)
	if err != nil {
		return "", fmt.Errorf("encode graph: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO snapshots (id, run_id, archive_revision, docs_revision, summary, graph, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, rec.RunID, rec.ArchiveRevision, rec.DocsRevision, summary, graph, created)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	projects := rec.Graph.Projects
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"snapshot_projects"}, projectColumns,
		pgx.CopyFromSlice(len(projects), func(i int) ([]any, error) {
			p := projects[i]
			return []any{id, p.Key, p.Name, p.Tested, pgTextArray(p.Documentation.Authors),
				nullTime(p.Documentation.Created), nullTime(p.Documentation.Modified)}, nil
		})); err != nil {
		return "", fmt.Errorf("copy projects: %w", err)
	}

	langs := rec.Graph.Languages
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"snapshot_languages"}, languageColumns,
		pgx.CopyFromSlice(len(langs), func(i int) ([]any, error) {
			l := langs[i]
			return []any{id, l.Key, l.Name, l.TotalPrograms, l.TotalSize, l.TotalLineCount,
				len(l.MissingPrograms), l.HasTestinfo, l.HasUntestable}, nil
		})); err != nil {
		return "", fmt.Errorf("copy languages: %w", err)
	}

	var programs []repo.ProgramView
	for _, l := range langs {
		programs = append(programs, l.Programs...)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"snapshot_programs"}, programColumns,
		pgx.CopyFromSlice(len(programs), func(i int) ([]any, error) {
			p := programs[i]
			return []any{id, p.Language, p.Project, p.FileName, p.Size, p.LineCount,
				pgTextArray(p.Code.Authors), nullTime(p.Code.Created), nullTime(p.Code.Modified)}, nil
		})); err != nil {
		return "", fmt.Errorf("copy programs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

const recordColumns = `id, run_id, archive_revision, docs_revision, created_at, graph`

// Latest returns the most recently created snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (snapshot.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM snapshots ORDER BY created_at DESC LIMIT 1`)
	rec, err := scanRecord(row)
	if err != nil {
		return snapshot.Record{}, notFoundWrap(err, "latest snapshot")
	}
	return rec, nil
}

// Get returns the snapshot with the given ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (snapshot.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return snapshot.Record{}, notFoundWrap(pgx.ErrNoRows, "get snapshot %s", id)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM snapshots WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return snapshot.Record{}, notFoundWrap(err, "get snapshot %s", id)
	}
	return rec, nil
}

// List returns up to limit snapshots, newest first, without their graphs.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]snapshot.Meta, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, archive_revision, docs_revision, created_at, summary
		 FROM snapshots ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	metas := []snapshot.Meta{}
	for rows.Next() {
		var (
			m       snapshot.Meta
			summary []byte
		)
		if err := rows.Scan(&m.ID, &m.RunID, &m.ArchiveRevision, &m.DocsRevision, &m.CreatedAt, &summary); err != nil {
			return nil, fmt.Errorf("scan snapshot meta: %w", err)
		}
		if err := json.Unmarshal(summary, &m.Summary); err != nil {
			return nil, fmt.Errorf("decode summary %s: %w", m.ID, err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// LanguageHistory returns how a language's program count changed across the
// last limit snapshots, newest first.
func (s *SnapshotStore) LanguageHistory(ctx context.Context, languageKey string, limit int) ([]snapshot.LanguagePoint, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT l.snapshot_id, s.created_at, l.total_programs, l.missing
		 FROM snapshot_languages l JOIN snapshots s ON s.id = l.snapshot_id
		 WHERE l.key = $1 ORDER BY s.created_at DESC LIMIT $2`, languageKey, limit)
	if err != nil {
		return nil, fmt.Errorf("language history %s: %w", languageKey, err)
	}
	defer rows.Close()

	points := []snapshot.LanguagePoint{}
	for rows.Next() {
		var p snapshot.LanguagePoint
		if err := rows.Scan(&p.SnapshotID, &p.CreatedAt, &p.TotalPrograms, &p.Missing); err != nil {
			return nil, fmt.Errorf("scan language point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func scanRecord(row scannable) (snapshot.Record, error) {
	var (
		rec   snapshot.Record
		graph []byte
	)
	if err := row.Scan(&rec.ID, &rec.RunID, &rec.ArchiveRevision, &rec.DocsRevision, &rec.CreatedAt, &graph); err != nil {
		return snapshot.Record{}, err
	}
	if err := json.Unmarshal(graph, &rec.Graph); err != nil {
		return snapshot.Record{}, fmt.Errorf("decode graph %s: %w", rec.ID, err)
	}
	return rec, nil
}
