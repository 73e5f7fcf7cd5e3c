package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	subetehttp "github.com/Strob0t/subete/internal/adapter/http"
	subetemcp "github.com/Strob0t/subete/internal/adapter/mcp"
	"github.com/Strob0t/subete/internal/adapter/postgres"
	"github.com/Strob0t/subete/internal/port/snapshot"
)

const historyLimit = 20

// runBuild prints the summary, or the whole graph with "build graph".
func runBuild(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.ingest(ctx)
	if err != nil {
		return err
	}
	if len(a.args) > 0 && a.args[0] == "graph" {
		return printJSON(res.Repo.Snapshot())
	}
	return printJSON(res.Repo.Summarize())
}

func runServe(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.ingest(ctx)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	handlers := subetehttp.NewHandlers(res.Repo, version, rng)
	addr := ":" + a.cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           subetehttp.NewRouter(handlers, a.cfg.Server, a.cfg.OTEL.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "run_id", res.RunID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.ingest(ctx)
	if err != nil {
		return err
	}
	srv := subetemcp.NewServer(subetemcp.ServerConfig{
		Name:    a.cfg.MCP.Name,
		Version: a.cfg.MCP.Version,
	}, res.Repo, nil)

	slog.Info("mcp server listening on stdio", "run_id", res.RunID)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// snapshotStore connects to PostgreSQL and applies pending migrations.
func (a *app) snapshotStore(ctx context.Context) (*postgres.SnapshotStore, error) {
	if a.cfg.Postgres.DSN == "" {
		return nil, errors.New("postgres dsn is required (--dsn or DATABASE_URL)")
	}
	if err := postgres.RunMigrations(ctx, a.cfg.Postgres.DSN); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.onClose(func(context.Context) { pool.Close() })
	return postgres.NewSnapshotStore(pool), nil
}

func runExport(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	store, err := a.snapshotStore(ctx)
	if err != nil {
		return err
	}
	res, err := a.ingest(ctx)
	if err != nil {
		return err
	}
	id, err := store.Save(ctx, res.Record())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Info("snapshot stored", "id", id, "run_id", res.RunID)
	fmt.Println(id)
	return nil
}

// runHistory lists stored snapshots, or with a language key, that
// language's program counts across snapshots.
func runHistory(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	store, err := a.snapshotStore(ctx)
	if err != nil {
		return err
	}
	if len(a.args) > 0 {
		points, err := store.LanguageHistory(ctx, a.args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("language history: %w", err)
		}
		return printLanguageHistory(points)
	}
	metas, err := store.List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	return printSnapshots(metas)
}

func printSnapshots(metas []snapshot.Meta) error {
	if len(metas) == 0 {
		fmt.Println("No snapshots found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tLANGUAGES\tPROGRAMS\tPROJECTS\tARCHIVE")
	for i := range metas {
		m := &metas[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			m.ID, m.CreatedAt.Format(time.RFC3339), m.Summary.Languages, m.Summary.Programs,
			m.Summary.ApprovedProjects, shortRevision(m.ArchiveRevision))
	}
	return w.Flush()
}

func printLanguageHistory(points []snapshot.LanguagePoint) error {
	if len(points) == 0 {
		fmt.Println("No history found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SNAPSHOT\tCREATED\tPROGRAMS\tMISSING")
	for _, p := range points {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
			p.SnapshotID, p.CreatedAt.Format(time.RFC3339), p.TotalPrograms, p.Missing)
	}
	return w.Flush()
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// runMigrate handles "migrate up", "migrate down [steps]" and
// "migrate status".
func runMigrate(ctx context.Context, args []string) error {
	a, err := newApp(ctx, args)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	dsn := a.cfg.Postgres.DSN
	if dsn == "" {
		return errors.New("postgres dsn is required (--dsn or DATABASE_URL)")
	}

	action := "up"
	if len(a.args) > 0 {
		action = a.args[0]
	}
	switch action {
	case "up":
		if err := postgres.RunMigrations(ctx, dsn); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(a.args) > 1 {
			if steps, err = strconv.Atoi(a.args[1]); err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", a.args[1])
			}
		}
		if err := postgres.RollbackMigrations(ctx, dsn, steps); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		return err
	}
	fmt.Printf("schema version: %d\n", v)
	return nil
}

// printJSON writes v to stdout, indented when stdout is a terminal.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
