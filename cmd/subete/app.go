package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Strob0t/subete/internal/adapter/fswalk"
	subetenats "github.com/Strob0t/subete/internal/adapter/nats"
	"github.com/Strob0t/subete/internal/adapter/natskv"
	"github.com/Strob0t/subete/internal/adapter/otel"
	"github.com/Strob0t/subete/internal/adapter/ristretto"
	"github.com/Strob0t/subete/internal/adapter/tiered"
	"github.com/Strob0t/subete/internal/adapter/yamlmeta"
	"github.com/Strob0t/subete/internal/config"
	"github.com/Strob0t/subete/internal/logger"
	"github.com/Strob0t/subete/internal/port/cache"
	"github.com/Strob0t/subete/internal/port/events"
	"github.com/Strob0t/subete/internal/port/vcs"
	"github.com/Strob0t/subete/internal/service"
)

// app holds the infrastructure shared by every command. Close releases it
// in reverse order of acquisition.
type app struct {
	cfg     *config.Config
	args    []string
	metrics *otel.Metrics
	closers []func(context.Context)
}

// newApp loads configuration and sets up logging and telemetry.
func newApp(ctx context.Context, args []string) (*app, error) {
	flags, rest, err := config.ParseFlagsArgs(args)
	if err != nil {
		return nil, err
	}
	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Debug("config loaded",
		"path", path,
		"archive", cfg.Sources.Archive,
		"docs", cfg.Sources.Docs,
		"enrich", cfg.Enrich.Enabled,
		"cache", cfg.Cache.Enabled,
	)

	a := &app{cfg: cfg, args: rest}

	shutdown, err := otel.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.onClose(func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	})

	if a.metrics, err = otel.NewMetrics(nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return a, nil
}

func (a *app) onClose(fn func(context.Context)) {
	a.closers = append(a.closers, fn)
}

// Close runs the registered cleanups, last first.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

// ingestService wires the opener, caches and event publisher into an
// IngestService. NATS is optional: without it events are dropped and the
// blame cache is process-local.
func (a *app) ingestService(ctx context.Context) (*service.IngestService, error) {
	cfg := a.cfg
	opener, err := vcs.New(cfg.Sources.Opener, map[string]string{
		"max_concurrent": strconv.Itoa(cfg.Git.MaxConcurrent),
		"timeout":        cfg.Git.CommandTimeout.String(),
		"clone_dir":      cfg.Sources.CloneDir,
	})
	if err != nil {
		return nil, fmt.Errorf("opener: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	var pub *subetenats.Publisher
	if cfg.NATS.URL != "" {
		pub, err = subetenats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.onClose(func(context.Context) { _ = pub.Close() })
		publisher = pub
		slog.Info("nats connected", "url", cfg.NATS.URL, "subject", pub.Subject())
	}

	var enricher *service.EnrichService
	if cfg.Enrich.Enabled {
		blameCache, err := a.blameCache(ctx, pub)
		if err != nil {
			return nil, err
		}
		enricher = service.NewEnrichService(cfg.Enrich.Workers, blameCache, cfg.Cache.L2TTL, a.metrics)
	}

	return service.NewIngestService(cfg.Sources, cfg.URLs, service.IngestDeps{
		Opener:    opener,
		Walker:    fswalk.New(),
		Loader:    yamlmeta.New(),
		Enricher:  enricher,
		Publisher: publisher,
		Metrics:   a.metrics,
	}), nil
}

// blameCache returns nil when caching is disabled. The NATS KV tier is added
// when a JetStream connection is available.
func (a *app) blameCache(ctx context.Context, pub *subetenats.Publisher) (cache.Cache, error) {
	cfg := a.cfg.Cache
	if !cfg.Enabled {
		return nil, nil
	}
	l1, err := ristretto.New(cfg.L1MaxSizeMB)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	a.onClose(func(context.Context) { l1.Close() })

	var l2 cache.Cache
	if pub != nil {
		kv, err := natskv.Open(ctx, pub.JetStream(), cfg.L2Bucket, cfg.L2TTL)
		if err != nil {
			slog.Warn("l2 cache unavailable, using l1 only", "bucket", cfg.L2Bucket, "error", err)
		} else {
			l2 = kv
		}
	}
	return tiered.New(l1, l2, cfg.L2TTL), nil
}

// ingest builds a fresh graph.
func (a *app) ingest(ctx context.Context) (*service.IngestResult, error) {
	svc, err := a.ingestService(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Ingest(ctx)
}
