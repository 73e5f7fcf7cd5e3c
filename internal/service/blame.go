package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/subete/internal/adapter/otel"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/port/cache"
	"github.com/Strob0t/subete/internal/port/vcs"
)

// cachedBlamer serves blame results from cache when the repository has a
// revision. Untracked trees bypass the cache since their content has no
// stable identity.
type cachedBlamer struct {
	repo     vcs.Repository
	revision string
	cache    cache.Cache
	ttl      time.Duration
	metrics  *otel.Metrics
}

func (b *cachedBlamer) Blame(ctx context.Context, relPath string) (provenance.Blame, error) {
	if b.cache == nil || b.revision == "" {
		return b.blame(ctx, relPath)
	}

	key := cache.BlameKey(b.revision, relPath)
	if data, ok, err := b.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "blame cache get failed", "path", relPath, "error", err)
	} else if ok {
		var cached provenance.Blame
		if err := json.Unmarshal(data, &cached); err == nil {
			b.metrics.RecordBlame(ctx, true)
			return cached, nil
		}
		slog.WarnContext(ctx, "discarding corrupt blame cache entry", "path", relPath)
	}

	res, err := b.blame(ctx, relPath)
	if err != nil {
		return provenance.Blame{}, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := b.cache.Set(ctx, key, data, b.ttl); err != nil {
			slog.WarnContext(ctx, "blame cache set failed", "path", relPath, "error", err)
		}
	}
	return res, nil
}

func (b *cachedBlamer) blame(ctx context.Context, relPath string) (res provenance.Blame, err error) {
	ctx, span := otel.StartBlameSpan(ctx, b.repo.Root(), relPath)
	defer func() { otel.EndSpan(span, err) }()

	b.metrics.RecordBlame(ctx, false)
	return b.repo.Blame(ctx, relPath)
}
