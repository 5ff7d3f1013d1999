package source

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/metrics"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/snapshot"
)

// CachedSource serves records from a snapshot store while the snapshot is
// fresh and falls through to the wrapped source otherwise.
type CachedSource struct {
	inner  Source
	store  snapshot.Store
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func NewCachedSource(inner Source, store snapshot.Store, ttl time.Duration, l *logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: l,
		now:    time.Now,
	}
}

func (c *CachedSource) Name() string {
	return c.inner.Name()
}

// Load returns the cached snapshot when fresh, otherwise reloads
func (c *CachedSource) Load(ctx context.Context) ([]record.Player, error) {
	snap, err := snapshot.LoadFresh(ctx, c.store, c.ttl, c.now())
	switch {
	case err == nil && len(snap.Records) > 0:
		metrics.SnapshotCacheHitsTotal.Inc()
		c.logger.Debug("serving records from snapshot",
			zap.Time("saved_at", snap.SavedAt),
			zap.Int("count", len(snap.Records)),
		)
		return snap.Records, nil
	case err != nil && !errors.Is(err, snapshot.ErrStale):
		c.logger.Warn("snapshot load failed", zap.Error(err))
	}

	metrics.SnapshotCacheMissesTotal.Inc()
	return c.Refresh(ctx)
}

// Refresh bypasses the snapshot, loads from the wrapped source and stores
// the result. A failed save is logged and does not fail the load.
func (c *CachedSource) Refresh(ctx context.Context) ([]record.Player, error) {
	players, err := c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	snap := snapshot.Snapshot{SavedAt: c.now(), Source: c.inner.Name(), Records: players}
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Warn("snapshot save failed", zap.Error(err))
	}
	return players, nil
}
