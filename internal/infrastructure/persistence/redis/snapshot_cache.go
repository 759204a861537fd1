package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
)

// snapshotKey is the single cache key; there is one snapshot per monitor.
const snapshotKey = "attendance:snapshot"

// SnapshotStore is the store the cache decorates. Implemented by the
// postgres SnapshotRepository.
type SnapshotStore interface {
	Load(ctx context.Context) (attendance.Snapshot, error)
	Save(ctx context.Context, snapshot attendance.Snapshot) error
}

// CachedSnapshotStore is a read-through cache in front of a SnapshotStore.
// Loads are served from Redis when possible; saves always hit the inner
// store first, then refresh the cache. Redis being down only costs speed.
type CachedSnapshotStore struct {
	inner  SnapshotStore
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSnapshotStore wraps the inner store with a Redis cache.
func NewCachedSnapshotStore(inner SnapshotStore, cache *Cache, ttl time.Duration, logger *slog.Logger) *CachedSnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSnapshotStore{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached snapshot when present, otherwise reads the inner
// store and backfills the cache.
func (s *CachedSnapshotStore) Load(ctx context.Context) (attendance.Snapshot, error) {
	var cached attendance.Snapshot
	err := s.cache.Get(ctx, snapshotKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("snapshot cache read failed, falling back to store", "error", err)
	}

	snapshot, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, snapshotKey, snapshot, s.ttl); cacheErr != nil {
		s.logger.Warn("snapshot cache backfill failed", "error", cacheErr)
	}

	return snapshot, nil
}

// Save writes the snapshot to the inner store and refreshes the cache.
// A cache write failure is logged, not propagated: the store is the
// source of truth.
func (s *CachedSnapshotStore) Save(ctx context.Context, snapshot attendance.Snapshot) error {
	if err := s.inner.Save(ctx, snapshot); err != nil {
		return err
	}

	if err := s.cache.Set(ctx, snapshotKey, snapshot, s.ttl); err != nil {
		s.logger.Warn("snapshot cache refresh failed", "error", err)
	}
	return nil
}
