// Package stats serves the manager dashboard counters, cached for a short TTL.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"moto-dispatch/internal/access"
	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/cache"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

type snapshotter interface {
	Snapshot(ctx context.Context) (domain.Stats, error)
}

// Service is a cache-aside reader over the stats repository.
type Service struct {
	repo             snapshotter
	cache            cache.Store
	ttl              time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a stats Service. A zero ttl disables caching.
func NewService(repo snapshotter, c cache.Store, ttl, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{repo: repo, cache: c, ttl: ttl, operationTimeout: timeout, logger: logger}
}

func cacheKey() string { return cache.Key("stats", "snapshot") }

// Get returns the counters, from cache when fresh.
func (s *Service) Get(ctx context.Context, actor domain.Actor) (domain.Stats, error) {
	if err := access.Authorize(actor, access.OpViewStats, nil); err != nil {
		return domain.Stats{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if st, ok := s.cached(ctx); ok {
		return st, nil
	}

	st, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.Stats{}, apperr.FromContext(err)
	}
	s.store(ctx, st)
	return st, nil
}

// Invalidate drops the cached snapshot; called when a delivery changes.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey())
}

func (s *Service) cached(ctx context.Context) (domain.Stats, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return domain.Stats{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey())
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("stats cache read failed", logx.Err(err))
		}
		return domain.Stats{}, false
	}
	var st domain.Stats
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("stats cache entry unreadable", logx.Err(err))
		return domain.Stats{}, false
	}
	return st, true
}

func (s *Service) store(ctx context.Context, st domain.Stats) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn("stats snapshot not cached", logx.Err(err))
		return
	}
	if err := s.cache.Set(ctx, cacheKey(), string(raw), s.ttl); err != nil {
		s.logger.Warn("stats cache write failed", logx.Err(err))
	}
}
