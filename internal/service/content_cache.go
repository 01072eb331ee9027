package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"studioapi/internal/repository"
)

// Cached reads are keyed by a per-kind generation number. Writes bump the
// generation, which orphans every older key until its TTL expires.

const keyPrefix = "studio:"

func (s *ContentService[T, PT]) genKey() string { return keyPrefix + "gen:" + s.kind }

func (s *ContentService[T, PT]) generation(ctx context.Context) (string, bool) {
	if s.opts.cache == nil {
		return "", false
	}
	v, ok, err := s.opts.cache.Get(ctx, s.genKey())
	if err != nil {
		s.log.Warn("cache_generation_failed", zap.Error(err))
		s.opts.metrics.CacheLookup("error")
		return "", false
	}
	if !ok {
		return "0", true
	}
	return string(v), true
}

func (s *ContentService[T, PT]) listKey(ctx context.Context, pq repository.PageQuery) string {
	gen, ok := s.generation(ctx)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%s:%s:list:%d:%d:%s:%s", keyPrefix, s.kind, gen, pq.Limit, pq.Offset, pq.Sort, filterSignature(pq.Filter))
}

func (s *ContentService[T, PT]) itemKey(ctx context.Context, id string) string {
	gen, ok := s.generation(ctx)
	if !ok {
		return ""
	}
	return keyPrefix + s.kind + ":" + gen + ":item:" + id
}

func (s *ContentService[T, PT]) cacheGet(ctx context.Context, key string, dst any) bool {
	if key == "" {
		return false
	}
	b, ok, err := s.opts.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn("cache_get_failed", zap.String("key", key), zap.Error(err))
		s.opts.metrics.CacheLookup("error")
		return false
	case !ok:
		s.opts.metrics.CacheLookup("miss")
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.log.Warn("cache_decode_failed", zap.String("key", key), zap.Error(err))
		s.opts.metrics.CacheLookup("error")
		return false
	}
	s.opts.metrics.CacheLookup("hit")
	return true
}

func (s *ContentService[T, PT]) cacheSet(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.opts.cache.Set(ctx, key, b, s.opts.cacheTTL); err != nil {
		s.log.Warn("cache_set_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ContentService[T, PT]) invalidate(ctx context.Context) {
	if s.opts.cache == nil {
		return
	}
	n, err := s.opts.cache.Incr(ctx, s.genKey())
	if err != nil {
		s.log.Warn("cache_invalidate_failed", zap.Error(err))
		return
	}
	s.log.Debug("cache_invalidated", zap.String("generation", strconv.FormatInt(n, 10)))
}
