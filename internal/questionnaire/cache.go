// internal/questionnaire/cache.go
// Redis-backed catalog snapshot shared by all API instances

package questionnaire

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

const catalogCacheKey = "questionnaire:catalog:v1"

// ErrCacheMiss is returned by a SnapshotCache when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache stores opaque catalog snapshots
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisSnapshotCache struct {
	client *redis.Client
}

// NewRedisSnapshotCache adapts a go-redis client
func NewRedisSnapshotCache(client *redis.Client) SnapshotCache {
	return &redisSnapshotCache{client: client}
}

func (c *redisSnapshotCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *redisSnapshotCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisSnapshotCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

type catalogSnapshot struct {
	Sections  []Section  `json:"sections"`
	Questions []Question `json:"questions"`
}

// CachedRepository serves LoadCatalog from the snapshot cache and falls back
// to the wrapped loader. Cache errors never fail the load.
type CachedRepository struct {
	next  CatalogLoader
	cache SnapshotCache
	ttl   time.Duration
}

func NewCachedRepository(next CatalogLoader, cache SnapshotCache, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, cache: cache, ttl: ttl}
}

func (r *CachedRepository) LoadCatalog(ctx context.Context) (*Catalog, error) {
	raw, err := r.cache.Get(ctx, catalogCacheKey)
	switch {
	case err == nil:
		var snap catalogSnapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			return NewCatalog(snap.Sections, snap.Questions), nil
		}
		logging.Ctx(ctx).Warn().Msg("discarding unreadable catalog snapshot")
	case !errors.Is(err, ErrCacheMiss):
		logging.Ctx(ctx).Warn().Err(err).Msg("catalog cache read failed")
	}

	catalog, err := r.next.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	snap := catalogSnapshot{Sections: catalog.rawSections, Questions: catalog.rawQuestions}
	if b, err := json.Marshal(snap); err == nil {
		if err := r.cache.Set(ctx, catalogCacheKey, b, r.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return catalog, nil
}

// Invalidate drops the shared snapshot so the next load reads the database
func (r *CachedRepository) Invalidate(ctx context.Context) error {
	return r.cache.Delete(ctx, catalogCacheKey)
}
