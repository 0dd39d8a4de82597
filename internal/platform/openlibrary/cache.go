package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	editionKeyPrefix = "openlibrary:edition:"
	authorKeyPrefix  = "openlibrary:author:"
)

// Cache stores raw lookup payloads. Get reports a miss with ok == false.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, val, ttl).Err()
}

// CachedClient serves lookups from a cache and falls back to the wrapped
// API on a miss. Cache errors are logged and never fail a lookup.
type CachedClient struct {
	next   API
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClient(next API, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedClient) GetEdition(ctx context.Context, isbn string) (*Edition, error) {
	var ed Edition
	if c.lookup(ctx, editionKeyPrefix+isbn, &ed) {
		return &ed, nil
	}
	res, err := c.next.GetEdition(ctx, isbn)
	if err != nil {
		return nil, err
	}
	c.store(ctx, editionKeyPrefix+isbn, res)
	return res, nil
}

func (c *CachedClient) GetAuthor(ctx context.Context, authorKey string) (*AuthorDetails, error) {
	var a AuthorDetails
	if c.lookup(ctx, authorKeyPrefix+authorKey, &a) {
		return &a, nil
	}
	res, err := c.next.GetAuthor(ctx, authorKey)
	if err != nil {
		return nil, err
	}
	c.store(ctx, authorKeyPrefix+authorKey, res)
	return res, nil
}

func (c *CachedClient) lookup(ctx context.Context, key string, dst interface{}) bool {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("lookup cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
