package openlibrary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = val
	m.ttls[key] = ttl
	return nil
}

func TestCachedClient_HitsCacheOnSecondLookup(t *testing.T) {
	api := duneAPI()
	cache := newMemoryCache()
	c := NewCachedClient(api, cache, time.Hour, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ed, err := c.GetEdition(ctx, "9780441013593")
		require.NoError(t, err)
		assert.Equal(t, "Dune", ed.Title)

		a, err := c.GetAuthor(ctx, "/authors/OL79034A")
		require.NoError(t, err)
		assert.Equal(t, "Frank Herbert", a.Name)
	}

	assert.Equal(t, 1, api.editionHits)
	assert.Equal(t, 1, api.authorHits)
	assert.Equal(t, time.Hour, cache.ttls[editionKeyPrefix+"9780441013593"])
}

func TestCachedClient_MissesAreNotCached(t *testing.T) {
	api := duneAPI()
	cache := newMemoryCache()
	c := NewCachedClient(api, cache, time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := c.GetEdition(context.Background(), "0000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, api.editionHits)
	assert.Empty(t, cache.entries)
}

func TestCachedClient_CacheFailuresFallThrough(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	api := duneAPI()
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	c := NewCachedClient(api, cache, time.Hour, zap.New(core))

	ed, err := c.GetEdition(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, "Dune", ed.Title)
	assert.Equal(t, 1, logs.FilterMessage("lookup cache read failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("lookup cache write failed").Len())
}

func TestCachedClient_CorruptEntryRefetches(t *testing.T) {
	api := duneAPI()
	cache := newMemoryCache()
	cache.entries[editionKeyPrefix+"9780441013593"] = []byte("{not json")
	c := NewCachedClient(api, cache, time.Hour, nil)

	ed, err := c.GetEdition(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, "Dune", ed.Title)
	assert.Equal(t, 1, api.editionHits)
}

func TestRedisCache(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping test: redis not reachable: %v", err)
	}

	c := NewRedisCache(client)
	key := "openlibrary:test:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(ctx, key) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"title":"Dune"}`), time.Minute))
	val, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"title":"Dune"}`, string(val))
}
