package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/linkvet/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://example.com/a")
	b := CacheKey("https://example.com/b")

	assert.True(t, strings.HasPrefix(a, "linkvet:v1:"))
	assert.Len(t, a, len("linkvet:v1:")+64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey("https://example.com/a"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte("page text"), 0))
	val, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "page text", string(val))

	require.NoError(t, c.Delete(ctx, "k"))
	_, found = c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set(ctx, CacheKey("https://example.com"), []byte("hello"), 0))

	// A second instance over the same directory sees the entry
	reopened := NewDiskCache(dir, time.Hour)
	val, found := reopened.Get(ctx, CacheKey("https://example.com"))
	require.True(t, found)
	assert.Equal(t, "hello", string(val))

	require.NoError(t, c.Delete(ctx, CacheKey("https://example.com")))
	_, found = c.Get(ctx, CacheKey("https://example.com"))
	assert.False(t, found)

	// Deleting a missing key is not an error
	assert.NoError(t, c.Delete(ctx, "never-set"))
}

func TestDiskCache_Expired(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestDiskCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Clear(ctx))

	_, found := c.Get(ctx, "a")
	assert.False(t, found)

	// The directory is recreated on the next write
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))
	_, found = c.Get(ctx, "c")
	assert.True(t, found)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, NewDiskCache(dir, time.Hour).Set(ctx, "k", []byte("from disk"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	val, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "from disk", string(val))

	memVal, found := c.memory.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "from disk", string(memVal))
}

func TestLayeredCache_SetAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, found := c.disk.Get(ctx, "k")
	assert.True(t, found)

	require.NoError(t, c.Delete(ctx, "k"))
	_, found = c.Get(ctx, "k")
	assert.False(t, found)
}

func TestDiskCache_PortableFileNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set(ctx, CacheKey("https://example.com/a?b=c"), []byte("v"), 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.NotContains(t, name, ":")
	assert.Len(t, name, 64+len(".cache"))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(RedisConfig{Address: mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	key := CacheKey("https://example.com")
	require.NoError(t, c.Set(ctx, key, []byte("cached"), 0))

	val, found := c.Get(ctx, key)
	require.True(t, found)
	assert.Equal(t, "cached", string(val))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, found = c.Get(ctx, key)
	assert.False(t, found)
}

func TestRedisCache_ClearOnlyOwnKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("unrelated", "keep"))

	c, err := NewRedisCache(RedisConfig{Address: mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Set(ctx, CacheKey("https://a.example"), []byte("a"), 0))
	require.NoError(t, c.Set(ctx, CacheKey("https://b.example"), []byte("b"), 0))
	require.NoError(t, c.Clear(ctx))

	_, found := c.Get(ctx, CacheKey("https://a.example"))
	assert.False(t, found)
	assert.True(t, mr.Exists("unrelated"))
}

func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	c, err := New(model.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, c)

	tests := []struct {
		backend string
		want    any
	}{
		{"memory", &MemoryCache{}},
		{"disk", &DiskCache{}},
		{"layered", &LayeredCache{}},
		{"", &LayeredCache{}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(model.CacheConfig{Enabled: true, Backend: tt.backend, Dir: dir, MemoryTTL: time.Minute, DiskTTL: time.Hour})
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}

	_, err = New(model.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	c, err = New(model.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: mr.Addr(), DiskTTL: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)

	mr.RequireAuth("s3cret")
	_, err = New(model.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: mr.Addr(), DiskTTL: time.Hour})
	assert.Error(t, err, "connecting without the password must fail")

	c, err = New(model.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: mr.Addr(), RedisPassword: "s3cret", DiskTTL: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
}
