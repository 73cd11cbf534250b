package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "http://localhost:8080/audio/")

	loc, err := store.Put(context.Background(), "acme", "wav", strings.NewReader("RIFFdata"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(loc, "http://localhost:8080/audio/acme/"), loc)
	assert.True(t, strings.HasSuffix(loc, ".wav"), loc)

	data, err := os.ReadFile(filepath.Join(dir, "acme", filepath.Base(loc)))
	require.NoError(t, err)
	assert.Equal(t, "RIFFdata", string(data))

	other, err := store.Put(context.Background(), "acme", "", strings.NewReader("ID3"))
	require.NoError(t, err)
	assert.NotEqual(t, loc, other)
	assert.True(t, strings.HasSuffix(other, ".mp3"))
}

func TestFileStore_RejectsBadTenant(t *testing.T) {
	store := NewFileStore(t.TempDir(), "http://localhost")

	for _, id := range []string{"", ".", "..", "../x", `a\b`} {
		_, err := store.Put(context.Background(), id, "mp3", strings.NewReader("x"))
		assert.Error(t, err, id)
	}
}

func TestFileStore_EmptyAudio(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "http://localhost")

	_, err := store.Put(context.Background(), "acme", "mp3", strings.NewReader(""))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "acme"))
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file should be removed")
}

func TestFileStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "http://localhost")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "acme", "mp3", strings.NewReader("data"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAudioCache(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	cache := NewAudioCache(time.Minute)
	cache.now = func() time.Time { return now }

	key := CacheKey("acme", "elevenlabs", elevenLabsSarah, "en-US", "mp3", "Hello")
	_, ok := cache.Lookup(key)
	assert.False(t, ok)

	cache.Record(key, "loc")
	loc, ok := cache.Lookup(key)
	assert.True(t, ok)
	assert.Equal(t, "loc", loc)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Lookup(key)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	cache.Record("a", "1")
	now = now.Add(30 * time.Second)
	cache.Record("b", "2")
	now = now.Add(45 * time.Second)
	cache.Record("c", "3")
	assert.Equal(t, 2, cache.Len(), "record sweeps the expired entry a")
	_, ok = cache.Lookup("b")
	assert.True(t, ok)
}

func TestAudioCache_RecordBoundsGrowth(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	cache := NewAudioCache(time.Minute)
	cache.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		cache.Record(fmt.Sprintf("prompt-%d", i), "loc")
		now = now.Add(time.Second)
	}

	// Nothing was looked up again; only the last two ttl windows may remain.
	assert.LessOrEqual(t, cache.Len(), 121)
}

func TestCacheKey(t *testing.T) {
	base := CacheKey("acme", "elevenlabs", "v1", "en-US", "mp3", "Hello")

	assert.Len(t, base, 64)
	assert.Equal(t, base, CacheKey("acme", "elevenlabs", "v1", "en-US", "mp3", "Hello"))
	assert.NotEqual(t, base, CacheKey("globex", "elevenlabs", "v1", "en-US", "mp3", "Hello"))
	assert.NotEqual(t, base, CacheKey("acme", "elevenlabs", "v1", "en-US", "mulaw", "Hello"))
	assert.NotEqual(t, base, CacheKey("acme", "elevenlabs", "v1", "en-US", "mp3", "Hello!"))
	assert.NotEqual(t, CacheKey("a", "b", "", "", "", ""), CacheKey("", "ab", "", "", "", ""))
}
