package voice

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// AudioCache remembers where audio for a given text and voice was stored so
// repeated prompts do not hit the vendor again. Expired entries are swept
// by Record at most once per ttl.
type AudioCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	swept   time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	location string
	stored   time.Time
}

// NewAudioCache creates a cache whose entries expire after ttl
func NewAudioCache(ttl time.Duration) *AudioCache {
	return &AudioCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Lookup returns the stored location for key if it has not expired
func (c *AudioCache) Lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && c.now().Sub(e.stored) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.location, true
}

// Record stores location under key
func (c *AudioCache) Record(key, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.ttl > 0 && now.Sub(c.swept) >= c.ttl {
		c.sweep(now)
	}
	c.entries[key] = cacheEntry{location: location, stored: now}
}

// sweep drops expired entries. Callers hold c.mu.
func (c *AudioCache) sweep(now time.Time) {
	cutoff := now.Add(-c.ttl)
	for k, e := range c.entries {
		if e.stored.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	c.swept = now
}

// Len returns the number of entries, expired ones included
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CacheKey hashes everything that changes the produced audio
func CacheKey(tenantID, provider, voiceID, language, format, text string) string {
	h := sha256.Sum256([]byte(tenantID + "\x00" + provider + "\x00" + voiceID + "\x00" + language + "\x00" + format + "\x00" + text))
	return fmt.Sprintf("%x", h)
}
