package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	c := NewTTLCache[string, int]()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("a", "x", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheZeroTTLNotStored(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("a", "x", 0)

	_, ok := c.Get("a")
	assert.False(t, ok)
}
