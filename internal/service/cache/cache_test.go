package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	_, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "forever", []byte("x"), 0))

	b, ok, _ := c.GetBytes(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	_, ok, _ = c.GetBytes(ctx, "forever")
	assert.True(t, ok)
}

func TestTTLCacheSweepsEntriesNeverReadAgain(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache(WithSweepInterval(time.Minute))
	c.now = func() time.Time { return now }

	for _, k := range []string{"market:AAPL:1", "market:AAPL:2", "market:AAPL:3"} {
		require.NoError(t, c.SetBytes(ctx, k, []byte("v"), 30*time.Second))
	}
	require.NoError(t, c.SetBytes(ctx, "pinned", []byte("p"), 0))
	assert.Equal(t, 4, c.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.SetBytes(ctx, "market:MSFT:10", []byte("v"), 30*time.Second))
	assert.Equal(t, 2, c.Len())

	_, ok, _ := c.GetBytes(ctx, "pinned")
	assert.True(t, ok)
}

func TestTTLCacheCapsEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache(WithMaxEntries(2))
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "soon", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "later", []byte("2"), time.Hour))
	require.NoError(t, c.SetBytes(ctx, "new", []byte("3"), time.Hour))
	assert.Equal(t, 2, c.Len())

	_, ok, _ := c.GetBytes(ctx, "soon")
	assert.False(t, ok, "closest to expiry is evicted")
	_, ok, _ = c.GetBytes(ctx, "later")
	assert.True(t, ok)
	_, ok, _ = c.GetBytes(ctx, "new")
	assert.True(t, ok)

	require.NoError(t, c.SetBytes(ctx, "later", []byte("2b"), time.Hour))
	assert.Equal(t, 2, c.Len(), "overwriting does not evict")
}
