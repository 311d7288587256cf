package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set("key1", "value1", 0))

	value, found := c.Get("key1")
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	value, found = c.Get("key2")
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set("key1", "value1", 100*time.Millisecond))

	value, found := c.Get("key1")
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	time.Sleep(150 * time.Millisecond)

	value, found = c.Get("key1")
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(3, 10*time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set("key1", "value1", 0))
	require.NoError(t, c.Set("key2", "value2", 0))
	require.NoError(t, c.Set("key3", "value3", 0))

	c.Get("key1")

	require.NoError(t, c.Set("key4", "value4", 0))

	_, found := c.Get("key2")
	assert.False(t, found)

	_, found = c.Get("key1")
	assert.True(t, found)
	_, found = c.Get("key3")
	assert.True(t, found)
	_, found = c.Get("key4")
	assert.True(t, found)

	assert.Equal(t, 3, c.Count())
}

func TestMemoryCache_Cleanup(t *testing.T) {
	c := NewMemoryCache(100, 50*time.Millisecond)
	defer c.Stop()

	for i := 0; i < 5; i++ {
		key := "key" + string(rune('0'+i))
		require.NoError(t, c.Set(key, i, 100*time.Millisecond))
	}

	require.NoError(t, c.Set("permanent", "value", 0))

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 1, c.Count())

	value, found := c.Get("permanent")
	assert.True(t, found)
	assert.Equal(t, "value", value)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set("key1", "value1", 0))
	require.NoError(t, c.Delete("key1"))

	_, found := c.Get("key1")
	assert.False(t, found)

	assert.NoError(t, c.Delete("key2"))
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	for i := 0; i < 10; i++ {
		key := "key" + string(rune('0'+i))
		require.NoError(t, c.Set(key, i, 0))
	}

	assert.Equal(t, 10, c.Count())
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Count())
}

func TestMemoryCache_Exists(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	assert.False(t, c.Exists("key1"))

	require.NoError(t, c.Set("key1", "value1", 0))
	assert.True(t, c.Exists("key1"))

	require.NoError(t, c.Set("key2", "value2", 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, c.Exists("key2"))
}

func TestMemoryCache_Count(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	assert.Equal(t, 0, c.Count())

	for i := 0; i < 5; i++ {
		key := "key" + string(rune('0'+i))
		require.NoError(t, c.Set(key, i, 0))
	}

	assert.Equal(t, 5, c.Count())

	c.Delete("key1")
	c.Delete("key2")

	assert.Equal(t, 3, c.Count())
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(100, 10*time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set("key1", "value1", 0))

	stats := c.Stats()
	_, _, sets, _, _ := stats.Snapshot()
	assert.Equal(t, int64(1), sets)

	c.Get("key1")
	hits, _, _, _, _ := stats.Snapshot()
	assert.Equal(t, int64(1), hits)

	c.Get("key2")
	_, misses, _, _, _ := stats.Snapshot()
	assert.Equal(t, int64(1), misses)

	assert.Equal(t, 0.5, stats.HitRate())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(1000, 10*time.Minute)
	defer c.Stop()

	done := make(chan bool)
	for i := 0; i < 100; i++ {
		go func(idx int) {
			key := "key" + string(rune('0'+idx%10))
			c.Set(key, idx, 0)
			done <- true
		}(i)
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	for i := 0; i < 100; i++ {
		go func(idx int) {
			key := "key" + string(rune('0'+idx%10))
			c.Get(key)
			done <- true
		}(i)
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	hits, _, _, _, _ := c.Stats().Snapshot()
	assert.Greater(t, hits, int64(0))
}

func TestMemoryCache_Stop(t *testing.T) {
	c := NewMemoryCache(100, 50*time.Millisecond)

	require.NoError(t, c.Set("key1", "value1", 0))

	c.Stop()

	assert.Error(t, c.Set("key2", "value2", 0))

	_, found := c.Get("key1")
	assert.False(t, found)

	c.Stop()
}
