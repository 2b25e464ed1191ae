package systems

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
)

func TestResourceCacheCreatesOncePerKey(t *testing.T) {
	cache := NewResourceCache[int](nil)

	calls := 0
	factory := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := cache.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = cache.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestResourceCacheFactoryErrorNotCached(t *testing.T) {
	cache := NewResourceCache[int](nil)

	_, err := cache.GetOrCreate("a", func() (int, error) {
		return 0, fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	v, err := cache.GetOrCreate("a", func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestResourceCacheRemoveDestroys(t *testing.T) {
	var destroyed []string
	cache := NewResourceCache[string](func(v string) {
		destroyed = append(destroyed, v)
	})

	_, err := cache.GetOrCreate("a", func() (string, error) { return "va", nil })
	require.NoError(t, err)

	require.NoError(t, cache.Remove("a"))
	assert.Equal(t, []string{"va"}, destroyed)
	assert.Equal(t, 0, cache.Len())

	// Removing a missing key is a no-op.
	require.NoError(t, cache.Remove("a"))
	assert.Len(t, destroyed, 1)
}

func TestResourceCacheCleanupInsertionOrderExactlyOnce(t *testing.T) {
	var destroyed []string
	cache := NewResourceCache[string](func(v string) {
		destroyed = append(destroyed, v)
	})

	for _, key := range []string{"first", "second", "third"} {
		k := key
		_, err := cache.GetOrCreate(k, func() (string, error) { return k, nil })
		require.NoError(t, err)
	}

	cache.Cleanup()
	cache.Cleanup()
	assert.Equal(t, []string{"first", "second", "third"}, destroyed)

	_, err := cache.GetOrCreate("late", func() (string, error) { return "", nil })
	assert.ErrorIs(t, err, core.ErrCacheDestroyed)
	assert.ErrorIs(t, cache.Remove("first"), core.ErrCacheDestroyed)

	_, ok := cache.Get("first")
	assert.False(t, ok)
}
