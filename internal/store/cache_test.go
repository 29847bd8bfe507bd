package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey_OrderAndBoundariesMatter(t *testing.T) {
	require.Equal(t, Key("a", "b"), Key("a", "b"))
	require.NotEqual(t, Key("a", "b"), Key("b", "a"))
	require.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestRenderCache_PutGetRoundTrip(t *testing.T) {
	cache, err := NewRenderCache(t.TempDir())
	require.NoError(t, err)

	key := Key("body", "github", "cp")
	_, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(key, []byte("<p>rendered</p>")))

	data, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("<p>rendered</p>"), data)
}

func TestRenderCache_PutExistingKey_LeavesObjectUntouched(t *testing.T) {
	cache, err := NewRenderCache(t.TempDir())
	require.NoError(t, err)

	key := Key("body")
	require.NoError(t, cache.Put(key, []byte("first")))
	require.NoError(t, cache.Put(key, []byte("second")))

	data, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("first"), data)
}
