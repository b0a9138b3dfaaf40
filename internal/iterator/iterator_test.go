package iterator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/internal/engine"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

func openTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(engine.Config{
		Options: options.Options{DirPath: t.TempDir(), DataFileSize: 1024 * 1024, MergeRatio: 0.5},
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestIteratorWalksLiveKeyValuePairsInOrder(t *testing.T) {
	e := openTestEngine(t)

	for _, k := range []string{"banana", "apple", "cherry"} {
		require.NoError(t, e.Put([]byte(k), []byte("v-"+k)))
	}
	require.NoError(t, e.Delete([]byte("banana")))

	it := e.Iterator(options.IteratorOptions{})
	defer it.Close()

	key, value, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "apple", string(key))
	require.Equal(t, "v-apple", string(value))

	key, value, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, "cherry", string(key))
	require.Equal(t, "v-cherry", string(value))

	_, _, ok = it.Next()
	require.False(t, ok)
}

func TestIteratorFoldStopsEarly(t *testing.T) {
	e := openTestEngine(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	it := e.Iterator(options.IteratorOptions{})
	defer it.Close()

	var visited []string
	it.Fold(func(key, value []byte) bool {
		visited = append(visited, string(key))
		return string(key) != "b"
	})
	require.Equal(t, []string{"a", "b"}, visited)
}

func TestIteratorSeekAndRewind(t *testing.T) {
	e := openTestEngine(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	it := e.Iterator(options.IteratorOptions{})
	defer it.Close()

	it.Seek([]byte("c"))
	key, _, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "c", string(key))

	it.Rewind()
	key, _, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, "a", string(key))
}
