package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

func newIndexes(t *testing.T) map[string]Indexer {
	t.Helper()
	return map[string]Indexer{
		"balanced": New(Config{Type: options.IndexBalancedTree}),
		"skiplist": New(Config{Type: options.IndexSkipList}),
	}
}

func TestIndexPutGetDelete(t *testing.T) {
	for name, idx := range newIndexes(t) {
		t.Run(name, func(t *testing.T) {
			_, had := idx.Put([]byte("a"), codec.Position{FileID: 1, Offset: 0, Size: 10})
			require.False(t, had)

			pos, ok := idx.Get([]byte("a"))
			require.True(t, ok)
			require.Equal(t, uint32(1), pos.FileID)

			prev, had := idx.Put([]byte("a"), codec.Position{FileID: 2, Offset: 5, Size: 20})
			require.True(t, had)
			require.Equal(t, uint32(1), prev.FileID)

			_, ok = idx.Get([]byte("missing"))
			require.False(t, ok)

			removed, had := idx.Delete([]byte("a"))
			require.True(t, had)
			require.Equal(t, uint32(2), removed.FileID)

			_, ok = idx.Get([]byte("a"))
			require.False(t, ok)

			_, had = idx.Delete([]byte("a"))
			require.False(t, had)
		})
	}
}

func TestIndexListKeysAscending(t *testing.T) {
	for name, idx := range newIndexes(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"banana", "apple", "cherry"} {
				idx.Put([]byte(k), codec.Position{FileID: 1})
			}

			keys := idx.ListKeys()
			require.Len(t, keys, 3)
			require.Equal(t, "apple", string(keys[0]))
			require.Equal(t, "banana", string(keys[1]))
			require.Equal(t, "cherry", string(keys[2]))
			require.Equal(t, 3, idx.Len())
		})
	}
}

func TestIndexIteratorOrderAndPrefix(t *testing.T) {
	for name, idx := range newIndexes(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				idx.Put([]byte(fmt.Sprintf("key-%02d", i)), codec.Position{FileID: uint32(i)})
			}
			idx.Put([]byte("other-0"), codec.Position{FileID: 99})

			it := idx.Iterator(options.IteratorOptions{Prefix: []byte("key-")})
			defer it.Close()

			var got []string
			for {
				e, ok := it.Next()
				if !ok {
					break
				}
				got = append(got, string(e.Key))
			}
			require.Equal(t, []string{"key-00", "key-01", "key-02", "key-03", "key-04"}, got)
		})
	}
}

func TestIndexIteratorReverseAndSeek(t *testing.T) {
	for name, idx := range newIndexes(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				idx.Put([]byte(fmt.Sprintf("key-%02d", i)), codec.Position{FileID: uint32(i)})
			}

			it := idx.Iterator(options.IteratorOptions{Reverse: true})
			defer it.Close()

			it.Seek([]byte("key-02"))
			e, ok := it.Next()
			require.True(t, ok)
			require.Equal(t, "key-02", string(e.Key))

			e, ok = it.Next()
			require.True(t, ok)
			require.Equal(t, "key-01", string(e.Key))
		})
	}
}

func TestIndexIteratorSnapshotsAtConstruction(t *testing.T) {
	for name, idx := range newIndexes(t) {
		t.Run(name, func(t *testing.T) {
			idx.Put([]byte("a"), codec.Position{FileID: 1})

			it := idx.Iterator(options.IteratorOptions{})
			idx.Put([]byte("b"), codec.Position{FileID: 2})

			var got []string
			for {
				e, ok := it.Next()
				if !ok {
					break
				}
				got = append(got, string(e.Key))
			}
			require.Equal(t, []string{"a"}, got)
		})
	}
}
