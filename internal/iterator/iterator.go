// Package iterator provides the engine-level ordered cursor: it layers
// value retrieval on top of internal/index's key->position cursor so
// callers walk (key, value) pairs without touching position encoding.
package iterator

import (
	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/internal/index"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

// Host is the engine behavior an Iterator needs: a fresh index cursor and a
// way to resolve a position back into its current value.
type Host interface {
	IndexIterator(opts options.IteratorOptions) index.Iterator
	ReadValue(pos codec.Position) ([]byte, error)
}

// Iterator walks live keys in the order (and, if Prefix was set, the subset)
// its underlying index.Iterator was constructed with.
type Iterator struct {
	host Host
	idx  index.Iterator
}

// New constructs an Iterator over host using opts.
func New(host Host, opts options.IteratorOptions) *Iterator {
	return &Iterator{host: host, idx: host.IndexIterator(opts)}
}

// Rewind resets the cursor to its first entry.
func (it *Iterator) Rewind() { it.idx.Rewind() }

// Seek positions the cursor at the first key comparing >= key (or <= key in
// reverse order).
func (it *Iterator) Seek(key []byte) { it.idx.Seek(key) }

// Next advances the cursor and resolves the next (key, value) pair.
func (it *Iterator) Next() (key, value []byte, ok bool) {
	entry, ok := it.idx.Next()
	if !ok {
		return nil, nil, false
	}
	value, err := it.host.ReadValue(entry.Pos)
	if err != nil {
		return entry.Key, nil, false
	}
	return entry.Key, value, true
}

// Fold walks every remaining entry, invoking fn with each (key, value) pair
// until fn returns false or the iterator is exhausted.
func (it *Iterator) Fold(fn func(key, value []byte) bool) {
	for {
		key, value, ok := it.Next()
		if !ok {
			return
		}
		if !fn(key, value) {
			return
		}
	}
}

// Close releases the iterator's resources.
func (it *Iterator) Close() { it.idx.Close() }
