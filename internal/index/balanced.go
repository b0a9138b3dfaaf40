package index

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

// btreeDegree is the branching factor handed to btree.New. 32 is a common
// default for in-memory btrees of this size — large enough to keep the tree
// shallow for millions of keys without over-fragmenting cache lines.
const btreeDegree = 32

// balancedIndex is the read-write-locked balanced ordered tree variant:
// simpler and more memory-deterministic than the skip list, at the cost of
// writers briefly blocking readers.
type balancedIndex struct {
	mu   sync.RWMutex
	tree *btree.BTree
	log  *zap.SugaredLogger
}

var _ Indexer = (*balancedIndex)(nil)

func newBalanced(log *zap.SugaredLogger) *balancedIndex {
	return &balancedIndex{tree: btree.New(btreeDegree), log: log}
}

func (b *balancedIndex) Put(key []byte, pos codec.Position) (codec.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prevItem := b.tree.ReplaceOrInsert(&item{key: key, pos: pos})
	if prevItem == nil {
		return codec.Position{}, false
	}
	return prevItem.(*item).pos, true
}

func (b *balancedIndex) Get(key []byte) (codec.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	found := b.tree.Get(&item{key: key})
	if found == nil {
		return codec.Position{}, false
	}
	return found.(*item).pos, true
}

func (b *balancedIndex) Delete(key []byte) (codec.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := b.tree.Delete(&item{key: key})
	if removed == nil {
		return codec.Position{}, false
	}
	return removed.(*item).pos, true
}

func (b *balancedIndex) ListKeys() [][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([][]byte, 0, b.tree.Len())
	b.tree.Ascend(func(i btree.Item) bool {
		keys = append(keys, i.(*item).key)
		return true
	})
	return keys
}

func (b *balancedIndex) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tree.Len()
}

func (b *balancedIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree.Clear(false)
	return nil
}

// Iterator materializes a snapshot of (key, pos) pairs under the read lock
// and then walks the snapshot slice, so the iterator holds no lock across
// caller code — matching spec.md §4.4/§9's "materialized vector" semantics.
func (b *balancedIndex) Iterator(opts options.IteratorOptions) Iterator {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]Entry, 0, b.tree.Len())
	b.tree.Ascend(func(i btree.Item) bool {
		it := i.(*item)
		if len(opts.Prefix) == 0 || bytes.HasPrefix(it.key, opts.Prefix) {
			entries = append(entries, Entry{Key: it.key, Pos: it.pos})
		}
		return true
	})

	if opts.Reverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	return &sliceIterator{entries: entries, prefix: opts.Prefix, reverse: opts.Reverse}
}
