package index

import (
	"github.com/google/btree"
	"github.com/iamNilotpal/lucasdb/internal/codec"
)

// item is the google/btree Item stored for each live key: the key itself
// plus the position it maps to. Keys compare by unsigned byte lexicographic
// order, matching spec.md §4.4.
type item struct {
	key []byte
	pos codec.Position
}

var _ btree.Item = (*item)(nil)

// Less implements btree.Item.
func (a *item) Less(than btree.Item) bool {
	b, ok := than.(*item)
	if !ok {
		return false
	}
	return lessBytes(a.key, b.key)
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
