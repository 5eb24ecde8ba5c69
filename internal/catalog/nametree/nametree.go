// Package nametree implements the ordered name index used for prefix
// (autocomplete) queries. A B-tree range scan over normalized names stands
// in for a trie: O(log n + k) per query at catalog scale.
package nametree

import (
	"strings"

	"github.com/google/btree"
)

const degree = 32

type entry struct {
	name string
	ids  []uint64
}

// Tree is an ordered map from normalized product name to the IDs stored
// under that name, in insertion order. Multiple products may share a name.
// It is not safe for concurrent use; the catalog serialises all access.
type Tree struct {
	tr *btree.BTreeG[*entry]
}

// New returns an empty name index.
func New() *Tree {
	return &Tree{
		tr: btree.NewG(degree, func(a, b *entry) bool {
			return a.name < b.name
		}),
	}
}

// Index records id under the given normalized name, creating the entry if
// absent. IDs accumulate in insertion order.
func (t *Tree) Index(name string, id uint64) {
	if existing, ok := t.tr.Get(&entry{name: name}); ok {
		existing.ids = append(existing.ids, id)
		return
	}
	t.tr.ReplaceOrInsert(&entry{name: name, ids: []uint64{id}})
}

// Lookup returns the IDs stored under exactly the given normalized name, in
// insertion order, or nil when the name is absent.
func (t *Tree) Lookup(name string) []uint64 {
	e, ok := t.tr.Get(&entry{name: name})
	if !ok {
		return nil
	}
	ids := make([]uint64, len(e.ids))
	copy(ids, e.ids)
	return ids
}

// SearchPrefix collects up to limit IDs whose name starts with prefix,
// scanning names in ascending lexicographic order and, within a name, in
// insertion order. An empty prefix matches every entry. A limit of zero
// returns nil without scanning.
func (t *Tree) SearchPrefix(prefix string, limit int) []uint64 {
	if limit <= 0 {
		return nil
	}
	out := make([]uint64, 0, limit)
	t.tr.AscendGreaterOrEqual(&entry{name: prefix}, func(e *entry) bool {
		if !strings.HasPrefix(e.name, prefix) {
			return false
		}
		for _, id := range e.ids {
			out = append(out, id)
			if len(out) >= limit {
				return false
			}
		}
		return true
	})
	return out
}

// Len returns the number of distinct names in the index.
func (t *Tree) Len() int {
	return t.tr.Len()
}
