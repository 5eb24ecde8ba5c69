// Package index implements the inverted token index mapping tokens to
// posting sets of product IDs.
package index

import "sort"

// HashIndex is an inverted index from token to the set of product IDs whose
// searchable fields contain that token. It is not safe for concurrent use;
// the catalog serialises all access behind its own lock.
type HashIndex struct {
	postings map[string]map[uint64]struct{}
}

// NewHashIndex returns an empty inverted index.
func NewHashIndex() *HashIndex {
	return &HashIndex{
		postings: make(map[string]map[uint64]struct{}),
	}
}

// Index inserts id into the posting set of every token. Re-indexing an
// (id, token) pair already present is a no-op.
func (h *HashIndex) Index(id uint64, tokens []string) {
	for _, token := range tokens {
		set, exists := h.postings[token]
		if !exists {
			set = make(map[uint64]struct{}, 4)
			h.postings[token] = set
		}
		set[id] = struct{}{}
	}
}

// SearchAnd returns the intersection of the posting sets for all given
// tokens. Sets are intersected smallest first so the candidate set only
// ever shrinks, and the scan short-circuits the moment it empties. A token
// absent from the index, or an empty token list, yields an empty result —
// never the full catalog.
func (h *HashIndex) SearchAnd(tokens []string) map[uint64]struct{} {
	result := make(map[uint64]struct{})
	if len(tokens) == 0 {
		return result
	}
	sets := make([]map[uint64]struct{}, 0, len(tokens))
	for _, token := range tokens {
		set, exists := h.postings[token]
		if !exists {
			return result
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool {
		return len(sets[i]) < len(sets[j])
	})
	for id := range sets[0] {
		result[id] = struct{}{}
	}
	for _, set := range sets[1:] {
		for id := range result {
			if _, exists := set[id]; !exists {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return result
		}
	}
	return result
}

// PostingCount returns the size of the posting set for token, zero when the
// token is not indexed.
func (h *HashIndex) PostingCount(token string) int {
	return len(h.postings[token])
}

// TermCount returns the number of distinct tokens in the index.
func (h *HashIndex) TermCount() int {
	return len(h.postings)
}
