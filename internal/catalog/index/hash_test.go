package index

import "testing"

func ids(set map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func TestIndexAndSearchSingleToken(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"red", "shoe"})
	h.Index(2, []string{"blue", "shoe"})

	got := h.SearchAnd([]string{"shoe"})
	if len(got) != 2 {
		t.Fatalf("SearchAnd(shoe) returned %d ids, want 2", len(got))
	}
	if _, ok := got[1]; !ok {
		t.Error("SearchAnd(shoe) missing id 1")
	}
	if _, ok := got[2]; !ok {
		t.Error("SearchAnd(shoe) missing id 2")
	}
}

func TestSearchAndIntersection(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"red", "running", "shoe"})
	h.Index(2, []string{"blue", "running", "shoe"})
	h.Index(3, []string{"red", "jacket"})

	got := h.SearchAnd([]string{"red", "shoe"})
	if len(got) != 1 {
		t.Fatalf("SearchAnd(red, shoe) returned %v, want only id 1", ids(got))
	}
	if _, ok := got[1]; !ok {
		t.Errorf("SearchAnd(red, shoe) = %v, want id 1", ids(got))
	}
}

func TestSearchAndUnknownToken(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"red", "shoe"})

	if got := h.SearchAnd([]string{"red", "nonexistent"}); len(got) != 0 {
		t.Errorf("SearchAnd with unknown token = %v, want empty", ids(got))
	}
}

func TestSearchAndEmptyTokens(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"red"})

	if got := h.SearchAnd(nil); len(got) != 0 {
		t.Errorf("SearchAnd(nil) = %v, want empty, never the full catalog", ids(got))
	}
}

func TestSearchAndDisjointSets(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"red"})
	h.Index(2, []string{"blue"})

	if got := h.SearchAnd([]string{"red", "blue"}); len(got) != 0 {
		t.Errorf("SearchAnd(red, blue) = %v, want empty", ids(got))
	}
}

func TestIndexIdempotent(t *testing.T) {
	h := NewHashIndex()
	h.Index(1, []string{"shoe"})
	h.Index(1, []string{"shoe"})

	if got := h.PostingCount("shoe"); got != 1 {
		t.Errorf("PostingCount(shoe) = %d after duplicate index, want 1", got)
	}
}

func TestTermCount(t *testing.T) {
	h := NewHashIndex()
	if got := h.TermCount(); got != 0 {
		t.Errorf("TermCount on empty index = %d, want 0", got)
	}
	h.Index(1, []string{"red", "shoe"})
	h.Index(2, []string{"red", "jacket"})
	if got := h.TermCount(); got != 3 {
		t.Errorf("TermCount = %d, want 3", got)
	}
}
