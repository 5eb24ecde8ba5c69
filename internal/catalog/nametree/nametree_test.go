package nametree

import (
	"reflect"
	"testing"
)

func TestSearchPrefixOrdersByName(t *testing.T) {
	tr := New()
	tr.Index("red running shoe", 2)
	tr.Index("blue running shoe", 3)
	tr.Index("red jacket", 1)

	got := tr.SearchPrefix("red", 10)
	want := []uint64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPrefix(red) = %v, want %v", got, want)
	}
}

func TestSearchPrefixRespectsLimit(t *testing.T) {
	tr := New()
	tr.Index("apple", 1)
	tr.Index("apricot", 2)
	tr.Index("avocado", 3)

	got := tr.SearchPrefix("a", 2)
	want := []uint64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPrefix(a, 2) = %v, want %v", got, want)
	}
}

func TestSearchPrefixZeroLimit(t *testing.T) {
	tr := New()
	tr.Index("apple", 1)

	if got := tr.SearchPrefix("a", 0); got != nil {
		t.Errorf("SearchPrefix with limit 0 = %v, want nil", got)
	}
}

func TestSearchPrefixEmptyPrefixMatchesAll(t *testing.T) {
	tr := New()
	tr.Index("banana", 2)
	tr.Index("apple", 1)
	tr.Index("cherry", 3)

	got := tr.SearchPrefix("", 10)
	want := []uint64{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPrefix(\"\") = %v, want %v in name order", got, want)
	}
}

func TestSearchPrefixStopsAtBoundary(t *testing.T) {
	tr := New()
	tr.Index("red jacket", 1)
	tr.Index("reef knot", 2)
	tr.Index("sandal", 3)

	got := tr.SearchPrefix("red", 10)
	want := []uint64{1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPrefix(red) = %v, want %v", got, want)
	}
}

func TestSharedNameKeepsInsertionOrder(t *testing.T) {
	tr := New()
	tr.Index("widget", 5)
	tr.Index("widget", 2)
	tr.Index("widget", 9)

	got := tr.SearchPrefix("widget", 10)
	want := []uint64{5, 2, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPrefix(widget) = %v, want insertion order %v", got, want)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1 distinct name", tr.Len())
	}
}

func TestLookupExactName(t *testing.T) {
	tr := New()
	tr.Index("red running shoe", 1)
	tr.Index("red running shoelace", 2)
	tr.Index("red running shoe", 3)

	got := tr.Lookup("red running shoe")
	want := []uint64{1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup = %v, want %v, prefixes must not match", got, want)
	}
}

func TestLookupAbsentName(t *testing.T) {
	tr := New()
	tr.Index("apple", 1)

	if got := tr.Lookup("appl"); got != nil {
		t.Errorf("Lookup(appl) = %v, want nil", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	tr := New()
	tr.Index("apple", 1)

	got := tr.Lookup("apple")
	got[0] = 99
	if again := tr.Lookup("apple"); again[0] != 1 {
		t.Errorf("Lookup result aliases the index: %v", again)
	}
}

func TestSearchPrefixNoMatch(t *testing.T) {
	tr := New()
	tr.Index("apple", 1)

	if got := tr.SearchPrefix("zebra", 10); len(got) != 0 {
		t.Errorf("SearchPrefix(zebra) = %v, want empty", got)
	}
}
