package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	got := Tokenize("Red Running-Shoe v2")
	want := []string{"red", "running", "shoe", "v2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDeduplicatesPreservingOrder(t *testing.T) {
	got := Tokenize("shoe RED shoe red Shoe")
	want := []string{"shoe", "red"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeSeparators(t *testing.T) {
	got := Tokenize("wi-fi/router,(2024)!")
	want := []string{"wi", "fi", "router", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeEmptyInputs(t *testing.T) {
	cases := []string{"", "   ", "---", "!!! ???"}
	for _, in := range cases {
		if got := Tokenize(in); got != nil {
			t.Errorf("Tokenize(%q) = %v, want nil", in, got)
		}
	}
}

func TestTokenizeUnicode(t *testing.T) {
	got := Tokenize("Café Crème")
	want := []string{"café", "crème"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
