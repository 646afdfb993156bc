package wordlist

import (
	"sort"
	"testing"

	"github.com/wizenheimer/ftidx/schema"
)

func sampleEntries() []Entry {
	words := []string{"apple", "application", "apply", "banana", "band", "bandana", "cat", "catalog", "dog"}
	sort.Strings(words)
	entries := make([]Entry, len(words))
	for i, w := range words {
		entries[i] = Entry{Word: w, WordID: schema.WordID(i + 1), DoclistOffset: i * 10, DocCount: i + 1, HitCount: i + 2}
	}
	return entries
}

func TestBuildAndLookupExact(t *testing.T) {
	entries := sampleEntries()
	data, checkpoints := Build(entries)
	r := NewReader(data, checkpoints, 0)

	e, ok := r.Lookup("banana")
	if !ok {
		t.Fatalf("expected to find banana")
	}
	if e.WordID == 0 || e.DocCount == 0 {
		t.Errorf("got incomplete entry: %+v", e)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Errorf("expected missing word to not be found")
	}
}

func TestCheckpointEveryStride(t *testing.T) {
	var entries []Entry
	for i := 0; i < CheckpointStride*2+7; i++ {
		entries = append(entries, Entry{Word: padWord(i), WordID: schema.WordID(i + 1)})
	}
	_, checkpoints := Build(entries)
	if len(checkpoints) != 3 {
		t.Errorf("got %d checkpoints, want 3", len(checkpoints))
	}
}

func padWord(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	s := ""
	for i >= 0 {
		s = string(letters[i%26]) + s
		i = i/26 - 1
	}
	return s
}

func TestPrefixSearchFindsAllMatches(t *testing.T) {
	entries := sampleEntries()
	data, checkpoints := Build(entries)
	r := NewReader(data, checkpoints, 0)

	got := r.PrefixSearch("app")
	want := map[string]bool{"apple": true, "application": true, "apply": true}
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(got), len(want), got)
	}
	for _, e := range got {
		if !want[e.Word] {
			t.Errorf("unexpected prefix match %q", e.Word)
		}
	}
}

func TestInfixSearchWithAcceleration(t *testing.T) {
	entries := sampleEntries()
	data, checkpoints := Build(entries)
	r := NewReader(data, checkpoints, 3)

	got := r.InfixSearch("and")
	found := false
	for _, e := range got {
		if e.Word == "band" || e.Word == "bandana" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected band/bandana among infix matches for 'and', got %+v", got)
	}
}

func TestMatchWildcard(t *testing.T) {
	cases := []struct {
		pattern, word string
		want          bool
	}{
		{"foo*", "foobar", true},
		{"foo*", "foo", true},
		{"*bar", "foobar", true},
		{"f?o", "foo", true},
		{"f?o", "fo", false},
		{"f%o", "fo", true},
		{"f%o", "foo", true},
		{"f%o", "fxo", true},
		{"*foo*", "xxfooxx", true},
		{"cat", "dog", false},
	}
	for _, c := range cases {
		if got := MatchWildcard(c.pattern, c.word); got != c.want {
			t.Errorf("MatchWildcard(%q, %q) = %v, want %v", c.pattern, c.word, got, c.want)
		}
	}
}
