package token

import "github.com/coregx/ahocorasick"

// ExceptionTrie implements the "exceptions" step of spec §4.2 step 4:
// the instant a token opens, walk a trie rooted at that byte in the
// source buffer and, on a hit, replace the whole span with the
// exception's normal form instead of running the regular fold/
// boundary/blend scan over it.
//
// The source builds a bespoke trie for this; that trie is exactly a
// multi-pattern matcher, so here it is an Aho-Corasick automaton
// (wired from the pack's coregx/ahocorasick, whose whole purpose is
// scanning a haystack for many literal patterns in one linear pass)
// instead of a second hand-rolled tree alongside the tokenizer's own
// accumulator.
type ExceptionTrie struct {
	automaton *ahocorasick.Automaton
	replace   map[string][]byte
}

// NewExceptionTrie builds a trie from a map of source phrase to its
// replacement (spec's "normal form"). Phrases are matched against the
// raw, not yet case-folded bytes starting at the token's first byte,
// matching the source's "rooted at the token start in source buffer".
func NewExceptionTrie(exceptions map[string]string) (*ExceptionTrie, error) {
	if len(exceptions) == 0 {
		return nil, nil
	}
	b := ahocorasick.NewBuilder()
	replace := make(map[string][]byte, len(exceptions))
	for from, to := range exceptions {
		b.AddPattern([]byte(from))
		replace[from] = []byte(to)
	}
	auto, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &ExceptionTrie{automaton: auto, replace: replace}, nil
}

// Match reports whether window begins with a known exception phrase,
// returning its replacement text and the number of source bytes it
// consumes. Exception sets where one phrase is a strict prefix of
// another are not expected to be common (the source's own default
// list — "a.d.", "e.g.", "i.e." style abbreviations — never nests),
// so ties are broken by whichever match the automaton reports first
// rather than an explicit longest-match tournament.
func (e *ExceptionTrie) Match(window []byte) ([]byte, int, bool) {
	if e == nil || e.automaton == nil {
		return nil, 0, false
	}
	m := e.automaton.Find(window, 0)
	if m == nil || m.Start != 0 {
		return nil, 0, false
	}
	repl, ok := e.replace[string(window[m.Start:m.End])]
	if !ok {
		return nil, 0, false
	}
	return repl, m.End - m.Start, true
}
