// Package dict implements the dictionary contract of spec §4.3
// (component C3): mapping a token's folded text to a stable WordID,
// in either crc mode (hash-based, reconstructible from the word bytes
// alone) or keywords mode (dense arena offset, stable only within one
// build), plus stop-words and the morphology pipeline that runs before
// either mode sees the word.
package dict

import (
	"hash/fnv"
	"sort"

	snowballeng "github.com/kljensen/snowball/english"
	"github.com/wizenheimer/ftidx/schema"
)

// Mode selects how a token's text becomes a schema.WordID (spec §4.3,
// "dict_crc vs dict_keywords").
type Mode int

const (
	// ModeCRC hashes the word's bytes; ids are reconstructible at
	// query time from the word text alone, with no dictionary lookup
	// required to resolve a word the query already has the text for.
	ModeCRC Mode = iota
	// ModeKeywords assigns a dense arena offset at build time; ids are
	// only stable within the build that produced them, but the
	// dictionary can store exceptions/case-sensitive spellings that a
	// hash can't distinguish.
	ModeKeywords
)

// Markers wrap a word to exclude it from stemming (spec
// §4.3, "MAGIC_WORD_HEAD_NONSTEMMED / _TAIL"): wrapping a query term in
// these bytes before hashing asks the dictionary to treat it as an
// exact, unstemmed lookup.
const (
	MagicHeadNonstemmed byte = 0x01
	MagicTailNonstemmed byte = 0x02
)

// Dict resolves folded token text to word ids, running stop-word
// filtering and (optionally) a stemmer ahead of id assignment.
type Dict struct {
	mode Mode

	stopwords  map[uint64]struct{} // hashed stop-words; stopSorted is the sorted copy
	stopSorted []uint64

	stem bool

	// keywords-mode state: word text -> assigned offset, built in
	// first-seen order. Unused in crc mode.
	arena   []string
	offsets map[string]int
}

// New builds a Dict. stopwords is the raw stop-word list (already
// folded the same way tokens are); stem enables the English Snowball
// stemmer on every non-excepted word (spec §4.3, "morphology").
func New(mode Mode, stopwords []string, stem bool) *Dict {
	d := &Dict{mode: mode, stem: stem}
	d.stopwords = make(map[uint64]struct{}, len(stopwords))
	d.stopSorted = make([]uint64, 0, len(stopwords))
	for _, w := range stopwords {
		h := crcWord([]byte(w))
		d.stopwords[h] = struct{}{}
		d.stopSorted = append(d.stopSorted, h)
	}
	sort.Slice(d.stopSorted, func(i, j int) bool { return d.stopSorted[i] < d.stopSorted[j] })
	if mode == ModeKeywords {
		d.offsets = make(map[string]int)
	}
	return d
}

// IsStopword reports whether a word (already folded) is on the
// stop-word list, via binary search over the sorted hash array (spec
// §4.3, "stopwords: sorted id array, binary search at index and query
// time" — mirrors the source's dict_crc.cpp ordering).
func (d *Dict) IsStopword(word []byte) bool {
	h := crcWord(word)
	i := sort.Search(len(d.stopSorted), func(i int) bool { return d.stopSorted[i] >= h })
	return i < len(d.stopSorted) && d.stopSorted[i] == h
}

// GetWordID resolves word to its id, applying the stemmer unless the
// caller has wrapped it in the nonstemmed markers. A stop-word
// resolves to 0.
func (d *Dict) GetWordID(word []byte) schema.WordID {
	if len(word) >= 2 && word[0] == MagicHeadNonstemmed && word[len(word)-1] == MagicTailNonstemmed {
		return d.GetWordIDNonstemmed(word[1 : len(word)-1])
	}
	return d.getWordID(word, d.stem)
}

// GetWordIDNonstemmed resolves word to its id without running the
// stemmer, regardless of the Dict's configured stem setting (spec
// §4.3, "exact-form lookup").
func (d *Dict) GetWordIDNonstemmed(word []byte) schema.WordID {
	return d.getWordID(word, false)
}

// GetWordIDWithMarkers is the query-time entry point for a term
// written with an explicit =word / *word morphology override: callers
// translate the surface marker into the two nonstemmed magic bytes and
// hand the wrapped form to GetWordID.
func GetWordIDWithMarkers(word []byte) []byte {
	out := make([]byte, 0, len(word)+2)
	out = append(out, MagicHeadNonstemmed)
	out = append(out, word...)
	out = append(out, MagicTailNonstemmed)
	return out
}

func (d *Dict) getWordID(word []byte, stem bool) schema.WordID {
	if d.IsStopword(word) {
		return 0
	}
	text := word
	if stem {
		text = []byte(snowballeng.Stem(string(word), false))
	}
	switch d.mode {
	case ModeKeywords:
		return schema.WordID(d.keywordOffset(string(text)))
	default:
		return schema.WordID(crcWord(text))
	}
}

// keywordOffset assigns (or reuses) a dense arena slot for text. Slots
// are handed out in first-seen order, so ids are only stable for the
// lifetime of this Dict (spec §4.3, "not stable across builds").
func (d *Dict) keywordOffset(text string) int {
	if off, ok := d.offsets[text]; ok {
		return off
	}
	off := len(d.arena)
	d.arena = append(d.arena, text)
	d.offsets[text] = off
	return off
}

// crcWord hashes word's bytes with FNV-64a, standing in for the
// source's CRC32 word hash: both are order-sensitive, collision-rare
// hashes over raw bytes, and the spec doesn't mandate a specific
// polynomial, only that the hash be reproducible build-to-query.
func crcWord(word []byte) uint64 {
	h := fnv.New64a()
	h.Write(word)
	return h.Sum64()
}
