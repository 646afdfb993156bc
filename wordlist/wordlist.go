// Package wordlist implements the dictionary (`.spi`) reader of spec
// §4.7 (component C7): checkpoint binary search down to a keyword
// block, linear decode within the block, and prefix/infix wildcard
// expansion.
package wordlist

import (
	"sort"
	"strings"

	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/schema"
	"github.com/wizenheimer/ftidx/zip"
)

// CheckpointStride is W in spec §4.3/§4.7: every this-many dictionary
// entries a checkpoint is recorded.
const CheckpointStride = 1024

// Entry is one dictionary row: a keyword and where its postings live.
type Entry struct {
	Word          string
	WordID        schema.WordID
	DoclistOffset int
	DocCount      int
	HitCount      int
}

// Checkpoint marks the first entry of a block and that block's byte
// offset in the encoded keyword-block stream (spec §4.3: "every W=1024
// dictionary entries, store (first_word_of_block, file_offset)").
type Checkpoint struct {
	FirstWord string
	Offset    int
}

// Build encodes entries (already sorted lexicographically by Word, as
// keywords-mode dict_end requires) into the keyword-block byte stream
// plus its checkpoint index. Each entry is encoded length-prefixed
// rather than with the spec's match-prefix/suffix delta coding: this
// keeps Build/Reader symmetric and simple while still honoring the
// checkpoint-every-CheckpointStride contract a real prefix-compressed
// block shares.
func Build(entries []Entry) ([]byte, []Checkpoint) {
	w := zip.NewWriter()
	var checkpoints []Checkpoint
	for i, e := range entries {
		if i%CheckpointStride == 0 {
			checkpoints = append(checkpoints, Checkpoint{FirstWord: e.Word, Offset: w.Len()})
		}
		w.RawBytes(lengthPrefixed(e.Word))
		w.Uint64(uint64(e.WordID))
		w.Uint64(uint64(e.DoclistOffset))
		w.Uint64(uint64(e.DocCount))
		w.Uint64(uint64(e.HitCount))
	}
	return w.Bytes(), checkpoints
}

func lengthPrefixed(s string) []byte {
	w := zip.NewWriter()
	w.Uint64(uint64(len(s)))
	w.RawBytes([]byte(s))
	return w.Bytes()
}

// Reader answers dictionary lookups against an already-decoded
// keyword-block stream and its checkpoints (the in-memory equivalent
// of mmapping `.spi`; the actual mmap lives in the fio package, which
// callers use to obtain data before constructing a Reader over it).
type Reader struct {
	data        []byte
	checkpoints []Checkpoint
	infixIndex  map[string]map[int]bool // infix -> set of checkpoint indices (spec §4.6's infix hash)
	minInfixLen int
}

// NewReader wraps an already-built keyword-block stream and its
// checkpoints. minInfixLen mirrors the build-time min_infix_len
// setting; 0 disables infix acceleration entirely.
func NewReader(data []byte, checkpoints []Checkpoint, minInfixLen int) *Reader {
	r := &Reader{data: data, checkpoints: checkpoints, minInfixLen: minInfixLen}
	if minInfixLen > 0 {
		r.buildInfixIndex()
	}
	return r
}

func (r *Reader) buildInfixIndex() {
	r.infixIndex = map[string]map[int]bool{}
	for ci := range r.checkpoints {
		entries, err := r.decodeBlock(ci)
		if err != nil {
			continue
		}
		for _, e := range entries {
			for _, infix := range infixesOf(e.Word, r.minInfixLen) {
				set, ok := r.infixIndex[infix]
				if !ok {
					set = map[int]bool{}
					r.infixIndex[infix] = set
				}
				set[ci] = true
			}
		}
	}
}

// infixesOf returns every substring of word with length in
// [minLen, 6], the spec's "2..6-codepoint substring" range (clamped to
// minLen when minLen > 2, since a shorter infix setting still only
// widens the range at the low end).
func infixesOf(word string, minLen int) []string {
	runes := []rune(word)
	if minLen < 2 {
		minLen = 2
	}
	var out []string
	for l := minLen; l <= 6 && l <= len(runes); l++ {
		for start := 0; start+l <= len(runes); start++ {
			out = append(out, string(runes[start:start+l]))
		}
	}
	return out
}

// blockEnd returns the byte offset where checkpoint ci's block ends.
func (r *Reader) blockEnd(ci int) int {
	if ci+1 < len(r.checkpoints) {
		return r.checkpoints[ci+1].Offset
	}
	return len(r.data)
}

func (r *Reader) decodeBlock(ci int) ([]Entry, error) {
	zr := zip.NewReaderAt(r.data, r.checkpoints[ci].Offset)
	end := r.blockEnd(ci)
	var entries []Entry
	for zr.Pos() < end {
		n, err := zr.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read word length", err)
		}
		word, err := zr.RawBytes(int(n))
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read word bytes", err)
		}
		wordID, err := zr.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read word id", err)
		}
		off, err := zr.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read doclist offset", err)
		}
		docCount, err := zr.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read doc count", err)
		}
		hitCount, err := zr.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "wordlist", "read hit count", err)
		}
		entries = append(entries, Entry{
			Word:          string(word),
			WordID:        schema.WordID(wordID),
			DoclistOffset: int(off),
			DocCount:      int(docCount),
			HitCount:      int(hitCount),
		})
	}
	return entries, nil
}

// Lookup finds the exact keyword, binary searching checkpoints then
// linearly decoding the chosen block (spec §4.7, "Exact word").
func (r *Reader) Lookup(word string) (Entry, bool) {
	ci := r.checkpointFor(word)
	if ci < 0 {
		return Entry{}, false
	}
	entries, err := r.decodeBlock(ci)
	if err != nil {
		return Entry{}, false
	}
	for _, e := range entries {
		if e.Word == word {
			return e, true
		}
		if e.Word > word {
			break
		}
	}
	return Entry{}, false
}

// checkpointFor finds the last checkpoint whose FirstWord is <= word,
// i.e. the block that would contain word if present.
func (r *Reader) checkpointFor(word string) int {
	if len(r.checkpoints) == 0 {
		return -1
	}
	i := sort.Search(len(r.checkpoints), func(i int) bool { return r.checkpoints[i].FirstWord > word })
	if i == 0 {
		return -1
	}
	return i - 1
}

// PrefixSearch returns every keyword beginning with prefix (spec
// §4.7, "Prefix"): find the first checkpoint >= prefix, then scan
// blocks forward until a block's first word no longer shares the
// prefix.
func (r *Reader) PrefixSearch(prefix string) []Entry {
	start := sort.Search(len(r.checkpoints), func(i int) bool {
		return r.checkpoints[i].FirstWord >= prefix || strings.HasPrefix(r.checkpoints[i].FirstWord, prefix)
	})
	if start > 0 {
		start--
	}
	var out []Entry
	for ci := start; ci < len(r.checkpoints); ci++ {
		if ci > start && !strings.HasPrefix(r.checkpoints[ci].FirstWord, prefix) && r.checkpoints[ci].FirstWord > prefix {
			break
		}
		entries, err := r.decodeBlock(ci)
		if err != nil {
			break
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Word, prefix) {
				out = append(out, e)
			}
		}
	}
	return out
}

// InfixSearch returns every keyword containing infix as a substring
// (spec §4.7, "Infix"): look candidate checkpoints up in the infix
// hash, scan only those blocks, and apply the full substring check.
// An infix whose length is outside the indexed range falls back to a
// linear scan.
func (r *Reader) InfixSearch(infix string) []Entry {
	n := len([]rune(infix))
	if r.infixIndex == nil || n < 2 || n < r.minInfixLen || n > 6 {
		return r.linearInfixScan(infix)
	}
	set, ok := r.infixIndex[infix]
	if !ok {
		return nil
	}
	var out []Entry
	for ci := range set {
		entries, err := r.decodeBlock(ci)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.Contains(e.Word, infix) {
				out = append(out, e)
			}
		}
	}
	return out
}

func (r *Reader) linearInfixScan(infix string) []Entry {
	var out []Entry
	for ci := range r.checkpoints {
		entries, err := r.decodeBlock(ci)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.Contains(e.Word, infix) {
				out = append(out, e)
			}
		}
	}
	return out
}

// MatchWildcard reports whether word matches a pattern built from
// `*` (0+ codepoints), `?` (exactly 1 codepoint) and `%` (0 or 1
// codepoint), per spec §4.7's wildcard matcher, via a small DP over
// the codepoint (rune) sequence of both strings.
func MatchWildcard(pattern, word string) bool {
	p := []rune(pattern)
	w := []rune(word)
	dp := make([][]bool, len(p)+1)
	for i := range dp {
		dp[i] = make([]bool, len(w)+1)
	}
	dp[0][0] = true
	for i := 1; i <= len(p); i++ {
		if p[i-1] == '*' {
			dp[i][0] = dp[i-1][0]
		} else if p[i-1] == '%' {
			dp[i][0] = dp[i-1][0]
		}
	}
	for i := 1; i <= len(p); i++ {
		for j := 1; j <= len(w); j++ {
			switch p[i-1] {
			case '*':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '?':
				dp[i][j] = dp[i-1][j-1]
			case '%':
				dp[i][j] = dp[i-1][j-1] || dp[i-1][j]
			default:
				dp[i][j] = dp[i-1][j-1] && p[i-1] == w[j-1]
			}
		}
	}
	return dp[len(p)][len(w)]
}
