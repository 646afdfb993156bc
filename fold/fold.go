// Package fold implements the codepoint-classification table that the
// tokenizer folds every rune through before it becomes part of a token
// (spec §4.1, component C1).
//
// ═══════════════════════════════════════════════════════════════════
// WHY A SPARSE TABLE INSTEAD OF unicode.ToLower?
// ═══════════════════════════════════════════════════════════════════
// Case folding here is inseparable from tokenizer semantics: the same
// table that lowercases a codepoint also says whether it is a word
// character, a hard boundary, a "special" (indexed as its own
// one-rune token), an ignorable combining mark, a blended character
// (simultaneously word-char and separator), or part of an n-gram
// pair. unicode.ToLower only answers the first question, and folding
// at build time must be reproducible byte-for-byte at query time
// against the same table (including any runtime add_remap calls) or
// word ids will not match. A flat Go map would work too, but the source's
// sparse two-level chunk table is what the rest of the pack's authors
// would recognize, and it is what lets "lightweight clone" share
// immutable chunks across concurrent queries without copying.
package fold

import "hash/fnv"

// Flag is a bitset of per-codepoint properties.
type Flag uint8

const (
	FlagSpecial  Flag = 1 << iota // indexed as its own one-character token
	FlagBoundary                  // always ends the current token
	FlagIgnore                    // discarded (combining marks, soft hyphen, ...)
	FlagBlend                     // blended: both word-char and separator
	FlagNgram                     // part of an n-gram/bigram-eligible char class
	FlagDual                      // participates in case-folding pairs with asymmetric flags
)

const (
	chunkBits  = 8
	chunkSize  = 1 << chunkBits // 0x100 codepoints per chunk
	numChunks  = 0x300          // 0x30000 codepoints total (spec §4.1)
	chunkMask  = chunkSize - 1
)

// entry packs a folded codepoint (low 24 bits) and flags (high 8 bits)
// into one 32-bit word, exactly as spec §4.1 describes.
type entry uint32

func makeEntry(folded rune, f Flag) entry {
	return entry(uint32(folded)&0x00FFFFFF | uint32(f)<<24)
}

func (e entry) codepoint() rune { return rune(uint32(e) & 0x00FFFFFF) }
func (e entry) flags() Flag     { return Flag(uint32(e) >> 24) }

// chunk is one 0x100-entry page of the table. Unpopulated chunks are
// left nil so that the common case (a script nobody remapped) costs a
// single nil check rather than 256 zeroed words.
type chunk = *[chunkSize]entry

// Table is the lowercase/classification table. The zero value is an
// empty table (no remaps applied yet); use New to get one seeded with
// the default Unicode-aware folding rules.
type Table struct {
	chunks [numChunks]chunk
	// owned marks which chunks this Table allocated itself, as
	// opposed to chunks shared read-only from a "heavy" parent via
	// Clone. Mutating a non-owned chunk in place would corrupt every
	// sibling clone, so AddRemap always copy-on-writes through this.
	owned [numChunks]bool
}

// New returns a table seeded with the built-in ASCII/Latin folding
// rules: letters lowercase, digits and letters are word chars,
// whitespace is a boundary, control characters and combining marks
// are ignored, and codepoints below U+20 are left unset. Callers layer index-specific remaps (blend_chars, ngram
// chars, charset_table) on top with AddRemap.
func New() *Table {
	t := &Table{}
	t.seedDefaults()
	return t
}

func (t *Table) chunkIndex(cp rune) (int, int, bool) {
	if cp < 0 || int(cp) >= numChunks*chunkSize {
		return 0, 0, false
	}
	return int(cp) >> chunkBits, int(cp) & chunkMask, true
}

func (t *Table) ensureOwnedChunk(ci int) chunk {
	if t.chunks[ci] != nil && t.owned[ci] {
		return t.chunks[ci]
	}
	nc := new([chunkSize]entry)
	if t.chunks[ci] != nil {
		*nc = *t.chunks[ci]
	}
	t.chunks[ci] = nc
	t.owned[ci] = true
	return nc
}

// ToLower maps a codepoint to its folded form and classification
// flags. It returns (0, 0) for codepoints outside the table's range
// and for unpopulated chunks, matching the source's treatment of
// whitespace/separators as "nothing to remember".
func (t *Table) ToLower(cp rune) (rune, Flag) {
	ci, off, ok := t.chunkIndex(cp)
	if !ok {
		return 0, 0
	}
	c := t.chunks[ci]
	if c == nil {
		return 0, 0
	}
	e := c[off]
	return e.codepoint(), e.flags()
}

// AddRemap merges [lo,hi] into the table, folding each codepoint to
// folded+(cp-lo) and OR-ing in extra flags. Remapping below U+20 is
// refused outright (control characters must never become word
// characters); an out-of-range hi is clamped down with no error, the
// "warns-clamps" behavior spec §4.1 calls for — logged by the caller,
// since this package has no logger dependency of its own.
func (t *Table) AddRemap(lo, hi, folded rune, extra Flag) {
	if lo < 0x20 {
		folded += 0x20 - lo
		lo = 0x20
	}
	if hi >= numChunks*chunkSize {
		hi = numChunks*chunkSize - 1
	}
	if lo > hi {
		return
	}
	for cp := lo; cp <= hi; cp++ {
		ci, off, ok := t.chunkIndex(cp)
		if !ok {
			continue
		}
		c := t.ensureOwnedChunk(ci)
		prev := c[off]
		f := prev.flags() | extra
		fc := folded + (cp - lo)
		c[off] = makeEntry(fc, f)
	}
}

// Fingerprint returns an FNV-1a hash of the populated portion of the
// table, used to detect an index built with one lowercaser being
// opened by a process configured with an incompatible one (spec
// §4.1, "fingerprint").
func (t *Table) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for ci, c := range t.chunks {
		if c == nil {
			continue
		}
		for off, e := range c {
			if e == 0 {
				continue
			}
			cp := rune(ci<<chunkBits | off)
			v := uint64(cp)<<32 | uint64(uint32(e))
			putUint64(buf[:], v)
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Clone returns a lightweight, read-only-sharing clone: every chunk
// pointer is shared with the parent, and AddRemap on the clone
// copy-on-writes just that chunk rather than mutating the parent's
// (spec §4.1 "clone semantics"; spec §9 "lightweight clone of
// lowercaser"). This is what a per-query tokenizer gets.
func (t *Table) Clone() *Table {
	clone := &Table{chunks: t.chunks}
	return clone
}

// CloneHeavy returns a deep copy: every populated chunk is duplicated
// so the clone can be mutated (e.g. by the indexer loading
// index-specific charset_table entries) without affecting the
// original. This is what the indexer gets.
func (t *Table) CloneHeavy() *Table {
	clone := &Table{}
	for i, c := range t.chunks {
		if c == nil {
			continue
		}
		nc := new([chunkSize]entry)
		*nc = *c
		clone.chunks[i] = nc
		clone.owned[i] = true
	}
	return clone
}
