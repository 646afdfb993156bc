package fold

import "unicode"

// seedDefaults installs the built-in folding rules every index starts
// from before index-specific charset_table/blend_chars/ngram_chars
// remaps are layered on via AddRemap. It walks the Basic Multilingual
// Plane once at table-construction time; this is an O(0x10000) loop
// that runs once per process, not per token.
func (t *Table) seedDefaults() {
	for cp := rune(0x20); cp < 0x10000; cp++ {
		switch {
		case unicode.IsSpace(cp):
			t.set(cp, 0, FlagBoundary)
		case unicode.IsControl(cp):
			t.set(cp, 0, FlagIgnore)
		case unicode.Is(unicode.Mn, cp):
			// Combining marks: ignored, not boundaries, so that
			// "café" (e + combining acute) folds to the same token
			// whether precomposed or decomposed.
			t.set(cp, 0, FlagIgnore)
		case unicode.IsLetter(cp) || unicode.IsDigit(cp):
			t.set(cp, unicode.ToLower(cp), 0)
		case isASCIIPunct(cp):
			t.set(cp, 0, FlagBoundary|FlagSpecial)
		default:
			t.set(cp, 0, FlagBoundary)
		}
	}
}

func isASCIIPunct(cp rune) bool {
	switch cp {
	case '!', '"', '#', '$', '%', '&', '\'', '(', ')', '*', '+', ',', '-',
		'.', '/', ':', ';', '<', '=', '>', '?', '@', '[', '\\', ']', '^',
		'_', '`', '{', '|', '}', '~':
		return true
	}
	return false
}

func (t *Table) set(cp, folded rune, f Flag) {
	ci, off, ok := t.chunkIndex(cp)
	if !ok {
		return
	}
	c := t.ensureOwnedChunk(ci)
	c[off] = makeEntry(folded, f)
}
