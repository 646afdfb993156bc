// Package qword implements the posting-list reader of spec §4.4
// (component C8): walking one word's doc-id stream with skip-list
// assisted seeking, and decoding the per-document hit list behind it.
//
// The navigation shape — "hold a cursor over one word's postings,
// advance it, or jump it forward to a target" — is the same contract
// the teacher's InvertedIndex gave its in-memory postings (there
// called First/Last/Next/Previous); this package re-derives it over a
// delta-varint byte stream with periodic skip points instead of a Go
// slice, since that's what the on-disk .spd doclist actually is.
package qword

import (
	"sort"

	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/schema"
	"github.com/wizenheimer/ftidx/zip"
)

// SkipStride is B in spec §4, the number of docs between consecutive
// skip-list entries; below this the reader just scans linearly.
const SkipStride = 128

// SkipEntry records the id of the Nth*SkipStride document in a doclist
// and the byte offset just after that document's delta, so SkipTo can
// resume decoding there instead of decoding every delta in between.
type SkipEntry struct {
	DocID  schema.DocID
	Offset int
}

// Word is a read cursor over one word's posting list: the delta-coded
// doc-id stream plus its skip list.
type Word struct {
	doclist  []byte
	skiplist []SkipEntry
	hitless  bool // true if this word's postings carry no hit positions (spec's "hitless word")

	r       *zip.Reader
	lastDoc schema.DocID
	done    bool
}

// NewWord builds a reader over an already-decoded doclist/skiplist
// pair, as produced by the build package's hit builder (C6) or read
// back by the wordlist package (C7).
func NewWord(doclist []byte, skiplist []SkipEntry, hitless bool) *Word {
	w := &Word{doclist: doclist, skiplist: skiplist, hitless: hitless}
	w.Rewind()
	return w
}

// Rewind resets the cursor to before the first document.
func (w *Word) Rewind() {
	w.r = zip.NewReader(w.doclist)
	w.lastDoc = 0
	w.done = false
}

// GetNextDoc advances to and returns the next document id in the
// posting list (spec §4.4, "GetNextDoc"). ok is false once the list is
// exhausted.
func (w *Word) GetNextDoc() (schema.DocID, bool, error) {
	if w.done {
		return 0, false, nil
	}
	if w.r.Len() == 0 {
		w.done = true
		return 0, false, nil
	}
	delta, err := w.r.Uint64()
	if err != nil {
		return 0, false, ftidxerr.Wrap(ftidxerr.Corrupt, "qword", "read doc-id delta", err)
	}
	w.lastDoc += schema.DocID(delta)
	return w.lastDoc, true, nil
}

// SkipTo advances the cursor to the first document id >= target,
// using the skip list to avoid decoding every intervening delta (spec
// §4.4, "SkipTo"). It returns that document id, or ok=false if the
// list is exhausted before reaching target.
func (w *Word) SkipTo(target schema.DocID) (schema.DocID, bool, error) {
	if target > w.lastDoc {
		w.jumpNear(target)
	}
	for {
		doc, ok, err := w.GetNextDoc()
		if err != nil || !ok {
			return 0, false, err
		}
		if doc >= target {
			return doc, true, nil
		}
	}
}

// jumpNear repositions the reader just past the last skip entry whose
// doc id is strictly less than target, so the subsequent linear
// GetNextDoc calls only need to cross at most SkipStride-1 entries to
// reach it. Each SkipEntry.Offset points immediately *after* that
// entry's own delta has been decoded (DocID is already "consumed"), so
// resuming from it must not re-read that same document.
func (w *Word) jumpNear(target schema.DocID) {
	if len(w.skiplist) == 0 {
		return
	}
	i := sort.Search(len(w.skiplist), func(i int) bool { return w.skiplist[i].DocID >= target })
	if i == 0 {
		return // target precedes every skip entry; a linear scan from the start is required
	}
	entry := w.skiplist[i-1]
	w.r = zip.NewReaderAt(w.doclist, entry.Offset)
	w.lastDoc = entry.DocID
	w.done = false
}

// HitList decodes the delta-coded hit positions stored for one
// document (spec §4.4, "hit list decode"). A hitless word has none;
// callers should check Word.Hitless before calling this.
func HitList(data []byte) ([]schema.Hitpos, error) {
	r := zip.NewReader(data)
	var hits []schema.Hitpos
	var last uint32
	for r.Len() > 0 {
		d, err := r.Uint32()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "qword", "read hit delta", err)
		}
		last += d
		hits = append(hits, schema.Hitpos(last))
	}
	return hits, nil
}

// Hitless reports whether this word's postings carry hit positions at
// all (spec §4.4, "hitless-word short-circuit": a pure existence word
// can skip hit-list decoding on the query path entirely).
func (w *Word) Hitless() bool { return w.hitless }
