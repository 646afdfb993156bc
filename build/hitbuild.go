package build

import (
	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/qword"
	"github.com/wizenheimer/ftidx/schema"
	"github.com/wizenheimer/ftidx/zip"
)

// DictEntry is what the hit builder hands the dictionary builder for
// each closed word (spec §4.6 step 1: "hand the DictEntry to the
// dictionary builder"): where its postings start in the combined
// doclist (the Doclists of Build's output laid end to end, in order)
// and how big they are, which is exactly what a C7 wordlist
// checkpoint needs to locate them later.
type DictEntry struct {
	WordID   schema.WordID
	Offset   int
	DocCount int
	HitCount int
}

// WordPostings is one word's complete built postings: the doc-id
// delta stream a qword.Word reads, its skip list, and the matching
// hitlist plus a parallel per-document offset table into it (the Nth
// document GetNextDoc returns has its hit list at
// HitlistOffsets[n]:HitlistOffsets[n+1]).
//
// This offset-table linkage is this package's own simplification of
// spec §4.6's inline hitlist-offset-in-the-doclist scheme: qword.Word
// (C8) was built to decode a bare doc-id delta stream with no embedded
// per-doc hitlist pointer, so the builder hands the pointers back out
// of band instead of inlining them, keeping C8 simple while still
// letting a caller pair each doc with its hits.
type WordPostings struct {
	WordID         schema.WordID
	Doclist        []byte
	Skiplist       []qword.SkipEntry
	Hitlist        []byte
	HitlistOffsets []int
	Hitless        bool
}

// HitBuilder turns a sorted hit stream into per-word postings (spec
// §4.6, C6). Hits must arrive already sorted by (word_id, doc_id,
// position), exactly what HitBuffer.Merge/MergeInto produce.
type HitBuilder struct {
	hitlessWords map[schema.WordID]bool
}

// NewHitBuilder creates a builder. hitlessWords marks words whose
// postings suppress hit-position emission (spec §4.6, "the word is
// hitless"): their Hitlist stays empty and only the per-word DocCount
// and HitCount of the DictEntry remain. No per-document field mask is
// recorded.
func NewHitBuilder(hitlessWords map[schema.WordID]bool) *HitBuilder {
	return &HitBuilder{hitlessWords: hitlessWords}
}

// Build consumes the full sorted hit stream and returns one
// WordPostings per distinct word, in ascending word-id order, plus the
// parallel DictEntry slice the dictionary builder (C3) consumes to
// write checkpoints.
func (hb *HitBuilder) Build(hits []Hit) ([]WordPostings, []DictEntry) {
	var postings []WordPostings
	var entries []DictEntry

	i := 0
	offset := 0
	for i < len(hits) {
		j := i
		word := hits[i].WordID
		for j < len(hits) && hits[j].WordID == word {
			j++
		}
		wp, entry := hb.buildWord(word, hits[i:j])
		entry.Offset = offset
		offset += len(wp.Doclist)
		postings = append(postings, wp)
		entries = append(entries, entry)
		i = j
	}
	return postings, entries
}

func (hb *HitBuilder) buildWord(word schema.WordID, hits []Hit) (WordPostings, DictEntry) {
	hitless := hb.hitlessWords != nil && hb.hitlessWords[word]

	dw := zip.NewWriter()
	hw := zip.NewWriter()
	var skip []qword.SkipEntry
	var hitlistOffsets []int

	var lastDoc uint64
	docCount := 0
	hitCount := 0

	i := 0
	for i < len(hits) {
		j := i
		doc := hits[i].DocID
		for j < len(hits) && hits[j].DocID == doc {
			j++
		}
		dw.Delta(uint64(doc), lastDoc)
		lastDoc = uint64(doc)
		docCount++
		hitCount += j - i

		hitlistOffsets = append(hitlistOffsets, hw.Len())
		if !hitless {
			var lastPos uint64
			for _, h := range hits[i:j] {
				hw.Delta(uint64(h.Pos), lastPos)
				lastPos = uint64(h.Pos)
			}
		}

		if docCount%qword.SkipStride == 0 {
			skip = append(skip, qword.SkipEntry{DocID: doc, Offset: dw.Len()})
		}
		i = j
	}
	hitlistOffsets = append(hitlistOffsets, hw.Len())
	if docCount <= qword.SkipStride {
		skip = nil // a word with no more than SkipStride docs has no skip list
	}

	return WordPostings{
			WordID:         word,
			Doclist:        dw.Bytes(),
			Skiplist:       skip,
			Hitlist:        hw.Bytes(),
			HitlistOffsets: hitlistOffsets,
			Hitless:        hitless,
		}, DictEntry{
			WordID:   word,
			DocCount: docCount,
			HitCount: hitCount,
		}
}

// DecodeWordPostings inverts buildWord: it walks an already-built
// WordPostings back into its flat Hit stream, one Hit per
// (doc, position) pair (or one zero-position Hit per doc for a
// hitless word, since there is nothing else to recover). Used by the
// merger (C10), which needs to re-flatten two indexes' postings
// before re-running them through a fresh HitBuilder, and reusable by
// the checker (C14) for a build/decode round-trip check.
func DecodeWordPostings(wp WordPostings) ([]Hit, error) {
	w := qword.NewWord(wp.Doclist, wp.Skiplist, wp.Hitless)
	var hits []Hit
	i := 0
	for {
		doc, ok, err := w.GetNextDoc()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if wp.Hitless {
			hits = append(hits, Hit{WordID: wp.WordID, DocID: doc})
			i++
			continue
		}
		if i+1 >= len(wp.HitlistOffsets) {
			return nil, ftidxerr.New(ftidxerr.Corrupt, "build", "hitlist offset table shorter than doc count")
		}
		start, end := wp.HitlistOffsets[i], wp.HitlistOffsets[i+1]
		positions, err := qword.HitList(wp.Hitlist[start:end])
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			hits = append(hits, Hit{WordID: wp.WordID, DocID: doc, Pos: p})
		}
		i++
	}
	return hits, nil
}
