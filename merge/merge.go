// Package merge implements the two-way index merger of spec §4.10
// (component C10): combine two already-built indexes into one,
// applying a row filter and a kill-list, with the newer side winning
// any doc-id collision and the older side's overridden rows recorded
// in a "phantom kill list" so its postings don't leak through.
package merge

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/wizenheimer/ftidx/build"
	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/query"
	"github.com/wizenheimer/ftidx/schema"
)

// Index is an in-memory built index: a row store plus its per-word
// postings, the shape both Merge's inputs and its output share. A
// real on-disk open/save of this shape is the root facade's job; this
// package works purely in terms of already-decoded rows/postings so
// it has no file-format concerns of its own.
type Index struct {
	Schema *schema.Schema
	Rows   []schema.Row // ascending by DocID
	Words  map[schema.WordID]build.WordPostings
}

// Result is Merge's output: the merged rows plus their min/max block
// index (spec §4.10 step 2, "feed its row into a min/max builder") and
// the merged per-word postings plus the DictEntry list a wordlist
// builder (C7) consumes next.
type Result struct {
	Rows     []schema.Row
	Blocks   []build.AttrBlock
	Postings []build.WordPostings
	Entries  []build.DictEntry
}

// Merge combines a and b per spec §4.10. filter may be nil (no row
// filter); killList may be nil (no kill-list). b is treated as the
// newer generation: on a doc-id collision, b's row wins and a's is
// recorded in the phantom kill list, so a's postings for that doc are
// dropped during the posting merge even though the doc id itself
// survives (via b).
func Merge(a, b Index, filter *query.Evaluator, killList *roaring.Bitmap) (Result, error) {
	if len(a.Schema.Attrs) != len(b.Schema.Attrs) {
		return Result{}, ftidxerr.New(ftidxerr.Schema, "merge", "schema attribute count mismatch")
	}

	phantom := roaring.New()
	survivors := roaring.New()
	var outRows []schema.Row

	ai, bi := 0, 0
	for ai < len(a.Rows) || bi < len(b.Rows) {
		var row schema.Row
		switch {
		case bi >= len(b.Rows):
			row = a.Rows[ai]
			ai++
		case ai >= len(a.Rows):
			row = b.Rows[bi]
			bi++
		default:
			da := a.Rows[ai].GetDocID(a.Schema)
			db := b.Rows[bi].GetDocID(b.Schema)
			switch {
			case da < db:
				row = a.Rows[ai]
				ai++
			case da > db:
				row = b.Rows[bi]
				bi++
			default:
				phantom.Add(uint32(da))
				row = b.Rows[bi]
				ai++
				bi++
			}
		}

		id := row.GetDocID(a.Schema)
		if killList != nil && killList.Contains(uint32(id)) {
			continue
		}
		if filter != nil && !filter.Match(row) {
			continue
		}
		survivors.Add(uint32(id))
		outRows = append(outRows, row)
	}

	postings, entries, err := mergePostings(a, b, phantom, survivors)
	if err != nil {
		return Result{}, err
	}

	ab := build.NewAttrBuilder(a.Schema)
	for _, r := range outRows {
		ab.Add(r)
	}
	sortedRows, blocks := ab.Finish()

	return Result{Rows: sortedRows, Blocks: blocks, Postings: postings, Entries: entries}, nil
}

func mergePostings(a, b Index, phantom, survivors *roaring.Bitmap) ([]build.WordPostings, []build.DictEntry, error) {
	seen := map[schema.WordID]bool{}
	var wordIDs []schema.WordID
	for id := range a.Words {
		if !seen[id] {
			seen[id] = true
			wordIDs = append(wordIDs, id)
		}
	}
	for id := range b.Words {
		if !seen[id] {
			seen[id] = true
			wordIDs = append(wordIDs, id)
		}
	}
	sort.Slice(wordIDs, func(i, j int) bool { return wordIDs[i] < wordIDs[j] })

	var allHits []build.Hit
	hitless := map[schema.WordID]bool{}
	for _, id := range wordIDs {
		wpA, inA := a.Words[id]
		wpB, inB := b.Words[id]
		if (inA && wpA.Hitless) || (inB && wpB.Hitless) {
			hitless[id] = true // spec §4.10 step 3: either side hitless -> merged word is hitless
		}
		if inA {
			hits, err := build.DecodeWordPostings(wpA)
			if err != nil {
				return nil, nil, err
			}
			for _, h := range hits {
				if survivors.Contains(uint32(h.DocID)) && !phantom.Contains(uint32(h.DocID)) {
					allHits = append(allHits, h)
				}
			}
		}
		if inB {
			hits, err := build.DecodeWordPostings(wpB)
			if err != nil {
				return nil, nil, err
			}
			for _, h := range hits {
				if survivors.Contains(uint32(h.DocID)) {
					allHits = append(allHits, h)
				}
			}
		}
	}

	hb := build.NewHitBuffer(4096)
	for _, h := range allHits {
		if err := hb.Add(h); err != nil {
			return nil, nil, err
		}
	}
	merged, err := hb.Merge()
	if err != nil {
		return nil, nil, err
	}

	builder := build.NewHitBuilder(hitless)
	postings, entries := builder.Build(merged)
	return postings, entries, nil
}
