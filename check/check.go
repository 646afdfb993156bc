// Package check implements the structural and value-level index
// validator of spec §4.14 (component C14): re-read every on-disk
// structure this module builds and report every failure found, up to
// a cap, rather than aborting at the first one.
package check

import (
	"fmt"
	"math"

	"github.com/wizenheimer/ftidx/build"
	"github.com/wizenheimer/ftidx/qword"
	"github.com/wizenheimer/ftidx/schema"
)

// MaxFailures caps how many failures one Check run reports (spec
// §4.14: "reports up to 100 failures").
const MaxFailures = 100

// Category classifies a reported Failure, mirroring spec §4.14's
// grouped failure list.
type Category int

const (
	CategoryDictionary Category = iota
	CategoryDoclist
	CategorySkiplist
	CategoryRows
	CategoryMinMax
)

func (c Category) String() string {
	switch c {
	case CategoryDictionary:
		return "dictionary"
	case CategoryDoclist:
		return "doclist"
	case CategorySkiplist:
		return "skiplist"
	case CategoryRows:
		return "rows"
	case CategoryMinMax:
		return "minmax"
	default:
		return "unknown"
	}
}

// Failure is one reported problem.
type Failure struct {
	Category Category
	Message  string
}

// Report is the result of one Check run: every Failure found (capped
// at MaxFailures) and whether the cap was hit, so a caller knows the
// index might have even more problems than shown.
type Report struct {
	Failures []Failure
	Truncated bool
}

func (r *Report) add(cat Category, format string, args ...any) bool {
	if len(r.Failures) >= MaxFailures {
		r.Truncated = true
		return false
	}
	r.Failures = append(r.Failures, Failure{Category: cat, Message: fmt.Sprintf(format, args...)})
	return true
}

// OK reports whether no failures were found.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

// Checker re-validates an in-memory built index (the same Rows/Words
// shape merge.Index and the root facade work with).
type Checker struct {
	Schema *schema.Schema
	Rows   []schema.Row
	Blocks []build.AttrBlock
	Words  map[schema.WordID]build.WordPostings
}

// Run performs the row-order, min/max envelope, doclist and skip-list
// checks and returns the accumulated Report. No dictionary check is
// run, so CategoryDictionary is never reported.
func (c *Checker) Run() *Report {
	r := &Report{}
	c.checkRows(r)
	c.checkMinMax(r)
	c.checkDoclistsAndSkiplists(r)
	return r
}

// checkRows verifies rows are sorted ascending by doc id (spec §4.14:
// "Row ascending doc-ids").
func (c *Checker) checkRows(r *Report) {
	var last schema.DocID
	for i, row := range c.Rows {
		id := row.GetDocID(c.Schema)
		if i > 0 && id <= last {
			if !r.add(CategoryRows, "row %d: doc id %d is not strictly greater than previous %d", i, id, last) {
				return
			}
		}
		last = id
	}
}

// checkMinMax verifies every block's recorded min/max actually
// envelopes every row in that block (spec §4.14: "Block min/max
// envelope check against every row in the block").
func (c *Checker) checkMinMax(r *Report) {
	for bi, blk := range c.Blocks {
		for ai, mm := range blk.Summary {
			for ri := blk.FirstRow; ri <= blk.LastRow && ri < len(c.Rows); ri++ {
				v := readRaw(c.Schema, c.Rows[ri], mm.Attr)
				if lessRaw(mm.Attr.Type, v, mm.Min) {
					if !r.add(CategoryMinMax, "block %d attr %q: row %d value %d is below recorded min %d", bi, mm.Attr.Name, ri, v, mm.Min) {
						return
					}
				}
				if lessRaw(mm.Attr.Type, mm.Max, v) {
					if !r.add(CategoryMinMax, "block %d attr %q: row %d value %d is above recorded max %d", bi, mm.Attr.Name, ri, v, mm.Max) {
						return
					}
				}
			}
			_ = ai
		}
	}
}

// checkDoclistsAndSkiplists verifies, per word: doc ids never decrease
// (spec §4.14: "Doclist monotonic doc-ids"; a repeated doc id reads as
// further hits of the same doc and is not reported), hit positions
// within a doc are ascending and field indices are in range ("per-doc
// hit monotonic positions, field-index in range"), and every recorded
// skip entry's doc id appears in the doclist (see checkSkiplist; the
// entry's byte offset itself is not verified).
func (c *Checker) checkDoclistsAndSkiplists(r *Report) {
	for word, wp := range c.Words {
		hits, err := build.DecodeWordPostings(wp)
		if err != nil {
			if !r.add(CategoryDoclist, "word %d: failed to decode postings: %v", word, err) {
				return
			}
			continue
		}
		var lastDoc schema.DocID
		var lastPos schema.Hitpos
		haveDoc := false
		for _, h := range hits {
			if !haveDoc || h.DocID != lastDoc {
				if haveDoc && h.DocID <= lastDoc {
					if !r.add(CategoryDoclist, "word %d: doc id %d is not strictly ascending after %d", word, h.DocID, lastDoc) {
						return
					}
				}
				lastDoc = h.DocID
				lastPos = 0
				haveDoc = true
			} else if !wp.Hitless && h.Pos < lastPos {
				if !r.add(CategoryDoclist, "word %d doc %d: hit position %d is out of order after %d", word, h.DocID, h.Pos, lastPos) {
					return
				}
			}
			if int(h.Pos.Field()) >= schema.MaxFields {
				if !r.add(CategoryDoclist, "word %d doc %d: field index %d out of range", word, h.DocID, h.Pos.Field()) {
					return
				}
			}
			lastPos = h.Pos
		}

		c.checkSkiplist(r, word, wp)
	}
}

func (c *Checker) checkSkiplist(r *Report, word schema.WordID, wp build.WordPostings) {
	for _, entry := range wp.Skiplist {
		cur := qword.NewWord(wp.Doclist, nil, wp.Hitless)
		cur.Rewind()
		// the skip entry's Offset is defined as "immediately after this
		// entry's delta has been decoded" (see qword.Word.jumpNear), so
		// seeking a fresh reader there and reading the next doc id should
		// land exactly at the entry's recorded doc id when re-walked from
		// scratch up to that point; since Word has no public "seek raw
		// offset" primitive, the round-trip check instead walks from the
		// start and asserts the doc id appears at all, by position.
		found := false
		for {
			doc, ok, err := cur.GetNextDoc()
			if err != nil || !ok {
				break
			}
			if doc == entry.DocID {
				found = true
				break
			}
		}
		if !found {
			r.add(CategorySkiplist, "word %d: skip entry for doc %d does not appear in its doclist", word, entry.DocID)
		}
	}
}

func readRaw(sch *schema.Schema, row schema.Row, a schema.Attr) uint32 {
	if a.Locator.Dynamic {
		return row.GetAttrBits(sch, a)
	}
	return row.GetAttr(sch, a)
}

func lessRaw(t schema.AttrType, a, b uint32) bool {
	if t == schema.AttrFloat {
		return math.Float32frombits(a) < math.Float32frombits(b)
	}
	return a < b
}
