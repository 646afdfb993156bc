package build

import (
	"math"
	"sort"

	"github.com/wizenheimer/ftidx/schema"
)

// AttrBlockSize is K in spec §4.5: the number of rows summarized by
// one min/max block.
const AttrBlockSize = 128

// MinMax is one attribute's summary over a block of rows. Float
// attributes compare bit patterns through math.Float32frombits so the
// same struct serves both comparator kinds the spec calls for
// ("a distinct comparator for float vs unsigned").
type MinMax struct {
	Attr schema.Attr
	Min  uint32
	Max  uint32
}

// AttrBlock is one AttrBlockSize-row summary: first/last row index
// plus one MinMax per schema attribute.
type AttrBlock struct {
	FirstRow int
	LastRow  int
	Summary  []MinMax
}

// AttrBuilder accumulates rows keyed by doc id, and on Finish sorts
// them by DocID and computes the per-block min/max index described by
// spec §4.5's AttrIndexBuilder.
type AttrBuilder struct {
	sch  *schema.Schema
	rows []schema.Row
}

// NewAttrBuilder creates a builder against sch. Every row added must
// have been allocated with make(schema.Row, sch.RowWidth()).
func NewAttrBuilder(sch *schema.Schema) *AttrBuilder {
	return &AttrBuilder{sch: sch}
}

// Add appends one row.
func (b *AttrBuilder) Add(row schema.Row) {
	b.rows = append(b.rows, row)
}

// Finish sorts the accumulated rows by DocID (spec §4.5: "sorts and
// writes"), then computes the min/max block index. It returns the
// sorted rows plus the block summaries; the final (0, N-1) summary
// pair the spec calls for is Blocks[len(Blocks)-1] when there is at
// least one row.
func (b *AttrBuilder) Finish() ([]schema.Row, []AttrBlock) {
	sort.Slice(b.rows, func(i, j int) bool {
		return b.rows[i].GetDocID(b.sch) < b.rows[j].GetDocID(b.sch)
	})

	var blocks []AttrBlock
	for start := 0; start < len(b.rows); start += AttrBlockSize {
		end := start + AttrBlockSize
		if end > len(b.rows) {
			end = len(b.rows)
		}
		blocks = append(blocks, summarizeBlock(b.sch, b.rows, start, end-1))
	}
	if len(b.rows) > 0 {
		blocks = append(blocks, summarizeBlock(b.sch, b.rows, 0, len(b.rows)-1))
	}
	return b.rows, blocks
}

func summarizeBlock(sch *schema.Schema, rows []schema.Row, first, last int) AttrBlock {
	blk := AttrBlock{FirstRow: first, LastRow: last, Summary: make([]MinMax, len(sch.Attrs))}
	for ai, a := range sch.Attrs {
		mm := MinMax{Attr: a}
		for ri := first; ri <= last; ri++ {
			v := readAttrRaw(sch, rows[ri], a)
			if ri == first {
				mm.Min, mm.Max = v, v
				continue
			}
			if less(a.Type, v, mm.Min) {
				mm.Min = v
			}
			if less(a.Type, mm.Max, v) {
				mm.Max = v
			}
		}
		blk.Summary[ai] = mm
	}
	return blk
}

// CarryOverAttrs copies the named attribute columns verbatim from a
// previous generation's rows into newRow, keyed by doc id, instead of
// recomputing them (spec §6's keep_attrs option, grounded in
// neo/index/index_VLN.cpp's rebuild path). Attributes not named in
// keep are left untouched in newRow. Rows with no prior counterpart
// (new documents since the last generation) are skipped; newRow keeps
// whatever value the caller already set for them.
func CarryOverAttrs(sch *schema.Schema, prior map[schema.DocID]schema.Row, newRows []schema.Row, keep []string) {
	if len(keep) == 0 {
		return
	}
	attrs := make([]schema.Attr, 0, len(keep))
	for _, name := range keep {
		if a, ok := sch.AttrByName(name); ok {
			attrs = append(attrs, a)
		}
	}
	for _, row := range newRows {
		old, ok := prior[row.GetDocID(sch)]
		if !ok {
			continue
		}
		for _, a := range attrs {
			v := readAttrRaw(sch, old, a)
			if a.Locator.Dynamic {
				row.SetAttrBits(sch, a, v)
			} else {
				row.SetAttr(sch, a, v)
			}
		}
	}
}

func readAttrRaw(sch *schema.Schema, row schema.Row, a schema.Attr) uint32 {
	if a.Locator.Dynamic {
		return row.GetAttrBits(sch, a)
	}
	return row.GetAttr(sch, a)
}

// less compares two raw attribute words using the comparator the type
// calls for: bit-pattern order for everything except AttrFloat, which
// compares as an IEEE-754 float.
func less(t schema.AttrType, a, b uint32) bool {
	if t == schema.AttrFloat {
		return math.Float32frombits(a) < math.Float32frombits(b)
	}
	return a < b
}
