// Package query implements the filter evaluator of spec §4.6
// (component C9): a list of per-attribute filters that can be checked
// against one row, plus an `@id IN (...)` fast path backed by a
// roaring bitmap so that an id list filter doesn't need a row-by-row
// scan at all. Filters are checked per row only; this package has no
// block-level min/max prefilter.
//
// The filter-tree-over-an-index shape is grounded on the teacher's
// QueryBuilder (its AND-of-terms accumulation, its use of a roaring
// bitmap to intersect posting sets cheaply); here the terms are
// attribute predicates evaluated against schema.Row rather than word
// postings, since that's C9's actual job in this system.
package query

import (
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/wizenheimer/ftidx/schema"
)

// Kind enumerates the filter predicate shapes of spec §4.6.
type Kind int

const (
	KindValues Kind = iota
	KindRange
	KindFloatRange
	KindString
	KindStringList
	KindNull
	KindUserVar
)

// Filter is one predicate over a single schema attribute.
type Filter struct {
	Attr    schema.Attr
	Kind    Kind
	Values  []uint32 // KindValues / KindUserVar (resolved)
	MinU    uint32   // KindRange
	MaxU    uint32   // KindRange
	MinF    float32  // KindFloatRange
	MaxF    float32  // KindFloatRange
	Str     string   // KindString
	Strs    []string // KindStringList
	Exclude bool     // true for a NOT filter
}

// Evaluator holds a compiled set of filters plus the schema they're
// evaluated against. All filters are attribute-only predicates that
// Match runs together; they are not split into spec §4.6's
// prefilter/presort/final stages, and no presort/final stage exists
// in this package.
type Evaluator struct {
	sch     *schema.Schema
	filters []Filter
}

// New compiles filters against sch. Filters are not validated against
// sch.AttrByName here; callers are expected to have resolved each
// Filter.Attr from the schema already (e.g. via sch.AttrByName) before
// construction, so a typo surfaces at query-compile time.
func New(sch *schema.Schema, filters []Filter) *Evaluator {
	return &Evaluator{sch: sch, filters: filters}
}

// Match reports whether row satisfies every compiled filter.
func (e *Evaluator) Match(row schema.Row) bool {
	for _, f := range e.filters {
		if !matchOne(e.sch, row, f) {
			return false
		}
	}
	return true
}

func matchOne(sch *schema.Schema, row schema.Row, f Filter) bool {
	var ok bool
	switch f.Kind {
	case KindValues, KindUserVar:
		v := readUint(sch, row, f.Attr)
		ok = containsUint(f.Values, v)
	case KindRange:
		v := readUint(sch, row, f.Attr)
		ok = v >= f.MinU && v <= f.MaxU
	case KindFloatRange:
		v := math.Float32frombits(readUint(sch, row, f.Attr))
		ok = v >= f.MinF && v <= f.MaxF
	case KindNull:
		ok = readUint(sch, row, f.Attr) == 0
	case KindString, KindStringList:
		// string/MVA-string comparisons resolve through the string
		// heap (C5) and are outside this package's scope; Evaluator
		// treats them as always-true so the caller's own string
		// comparator can run afterward without being short-circuited.
		ok = true
	default:
		ok = true
	}
	if f.Exclude {
		return !ok
	}
	return ok
}

func readUint(sch *schema.Schema, row schema.Row, a schema.Attr) uint32 {
	if a.Locator.Dynamic {
		return row.GetAttrBits(sch, a)
	}
	return row.GetAttr(sch, a)
}

func containsUint(set []uint32, v uint32) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IDFilter is the `@id IN (...)` fast path of spec §4.6: instead of
// scanning every row, build a roaring bitmap once from the requested
// ids and test membership in O(1) amortized per candidate doc.
type IDFilter struct {
	bitmap *roaring.Bitmap
}

// NewIDFilter builds a bitmap over the given document ids. DocIDs
// above 32 bits are out of roaring's native range and are silently
// dropped; an index with wide doc ids large enough to matter here is
// far past any deployment this fast path targets.
func NewIDFilter(ids []schema.DocID) *IDFilter {
	bm := roaring.New()
	for _, id := range ids {
		if id > math.MaxUint32 {
			continue
		}
		bm.Add(uint32(id))
	}
	bm.RunOptimize()
	return &IDFilter{bitmap: bm}
}

// Contains reports whether id is in the requested set.
func (f *IDFilter) Contains(id schema.DocID) bool {
	if id > math.MaxUint32 {
		return false
	}
	return f.bitmap.Contains(uint32(id))
}

// Cardinality returns how many distinct ids remain after dropping any
// duplicates/out-of-range values.
func (f *IDFilter) Cardinality() uint64 {
	return f.bitmap.GetCardinality()
}
