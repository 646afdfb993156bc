// Package build implements the indexer-side components of spec §4.4-§4.6
// (C4 hit buffer/external sorter, C5 attribute builder, C6 hit/posting
// writer): everything that turns a stream of tokenized documents into
// the sorted on-disk doclist/hitlist/attribute files a wordlist and
// qword reader can later serve queries from.
package build

import (
	"container/heap"
	"sort"

	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/schema"
	"github.com/wizenheimer/ftidx/zip"
)

// Hit is one (word, doc, position) triple collected while tokenizing a
// document (spec §4.4).
type Hit struct {
	WordID schema.WordID
	DocID  schema.DocID
	Pos    schema.Hitpos
}

// lessHit orders hits by (word_id, doc_id, position_in_field) per
// spec §4.4's sort contract, so a single linear pass of the sorted
// stream can group by word then by doc.
func lessHit(a, b Hit) bool {
	if a.WordID != b.WordID {
		return a.WordID < b.WordID
	}
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.Pos < b.Pos
}

// HitBuffer accumulates hits in memory up to a capacity budget and
// flushes sorted runs ("blocks") when full, mirroring the source's
// bounded hit pool (spec §4.4: "Hit pool ... size mem_limit/24
// bytes"). Each flushed block is kept in memory as a zip-encoded
// []byte; blocks are never spilled to a temp file, and Block exposes
// no accessor for its encoded bytes.
type HitBuffer struct {
	capacity int
	pending  []Hit
	blocks   []Block
}

// Block is one sorted, flushed run of hits. Each hit is encoded as a
// word-id marker (the full word id when the word changes, 0 when it
// repeats), the doc-id delta against the previous hit of the same
// word, and the position delta against the previous hit of the same
// doc.
type Block struct {
	data []byte
	n    int
}

// NewHitBuffer creates a buffer that flushes every capacity hits.
func NewHitBuffer(capacity int) *HitBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &HitBuffer{capacity: capacity}
}

// Add appends one hit, flushing automatically once capacity is reached.
func (b *HitBuffer) Add(h Hit) error {
	b.pending = append(b.pending, h)
	if len(b.pending) >= b.capacity {
		return b.Flush()
	}
	return nil
}

// Flush sorts whatever is pending and appends it as a new block. A
// no-op if nothing is pending.
func (b *HitBuffer) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	sort.Slice(b.pending, func(i, j int) bool { return lessHit(b.pending[i], b.pending[j]) })
	blk, err := encodeBlock(b.pending)
	if err != nil {
		return err
	}
	b.blocks = append(b.blocks, blk)
	b.pending = b.pending[:0]
	return nil
}

func encodeBlock(hits []Hit) (Block, error) {
	w := zip.NewWriter()
	var lastWord schema.WordID
	var lastDoc uint64
	var lastPos uint64
	for i, h := range hits {
		if i == 0 || h.WordID != lastWord {
			w.Uint64(uint64(h.WordID))
			lastWord = h.WordID
			lastDoc = 0
			lastPos = 0
		} else {
			w.Uint64(0) // word-id delta 0 marks "same word as previous hit"
		}
		if uint64(h.DocID) != lastDoc {
			lastPos = 0
		}
		w.Delta(uint64(h.DocID), lastDoc)
		lastDoc = uint64(h.DocID)
		w.Delta(uint64(h.Pos), lastPos)
		lastPos = uint64(h.Pos)
	}
	return Block{data: w.Bytes(), n: len(hits)}, nil
}

// decodeBlock inverts encodeBlock, rebuilding the exact Hit slice.
func decodeBlock(blk Block) ([]Hit, error) {
	r := zip.NewReader(blk.data)
	hits := make([]Hit, 0, blk.n)
	var word schema.WordID
	var doc uint64
	var pos uint64
	first := true
	for i := 0; i < blk.n; i++ {
		wd, err := r.Uint64()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "build", "read word-id marker", err)
		}
		if wd != 0 || first {
			word = schema.WordID(wd)
			doc = 0
			pos = 0
			first = false
		}
		prevDoc := doc
		doc, err = r.Delta(doc)
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "build", "read doc-id delta", err)
		}
		if doc != prevDoc {
			pos = 0
		}
		pos, err = r.Delta(pos)
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "build", "read position delta", err)
		}
		hits = append(hits, Hit{WordID: word, DocID: schema.DocID(doc), Pos: schema.Hitpos(pos)})
	}
	return hits, nil
}

// blockCursor walks one decoded block in order, for the k-way merge.
type blockCursor struct {
	hits []Hit
	pos  int
}

func (c *blockCursor) peek() (Hit, bool) {
	if c.pos >= len(c.hits) {
		return Hit{}, false
	}
	return c.hits[c.pos], true
}

func (c *blockCursor) advance() { c.pos++ }

// cursorHeap is a min-heap over block cursors ordered by their current
// head hit, implementing the spec's "binary heap over bins" merge
// (spec §4.4).
type cursorHeap []*blockCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	hi, _ := h[i].peek()
	hj, _ := h[j].peek()
	return lessHit(hi, hj)
}
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*blockCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merge drains every flushed block (plus whatever is still pending, by
// flushing it first) into one globally sorted hit stream, per spec
// §4.4's merge phase. It returns the full materialized result; a
// caller streaming into C6 can instead use MergeInto to avoid holding
// the entire result in memory twice.
func (b *HitBuffer) Merge() ([]Hit, error) {
	var out []Hit
	err := b.MergeInto(func(h Hit) error {
		out = append(out, h)
		return nil
	})
	return out, err
}

// MergeInto performs the same k-way merge as Merge but streams each
// hit to sink instead of materializing the full result, so a caller
// like the hit builder (C6) never needs to hold two full copies.
func (b *HitBuffer) MergeInto(sink func(Hit) error) error {
	if err := b.Flush(); err != nil {
		return err
	}
	h := make(cursorHeap, 0, len(b.blocks))
	for _, blk := range b.blocks {
		hits, err := decodeBlock(blk)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			continue
		}
		h = append(h, &blockCursor{hits: hits})
	}
	heap.Init(&h)
	for h.Len() > 0 {
		top := h[0]
		hit, _ := top.peek()
		if err := sink(hit); err != nil {
			return err
		}
		top.advance()
		if _, ok := top.peek(); !ok {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}
	return nil
}

// BlockCount reports how many flushed blocks are waiting to be merged
// (pending hits not yet flushed are not counted).
func (b *HitBuffer) BlockCount() int { return len(b.blocks) }
