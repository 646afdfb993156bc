// Package update implements the in-place attribute updater of spec
// §4.11 (component C11): patch fixed-width row attributes and MVA
// (multi-valued) attribute slots against an already-built index
// without rebuilding it, with validation and all-or-nothing rollback.
package update

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/schema"
)

// Patch is one (doc, attr, value) update request (spec §4.11 step 1's
// "(attr_name, type, value, row_ref) tuple").
type Patch struct {
	DocID  schema.DocID
	Attr   schema.Attr
	Value  uint32   // fixed-width attrs
	MVA    []uint32 // MVA attrs (AttrUint32Set/AttrInt64Set); nil for fixed-width
}

// MVAArena is the append-only, tagged-free arena MVA values live in
// (spec §4.11 step 3/4: "store the new arena handle ... free the old
// arena slot"). A slot is identified by its starting offset; freeing
// just marks it unreachable; nothing is reclaimed, mirroring the
// spec's tagged-free-with-generation description rather than
// implementing a real compacting allocator, which is out of scope for
// an index whose lifetime is one process.
type MVAArena struct {
	data   []uint32
	free   map[int]bool
	budget int // max total uint32 words; 0 means unbounded
}

// NewMVAArena creates an empty arena. budget caps the arena's total
// size in uint32 words (spec §4.11 step 3's "if any allocation fails");
// 0 means unbounded. Word 0 is reserved and not counted against the
// budget, so no slot has handle 0 and a zero row value means "no slot".
func NewMVAArena(budget int) *MVAArena {
	return &MVAArena{data: []uint32{0}, free: map[int]bool{}, budget: budget}
}

// Alloc appends values as one new slot and returns its handle
// (starting offset). Format: [count, values...]. ok is false if the
// arena's budget would be exceeded, in which case the arena is left
// unchanged.
func (a *MVAArena) Alloc(values []uint32) (handle int, ok bool) {
	need := len(values) + 1
	if a.budget > 0 && len(a.data)-1+need > a.budget {
		return 0, false
	}
	handle = len(a.data)
	a.data = append(a.data, uint32(len(values)))
	a.data = append(a.data, values...)
	return handle, true
}

// Free marks handle's slot unreachable without compacting the arena.
func (a *MVAArena) Free(handle int) {
	a.free[handle] = true
}

// Get reads back the values stored at handle.
func (a *MVAArena) Get(handle int) []uint32 {
	n := a.data[handle]
	return a.data[handle+1 : handle+1+int(n)]
}

// rollback undoes a sequence of allocations by truncating the arena
// back to its length before the batch started; any Free calls issued
// during the same batch are also undone since nothing was physically
// reclaimed.
func (a *MVAArena) rollback(priorLen int, freedBefore map[int]bool) {
	a.data = a.data[:priorLen]
	a.free = freedBefore
}

// Updater applies Patch batches against a schema/row-store pair plus
// an MVA arena, per spec §4.11's apply/validate/rollback sequence.
type Updater struct {
	sch   *schema.Schema
	rows  map[schema.DocID]schema.Row
	arena *MVAArena

	// Updated tracks which doc-ids were actually touched by the most
	// recent Apply, the "attrs_status" bookkeeping of spec §4.11 step 5
	// condensed to the one bit save_attributes() actually needs: which
	// rows changed.
	Updated *roaring.Bitmap
}

// NewUpdater wraps a row store (keyed by doc id, as an already-open
// index's in-memory working set would be) and its MVA arena.
func NewUpdater(sch *schema.Schema, rows map[schema.DocID]schema.Row, arena *MVAArena) *Updater {
	return &Updater{sch: sch, rows: rows, arena: arena, Updated: roaring.New()}
}

// Apply validates every patch against the schema first (spec §4.11
// step 1: reject non-updatable attrs) and, only if the whole batch
// validates, applies each one; preallocates every MVA slot the batch
// needs before mutating any row so a failed allocation can be rolled
// back without leaving a partial update applied (step 3).
func (u *Updater) Apply(patches []Patch) (int, error) {
	for _, p := range patches {
		if !p.Attr.Updatable {
			return 0, ftidxerr.New(ftidxerr.Schema, "update", "attribute "+p.Attr.Name+" is not updatable")
		}
		if _, ok := u.rows[p.DocID]; !ok {
			return 0, ftidxerr.New(ftidxerr.Schema, "update", "unknown doc id in update batch")
		}
		if p.Attr.Type.IsMVA() && u.arena == nil {
			return 0, ftidxerr.New(ftidxerr.OutOfPool, "update", "MVA patch with no arena configured")
		}
	}

	priorArenaLen := 0
	var freedBefore map[int]bool
	if u.arena != nil {
		priorArenaLen = len(u.arena.data)
		freedBefore = cloneFreeSet(u.arena.free)
	}

	handles := make([]int, len(patches))
	for i, p := range patches {
		if !p.Attr.Type.IsMVA() {
			continue
		}
		h, ok := u.arena.Alloc(p.MVA)
		if !ok {
			u.arena.rollback(priorArenaLen, freedBefore)
			return 0, ftidxerr.New(ftidxerr.OutOfPool, "update", "MVA arena budget exceeded, batch rolled back")
		}
		handles[i] = h
	}

	u.Updated.Clear()
	count := 0
	for i, p := range patches {
		row := u.rows[p.DocID]
		if p.Attr.Type.IsMVA() {
			oldHandle := readAttr(u.sch, row, p.Attr)
			row.SetAttr(u.sch, p.Attr, uint32(handles[i]))
			if oldHandle != 0 {
				u.arena.Free(int(oldHandle))
			}
		} else if p.Attr.Locator.Dynamic {
			row.SetAttrBits(u.sch, p.Attr, p.Value)
		} else {
			row.SetAttr(u.sch, p.Attr, p.Value)
		}
		u.Updated.Add(uint32(p.DocID))
		count++
	}
	return count, nil
}

func readAttr(sch *schema.Schema, row schema.Row, a schema.Attr) uint32 {
	if a.Locator.Dynamic {
		return row.GetAttrBits(sch, a)
	}
	return row.GetAttr(sch, a)
}

func cloneFreeSet(src map[int]bool) map[int]bool {
	out := make(map[int]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
