// Package schema defines the data model shared by every component of
// the index: document and word identifiers, hit positions, the row
// layout of the attribute store, and the schema that describes it
// (spec §3, "Data Model").
package schema

import "fmt"

// DocID is the document identifier. The file formats support both a
// 32-bit and a 64-bit width (spec §3); this module always uses the
// 64-bit Go type and narrows on encode, since narrowing a uint64 that
// is known to fit is cheap and keeps every in-memory computation
// (deltas, comparisons, hashing) free of width-conditional branches.
type DocID uint64

// MaxDocID is the sentinel "end of stream" marker. 0 is reserved and
// is never a valid document id.
const MaxDocID DocID = 1<<64 - 1

// WordID identifies a token. In crc mode it is a hash of the folded
// token; in keywords mode it is a dense per-build arena offset that is
// not stable across rebuilds (spec §3).
type WordID uint64

// FieldIndex is a zero-based index into Schema.Fields.
type FieldIndex uint8

// MaxFields bounds how many full-text fields a single schema may
// declare; it sizes the field-mask bitset used by Hitpos and by the
// doclist's inline field mask.
const MaxFields = 32

// Hitpos packs (field index, in-field position, end-of-field marker)
// into a single 32-bit value, one-based within each field (spec §3).
//
// Layout, low to high bit:
//
//	bits [0,24)  in-field position (1-based)
//	bits [24,29) field index (0..31)
//	bit  29      end-of-field marker
type Hitpos uint32

const (
	hitposPosBits   = 24
	hitposPosMask   = 1<<hitposPosBits - 1
	hitposFieldBits = 5
	hitposFieldMask = 1<<hitposFieldBits - 1
	hitposEOFBit    = 1 << (hitposPosBits + hitposFieldBits)
)

// NewHitpos packs a field index and a 1-based in-field position.
func NewHitpos(field FieldIndex, pos uint32) Hitpos {
	return Hitpos(uint32(field&hitposFieldMask)<<hitposPosBits | (pos & hitposPosMask))
}

// Field extracts the field index.
func (h Hitpos) Field() FieldIndex { return FieldIndex((uint32(h) >> hitposPosBits) & hitposFieldMask) }

// Pos extracts the 1-based in-field position.
func (h Hitpos) Pos() uint32 { return uint32(h) & hitposPosMask }

// EndOfField reports whether this hit closes its field.
func (h Hitpos) EndOfField() bool { return uint32(h)&hitposEOFBit != 0 }

// WithEndOfField returns h with the end-of-field marker set.
func (h Hitpos) WithEndOfField() Hitpos { return Hitpos(uint32(h) | hitposEOFBit) }

// AttrType enumerates the attribute column types a schema may declare.
type AttrType int

const (
	AttrInt32 AttrType = iota
	AttrBool
	AttrTimestamp
	AttrBigInt
	AttrFloat
	AttrUint32Set // MVA
	AttrInt64Set  // MVA (wide)
	AttrString
	AttrJSON
	AttrTokenCount
	AttrFactors
)

func (t AttrType) String() string {
	switch t {
	case AttrInt32:
		return "int32"
	case AttrBool:
		return "bool"
	case AttrTimestamp:
		return "timestamp"
	case AttrBigInt:
		return "bigint"
	case AttrFloat:
		return "float"
	case AttrUint32Set:
		return "uint32set"
	case AttrInt64Set:
		return "int64set"
	case AttrString:
		return "string"
	case AttrJSON:
		return "json"
	case AttrTokenCount:
		return "tokencount"
	case AttrFactors:
		return "factors"
	default:
		return fmt.Sprintf("AttrType(%d)", int(t))
	}
}

// IsMVA reports whether the type is a multi-valued (sidecar-stored) set.
func (t AttrType) IsMVA() bool { return t == AttrUint32Set || t == AttrInt64Set }

// IsWide reports whether a row slot for this type needs 64 bits (two
// uint32 row words) rather than one.
func (t AttrType) IsWide() bool { return t == AttrBigInt || t == AttrInt64Set }

// BitLocator describes where inside a row an attribute's bits live:
// either a whole dedicated uint32 slot (the common case) or a packed
// bitfield sharing a slot with others (the "dynamic" case used for
// bool/small-range columns, mirroring the source's bit-locator).
type BitLocator struct {
	RowOffset uint32 // uint32 index into the row's attribute words
	BitOffset uint8  // bit offset within that word, for packed fields
	BitCount  uint8  // number of bits occupied; 32 for a dedicated slot
	Dynamic   bool   // true if packed alongside another attribute
}

// Attr is one column of the schema.
type Attr struct {
	Name     string
	Type     AttrType
	Locator  BitLocator
	Updatable bool // false for computed/expression-backed columns
}

// Schema is the ordered list of attribute columns plus the width of
// the embedded DocID.
type Schema struct {
	Attrs     []Attr
	WideDocID bool // true if DocID occupies two row words (64-bit build)
}

// DocIDWords is 1 or 2 depending on the configured DocID width.
func (s *Schema) DocIDWords() int {
	if s.WideDocID {
		return 2
	}
	return 1
}

// RowWidth is the total number of uint32 words per row: the DocID
// words, one word per dedicated attribute, and one shared word per
// distinct RowOffset among the dynamic (packed) attributes.
func (s *Schema) RowWidth() int {
	w := s.DocIDWords()
	seen := map[uint32]bool{}
	for _, a := range s.Attrs {
		if a.Locator.Dynamic {
			seen[a.Locator.RowOffset] = true
			continue
		}
		w++
	}
	w += len(seen)
	return w
}

// AttrByName finds an attribute by name, or reports ok=false. Per
// spec §7 warnings, callers on the search path should treat a miss as
// a Schema error, not a panic.
func (s *Schema) AttrByName(name string) (Attr, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// Row is a fixed-width slice of schema-described attribute data plus
// its leading DocID words, exactly as laid out on disk in .spa (spec
// §3, "Row").
type Row []uint32

// GetDocID reads the row's leading DocID, honoring the configured width.
func (r Row) GetDocID(s *Schema) DocID {
	if s.WideDocID {
		return DocID(uint64(r[0]) | uint64(r[1])<<32)
	}
	return DocID(r[0])
}

// SetDocID writes the row's leading DocID.
func (r Row) SetDocID(s *Schema, id DocID) {
	if s.WideDocID {
		r[0] = uint32(id)
		r[1] = uint32(id >> 32)
		return
	}
	r[0] = uint32(id)
}

// GetAttr reads a dedicated (non-packed) attribute's raw uint32 value.
func (r Row) GetAttr(s *Schema, a Attr) uint32 {
	return r[int(s.DocIDWords())+attrSlotIndex(s, a)]
}

// SetAttr writes a dedicated (non-packed) attribute's raw uint32 value.
func (r Row) SetAttr(s *Schema, a Attr, v uint32) {
	r[int(s.DocIDWords())+attrSlotIndex(s, a)] = v
}

// GetAttrBits reads a packed bitfield attribute out of its shared slot.
func (r Row) GetAttrBits(s *Schema, a Attr) uint32 {
	word := r[int(s.DocIDWords())+packedSlotIndex(s, a)]
	mask := uint32(1)<<a.Locator.BitCount - 1
	return (word >> a.Locator.BitOffset) & mask
}

// SetAttrBits writes a packed bitfield attribute into its shared slot.
func (r Row) SetAttrBits(s *Schema, a Attr, v uint32) {
	idx := int(s.DocIDWords()) + packedSlotIndex(s, a)
	mask := uint32(1)<<a.Locator.BitCount - 1
	r[idx] = (r[idx] &^ (mask << a.Locator.BitOffset)) | ((v & mask) << a.Locator.BitOffset)
}

func attrSlotIndex(s *Schema, target Attr) int {
	idx := 0
	for _, a := range s.Attrs {
		if a.Locator.Dynamic {
			continue
		}
		if a.Name == target.Name {
			return idx
		}
		idx++
	}
	return idx
}

func packedSlotIndex(s *Schema, target Attr) int {
	dedicated := 0
	for _, a := range s.Attrs {
		if !a.Locator.Dynamic {
			dedicated++
		}
	}
	slots := map[uint32]int{}
	next := dedicated
	for _, a := range s.Attrs {
		if !a.Locator.Dynamic {
			continue
		}
		if _, ok := slots[a.Locator.RowOffset]; !ok {
			slots[a.Locator.RowOffset] = next
			next++
		}
	}
	return slots[target.Locator.RowOffset]
}
