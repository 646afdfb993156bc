package token

// BlendMask selects which variants of a blended span are emitted
// (spec §4.2, "Blended variants"). A blended character is
// simultaneously a word character and a separator — think of an
// apostrophe in "don't" or a hyphen in "well-known" — so the span it
// closes can be read several ways, and the tokenizer can be asked to
// emit any subset of them, in this fixed order: raw, head-trimmed,
// tail-trimmed, fully-trimmed, blend-chars-stripped.
type BlendMask uint8

const (
	TrimNone BlendMask = 1 << iota // "well-known" verbatim
	TrimHead                       // "well-known" with a leading blend char dropped
	TrimTail                       // with a trailing blend char dropped
	TrimBoth                       // both ends trimmed
	TrimAll                        // every blend char removed: "wellknown"
	// SkipPure drops the token entirely if, after the requested trims,
	// it consists only of blend characters (e.g. "---").
	SkipPure
)

// blendedSpan accumulates the raw bytes of one blended run plus the
// byte offsets of each blend character within it, so that Trim* can
// reconstruct any of the five variants without re-scanning the source.
type blendedSpan struct {
	raw        []byte
	blendAt    []int // byte offsets into raw that are blend chars
	byteStart  int
	byteEnd    int
}

func (b *blendedSpan) reset() {
	b.raw = b.raw[:0]
	b.blendAt = b.blendAt[:0]
}

// variant returns the bytes produced by applying one requested trim
// kind to the span, and whether the result is "pure" (entirely blend
// characters, so SkipPure would drop it).
func (b *blendedSpan) variant(kind BlendMask) (out []byte, pure bool) {
	switch kind {
	case TrimNone:
		return b.raw, b.rangeIsAllBlend(0, len(b.raw))
	case TrimHead:
		lo, hi := b.trimRange(true, false)
		return b.raw[lo:hi], b.rangeIsAllBlend(lo, hi)
	case TrimTail:
		lo, hi := b.trimRange(false, true)
		return b.raw[lo:hi], b.rangeIsAllBlend(lo, hi)
	case TrimBoth:
		lo, hi := b.trimRange(true, true)
		return b.raw[lo:hi], b.rangeIsAllBlend(lo, hi)
	case TrimAll:
		out = b.stripAll()
		return out, len(out) == 0
	default:
		return b.raw, false
	}
}

func (b *blendedSpan) isBlendByte(i int) bool {
	for _, at := range b.blendAt {
		if at == i {
			return true
		}
	}
	return false
}

// rangeIsAllBlend reports whether every byte in raw[lo:hi] is a blend
// character (spec's SkipPure: "contains only blend chars").
func (b *blendedSpan) rangeIsAllBlend(lo, hi int) bool {
	if lo >= hi {
		return true
	}
	for i := lo; i < hi; i++ {
		if !b.isBlendByte(i) {
			return false
		}
	}
	return true
}

func (b *blendedSpan) trimRange(head, tail bool) (lo, hi int) {
	lo, hi = 0, len(b.raw)
	if head {
		for lo < hi && b.isBlendByte(lo) {
			lo++
		}
	}
	if tail {
		for hi > lo && b.isBlendByte(hi-1) {
			hi--
		}
	}
	return lo, hi
}

func (b *blendedSpan) stripAll() []byte {
	out := make([]byte, 0, len(b.raw))
	for i, c := range b.raw {
		if b.isBlendByte(i) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// orderedKinds lists the five variant kinds in the fixed emission
// order spec §4.2 mandates.
var orderedKinds = []BlendMask{TrimNone, TrimHead, TrimTail, TrimBoth, TrimAll}
