package token

import (
	"unicode/utf8"

	"github.com/wizenheimer/ftidx/fold"
)

// baseTokenizer implements the unwrapped scan: fold every codepoint,
// apply the boundary/ignore/special/blend/word-char actions of spec
// §4.2 step 3, run the exception trie over the source bytes at each
// token start, and enforce min/max word length. Blend variants are
// queued by queueBlendVariants; multiform/bigram wrapping is layered
// on top by MultiForm/Bigram in their own files, each implementing
// the same Tokenizer interface.
type baseTokenizer struct {
	cfg   Config
	mode  Mode
	table *fold.Table
	exc   *ExceptionTrie // nil if no exceptions configured

	buf []byte
	pos int

	// pending blended span state, carried across Next() calls so a
	// closed span can emit up to five variants before the cursor
	// advances again.
	pending    []blendedVariant
	pendingIdx int

	acc       []byte
	accStart  int
	blendSpan blendedSpan
}

type blendedVariant struct {
	tok Token
}

// NewBase constructs the unwrapped tokenizer. table should already be
// the per-session lightweight clone (fold.Table.Clone) appropriate for
// the caller (query vs index); exc may be nil.
func NewBase(cfg Config, mode Mode, table *fold.Table, exc *ExceptionTrie) Tokenizer {
	if cfg.MaxWordLen == 0 {
		cfg.MaxWordLen = MaxWordLen
	}
	return &baseTokenizer{cfg: cfg, mode: mode, table: table, exc: exc}
}

func (t *baseTokenizer) SetBuffer(buf []byte) {
	t.buf = buf
	t.pos = 0
	t.pending = t.pending[:0]
	t.pendingIdx = 0
	t.acc = t.acc[:0]
}

func (t *baseTokenizer) Clone() Tokenizer {
	return &baseTokenizer{
		cfg:   t.cfg,
		mode:  t.mode,
		table: t.table.Clone(),
		exc:   t.exc,
	}
}

// Next implements the Tokenizer contract. It is a thin driver around
// scanOne that also drains any pending blended variants queued up by
// a previous call.
func (t *baseTokenizer) Next() (Token, bool, error) {
	for {
		if t.pendingIdx < len(t.pending) {
			v := t.pending[t.pendingIdx]
			t.pendingIdx++
			return v.tok, true, nil
		}
		t.pending = t.pending[:0]
		t.pendingIdx = 0

		tok, ok, err := t.scanOne()
		if err != nil || !ok {
			return Token{}, ok, err
		}
		return tok, true, nil
	}
}

// scanOne runs the core accumulate-then-flush loop of spec §4.2.
func (t *baseTokenizer) scanOne() (Token, bool, error) {
	t.acc = t.acc[:0]
	t.accStart = -1
	t.blendSpan.reset()
	boundaryAfter := false
	overshort := 0

	for t.pos < len(t.buf) {
		cp, size := utf8.DecodeRune(t.buf[t.pos:])
		if cp == utf8.RuneError && size <= 1 {
			if len(t.acc) > 0 {
				return Token{}, false, ErrBadUTF8
			}
			// malformed byte at a separator boundary: skip it and
			// keep scanning, per spec §4.2 ("not on the separator
			// boundary").
			t.pos++
			continue
		}

		folded, flags := t.table.ToLower(cp)

		switch {
		case flags&fold.FlagIgnore != 0:
			t.pos += size

		// Blend is checked ahead of boundary/special: a blend_chars
		// remap (spec §4.1) is a deliberate override that redefines a
		// codepoint as "also a word char", even though AddRemap ORs
		// its flag onto whatever the default table already set (e.g.
		// ASCII punctuation defaults to boundary|special). Without
		// this priority a configured blend char would never reach
		// the blend branch below.
		case flags&fold.FlagBlend != 0:
			if t.accStart < 0 {
				t.accStart = t.pos
				if tok, ok, err, handled := t.tryException(); handled {
					return tok, ok, err
				}
			}
			t.blendSpan.blendAt = append(t.blendSpan.blendAt, len(t.acc))
			t.acc = utf8.AppendRune(t.acc, folded)
			t.pos += size

		case flags&fold.FlagBoundary != 0:
			t.pos += size
			if len(t.acc) > 0 {
				boundaryAfter = true
				goto flush
			}
			// boundary with nothing accumulated: keep scanning for
			// the start of the next token.

		case flags&fold.FlagSpecial != 0:
			if len(t.acc) > 0 {
				// flush what we have first; re-visit this rune on
				// the next call by not advancing pos.
				goto flush
			}
			t.pos += size
			return Token{
				Text:      []byte{byte(folded)},
				ByteStart: t.pos - size,
				ByteEnd:   t.pos,
				IsSpecial: true,
			}, true, nil

		case folded == 0:
			// separator: flush if we have something.
			t.pos += size
			if len(t.acc) > 0 {
				goto flush
			}

		default:
			if t.accStart < 0 {
				t.accStart = t.pos
				if tok, ok, err, handled := t.tryException(); handled {
					return tok, ok, err
				}
			}
			if len(t.acc) < t.cfg.MaxWordLen*utf8.UTFMax {
				t.acc = utf8.AppendRune(t.acc, folded)
			}
			t.pos += size
		}
	}

	if len(t.acc) == 0 {
		return Token{}, false, nil
	}

flush:
	start, end := t.accStart, t.pos
	t.blendSpan.raw = append(t.blendSpan.raw[:0], t.acc...)
	hasBlend := len(t.blendSpan.blendAt) > 0
	text := t.acc

	runeLen := utf8.RuneCount(text)
	if runeLen < t.cfg.MinWordLen {
		overshort++
		if t.cfg.AcceptShortWildcards && len(text) > 0 && text[0] == '*' {
			// fall through: keep the short wildcard token
		} else {
			return t.scanOne() // drop and continue scanning
		}
	}

	tok := Token{
		Text:            append([]byte(nil), text...),
		ByteStart:       start,
		ByteEnd:         end,
		IsBoundaryAfter: boundaryAfter,
		IsBlended:       hasBlend,
		OvershortCount:  overshort,
	}

	if hasBlend {
		t.queueBlendVariants(tok)
		if len(t.pending) == 0 {
			return t.scanOne()
		}
		first := t.pending[0]
		t.pendingIdx = 1
		return first.tok, true, nil
	}

	return tok, true, nil
}

// tryException is called the instant the accumulator opens at t.pos,
// before any folding decision has consumed a byte, so it sees exactly
// the "rooted at the token start in the source buffer" window the
// exception trie is documented to match against. A hit short-circuits
// the whole accumulate loop: the exception phrase is emitted as one
// token using its replacement text, regardless of how many internal
// boundary/special characters (periods in "u.s.a.") it spans.
func (t *baseTokenizer) tryException() (tok Token, ok bool, err error, handled bool) {
	if t.exc == nil {
		return Token{}, false, nil, false
	}
	repl, n, matched := t.exc.Match(t.buf[t.pos:])
	if !matched {
		return Token{}, false, nil, false
	}
	start := t.pos
	t.pos += n

	if utf8.RuneCount(repl) < t.cfg.MinWordLen &&
		!(t.cfg.AcceptShortWildcards && len(repl) > 0 && repl[0] == '*') {
		tok, ok, err = t.scanOne()
		return tok, ok, err, true
	}

	return Token{
		Text:      append([]byte(nil), repl...),
		ByteStart: start,
		ByteEnd:   t.pos,
	}, true, nil, true
}

// queueBlendVariants expands a closed blended span into the subset of
// the five canonical variants selected by cfg.BlendMode, honoring
// SkipPure (spec §4.2, "Blended variants").
func (t *baseTokenizer) queueBlendVariants(base Token) {
	mask := t.cfg.BlendMode
	if mask == 0 {
		mask = TrimNone
	}
	skipPure := mask&SkipPure != 0

	for _, kind := range orderedKinds {
		if mask&kind == 0 {
			continue
		}
		out, pure := t.blendSpan.variant(kind)
		if len(out) == 0 {
			continue
		}
		if pure && skipPure {
			continue
		}
		v := base
		v.Text = append([]byte(nil), out...)
		v.IsBlendedPart = kind != TrimNone
		t.pending = append(t.pending, blendedVariant{tok: v})
	}
}
