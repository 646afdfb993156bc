package token

// BigramPolicy controls which adjacent token pairs are eligible to be
// blended into a bigram (spec §4.2, "Bigram filter").
type BigramPolicy int

const (
	BigramAll       BigramPolicy = iota // every adjacent pair
	BigramFirstFreq                     // w1 must be in the allow-list
	BigramBothFreq                      // both w1 and w2 must be in the allow-list
)

// Bigram wraps a Tokenizer and, for eligible adjacent pairs, first
// emits a blended "w1\x01w2" pair token, then w1 alone, then restarts
// at w2 — the CLEAN→FIRST→PAIR→FIRST state machine of spec §4.2.
type Bigram struct {
	inner  Tokenizer
	policy BigramPolicy
	freq   map[string]bool

	state   bigramState
	pending Token
	backlog []Token
}

type bigramState int

const (
	bigramClean bigramState = iota
	bigramFirst
)

const bigramSep = '\x01'

// NewBigram builds a bigram filter. freqWords is the allow-list used
// by BigramFirstFreq/BigramBothFreq; it is ignored under BigramAll.
func NewBigram(inner Tokenizer, policy BigramPolicy, freqWords map[string]bool) *Bigram {
	return &Bigram{inner: inner, policy: policy, freq: freqWords}
}

func (b *Bigram) SetBuffer(buf []byte) {
	b.inner.SetBuffer(buf)
	b.state = bigramClean
	b.backlog = b.backlog[:0]
}

func (b *Bigram) Clone() Tokenizer {
	return &Bigram{inner: b.inner.Clone(), policy: b.policy, freq: b.freq}
}

func (b *Bigram) eligible(w1, w2 string) bool {
	switch b.policy {
	case BigramFirstFreq:
		return b.freq[w1]
	case BigramBothFreq:
		return b.freq[w1] && b.freq[w2]
	default:
		return true
	}
}

func (b *Bigram) Next() (Token, bool, error) {
	if b.state == bigramFirst {
		b.state = bigramClean
		return b.pending, true, nil
	}

	first, ok, err := b.take()
	if err != nil || !ok {
		return Token{}, ok, err
	}
	second, ok, err := b.take()
	if err != nil {
		return Token{}, false, err
	}
	if !ok || first.IsSpecial || second.IsSpecial || !b.eligible(string(first.Text), string(second.Text)) {
		if ok {
			b.pushback(second)
		}
		return first, true, nil
	}

	pair := first
	pair.Text = joinBigram(first.Text, second.Text)
	pair.IsBlended = true
	b.pending = first
	b.state = bigramFirst
	b.pushback(second)
	return pair, true, nil
}

func joinBigram(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+1+len(b))
	out = append(out, a...)
	out = append(out, bigramSep)
	out = append(out, b...)
	return out
}

// pushback buffers at most one token of lookahead, since the bigram
// state machine only ever peeks one token ahead.
func (b *Bigram) pushback(tok Token) {
	b.backlog = append(b.backlog, tok)
}

func (b *Bigram) take() (Token, bool, error) {
	if len(b.backlog) > 0 {
		tok := b.backlog[len(b.backlog)-1]
		b.backlog = b.backlog[:len(b.backlog)-1]
		return tok, true, nil
	}
	return b.inner.Next()
}
