package token

// MultiForm wraps a Tokenizer with a buffered lookahead of up to N raw
// tokens, and replaces any prefix of the lookahead that matches a
// configured token sequence with 1..M normal forms (spec §4.2,
// "Multi-form filter"). A classic use is expanding "new york" to the
// single normal form "newyork" so both index the same word id, or the
// reverse: expanding an abbreviation to multiple words.
type MultiForm struct {
	inner Tokenizer
	rules map[string]multiFormRule

	lookahead []Token
	queue     []Token
}

type multiFormRule struct {
	pattern []string // source token sequence
	forms   []string // replacement token sequence
}

// NewMultiForm builds a filter from a set of rules, each mapping a
// space-joined source token sequence to a space-joined replacement
// sequence (e.g. rules["wi fi"] = "wifi").
func NewMultiForm(inner Tokenizer, rules map[string]string) *MultiForm {
	m := &MultiForm{inner: inner, rules: make(map[string]multiFormRule, len(rules))}
	for pattern, forms := range rules {
		srcWords := splitWords(pattern)
		if len(srcWords) == 0 {
			continue
		}
		m.rules[srcWords[0]] = multiFormRule{pattern: srcWords, forms: splitWords(forms)}
	}
	return m
}

func splitWords(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

func (m *MultiForm) SetBuffer(buf []byte) {
	m.inner.SetBuffer(buf)
	m.lookahead = m.lookahead[:0]
	m.queue = m.queue[:0]
}

func (m *MultiForm) Clone() Tokenizer {
	return &MultiForm{inner: m.inner.Clone(), rules: m.rules}
}

func (m *MultiForm) Next() (Token, bool, error) {
	for len(m.queue) == 0 {
		tok, ok, err := m.pull()
		if err != nil || !ok {
			return Token{}, ok, err
		}
		rule, has := m.rules[string(tok.Text)]
		if !has {
			m.queue = append(m.queue, tok)
			break
		}
		// try to match the full pattern via the lookahead buffer
		seq := []Token{tok}
		matched := true
		for i := 1; i < len(rule.pattern); i++ {
			next, ok, err := m.pull()
			if err != nil {
				return Token{}, false, err
			}
			if !ok || string(next.Text) != rule.pattern[i] {
				if ok {
					seq = append(seq, next)
				}
				matched = false
				break
			}
			seq = append(seq, next)
		}
		if matched {
			base := seq[len(seq)-1]
			for _, form := range rule.forms {
				ft := base
				ft.Text = []byte(form)
				ft.IsSynonym = true
				m.queue = append(m.queue, ft)
			}
		} else {
			m.queue = append(m.queue, seq...)
		}
	}
	tok := m.queue[0]
	m.queue = m.queue[1:]
	return tok, true, nil
}

// pull drains the lookahead buffer before going back to inner.
func (m *MultiForm) pull() (Token, bool, error) {
	if len(m.lookahead) > 0 {
		tok := m.lookahead[0]
		m.lookahead = m.lookahead[1:]
		return tok, true, nil
	}
	return m.inner.Next()
}
