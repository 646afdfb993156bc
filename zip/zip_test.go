package zip

import "testing"

// TestRoundTrip checks the property required by spec §8.1: for every
// u64 value, decode(encode(v)) == v, and no encoding is a proper
// prefix of another (tested indirectly via the consumed-byte count).
func TestRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 2, 127, 128, 129, 16383, 16384,
		1 << 20, 1<<35 - 1, 1 << 40, 1<<63 - 1, 1<<64 - 1,
	}
	for _, v := range cases {
		buf := PutUint64(nil, v)
		got, n, err := Uint64(buf)
		if err != nil {
			t.Fatalf("Uint64(%d): unexpected error %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if n != len(buf) {
			t.Errorf("round trip %d: consumed %d of %d bytes", v, n, len(buf))
		}
	}
}

func TestPrefixFree(t *testing.T) {
	small := PutUint64(nil, 1)
	big := PutUint64(nil, 1<<40)
	if len(small) <= len(big) && string(big[:len(small)]) == string(small) {
		// Only an actual problem if the continuation bit of `small`'s
		// last byte was clear but `big` continues past it identically;
		// zip's high-bit-continuation scheme makes this impossible by
		// construction, so this guards against a future regression.
		if small[len(small)-1]&0x80 == 0 {
			t.Errorf("encoding of 1 is a prefix of encoding of 1<<40")
		}
	}
}

func TestTruncated(t *testing.T) {
	buf := PutUint64(nil, 1<<40)
	_, _, err := Uint64(buf[:len(buf)-1])
	if err != ErrShortBuffer {
		t.Errorf("truncated varint: got err=%v, want ErrShortBuffer", err)
	}
}

func TestOverflow(t *testing.T) {
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := Uint64(buf)
	if err != ErrOverflow {
		t.Errorf("overlong continuation run: got err=%v, want ErrOverflow", err)
	}
}

func TestWriterReaderDelta(t *testing.T) {
	w := NewWriter()
	prev := uint64(0)
	docs := []uint64{1, 4, 4, 10, 10, 11, 1000}
	for _, d := range docs {
		w.Delta(d, prev)
		prev = d
	}
	r := NewReader(w.Bytes())
	prev = 0
	for _, want := range docs {
		got, err := r.Delta(prev)
		if err != nil {
			t.Fatalf("Delta: %v", err)
		}
		if got != want {
			t.Errorf("Delta: got %d, want %d", got, want)
		}
		prev = got
	}
	if r.Len() != 0 {
		t.Errorf("reader has %d unread bytes", r.Len())
	}
}

func TestZigZag(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2, -2, 1 << 30, -(1 << 30)} {
		if got := UnZigZag(ZigZag(v)); got != v {
			t.Errorf("ZigZag round trip %d: got %d", v, got)
		}
	}
}
