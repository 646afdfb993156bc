package build

import (
	"testing"

	"github.com/wizenheimer/ftidx/schema"
)

func TestHitBufferFlushesAtCapacity(t *testing.T) {
	b := NewHitBuffer(2)
	for i := 0; i < 5; i++ {
		if err := b.Add(Hit{WordID: 1, DocID: schema.DocID(i), Pos: schema.Hitpos(i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	// 5 hits at capacity 2 flushes twice automatically (4 hits), 1 pending.
	if b.BlockCount() != 2 {
		t.Errorf("BlockCount() = %d, want 2", b.BlockCount())
	}
}

func TestMergeProducesGloballySortedOutput(t *testing.T) {
	b := NewHitBuffer(3)
	input := []Hit{
		{WordID: 2, DocID: 5, Pos: 1},
		{WordID: 1, DocID: 9, Pos: 1},
		{WordID: 1, DocID: 3, Pos: 2},
		{WordID: 2, DocID: 1, Pos: 1},
		{WordID: 1, DocID: 3, Pos: 1},
		{WordID: 3, DocID: 1, Pos: 1},
		{WordID: 1, DocID: 1, Pos: 5},
	}
	for _, h := range input {
		if err := b.Add(h); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	out, err := b.Merge()
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out) != len(input) {
		t.Fatalf("got %d hits, want %d", len(out), len(input))
	}
	for i := 1; i < len(out); i++ {
		if lessHit(out[i], out[i-1]) {
			t.Fatalf("output not sorted at %d: %+v before %+v", i, out[i-1], out[i])
		}
	}
}

func TestMergeIntoStreamsSameResultAsMerge(t *testing.T) {
	b1 := NewHitBuffer(2)
	b2 := NewHitBuffer(2)
	input := []Hit{
		{WordID: 1, DocID: 4, Pos: 1},
		{WordID: 1, DocID: 1, Pos: 1},
		{WordID: 2, DocID: 2, Pos: 1},
		{WordID: 1, DocID: 2, Pos: 1},
	}
	for _, h := range input {
		b1.Add(h)
		b2.Add(h)
	}
	want, err := b1.Merge()
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	var got []Hit
	if err := b2.MergeInto(func(h Hit) error { got = append(got, h); return nil }); err != nil {
		t.Fatalf("MergeInto: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d hits, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEmptyBufferMergesToNothing(t *testing.T) {
	b := NewHitBuffer(10)
	out, err := b.Merge()
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no hits, got %d", len(out))
	}
}
