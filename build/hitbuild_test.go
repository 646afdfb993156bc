package build

import (
	"testing"

	"github.com/wizenheimer/ftidx/qword"
	"github.com/wizenheimer/ftidx/schema"
)

func TestHitBuilderGroupsByWordThenDoc(t *testing.T) {
	hits := []Hit{
		{WordID: 1, DocID: 3, Pos: 1},
		{WordID: 1, DocID: 3, Pos: 5},
		{WordID: 1, DocID: 8, Pos: 2},
		{WordID: 2, DocID: 1, Pos: 1},
	}
	hb := NewHitBuilder(nil)
	postings, entries := hb.Build(hits)

	if len(postings) != 2 || len(entries) != 2 {
		t.Fatalf("got %d postings / %d entries, want 2/2", len(postings), len(entries))
	}
	if postings[0].WordID != 1 || postings[1].WordID != 2 {
		t.Fatalf("word order wrong: %+v", postings)
	}
	if entries[0].DocCount != 2 || entries[0].HitCount != 3 {
		t.Errorf("word 1 entry = %+v, want DocCount=2 HitCount=3", entries[0])
	}
}

func TestHitBuilderRoundTripsThroughQword(t *testing.T) {
	hits := []Hit{
		{WordID: 5, DocID: 10, Pos: schema.NewHitpos(0, 1)},
		{WordID: 5, DocID: 10, Pos: schema.NewHitpos(0, 4)},
		{WordID: 5, DocID: 20, Pos: schema.NewHitpos(0, 2)},
	}
	hb := NewHitBuilder(nil)
	postings, _ := hb.Build(hits)
	wp := postings[0]

	w := qword.NewWord(wp.Doclist, wp.Skiplist, wp.Hitless)
	var gotDocs []schema.DocID
	for {
		doc, ok, err := w.GetNextDoc()
		if err != nil {
			t.Fatalf("GetNextDoc: %v", err)
		}
		if !ok {
			break
		}
		gotDocs = append(gotDocs, doc)
	}
	want := []schema.DocID{10, 20}
	if len(gotDocs) != len(want) {
		t.Fatalf("got %d docs, want %d", len(gotDocs), len(want))
	}
	for i, d := range want {
		if gotDocs[i] != d {
			t.Errorf("doc[%d] = %d, want %d", i, gotDocs[i], d)
		}
	}

	hitsForDoc0, err := qword.HitList(wp.Hitlist[wp.HitlistOffsets[0]:wp.HitlistOffsets[1]])
	if err != nil {
		t.Fatalf("HitList: %v", err)
	}
	if len(hitsForDoc0) != 2 {
		t.Fatalf("got %d hits for first doc, want 2", len(hitsForDoc0))
	}
}

func TestHitBuilderSkipListEntryEveryStride(t *testing.T) {
	hits := make([]Hit, 0, qword.SkipStride*2+3)
	for i := 0; i < qword.SkipStride*2+3; i++ {
		hits = append(hits, Hit{WordID: 9, DocID: schema.DocID(i), Pos: 1})
	}
	hb := NewHitBuilder(nil)
	postings, _ := hb.Build(hits)
	if len(postings[0].Skiplist) != 2 {
		t.Errorf("got %d skip entries, want 2", len(postings[0].Skiplist))
	}
}

func TestDecodeWordPostingsRoundTrips(t *testing.T) {
	hits := []Hit{
		{WordID: 4, DocID: 1, Pos: 1},
		{WordID: 4, DocID: 1, Pos: 3},
		{WordID: 4, DocID: 7, Pos: 2},
	}
	hb := NewHitBuilder(nil)
	postings, _ := hb.Build(hits)

	got, err := DecodeWordPostings(postings[0])
	if err != nil {
		t.Fatalf("DecodeWordPostings: %v", err)
	}
	if len(got) != len(hits) {
		t.Fatalf("got %d hits, want %d", len(got), len(hits))
	}
	for i, h := range hits {
		if got[i] != h {
			t.Errorf("hit[%d] = %+v, want %+v", i, got[i], h)
		}
	}
}

func TestHitBuilderHitlessWordEmitsNoPositions(t *testing.T) {
	hits := []Hit{
		{WordID: 1, DocID: 1, Pos: 1},
		{WordID: 1, DocID: 1, Pos: 2},
	}
	hb := NewHitBuilder(map[schema.WordID]bool{1: true})
	postings, _ := hb.Build(hits)
	wp := postings[0]
	if !wp.Hitless {
		t.Fatalf("expected word to be marked hitless")
	}
	if len(wp.Hitlist) != 0 {
		t.Errorf("expected empty hitlist for a hitless word, got %d bytes", len(wp.Hitlist))
	}
}
