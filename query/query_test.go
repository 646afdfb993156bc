package query

import (
	"math"
	"testing"

	"github.com/wizenheimer/ftidx/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Attrs: []schema.Attr{
			{Name: "price", Type: schema.AttrFloat, Locator: schema.BitLocator{RowOffset: 0}},
			{Name: "category", Type: schema.AttrInt32, Locator: schema.BitLocator{RowOffset: 1}},
			{Name: "deleted", Type: schema.AttrBool, Locator: schema.BitLocator{RowOffset: 2, BitOffset: 0, BitCount: 1, Dynamic: true}},
		},
	}
}

func mustAttr(t *testing.T, s *schema.Schema, name string) schema.Attr {
	t.Helper()
	a, ok := s.AttrByName(name)
	if !ok {
		t.Fatalf("no such attr %q", name)
	}
	return a
}

func TestMatchValuesFilter(t *testing.T) {
	s := testSchema()
	row := make(schema.Row, s.RowWidth())
	row.SetDocID(s, 1)
	cat := mustAttr(t, s, "category")
	row.SetAttr(s, cat, 7)

	e := New(s, []Filter{{Attr: cat, Kind: KindValues, Values: []uint32{5, 7, 9}}})
	if !e.Match(row) {
		t.Errorf("expected row with category=7 to match {5,7,9}")
	}

	e2 := New(s, []Filter{{Attr: cat, Kind: KindValues, Values: []uint32{5, 9}}})
	if e2.Match(row) {
		t.Errorf("expected row with category=7 to not match {5,9}")
	}
}

func TestMatchRangeFilter(t *testing.T) {
	s := testSchema()
	row := make(schema.Row, s.RowWidth())
	cat := mustAttr(t, s, "category")
	row.SetAttr(s, cat, 50)

	e := New(s, []Filter{{Attr: cat, Kind: KindRange, MinU: 10, MaxU: 100}})
	if !e.Match(row) {
		t.Errorf("expected 50 in [10,100] to match")
	}

	e2 := New(s, []Filter{{Attr: cat, Kind: KindRange, MinU: 60, MaxU: 100}})
	if e2.Match(row) {
		t.Errorf("expected 50 outside [60,100] to not match")
	}
}

func TestMatchFloatRangeFilter(t *testing.T) {
	s := testSchema()
	row := make(schema.Row, s.RowWidth())
	price := mustAttr(t, s, "price")
	row.SetAttr(s, price, floatBits(19.99))

	e := New(s, []Filter{{Attr: price, Kind: KindFloatRange, MinF: 10, MaxF: 20}})
	if !e.Match(row) {
		t.Errorf("expected 19.99 in [10,20] to match")
	}
}

func TestMatchExcludeInvertsResult(t *testing.T) {
	s := testSchema()
	row := make(schema.Row, s.RowWidth())
	cat := mustAttr(t, s, "category")
	row.SetAttr(s, cat, 7)

	e := New(s, []Filter{{Attr: cat, Kind: KindValues, Values: []uint32{7}, Exclude: true}})
	if e.Match(row) {
		t.Errorf("excluded filter matching the value should fail Match")
	}
}

func TestMatchDynamicBitfieldAttr(t *testing.T) {
	s := testSchema()
	row := make(schema.Row, s.RowWidth())
	deleted := mustAttr(t, s, "deleted")
	row.SetAttrBits(s, deleted, 1)

	e := New(s, []Filter{{Attr: deleted, Kind: KindNull}})
	if e.Match(row) {
		t.Errorf("deleted=1 should fail the KindNull (==0) check")
	}
}

func TestIDFilterContainsAndCardinality(t *testing.T) {
	f := NewIDFilter([]schema.DocID{1, 2, 2, 5, 100})
	if f.Cardinality() != 4 {
		t.Errorf("Cardinality() = %d, want 4", f.Cardinality())
	}
	if !f.Contains(5) {
		t.Errorf("expected 5 to be contained")
	}
	if f.Contains(6) {
		t.Errorf("expected 6 to not be contained")
	}
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}
