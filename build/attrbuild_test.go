package build

import (
	"math"
	"testing"

	"github.com/wizenheimer/ftidx/schema"
)

func attrTestSchema() *schema.Schema {
	return &schema.Schema{
		Attrs: []schema.Attr{
			{Name: "price", Type: schema.AttrFloat, Locator: schema.BitLocator{RowOffset: 0}},
			{Name: "views", Type: schema.AttrInt32, Locator: schema.BitLocator{RowOffset: 1}},
		},
	}
}

func makeRow(sch *schema.Schema, doc schema.DocID, price float32, views uint32) schema.Row {
	row := make(schema.Row, sch.RowWidth())
	row.SetDocID(sch, doc)
	p, _ := sch.AttrByName("price")
	v, _ := sch.AttrByName("views")
	row.SetAttr(sch, p, math.Float32bits(price))
	row.SetAttr(sch, v, views)
	return row
}

func TestAttrBuilderSortsByDocID(t *testing.T) {
	sch := attrTestSchema()
	b := NewAttrBuilder(sch)
	b.Add(makeRow(sch, 30, 1, 1))
	b.Add(makeRow(sch, 10, 2, 2))
	b.Add(makeRow(sch, 20, 3, 3))

	rows, _ := b.Finish()
	want := []schema.DocID{10, 20, 30}
	for i, w := range want {
		if got := rows[i].GetDocID(sch); got != w {
			t.Errorf("rows[%d].DocID = %d, want %d", i, got, w)
		}
	}
}

func TestAttrBuilderComputesBlockMinMax(t *testing.T) {
	sch := attrTestSchema()
	b := NewAttrBuilder(sch)
	for i := 0; i < AttrBlockSize+5; i++ {
		b.Add(makeRow(sch, schema.DocID(i), float32(i), uint32(i)))
	}
	_, blocks := b.Finish()

	// AttrBlockSize+5 rows -> one full block, one partial block, plus
	// the trailing (0,N-1) summary.
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	first := blocks[0]
	if first.FirstRow != 0 || first.LastRow != AttrBlockSize-1 {
		t.Errorf("first block range = [%d,%d], want [0,%d]", first.FirstRow, first.LastRow, AttrBlockSize-1)
	}
	views := first.Summary[1]
	if views.Min != 0 || views.Max != uint32(AttrBlockSize-1) {
		t.Errorf("views min/max = %d/%d, want 0/%d", views.Min, views.Max, AttrBlockSize-1)
	}

	total := blocks[len(blocks)-1]
	if total.FirstRow != 0 || total.LastRow != AttrBlockSize+4 {
		t.Errorf("trailing summary range = [%d,%d], want [0,%d]", total.FirstRow, total.LastRow, AttrBlockSize+4)
	}
}

func TestAttrBuilderFloatComparatorUsesIEEEOrder(t *testing.T) {
	sch := attrTestSchema()
	b := NewAttrBuilder(sch)
	b.Add(makeRow(sch, 1, -5.5, 0))
	b.Add(makeRow(sch, 2, 3.25, 0))
	b.Add(makeRow(sch, 3, 100.0, 0))

	_, blocks := b.Finish()
	price := blocks[len(blocks)-1].Summary[0]
	if math.Float32frombits(price.Min) != -5.5 {
		t.Errorf("price min = %v, want -5.5", math.Float32frombits(price.Min))
	}
	if math.Float32frombits(price.Max) != 100.0 {
		t.Errorf("price max = %v, want 100", math.Float32frombits(price.Max))
	}
}

func TestAttrBuilderEmpty(t *testing.T) {
	sch := attrTestSchema()
	b := NewAttrBuilder(sch)
	rows, blocks := b.Finish()
	if len(rows) != 0 || len(blocks) != 0 {
		t.Errorf("expected no rows/blocks, got %d/%d", len(rows), len(blocks))
	}
}

func TestCarryOverAttrsCopiesNamedColumnOnly(t *testing.T) {
	sch := attrTestSchema()
	prior := map[schema.DocID]schema.Row{
		1: makeRow(sch, 1, 42.0, 999),
	}
	newRows := []schema.Row{makeRow(sch, 1, 0, 0)}

	CarryOverAttrs(sch, prior, newRows, []string{"price"})

	price, _ := sch.AttrByName("price")
	views, _ := sch.AttrByName("views")
	if got := math.Float32frombits(newRows[0].GetAttr(sch, price)); got != 42.0 {
		t.Errorf("price = %v, want carried-over 42.0", got)
	}
	if got := newRows[0].GetAttr(sch, views); got != 0 {
		t.Errorf("views = %d, want untouched 0 (not in keep list)", got)
	}
}

func TestCarryOverAttrsSkipsDocsWithNoPrior(t *testing.T) {
	sch := attrTestSchema()
	prior := map[schema.DocID]schema.Row{}
	newRows := []schema.Row{makeRow(sch, 1, 7.0, 0)}

	CarryOverAttrs(sch, prior, newRows, []string{"price"})

	price, _ := sch.AttrByName("price")
	if got := math.Float32frombits(newRows[0].GetAttr(sch, price)); got != 7.0 {
		t.Errorf("price = %v, want unchanged 7.0 (no prior row to carry over)", got)
	}
}
