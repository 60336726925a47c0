package layers

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	l, err := Parse(" Tables ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l != Tables {
		t.Errorf("expected tables, got %q", l)
	}
	if _, err := Parse("curves"); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestSearchIsNotFetchable(t *testing.T) {
	if Search.Fetchable() {
		t.Error("search should not be fetched with plain layer requests")
	}
	for _, l := range []Layer{Chars, Words, Lines, Rects, Edges, Tables} {
		if !l.Fetchable() {
			t.Errorf("%s should be fetchable", l)
		}
	}
}

func TestDefaultVisibility(t *testing.T) {
	v := NewVisibility(DefaultVisible)
	for _, l := range All {
		want := l == Words || l == Tables
		if v.Visible(l) != want {
			t.Errorf("%s: visible=%v, want %v", l, v.Visible(l), want)
		}
	}
	got := v.Fetchable()
	if len(got) != 2 || got[0] != Words || got[1] != Tables {
		t.Errorf("unexpected fetchable set %v", got)
	}
}

func TestVisibilityFetchableSkipsSearch(t *testing.T) {
	v := NewVisibility([]Layer{Search, Chars})
	got := v.Fetchable()
	if len(got) != 1 || got[0] != Chars {
		t.Errorf("expected [chars], got %v", got)
	}
}

func TestLedgerBeginOnce(t *testing.T) {
	l := NewLedger()
	if !l.Begin(Chars) {
		t.Fatal("first Begin should succeed")
	}
	if l.Begin(Chars) {
		t.Error("Begin while pending should be refused")
	}
	if !l.Pending(Chars) || l.Fetched(Chars) {
		t.Error("expected chars pending, not fetched")
	}
	l.Complete(Chars)
	if l.Pending(Chars) || !l.Fetched(Chars) {
		t.Error("expected chars fetched after Complete")
	}
	if l.Begin(Chars) {
		t.Error("Begin after Complete should be refused")
	}

	l.Reset()
	if l.Fetched(Chars) || len(l.FetchedLayers()) != 0 {
		t.Error("Reset should empty the ledger")
	}
	if !l.Begin(Chars) {
		t.Error("Begin after Reset should succeed")
	}
}

func TestStoreReplaceAndClear(t *testing.T) {
	s := NewStore()
	s.Put(Entry{Layer: Words, Records: []Record{Word{Text: "a"}}, TimingMS: 1})
	s.Put(Entry{Layer: Words, Records: []Record{Word{Text: "b"}, Word{Text: "c"}}, TimingMS: 2})

	e, ok := s.Get(Words)
	if !ok {
		t.Fatal("expected words entry")
	}
	if len(e.Records) != 2 || e.TimingMS != 2 {
		t.Errorf("expected replaced entry, got %d records timing %v", len(e.Records), e.TimingMS)
	}

	s.Put(Entry{Layer: Tables})
	e, _ = s.Get(Tables)
	if e.Records == nil {
		t.Error("empty result should be stored as a non-nil slice")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestDecodeTables(t *testing.T) {
	raw := json.RawMessage(`[{"bbox":{"x0":10,"top":20,"x1":110,"bottom":80},"row_count":2,"col_count":3,"grid":[["a",null,"c"],["d","e","f"]],"html":"<table></table>"}]`)
	recs, err := Decode(Tables, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 table, got %d", len(recs))
	}
	tbl, ok := recs[0].(Table)
	if !ok {
		t.Fatalf("expected Table, got %T", recs[0])
	}
	if tbl.Box().X1 != 110 || tbl.Label() != "2x3" {
		t.Errorf("unexpected table %+v", tbl)
	}
	if tbl.Grid[0][1] != nil {
		t.Error("null cell should decode to nil")
	}
}

func TestDecodeLinesCarriesStrokeWidth(t *testing.T) {
	raw := json.RawMessage(`[{"x0":0,"y0":92,"x1":100,"y1":92,"top":92,"bottom":92,"width":0}]`)
	recs, err := Decode(Lines, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, ok := recs[0].(Stroker)
	if !ok {
		t.Fatal("line should implement Stroker")
	}
	if s.StrokeWidth() != 0 {
		t.Errorf("expected width 0, got %v", s.StrokeWidth())
	}
}

func TestSegmentEndpoints(t *testing.T) {
	tests := []struct {
		name           string
		rec            Stroker
		x0, y0, x1, y1 float64
	}{
		{"top-down rising", Line{X0: 10, Y0: 200, X1: 110, Y1: 100, Top: 100, Bottom: 200}, 10, 200, 110, 100},
		{"top-down falling", Edge{X0: 10, Y0: 100, X1: 110, Y1: 200, Top: 100, Bottom: 200}, 10, 100, 110, 200},
		{"bottom-up rising", Line{X0: 10, Y0: 592, X1: 110, Y1: 692, Top: 100, Bottom: 200}, 10, 200, 110, 100},
		{"bottom-up falling", Line{X0: 10, Y0: 692, X1: 110, Y1: 592, Top: 100, Bottom: 200}, 10, 100, 110, 200},
		{"no endpoints", Line{X0: 10, X1: 110, Top: 20, Bottom: 20}, 10, 20, 110, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1 := tt.rec.Endpoints()
			if x0 != tt.x0 || y0 != tt.y0 || x1 != tt.x1 || y1 != tt.y1 {
				t.Errorf("Endpoints() = (%v,%v)-(%v,%v), want (%v,%v)-(%v,%v)", x0, y0, x1, y1, tt.x0, tt.y0, tt.x1, tt.y1)
			}
		})
	}

	box := Line{X0: 110, Y0: 100, X1: 10, Y1: 200, Top: 100, Bottom: 200}.Box()
	if box.X0 != 10 || box.X1 != 110 {
		t.Errorf("right-to-left line should still bound left to right, got %+v", box)
	}
}

func TestDecodeNullData(t *testing.T) {
	recs, err := Decode(Chars, json.RawMessage("null"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", recs)
	}
}
