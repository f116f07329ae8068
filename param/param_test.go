// param/param_test.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package param

import (
	"bytes"
	"testing"
)

func TestDefaultNavTable(t *testing.T) {
	tbl := DefaultNavTable()
	if c := tbl.Get("WP_SPEED"); c == nil || c.Value() != 500 {
		t.Errorf("WP_SPEED default = %v, want 500", c)
	}
	if c := tbl.GetByIndex(1); c == nil || c.Name != "WP_RADIUS" {
		t.Errorf("index 1 = %v, want WP_RADIUS", c)
	}
}

func TestDefaultBaroTableReservesLegacyIndices(t *testing.T) {
	tbl := DefaultBaroTable()
	if c := tbl.GetByIndex(0); c != nil {
		t.Errorf("index 0 = %v, want unallocated (reserved legacy)", c)
	}
	if c := tbl.GetByIndex(1); c != nil {
		t.Errorf("index 1 = %v, want unallocated (reserved legacy)", c)
	}
	if c := tbl.Get("BARO_DRIFT_TC"); c == nil || c.Index != 2 || c.Value() != 5 {
		t.Errorf("BARO_DRIFT_TC = %v, want index 2 default 5", c)
	}
}

func TestCellClamps(t *testing.T) {
	c := &Cell{Name: "X", Min: 0, Max: 10, Default: 5}
	c.Reset()
	c.Set(-3)
	if c.Value() != 0 {
		t.Errorf("Set(-3) = %v, want clamped to 0", c.Value())
	}
	c.Set(100)
	if c.Value() != 10 {
		t.Errorf("Set(100) = %v, want clamped to 10", c.Value())
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	tbl := DefaultNavTable()
	tbl.Get("WP_SPEED").Set(750)

	var buf bytes.Buffer
	if err := tbl.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tbl2 := DefaultNavTable()
	if err := tbl2.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl2.Get("WP_SPEED").Value(); got != 750 {
		t.Errorf("after round-trip WP_SPEED = %v, want 750", got)
	}
}

func TestLoadClampsOutOfRange(t *testing.T) {
	tbl := DefaultNavTable()
	buf := bytes.NewBufferString(`{"WP_RADIUS": 50000}`)
	if err := tbl.Load(buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.Get("WP_RADIUS").Value(); got != 1000 {
		t.Errorf("WP_RADIUS after loading 50000 = %v, want clamped to 1000", got)
	}
}

func TestDuplicateIndexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate index")
		}
	}()
	tbl := NewTable()
	tbl.Add(Cell{Name: "A", Index: 0, Default: 1, Min: 0, Max: 2})
	tbl.Add(Cell{Name: "B", Index: 0, Default: 1, Min: 0, Max: 2})
}
