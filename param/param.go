// param/param.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package param implements the navigation core's persisted tunable
// parameters: named, indexed, range-checked cells backed by a schema
// table. The index of a parameter is its stable on-disk identity — once
// assigned it is never reused, matching the flight-controller convention
// that a parameter's wire/EEPROM slot must survive renames so old logs
// and ground-station definitions keep decoding. Values are round-tripped
// through a JSON document keyed by name, so the index is not load-bearing
// for the format used here; it is retained because a future binary wire
// encoding would need it.
package param

import (
	"encoding/json"
	"fmt"
	"io"
)

// Cell is one persistable tunable: a named, indexed value constrained to
// [Min, Max]. A value outside the range is clamped to the nearer bound;
// Default is used only at registration and by Reset, so a non-positive
// value is not replaced by Default (it is raised to Min).
type Cell struct {
	Name    string
	Index   int
	Default float64
	Min     float64
	Max     float64

	value float64
}

// Value returns the cell's current value.
func (c *Cell) Value() float64 { return c.value }

// Set clamps v into [Min, Max] and stores it.
func (c *Cell) Set(v float64) {
	if v < c.Min {
		v = c.Min
	}
	if v > c.Max {
		v = c.Max
	}
	c.value = v
}

// Reset restores the cell to its documented default.
func (c *Cell) Reset() { c.value = c.Default }

// Table is the full schema of persisted parameters, indexed both by name
// (for the JSON document) and by stable index (for lookup by legacy
// identity). Table is built once via DefaultNavTable or DefaultBaroTable
// and held by whichever
// binary needs persistence; the navigation engines never see a Table
// directly; they receive only the cells relevant to them.
type Table struct {
	byName  map[string]*Cell
	byIndex map[int]*Cell
	order   []*Cell
}

// NewTable builds an empty Table. Cells are added with Add.
func NewTable() *Table {
	return &Table{byName: map[string]*Cell{}, byIndex: map[int]*Cell{}}
}

// Add registers a cell, initialised to its Default. Panics on a duplicate
// name or index — this is a programming error in the schema, not a
// runtime fault, so it is caught at startup rather than clamped away.
func (t *Table) Add(c Cell) *Cell {
	if _, ok := t.byName[c.Name]; ok {
		panic(fmt.Sprintf("param: duplicate name %q", c.Name))
	}
	if _, ok := t.byIndex[c.Index]; ok {
		panic(fmt.Sprintf("param: duplicate index %d (name %q)", c.Index, c.Name))
	}
	cell := c
	cell.value = cell.Default
	t.byName[cell.Name] = &cell
	t.byIndex[cell.Index] = &cell
	t.order = append(t.order, &cell)
	return &cell
}

// Get returns the cell with the given name, or nil.
func (t *Table) Get(name string) *Cell { return t.byName[name] }

// GetByIndex returns the cell with the given stable index, or nil.
func (t *Table) GetByIndex(idx int) *Cell { return t.byIndex[idx] }

// Cells returns all cells in registration order.
func (t *Table) Cells() []*Cell { return t.order }

// Encode writes the current values as a JSON object keyed by name.
func (t *Table) Encode(w io.Writer) error {
	m := make(map[string]float64, len(t.order))
	for _, c := range t.order {
		m[c.Name] = c.value
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Load reads a JSON object keyed by name and applies each value found to
// the matching cell via Set (so out-of-range values are clamped, not
// rejected, per the clamped-recovery error philosophy). Unknown keys are
// ignored; missing keys keep their current (default) value.
func (t *Table) Load(r io.Reader) error {
	var m map[string]float64
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return fmt.Errorf("param: decode: %w", err)
	}
	for name, v := range m {
		if c, ok := t.byName[name]; ok {
			c.Set(v)
		}
	}
	return nil
}
