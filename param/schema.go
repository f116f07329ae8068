// param/schema.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package param

// DefaultNavTable returns the schema for the straight/spline/loiter
// tunables named in the data model, with the defaults and admissible
// ranges given there.
func DefaultNavTable() *Table {
	t := NewTable()
	t.Add(Cell{Name: "WP_SPEED", Index: 0, Default: 500, Min: 0, Max: 2000})
	t.Add(Cell{Name: "WP_RADIUS", Index: 1, Default: 200, Min: 100, Max: 1000})
	t.Add(Cell{Name: "WP_SPEED_UP", Index: 2, Default: 250, Min: 0, Max: 1000})
	t.Add(Cell{Name: "WP_SPEED_DOWN", Index: 3, Default: 150, Min: 0, Max: 1000})
	t.Add(Cell{Name: "LOIT_SPEED", Index: 4, Default: 500, Min: 0, Max: 2000})
	t.Add(Cell{Name: "WP_ACCEL", Index: 5, Default: 100, Min: 50, Max: 500})
	t.Add(Cell{Name: "LOITER_ACCEL_MIN", Index: 6, Default: 25, Min: 0, Max: 250})
	t.Add(Cell{Name: "ALT_HOLD_ACCEL_MAX", Index: 7, Default: 250, Min: 50, Max: 981})
	t.Add(Cell{Name: "LEASH_LENGTH_MIN", Index: 8, Default: 100, Min: 1, Max: 1000})
	t.Add(Cell{Name: "LOITER_SPEED_MIN", Index: 9, Default: 20, Min: 0, Max: 200})
	return t
}

// DefaultBaroTable returns the schema for the barometer's persisted
// tunables. Indices 0 and 1 are reserved (legacy) and deliberately left
// unallocated, matching the stable-index convention: an index, once
// assigned, is never reused, so a retired parameter's slot is skipped
// rather than recycled.
func DefaultBaroTable() *Table {
	t := NewTable()
	t.Add(Cell{Name: "BARO_DRIFT_TC", Index: 2, Default: 5, Min: -1, Max: 60})
	t.Add(Cell{Name: "BARO_DRIFT_INIT_S", Index: 3, Default: 10, Min: 0, Max: 120})
	return t
}
