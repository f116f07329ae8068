// navcore/types.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navcore

// SegmentType tags which engine produced a straight-line segment's
// carrot: a segment can be flown as a standalone leg (Straight) or as
// the straight tail end of a spline hand-off (Spline). It does not affect
// arrival; whether arrival is "fast" is set separately by the straight
// engine's FastWaypoint flag.
type SegmentType int

const (
	SegmentStraight SegmentType = iota
	SegmentSpline
)

// SegEndType selects the destination tangent used when building a spline
// segment, driven by what the caller knows about the next leg.
type SegEndType int

const (
	// SegEndStop is used when the mission ends at this waypoint.
	SegEndStop SegEndType = iota
	// SegEndStraight is used when the next leg is a straight segment.
	SegEndStraight
	// SegEndSpline is used when the next leg is itself a spline.
	SegEndSpline
)

// Mode is the navigation facade's active control mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModeLoiter
	ModeWaypoint
	ModeSpline
)
