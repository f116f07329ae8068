// nav/navigator.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nav provides Navigator, the facade that dispatches each tick
// to whichever navigation mode is active (loiter, straight waypoint, or
// spline) and owns the shared altitude filter.
package nav

import (
	"github.com/flightcore/navloiter/baro"
	"github.com/flightcore/navloiter/geom"
	"github.com/flightcore/navloiter/loiter"
	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
	"github.com/flightcore/navloiter/spline"
	"github.com/flightcore/navloiter/wpnav"
)

// Navigator selects which inner engine's advance method runs this tick,
// with a plain switch on Mode over concrete engine types.
type Navigator struct {
	Pos  navcore.PosController
	In   navcore.InertialNav
	Ahrs navcore.AHRS
	Log  *navlog.Logger

	Loiter   *loiter.Controller
	Straight *wpnav.Straight
	Spline   *spline.Segment
	Baro     *baro.Filter

	Mode navcore.Mode
}

// EnterLoiter switches to loiter mode, seeding the loiter target and
// feed-forward velocity from the current inertial state.
func (n *Navigator) EnterLoiter() {
	n.Loiter.InitLoiterTarget()
	n.Mode = navcore.ModeLoiter
}

// EnterWaypoint switches to straight-waypoint mode, flying a new segment
// to dest. The origin is chosen by wpnav.Straight itself from the
// current position target or stopping point.
func (n *Navigator) EnterWaypoint(dest geom.Vec3, nowMs int64) {
	n.Straight.SetWPDestination(dest, nowMs)
	n.Mode = navcore.ModeWaypoint
}

// EnterSpline switches to spline mode, building a new curve segment from
// origin to dest. prev describes the outgoing segment's terminal state
// so the new segment's origin tangent preserves velocity continuity;
// segEndType/nextDest pick the destination tangent.
func (n *Navigator) EnterSpline(origin, dest geom.Vec3, prev spline.PrevSegment, segEndType navcore.SegEndType, nextDest geom.Vec3, nowMs int64) {
	n.Spline.SetSpline(origin, dest, prev, segEndType, nextDest, nowMs)
	n.Mode = navcore.ModeSpline
}

// EnterSplineDestination switches to spline mode without the caller
// having to track origin/continuity itself: stoppedAtStart picks
// between starting fresh from the position controller's stopping point
// or continuing from the spline engine's own terminal state, mirroring
// EnterWaypoint's auto-origin convenience for the straight engine.
func (n *Navigator) EnterSplineDestination(dest geom.Vec3, stoppedAtStart bool, segEndType navcore.SegEndType, nextDest geom.Vec3, nowMs int64) {
	n.Spline.SetSplineDestination(dest, stoppedAtStart, segEndType, nextDest, nowMs)
	n.Mode = navcore.ModeSpline
}

// outgoingStraight reports the straight engine's terminal state, for
// handing continuity to a following spline segment.
func (n *Navigator) outgoingStraight() spline.PrevSegment {
	return spline.PrevSegment{
		Straight:    true,
		Origin:      n.Straight.Origin,
		Destination: n.Straight.Destination,
	}
}

// outgoingSpline reports the spline engine's terminal state, for handing
// continuity to a following spline segment.
func (n *Navigator) outgoingSpline() spline.PrevSegment {
	return spline.PrevSegment{
		Spline:         true,
		DestinationVel: n.Spline.DestinationVelocity(),
	}
}

// PrevSegmentForNextSpline returns the continuity context the active
// mode would hand to a freshly created spline segment, given the mode
// this navigator is currently flying.
func (n *Navigator) PrevSegmentForNextSpline() spline.PrevSegment {
	switch n.Mode {
	case navcore.ModeWaypoint:
		return n.outgoingStraight()
	case navcore.ModeSpline:
		return n.outgoingSpline()
	default:
		return spline.PrevSegment{Stopped: true}
	}
}

// Tick advances the active mode by one step by delegating to the mode's
// advance method. In waypoint and spline mode the engine publishes its
// carrot as the position target; in loiter mode only the feed-forward
// velocity is published, and the loiter target is not handed to the
// position controller. nowMs is the platform's monotonic millisecond
// clock.
func (n *Navigator) Tick(nowMs int64) {
	switch n.Mode {
	case navcore.ModeLoiter:
		n.Loiter.Update(nowMs)
	case navcore.ModeWaypoint:
		n.Straight.Advance(nowMs)
		n.Pos.UpdateXYController(true)
	case navcore.ModeSpline:
		n.Spline.Advance(nowMs)
		n.Pos.UpdateXYController(true)
	case navcore.ModeIdle:
	}
}

// UpdateAltitudeSource reads the barometer and folds in one drift-
// estimator update against an externally supplied altitude reference
// (e.g. GPS or rangefinder). dt is the elapsed time in seconds since the
// previous call.
func (n *Navigator) UpdateAltitudeSource(nowMs int64, externalAlt, dt float64) {
	if err := n.Baro.Read(nowMs); err != nil {
		n.Log.Warn("nav: baro read failed", "err", err)
		return
	}
	n.Baro.UpdateDriftEstimate(externalAlt, dt)
}

// Altitude returns the barometer's current filtered altitude, in
// metres.
func (n *Navigator) Altitude() float64 { return n.Baro.Altitude() }

// ClimbRate returns the barometer's current climb-rate estimate, in
// m/s.
func (n *Navigator) ClimbRate() float64 { return n.Baro.ClimbRate() }

// ReachedDestination reports whether the active waypoint or spline
// segment has completed. Always false in loiter or idle mode.
func (n *Navigator) ReachedDestination() bool {
	switch n.Mode {
	case navcore.ModeWaypoint:
		return n.Straight.ReachedDestination()
	case navcore.ModeSpline:
		return n.Spline.ReachedDestination()
	default:
		return false
	}
}
