// spline/spline.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package spline implements the Hermite-cubic spline-segment engine: it
// joins an origin and destination with a cubic curve whose tangents are
// chosen from neighbouring segment context, giving continuous velocity
// across a chain of waypoints, then advances a carrot along the curve
// at a controlled along-track speed with slow-down on final approach.
package spline

import (
	"time"

	"github.com/flightcore/navloiter/geom"
	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
)

// UpdateTime is the nominal tick period for Advance, 100 ms (10 Hz),
// matching the straight-segment engine's rate.
const UpdateTime = 100 * time.Millisecond

// TimeRolloverLow and TimeRolloverHigh bound the small overshoot window
// in which a fresh segment carries the previous segment's excess
// parametric time forward instead of resetting to zero.
const (
	TimeRolloverLow  = 1.0
	TimeRolloverHigh = 1.1
)

// Segment holds one Hermite-cubic spline segment's state.
type Segment struct {
	Pos navcore.PosController
	In  navcore.InertialNav
	Log *navlog.Logger

	// tunables, read from the parameter table (see param.DefaultNavTable).
	WPSpeed float64
	WPAccel float64

	Origin, Destination geom.Vec3
	v0, v1              geom.Vec3 // tangent vectors used to build H

	h0, h1, h2, h3 geom.Vec3 // Hermite coefficients

	S float64 // normalised curve parameter, 0 at origin, 1 at destination

	slowDownDist     float64
	splineVelScaler  float64
	destinationVel   geom.Vec3 // tangent at s=1, handed to the next segment for continuity

	ReachedDest  bool
	FastWaypoint bool
	YawCd        int32

	lastUpdateMs int64
	haveLast     bool
}

// PrevSegment describes the outgoing segment's terminal state, used to
// pick this segment's origin tangent so velocity stays continuous
// across the junction.
type PrevSegment struct {
	// Stopped is true if the vehicle has no previous segment in flight,
	// or came to rest at the origin (e.g. after a loiter).
	Stopped bool
	// Straight is true if the previous segment was a straight leg;
	// Origin/Destination give its endpoints.
	Straight            bool
	Origin, Destination geom.Vec3
	// Spline is true if the previous segment was itself a spline;
	// DestinationVel gives its terminal tangent.
	Spline         bool
	DestinationVel geom.Vec3
}

// SetSpline installs a new spline segment between origin and
// destination, choosing the origin tangent from prev and the
// destination tangent from segEndType / nextDestination.
func (s *Segment) SetSpline(origin, dest geom.Vec3, prev PrevSegment, segEndType navcore.SegEndType, nextDest geom.Vec3, nowMs int64) {
	s.Origin, s.Destination = origin, dest

	switch {
	case prev.Spline:
		s.v0 = prev.DestinationVel
	case prev.Straight:
		s.v0 = prev.Destination.Sub(prev.Origin)
	default:
		s.v0 = dest.Sub(origin).Scale(0.1)
	}

	switch segEndType {
	case navcore.SegEndStraight:
		s.v1 = nextDest.Sub(dest)
		s.FastWaypoint = true
	case navcore.SegEndSpline:
		s.v1 = nextDest.Sub(origin)
		s.FastWaypoint = true
	default: // navcore.SegEndStop
		s.v1 = dest.Sub(origin).Scale(0.1)
		s.FastWaypoint = false
	}

	sum := s.v0.Add(s.v1)
	if span := dest.Sub(origin).Length(); span > 1e-9 {
		if limit := 4 * span; sum.Length() > limit {
			scale := limit / sum.Length()
			s.v0 = s.v0.Scale(scale)
			s.v1 = s.v1.Scale(scale)
		}
	}

	s.h0 = origin
	s.h1 = s.v0
	s.h2 = origin.Scale(-3).Sub(s.v0.Scale(2)).Add(dest.Scale(3)).Sub(s.v1)
	s.h3 = origin.Scale(2).Add(s.v0).Sub(dest.Scale(2)).Add(s.v1)

	if s.WPAccel > 0 {
		s.slowDownDist = s.WPSpeed * s.WPSpeed / (2 * s.WPAccel)
	} else {
		s.slowDownDist = 0
	}
	s.S = 0
	s.splineVelScaler = 0
	s.ReachedDest = false

	s.destinationVel = s.evalVelocity(1)

	s.Pos.SetSpeedXY(s.WPSpeed)
	s.Pos.SetAccelXY(s.WPAccel)

	s.lastUpdateMs = nowMs
	s.haveLast = true
}

// SetSplineRollover installs the next segment in a chain, carrying the
// outgoing segment's overshoot parametric time forward when it falls in
// (TimeRolloverLow, TimeRolloverHigh); otherwise it behaves exactly like
// SetSpline with S starting at 0.
func (s *Segment) SetSplineRollover(prevS float64, origin, dest geom.Vec3, prev PrevSegment, segEndType navcore.SegEndType, nextDest geom.Vec3, nowMs int64) {
	s.SetSpline(origin, dest, prev, segEndType, nextDest, nowMs)
	if prevS > TimeRolloverLow && prevS < TimeRolloverHigh {
		s.S = prevS - 1.0
	} else {
		s.S = 0
	}
}

// SetSplineDestination installs the next spline segment without the
// caller having to track origin/continuity itself: if stoppedAtStart is
// true the origin is the position controller's kinematic stopping point
// and the tangent starts from rest, exactly as a fresh segment created
// after a loiter or landing abort would; otherwise this Segment is
// assumed to already be actively flying, so the new leg continues from
// its own terminal state (destination, tangent, and overshoot time),
// the same "destination and spline_destination_vel stitch continuity"
// rule SetSpline applies when called explicitly.
func (s *Segment) SetSplineDestination(dest geom.Vec3, stoppedAtStart bool, segEndType navcore.SegEndType, nextDest geom.Vec3, nowMs int64) {
	if stoppedAtStart {
		xy := s.Pos.StoppingPointXY()
		origin := geom.Vec3{X: xy.X, Y: xy.Y, Z: s.Pos.StoppingPointZ()}
		s.SetSpline(origin, dest, PrevSegment{Stopped: true}, segEndType, nextDest, nowMs)
		return
	}
	origin := s.Destination
	prev := PrevSegment{Spline: true, DestinationVel: s.destinationVel}
	s.SetSplineRollover(s.S, origin, dest, prev, segEndType, nextDest, nowMs)
}

// evalPosition samples P(s) = H0 + H1*s + H2*s^2 + H3*s^3.
func (s *Segment) evalPosition(t float64) geom.Vec3 {
	return s.h0.Add(s.h1.Scale(t)).Add(s.h2.Scale(t * t)).Add(s.h3.Scale(t * t * t))
}

// evalVelocity samples P'(s) = H1 + 2*H2*s + 3*H3*s^2.
func (s *Segment) evalVelocity(t float64) geom.Vec3 {
	return s.h1.Add(s.h2.Scale(2 * t)).Add(s.h3.Scale(3 * t * t))
}

// DestinationVelocity returns the tangent at s=1, handed to the next
// segment so it can continue the curve without a velocity discontinuity.
func (s *Segment) DestinationVelocity() geom.Vec3 { return s.destinationVel }

// Advance moves the carrot one tick along the curve. nowMs is the
// platform's monotonic millisecond clock.
func (s *Segment) Advance(nowMs int64) {
	var dt float64
	if s.haveLast {
		dt = float64(nowMs-s.lastUpdateMs) / 1000
	}
	s.lastUpdateMs = nowMs
	s.haveLast = true
	if dt >= 1.0 {
		s.Log.Debug("spline: dt reset", "dt", dt)
		dt = 0
	}

	pS := s.evalPosition(s.S)
	vS := s.evalVelocity(s.S)

	d := s.Destination.Sub(pS).Length()

	switch {
	case !s.FastWaypoint && d < s.slowDownDist:
		s.splineVelScaler = geom.SafeSqrt(2 * s.WPAccel * d)
	case s.splineVelScaler < s.WPSpeed:
		s.splineVelScaler += s.WPAccel * 0.1
	}
	s.splineVelScaler = geom.Clamp(s.splineVelScaler, 0, s.WPSpeed)

	if vMag := vS.Length(); vMag > 1e-6 {
		sScale := s.splineVelScaler / vMag
		s.S += sScale * dt
	}

	s.Pos.SetPosTarget(pS)
	s.YawCd = geom.VelocityBearingCd(vS)

	if s.S >= 1 {
		s.ReachedDest = true
	}
}

// ReachedDestination reports whether the segment has been completed.
func (s *Segment) ReachedDestination() bool { return s.ReachedDest }
