// wpnav/straight.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package wpnav implements the straight-segment waypoint engine: it moves
// an intermediate target ("carrot") along a 3-D line from an origin to a
// destination, keeping the carrot within a kinematic leash envelope of
// the vehicle so the inner position controller never saturates.
package wpnav

import (
	"time"

	"github.com/flightcore/navloiter/geom"
	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
)

// UpdateTime is the nominal tick period for Advance, 100 ms (10 Hz).
const UpdateTime = 100 * time.Millisecond

// Straight holds one straight-line segment's state.
type Straight struct {
	Pos navcore.PosController
	In  navcore.InertialNav
	Log *navlog.Logger

	// tunables, read from the parameter table (see param.DefaultNavTable).
	WPSpeed         float64
	WPRadius        float64
	WPSpeedUp       float64
	WPSpeedDown     float64
	WPAccel         float64
	AltHoldAccelMax float64
	LeashLengthMin  float64

	Origin, Destination geom.Vec3
	u                   geom.Vec3 // unit vector origin->destination, zero if trackLength == 0
	TrackLength         float64
	TrackDesired        float64 // signed distance along u, monotonic non-decreasing within a segment

	limitedSpeedXY float64
	trackSpeed     float64
	trackAccel     float64
	trackLeash     float64

	ReachedDest  bool
	FastWaypoint bool
	SegmentType  navcore.SegmentType
	YawCd        int32

	lastUpdateMs int64
	haveLast     bool
}

// SetFastWaypoint marks whether arrival requires only that the carrot
// reach the end of the track (fast) or additionally that the vehicle
// itself enter WP_RADIUS of the destination (slow, the default).
func (s *Straight) SetFastWaypoint(fast bool) { s.FastWaypoint = fast }

// SetHorizontalVelocity overrides WP_SPEED (cm/s) ahead of the next
// SetWPOriginAndDestination call.
func (s *Straight) SetHorizontalVelocity(speedCmPerSec float64) {
	s.WPSpeed = speedCmPerSec
}

// SetWPDestination picks an origin: the current position target if a
// waypoint update occurred within the last second (i.e. this engine is
// already actively flying a track), otherwise the position controller's
// kinematic stopping point.
func (s *Straight) SetWPDestination(dest geom.Vec3, nowMs int64) {
	var origin geom.Vec3
	if s.haveLast && nowMs-s.lastUpdateMs < 1000 {
		origin = s.Pos.PosTarget()
	} else {
		xy := s.Pos.StoppingPointXY()
		origin = geom.Vec3{X: xy.X, Y: xy.Y, Z: s.Pos.StoppingPointZ()}
	}
	s.SetWPOriginAndDestination(origin, dest, nowMs)
}

// SetWPOriginAndDestination installs a new segment. ReachedDest is
// always false immediately after this call.
func (s *Straight) SetWPOriginAndDestination(origin, dest geom.Vec3, nowMs int64) {
	s.Origin, s.Destination = origin, dest

	delta := dest.Sub(origin)
	length := delta.Length()
	if length > 1e-6 {
		s.u = delta.Scale(1 / length)
		s.TrackLength = length
	} else {
		s.u = geom.Vec3{}
		s.TrackLength = 0
	}

	s.Pos.SetSpeedXY(s.WPSpeed)
	s.Pos.SetAccelXY(s.WPAccel)
	s.Pos.SetSpeedZ(s.WPSpeedDown, s.WPSpeedUp)

	s.calculateWPLeashLength()

	s.ReachedDest = false
	s.TrackDesired = 0

	vPar := s.In.Velocity().Dot(s.u)
	s.limitedSpeedXY = geom.Clamp(vPar, 0, s.WPSpeed)

	s.YawCd = geom.BearingCd(origin, dest)
	s.Pos.SetPosTarget(origin)

	s.lastUpdateMs = nowMs
	s.haveLast = true
}

// calculateWPLeashLength derives the along-track acceleration, speed, and
// leash from the position controller's per-axis limits: a maximum-leash
// deflection in any axis corresponds to the same along-track carrot
// advance. Division by a zero axis component is guarded by the case
// split below, not by a runtime epsilon check.
func (s *Straight) calculateWPLeashLength() {
	uXY := geom.Pythag2(s.u.X, s.u.Y)
	uZ := s.u.Z
	uZAbs := uZ
	if uZAbs < 0 {
		uZAbs = -uZAbs
	}

	speedZ := s.WPSpeedUp
	leashZ := s.Pos.LeashUpZ()
	if uZ < 0 {
		speedZ = s.WPSpeedDown
		leashZ = s.Pos.LeashDownZ()
	}
	leashXY := s.Pos.LeashXY()

	switch {
	case uXY == 0 && uZAbs == 0:
		s.trackAccel = 0
		s.trackSpeed = 0
		s.trackLeash = s.LeashLengthMin
	case uZAbs == 0:
		s.trackAccel = s.WPAccel / uXY
		s.trackSpeed = s.WPSpeed / uXY
		s.trackLeash = leashXY / uXY
	case uXY == 0:
		s.trackAccel = s.AltHoldAccelMax / uZAbs
		s.trackSpeed = speedZ / uZAbs
		s.trackLeash = leashZ / uZAbs
	default:
		s.trackAccel = min(s.WPAccel/uXY, s.AltHoldAccelMax/uZAbs)
		s.trackSpeed = min(s.WPSpeed/uXY, speedZ/uZAbs)
		s.trackLeash = min(leashXY/uXY, leashZ/uZAbs)
	}
}

// Advance moves the carrot one tick along the track. nowMs is the
// platform's monotonic millisecond clock.
func (s *Straight) Advance(nowMs int64) {
	var dt float64
	if s.haveLast {
		dt = float64(nowMs-s.lastUpdateMs) / 1000
	}
	s.lastUpdateMs = nowMs
	s.haveLast = true
	if dt >= 1.0 {
		s.Log.Debug("wpnav: dt reset", "dt", dt)
		dt = 0
	}

	pos := s.In.Position()
	delta := pos.Sub(s.Origin)
	trackCovered := delta.Dot(s.u)
	e := delta.Sub(s.u.Scale(trackCovered))
	eXY := geom.Pythag2(e.X, e.Y)
	eZAbs := e.Z
	if eZAbs < 0 {
		eZAbs = -eZAbs
	}

	leashZ := s.Pos.LeashUpZ()
	if e.Z < 0 {
		leashZ = s.Pos.LeashDownZ()
	}
	leashXY := s.Pos.LeashXY()

	trackExtraMax := s.trackLeash
	if leashZ > 0 {
		trackExtraMax = min(trackExtraMax, s.trackLeash*(leashZ-eZAbs)/leashZ)
	}
	if leashXY > 0 {
		trackExtraMax = min(trackExtraMax, s.trackLeash*(leashXY-eXY)/leashXY)
	}

	var trackDesiredMax float64
	if trackExtraMax < 0 {
		trackDesiredMax = trackCovered
	} else {
		trackDesiredMax = trackCovered + trackExtraMax
	}

	vel := s.In.Velocity()
	vPar := vel.Dot(s.u)

	kPxy := s.Pos.PosXYkP()
	var vLin float64
	if kPxy > 0 {
		vLin = s.trackAccel / kPxy
	}

	prevTrackDesired := s.TrackDesired

	switch {
	case vPar < -vLin:
		s.limitedSpeedXY = 0
	case trackDesiredMax > s.TrackDesired:
		s.limitedSpeedXY += 2 * s.trackAccel * dt
	default:
		s.TrackDesired = trackDesiredMax
	}

	s.limitedSpeedXY = geom.Clamp(s.limitedSpeedXY, 0, s.trackSpeed)

	vParAbs := vPar
	if vParAbs < 0 {
		vParAbs = -vParAbs
	}
	if vParAbs < vLin {
		s.limitedSpeedXY = geom.Clamp(s.limitedSpeedXY, vPar-vLin, vPar+vLin)
		if s.limitedSpeedXY < 0 {
			s.limitedSpeedXY = 0
		}
	}

	advanced := geom.Clamp(s.TrackDesired+s.limitedSpeedXY*dt, 0, s.TrackLength)
	s.TrackDesired = max(prevTrackDesired, advanced)

	s.Pos.SetPosTarget(s.Origin.Add(s.u.Scale(s.TrackDesired)))

	if s.TrackDesired >= s.TrackLength {
		if s.FastWaypoint {
			s.ReachedDest = true
		} else if pos.Sub(s.Destination).Length() <= s.WPRadius {
			s.ReachedDest = true
		}
	}
}

// StoppingPointXY returns the inner controller's stopping point — the
// same collaborator call a fresh SetWPDestination would use to pick an
// origin.
func (s *Straight) StoppingPointXY() geom.Vec3 { return s.Pos.StoppingPointXY() }

// DistanceToDestination returns the horizontal+vertical distance from the
// current position to the segment's destination, in cm.
func (s *Straight) DistanceToDestination() float64 {
	return s.In.Position().Sub(s.Destination).Length()
}

// BearingToDestinationCd returns the bearing from the current position to
// the destination, in centi-degrees.
func (s *Straight) BearingToDestinationCd() int32 {
	return geom.BearingCd(s.In.Position(), s.Destination)
}

// ReachedDestination reports whether the segment has been completed.
func (s *Straight) ReachedDestination() bool { return s.ReachedDest }
