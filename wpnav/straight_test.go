// wpnav/straight_test.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wpnav

import (
	"testing"

	"github.com/flightcore/navloiter/geom"
)

// fakePos is a minimal navcore.PosController stub with a configurable
// kP and leash lengths and a fixed zero stopping point; the tests move
// the fakeInertial vehicle themselves.
type fakePos struct {
	target geom.Vec3

	speedXY, accelXY       float64
	speedDownZ, speedUpZ   float64
	leashXY, leashUp, leashDown float64
	kP                     float64
}

func (f *fakePos) SetPosTarget(p geom.Vec3) { f.target = p }
func (f *fakePos) PosTarget() geom.Vec3      { return f.target }
func (f *fakePos) SetDesiredVelocityXY(vx, vy float64)    {}
func (f *fakePos) DesiredVelocityXY() (float64, float64)  { return 0, 0 }
func (f *fakePos) SetSpeedXY(s float64)      { f.speedXY = s }
func (f *fakePos) SetAccelXY(a float64)      { f.accelXY = a }
func (f *fakePos) SetSpeedZ(down, up float64) { f.speedDownZ, f.speedUpZ = down, up }
func (f *fakePos) CalcLeashLengthXY(speed, accel, kP float64) float64 { return f.leashXY }
func (f *fakePos) CalcLeashLengthZ(speed, accel float64) float64      { return f.leashUp }
func (f *fakePos) LeashXY() float64    { return f.leashXY }
func (f *fakePos) LeashUpZ() float64   { return f.leashUp }
func (f *fakePos) LeashDownZ() float64 { return f.leashDown }
func (f *fakePos) StoppingPointXY() geom.Vec3 { return geom.Vec3{} }
func (f *fakePos) StoppingPointZ() float64    { return 0 }
func (f *fakePos) PosXYkP() float64           { return f.kP }
func (f *fakePos) TriggerXY()                 {}
func (f *fakePos) UpdateXYController(runFull bool) {}

type fakeInertial struct {
	pos, vel geom.Vec3
}

func (f *fakeInertial) Position() geom.Vec3 { return f.pos }
func (f *fakeInertial) Velocity() geom.Vec3 { return f.vel }

func newStraight(pos *fakePos, in *fakeInertial) *Straight {
	return &Straight{
		Pos: pos, In: in,
		WPSpeed: 500, WPRadius: 200, WPSpeedUp: 250, WPSpeedDown: 150,
		WPAccel: 100, AltHoldAccelMax: 250, LeashLengthMin: 100,
	}
}

// TestStraightFlatWaypoint flies a flat waypoint to completion, checking
// that the carrot's along-track position never regresses and that the
// vehicle ultimately arrives within WP_RADIUS of the destination.
func TestStraightFlatWaypoint(t *testing.T) {
	pos := &fakePos{leashXY: 1000, leashUp: 1000, leashDown: 1000, kP: 1}
	in := &fakeInertial{}
	s := newStraight(pos, in)
	s.SetWPOriginAndDestination(geom.Vec3{}, geom.Vec3{X: 10000, Y: 0, Z: 0}, 0)

	if s.ReachedDest {
		t.Fatal("ReachedDest should be false right after SetWPOriginAndDestination")
	}

	prevTrackDesired := s.TrackDesired
	ticksToReach := -1
	now := int64(0)
	for i := 0; i < 2000; i++ {
		now += 100
		s.Advance(now)

		if s.TrackDesired < prevTrackDesired {
			t.Fatalf("tick %d: track_desired decreased from %v to %v, should be monotonic non-decreasing", i, prevTrackDesired, s.TrackDesired)
		}
		if s.TrackDesired < 0 || s.TrackDesired > s.TrackLength {
			t.Fatalf("tick %d: track_desired = %v out of [0,%v]", i, s.TrackDesired, s.TrackLength)
		}
		prevTrackDesired = s.TrackDesired

		toTarget := s.Pos.(*fakePos).target.Sub(in.pos)
		if d := toTarget.Length(); d > 1e-9 {
			step := toTarget.Normalize().Scale(500 * 0.1)
			if step.Length() > d {
				step = toTarget
			}
			in.pos = in.pos.Add(step)
			in.vel = toTarget.Normalize().Scale(400)
		}

		if ticksToReach < 0 && s.TrackDesired >= s.TrackLength {
			ticksToReach = i
		}
		if s.ReachedDest {
			break
		}
	}

	if !s.ReachedDest {
		t.Fatal("segment never reached destination")
	}
	if d := in.pos.Sub(s.Destination).Length(); d > s.WPRadius+1 {
		t.Errorf("reached destination at distance %v, want <= WP_RADIUS=%v", d, s.WPRadius)
	}
	// The carrot must have reached the end of the track: a slow
	// waypoint is never marked reached before it does.
	if ticksToReach < 0 {
		t.Fatal("track_desired never reached track_length")
	}
}

// TestStraightFastWaypointArrivesImmediately checks that a fast
// waypoint's arrival fires the instant track_desired == track_length,
// regardless of the vehicle's radial distance. The vehicle stays at the
// origin, so the horizontal leash is made longer than the track to let
// the carrot reach the end without the vehicle following it.
func TestStraightFastWaypointArrivesImmediately(t *testing.T) {
	pos := &fakePos{leashXY: 20000, leashUp: 1000, leashDown: 1000, kP: 1}
	in := &fakeInertial{}
	s := newStraight(pos, in)
	s.SetFastWaypoint(true)
	s.SegmentType = 1 // created via spline hand-off, conceptually
	s.SetWPOriginAndDestination(geom.Vec3{}, geom.Vec3{X: 10000, Y: 0, Z: 0}, 0)

	now := int64(0)
	for i := 0; i < 5000; i++ {
		now += 100
		s.Advance(now)
		if s.TrackDesired >= s.TrackLength {
			if !s.ReachedDest {
				t.Fatalf("tick %d: track_desired reached track_length but fast waypoint not marked reached", i)
			}
			// Vehicle is still far from destination: the fast-arrival
			// rule must not depend on it.
			if d := in.pos.Sub(s.Destination).Length(); d < s.WPRadius {
				t.Skip("vehicle coincidentally already within radius; inconclusive for this run")
			}
			return
		}
		if s.ReachedDest {
			t.Fatalf("tick %d: reached destination before track_desired reached track_length", i)
		}
	}
	t.Fatal("track_desired never reached track_length")
}

// TestStraightPureClimb flies a vertical-only segment and checks that
// it uses the vertical speed/accel limits rather than the horizontal
// ones.
func TestStraightPureClimb(t *testing.T) {
	pos := &fakePos{leashXY: 1000, leashUp: 1000, leashDown: 1000, kP: 1}
	in := &fakeInertial{}
	s := newStraight(pos, in)
	s.SetWPOriginAndDestination(geom.Vec3{}, geom.Vec3{X: 0, Y: 0, Z: 5000}, 0)

	if s.trackSpeed != s.WPSpeedUp {
		t.Errorf("track_speed = %v, want WP_SPEED_UP = %v", s.trackSpeed, s.WPSpeedUp)
	}
	if s.trackAccel != s.AltHoldAccelMax {
		t.Errorf("track_accel = %v, want ALT_HOLD_ACCEL_MAX = %v", s.trackAccel, s.AltHoldAccelMax)
	}
	if s.trackLeash != s.Pos.LeashUpZ() {
		t.Errorf("track_leash = %v, want leash_up_z = %v", s.trackLeash, s.Pos.LeashUpZ())
	}

	now := int64(0)
	ticks := 0
	for i := 0; i < 400; i++ {
		now += 100
		s.Advance(now)
		ticks++
		toTarget := pos.target.Sub(in.pos)
		if d := toTarget.Length(); d > 1e-9 {
			step := toTarget.Normalize().Scale(250 * 0.1)
			if step.Length() > d {
				step = toTarget
			}
			in.pos = in.pos.Add(step)
			in.vel = toTarget.Normalize().Scale(250)
		}
		if s.ReachedDest {
			break
		}
	}
	if !s.ReachedDest {
		t.Fatal("climb segment never completed")
	}
	if elapsed := float64(ticks) * 0.1; elapsed < 20 {
		t.Errorf("climb completed in %v s, want >= 20s (250cm/s over 5000cm)", elapsed)
	}
}

// TestLeashLengthHomogeneous checks that calculateWPLeashLength is
// homogeneous of degree 0 in the direction vector: rescaling the
// destination without changing its direction leaves the derived
// along-track accel/speed/leash unchanged.
func TestLeashLengthHomogeneous(t *testing.T) {
	pos := &fakePos{leashXY: 1000, leashUp: 1000, leashDown: 1000, kP: 1}
	in := &fakeInertial{}
	s1 := newStraight(pos, in)
	s1.SetWPOriginAndDestination(geom.Vec3{}, geom.Vec3{X: 3000, Y: 4000, Z: 1000}, 0)

	s2 := newStraight(pos, in)
	s2.SetWPOriginAndDestination(geom.Vec3{}, geom.Vec3{X: 30000, Y: 40000, Z: 10000}, 0)

	if diff := s1.trackAccel - s2.trackAccel; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("track_accel differs under rescaling: %v vs %v", s1.trackAccel, s2.trackAccel)
	}
	if diff := s1.trackSpeed - s2.trackSpeed; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("track_speed differs under rescaling: %v vs %v", s1.trackSpeed, s2.trackSpeed)
	}
	if diff := s1.trackLeash - s2.trackLeash; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("track_leash differs under rescaling: %v vs %v", s1.trackLeash, s2.trackLeash)
	}
}

// TestZeroLengthSegmentArrivesAtRadius checks that a zero-length segment
// (origin == destination) degenerates cleanly rather than dividing by
// zero, and reaches immediately if the vehicle is already within radius.
func TestZeroLengthSegmentArrivesAtRadius(t *testing.T) {
	pos := &fakePos{leashXY: 1000, leashUp: 1000, leashDown: 1000, kP: 1}
	in := &fakeInertial{pos: geom.Vec3{X: 50, Y: 0, Z: 0}}
	s := newStraight(pos, in)
	s.SetWPOriginAndDestination(geom.Vec3{X: 100, Y: 0, Z: 0}, geom.Vec3{X: 100, Y: 0, Z: 0}, 0)

	if s.u != (geom.Vec3{}) {
		t.Errorf("u = %v, want zero vector for zero-length segment", s.u)
	}
	if s.trackLeash != s.LeashLengthMin {
		t.Errorf("track_leash = %v, want LEASH_LENGTH_MIN = %v", s.trackLeash, s.LeashLengthMin)
	}

	s.Advance(100)
	if s.TrackDesired != 0 {
		t.Errorf("track_desired = %v, want 0 for zero-length segment", s.TrackDesired)
	}
	// Vehicle at distance 50 from (100,0,0), within WP_RADIUS=200: a slow
	// waypoint should be reached immediately.
	if !s.ReachedDest {
		t.Error("zero-length segment with vehicle within WP_RADIUS should be reached")
	}
}
