// loiter/loiter.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package loiter implements the pilot-driven loiter controller: hover in
// place while roll/pitch stick deflections perturb the target, with
// synthetic viscous-plus-coulomb drag bringing the feed-forward velocity
// smoothly to zero once the sticks recentre.
package loiter

import (
	"time"

	"github.com/flightcore/navloiter/geom"
	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
)

// UpdateTime is the target tick period for Update, ~10 ms (100 Hz).
const UpdateTime = 10 * time.Millisecond

// Controller holds the loiter mode's state: target position, feed-forward
// desired velocity, pilot-commanded body-frame acceleration, and the
// bookkeeping needed to compute dt between ticks.
type Controller struct {
	Pos PosController
	In  navcore.InertialNav
	Ahrs navcore.AHRS
	Log  *navlog.Logger

	// tunables, read from the parameter table at construction; LoitSpeed
	// may be raised at runtime to LoiterSpeedMin (step 2 of the update).
	LoitSpeed       float64
	LoiterAccelMin  float64
	LoiterSpeedMin  float64

	target   geom.Vec3 // cm, horizontal target position (z carried through unmodified)
	velocity geom.Vec3 // cm/s, desired feed-forward velocity (z unused)
	pilotAccelFwd, pilotAccelRight float64 // cm/s^2, body frame

	loiterAccel float64 // = LoitSpeed/2, recomputed whenever LoitSpeed changes

	lastUpdateMs int64
	haveLast     bool
	subStep      int
}

// PosController is the position-controller interface the loiter
// controller drives (an alias of the full navcore.PosController; loiter
// uses its speed/accel limits, feed-forward velocity, stopping point,
// and the trigger to run the inner loop).
type PosController = navcore.PosController

// New builds a Controller wired to the given collaborators. LoitSpeed,
// LoiterAccelMin, and LoiterSpeedMin should come from the parameter
// table (see param.DefaultNavTable).
func New(pos PosController, in navcore.InertialNav, ahrs navcore.AHRS, lg *navlog.Logger, loitSpeed, loiterAccelMin, loiterSpeedMin float64) *Controller {
	c := &Controller{
		Pos: pos, In: in, Ahrs: ahrs, Log: lg,
		LoitSpeed: loitSpeed, LoiterAccelMin: loiterAccelMin, LoiterSpeedMin: loiterSpeedMin,
	}
	c.loiterAccel = c.LoitSpeed / 2
	return c
}

// InitLoiterTarget seeds the target position and feed-forward velocity
// from the current inertial state, and zeroes pilot input. Used when
// entering loiter mode from flight.
func (c *Controller) InitLoiterTarget() {
	c.target = c.In.Position()
	c.velocity = c.In.Velocity()
	c.pilotAccelFwd, c.pilotAccelRight = 0, 0
	c.haveLast = false
	c.applySpeedLimits()
}

// SetLoiterTarget seeds the target position to p with zero feed-forward
// velocity and zero pilot input. Used when a caller already knows the
// desired hover point (e.g. after an RTL or landing abort).
func (c *Controller) SetLoiterTarget(p geom.Vec3) {
	c.target = p
	c.velocity = geom.Vec3{}
	c.pilotAccelFwd, c.pilotAccelRight = 0, 0
	c.haveLast = false
	c.applySpeedLimits()
}

func (c *Controller) applySpeedLimits() {
	c.Pos.SetSpeedXY(c.LoitSpeed)
	c.Pos.SetAccelXY(c.LoitSpeed / 2)
}

// SetLoiterVelocity overrides LOIT_SPEED (cm/s) and recomputes the
// derived braking acceleration and position-controller limits.
func (c *Controller) SetLoiterVelocity(speedCmPerSec float64) {
	if speedCmPerSec < c.LoiterSpeedMin {
		speedCmPerSec = c.LoiterSpeedMin
	}
	c.LoitSpeed = speedCmPerSec
	c.loiterAccel = c.LoitSpeed / 2
	c.applySpeedLimits()
}

// SetPilotDesiredAcceleration converts normalised stick deflections
// (centi-degrees, +-4500) into body-frame accelerations. Pitch sign is
// inverted because forward stick is nose-down.
func (c *Controller) SetPilotDesiredAcceleration(rollCd, pitchCd float64) {
	c.pilotAccelFwd = -pitchCd * (c.loiterAccel / 4500)
	c.pilotAccelRight = rollCd * (c.loiterAccel / 4500)
}

// StoppingPointXY returns the inner controller's kinematic stopping
// point, the same point a straight-segment origin would use.
func (c *Controller) StoppingPointXY() geom.Vec3 {
	return c.Pos.StoppingPointXY()
}

// BearingToTargetCd returns the bearing from the current position to the
// loiter target, in centi-degrees.
func (c *Controller) BearingToTargetCd() int32 {
	return geom.BearingCd(c.In.Position(), c.target)
}

// Target returns the current loiter target position.
func (c *Controller) Target() geom.Vec3 { return c.target }

// Velocity returns the current desired feed-forward velocity.
func (c *Controller) Velocity() geom.Vec3 { return c.velocity }

// Update advances the loiter controller by one tick: integrate pilot
// acceleration into feed-forward velocity, apply drag, cap the speed,
// and publish the result to the position controller. nowMs is the
// platform's monotonic millisecond clock.
func (c *Controller) Update(nowMs int64) {
	var dt float64
	if c.haveLast {
		dt = float64(nowMs-c.lastUpdateMs) / 1000
	}
	c.lastUpdateMs = nowMs
	c.haveLast = true

	if dt < UpdateTime.Seconds() {
		// Too soon for a full step; just run the inner loop.
		c.Pos.UpdateXYController(true)
		return
	}
	if dt >= 1.0 {
		// Scheduler starvation: reset rather than integrate a huge dt.
		c.Log.Debug("loiter: dt reset", "dt", dt)
		dt = 0
	}

	if c.LoitSpeed < c.LoiterSpeedMin {
		c.LoitSpeed = c.LoiterSpeedMin
		c.loiterAccel = c.LoitSpeed / 2
		c.applySpeedLimits()
	}

	// Rotate pilot body-frame acceleration into north/east using yaw.
	cosYaw, sinYaw := c.Ahrs.CosYaw(), c.Ahrs.SinYaw()
	aNorth := c.pilotAccelFwd*cosYaw - c.pilotAccelRight*sinYaw
	aEast := c.pilotAccelFwd*sinYaw + c.pilotAccelRight*cosYaw

	vNorth := c.velocity.X + aNorth*dt
	vEast := c.velocity.Y + aEast*dt

	vNorth = applyDrag(vNorth, c.loiterAccel, c.LoiterAccelMin, c.LoitSpeed, dt)
	vEast = applyDrag(vEast, c.loiterAccel, c.LoiterAccelMin, c.LoitSpeed, dt)

	if speed := geom.Pythag2(vNorth, vEast); speed > c.LoitSpeed && speed > 0 {
		scale := c.LoitSpeed / speed
		vNorth *= scale
		vEast *= scale
	}

	c.velocity = geom.Vec3{X: vNorth, Y: vEast, Z: 0}
	c.subStep++

	c.Pos.SetDesiredVelocityXY(vNorth, vEast)
	c.Pos.TriggerXY()
	c.Pos.UpdateXYController(true)
}

// applyDrag applies viscous-plus-coulomb braking to a single signed
// velocity component: a term proportional to speed plus a constant-
// magnitude friction term, the latter clamped so it cannot overshoot
// past zero and reverse the sign of v.
func applyDrag(v, loiterAccel, loiterAccelMin, loitSpeed, dt float64) float64 {
	if loitSpeed <= 0 {
		return 0
	}
	// Viscous term: proportional to current speed.
	v -= (loiterAccel - loiterAccelMin) * dt * v / loitSpeed

	// Coulomb term: constant-magnitude friction toward zero, clamped so
	// it cannot cross zero and reverse the sign of v.
	friction := loiterAccelMin * dt
	switch {
	case v > 0:
		v -= friction
		if v < 0 {
			v = 0
		}
	case v < 0:
		v += friction
		if v > 0 {
			v = 0
		}
	}
	return v
}
