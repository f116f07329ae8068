// cmd/navsim/simcollab.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"math"
	"time"

	"github.com/flightcore/navloiter/geom"
)

// simInertialNav is a stand-in for a fused position/velocity estimator:
// its state is simply whatever simPosController last integrated toward
// the commanded target.
type simInertialNav struct {
	pos, vel geom.Vec3
}

func (n *simInertialNav) Position() geom.Vec3 { return n.pos }
func (n *simInertialNav) Velocity() geom.Vec3 { return n.vel }

// simAHRS reports a fixed yaw; the navigation engines under test don't
// need a rotating vehicle to exercise their math.
type simAHRS struct{ yawCd int32 }

func (a *simAHRS) CosYaw() float64    { return math.Cos(float64(a.yawCd) * math.Pi / 18000) }
func (a *simAHRS) SinYaw() float64    { return math.Sin(float64(a.yawCd) * math.Pi / 18000) }
func (a *simAHRS) YawSensorCd() int32 { return a.yawCd }

// simPosController is a minimal stand-in for the inner position-control
// loop: it tracks a position target and feed-forward velocity, and its
// UpdateXYController step kinematically drags the attached InertialNav
// toward the target within the configured speed limits (acceleration is
// not limited), acting as the
// idealized inner loop the navigation engines are designed to drive.
type simPosController struct {
	in *simInertialNav

	target  geom.Vec3
	desVx, desVy float64

	speedXY, accelXY     float64
	speedDownZ, speedUpZ float64

	leashXY, leashUpZ, leashDownZ float64
	kP                            float64

	lastStepMs int64
	haveLast   bool
}

func newSimPosController(in *simInertialNav) *simPosController {
	return &simPosController{
		in: in,
		leashXY: 1000, leashUpZ: 1000, leashDownZ: 1000,
		kP: 1,
	}
}

func (p *simPosController) SetPosTarget(t geom.Vec3) { p.target = t }
func (p *simPosController) PosTarget() geom.Vec3     { return p.target }

func (p *simPosController) SetDesiredVelocityXY(vx, vy float64) { p.desVx, p.desVy = vx, vy }
func (p *simPosController) DesiredVelocityXY() (float64, float64) { return p.desVx, p.desVy }

func (p *simPosController) SetSpeedXY(s float64)      { p.speedXY = s }
func (p *simPosController) SetAccelXY(a float64)      { p.accelXY = a }
func (p *simPosController) SetSpeedZ(down, up float64) { p.speedDownZ, p.speedUpZ = down, up }

func (p *simPosController) CalcLeashLengthXY(speed, accel, kP float64) float64 {
	if kP <= 0 || accel <= 0 {
		return p.leashXY
	}
	return geom.Clamp(speed*speed/(2*accel), 100, 5000)
}

func (p *simPosController) CalcLeashLengthZ(speed, accel float64) float64 {
	if accel <= 0 {
		return p.leashUpZ
	}
	return geom.Clamp(speed*speed/(2*accel), 100, 5000)
}

func (p *simPosController) LeashXY() float64    { return p.leashXY }
func (p *simPosController) LeashUpZ() float64   { return p.leashUpZ }
func (p *simPosController) LeashDownZ() float64 { return p.leashDownZ }

func (p *simPosController) StoppingPointXY() geom.Vec3 {
	xy := p.in.pos.XY()
	if p.accelXY <= 0 {
		return xy
	}
	vxy := geom.Vec3{X: p.in.vel.X, Y: p.in.vel.Y}
	brake := vxy.Length() * vxy.Length() / (2 * p.accelXY)
	return xy.Add(vxy.Normalize().Scale(brake))
}

func (p *simPosController) StoppingPointZ() float64 { return p.in.pos.Z }

func (p *simPosController) PosXYkP() float64 { return p.kP }

func (p *simPosController) TriggerXY() {}

// UpdateXYController advances the simulated vehicle one inner-loop step
// toward the commanded target, clamped to the configured speed limit —
// a simplified stand-in for the PID-plus-feed-forward loop the real
// position controller runs.
func (p *simPosController) UpdateXYController(runFull bool) {
	nowMs := time.Now().UnixMilli()
	var dt float64
	if p.haveLast {
		dt = float64(nowMs-p.lastStepMs) / 1000
	}
	p.lastStepMs = nowMs
	p.haveLast = true
	if dt <= 0 || dt > 1 {
		return
	}

	toTarget := p.target.Sub(p.in.pos)
	speedLimit := p.speedXY
	if speedLimit <= 0 {
		speedLimit = 500
	}
	if d := toTarget.XY().Length(); d > 1e-6 {
		step := toTarget.XY().Normalize().Scale(speedLimit * dt)
		if step.Length() > d {
			step = toTarget.XY()
		}
		p.in.pos.X += step.X
		p.in.pos.Y += step.Y
		p.in.vel.X = step.X / dt
		p.in.vel.Y = step.Y / dt
	} else {
		p.in.vel.X, p.in.vel.Y = 0, 0
	}

	zLimit := p.speedUpZ
	if toTarget.Z < 0 {
		zLimit = p.speedDownZ
	}
	if zLimit <= 0 {
		zLimit = 250
	}
	if dz := toTarget.Z; dz != 0 {
		step := zLimit * dt
		if step > math.Abs(dz) {
			step = math.Abs(dz)
		}
		if dz < 0 {
			step = -step
		}
		p.in.pos.Z += step
		p.in.vel.Z = step / dt
	} else {
		p.in.vel.Z = 0
	}
}

// realClock is the platform clock backed by the wall clock, with a
// real blocking delay and a fatal panic for calibration failure.
type realClock struct{ start time.Time }

func newRealClock() *realClock { return &realClock{start: time.Now()} }

func (c *realClock) NowMillis() int64       { return time.Since(c.start).Milliseconds() }
func (c *realClock) DelayMillis(ms int64)   { time.Sleep(time.Duration(ms) * time.Millisecond) }
func (c *realClock) Panic(msg string)       { panic(msg) }

// simSensor is a synthetic pressure sensor that ramps linearly at a
// configured rate, enough to exercise barometer calibration and the
// drift estimator without real hardware.
type simSensor struct {
	pressure    float64
	temperature float64
	ratePaPerS  float64
	lastTickMs  int64
	haveLast    bool
	healthy     bool
}

func newSimSensor(groundPressurePa, ratePaPerS float64) *simSensor {
	return &simSensor{pressure: groundPressurePa, temperature: 15, ratePaPerS: ratePaPerS, healthy: true}
}

func (s *simSensor) Init() error { s.healthy = true; return nil }

func (s *simSensor) Read() error {
	nowMs := time.Now().UnixMilli()
	if s.haveLast {
		dt := float64(nowMs-s.lastTickMs) / 1000
		s.pressure += s.ratePaPerS * dt
	}
	s.lastTickMs = nowMs
	s.haveLast = true
	return nil
}

func (s *simSensor) Pressure() float64    { return s.pressure }
func (s *simSensor) Temperature() float64 { return s.temperature }
func (s *simSensor) Healthy() bool        { return s.healthy }
