// navcore/interfaces.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package navcore provides the shared mode and segment enums and the
// narrow collaborator interfaces the engines are built against: inertial
// navigation, attitude estimation, the inner position controller, and the
// platform clock. These are external systems this core does not own;
// this package only declares the shapes the navigation core needs from
// them.
package navcore

import "github.com/flightcore/navloiter/geom"

// InertialNav is the fused 3-D position/velocity estimator.
type InertialNav interface {
	Position() geom.Vec3 // cm from home
	Velocity() geom.Vec3 // cm/s
}

// AHRS supplies the vehicle's yaw for frame rotation.
type AHRS interface {
	CosYaw() float64
	SinYaw() float64
	YawSensorCd() int32 // centi-degrees
}

// PosController is the inner position-control loop: PID on position with
// velocity feed-forward, and the leash computation used to clamp position
// error. It is owned and driven elsewhere; this interface is the narrow
// surface the navigation engines need from it.
type PosController interface {
	SetPosTarget(p geom.Vec3)
	PosTarget() geom.Vec3

	SetDesiredVelocityXY(vx, vy float64)
	DesiredVelocityXY() (vx, vy float64)

	SetSpeedXY(cmPerSec float64)
	SetAccelXY(cmPerSec2 float64)
	SetSpeedZ(down, up float64)

	CalcLeashLengthXY(speed, accel, kP float64) float64
	CalcLeashLengthZ(speed, accel float64) float64
	LeashXY() float64
	LeashUpZ() float64
	LeashDownZ() float64

	StoppingPointXY() geom.Vec3
	StoppingPointZ() float64

	PosXYkP() float64

	TriggerXY()
	UpdateXYController(runFull bool)
}

// Clock is the platform's monotonic millisecond tick source.
type Clock interface {
	NowMillis() int64
}

// Platform groups the clock with the two other bare-metal primitives the
// core needs: a blocking delay (used only during barometer calibration)
// and a fatal abort for conditions the flight controller must refuse to
// arm on.
type Platform interface {
	Clock
	DelayMillis(ms int64)
	Panic(msg string)
}
