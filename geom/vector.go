// geom/vector.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package geom implements the 3-vector and scalar math shared by the
// navigation engines: a local-Cartesian Vec3 (x=north, y=east, z=up, in
// centimetres), bearing conversions in centi-degrees, and the handful of
// guarded scalar helpers (SafeSqrt, Pythag2) that keep the leash and
// spline math from dividing by, or taking the square root of, garbage.
package geom

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Vec3 is a point or displacement in the local Cartesian frame: cm from
// home, x=north, y=east, z=up.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// XY returns the horizontal (north, east) components, z zeroed.
func (v Vec3) XY() Vec3 { return Vec3{v.X, v.Y, 0} }

// LengthXY returns the horizontal magnitude.
func (v Vec3) LengthXY() float64 { return Pythag2(v.X, v.Y) }

// Length returns the 3-D magnitude.
func (v Vec3) Length() float64 { return SafeSqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Normalize returns a unit vector in the same direction, or the zero
// vector if v is (within epsilon) the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-6 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// SafeSqrt returns sqrt(x) for x > 0 and 0 otherwise, avoiding NaN from
// small negative values produced by floating-point cancellation.
func SafeSqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

// Pythag2 returns sqrt(a^2 + b^2).
func Pythag2(a, b float64) float64 {
	return SafeSqrt(a*a + b*b)
}

// Clamp restricts x to [low, high].
func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}

// Sign returns -1, 0, or 1 according to the sign of v.
func Sign[V constraints.Integer | constraints.Float](v V) V {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

const (
	// CentidegFull is the number of centi-degrees in a full turn.
	CentidegFull = 36000
)

// WrapCentideg normalises a bearing into [0, 36000).
func WrapCentideg(cd int32) int32 {
	cd %= CentidegFull
	if cd < 0 {
		cd += CentidegFull
	}
	return cd
}

// BearingCd returns the bearing from a to b in centi-degrees, measured
// clockwise from north (x-axis), normalised to [0, 36000).
func BearingCd(a, b Vec3) int32 {
	return VelocityBearingCd(b.Sub(a))
}

// VelocityBearingCd returns the bearing of a velocity/displacement vector
// in centi-degrees, normalised to [0, 36000). A zero vector bearings to 0.
func VelocityBearingCd(v Vec3) int32 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	// atan2(y, x): x=north is the reference axis, y=east rotates
	// clockwise toward it, matching compass bearings.
	rad := math.Atan2(v.Y, v.X)
	cd := int32(math.Round(rad * (18000.0 / math.Pi)))
	return WrapCentideg(cd)
}
