// baro/baro.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package baro implements the barometric altitude subsystem: ground
// calibration against a pressure sensor, altitude and climb-rate
// derivation from pressure, an airspeed correction factor, and a
// low-pass drift estimator that pulls the pressure-derived altitude
// toward an externally supplied altitude reference.
package baro

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
)

// Sensor is the narrow capability a pressure-sensor driver exposes: the
// only polymorphic point in the navigation core, since backends (SPI,
// I2C, simulated) vary but the filter above them does not.
type Sensor interface {
	Init() error
	Read() error
	Pressure() float64    // Pa
	Temperature() float64 // deg C
	Healthy() bool
}

// calibrationPhaseTimeout is the per-phase budget for a healthy,
// non-zero-pressure read during Calibrate; exceeding it in any phase is
// a fatal condition for the flight controller.
const calibrationPhaseTimeout = 500 * time.Millisecond

// driftInnovationGate rejects drift-estimator updates whose innovation
// exceeds this many metres, treating them as outliers rather than
// folding them into drift_est.
const driftInnovationGate = 5.0

// climbRateTaps is the number of (altitude, timestamp) samples kept for
// the derivative filter that produces climb rate.
const climbRateTaps = 7

// Filter holds one barometer's calibration, altitude, climb-rate, and
// drift-estimator state.
type Filter struct {
	Sensor   Sensor
	Platform navcore.Platform
	Log      *navlog.Logger

	DriftInitPeriod time.Duration
	DriftTC         float64 // seconds; negative disables the estimator

	groundPressure    float64
	groundTemperature float64
	altOffset         float64
	calTimeMs         int64

	altitude     float64
	lastReadMs   int64
	haveLastRead bool

	climbAlts  [climbRateTaps]float64
	climbTimes [climbRateTaps]float64
	climbCount int
	climbRate  float64

	eas2tas       float64
	eas2tasAltRef float64
	haveEAS2TAS   bool

	driftGndAccum float64
	driftGndCount int
	driftGndLevel float64
	driftEst      float64
	driftInit     bool
	calibrated    bool
}

// Calibrate runs the three-phase ground-calibration procedure: wait for
// a healthy non-zero reading, let the sensor settle over 10 spaced
// passes, then average 5 further samples into ground_pressure and
// ground_temperature with an exponential blend. Panics via Platform if
// any phase exceeds its read timeout three times.
func (f *Filter) Calibrate(nowMs int64) {
	f.waitForHealthySample()

	for i := 0; i < 10; i++ {
		f.waitForHealthySample()
		f.Platform.DelayMillis(100)
	}

	f.groundPressure = 0
	f.groundTemperature = 0
	for i := 0; i < 5; i++ {
		f.waitForHealthySample()
		if i == 0 {
			f.groundPressure = f.Sensor.Pressure()
			f.groundTemperature = f.Sensor.Temperature()
			continue
		}
		f.groundPressure = 0.8*f.groundPressure + 0.2*f.Sensor.Pressure()
		f.groundTemperature = 0.8*f.groundTemperature + 0.2*f.Sensor.Temperature()
	}

	f.altOffset = 0
	f.calTimeMs = nowMs
	f.calibrated = true
	f.driftGndAccum, f.driftGndCount, f.driftInit = 0, 0, false
	f.climbCount = 0
}

// UpdateCalibration refreshes ground_pressure/ground_temperature with a
// single slowly-blended sample, for periodic re-calibration while
// disarmed: unlike Calibrate, it neither retries nor panics, so it is
// safe to call every tick between a cold-start Calibrate and arming, to
// track ambient pressure changes (e.g. passing weather) before flight.
func (f *Filter) UpdateCalibration() error {
	if err := f.Sensor.Read(); err != nil {
		return err
	}
	if !f.Sensor.Healthy() || f.Sensor.Pressure() == 0 {
		return nil
	}
	const alpha = 0.1
	f.groundPressure = (1-alpha)*f.groundPressure + alpha*f.Sensor.Pressure()
	f.groundTemperature = (1-alpha)*f.groundTemperature + alpha*f.Sensor.Temperature()
	return nil
}

// waitForHealthySample reads the sensor until it reports healthy with a
// non-zero pressure, retrying the phase budget up to three times before
// invoking Platform.Panic.
func (f *Filter) waitForHealthySample() {
	budgetMs := calibrationPhaseTimeout.Milliseconds()
	for attempt := 0; attempt < 3; attempt++ {
		deadline := f.Platform.NowMillis() + budgetMs
		for f.Platform.NowMillis() < deadline {
			if err := f.Sensor.Read(); err == nil && f.Sensor.Healthy() && f.Sensor.Pressure() != 0 {
				return
			}
			f.Platform.DelayMillis(5)
		}
		f.Log.Warn("baro: calibration phase timed out", "attempt", attempt+1)
	}
	f.Platform.Panic("baro: calibration failed, no healthy sample within budget")
}

// Read samples the sensor and, if its timestamp has advanced, refreshes
// the cached altitude and climb-rate filter. nowMs is the platform's
// monotonic millisecond clock, used as the read timestamp.
func (f *Filter) Read(nowMs int64) error {
	if err := f.Sensor.Read(); err != nil {
		return err
	}
	if f.haveLastRead && nowMs == f.lastReadMs {
		return nil
	}
	f.lastReadMs = nowMs
	f.haveLastRead = true

	f.altitude = AltitudeFromPressure(f.Sensor.Pressure(), f.Sensor.Temperature(), f.groundPressure)
	f.pushClimbSample(f.altitude, float64(nowMs))
	f.updateEAS2TAS()
	return nil
}

// AltitudeFromPressure implements the exact formula: altitude agrees
// with the standard atmosphere to within 2.5 m up to 11 km, same as the
// faster logarithmic approximation this filter does not need at its
// tick rate.
func AltitudeFromPressure(p, tempC, groundPressure float64) float64 {
	if groundPressure <= 0 {
		return 0
	}
	tempK := tempC + 273.15
	return 153.8462 * tempK * (1 - math.Pow(p/groundPressure, 0.190259))
}

// AltitudeDifference returns the altitude difference (in metres)
// implied by two pressures measured at the same temperature against the
// same ground reference; zero when p1 == p2, and monotone decreasing in
// p (higher pressure means lower altitude).
func AltitudeDifference(p1, p2, tempC, groundPressure float64) float64 {
	return AltitudeFromPressure(p1, tempC, groundPressure) - AltitudeFromPressure(p2, tempC, groundPressure)
}

// Altitude returns the filtered altitude estimate: the pressure-derived
// altitude plus any manual offset, corrected by the drift estimate
// against the external altitude reference.
func (f *Filter) Altitude() float64 {
	return f.altitude + f.altOffset - f.driftEst
}

// pushClimbSample slides a new (altitude, timestamp) pair into the
// derivative filter's window.
func (f *Filter) pushClimbSample(alt, tMs float64) {
	if f.climbCount < climbRateTaps {
		f.climbAlts[f.climbCount] = alt
		f.climbTimes[f.climbCount] = tMs
		f.climbCount++
	} else {
		copy(f.climbAlts[:climbRateTaps-1], f.climbAlts[1:])
		copy(f.climbTimes[:climbRateTaps-1], f.climbTimes[1:])
		f.climbAlts[climbRateTaps-1] = alt
		f.climbTimes[climbRateTaps-1] = tMs
	}
	f.climbRate = f.estimateSlope() * 1000 // m/ms -> m/s
}

// estimateSlope fits a least-squares line through the current window of
// (time, altitude) samples and returns its slope, using gonum's BLAS-
// backed dot products for the sums a manual loop would otherwise need.
func (f *Filter) estimateSlope() float64 {
	n := f.climbCount
	if n < 2 {
		return 0
	}
	t := f.climbTimes[:n]
	a := f.climbAlts[:n]

	tMean := floats.Sum(t) / float64(n)
	aMean := floats.Sum(a) / float64(n)

	tCentered := make([]float64, n)
	aCentered := make([]float64, n)
	for i := 0; i < n; i++ {
		tCentered[i] = t[i] - tMean
		aCentered[i] = a[i] - aMean
	}

	denom := floats.Dot(tCentered, tCentered)
	if denom == 0 {
		return 0
	}
	return floats.Dot(tCentered, aCentered) / denom
}

// ClimbRate returns the current climb-rate estimate in m/s, positive up.
func (f *Filter) ClimbRate() float64 { return f.climbRate }

// updateEAS2TAS recomputes the EAS->TAS correction factor, but only once
// altitude has moved at least 100 m since the last recomputation — the
// factor changes slowly enough that recomputing every tick is wasted
// work.
func (f *Filter) updateEAS2TAS() {
	if f.haveEAS2TAS && math.Abs(f.altitude-f.eas2tasAltRef) < 100 {
		return
	}
	tempK := f.Sensor.Temperature() + 273.15 - 0.0065*f.altitude
	p := f.Sensor.Pressure()
	if p <= 0 || tempK <= 0 {
		return
	}
	f.eas2tas = math.Sqrt(1.225 / (p / (287.26 * tempK)))
	f.eas2tasAltRef = f.altitude
	f.haveEAS2TAS = true
}

// EAS2TAS returns the current equivalent-to-true airspeed correction
// factor.
func (f *Filter) EAS2TAS() float64 { return f.eas2tas }

// UpdateDriftEstimate folds one externally supplied altitude sample into
// the drift estimator. During DriftInitPeriod after calibration, samples
// are accumulated to establish a ground-level reference; afterward, a
// first-order low-pass filter tracks the innovation between the baro
// altitude and the external reference, gated against outliers beyond
// driftInnovationGate metres. If DriftTC is negative the estimator is
// disabled and drift_est is pinned at zero.
func (f *Filter) UpdateDriftEstimate(externalAlt, dt float64) {
	if f.DriftTC < 0 {
		f.driftEst = 0
		return
	}

	if !f.driftInit {
		f.driftGndAccum += externalAlt
		f.driftGndCount++
		if f.sinceCalibration() < f.DriftInitPeriod {
			return
		}
		if f.driftGndCount > 0 {
			f.driftGndLevel = f.driftGndAccum / float64(f.driftGndCount)
		}
		f.driftInit = true
		f.driftEst = 0
		return
	}

	innov := (f.altitude + f.altOffset) - f.driftEst - (externalAlt - f.driftGndLevel)
	if innov >= driftInnovationGate {
		return
	}
	if f.DriftTC <= 0 {
		return
	}
	alpha := dt / (f.DriftTC + dt)
	f.driftEst += alpha * innov
}

// sinceCalibration returns the elapsed time since Calibrate was called,
// using the most recent Read timestamp as "now".
func (f *Filter) sinceCalibration() time.Duration {
	return time.Duration(f.lastReadMs-f.calTimeMs) * time.Millisecond
}

// DriftEstimate returns the current drift estimate in metres.
func (f *Filter) DriftEstimate() float64 { return f.driftEst }
