// baro/baro_test.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package baro

import (
	"testing"
	"time"

	"github.com/flightcore/navloiter/navlog"
)

// fakeSensor is a synthetic pressure sensor whose Read call advances
// pressure by a fixed per-read increment, modelling a steady ramp (e.g.
// a slow climb or a calibration-time drift).
type fakeSensor struct {
	pressure    float64
	temperature float64
	increment   float64
	healthy     bool
}

func (s *fakeSensor) Init() error { s.healthy = true; return nil }
func (s *fakeSensor) Read() error {
	s.pressure += s.increment
	return nil
}
func (s *fakeSensor) Pressure() float64    { return s.pressure }
func (s *fakeSensor) Temperature() float64 { return s.temperature }
func (s *fakeSensor) Healthy() bool        { return s.healthy }

// fakePlatform is a manually-advanced millisecond clock with no-op
// delay and a panic hook the test can observe.
type fakePlatform struct {
	nowMs   int64
	panics  int
	lastMsg string
}

func (p *fakePlatform) NowMillis() int64 { return p.nowMs }
func (p *fakePlatform) DelayMillis(ms int64) { p.nowMs += ms }
func (p *fakePlatform) Panic(msg string) { p.panics++; p.lastMsg = msg }

func TestAltitudeDifferenceIdentityAndMonotone(t *testing.T) {
	const tempC = 15.0
	const groundPressure = 101325.0

	if d := AltitudeDifference(95000, 95000, tempC, groundPressure); d != 0 {
		t.Errorf("AltitudeDifference(p,p) = %v, want 0", d)
	}

	pressures := []float64{101325, 100000, 95000, 90000, 80000}
	prevAlt := AltitudeFromPressure(pressures[0], tempC, groundPressure)
	for _, p := range pressures[1:] {
		alt := AltitudeFromPressure(p, tempC, groundPressure)
		if alt <= prevAlt {
			t.Errorf("altitude not increasing as pressure falls: p=%v alt=%v, prev alt=%v", p, alt, prevAlt)
		}
		prevAlt = alt
	}

	if d := AltitudeDifference(90000, 95000, tempC, groundPressure); d <= 0 {
		t.Errorf("AltitudeDifference(lower pressure, higher pressure) = %v, want > 0 (lower pressure is higher up)", d)
	}
}

func TestUpdateCalibrationTracksSlowPressureChange(t *testing.T) {
	sensor := &fakeSensor{pressure: 101325, temperature: 15, healthy: true}
	plat := &fakePlatform{}
	f := &Filter{Sensor: sensor, Platform: plat, Log: nil}
	f.Calibrate(plat.nowMs)
	if got := f.groundPressure; got != 101325 {
		t.Fatalf("ground_pressure after Calibrate = %v, want 101325", got)
	}

	sensor.increment = 1 // ambient pressure rising slowly between calibrate and arm
	for i := 0; i < 50; i++ {
		if err := f.UpdateCalibration(); err != nil {
			t.Fatalf("UpdateCalibration: %v", err)
		}
	}
	if f.groundPressure <= 101325 {
		t.Errorf("ground_pressure = %v after rising ambient pressure, want > 101325", f.groundPressure)
	}
}

func TestUpdateCalibrationIgnoresUnhealthySample(t *testing.T) {
	sensor := &fakeSensor{pressure: 101325, temperature: 15, healthy: true}
	plat := &fakePlatform{}
	f := &Filter{Sensor: sensor, Platform: plat, Log: nil}
	f.Calibrate(plat.nowMs)

	before := f.groundPressure
	sensor.healthy = false
	sensor.increment = 1000
	if err := f.UpdateCalibration(); err != nil {
		t.Fatalf("UpdateCalibration: %v", err)
	}
	if f.groundPressure != before {
		t.Errorf("ground_pressure changed from an unhealthy sample: got %v, want unchanged %v", f.groundPressure, before)
	}
}

func TestDriftDisabledWhenTCNegative(t *testing.T) {
	sensor := &fakeSensor{pressure: 101325, temperature: 15, healthy: true}
	plat := &fakePlatform{}
	f := &Filter{Sensor: sensor, Platform: plat, Log: nil, DriftInitPeriod: 30 * time.Second, DriftTC: -1}
	f.calibrated = true
	f.groundPressure = 101325

	for i := 0; i < 500; i++ {
		plat.nowMs += 100
		f.Read(plat.nowMs)
		f.UpdateDriftEstimate(0, 0.1)
	}
	if f.DriftEstimate() != 0 {
		t.Errorf("drift_est = %v, want 0 with DriftTC < 0", f.DriftEstimate())
	}
}

// TestCalibrationAndDriftTracking is the synthetic pressure-ramp
// scenario: a steady 0.5 Pa/s fall in pressure for 180s (simulating a
// slow climb) then holding constant, with a constant external altitude
// reference of 0. drift_est should track the baro-altitude drift down
// toward zero innovation after the init window closes.
func TestCalibrationAndDriftTracking(t *testing.T) {
	sensor := &fakeSensor{pressure: 101325, temperature: 15, healthy: true}
	plat := &fakePlatform{}
	f := &Filter{
		Sensor: sensor, Platform: plat, Log: (*navlog.Logger)(nil),
		DriftInitPeriod: 10 * time.Second,
		DriftTC:         5,
	}

	f.Calibrate(plat.nowMs)
	if plat.panics != 0 {
		t.Fatalf("Calibrate invoked panic unexpectedly: %v calls, last=%q", plat.panics, plat.lastMsg)
	}
	if f.groundPressure != 101325 {
		t.Fatalf("ground_pressure = %v, want 101325", f.groundPressure)
	}

	const dt = 0.1 // seconds per tick, matching the 100ms loop below
	const rampPaPerSec = 0.5
	sensor.increment = -rampPaPerSec * dt // falling pressure => rising altitude

	for i := 0; i < 1800; i++ { // 180s at 100ms ticks
		plat.nowMs += 100
		f.Read(plat.nowMs)
		f.UpdateDriftEstimate(0, dt)
	}

	// Hold pressure constant and let the filter settle.
	sensor.increment = 0
	for i := 0; i < 300; i++ { // 30s settle
		plat.nowMs += 100
		f.Read(plat.nowMs)
		f.UpdateDriftEstimate(0, dt)
	}

	innovation := f.Altitude() - 0
	if innovation < 0 {
		innovation = -innovation
	}
	if innovation > 5 {
		t.Errorf("residual baro-vs-external innovation = %v m after settling, want < 5m", innovation)
	}
}
