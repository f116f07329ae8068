// cmd/navsim/main.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command navsim drives the navigation core end-to-end against the
// synthetic collaborators in this package, with no real flight hardware
// required: a scripted mission of loiter, straight waypoint, and spline
// legs, plus a barometer calibration and drift-tracking pass against a
// ramping synthetic pressure sensor.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/flightcore/navloiter/baro"
	"github.com/flightcore/navloiter/geom"
	"github.com/flightcore/navloiter/loiter"
	"github.com/flightcore/navloiter/nav"
	"github.com/flightcore/navloiter/navcore"
	"github.com/flightcore/navloiter/navlog"
	"github.com/flightcore/navloiter/param"
	"github.com/flightcore/navloiter/spline"
	"github.com/flightcore/navloiter/wpnav"
)

var (
	logLevel   = flag.String("loglevel", "info", "log level: debug, info, warn, error")
	logDir     = flag.String("logdir", "navloiter-logs", "directory for the rotated log file")
	tickMs     = flag.Int64("tick-ms", 100, "outer scheduler tick period, milliseconds")
	baroRampPa = flag.Float64("baro-ramp", -0.5, "synthetic sensor pressure ramp rate, Pa/s")
	driftTC    = flag.Float64("drift-tc", 5, "BARO_DRIFT_TC, seconds (negative disables the drift estimator)")
	maxTicks   = flag.Int("max-ticks", 6000, "safety cap on total ticks before navsim exits")
)

func main() {
	flag.Parse()

	log := navlog.New(*logLevel, *logDir)
	defer log.CatchAndReportCrash()

	table := param.DefaultNavTable()
	baroTable := param.DefaultBaroTable()
	baroTable.Get("BARO_DRIFT_TC").Set(*driftTC)

	in := &simInertialNav{}
	ahrs := &simAHRS{}
	pos := newSimPosController(in)
	plat := newRealClock()

	lc := loiter.New(pos, in, ahrs, log,
		table.Get("LOIT_SPEED").Value(),
		table.Get("LOITER_ACCEL_MIN").Value(),
		table.Get("LOITER_SPEED_MIN").Value(),
	)

	straight := &wpnav.Straight{
		Pos: pos, In: in, Log: log,
		WPSpeed:         table.Get("WP_SPEED").Value(),
		WPRadius:        table.Get("WP_RADIUS").Value(),
		WPSpeedUp:       table.Get("WP_SPEED_UP").Value(),
		WPSpeedDown:     table.Get("WP_SPEED_DOWN").Value(),
		WPAccel:         table.Get("WP_ACCEL").Value(),
		AltHoldAccelMax: table.Get("ALT_HOLD_ACCEL_MAX").Value(),
		LeashLengthMin:  table.Get("LEASH_LENGTH_MIN").Value(),
	}

	seg := &spline.Segment{
		Pos: pos, In: in, Log: log,
		WPSpeed: table.Get("WP_SPEED").Value(),
		WPAccel: table.Get("WP_ACCEL").Value(),
	}

	sensor := newSimSensor(101325, *baroRampPa)
	baroFilter := &baro.Filter{
		Sensor:          sensor,
		Platform:        plat,
		Log:             log,
		DriftInitPeriod: time.Duration(baroTable.Get("BARO_DRIFT_INIT_S").Value() * float64(time.Second)),
		DriftTC:         baroTable.Get("BARO_DRIFT_TC").Value(),
	}

	navr := &nav.Navigator{
		Pos: pos, In: in, Ahrs: ahrs, Log: log,
		Loiter: lc, Straight: straight, Spline: seg, Baro: baroFilter,
	}

	log.Info("navsim: calibrating barometer")
	baroFilter.Calibrate(plat.NowMillis())

	navr.EnterLoiter()

	mission := []geom.Vec3{
		{X: 10000, Y: 0, Z: 500},
		{X: 10000, Y: 10000, Z: 500},
		{X: 0, Y: 10000, Z: 0},
	}

	tick := time.Duration(*tickMs) * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	ticks := 0
	state := "loiter-settle"
	legIdx := 0
	settleTicks := int(2 * time.Second / tick)

	for range ticker.C {
		ticks++
		if ticks > *maxTicks {
			log.Warn("navsim: max-ticks reached, stopping")
			break
		}

		nowMs := plat.NowMillis()
		navr.Tick(nowMs)

		externalAlt := in.Position().Z / 100
		navr.UpdateAltitudeSource(nowMs, externalAlt, tick.Seconds())

		switch state {
		case "loiter-settle":
			if err := baroFilter.UpdateCalibration(); err != nil {
				log.Warn("navsim: update-calibration failed", "err", err)
			}
			if ticks >= settleTicks {
				log.Info("navsim: entering waypoint leg", "leg", legIdx, "dest", mission[legIdx])
				navr.EnterWaypoint(mission[legIdx], nowMs)
				state = "waypoint"
			}
		case "waypoint":
			if navr.ReachedDestination() {
				legIdx++
				if legIdx >= len(mission) {
					log.Info("navsim: mission complete")
					state = "done"
					navr.EnterLoiter()
					break
				}
				prev := navr.PrevSegmentForNextSpline()
				segEnd := navcore.SegEndStop
				next := mission[legIdx]
				if legIdx+1 < len(mission) {
					segEnd = navcore.SegEndStraight
					next = mission[legIdx+1]
				}
				log.Info("navsim: entering spline leg", "leg", legIdx, "dest", mission[legIdx])
				navr.EnterSpline(straight.Destination, mission[legIdx], prev, segEnd, next, nowMs)
				state = "spline"
			}
		case "spline":
			if navr.ReachedDestination() {
				legIdx++
				if legIdx >= len(mission) {
					log.Info("navsim: mission complete")
					state = "done"
					navr.EnterLoiter()
					break
				}
				log.Info("navsim: entering waypoint leg", "leg", legIdx, "dest", mission[legIdx])
				navr.EnterWaypoint(mission[legIdx], nowMs)
				state = "waypoint"
			}
		case "done":
			p := in.Position()
			fmt.Fprintf(os.Stdout, "navsim: final position north=%.1fcm east=%.1fcm up=%.1fcm alt=%.2fm climb=%.2fm/s\n",
				p.X, p.Y, p.Z, navr.Altitude(), navr.ClimbRate())
			return
		}
	}
}
