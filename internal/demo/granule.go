// Package demo synthesizes HIRS granules with realistic scan timing, for
// exercising correlation models without a real L1B reader attached.
package demo

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/jmittaz/FCDR-HIRS/core"
	"github.com/jmittaz/FCDR-HIRS/model"
)

// HIRS/4 scan geometry: one full scan every 6.4 seconds over 56 Earth view
// positions, with a calibration sequence (space + IWCT views) interrupting
// the Earth views every 40 scanlines.
const (
	ScanPeriod        = 6400 * time.Millisecond
	ScanPositions     = 56
	DefaultCalibEvery = 40
)

// NOAA-19 TLE, the last POES satellite carrying HIRS/4. Good enough for
// demonstration geometry; operational use reads fresh elements.
const (
	NOAA19TLE1 = "1 33591U 09005A   21275.51643714  .00000076  00000-0  66205-4 0  9992"
	NOAA19TLE2 = "2 33591  99.1573 300.4383 0014843 133.9556 226.2897 14.12500770651030"
)

// NewGranule builds a granule of nScanlines Earth-view scanlines starting at
// start, with a calibration cycle every calibEvery scanlines. Scanlines and
// calibration events share one time axis; the calibration event is placed at
// the scan slot preceding its block of Earth views.
func NewGranule(start time.Time, nScanlines, calibEvery int) (*model.Granule, error) {
	if nScanlines <= 0 {
		return nil, fmt.Errorf("need at least one scanline, got %d", nScanlines)
	}
	if calibEvery <= 0 {
		calibEvery = DefaultCalibEvery
	}

	g := &model.Granule{
		Channels:      core.HIRSChannels,
		ScanPositions: ScanPositions,
	}

	// Slot 0 of every block is the calibration scan; Earth views follow.
	slot := 0
	for len(g.ScanlineTimes) < nScanlines {
		t := start.Add(time.Duration(slot) * ScanPeriod)
		if slot%(calibEvery+1) == 0 {
			g.CalibrationTimes = append(g.CalibrationTimes, t)
		} else {
			g.ScanlineTimes = append(g.ScanlineTimes, t)
		}
		slot++
	}
	return g, nil
}

// Track returns the subsatellite ECEF positions (kilometres) for each
// scanline of the granule, propagated with SGP4 from the given TLE.
func Track(g *model.Granule, tle1, tle2 string) ([]model.Vec3, error) {
	if tle1 == "" || tle2 == "" {
		tle1, tle2 = NOAA19TLE1, NOAA19TLE2
	}
	sat := satellite.TLEToSat(tle1, tle2, satellite.GravityWGS72)

	out := make([]model.Vec3, len(g.ScanlineTimes))
	for i, t := range g.ScanlineTimes {
		year, month, day := t.Date()
		hour, min, sec := t.Clock()

		posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
		jd := satellite.JDay(year, int(month), day, hour, min, sec)
		gmst := satellite.ThetaG_JD(jd)
		posECEF := satellite.ECIToECEF(posECI, gmst)

		out[i] = model.Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
	}
	return out, nil
}
