package model

import "time"

// Dimension names of a calibrated HIRS granule, as delivered by the
// satellite data reader.
const (
	DimCalibratedChannel = "calibrated_channel"
	DimScanlineEarth     = "scanline_earth"
	DimScanpos           = "scanpos"
	DimCalibrationCycle  = "calibration_cycle"
	DimRselfUpdateTime   = "rself_update_time"
)

// Granule is the dimensional skeleton of one calibrated orbit segment:
// dimension sizes plus the time coordinates the correlation models need.
// The full radiance content stays with the external reader; correlation
// calculations only see sizes and timestamps.
type Granule struct {
	Channels      int
	ScanPositions int

	// ScanlineTimes is the scanline_earth coordinate, one timestamp per
	// Earth-view scanline, strictly increasing.
	ScanlineTimes []time.Time

	// CalibrationTimes is the calibration_cycle coordinate, one timestamp
	// per calibration event, strictly increasing.
	CalibrationTimes []time.Time
}

// DimSize returns the size of a named dimension, 0 when the granule does not
// carry it.
func (g *Granule) DimSize(name string) int {
	switch name {
	case DimCalibratedChannel:
		return g.Channels
	case DimScanlineEarth:
		return len(g.ScanlineTimes)
	case DimScanpos:
		return g.ScanPositions
	case DimCalibrationCycle:
		return len(g.CalibrationTimes)
	default:
		return 0
	}
}

// TimeCoord returns the time coordinate for a named dimension, nil when the
// dimension has no time axis.
func (g *Granule) TimeCoord(name string) []time.Time {
	switch name {
	case DimScanlineEarth:
		return g.ScanlineTimes
	case DimCalibrationCycle:
		return g.CalibrationTimes
	default:
		return nil
	}
}
