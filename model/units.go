package model

// Canonical unit strings for uncertainty magnitudes. These are the exact
// spellings written into the units attribute of persisted arrays, so they
// must stay stable across releases.
//
// Spectral radiance comes in two conventions: SI (per frequency) and the
// IR-community native form (per wavenumber, milliwatts).
const (
	UnitCounts        = "count"
	UnitKelvin        = "K"
	UnitDimensionless = "1"
	UnitPerKelvin     = "1/K"
	UnitCountsPerK    = "count/K"
	UnitNanometre     = "nm"
	UnitTerahertz     = "THz"

	UnitRadianceSI = "W m^-2 sr^-1 Hz^-1"
	UnitRadianceIR = "mW m^-2 sr^-1 cm"

	// UnitRadianceSIPerCount2 is the SI radiance unit of the nonlinearity
	// coefficient a_2, radiance per squared count.
	UnitRadianceSIPerCount2 = "W m^-2 sr^-1 Hz^-1 count^-2"
)
