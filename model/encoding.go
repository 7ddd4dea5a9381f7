package model

// Encoding carries per-variable serialization hints for the downstream file
// writer: on-disk dtype, compression, and packing. It mirrors what a
// self-describing array format stores next to the data, separate from the
// physical attributes.
type Encoding struct {
	DType       string
	Zlib        bool
	Complevel   int
	FillValue   *float64
	ScaleFactor float64
	AddOffset   float64
}

// IsZero reports whether no hints are set, so merges can skip the variable.
func (e Encoding) IsZero() bool {
	return e == Encoding{}
}

// Merge overlays the non-zero hints of other onto e and returns the result.
// Existing hints win only where other leaves them unset.
func (e Encoding) Merge(other Encoding) Encoding {
	out := e
	if other.DType != "" {
		out.DType = other.DType
	}
	if other.Zlib {
		out.Zlib = true
	}
	if other.Complevel != 0 {
		out.Complevel = other.Complevel
	}
	if other.FillValue != nil {
		out.FillValue = other.FillValue
	}
	if other.ScaleFactor != 0 {
		out.ScaleFactor = other.ScaleFactor
	}
	if other.AddOffset != 0 {
		out.AddOffset = other.AddOffset
	}
	return out
}
