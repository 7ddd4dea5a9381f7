package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownCorrelation = errors.New("unknown correlation type")
	ErrScaleNotNumeric    = errors.New("correlation scale must be numeric")
)

// CorrelationShape names the structural form an effect's error correlation
// takes along one axis. The vocabulary is closed: anything outside it is a
// catalogue configuration mistake, not a data condition.
type CorrelationShape string

const (
	ShapeUndefined                 CorrelationShape = "undefined"
	ShapeRandom                    CorrelationShape = "random"
	ShapeRectangularAbsolute       CorrelationShape = "rectangular_absolute"
	ShapeTriangularRelative        CorrelationShape = "triangular_relative"
	ShapeTruncatedGaussianRelative CorrelationShape = "truncated_gaussian_relative"
	ShapeRepeatedRectangles        CorrelationShape = "repeated_rectangles"
	ShapeRepeatedTruncatedGaussian CorrelationShape = "repeated_truncated_gaussians"
)

// ValidCorrelationShapes lists every accepted shape, in the order used for
// error messages.
var ValidCorrelationShapes = []CorrelationShape{
	ShapeUndefined,
	ShapeRandom,
	ShapeRectangularAbsolute,
	ShapeTriangularRelative,
	ShapeTruncatedGaussianRelative,
	ShapeRepeatedRectangles,
	ShapeRepeatedTruncatedGaussian,
}

// Valid reports whether s belongs to the closed vocabulary.
func (s CorrelationShape) Valid() bool {
	for _, v := range ValidCorrelationShapes {
		if s == v {
			return true
		}
	}
	return false
}

// The four independent correlation axes, in canonical order. Axis names
// double as the suffixes of the correlation_* attributes stamped onto
// persisted uncertainty arrays.
const (
	AxisWithinScanline   = "within_scanline"
	AxisBetweenScanlines = "between_scanlines"
	AxisBetweenOrbits    = "between_orbits"
	AxisAcrossTime       = "across_time"
)

// CorrelationAxes is the canonical axis order for 4-tuple slots.
var CorrelationAxes = [4]string{
	AxisWithinScanline,
	AxisBetweenScanlines,
	AxisBetweenOrbits,
	AxisAcrossTime,
}

// CorrelationType binds one shape to each of the four correlation axes.
type CorrelationType struct {
	WithinScanline   CorrelationShape
	BetweenScanlines CorrelationShape
	BetweenOrbits    CorrelationShape
	AcrossTime       CorrelationShape
}

// UndefinedCorrelation is the zero-information tuple an effect holds before
// its catalogue entry assigns a real one.
var UndefinedCorrelation = CorrelationType{
	WithinScanline:   ShapeUndefined,
	BetweenScanlines: ShapeUndefined,
	BetweenOrbits:    ShapeUndefined,
	AcrossTime:       ShapeUndefined,
}

// NewCorrelationType validates a positional 4-tuple of shapes. The returned
// error names the offending axis and lists the accepted vocabulary.
func NewCorrelationType(within, between, orbits, across CorrelationShape) (CorrelationType, error) {
	ct := CorrelationType{
		WithinScanline:   within,
		BetweenScanlines: between,
		BetweenOrbits:    orbits,
		AcrossTime:       across,
	}
	if err := ct.Validate(); err != nil {
		return CorrelationType{}, err
	}
	return ct, nil
}

// Slots returns the four shapes in canonical axis order.
func (ct CorrelationType) Slots() [4]CorrelationShape {
	return [4]CorrelationShape{
		ct.WithinScanline,
		ct.BetweenScanlines,
		ct.BetweenOrbits,
		ct.AcrossTime,
	}
}

// Validate checks every slot against the closed vocabulary.
func (ct CorrelationType) Validate() error {
	for i, s := range ct.Slots() {
		if !s.Valid() {
			return fmt.Errorf("%w: %q on axis %s, expected one of: %s",
				ErrUnknownCorrelation, string(s), CorrelationAxes[i],
				joinShapes(ValidCorrelationShapes))
		}
	}
	return nil
}

func (ct CorrelationType) String() string {
	slots := ct.Slots()
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = string(s)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func joinShapes(shapes []CorrelationShape) string {
	parts := make([]string, len(shapes))
	for i, s := range shapes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// CorrelationScale holds the decay length or width of the correlation shape
// on each axis, in the same axis order as CorrelationType. Units follow the
// shape: scanline counts for the scan axes, seconds across time. +Inf marks
// an unbounded (fully systematic) axis.
type CorrelationScale struct {
	WithinScanline   float64
	BetweenScanlines float64
	BetweenOrbits    float64
	AcrossTime       float64
}

// ZeroScale is the default for effects whose catalogue entry does not set a
// scale.
var ZeroScale = CorrelationScale{}

// InfiniteScale marks a fully systematic effect on every axis.
var InfiniteScale = CorrelationScale{
	WithinScanline:   math.Inf(1),
	BetweenScanlines: math.Inf(1),
	BetweenOrbits:    math.Inf(1),
	AcrossTime:       math.Inf(1),
}

// NewCorrelationScale validates a positional 4-tuple of scale values.
func NewCorrelationScale(within, between, orbits, across float64) (CorrelationScale, error) {
	cs := CorrelationScale{
		WithinScanline:   within,
		BetweenScanlines: between,
		BetweenOrbits:    orbits,
		AcrossTime:       across,
	}
	if err := cs.Validate(); err != nil {
		return CorrelationScale{}, err
	}
	return cs, nil
}

// Slots returns the four scale values in canonical axis order.
func (cs CorrelationScale) Slots() [4]float64 {
	return [4]float64{
		cs.WithinScanline,
		cs.BetweenScanlines,
		cs.BetweenOrbits,
		cs.AcrossTime,
	}
}

// Validate rejects NaN slots; infinities are meaningful (unbounded
// correlation) and pass.
func (cs CorrelationScale) Validate() error {
	for i, v := range cs.Slots() {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: NaN on axis %s", ErrScaleNotNumeric, CorrelationAxes[i])
		}
	}
	return nil
}

// AllInfinite reports whether every axis has an unbounded scale.
func (cs CorrelationScale) AllInfinite() bool {
	for _, v := range cs.Slots() {
		if !math.IsInf(v, 1) {
			return false
		}
	}
	return true
}
