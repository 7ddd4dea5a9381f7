package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jmittaz/FCDR-HIRS/meq"
	"github.com/jmittaz/FCDR-HIRS/model"
)

// Warning is stamped onto every persisted uncertainty array while the
// product is provisional.
const Warning = "VERY EARLY TRIAL VERSION! " +
	"DO NOT USE THE CONTENTS OF THIS PRODUCT FOR ANY PURPOSE UNDER ANY CIRCUMSTANCES! " +
	"This serves exclusively as a file format demonstration!"

var (
	ErrEffectBadInput   = errors.New("invalid effect")
	ErrBadChannelMatrix = errors.New("invalid channel correlation matrix")

	// ErrChannelCorrelation wraps ErrNotImplemented: the channel-axis
	// correlation is reserved for every model.
	ErrChannelCorrelation = fmt.Errorf("%w: cross-channel", ErrNotImplemented)
)

// EffectSpec collects the configuration of one uncertainty source before
// validation. Fields mirror the closed attribute set of Effect; NewEffect
// runs them through a fixed validation pipeline, so partially-filled specs
// never escape as live effects.
type EffectSpec struct {
	// Name is the short symbolic label, also the key into the export
	// encoding registry and the default magnitude name prefix.
	Name        string
	Description string

	// Parameter is the measurement-equation symbol this effect perturbs:
	// the true grouping key in the catalogue.
	Parameter meq.Symbol

	Units            string
	PDFShape         string // defaults to "Gaussian"
	ChannelsAffected string // defaults to "all"

	// Dimensions lists the array dimensions the magnitude varies along;
	// empty means the same dimensions as the parameter itself.
	Dimensions []string

	CorrelationType  model.CorrelationType
	CorrelationScale model.CorrelationScale // defaults to all-zero

	// ChannelCorrelations is the square correlation matrix across
	// instrument channels: unit diagonal, values in [0, 1].
	ChannelCorrelations *mat.SymDense

	RModel RModel
}

// Effect is one physical source of measurement uncertainty: magnitude,
// correlation structure on four axes, channel coupling, and the strategy
// that turns the structure into numeric correlation matrices.
//
// Effects are built by NewEffect and registered into a Catalogue; after that
// only the magnitude may change, each assignment being re-validated and
// re-stamped.
type Effect struct {
	Name             string
	Description      string
	Parameter        meq.Symbol
	Units            string
	PDFShape         string
	ChannelsAffected string
	Dimensions       []string

	CorrelationType     model.CorrelationType
	CorrelationScale    model.CorrelationScale
	ChannelCorrelations *mat.SymDense
	RModel              RModel

	encodings *EncodingRegistry
	magnitude *model.DataArray
}

// NewEffect validates spec and returns the effect. The pipeline order is a
// contract: correlation type, correlation scale, channel correlations, then
// magnitude (none here; magnitude is always late-bound via SetMagnitude).
func NewEffect(spec EffectSpec) (*Effect, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrEffectBadInput)
	}
	if spec.Parameter == "" {
		return nil, fmt.Errorf("%w: effect %q has no parameter", ErrEffectBadInput, spec.Name)
	}
	if spec.RModel == nil {
		return nil, fmt.Errorf("%w: effect %q has no correlation model", ErrEffectBadInput, spec.Name)
	}

	if err := spec.CorrelationType.Validate(); err != nil {
		return nil, fmt.Errorf("effect %q: %w", spec.Name, err)
	}
	if err := spec.CorrelationScale.Validate(); err != nil {
		return nil, fmt.Errorf("effect %q: %w", spec.Name, err)
	}
	if err := validateChannelMatrix(spec.ChannelCorrelations); err != nil {
		return nil, fmt.Errorf("effect %q: %w", spec.Name, err)
	}

	e := &Effect{
		Name:                spec.Name,
		Description:         spec.Description,
		Parameter:           spec.Parameter,
		Units:               spec.Units,
		PDFShape:            spec.PDFShape,
		ChannelsAffected:    spec.ChannelsAffected,
		Dimensions:          append([]string(nil), spec.Dimensions...),
		CorrelationType:     spec.CorrelationType,
		CorrelationScale:    spec.CorrelationScale,
		ChannelCorrelations: spec.ChannelCorrelations,
		RModel:              spec.RModel,
	}
	if e.PDFShape == "" {
		e.PDFShape = "Gaussian"
	}
	if e.ChannelsAffected == "" {
		e.ChannelsAffected = "all"
	}
	return e, nil
}

func validateChannelMatrix(m *mat.SymDense) error {
	if m == nil {
		return fmt.Errorf("%w: missing", ErrBadChannelMatrix)
	}
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		if m.At(i, i) != 1 {
			return fmt.Errorf("%w: diagonal element %d is %g, want 1",
				ErrBadChannelMatrix, i, m.At(i, i))
		}
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: element (%d,%d) is %g, want within [0,1]",
					ErrBadChannelMatrix, i, j, v)
			}
		}
	}
	return nil
}

// Magnitude returns the stamped uncertainty magnitude, with ok false when no
// magnitude has been assigned yet. No default magnitude is synthesized.
func (e *Effect) Magnitude() (*model.DataArray, bool) {
	if e.magnitude == nil {
		return nil, false
	}
	return e.magnitude, true
}

// SetMagnitude stores da as this effect's uncertainty magnitude, naming it
// u_<name> when unnamed and stamping the full metadata block expected by the
// file writer. Assigning again re-stamps from the current field values.
func (e *Effect) SetMagnitude(da *model.DataArray) error {
	if da == nil {
		return fmt.Errorf("%w: nil magnitude for %q", ErrEffectBadInput, e.Name)
	}
	if da.Name == "" {
		da.Name = "u_" + e.Name
	}
	e.stamp(da)
	e.magnitude = da
	return nil
}

// SetMagnitudeValue wraps a bare number into a scalar magnitude. An empty
// units string leaves the magnitude unitless.
func (e *Effect) SetMagnitudeValue(v float64, units string) error {
	return e.SetMagnitude(model.NewScalar("", v, units))
}

// SetMagnitudeQuantity wraps a unit-carrying value into a scalar magnitude.
func (e *Effect) SetMagnitudeQuantity(q model.Quantity) error {
	return e.SetMagnitudeValue(q.Value, q.Units)
}

// stamp writes the persisted attribute block. long_name respects an existing
// reader-supplied value; everything else reflects this effect.
func (e *Effect) stamp(da *model.DataArray) {
	da.SetDefaultAttr("long_name", e.Description)
	da.SetAttr("short_name", e.Name)
	da.SetAttr("parameter", string(e.Parameter))
	da.SetAttr("pdf_shape", e.PDFShape)
	da.SetAttr("channels_affected", e.ChannelsAffected)

	shapes := e.CorrelationType.Slots()
	scales := e.CorrelationScale.Slots()
	for i, axis := range model.CorrelationAxes {
		da.SetAttr("correlation_type_"+axis, string(shapes[i]))
		da.SetAttr("correlation_scale_"+axis, scales[i])
	}

	da.SetAttr("channel_correlations", matrixRows(e.ChannelCorrelations))

	if expr, err := e.Sensitivity(); err == nil {
		da.SetAttr("sensitivity_coefficient", expr.String())
	}
	da.SetAttr("WARNING", Warning)

	if e.encodings != nil {
		if enc, ok := e.encodings.Lookup(e.Name); ok {
			da.Encoding = da.Encoding.Merge(enc)
		}
	}
}

func matrixRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

// Sensitivity returns the sensitivity-coefficient expression for this
// effect's parameter, by default against Earth radiance.
func (e *Effect) Sensitivity(target ...meq.Symbol) (meq.Expr, error) {
	tgt := meq.SymEarthRadiance
	if len(target) > 0 {
		tgt = target[0]
	}
	return meq.CalcSensitivityCoefficient(tgt, e.Parameter)
}

// IsIndependent reports whether errors from this effect are uncorrelated on
// every axis.
func (e *Effect) IsIndependent() bool {
	for _, s := range e.CorrelationType.Slots() {
		if s != model.ShapeRandom {
			return false
		}
	}
	return true
}

// IsCommon reports whether this effect is fully systematic: rectangular
// correlation on every axis and unbounded scale on every axis. Both
// conditions are required; rectangular correlation with a finite scale is
// structured, not common.
func (e *Effect) IsCommon() bool {
	for _, s := range e.CorrelationType.Slots() {
		if s != model.ShapeRectangularAbsolute {
			return false
		}
	}
	return e.CorrelationScale.AllInfinite()
}

// IsStructured is the residual classification: neither independent nor
// common.
func (e *Effect) IsStructured() bool {
	return !e.IsIndependent() && !e.IsCommon()
}

// Classification names the effect's class for reports and metrics.
func (e *Effect) Classification() string {
	switch {
	case e.IsIndependent():
		return "independent"
	case e.IsCommon():
		return "common"
	default:
		return "structured"
	}
}

// CrossElementCorrelation delegates to the bound correlation model.
func (e *Effect) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return e.RModel.CrossElementCorrelation(ds, samplingL, samplingE)
}

// CrossLineCorrelation delegates to the bound correlation model.
func (e *Effect) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return e.RModel.CrossLineCorrelation(ds, samplingL, samplingE)
}

// CrossChannelCorrelation is reserved: the per-parameter channel-axis
// correlation has no implementation for any model yet.
func (e *Effect) CrossChannelCorrelation(ds Dataset) (*model.DataArray, error) {
	return nil, ErrChannelCorrelation
}

// Copy deep-copies the effect, including its stamped magnitude, so snapshot
// holders can mutate freely. The RModel singleton and encoding registry carry
// no per-effect state and stay shared.
func (e *Effect) Copy() *Effect {
	out := *e
	out.Dimensions = append([]string(nil), e.Dimensions...)
	if e.ChannelCorrelations != nil {
		n := e.ChannelCorrelations.SymmetricDim()
		cp := mat.NewSymDense(n, nil)
		cp.CopySym(e.ChannelCorrelations)
		out.ChannelCorrelations = cp
	}
	out.magnitude = e.magnitude.Copy()
	return &out
}

func (e *Effect) String() string {
	mag := "unset"
	if m, ok := e.Magnitude(); ok {
		mag = m.Name
	}
	return fmt.Sprintf("<Effect %s:%s> %s %v [%s] correlations %s, magnitude %s",
		e.Parameter, e.Name, e.Description, e.Dimensions, e.Units,
		e.CorrelationType, mag)
}
