package core

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/jmittaz/FCDR-HIRS/meq"
	"github.com/jmittaz/FCDR-HIRS/model"
)

func mustType(t *testing.T, within, between, orbits, across model.CorrelationShape) model.CorrelationType {
	t.Helper()
	ct, err := model.NewCorrelationType(within, between, orbits, across)
	if err != nil {
		t.Fatalf("NewCorrelationType: %v", err)
	}
	return ct
}

func testSpec(name string, param meq.Symbol) EffectSpec {
	return EffectSpec{
		Name:                name,
		Description:         "noise on " + name,
		Parameter:           param,
		Units:               model.UnitCounts,
		CorrelationType:     model.UndefinedCorrelation,
		ChannelCorrelations: identityChannels(),
		RModel:              RandomModel,
	}
}

func TestNewEffectDefaults(t *testing.T) {
	e, err := NewEffect(testSpec("C_Earth", "C_E"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if e.PDFShape != "Gaussian" {
		t.Errorf("PDFShape = %q, want Gaussian", e.PDFShape)
	}
	if e.ChannelsAffected != "all" {
		t.Errorf("ChannelsAffected = %q, want all", e.ChannelsAffected)
	}
	if _, ok := e.Magnitude(); ok {
		t.Error("fresh effect must report no magnitude")
	}
}

func TestNewEffectValidation(t *testing.T) {
	bad := testSpec("", "C_E")
	if _, err := NewEffect(bad); !errors.Is(err, ErrEffectBadInput) {
		t.Errorf("empty name: got %v", err)
	}

	bad = testSpec("x", "")
	if _, err := NewEffect(bad); !errors.Is(err, ErrEffectBadInput) {
		t.Errorf("empty parameter: got %v", err)
	}

	bad = testSpec("x", "C_E")
	bad.RModel = nil
	if _, err := NewEffect(bad); !errors.Is(err, ErrEffectBadInput) {
		t.Errorf("nil rmodel: got %v", err)
	}

	bad = testSpec("x", "C_E")
	bad.CorrelationType.AcrossTime = "lognormal"
	if _, err := NewEffect(bad); !errors.Is(err, model.ErrUnknownCorrelation) {
		t.Errorf("bad correlation shape: got %v", err)
	}

	bad = testSpec("x", "C_E")
	bad.CorrelationScale.WithinScanline = math.NaN()
	if _, err := NewEffect(bad); !errors.Is(err, model.ErrScaleNotNumeric) {
		t.Errorf("NaN scale: got %v", err)
	}

	bad = testSpec("x", "C_E")
	bad.ChannelCorrelations = nil
	if _, err := NewEffect(bad); !errors.Is(err, ErrBadChannelMatrix) {
		t.Errorf("missing channel matrix: got %v", err)
	}

	m := identityChannels()
	m.SetSym(3, 3, 0.5)
	bad = testSpec("x", "C_E")
	bad.ChannelCorrelations = m
	if _, err := NewEffect(bad); !errors.Is(err, ErrBadChannelMatrix) {
		t.Errorf("non-unit diagonal: got %v", err)
	}

	m = identityChannels()
	m.SetSym(2, 5, 1.5)
	bad = testSpec("x", "C_E")
	bad.ChannelCorrelations = m
	if _, err := NewEffect(bad); !errors.Is(err, ErrBadChannelMatrix) {
		t.Errorf("out-of-range element: got %v", err)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name  string
		ct    model.CorrelationType
		cs    model.CorrelationScale
		class string
	}{
		{
			name:  "all random",
			ct:    mustType(t, model.ShapeRandom, model.ShapeRandom, model.ShapeRandom, model.ShapeRandom),
			class: "independent",
		},
		{
			name: "all rectangular with unbounded scale",
			ct: mustType(t, model.ShapeRectangularAbsolute, model.ShapeRectangularAbsolute,
				model.ShapeRectangularAbsolute, model.ShapeRectangularAbsolute),
			cs:    model.InfiniteScale,
			class: "common",
		},
		{
			name: "all rectangular with finite scale",
			ct: mustType(t, model.ShapeRectangularAbsolute, model.ShapeRectangularAbsolute,
				model.ShapeRectangularAbsolute, model.ShapeRectangularAbsolute),
			cs: model.CorrelationScale{
				WithinScanline:   math.Inf(1),
				BetweenScanlines: math.Inf(1),
				BetweenOrbits:    math.Inf(1),
				AcrossTime:       1000,
			},
			class: "structured",
		},
		{
			name: "mixed",
			ct: mustType(t, model.ShapeRectangularAbsolute, model.ShapeRectangularAbsolute,
				model.ShapeRandom, model.ShapeTriangularRelative),
			class: "structured",
		},
		{
			name:  "undefined",
			ct:    model.UndefinedCorrelation,
			class: "structured",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := testSpec("probe", "C_E")
			spec.CorrelationType = tc.ct
			spec.CorrelationScale = tc.cs
			e, err := NewEffect(spec)
			if err != nil {
				t.Fatalf("NewEffect: %v", err)
			}
			if got := e.Classification(); got != tc.class {
				t.Errorf("Classification() = %q, want %q", got, tc.class)
			}
		})
	}
}

func TestSetMagnitudeStampsAttributes(t *testing.T) {
	spec := testSpec("C_Earth", "C_E")
	spec.CorrelationType = mustType(t,
		model.ShapeRandom, model.ShapeRandom, model.ShapeRandom, model.ShapeTriangularRelative)
	e, err := NewEffect(spec)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := e.SetMagnitudeValue(3.7, model.UnitCounts); err != nil {
		t.Fatalf("SetMagnitudeValue: %v", err)
	}

	mag, ok := e.Magnitude()
	if !ok {
		t.Fatal("magnitude not stored")
	}
	if mag.Name != "u_C_Earth" {
		t.Errorf("magnitude name = %q, want u_C_Earth", mag.Name)
	}
	if mag.Scalar() != 3.7 {
		t.Errorf("magnitude value = %v, want 3.7", mag.Scalar())
	}

	wantAttrs := map[string]any{
		"long_name":                        "noise on C_Earth",
		"short_name":                       "C_Earth",
		"parameter":                        "C_E",
		"pdf_shape":                        "Gaussian",
		"channels_affected":                "all",
		"correlation_type_within_scanline": string(model.ShapeRandom),
		"correlation_type_across_time":     string(model.ShapeTriangularRelative),
		"correlation_scale_across_time":    0.0,
		"WARNING":                          Warning,
	}
	for k, want := range wantAttrs {
		got, ok := mag.Attr(k)
		if !ok {
			t.Errorf("attribute %q not stamped", k)
			continue
		}
		if got != want {
			t.Errorf("attribute %q = %v, want %v", k, got, want)
		}
	}

	sens, ok := mag.Attr("sensitivity_coefficient")
	if !ok {
		t.Fatal("sensitivity_coefficient not stamped")
	}
	if !strings.Contains(sens.(string), "a_1") {
		t.Errorf("sensitivity for C_E = %q, want expression in a_1", sens)
	}

	rows, ok := mag.Attr("channel_correlations")
	if !ok {
		t.Fatal("channel_correlations not stamped")
	}
	matRows := rows.([][]float64)
	if len(matRows) != HIRSChannels || matRows[0][0] != 1 || matRows[0][1] != 0 {
		t.Errorf("channel_correlations rows malformed: %v", matRows[0])
	}
}

func TestSetMagnitudeKeepsReaderLongName(t *testing.T) {
	e, err := NewEffect(testSpec("C_space", "C_s"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	da := model.NewScalar("u_noise", 1.2, model.UnitCounts)
	da.SetAttr("long_name", "space view noise from reader")
	if err := e.SetMagnitude(da); err != nil {
		t.Fatalf("SetMagnitude: %v", err)
	}
	mag, _ := e.Magnitude()
	if mag.Name != "u_noise" {
		t.Errorf("explicit name must survive, got %q", mag.Name)
	}
	if v, _ := mag.Attr("long_name"); v != "space view noise from reader" {
		t.Errorf("reader long_name overwritten: %v", v)
	}
}

func TestSetMagnitudeRejectsNil(t *testing.T) {
	e, err := NewEffect(testSpec("C_space", "C_s"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := e.SetMagnitude(nil); !errors.Is(err, ErrEffectBadInput) {
		t.Errorf("nil magnitude: got %v", err)
	}
}

func TestSetMagnitudeUnitless(t *testing.T) {
	e, err := NewEffect(testSpec("a_2", "a_2"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := e.SetMagnitudeValue(3e-20, ""); err != nil {
		t.Fatalf("SetMagnitudeValue: %v", err)
	}
	mag, _ := e.Magnitude()
	if mag.Units != "" {
		t.Errorf("bare number must stay unitless, got %q", mag.Units)
	}
}

func TestReassignMagnitudeRestamps(t *testing.T) {
	e, err := NewEffect(testSpec("C_IWCT", "C_IWCT"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := e.SetMagnitudeValue(1, model.UnitCounts); err != nil {
		t.Fatalf("SetMagnitudeValue: %v", err)
	}
	e.PDFShape = "uniform"
	if err := e.SetMagnitudeValue(2, model.UnitCounts); err != nil {
		t.Fatalf("SetMagnitudeValue: %v", err)
	}
	mag, _ := e.Magnitude()
	if mag.Scalar() != 2 {
		t.Errorf("magnitude = %v, want 2", mag.Scalar())
	}
	if v, _ := mag.Attr("pdf_shape"); v != "uniform" {
		t.Errorf("re-stamp should reflect current fields, got pdf_shape %v", v)
	}
}

func TestEffectCopyIsolatesMagnitude(t *testing.T) {
	e, err := NewEffect(testSpec("C_Earth", "C_E"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := e.SetMagnitudeValue(5, model.UnitCounts); err != nil {
		t.Fatalf("SetMagnitudeValue: %v", err)
	}
	cp := e.Copy()
	cpMag, _ := cp.Magnitude()
	cpMag.Data.Elements[0] = -1
	cp.ChannelCorrelations.SetSym(0, 1, 0.9)

	mag, _ := e.Magnitude()
	if mag.Scalar() != 5 {
		t.Errorf("copy mutation leaked into magnitude: %v", mag.Scalar())
	}
	if e.ChannelCorrelations.At(0, 1) != 0 {
		t.Errorf("copy mutation leaked into channel matrix: %v", e.ChannelCorrelations.At(0, 1))
	}
}

func TestCrossChannelCorrelationReserved(t *testing.T) {
	e, err := NewEffect(testSpec("C_Earth", "C_E"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if _, err := e.CrossChannelCorrelation(testGranule(19, 20, 56, 10)); !errors.Is(err, ErrChannelCorrelation) {
		t.Errorf("expected ErrChannelCorrelation, got %v", err)
	}
}

func TestEffectDelegatesToModel(t *testing.T) {
	spec := testSpec("SRF_calib", "νstar")
	spec.RModel = CommonModel
	e, err := NewEffect(spec)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if _, err := e.CrossLineCorrelation(testGranule(19, 20, 56, 10), 1, 1); !errors.Is(err, ErrCommonCorrelation) {
		t.Errorf("expected ErrCommonCorrelation through delegation, got %v", err)
	}
}
