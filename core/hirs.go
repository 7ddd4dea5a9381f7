package core

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/jmittaz/FCDR-HIRS/internal/logging"
	"github.com/jmittaz/FCDR-HIRS/meq"
	"github.com/jmittaz/FCDR-HIRS/model"
)

// HIRSChannels is the number of calibrated channels of the instrument.
const HIRSChannels = 19

// The recurring correlation-type tuples of the instrument inventory.
var (
	// correlationRandom: no coupling on any axis.
	correlationRandom = model.CorrelationType{
		WithinScanline:   model.ShapeRandom,
		BetweenScanlines: model.ShapeRandom,
		BetweenOrbits:    model.ShapeRandom,
		AcrossTime:       model.ShapeRandom,
	}

	// correlationCalib: full coupling within a calibration cycle, none
	// between orbits, slow decay across time.
	correlationCalib = model.CorrelationType{
		WithinScanline:   model.ShapeRectangularAbsolute,
		BetweenScanlines: model.ShapeRectangularAbsolute,
		BetweenOrbits:    model.ShapeRandom,
		AcrossTime:       model.ShapeTriangularRelative,
	}

	// correlationSystematic: rectangular on every axis; combined with an
	// infinite scale this makes an effect common.
	correlationSystematic = model.CorrelationType{
		WithinScanline:   model.ShapeRectangularAbsolute,
		BetweenScanlines: model.ShapeRectangularAbsolute,
		BetweenOrbits:    model.ShapeRectangularAbsolute,
		AcrossTime:       model.ShapeRectangularAbsolute,
	}
)

// identityChannels builds the no-coupling channel correlation matrix.
func identityChannels() *mat.SymDense {
	m := mat.NewSymDense(HIRSChannels, nil)
	for i := 0; i < HIRSChannels; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

// onesChannels builds the full-coupling channel correlation matrix, used for
// effects entering through the shared blackbody temperature.
func onesChannels() *mat.SymDense {
	m := mat.NewSymDense(HIRSChannels, nil)
	for i := 0; i < HIRSChannels; i++ {
		for j := i; j < HIRSChannels; j++ {
			m.SetSym(i, j, 1)
		}
	}
	return m
}

// blockChannels couples the twelve longwave channels with each other and the
// remaining shortwave channels with each other, with no coupling across the
// detector split.
func blockChannels() *mat.SymDense {
	const longwave = 12
	m := mat.NewSymDense(HIRSChannels, nil)
	for i := 0; i < HIRSChannels; i++ {
		for j := i; j < HIRSChannels; j++ {
			if (i < longwave) == (j < longwave) {
				m.SetSym(i, j, 1)
			}
		}
	}
	return m
}

// NewHIRSCatalogue builds the declarative inventory of known uncertainty
// sources for the instrument. Construction is all-or-nothing: the first
// invalid entry aborts with its error.
func NewHIRSCatalogue(log logging.Logger) (*Catalogue, error) {
	if log == nil {
		log = logging.Noop()
	}
	start := time.Now()

	ident := identityChannels()
	full := onesChannels()
	block := blockChannels()

	cat := NewCatalogue(DefaultEncodings())

	specs := []EffectSpec{
		{
			Name:                "C_Earth",
			Description:         "noise on Earth counts",
			Parameter:           meq.Symbols["C_E"],
			CorrelationType:     correlationRandom,
			Units:               model.UnitCounts,
			ChannelCorrelations: ident,
			Dimensions:          []string{model.DimCalibrationCycle},
			RModel:              RandomModel,
		},
		{
			Name:                "C_space",
			Description:         "noise on Space counts",
			Parameter:           meq.Symbols["C_s"],
			CorrelationType:     correlationCalib,
			Units:               model.UnitCounts,
			ChannelCorrelations: ident,
			Dimensions:          []string{model.DimCalibrationCycle},
			RModel:              CalibModel,
		},
		{
			Name:                "C_IWCT",
			Description:         "noise on IWCT counts",
			Parameter:           meq.Symbols["C_IWCT"],
			CorrelationType:     correlationCalib,
			Units:               model.UnitCounts,
			ChannelCorrelations: ident,
			Dimensions:          []string{model.DimCalibrationCycle},
			RModel:              CalibModel,
		},
		{
			Name:                "SRF_calib",
			Description:         "Spectral response function calibration",
			Parameter:           meq.Symbols["νstar"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitNanometre,
			ChannelCorrelations: ident,
			RModel:              CommonModel,
		},
		{
			Name:                "C_PRT",
			Description:         "IWCT PRT counts noise",
			Parameter:           meq.Symbols["C_PRT"],
			CorrelationType:     correlationCalib,
			Units:               model.UnitCounts,
			ChannelCorrelations: full,
			RModel:              CalibModel,
		},
		{
			Name:                "O_TIWCT",
			Description:         "IWCT PRT representation",
			Parameter:           meq.Symbols["O_TIWCT"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitKelvin,
			ChannelCorrelations: full,
			RModel:              CalibModel,
		},
		{
			Name:                "d_PRT",
			Description:         "IWCT PRT counts to temperature",
			Parameter:           meq.Symbols["d_PRT"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitCountsPerK,
			ChannelCorrelations: full,
			RModel:              CalibModel,
		},
		{
			Name:                "O_TPRT",
			Description:         "IWCT type B",
			Parameter:           meq.Symbols["O_TPRT"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitKelvin,
			ChannelCorrelations: full,
			RModel:              CalibModel,
		},
		{
			Name:                "a_2",
			Description:         "Nonlinearity",
			Parameter:           meq.Symbols["a_2"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitRadianceSIPerCount2,
			ChannelCorrelations: block,
			RModel:              CommonModel,
		},
		{
			Name:                "O_Re",
			Description:         "Wrongness of nonlinearity",
			Parameter:           meq.Symbols["O_Re"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			RModel:              CommonModel,
		},
		{
			Name:        "Earthshine",
			Description: "Earthshine",
			Parameter:   meq.Symbols["R_refl"],
			CorrelationType: model.CorrelationType{
				WithinScanline:   model.ShapeRectangularAbsolute,
				BetweenScanlines: model.ShapeRectangularAbsolute,
				BetweenOrbits:    model.ShapeRepeatedRectangles,
				AcrossTime:       model.ShapeTriangularRelative,
			},
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			RModel:              CalibModel,
		},
		{
			Name:        "Rself",
			Description: "self-emission",
			Parameter:   meq.Symbols["R_selfE"],
			CorrelationType: model.CorrelationType{
				WithinScanline:   model.ShapeRectangularAbsolute,
				BetweenScanlines: model.ShapeTriangularRelative,
				BetweenOrbits:    model.ShapeTriangularRelative,
				AcrossTime:       model.ShapeRepeatedRectangles,
			},
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			Dimensions:          []string{model.DimRselfUpdateTime},
			RModel:              SelfEmissionModel,
		},
		{
			Name:        "Rselfparams",
			Description: "self-emission parameters",
			Parameter:   meq.Symbols["R_selfE"],
			CorrelationType: model.CorrelationType{
				WithinScanline:   model.ShapeRectangularAbsolute,
				BetweenScanlines: model.ShapeTriangularRelative,
				BetweenOrbits:    model.ShapeTriangularRelative,
				AcrossTime:       model.ShapeRepeatedRectangles,
			},
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			RModel:              SelfEmissionModel,
		},
		{
			Name:                "electronics",
			Description:         "unknown electronics effects",
			Parameter:           meq.Symbols["O_Re"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			RModel:              CommonModel,
		},
		{
			// Correlation structure deliberately left undefined until the
			// periodic signal has been characterised.
			Name:                "extraneous_periodic",
			Description:         "extraneous periodic signal",
			Parameter:           meq.Symbols["O_Re"],
			CorrelationType:     model.UndefinedCorrelation,
			Units:               model.UnitRadianceIR,
			ChannelCorrelations: block,
			RModel:              PeriodicModel,
		},
		{
			Name:                "α",
			Description:         "uncertainty in band correction factor α (ad-hoc)",
			Parameter:           meq.Symbols["α"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitDimensionless,
			ChannelCorrelations: ident,
			RModel:              CommonModel,
		},
		{
			Name:                "β",
			Description:         "uncertainty in band correction factor β (ad-hoc)",
			Parameter:           meq.Symbols["β"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitPerKelvin,
			ChannelCorrelations: ident,
			RModel:              CommonModel,
		},
		{
			Name:                "f_eff",
			Description:         "uncertainty in band correction centroid",
			Parameter:           meq.Symbols["fstar"],
			CorrelationType:     correlationSystematic,
			CorrelationScale:    model.InfiniteScale,
			Units:               model.UnitTerahertz,
			ChannelCorrelations: ident,
			RModel:              CommonModel,
		},
	}

	for _, spec := range specs {
		e, err := NewEffect(spec)
		if err != nil {
			return nil, err
		}
		if err := cat.Register(e); err != nil {
			return nil, err
		}
	}

	// Magnitudes known a priori are assigned after registration so the
	// stamped attributes see the final field values.
	if err := setTypeBMagnitude(cat); err != nil {
		return nil, err
	}
	if err := setNonlinearityMagnitude(cat); err != nil {
		return nil, err
	}

	independent, common, structured := cat.CountByClass()
	log.Info(context.Background(), "effect catalogue built",
		logging.Int("effects", cat.Len()),
		logging.Int("independent", independent),
		logging.Int("common", common),
		logging.Int("structured", structured),
		logging.String("elapsed", time.Since(start).String()),
	)
	return cat, nil
}

// setTypeBMagnitude records the documented 0.1 K type B uncertainty of the
// IWCT PRT temperatures.
func setTypeBMagnitude(cat *Catalogue) error {
	e := cat.Find("O_TPRT")
	if e == nil {
		return fmt.Errorf("%w: O_TPRT missing from catalogue", ErrEffectBadInput)
	}
	return e.SetMagnitude(model.NewScalar("uncertainty", 0.1, model.UnitKelvin))
}

// setNonlinearityMagnitude records the placeholder nonlinearity uncertainty,
// 3e-20 in SI radiance per squared count (about 1e-6 in IR units), pending
// harmonisation.
func setNonlinearityMagnitude(cat *Catalogue) error {
	e := cat.Find("a_2")
	if e == nil {
		return fmt.Errorf("%w: a_2 missing from catalogue", ErrEffectBadInput)
	}
	da := model.NewScalar("uncertainty", 3e-20, model.UnitRadianceSIPerCount2)
	da.SetAttr("note", "Placeholder uncertainty awaiting proper harmonisation")
	return e.SetMagnitude(da)
}
