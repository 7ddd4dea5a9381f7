package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/jmittaz/FCDR-HIRS/model"
)

var (
	// ErrCommonCorrelation marks the physical impossibility of deriving a
	// finite correlation matrix for a fully systematic effect. Callers must
	// branch on IsCommon instead of asking for the matrix.
	ErrCommonCorrelation = errors.New("no error correlation matrices for common effects")

	// ErrNotImplemented marks correlation models reserved for future
	// physical modelling, as opposed to ones that are impossible in
	// principle.
	ErrNotImplemented = errors.New("correlation model not implemented")

	ErrMissingDimension = errors.New("dataset missing dimension")
)

// Dataset exposes the dimensional layout of a calibrated granule. Correlation
// models only need dimension sizes and, for calibration-cycle coupling, the
// time coordinates of scanlines and calibration events.
type Dataset interface {
	DimSize(name string) int
	TimeCoord(name string) []time.Time
}

// RModel derives error-correlation matrices from a dataset's dimensions.
// Implementations are stateless singletons shared by every effect that uses
// them.
//
// CrossElementCorrelation returns the correlation between scan positions,
// with dims [calibrated_channel, scanline_earth, scanpos, scanpos].
// CrossLineCorrelation returns the correlation between scanlines, with dims
// [calibrated_channel, scanpos, scanline_earth, scanline_earth]. Both
// subsample by stride: samplingL along scanlines, samplingE along scan
// positions, keeping every n-th sample rather than aggregating.
type RModel interface {
	CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error)
	CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error)
}

// The shared model singletons. Effects hold these by reference; none of them
// carries per-effect state.
var (
	RandomModel       RModel = randomModel{}
	CalibModel        RModel = calibModel{}
	CommonModel       RModel = commonModel{}
	PeriodicModel     RModel = periodicModel{}
	SelfEmissionModel RModel = selfEmissionModel{}
)

// RModelName reports the registry name of one of the shared singletons, for
// logs and catalogue listings.
func RModelName(m RModel) string {
	switch m.(type) {
	case randomModel:
		return "random"
	case calibModel:
		return "calib"
	case commonModel:
		return "common"
	case periodicModel:
		return "periodic"
	case selfEmissionModel:
		return "self_emission"
	default:
		return "unknown"
	}
}

// ceilDiv is the subsampled length of a dimension of size n at stride s.
func ceilDiv(n, s int) int {
	if s < 1 {
		s = 1
	}
	return (n + s - 1) / s
}

// granuleSizes pulls the three dimension sizes every correlation matrix is
// shaped by.
func granuleSizes(ds Dataset, samplingL, samplingE int) (nc, nl, ne int, err error) {
	nc = ds.DimSize(model.DimCalibratedChannel)
	nl = ds.DimSize(model.DimScanlineEarth)
	ne = ds.DimSize(model.DimScanpos)
	if nc <= 0 || nl <= 0 || ne <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: need %s, %s and %s",
			ErrMissingDimension, model.DimCalibratedChannel,
			model.DimScanlineEarth, model.DimScanpos)
	}
	return nc, ceilDiv(nl, samplingL), ceilDiv(ne, samplingE), nil
}

// tileBlocks replicates one correlation block across the two leading
// dimensions and labels the result.
func tileBlocks(name string, block *mat.Dense, n0, n1 int, dims []string) (*model.DataArray, error) {
	nb, _ := block.Dims()
	out := sparse.ZerosDense(n0, n1, nb, nb)
	for i := 0; i < n0; i++ {
		for j := 0; j < n1; j++ {
			for r := 0; r < nb; r++ {
				for c := 0; c < nb; c++ {
					out.Set(block.At(r, c), i, j, r, c)
				}
			}
		}
	}
	return model.NewDataArray(name, out, dims, model.UnitDimensionless)
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func ones(n int) *mat.Dense {
	data := make([]float64, n*n)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(n, n, data)
}

// randomModel treats every sample as uncorrelated with any other: identity
// blocks on both axes.
type randomModel struct{}

func (randomModel) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	nc, nl, ne, err := granuleSizes(ds, samplingL, samplingE)
	if err != nil {
		return nil, err
	}
	return tileBlocks("R_cross_element", eye(ne), nc, nl, []string{
		model.DimCalibratedChannel, model.DimScanlineEarth,
		model.DimScanpos, model.DimScanpos,
	})
}

func (randomModel) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	nc, nl, ne, err := granuleSizes(ds, samplingL, samplingE)
	if err != nil {
		return nil, err
	}
	return tileBlocks("R_cross_line", eye(nl), nc, ne, []string{
		model.DimCalibratedChannel, model.DimScanpos,
		model.DimScanlineEarth, model.DimScanlineEarth,
	})
}

// calibModel couples every sample that shares a calibration cycle. Within a
// scanline that is full coupling; between scanlines two lines correlate
// exactly when the same number of calibration events precedes both.
type calibModel struct{}

func (calibModel) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	nc, nl, ne, err := granuleSizes(ds, samplingL, samplingE)
	if err != nil {
		return nil, err
	}
	return tileBlocks("R_cross_element", ones(ne), nc, nl, []string{
		model.DimCalibratedChannel, model.DimScanlineEarth,
		model.DimScanpos, model.DimScanpos,
	})
}

func (calibModel) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	nc, _, ne, err := granuleSizes(ds, samplingL, samplingE)
	if err != nil {
		return nil, err
	}
	scanTimes := ds.TimeCoord(model.DimScanlineEarth)
	calibTimes := ds.TimeCoord(model.DimCalibrationCycle)
	if len(scanTimes) == 0 || len(calibTimes) == 0 {
		return nil, fmt.Errorf("%w: calibration coupling needs %s and %s time coordinates",
			ErrMissingDimension, model.DimScanlineEarth, model.DimCalibrationCycle)
	}

	cycle := cycleMembership(scanTimes, calibTimes)
	strided := stride(cycle, samplingL)

	nl := len(strided)
	block := mat.NewDense(nl, nl, nil)
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			if strided[i] == strided[j] {
				block.Set(i, j, 1)
			}
		}
	}
	return tileBlocks("R_cross_line", block, nc, ne, []string{
		model.DimCalibratedChannel, model.DimScanpos,
		model.DimScanlineEarth, model.DimScanlineEarth,
	})
}

// cycleMembership assigns each scanline the count of calibration events
// strictly before it; equal counts mean the same calibration cycle.
func cycleMembership(scanTimes, calibTimes []time.Time) []int {
	out := make([]int, len(scanTimes))
	for i, st := range scanTimes {
		n := 0
		for _, ct := range calibTimes {
			if st.After(ct) {
				n++
			}
		}
		out[i] = n
	}
	return out
}

func stride(xs []int, sampling int) []int {
	if sampling < 1 {
		sampling = 1
	}
	out := make([]int, 0, ceilDiv(len(xs), sampling))
	for i := 0; i < len(xs); i += sampling {
		out = append(out, xs[i])
	}
	return out
}

// commonModel rejects both matrices outright: a fully systematic effect has
// no finite correlation structure to express.
type commonModel struct{}

func (commonModel) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, ErrCommonCorrelation
}

func (commonModel) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, ErrCommonCorrelation
}

// periodicModel is reserved for the extraneous periodic signal seen in some
// instruments; no physical model has been fitted yet.
type periodicModel struct{}

func (periodicModel) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, fmt.Errorf("%w: periodic", ErrNotImplemented)
}

func (periodicModel) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, fmt.Errorf("%w: periodic", ErrNotImplemented)
}

// selfEmissionModel is reserved for self-emission error correlation, pending
// a model of the self-emission update interval.
type selfEmissionModel struct{}

func (selfEmissionModel) CrossElementCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, fmt.Errorf("%w: self emission", ErrNotImplemented)
}

func (selfEmissionModel) CrossLineCorrelation(ds Dataset, samplingL, samplingE int) (*model.DataArray, error) {
	return nil, fmt.Errorf("%w: self emission", ErrNotImplemented)
}
