package model

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Quantity is a bare numeric value with a physical unit, the smallest thing
// an uncertainty magnitude can be assigned from. An empty Units string means
// dimensionless/unknown.
type Quantity struct {
	Value float64
	Units string
}

// DataArray is a labelled multi-dimensional array: the shape external
// collaborators exchange with this library. The satellite reader produces
// them, uncertainty magnitudes are stored as them, and the persistence layer
// serializes them together with their attributes and encoding.
//
// A scalar is represented with Dims nil and a single-element backing array.
type DataArray struct {
	Name     string
	Dims     []string
	Units    string
	Attrs    map[string]any
	Encoding Encoding
	Data     *sparse.DenseArray
}

// NewScalar wraps a single value into a scalar DataArray.
func NewScalar(name string, v float64, units string) *DataArray {
	data := sparse.ZerosDense(1)
	data.Elements[0] = v
	return &DataArray{
		Name:  name,
		Units: units,
		Attrs: make(map[string]any),
		Data:  data,
	}
}

// NewDataArray wraps a dense array with dimension labels. The number of
// labels must match the array rank.
func NewDataArray(name string, data *sparse.DenseArray, dims []string, units string) (*DataArray, error) {
	if data == nil {
		return nil, fmt.Errorf("nil backing array for %q", name)
	}
	if len(dims) != len(data.Shape) {
		return nil, fmt.Errorf("array %q has rank %d but %d dimension labels",
			name, len(data.Shape), len(dims))
	}
	return &DataArray{
		Name:  name,
		Dims:  append([]string(nil), dims...),
		Units: units,
		Attrs: make(map[string]any),
		Data:  data,
	}, nil
}

// IsScalar reports whether the array carries a single unlabelled value.
func (da *DataArray) IsScalar() bool {
	return len(da.Dims) == 0 && da.Data != nil && len(da.Data.Elements) == 1
}

// Scalar returns the single element of a scalar array.
func (da *DataArray) Scalar() float64 {
	return da.Data.Elements[0]
}

// At reads one element by multi-dimensional index.
func (da *DataArray) At(index ...int) float64 {
	return da.Data.Get(index...)
}

// SetAttr records a metadata attribute for persistence.
func (da *DataArray) SetAttr(key string, value any) {
	if da.Attrs == nil {
		da.Attrs = make(map[string]any)
	}
	da.Attrs[key] = value
}

// Attr fetches a metadata attribute.
func (da *DataArray) Attr(key string) (any, bool) {
	v, ok := da.Attrs[key]
	return v, ok
}

// SetDefaultAttr records an attribute only when absent, mirroring how
// existing reader-supplied metadata takes precedence over stamped defaults.
func (da *DataArray) SetDefaultAttr(key string, value any) {
	if da.Attrs == nil {
		da.Attrs = make(map[string]any)
	}
	if _, ok := da.Attrs[key]; !ok {
		da.Attrs[key] = value
	}
}

// Copy deep-copies the array, its attributes and its encoding so snapshot
// holders cannot reach back into live state.
func (da *DataArray) Copy() *DataArray {
	if da == nil {
		return nil
	}
	out := &DataArray{
		Name:     da.Name,
		Dims:     append([]string(nil), da.Dims...),
		Units:    da.Units,
		Encoding: da.Encoding,
	}
	if da.Attrs != nil {
		out.Attrs = make(map[string]any, len(da.Attrs))
		for k, v := range da.Attrs {
			out.Attrs[k] = v
		}
	}
	if da.Data != nil {
		data := sparse.ZerosDense(da.Data.Shape...)
		copy(data.Elements, da.Data.Elements)
		out.Data = data
	}
	return out
}
