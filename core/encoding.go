package core

import (
	"sync"

	"github.com/jmittaz/FCDR-HIRS/model"
)

// EncodingRegistry maps effect short names to the serialization hints their
// persisted magnitudes should carry. Effects without an entry are simply
// written with whatever the array already has: absence is not an error.
type EncodingRegistry struct {
	mu       sync.RWMutex
	byEffect map[string]model.Encoding
}

// NewEncodingRegistry constructs an empty registry.
func NewEncodingRegistry() *EncodingRegistry {
	return &EncodingRegistry{byEffect: make(map[string]model.Encoding)}
}

// Set records the encoding for one effect name, replacing any previous one.
func (r *EncodingRegistry) Set(name string, enc model.Encoding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEffect[name] = enc
}

// Lookup fetches the encoding for an effect name.
func (r *EncodingRegistry) Lookup(name string) (model.Encoding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enc, ok := r.byEffect[name]
	return enc, ok
}

// uncertaintyFill is the sentinel written for masked uncertainty samples.
var uncertaintyFill = -1.0

// DefaultEncodings returns the registry used for HIRS uncertainty variables:
// packed 32-bit floats with deflate, matching the rest of the product file.
func DefaultEncodings() *EncodingRegistry {
	r := NewEncodingRegistry()
	packed := model.Encoding{
		DType:     "f4",
		Zlib:      true,
		Complevel: 4,
		FillValue: &uncertaintyFill,
	}
	for _, name := range []string{
		"C_Earth", "C_space", "C_IWCT", "C_PRT",
		"O_TIWCT", "O_TPRT", "d_PRT",
		"a_2", "O_Re", "Earthshine", "Rself", "Rselfparams",
		"electronics", "extraneous_periodic",
		"SRF_calib", "α", "β", "f_eff",
	} {
		r.Set(name, packed)
	}
	return r
}
