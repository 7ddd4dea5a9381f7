// Package meq exposes the HIRS measurement equation to the uncertainty
// machinery: the symbol table of physical parameters and the sensitivity
// coefficients ∂R_e/∂x for each of them.
//
// The differentiation itself is done offline by a computer-algebra system;
// this package carries its verified output as expression text. The textual
// form is what ends up in the sensitivity_coefficient attribute of persisted
// uncertainty arrays.
package meq

import (
	"errors"
	"fmt"
	"sort"
)

// Symbol identifies one parameter of the measurement equation.
type Symbol string

// Expr is a rendered algebraic expression over measurement-equation symbols.
type Expr string

func (e Expr) String() string { return string(e) }

var ErrUnknownSensitivity = errors.New("no sensitivity coefficient")

// SymEarthRadiance is the default differentiation target: calibrated Earth
// radiance, the left-hand side of the measurement equation.
const SymEarthRadiance Symbol = "R_e"

// Symbols maps short physical names to their measurement-equation symbols.
//
// The calibration follows R_e = a_0 + a_1*C_E + a_2*C_E**2 - R_selfE with
//
//	a_1 = (R_IWCT + R_selfIWCT - R_selfs - a_2*(C_IWCT**2 - C_s**2)) / (C_IWCT - C_s)
//	a_0 = -a_2*C_s**2 - a_1*C_s
//
// and R_IWCT obtained from the PRT-derived blackbody temperature through the
// SRF-weighted Planck function B(νstar, T_IWCT).
var Symbols = map[string]Symbol{
	"R_e":     SymEarthRadiance,
	"C_E":     "C_E",
	"C_s":     "C_s",
	"C_IWCT":  "C_IWCT",
	"C_PRT":   "C_PRT",
	"d_PRT":   "d_PRT",
	"T_PRT":   "T_PRT",
	"T_IWCT":  "T_IWCT",
	"R_IWCT":  "R_IWCT",
	"R_refl":  "R_refl",
	"R_selfE": "R_selfE",
	"O_TIWCT": "O_TIWCT",
	"O_TPRT":  "O_TPRT",
	"O_Re":    "O_Re",
	"a_0":     "a_0",
	"a_1":     "a_1",
	"a_2":     "a_2",
	"a_3":     "a_3",
	"ε":       "ε",
	"α":       "α",
	"β":       "β",
	"νstar":   "νstar",
	"fstar":   "fstar",
}

// slope is the shared gain factor (C_E - C_s)/(C_IWCT - C_s) that every
// calibration-side perturbation is scaled by.
const slope = "(C_E - C_s)/(C_IWCT - C_s)"

// planckT is ∂B/∂T at the IWCT temperature for the effective channel
// frequency, left as an unevaluated derivative for the downstream consumer.
const planckT = "Derivative(B(νstar, T_IWCT), T_IWCT)"

// sensitivityToEarthRadiance holds ∂R_e/∂x for every parameter carrying a
// catalogued uncertainty effect. Offsets (O_*) perturb their host quantity
// additively, so their coefficient equals the host's.
var sensitivityToEarthRadiance = map[Symbol]Expr{
	"C_E":     "a_1 + 2*a_2*C_E",
	"C_s":     "(a_1 + 2*a_2*C_s)*((C_E - C_s)/(C_IWCT - C_s) - 1)",
	"C_IWCT":  "-(a_1 + 2*a_2*C_IWCT)*(C_E - C_s)/(C_IWCT - C_s)",
	"R_IWCT":  slope,
	"a_2":     "(C_E**2 - C_s**2) - (C_E - C_s)*(C_IWCT + C_s)",
	"R_selfE": "-1",
	"O_Re":    "1",
	"R_refl":  "(1 - ε - a_3)*" + slope,
	"T_IWCT":  "(ε + a_3)*" + slope + "*" + planckT,
	"O_TIWCT": "(ε + a_3)*" + slope + "*" + planckT,
	"O_TPRT":  "(ε + a_3)*" + slope + "*" + planckT + "/N",
	"T_PRT":   "(ε + a_3)*" + slope + "*" + planckT + "/N",
	"C_PRT":   "(ε + a_3)*" + slope + "*" + planckT + "*Sum(k*d_PRT[k]*C_PRT**(k - 1), (k, 1, K - 1))/N",
	"d_PRT":   "(ε + a_3)*" + slope + "*" + planckT + "*Sum(C_PRT**k, (k, 0, K - 1))/N",
	"νstar":   "(ε + a_3)*" + slope + "*Derivative(B(νstar, T_IWCT), νstar)",
	"fstar":   "(ε + a_3)*" + slope + "*Derivative(B(fstar, α + β*T_IWCT), fstar)",
	"α":       "(ε + a_3)*" + slope + "*Derivative(B(fstar, α + β*T_IWCT), α)",
	"β":       "(ε + a_3)*" + slope + "*Derivative(B(fstar, α + β*T_IWCT), β)",
}

// CalcSensitivityCoefficient returns the expression for ∂target/∂parameter.
// Only Earth radiance is supported as a target; differentiating a symbol
// with respect to itself yields 1.
func CalcSensitivityCoefficient(target, parameter Symbol) (Expr, error) {
	if target == parameter {
		return "1", nil
	}
	if target != SymEarthRadiance {
		return "", fmt.Errorf("%w: unsupported target %s", ErrUnknownSensitivity, target)
	}
	expr, ok := sensitivityToEarthRadiance[parameter]
	if !ok {
		return "", fmt.Errorf("%w: d%s/d%s", ErrUnknownSensitivity, target, parameter)
	}
	return expr, nil
}

// Parameters lists every symbol with a known sensitivity to Earth radiance,
// sorted for stable reporting.
func Parameters() []Symbol {
	out := make([]Symbol, 0, len(sensitivityToEarthRadiance))
	for s := range sensitivityToEarthRadiance {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
