package leafopt

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput reports a malformed Environment, CostParams or TrialPoint.
// It indicates a caller bug and is returned before any computation starts.
var ErrInvalidInput = errors.New("leafopt: invalid input")

// Environment is the ambient state for one optimization: a snapshot of the
// precomputed biochemical constants and environmental drivers. It is shared
// by value across all solver calls and never mutated by the package.
//
// Derivation of GammaStar, Kmm and NsStar from temperature and elevation is
// a collaborator concern; leafopt consumes them as given.
type Environment struct {
	Ca        float64 // ambient CO2 partial pressure (Pa)
	GammaStar float64 // photorespiration compensation point Γ* (Pa)
	Kmm       float64 // effective Michaelis-Menten coefficient K (Pa)
	NsStar    float64 // viscosity of water relative to 25°C (dimensionless)
	VPD       float64 // vapor pressure deficit D (Pa)
	Iabs      float64 // absorbed photosynthetically active flux I
	Kphio     float64 // intrinsic quantum yield efficiency φ (dimensionless)
}

// Validate checks the Environment invariants: every field finite,
// ca > Γ* >= 0, K > 0, D >= 0, ns* > 0, I >= 0, φ > 0.
func (e Environment) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"ca", e.Ca}, {"gammastar", e.GammaStar}, {"kmm", e.Kmm},
		{"ns_star", e.NsStar}, {"vpd", e.VPD}, {"iabs", e.Iabs}, {"kphio", e.Kphio},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, f.name)
		}
	}
	switch {
	case e.Ca <= 0:
		return fmt.Errorf("%w: ca = %g, must be positive", ErrInvalidInput, e.Ca)
	case e.GammaStar < 0:
		return fmt.Errorf("%w: gammastar = %g, must be non-negative", ErrInvalidInput, e.GammaStar)
	case e.Ca <= e.GammaStar:
		return fmt.Errorf("%w: ca = %g not above gammastar = %g", ErrInvalidInput, e.Ca, e.GammaStar)
	case e.Kmm <= 0:
		return fmt.Errorf("%w: kmm = %g, must be positive", ErrInvalidInput, e.Kmm)
	case e.VPD < 0:
		return fmt.Errorf("%w: vpd = %g, must be non-negative", ErrInvalidInput, e.VPD)
	case e.NsStar <= 0:
		return fmt.Errorf("%w: ns_star = %g, must be positive", ErrInvalidInput, e.NsStar)
	case e.Iabs < 0:
		return fmt.Errorf("%w: iabs = %g, must be non-negative", ErrInvalidInput, e.Iabs)
	case e.Kphio <= 0:
		return fmt.Errorf("%w: kphio = %g, must be positive", ErrInvalidInput, e.Kphio)
	}
	return nil
}

// TypicalEnvironment returns the standard sea-level reference scenario:
// 400 ppm CO2 (40.53 Pa), 1 kPa vapor pressure deficit, 25°C biochemical
// constants. Tests and examples share it as a single source of truth.
func TypicalEnvironment() Environment {
	return Environment{
		Ca:        40.53,
		GammaStar: 3.34,
		Kmm:       46.1,
		NsStar:    1.0,
		VPD:       1000,
		Iabs:      800,
		Kphio:     0.085,
	}
}

// CostParams holds the cost-side parameters of the trade-off.
type CostParams struct {
	// Beta is the unit cost ratio of Vcmax maintenance to transpiration.
	Beta float64

	// GammaCost is the unit cost ratio of Jmax maintenance. Only read by the
	// Jmax-limited formulation.
	GammaCost float64

	// CostScalar is the absolute, dimension-bearing multiplier applied to
	// both maintenance costs equally. Required by the net-benefit
	// formulations; the ratio-cost formulation ignores it. It has no closed
	// form; see CalibrateCostScalar.
	CostScalar float64
}

// Validate checks the cost parameters shared by all formulations.
// Formulation-specific requirements (CostScalar, GammaCost) are enforced by
// NewObjective, which knows which formulation is being built.
func (c CostParams) Validate() error {
	switch {
	case math.IsNaN(c.Beta) || math.IsInf(c.Beta, 0) || c.Beta <= 0:
		return fmt.Errorf("%w: beta = %g, must be positive and finite", ErrInvalidInput, c.Beta)
	case math.IsNaN(c.GammaCost) || math.IsInf(c.GammaCost, 0) || c.GammaCost < 0:
		return fmt.Errorf("%w: gamma_cost = %g, must be non-negative and finite", ErrInvalidInput, c.GammaCost)
	case math.IsNaN(c.CostScalar) || math.IsInf(c.CostScalar, 0) || c.CostScalar < 0:
		return fmt.Errorf("%w: cost_scalar = %g, must be non-negative and finite", ErrInvalidInput, c.CostScalar)
	}
	return nil
}

// DefaultCostParams returns the standard parameterization: β = 146 and
// γ = 0.103. CostScalar is left zero; net-benefit callers set it directly or
// obtain it from CalibrateCostScalar.
func DefaultCostParams() CostParams {
	return CostParams{
		Beta:      146,
		GammaCost: 0.103,
	}
}

// TrialPoint is one candidate partitioning of leaf machinery: the decision
// variables of the optimization. Jmax == 0 means the two-variable problem
// (no electron-transport cap). Points are values; every evaluation works on
// its own copy and nothing is mutated in place.
type TrialPoint struct {
	Vcmax float64 // maximum carboxylation capacity
	Gs    float64 // stomatal conductance
	Jmax  float64 // maximum electron-transport capacity (0 = unused)
}

// Validate checks strict positivity of the active decision variables.
func (p TrialPoint) Validate(jmaxActive bool) error {
	switch {
	case math.IsNaN(p.Vcmax) || p.Vcmax <= 0:
		return fmt.Errorf("%w: vcmax = %g, must be positive", ErrInvalidInput, p.Vcmax)
	case math.IsNaN(p.Gs) || p.Gs <= 0:
		return fmt.Errorf("%w: gs = %g, must be positive", ErrInvalidInput, p.Gs)
	case jmaxActive && (math.IsNaN(p.Jmax) || p.Jmax <= 0):
		return fmt.Errorf("%w: jmax = %g, must be positive when the electron-transport cap is active", ErrInvalidInput, p.Jmax)
	}
	return nil
}

// CoordinationVcmax returns the Vcmax that equates the Rubisco- and
// light-limited demand laws at the internal pressure ci = chi * ca
// (the coordination hypothesis):
//
//	Vcmax = φ I (ci + K) / (ci + 2 Γ*)
//
// Useful for seeding optimizer start points at a balanced state.
func CoordinationVcmax(chi float64, env Environment) float64 {
	ci := chi * env.Ca
	return env.Kphio * env.Iabs * (ci + env.Kmm) / (ci + 2*env.GammaStar)
}
