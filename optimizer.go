package leafopt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bounds is the componentwise box for the decision variables. Callers set it
// as generous multiples of a starting guess, not as hard physiological
// limits; DefaultBounds encodes the usual choice.
type Bounds struct {
	Lower TrialPoint
	Upper TrialPoint
}

// DefaultBounds spans four orders of magnitude below the start point and a
// factor 30 above it, wide enough that a physical optimum is interior.
func DefaultBounds(start TrialPoint) Bounds {
	scale := func(p TrialPoint, f float64) TrialPoint {
		return TrialPoint{Vcmax: p.Vcmax * f, Gs: p.Gs * f, Jmax: p.Jmax * f}
	}
	return Bounds{Lower: scale(start, 1e-4), Upper: scale(start, 30)}
}

// OptimizerConfig controls the inner minimization.
type OptimizerConfig struct {
	// MaxIterations is the major-iteration budget. Exceeding it is reported
	// through OptimizeResult.Converged, not raised.
	MaxIterations int

	// GradientTolerance is the stationarity threshold on the transformed
	// problem's gradient norm.
	GradientTolerance float64
}

// DefaultOptimizerConfig returns the budget used throughout the tests:
// modest, and sufficient for the two- and three-variable problems here.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		MaxIterations:     200,
		GradientTolerance: 1e-6,
	}
}

// OptimizeResult is the outcome of one Minimize invocation. Immutable after
// return; owned by the caller.
type OptimizeResult struct {
	Point TrialPoint   // best trial point found
	Assim Assimilation // assimilation state at Point
	Value float64      // objective at Point, natural orientation

	Iterations int
	Converged  bool

	// BoundaryHit is set when the optimum presses against the box (within 1%
	// of its width of either bound), signalling that the caller's bounds may
	// be clipping the unconstrained optimum.
	BoundaryHit bool
}

// Minimize drives a quasi-Newton search (BFGS with finite-difference
// gradients, Nelder-Mead as fallback) over the objective, constrained to the
// box through a change of variables: each coordinate is mapped through a
// scaled tanh so the unconstrained minimizer can never leave the bounds.
//
// Budget exhaustion returns the best point found with Converged = false; it
// is a reported, not fatal, condition.
func Minimize(obj *Objective, start TrialPoint, bounds Bounds, cfg OptimizerConfig) (OptimizeResult, error) {
	if obj == nil {
		return OptimizeResult{}, fmt.Errorf("%w: nil objective", ErrInvalidInput)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultOptimizerConfig().MaxIterations
	}
	if cfg.GradientTolerance <= 0 {
		cfg.GradientTolerance = DefaultOptimizerConfig().GradientTolerance
	}

	n := obj.Vars()
	lo := pointVec(bounds.Lower, n)
	hi := pointVec(bounds.Upper, n)
	x0 := pointVec(start, n)
	for i := 0; i < n; i++ {
		if !(lo[i] > 0) || !(hi[i] > lo[i]) {
			return OptimizeResult{}, fmt.Errorf("%w: bounds must satisfy 0 < lower < upper componentwise", ErrInvalidInput)
		}
		if x0[i] < lo[i] || x0[i] > hi[i] {
			return OptimizeResult{}, fmt.Errorf("%w: start %g outside [%g, %g]", ErrInvalidInput, x0[i], lo[i], hi[i])
		}
	}

	// y ∈ ℝ ↔ x ∈ (lo, hi) via x = lo + (hi-lo)(tanh(y)+1)/2.
	fromY := func(y []float64) []float64 {
		x := make([]float64, n)
		for i, yi := range y {
			x[i] = lo[i] + (hi[i]-lo[i])*(math.Tanh(yi)+1)/2
		}
		return x
	}
	y0 := make([]float64, n)
	for i := range y0 {
		u := 2*(x0[i]-lo[i])/(hi[i]-lo[i]) - 1
		y0[i] = math.Atanh(math.Max(-0.9999, math.Min(0.9999, u)))
	}

	problem := optimize.Problem{
		Func: func(y []float64) float64 {
			return obj.Eval(vecPoint(fromY(y), n))
		},
	}
	settings := optimize.Settings{
		MajorIterations:   cfg.MaxIterations,
		GradientThreshold: cfg.GradientTolerance,
	}

	result, err := optimize.Minimize(problem, y0, &settings, &optimize.BFGS{})
	if err != nil || result == nil || math.IsNaN(result.F) {
		// The penalty plateau and the min() kink in the arbitrated
		// formulations can defeat the line search; Nelder-Mead is
		// derivative-free and indifferent to both.
		result, err = optimize.Minimize(problem, y0, &settings, &optimize.NelderMead{})
	}
	if result == nil {
		return OptimizeResult{}, fmt.Errorf("leafopt: minimization produced no result: %w", err)
	}

	converged := err == nil
	switch result.Status {
	case optimize.NotTerminated, optimize.Failure,
		optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		converged = false
	}

	x := fromY(result.X)
	res := OptimizeResult{
		Point:      vecPoint(x, n),
		Iterations: result.Stats.MajorIterations,
		Converged:  converged,
	}
	for i := 0; i < n; i++ {
		margin := 0.01 * (hi[i] - lo[i])
		if x[i] < lo[i]+margin || x[i] > hi[i]-margin {
			res.BoundaryHit = true
		}
	}

	value, assim, evalErr := obj.Evaluate(res.Point)
	if evalErr != nil {
		res.Converged = false
		return res, fmt.Errorf("leafopt: best point unsolved: %w", evalErr)
	}
	res.Value = value
	res.Assim = assim
	return res, nil
}

func pointVec(p TrialPoint, n int) []float64 {
	if n == 3 {
		return []float64{p.Vcmax, p.Gs, p.Jmax}
	}
	return []float64{p.Vcmax, p.Gs}
}

func vecPoint(x []float64, n int) TrialPoint {
	p := TrialPoint{Vcmax: x[0], Gs: x[1]}
	if n == 3 {
		p.Jmax = x[2]
	}
	return p
}
