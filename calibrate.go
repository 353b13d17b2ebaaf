package leafopt

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrCalibration reports that the cost-scale search failed: either the
// bracket shows no sign change, or the residual never entered the tolerance
// band. No fallback scalar is ever guessed.
var ErrCalibration = errors.New("leafopt: calibration failed")

// CalibrationConfig controls the outer cost-scale search.
type CalibrationConfig struct {
	// Kind is the net-benefit formulation being calibrated. Zero value
	// (RatioCost) is rejected: the ratio-cost formulation has no scale.
	Kind ObjectiveKind

	// Tolerance is the acceptance band on |chi - target|. The inner
	// optimizer's finite-difference noise propagates into the residual, so
	// an exact zero is not attainable; the band is deliberately generous.
	Tolerance float64

	// MaxIterations bounds the outer root search.
	MaxIterations int

	// Optimizer configures the inner minimization at each residual
	// evaluation.
	Optimizer OptimizerConfig

	// Start seeds the inner optimizer. Zero value derives a coordination
	// start from the environment.
	Start TrialPoint

	// Logger, when set, records each outer iteration at debug level.
	Logger *slog.Logger
}

// DefaultCalibrationConfig calibrates the light-limited formulation with a
// 5e-3 chi band.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		Kind:          NetBenefitLight,
		Tolerance:     5e-3,
		MaxIterations: 80,
		Optimizer:     DefaultOptimizerConfig(),
	}
}

// CalibrateCostScalar finds the absolute cost scale whose optimized chi
// reproduces targetChi, searching the bracket [lo, hi] with a Brent root
// search over the signed residual chi(scale) - targetChi. The residual must
// change sign across the bracket; otherwise the search fails rather than
// returning an arbitrary point.
func CalibrateCostScalar(targetChi float64, env Environment, costs CostParams, lo, hi float64, cfg CalibrationConfig) (float64, error) {
	if cfg.Kind == RatioCost {
		return 0, fmt.Errorf("%w: ratio-cost formulation has no cost scale", ErrInvalidInput)
	}
	if !(targetChi > 0 && targetChi < 1) {
		return 0, fmt.Errorf("%w: target chi = %g outside (0, 1)", ErrInvalidInput, targetChi)
	}
	if !(lo > 0 && hi > lo) {
		return 0, fmt.Errorf("%w: bracket [%g, %g] must satisfy 0 < lo < hi", ErrInvalidInput, lo, hi)
	}
	if err := env.Validate(); err != nil {
		return 0, err
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultCalibrationConfig().Tolerance
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultCalibrationConfig().MaxIterations
	}

	start := cfg.Start
	if start == (TrialPoint{}) {
		start = defaultStart(env, cfg.Kind == NetBenefitJmax)
	}

	iter := 0
	residual := func(scale float64) (float64, error) {
		c := costs
		c.CostScalar = scale
		obj, err := NewObjective(cfg.Kind, env, c)
		if err != nil {
			return 0, err
		}
		res, err := Minimize(obj, start, DefaultBounds(start), cfg.Optimizer)
		if err != nil {
			return 0, fmt.Errorf("inner optimization at scale %g: %w", scale, err)
		}
		iter++
		r := res.Assim.Chi - targetChi
		if cfg.Logger != nil {
			cfg.Logger.Debug("calibration step",
				"iter", iter, "scale", scale, "chi", res.Assim.Chi, "residual", r,
				"inner_converged", res.Converged, "rates_diverged", res.Assim.RatesDiverged)
		}
		return r, nil
	}

	fLo, err := residual(lo)
	if err != nil {
		return 0, err
	}
	if math.Abs(fLo) <= cfg.Tolerance {
		return lo, nil
	}
	fHi, err := residual(hi)
	if err != nil {
		return 0, err
	}
	if math.Abs(fHi) <= cfg.Tolerance {
		return hi, nil
	}
	if fLo*fHi > 0 {
		return 0, fmt.Errorf("%w: no sign change in bracket [%g, %g] (residuals %g, %g)",
			ErrCalibration, lo, hi, fLo, fHi)
	}

	scale, res, err := brentRoot(residual, lo, hi, fLo, fHi, cfg.Tolerance, cfg.MaxIterations)
	if err != nil {
		return 0, err
	}
	if math.Abs(res) > cfg.Tolerance {
		return 0, fmt.Errorf("%w: residual %g never entered tolerance %g", ErrCalibration, res, cfg.Tolerance)
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("calibration converged", "scale", scale, "residual", res, "evaluations", iter)
	}
	return scale, nil
}

// brentRoot is a Brent-Dekker search on [a, b] with f(a) and f(b) of
// opposite sign. It stops as soon as the residual magnitude is within ftol,
// and returns the final abscissa and residual otherwise.
func brentRoot(f func(float64) (float64, error), a, b, fa, fb, ftol float64, maxIter int) (float64, float64, error) {
	const eps = 2.22e-16
	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < maxIter; i++ {
		if fb*fc > 0 {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*eps*math.Abs(b) + 1e-12
		xm := 0.5 * (c - b)
		if math.Abs(fb) <= ftol || math.Abs(xm) <= tol1 {
			return b, fb, nil
		}

		var p, q float64
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			if a != c && fa != fc {
				// Inverse quadratic interpolation.
				r := fb / fc
				t := fa / fc
				p = s * (2*xm*r*(r-t) - (b-a)*(t-1))
				q = (r - 1) * (t - 1) * (s - 1)
			} else {
				// Secant step.
				p = 2 * xm * s
				q = 1 - s
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else if xm > 0 {
			b += tol1
		} else {
			b -= tol1
		}

		var err error
		fb, err = f(b)
		if err != nil {
			return 0, 0, err
		}
	}
	return b, fb, nil
}
