package leafopt

import (
	"errors"
	"math"
	"testing"
)

// calibrationStart seeds the inner optimizer at a coordinated state below the
// calibration target, so the heavy-cost end of the bracket (which collapses
// toward the start ray) sits on the opposite side of the target from the
// cheap end.
func calibrationStart(env Environment) TrialPoint {
	const chi0 = 0.55
	ci0 := chi0 * env.Ca
	p := TrialPoint{Vcmax: CoordinationVcmax(chi0, env)}
	p.Gs = RubiscoRate(ci0, p, env) / (env.Ca - ci0)
	return p
}

// TestCalibrateCostScalar_HitsAnalyticalTarget runs the full loop: take the
// closed-form chi as the target, search the cost scale, then verify that
// re-optimizing with the found scale actually reproduces the target.
func TestCalibrateCostScalar_HitsAnalyticalTarget(t *testing.T) {
	env := TypicalEnvironment()
	costs := DefaultCostParams()

	target, err := AnalyticalChi(env.GammaStar, env.Ca, env.Kmm, env.VPD, costs.Beta)
	if err != nil {
		t.Fatalf("AnalyticalChi failed: %v", err)
	}

	cfg := DefaultCalibrationConfig()
	cfg.Start = calibrationStart(env)

	lo, hi := 1e-5, 0.05
	scale, err := CalibrateCostScalar(target, env, costs, lo, hi, cfg)
	if err != nil {
		t.Fatalf("CalibrateCostScalar failed: %v", err)
	}
	if scale < lo || scale > hi {
		t.Fatalf("scale = %g escaped the bracket [%g, %g]", scale, lo, hi)
	}

	// Round trip: the calibrated scale must reproduce the target chi.
	calibrated := costs
	calibrated.CostScalar = scale
	obj, err := NewObjective(cfg.Kind, env, calibrated)
	if err != nil {
		t.Fatalf("NewObjective failed: %v", err)
	}
	res, err := Minimize(obj, cfg.Start, DefaultBounds(cfg.Start), cfg.Optimizer)
	if err != nil {
		t.Fatalf("Minimize at calibrated scale failed: %v", err)
	}
	if gap := math.Abs(res.Assim.Chi - target); gap > 2*cfg.Tolerance {
		t.Errorf("chi = %.5f at calibrated scale, target %.5f (gap %.2g)", res.Assim.Chi, target, gap)
	}
	t.Logf("✓ scale = %.6g reproduces chi = %.5f (target %.5f)", scale, res.Assim.Chi, target)
}

// TestCalibrateCostScalar_NoSignChange: a bracket whose residual never
// crosses zero must fail loudly, not return an endpoint.
func TestCalibrateCostScalar_NoSignChange(t *testing.T) {
	env := TypicalEnvironment()
	costs := DefaultCostParams()

	cfg := DefaultCalibrationConfig()
	cfg.Start = calibrationStart(env)

	// Both endpoints are in the heavy-cost regime, where the optimum collapses
	// toward the start ray; chi sits far below the 0.95 target at both.
	_, err := CalibrateCostScalar(0.95, env, costs, 0.05, 0.1, cfg)
	if !errors.Is(err, ErrCalibration) {
		t.Fatalf("expected ErrCalibration, got: %v", err)
	}
	t.Logf("✓ rejected: %v", err)
}

// TestCalibrateCostScalar_Validation covers the fail-fast contract on the
// search parameters.
func TestCalibrateCostScalar_Validation(t *testing.T) {
	env := TypicalEnvironment()
	costs := DefaultCostParams()

	cases := []struct {
		name   string
		target float64
		lo, hi float64
		kind   ObjectiveKind
	}{
		{"ratio-cost has no scale", 0.7, 1e-5, 0.05, RatioCost},
		{"target above one", 1.2, 1e-5, 0.05, NetBenefitLight},
		{"target zero", 0, 1e-5, 0.05, NetBenefitLight},
		{"zero lower bound", 0.7, 0, 0.05, NetBenefitLight},
		{"inverted bracket", 0.7, 0.05, 1e-5, NetBenefitLight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCalibrationConfig()
			cfg.Kind = tc.kind
			_, err := CalibrateCostScalar(tc.target, env, costs, tc.lo, tc.hi, cfg)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got: %v", err)
			}
		})
	}
}
