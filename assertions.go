package leafopt

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// AssertionConfig contains tolerances for the model's physical invariants.
type AssertionConfig struct {
	// RateTol is the absolute-or-relative tolerance on assimilation rates.
	RateTol float64

	// ChiTol is the absolute tolerance on chi comparisons.
	ChiTol float64
}

// DefaultAssertionConfig returns the tolerances used by the package's own
// tests: rates to near machine precision (the quadratic is exact algebra),
// chi to the looser band the iterative path warrants.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		RateTol: 1e-9,
		ChiTol:  1e-2,
	}
}

// AssertSupplyDemandConsistent verifies the round-trip property at a trial
// point: for each law, the demand rate at the solved ci equals the supply
// rate gs (ca - ci).
//
// Mathematical property:
//
//	A_demand(ci) == gs (ca - ci) for the ci returned by SolveCi
func AssertSupplyDemandConsistent(t *testing.T, p TrialPoint, env Environment, jmaxActive bool, cfg AssertionConfig) {
	t.Helper()

	pLight := p
	if !jmaxActive {
		pLight.Jmax = 0
	}

	for _, lc := range []struct {
		law  Law
		pt   TrialPoint
		rate func(float64, TrialPoint, Environment) float64
	}{
		{LawRubisco, p, RubiscoRate},
		{LawLight, pLight, LightRate},
	} {
		ci, err := SolveCi(lc.law, lc.pt, env)
		if err != nil {
			t.Fatalf("SolveCi(%v) failed: %v", lc.law, err)
		}
		demand := lc.rate(ci, lc.pt, env)
		supply := lc.pt.Gs * (env.Ca - ci)
		if !scalar.EqualWithinAbsOrRel(demand, supply, cfg.RateTol, cfg.RateTol) {
			t.Errorf("%v law: demand %.12g != supply %.12g at ci = %.6g", lc.law, demand, supply, ci)
		}
		t.Logf("✓ %v law consistent: ci = %.4g, A = %.6g", lc.law, ci, demand)
	}
}

// AssertCoordination verifies that the Vcmax from CoordinationVcmax equates
// the two demand laws at ci = chi * ca.
//
// Mathematical property:
//
//	A_rubisco(ci) == A_light(ci) when Vcmax = φ I (ci + K) / (ci + 2 Γ*)
func AssertCoordination(t *testing.T, chi float64, env Environment, cfg AssertionConfig) {
	t.Helper()

	p := TrialPoint{Vcmax: CoordinationVcmax(chi, env), Gs: 1}
	ci := chi * env.Ca
	aC := RubiscoRate(ci, p, env)
	aJ := LightRate(ci, p, env)
	if !scalar.EqualWithinAbsOrRel(aC, aJ, cfg.RateTol, cfg.RateTol) {
		t.Errorf("demand laws uncoordinated at chi = %.3f: A_c = %.9g, A_j = %.9g", chi, aC, aJ)
	}
	t.Logf("✓ coordination at chi = %.3f: A_c = A_j = %.6g (Vcmax = %.4g)", chi, aC, p.Vcmax)
}

// AssertMatchesAnalyticalChi verifies that an optimization result landed on
// the closed-form chi for its environment.
func AssertMatchesAnalyticalChi(t *testing.T, res OptimizeResult, env Environment, beta float64, cfg AssertionConfig) {
	t.Helper()

	want, err := AnalyticalChi(env.GammaStar, env.Ca, env.Kmm, env.VPD, beta)
	if err != nil {
		t.Fatalf("AnalyticalChi failed: %v", err)
	}
	gap := res.Assim.Chi - want
	if gap < -cfg.ChiTol || gap > cfg.ChiTol {
		t.Errorf("chi = %.5f, closed form %.5f (gap %.2g, tolerance %.2g)", res.Assim.Chi, want, gap, cfg.ChiTol)
	}
	t.Logf("✓ chi matches closed form: %.5f vs %.5f (gap %.2g, %d iterations)",
		res.Assim.Chi, want, gap, res.Iterations)
}

// AssertUnsolved verifies that an error is the explicit unsolved condition,
// not a default ci smuggled through.
func AssertUnsolved(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected an unsolved (no admissible root) error, got nil")
	}
	if !errors.Is(err, ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got: %v", err)
	}
	t.Logf("✓ unsolved reported explicitly: %v", err)
}
