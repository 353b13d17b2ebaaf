// Package leafopt computes the optimal partitioning of a leaf's carbon-uptake
// and water-loss machinery.
//
// # Overview
//
// A leaf trades water for carbon. Opening stomata raises the internal CO2
// pressure ci and with it assimilation, but costs transpiration; building
// Rubisco raises the carboxylation ceiling Vcmax but costs enzyme
// maintenance. leafopt finds the ci:ca ratio (chi), carboxylation capacity
// (Vcmax), stomatal conductance (gs) and optionally electron-transport
// capacity (Jmax) that minimize total cost per unit assimilation:
//
//	minimize (1.6 ns* gs D + β Vcmax) / A
//
// or, equivalently in the net-benefit formulations,
//
//	maximize A - c (1.6 ns* gs D + β Vcmax [+ γ Jmax])
//
// where D is the vapor pressure deficit, ns* the viscosity correction, β and
// γ unit cost ratios, and c an absolute cost scale.
//
// # Architecture
//
// The package components:
//
//   - quadratic.go  - ci from the supply/demand equation system (per law)
//   - arbiter.go    - binding rate between Rubisco- and light-limited laws
//   - analytical.go - closed-form chi, the reference oracle
//   - objective.go  - the four trade-off formulations
//   - optimizer.go  - box-bounded minimization of any formulation
//   - calibrate.go  - root search for the absolute cost scale
//   - sweep.go      - ordered, parallel batch evaluation
//   - assertions.go - test helpers for the model's physical invariants
//
// # Quick Start
//
// Optimize a single environment under the light-limited formulation:
//
//	env := leafopt.TypicalEnvironment()
//	costs := leafopt.DefaultCostParams()
//	costs.CostScalar = 0.001
//
//	out, err := leafopt.Solve(leafopt.Input{
//	    Env:        env,
//	    Costs:      costs,
//	    Limitation: leafopt.LimitLight,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("chi = %.3f, Vcmax = %.1f, gs = %.3f\n", out.Chi, out.Vcmax, out.Gs)
//
// # The Supply/Demand System
//
// Assimilation must simultaneously satisfy a biochemical demand law and the
// diffusive supply law A = gs (ca - ci). Eliminating A yields a quadratic in
// ci for each demand law:
//
//	Rubisco-limited:  A = Vcmax (ci - Γ*) / (ci + K)
//	Light-limited:    A = φ I (ci - Γ*) / (ci + 2 Γ*)
//
// Jmax caps the light-limited law through the Smith (1937) attenuation
// L = 1/sqrt(1 + (4 φ I / Jmax)²). SolveCi picks the unique admissible root
// (real, positive, below ca) or reports that none exists; it never invents a
// default ci.
//
// # The Closed Form
//
// Under the Rubisco-limited least-cost criterion alone, the optimal chi has a
// closed form:
//
//	ξ   = sqrt(β (K + Γ*) / 1.6)
//	chi = Γ*/ca + (1 - Γ*/ca) ξ / (ξ + sqrt(D))
//
// AnalyticalChi implements it. It is the oracle the numerical path is tested
// against: the optimizer driving the ratio-cost objective must land on the
// same chi.
//
// # Calibration
//
// The light-limited and Jmax-limited net-benefit formulations need an
// absolute cost scale that has no closed form. CalibrateCostScalar searches a
// caller-supplied bracket for the scale whose optimized chi reproduces a
// target (typically the closed form), using a Brent root search over the
// signed residual. No sign change in the bracket is an explicit failure,
// never a guessed scale.
//
// # Batch Evaluation
//
// Evaluations over independent environments are embarrassingly parallel.
// RunBatch preserves input order and fans work out across workers:
//
//	inputs := make([]leafopt.Input, 0, len(lightLevels))
//	for _, iabs := range lightLevels {
//	    env.Iabs = iabs
//	    inputs = append(inputs, leafopt.Input{Env: env, Costs: costs, Limitation: leafopt.LimitLight})
//	}
//	outputs, err := leafopt.RunBatch(ctx, inputs, runtime.NumCPU())
//
// # Testing
//
// Use assertions to validate the physical invariants of your own scenarios:
//
//	func TestMyScenario(t *testing.T) {
//	    cfg := leafopt.DefaultAssertionConfig()
//	    leafopt.AssertSupplyDemandConsistent(t, point, env, false, cfg)
//	    leafopt.AssertCoordination(t, 0.7, env, cfg)
//	}
package leafopt
