package leafopt

import (
	"context"
	"errors"
	"math"
	"testing"
)

// TestSolve_LightLimited runs one record through the default pipeline.
func TestSolve_LightLimited(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	out, err := Solve(Input{
		Env:        TypicalEnvironment(),
		Costs:      costs,
		Limitation: LimitLight,
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if out.Chi <= 0 || out.Chi >= 1 {
		t.Errorf("chi = %.4f outside (0, 1)", out.Chi)
	}
	if out.Vcmax <= 0 || out.Gs <= 0 {
		t.Errorf("non-positive capacities: Vcmax = %g, gs = %g", out.Vcmax, out.Gs)
	}
	if out.Jmax != 0 {
		t.Errorf("Jmax = %g on a two-variable run, want 0", out.Jmax)
	}
	if out.Assimilation <= 0 {
		t.Errorf("assimilation = %g, expected positive", out.Assimilation)
	}
	t.Logf("Vcmax = %.4g, gs = %.4g, chi = %.3f, A = %.4g, net = %.4g (converged %v, %d iterations)",
		out.Vcmax, out.Gs, out.Chi, out.Assimilation, out.NetValue, out.Converged, out.Iterations)
}

// TestSolve_JmaxLimited: the three-variable mode must return a positive cap.
func TestSolve_JmaxLimited(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	out, err := Solve(Input{
		Env:        TypicalEnvironment(),
		Costs:      costs,
		Limitation: LimitLightJmax,
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if out.Jmax <= 0 {
		t.Errorf("Jmax = %g, expected a positive capacity in three-variable mode", out.Jmax)
	}
	if out.Chi <= 0 || out.Chi >= 1 {
		t.Errorf("chi = %.4f outside (0, 1)", out.Chi)
	}
}

// TestRunBatch_LightSweep sweeps absorbed light across a batch. The whole
// problem scales linearly with light, so chi stays put while the optimal
// capacities grow; rising Vcmax in input order also confirms outputs come
// back in order.
func TestRunBatch_LightSweep(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	levels := []float64{200, 400, 800, 1600, 3200}
	inputs := make([]Input, len(levels))
	for i, iabs := range levels {
		env := TypicalEnvironment()
		env.Iabs = iabs
		inputs[i] = Input{Env: env, Costs: costs, Limitation: LimitLight}
	}

	outputs, err := RunBatch(context.Background(), inputs, 3)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if len(outputs) != len(inputs) {
		t.Fatalf("got %d outputs for %d inputs", len(outputs), len(inputs))
	}

	chiMin, chiMax := math.Inf(1), math.Inf(-1)
	for i, out := range outputs {
		chiMin = math.Min(chiMin, out.Chi)
		chiMax = math.Max(chiMax, out.Chi)
		if i > 0 && out.Vcmax <= outputs[i-1].Vcmax {
			t.Errorf("Vcmax = %.4g at I = %g did not grow (previous %.4g)", out.Vcmax, levels[i], outputs[i-1].Vcmax)
		}
		t.Logf("I = %5.0f → Vcmax = %7.3f, gs = %.4f, chi = %.4f", levels[i], out.Vcmax, out.Gs, out.Chi)
	}
	if spread := chiMax - chiMin; spread > 0.01 {
		t.Errorf("chi spread %.4f across the light sweep, expected invariance", spread)
	}
}

// TestRunBatch_PropagatesRecordErrors: one malformed record fails the batch
// with its index attached.
func TestRunBatch_PropagatesRecordErrors(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	bad := TypicalEnvironment()
	bad.Ca = -1
	inputs := []Input{
		{Env: TypicalEnvironment(), Costs: costs, Limitation: LimitLight},
		{Env: bad, Costs: costs, Limitation: LimitLight},
	}
	_, err := RunBatch(context.Background(), inputs, 2)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput from the bad record, got: %v", err)
	}
	t.Logf("✓ batch failed with: %v", err)
}

// TestRunBatch_HonorsCancellation: a cancelled context stops the batch.
func TestRunBatch_HonorsCancellation(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	inputs := make([]Input, 16)
	for i := range inputs {
		inputs[i] = Input{Env: TypicalEnvironment(), Costs: costs, Limitation: LimitLight}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunBatch(ctx, inputs, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

// TestSolve_RejectsUnknownLimitation guards the mode switch.
func TestSolve_RejectsUnknownLimitation(t *testing.T) {
	costs := DefaultCostParams()
	costs.CostScalar = 2e-4

	_, err := Solve(Input{Env: TypicalEnvironment(), Costs: costs, Limitation: Limitation(99)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}
