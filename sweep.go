package leafopt

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Limitation selects which assimilation ceilings constrain a Solve run.
type Limitation int

const (
	// LimitNone optimizes against the Rubisco-limited law alone.
	LimitNone Limitation = iota

	// LimitLight arbitrates the Rubisco- and light-limited laws.
	LimitLight

	// LimitLightJmax additionally caps the light law by Jmax and charges its
	// maintenance; adds Jmax as a third decision variable.
	LimitLightJmax
)

// Input is one self-contained optimization request. Records are pairwise
// independent; a batch of them carries no cross-record state.
type Input struct {
	Env        Environment
	Costs      CostParams
	Limitation Limitation

	// Start seeds the optimizer. Zero value derives a coordination start
	// from Env.
	Start TrialPoint

	// MaxIterations overrides the default iteration budget when positive.
	MaxIterations int
}

// Output is the optimum found for one Input.
type Output struct {
	Vcmax        float64
	Gs           float64
	Jmax         float64 // 0 unless Limitation == LimitLightJmax
	Ci           float64
	Chi          float64
	Assimilation float64
	NetValue     float64

	Converged   bool
	BoundaryHit bool
	Iterations  int
}

// Solve optimizes a single input record. All three Limitation modes drive a
// net-benefit formulation and therefore need Costs.CostScalar; the
// ratio-cost formulation is available through NewObjective and Minimize
// directly.
func Solve(in Input) (Output, error) {
	var kind ObjectiveKind
	switch in.Limitation {
	case LimitNone:
		kind = NetBenefit
	case LimitLight:
		kind = NetBenefitLight
	case LimitLightJmax:
		kind = NetBenefitJmax
	default:
		return Output{}, fmt.Errorf("%w: unknown limitation %d", ErrInvalidInput, int(in.Limitation))
	}

	obj, err := NewObjective(kind, in.Env, in.Costs)
	if err != nil {
		return Output{}, err
	}

	start := in.Start
	if start == (TrialPoint{}) {
		start = defaultStart(in.Env, kind == NetBenefitJmax)
	}
	cfg := DefaultOptimizerConfig()
	if in.MaxIterations > 0 {
		cfg.MaxIterations = in.MaxIterations
	}

	res, err := Minimize(obj, start, DefaultBounds(start), cfg)
	if err != nil {
		return Output{}, err
	}

	out := Output{
		Vcmax:        res.Point.Vcmax,
		Gs:           res.Point.Gs,
		Ci:           res.Assim.Ci,
		Chi:          res.Assim.Chi,
		Assimilation: res.Assim.Rate,
		NetValue:     res.Value,
		Converged:    res.Converged,
		BoundaryHit:  res.BoundaryHit,
		Iterations:   res.Iterations,
	}
	if in.Limitation == LimitLightJmax {
		out.Jmax = res.Point.Jmax
	}
	return out, nil
}

// RunBatch evaluates an ordered sequence of independent input records and
// returns outputs in the same order. Work is fanned out across at most
// workers goroutines (NumCPU when workers <= 0); the first hard error
// cancels the remaining records.
func RunBatch(ctx context.Context, inputs []Input, workers int) ([]Output, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	outputs := make([]Output, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := Solve(in)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// defaultStart seeds the optimizer at a coordinated state: chi = 0.7, Vcmax
// equating the two demand laws there, gs matching the implied supply, and
// (when active) Jmax at four times the light-capture term.
func defaultStart(env Environment, jmaxActive bool) TrialPoint {
	const chi0 = 0.7
	p := TrialPoint{Vcmax: CoordinationVcmax(chi0, env)}
	if p.Vcmax <= 0 {
		p.Vcmax = 25
	}
	ci0 := chi0 * env.Ca
	if a0 := RubiscoRate(ci0, p, env); a0 > 0 && env.Ca > ci0 {
		p.Gs = a0 / (env.Ca - ci0)
	} else {
		p.Gs = 0.5
	}
	if jmaxActive {
		p.Jmax = 4 * env.Kphio * env.Iabs
		if p.Jmax <= 0 {
			p.Jmax = 40
		}
	}
	return p
}
