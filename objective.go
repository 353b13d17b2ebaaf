package leafopt

import (
	"fmt"
	"math"
)

// unsolvedPenalty is what the minimizer sees when ci cannot be solved at a
// trial point: large against any physical objective value, but finite, so
// line searches back off instead of dying on an infinity. It is never
// confused with a real evaluation; Evaluate reports the underlying error.
const unsolvedPenalty = 1e8

// ObjectiveKind tags one formulation of the carbon/water trade-off. The four
// formulations are intended to locate the same optimum under the
// coordination hypothesis, but they are implemented and tested as
// independent variants rather than assumed equivalent by construction.
type ObjectiveKind int

const (
	// RatioCost minimizes (1.6 ns* gs D + β Vcmax) / A using only the
	// Rubisco-limited ci. No absolute cost scale needed.
	RatioCost ObjectiveKind = iota

	// NetBenefit maximizes A - c (1.6 ns* gs D + β Vcmax), still on the
	// Rubisco-limited ci alone. Requires CostScalar.
	NetBenefit

	// NetBenefitLight is NetBenefit with the binding rate from the
	// light/Rubisco arbitration replacing the Rubisco-only rate.
	NetBenefitLight

	// NetBenefitJmax adds the electron-transport cap and its maintenance
	// cost c γ Jmax; three decision variables. Requires CostScalar and
	// GammaCost.
	NetBenefitJmax
)

func (k ObjectiveKind) String() string {
	switch k {
	case RatioCost:
		return "ratio-cost"
	case NetBenefit:
		return "net-benefit"
	case NetBenefitLight:
		return "net-benefit-light"
	case NetBenefitJmax:
		return "net-benefit-jmax"
	}
	return fmt.Sprintf("ObjectiveKind(%d)", int(k))
}

// Objective is one scalar criterion over trial points, bound to an immutable
// Environment and CostParams snapshot. Maximize records the formulation's
// natural orientation; Eval presents every formulation to the minimizer as a
// minimization.
type Objective struct {
	Kind     ObjectiveKind
	Env      Environment
	Costs    CostParams
	Maximize bool
}

// NewObjective validates the context and binds a formulation to it.
func NewObjective(kind ObjectiveKind, env Environment, costs CostParams) (*Objective, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	switch kind {
	case RatioCost:
	case NetBenefit, NetBenefitLight:
		if costs.CostScalar <= 0 {
			return nil, fmt.Errorf("%w: %v requires a positive cost_scalar", ErrInvalidInput, kind)
		}
	case NetBenefitJmax:
		if costs.CostScalar <= 0 {
			return nil, fmt.Errorf("%w: %v requires a positive cost_scalar", ErrInvalidInput, kind)
		}
		if costs.GammaCost <= 0 {
			return nil, fmt.Errorf("%w: %v requires a positive gamma_cost", ErrInvalidInput, kind)
		}
	default:
		return nil, fmt.Errorf("%w: unknown objective kind %d", ErrInvalidInput, int(kind))
	}
	return &Objective{
		Kind:     kind,
		Env:      env,
		Costs:    costs,
		Maximize: kind != RatioCost,
	}, nil
}

// Vars is the number of decision variables: 3 for the Jmax-limited
// formulation, 2 otherwise.
func (o *Objective) Vars() int {
	if o.Kind == NetBenefitJmax {
		return 3
	}
	return 2
}

// Evaluate computes the criterion in its natural orientation together with
// the assimilation state at the point. An unsolved ci comes back as
// ErrNoRoot, never as a numeric stand-in.
func (o *Objective) Evaluate(p TrialPoint) (float64, Assimilation, error) {
	env, costs := o.Env, o.Costs
	waterCost := 1.6 * env.NsStar * p.Gs * env.VPD

	switch o.Kind {
	case RatioCost, NetBenefit:
		if err := p.Validate(false); err != nil {
			return 0, Assimilation{}, err
		}
		ci, err := SolveCi(LawRubisco, p, env)
		if err != nil {
			return 0, Assimilation{}, err
		}
		aC := RubiscoRate(ci, p, env)
		assim := Assimilation{
			Ci:       ci,
			ARubisco: aC,
			ALight:   LightRate(ci, TrialPoint{Vcmax: p.Vcmax, Gs: p.Gs}, env),
			Rate:     aC,
			Chi:      ci / env.Ca,
		}
		if o.Kind == RatioCost {
			if aC <= 0 {
				return 0, Assimilation{}, fmt.Errorf("%w: non-positive assimilation %g at ci = %g", ErrNoRoot, aC, ci)
			}
			return (waterCost + costs.Beta*p.Vcmax) / aC, assim, nil
		}
		return aC - costs.CostScalar*(waterCost+costs.Beta*p.Vcmax), assim, nil

	case NetBenefitLight, NetBenefitJmax:
		jmaxActive := o.Kind == NetBenefitJmax
		assim, err := Arbitrate(p, env, jmaxActive)
		if err != nil {
			return 0, Assimilation{}, err
		}
		v := assim.Rate - costs.CostScalar*(waterCost+costs.Beta*p.Vcmax)
		if jmaxActive {
			v -= costs.CostScalar * costs.GammaCost * p.Jmax
		}
		return v, assim, nil
	}
	return 0, Assimilation{}, fmt.Errorf("%w: unknown objective kind %d", ErrInvalidInput, int(o.Kind))
}

// Eval is the minimizer's view: sign-corrected for naturally maximized
// formulations, and with unsolved points mapped to a large finite penalty so
// the search keeps making progress.
func (o *Objective) Eval(p TrialPoint) float64 {
	v, _, err := o.Evaluate(p)
	if err != nil {
		return unsolvedPenalty
	}
	if math.IsNaN(v) {
		return unsolvedPenalty
	}
	if o.Maximize {
		return -v
	}
	return v
}
