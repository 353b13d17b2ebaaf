package leafopt

import (
	"fmt"
	"math"
)

// RateAgreementTolerance is the relative disagreement between the two demand
// laws, evaluated at the selected ci, beyond which an Assimilation is flagged
// RatesDiverged. The ci = max(ci_c, ci_j) pairing is a documented heuristic,
// not a derived optimum; the flag marks points where it carries real weight.
const RateAgreementTolerance = 0.25

// Assimilation is the arbitrated outcome at one trial point: the selected
// internal CO2 pressure, the rate under each demand law, and the binding
// (lesser) rate.
type Assimilation struct {
	Ci       float64 // selected leaf-internal CO2 pressure (Pa)
	ARubisco float64 // rate under the carboxylation-limited law at its own ci
	ALight   float64 // rate under the light-limited law at its own ci
	Rate     float64 // binding assimilation, min(ARubisco, ALight)
	Chi      float64 // Ci / ca

	// RatesDiverged marks points where the two demand laws disagree by more
	// than RateAgreementTolerance at the selected ci, flagging the
	// co-limitation heuristic for review.
	RatesDiverged bool
}

// Arbitrate solves ci under both demand laws and selects the binding state:
// the lesser rate paired with the larger internal pressure. The pairing
// approximates the co-limitation point; the less restrictive process permits
// the higher ci. jmaxActive controls whether the light law is capped by the
// trial point's Jmax.
//
// An unsolved quadratic under either law propagates as ErrNoRoot.
func Arbitrate(p TrialPoint, env Environment, jmaxActive bool) (Assimilation, error) {
	if err := p.Validate(jmaxActive); err != nil {
		return Assimilation{}, err
	}

	pLight := p
	if !jmaxActive {
		pLight.Jmax = 0
	}

	ciC, err := SolveCi(LawRubisco, p, env)
	if err != nil {
		return Assimilation{}, fmt.Errorf("rubisco law: %w", err)
	}
	ciJ, err := SolveCi(LawLight, pLight, env)
	if err != nil {
		return Assimilation{}, fmt.Errorf("light law: %w", err)
	}

	aC := RubiscoRate(ciC, p, env)
	aJ := LightRate(ciJ, pLight, env)

	ci := math.Max(ciC, ciJ)
	res := Assimilation{
		Ci:       ci,
		ARubisco: aC,
		ALight:   aJ,
		Rate:     math.Min(aC, aJ),
		Chi:      ci / env.Ca,
	}
	if res.Chi <= 0 || res.Chi >= 1 {
		return Assimilation{}, fmt.Errorf("%w: selected ci = %g outside (0, ca)", ErrNoRoot, ci)
	}

	// Disagreement of the two laws at the selected ci, not at their own
	// roots: that is where the heuristic pairing actually operates.
	atCiC := RubiscoRate(ci, p, env)
	atCiJ := LightRate(ci, pLight, env)
	if ref := math.Max(math.Abs(atCiC), math.Abs(atCiJ)); ref > 0 {
		res.RatesDiverged = math.Abs(atCiC-atCiJ)/ref > RateAgreementTolerance
	}

	return res, nil
}
