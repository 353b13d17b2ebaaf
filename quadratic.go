package leafopt

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoRoot reports that the supply/demand system has no admissible ci root:
// no real, positive root below ca survives the selection policy. Callers
// must propagate it as "unsolved"; nothing in this package substitutes a
// default ci for it.
var ErrNoRoot = errors.New("leafopt: no admissible ci root")

// Law selects which demand law is paired with the supply law
// A = gs (ca - ci) when solving for ci.
type Law int

const (
	// LawRubisco is the carboxylation-limited demand law
	// A = Vcmax (ci - Γ*) / (ci + K).
	LawRubisco Law = iota

	// LawLight is the electron-transport demand law
	// A = φ I (ci - Γ*) / (ci + 2 Γ*), attenuated by the Smith factor when
	// the trial point carries a Jmax.
	LawLight
)

func (l Law) String() string {
	switch l {
	case LawRubisco:
		return "rubisco"
	case LawLight:
		return "light"
	}
	return fmt.Sprintf("Law(%d)", int(l))
}

// jmaxAttenuation is the Smith (1937) factor capping the light-limited rate:
// L = 1/sqrt(1 + (4 φ I / Jmax)²).
func jmaxAttenuation(phiI, jmax float64) float64 {
	r := 4 * phiI / jmax
	return 1 / math.Sqrt(1+r*r)
}

// effectivePhiI is the light-capture term of the demand law, φ I, scaled by
// the Smith attenuation when jmax > 0. Folding the attenuation into φ I
// keeps the rate recomputed at the solved ci consistent with the supply law;
// it scales the quadratic identically to scaling its gs-coefficients.
func effectivePhiI(p TrialPoint, env Environment) float64 {
	phiI := env.Kphio * env.Iabs
	if p.Jmax > 0 {
		phiI *= jmaxAttenuation(phiI, p.Jmax)
	}
	return phiI
}

// SolveCi solves the simultaneous system {demand law, A = gs (ca - ci)} for
// the leaf-internal CO2 pressure under the given law.
//
// Root selection: both quadratic roots are computed; complex pairs
// contribute only their shared real component; non-positive roots are
// discarded; if more than one positive root survives, the one below ca is
// kept (and of two such, the larger). Zero survivors is ErrNoRoot. A
// degenerate quadratic (gs = 0 collapses the leading coefficient) is also
// ErrNoRoot: with no supply the system pins ci at the compensation point and
// carries no information.
func SolveCi(law Law, p TrialPoint, env Environment) (float64, error) {
	var a, b, c float64
	switch law {
	case LawRubisco:
		a = -p.Gs
		b = p.Gs*env.Ca - p.Gs*env.Kmm - p.Vcmax
		c = p.Gs*env.Ca*env.Kmm + p.Vcmax*env.GammaStar
	case LawLight:
		phiI := effectivePhiI(p, env)
		a = p.Gs
		b = phiI - p.Gs*env.Ca + 2*p.Gs*env.GammaStar
		c = -phiI*env.GammaStar - 2*p.Gs*env.Ca*env.GammaStar
	default:
		return 0, fmt.Errorf("%w: unknown law %v", ErrInvalidInput, law)
	}
	return admissibleRoot(a, b, c, env.Ca)
}

// admissibleRoot applies the root-selection policy to a ci² + b ci + c = 0.
func admissibleRoot(a, b, c, ca float64) (float64, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: degenerate quadratic (zero leading coefficient)", ErrNoRoot)
	}

	var roots []float64
	disc := b*b - 4*a*c
	if disc < 0 {
		// Complex pair: keep only the shared real component.
		roots = []float64{-b / (2 * a)}
	} else {
		sq := math.Sqrt(disc)
		roots = []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
	}

	admissible := roots[:0]
	for _, r := range roots {
		if r > 0 && !math.IsNaN(r) {
			admissible = append(admissible, r)
		}
	}
	if len(admissible) > 1 {
		below := admissible[:0]
		for _, r := range admissible {
			if r < ca {
				below = append(below, r)
			}
		}
		if len(below) > 0 {
			admissible = below
		}
	}

	switch len(admissible) {
	case 0:
		return 0, fmt.Errorf("%w: no positive real root", ErrNoRoot)
	case 1:
		return admissible[0], nil
	default:
		return math.Max(admissible[0], admissible[1]), nil
	}
}

// RubiscoRate evaluates the carboxylation-limited demand law at ci.
func RubiscoRate(ci float64, p TrialPoint, env Environment) float64 {
	return p.Vcmax * (ci - env.GammaStar) / (ci + env.Kmm)
}

// LightRate evaluates the light-limited demand law at ci, including the
// Smith attenuation when the trial point carries a Jmax.
func LightRate(ci float64, p TrialPoint, env Environment) float64 {
	return effectivePhiI(p, env) * (ci - env.GammaStar) / (ci + 2*env.GammaStar)
}
