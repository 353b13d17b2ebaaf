package leafopt

import (
	"fmt"
	"math"
)

// AnalyticalChi is the closed-form optimal ci:ca ratio under the
// Rubisco-limited least-cost criterion:
//
//	ξ   = sqrt(β (K + Γ*) / 1.6)
//	chi = Γ*/ca + (1 - Γ*/ca) ξ / (ξ + sqrt(D))
//
// It involves no iteration and serves as the reference oracle for the
// numerical path; production trade-off computations that need Vcmax or Jmax
// go through the optimizer instead.
func AnalyticalChi(gammastar, ca, kmm, vpd, beta float64) (float64, error) {
	switch {
	case ca <= 0 || math.IsNaN(ca):
		return 0, fmt.Errorf("%w: ca = %g, must be positive", ErrInvalidInput, ca)
	case vpd < 0 || math.IsNaN(vpd):
		return 0, fmt.Errorf("%w: vpd = %g, must be non-negative", ErrInvalidInput, vpd)
	case gammastar < 0 || gammastar >= ca:
		return 0, fmt.Errorf("%w: gammastar = %g outside [0, ca)", ErrInvalidInput, gammastar)
	case kmm <= 0:
		return 0, fmt.Errorf("%w: kmm = %g, must be positive", ErrInvalidInput, kmm)
	case beta <= 0:
		return 0, fmt.Errorf("%w: beta = %g, must be positive", ErrInvalidInput, beta)
	}

	xi := math.Sqrt(beta * (kmm + gammastar) / 1.6)
	g := gammastar / ca
	return g + (1-g)*xi/(xi+math.Sqrt(vpd)), nil
}
