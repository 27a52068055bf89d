package astro

import (
	"fmt"
	"math"

	"github.com/sethhirsh/astro/rootfind"
)

// CRTBP is the circular restricted three body problem for a pair of
// primaries, in the usual rotating non-dimensional frame: the separation of
// the pair is 1, the primary sits at (-μ, 0, 0) and the secondary at
// (1-μ, 0, 0), with μ the mass ratio of the secondary.
type CRTBP struct {
	Primary, Secondary CelestialObject
	μStar              float64
}

// NewCRTBP returns the restricted three body problem of the provided pair.
func NewCRTBP(primary, secondary CelestialObject) CRTBP {
	if secondary.μ > primary.μ {
		panic("crtbp: secondary may not be more massive than the primary")
	}
	return CRTBP{primary, secondary, secondary.μ / (primary.μ + secondary.μ)}
}

// MassRatio returns the mass ratio μ of this system.
func (sys CRTBP) MassRatio() float64 {
	return sys.μStar
}

// String implements the Stringer interface.
func (sys CRTBP) String() string {
	return fmt.Sprintf("CRTBP %s-%s (μ=%.8f)", sys.Primary.Name, sys.Secondary.Name, sys.μStar)
}

// LagrangePoint returns the position of the n-th libration point in the
// rotating frame, non-dimensional. The collinear points L1 to L3 are found
// by Newton iteration on the acceleration balance along the syzygy axis; L4
// and L5 are analytic.
func (sys CRTBP) LagrangePoint(n int) ([]float64, error) {
	μ := sys.μStar
	switch n {
	case 1, 2, 3:
		// Hill radius style seeds for L1/L2, and just past the primary's
		// antipode for L3.
		γ := math.Cbrt(μ / 3)
		var x0 float64
		switch n {
		case 1:
			x0 = 1 - μ - γ
		case 2:
			x0 = 1 - μ + γ
		case 3:
			x0 = -1
		}
		x, err := rootfind.NewtonRaphson(sys.collinearBalance, sys.collinearBalanceSlope, x0, 1e-12, rootfind.DefaultMaxIterations)
		if err != nil {
			return nil, fmt.Errorf("locating L%d of %s: %w", n, sys, err)
		}
		return []float64{x, 0, 0}, nil
	case 4:
		return []float64{0.5 - μ, math.Sqrt(3) / 2, 0}, nil
	case 5:
		return []float64{0.5 - μ, -math.Sqrt(3) / 2, 0}, nil
	default:
		return nil, fmt.Errorf("no libration point L%d", n)
	}
}

// LagrangePointKm returns the position of the n-th libration point in km,
// scaled by the mean separation of the pair (the semi-major axis of the
// secondary).
func (sys CRTBP) LagrangePointKm(n int) ([]float64, error) {
	pos, err := sys.LagrangePoint(n)
	if err != nil {
		return nil, err
	}
	for j := range pos {
		pos[j] *= sys.Secondary.a
	}
	return pos, nil
}

// collinearBalance is the net acceleration along the syzygy axis in the
// rotating frame. Its three roots are the collinear libration points.
func (sys CRTBP) collinearBalance(x float64) float64 {
	μ := sys.μStar
	d1 := x + μ
	d2 := x - 1 + μ
	return x - (1-μ)*d1/math.Pow(math.Abs(d1), 3) - μ*d2/math.Pow(math.Abs(d2), 3)
}

func (sys CRTBP) collinearBalanceSlope(x float64) float64 {
	μ := sys.μStar
	d1 := math.Abs(x + μ)
	d2 := math.Abs(x - 1 + μ)
	return 1 + 2*(1-μ)/math.Pow(d1, 3) + 2*μ/math.Pow(d2, 3)
}
