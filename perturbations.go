package astro

import (
	"math"
	"time"
)

// Perturbations defines how to handle perturbations during the propagation.
type Perturbations struct {
	Jn             uint8                   // Degree of the zonal harmonics to account for (up to 4)
	PerturbingBody *CelestialObject        // Third body pulling on the spacecraft
	Arbitrary      func(o Orbit) []float64 // Additional arbitrary perturbation, Cartesian
}

func (p Perturbations) isEmpty() bool {
	return p.Jn <= 1 && p.PerturbingBody == nil && p.Arbitrary == nil
}

// Perturb returns the perturbing acceleration on the Cartesian state vector
// for the given orbit and date.
func (p Perturbations) Perturb(o Orbit, dt time.Time) []float64 {
	pert := make([]float64, 6)
	if p.isEmpty() {
		return pert
	}
	if p.Jn > 1 && !o.Origin.Equals(Sun) {
		// Ignore any Jn about the Sun.
		R := o.R()
		x := R[0]
		y := R[1]
		z := R[2]
		z2 := z * z
		z3 := z2 * z
		r2 := x*x + y*y + z2
		r252 := math.Pow(r2, 5/2.)
		r272 := math.Pow(r2, 7/2.)
		accJ2 := (3 / 2.) * o.Origin.J(2) * math.Pow(o.Origin.Radius, 2) * o.Origin.μ
		pert[3] += accJ2 * (5*x*z2/r272 - x/r252)
		pert[4] += accJ2 * (5*y*z2/r272 - y/r252)
		pert[5] += accJ2 * (5*z3/r272 - 3*z/r252)
		if p.Jn >= 3 {
			r292 := math.Pow(r2, 9/2.)
			z4 := z3 * z
			accJ3 := o.Origin.J(3) * math.Pow(o.Origin.Radius, 3) * o.Origin.μ
			pert[3] += (5 / 2.) * accJ3 * (7*x*z3/r292 - 3*x*z/r272)
			pert[4] += (5 / 2.) * accJ3 * (7*y*z3/r292 - 3*y*z/r272)
			pert[5] += 0.5 * accJ3 * (35*z4/r292 - 30*z2/r272 + 3/r252)
			if p.Jn >= 4 {
				r2112 := math.Pow(r2, 11/2.)
				accJ4 := (15 / 8.) * o.Origin.J(4) * math.Pow(o.Origin.Radius, 4) * o.Origin.μ
				pert[3] += accJ4 * (x/r272 - 14*x*z2/r292 + 21*x*z4/r2112)
				pert[4] += accJ4 * (y/r272 - 14*y*z2/r292 + 21*y*z4/r2112)
				pert[5] += accJ4 * (5*z/r272 - (70/3.)*z3/r292 + 21*z4*z/r2112)
			}
		}
	}
	if p.PerturbingBody != nil && !p.PerturbingBody.Equals(o.Origin) {
		// The Sun needs no ephemeris lookup, it sits at the heliocentric origin.
		mainR := []float64{0, 0, 0}
		if !o.Origin.Equals(Sun) {
			mainR = o.Origin.HelioOrbit(dt).R()
		}
		pertR := []float64{0, 0, 0}
		if !p.PerturbingBody.Equals(Sun) {
			pertR = p.PerturbingBody.HelioOrbit(dt).R()
		}
		relPertR := make([]float64, 3) // origin body to perturbing body
		scPertR := make([]float64, 3)  // spacecraft to perturbing body
		scR := o.R()
		for i := 0; i < 3; i++ {
			relPertR[i] = pertR[i] - mainR[i]
			scPertR[i] = relPertR[i] - scR[i]
		}
		relPertRNorm3 := math.Pow(norm(relPertR), 3)
		scPertRNorm3 := math.Pow(norm(scPertR), 3)
		for i := 0; i < 3; i++ {
			pert[i+3] += p.PerturbingBody.μ * (scPertR[i]/scPertRNorm3 - relPertR[i]/relPertRNorm3)
		}
	}
	if p.Arbitrary != nil {
		arbs := p.Arbitrary(o)
		for i := 0; i < 6; i++ {
			pert[i] += arbs[i]
		}
	}
	return pert
}
