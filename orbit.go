package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/sethhirsh/astro/rootfind"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km
	velocityε     = 1e-6                         // in km/s
)

// ErrParabolicOrbit is returned when an operation only defined for closed or
// hyperbolic orbits meets a near-parabolic eccentricity.
var ErrParabolicOrbit = errors.New("orbit is (nearly) parabolic")

// Orbit defines an orbit via its orbital elements.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	Origin           CelestialObject // Orbit origin
	cacheHash        float64
	cachedR, cachedV []float64
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	return -o.Origin.μ / (2 * o.a)
}

// Tildeω returns the longitude of periapsis.
func (o Orbit) Tildeω() float64 {
	return math.Mod(o.ω+o.Ω, 2*math.Pi)
}

// TrueLongλ returns the *approximate* true longitude (cf. Vallado page 103).
// NOTE: One should only need this for equatorial orbits.
func (o Orbit) TrueLongλ() float64 {
	return math.Mod(o.ω+o.Ω+o.ν, 2*math.Pi)
}

// ArgLatitudeU returns the argument of latitude.
func (o Orbit) ArgLatitudeU() float64 {
	return math.Mod(o.ν+o.ω, 2*math.Pi)
}

// H returns the orbital angular momentum vector.
func (o Orbit) H() []float64 {
	return cross(o.RV())
}

// HNorm returns the norm of orbital angular momentum.
func (o Orbit) HNorm() float64 {
	return o.RNorm() * o.VNorm() * o.CosΦfpa()
}

// CosΦfpa returns the cosine of the flight path angle.
// WARNING: As per Vallado page 105, *do not* use math.Acos(o.CosΦfpa())
// to get the flight path angle as you'll have a quadrant problem. Instead
// use math.Atan2(o.SinΦfpa(), o.CosΦfpa()).
func (o Orbit) CosΦfpa() float64 {
	ecosν := o.e * math.Cos(o.ν)
	return (1 + ecosν) / math.Sqrt(1+2*ecosν+math.Pow(o.e, 2))
}

// SinΦfpa returns the sine of the flight path angle.
// WARNING: As per Vallado page 105, *do not* use math.Asin(o.SinΦfpa())
// to get the flight path angle as you'll have a quadrant problem. Instead
// use math.Atan2(o.SinΦfpa(), o.CosΦfpa()).
func (o Orbit) SinΦfpa() float64 {
	sinν, cosν := math.Sincos(o.ν)
	return (o.e * sinν) / math.Sqrt(1+2*o.e*cosν+math.Pow(o.e, 2))
}

// SemiParameter returns the semi-parameter (semi-latus rectum).
func (o Orbit) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Apoapsis returns the apoapsis.
func (o Orbit) Apoapsis() float64 {
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis.
func (o Orbit) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// SinCosE returns the eccentric anomaly trig functions (sin and cos).
func (o Orbit) SinCosE() (sinE, cosE float64) {
	sinν, cosν := math.Sincos(o.ν)
	denom := 1 + o.e*cosν
	sinE = math.Sqrt(1-o.e*o.e) * sinν / denom
	cosE = (o.e + cosν) / denom
	return
}

// MeanAnomaly returns the mean anomaly for this closed orbit.
func (o Orbit) MeanAnomaly() float64 {
	E := eccentricFromTrueAnomaly(o.ν, o.e)
	return math.Mod(E-o.e*math.Sin(E)+2*math.Pi, 2*math.Pi)
}

// Period returns the period of this orbit. Only meaningful for closed orbits.
func (o Orbit) Period() time.Duration {
	// The time package does not trivially handle fractions of a second, so let's
	// compute this in a convoluted way...
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.Origin.μ)
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration
}

// PropagateFor returns this orbit advanced along its conic by the provided
// duration, from solving Kepler's equation. A negative duration propagates
// backward. The origin body is the only gravity source considered here; use
// Mission for perturbed propagation.
func (o Orbit) PropagateFor(Δt time.Duration) (*Orbit, error) {
	var νNew float64
	switch {
	case o.e < 1-eccentricityε: // elliptic
		E0 := eccentricFromTrueAnomaly(o.ν, o.e)
		M0 := E0 - o.e*math.Sin(E0)
		n := math.Sqrt(o.Origin.μ / math.Pow(o.a, 3))
		M := math.Mod(M0+n*Δt.Seconds(), 2*math.Pi)
		E, err := solveEccentricAnomaly(M, o.e)
		if err != nil {
			return nil, fmt.Errorf("propagating %s: %w", o, err)
		}
		νNew = trueFromEccentricAnomaly(E, o.e)
	case o.e > 1+eccentricityε: // hyperbolic
		H0 := hyperbolicFromTrueAnomaly(o.ν, o.e)
		M0 := o.e*math.Sinh(H0) - H0
		n := math.Sqrt(o.Origin.μ / math.Pow(-o.a, 3))
		M := M0 + n*Δt.Seconds()
		H, err := solveHyperbolicAnomaly(M, o.e)
		if err != nil {
			return nil, fmt.Errorf("propagating %s: %w", o, err)
		}
		νNew = trueFromHyperbolicAnomaly(H, o.e)
	default:
		return nil, fmt.Errorf("propagating %s: %w", o, ErrParabolicOrbit)
	}
	νNew = math.Mod(νNew+2*math.Pi, 2*math.Pi)
	prop := Orbit{o.a, o.e, o.i, o.Ω, o.ω, νNew, o.Origin, 0, nil, nil}
	return &prop, nil
}

// ToXCentric converts this orbit to the provided celestial object centric
// equivalent at the given date. One of the two bodies must be the Sun.
// Panics if the orbit is already centered on the provided object.
func (o *Orbit) ToXCentric(b CelestialObject, dt time.Time) Orbit {
	if o.Origin.Name == b.Name {
		panic(fmt.Errorf("orbit already %s centric", b.Name))
	}
	oR, oV := o.RV()
	R := make([]float64, 3)
	V := make([]float64, 3)
	switch {
	case b.Equals(Sun):
		rel := o.Origin.HelioOrbit(dt)
		relR, relV := rel.RV()
		for j := 0; j < 3; j++ {
			R[j] = oR[j] + relR[j]
			V[j] = oV[j] + relV[j]
		}
	case o.Origin.Equals(Sun):
		rel := b.HelioOrbit(dt)
		relR, relV := rel.RV()
		for j := 0; j < 3; j++ {
			R[j] = oR[j] - relR[j]
			V[j] = oV[j] - relV[j]
		}
	default:
		panic("orbit origin or destination must be the Sun")
	}
	return *NewOrbitFromRV(R, V, b)
}

// RV helps with the cache.
func (o *Orbit) RV() ([]float64, []float64) {
	if o.hashValid() {
		return o.cachedR, o.cachedV
	}
	p := o.SemiParameter()
	// Support special orbits.
	ν := o.ν
	ω := o.ω
	Ω := o.Ω
	if o.e < eccentricityε {
		ω = 0
		if o.i < angleε {
			// Circular equatorial
			Ω = 0
			ν = o.TrueLongλ()
		} else {
			// Circular inclined
			ν = o.ArgLatitudeU()
		}
	} else if o.i < angleε {
		Ω = 0
		ω = o.Tildeω()
	}

	R := make([]float64, 3)
	V := make([]float64, 3)
	sinν, cosν := math.Sincos(ν)
	R[0] = p * cosν / (1 + o.e*cosν)
	R[1] = p * sinν / (1 + o.e*cosν)
	R[2] = 0
	R = PQW2ECI(o.i, ω, Ω, R)

	V[0] = -math.Sqrt(o.Origin.μ/p) * sinν
	V[1] = math.Sqrt(o.Origin.μ/p) * (o.e + cosν)
	V[2] = 0
	V = PQW2ECI(o.i, ω, Ω, V)

	o.cachedR = R
	o.cachedV = V
	o.computeHash()
	return R, V
}

// R returns the radius vector.
func (o Orbit) R() (R []float64) {
	R, _ = o.RV()
	return R
}

// RNorm returns the norm of the radius vector, but without computing the radius vector.
// If only the norm is needed, it is encouraged to use this function instead of norm(o.R()).
func (o Orbit) RNorm() float64 {
	return o.SemiParameter() / (1 + o.e*math.Cos(o.ν))
}

// V returns the velocity vector.
func (o Orbit) V() (V []float64) {
	_, V = o.RV()
	return V
}

// VNorm returns the norm of the velocity vector, but without computing the velocity vector.
// If only the norm is needed, it is encouraged to use this function instead of norm(o.V()).
func (o Orbit) VNorm() float64 {
	if scalar.EqualWithinAbs(o.e, 0, eccentricityε) {
		return math.Sqrt(o.Origin.μ / o.RNorm())
	}
	if scalar.EqualWithinAbs(o.e, 1, eccentricityε) {
		return math.Sqrt(2 * o.Origin.μ / o.RNorm())
	}
	return math.Sqrt(2 * (o.Origin.μ/o.RNorm() + o.Energyξ()))
}

// Elements returns the nine orbital elements which work in all types of orbits
func (o *Orbit) Elements() (a, e, i, Ω, ω, ν, λ, tildeω, u float64) {
	a = o.a
	e = o.e
	i = o.i
	Ω = o.Ω
	ω = o.ω
	ν = o.ν
	λ = o.TrueLongλ()
	tildeω = o.Tildeω()
	u = o.ArgLatitudeU()
	return
}

func (o *Orbit) computeHash() {
	o.cacheHash = o.ω + o.ν + o.Ω + o.i + o.e + o.a
}

func (o Orbit) hashValid() bool {
	return o.cachedR != nil && o.cacheHash == o.ω+o.ν+o.Ω+o.i+o.e+o.a
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	if o.e < eccentricityε {
		// Circular orbit
		if o.i > angleε {
			return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f u=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ArgLatitudeU()))
		}
		// Equatorial
		return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f λ=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.TrueLongλ()))
	}
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o Orbit) Equals(o1 Orbit) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	if !scalar.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(o.i, o1.i, angleε) {
		return false, errors.New("inclination invalid")
	}
	if !scalar.EqualWithinAbs(o.Ω, o1.Ω, angleε) {
		return false, errors.New("RAAN invalid")
	}
	if o.e < eccentricityε {
		// Circular orbit
		if o.i > angleε {
			// Inclined
			if !scalar.EqualWithinAbs(o.ArgLatitudeU(), o1.ArgLatitudeU(), angleε) {
				return false, errors.New("argument of latitude invalid")
			}
		} else {
			// Equatorial
			if !scalar.EqualWithinAbs(o.TrueLongλ(), o1.TrueLongλ(), angleε) {
				return false, errors.New("true longitude invalid")
			}
		}
	} else if !scalar.EqualWithinAbs(o.ω, o1.ω, angleε) {
		return false, errors.New("argument of perigee invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical.
func (o Orbit) StrictlyEquals(o1 Orbit) (bool, error) {
	// Only check for non circular orbits
	if o.e > eccentricityε && !scalar.EqualWithinAbs(o.ν, o1.ν, angleε) {
		return false, errors.New("true anomaly invalid")
	}
	return o.Equals(o1)
}

// NewOrbitFromOE creates an orbit from the orbital elements.
// WARNING: Angles must be in degrees not radians.
func NewOrbitFromOE(a, e, i, Ω, ω, ν float64, c CelestialObject) *Orbit {
	// Making an approximation for circular and equatorial orbits.
	if e < eccentricityε {
		e = eccentricityε
	}
	iRad := Deg2rad(i)
	if iRad < angleε {
		iRad = angleε
	}
	orbit := Orbit{a, e, iRad, Deg2rad(Ω), Deg2rad(ω), Deg2rad(ν), c, 0.0, nil, nil}
	orbit.RV()
	return &orbit
}

// NewOrbitFromRV returns orbital elements from the R and V vectors, in km and
// km/s respectively. Elliptical and hyperbolic orbits are both supported.
func NewOrbitFromRV(R, V []float64, c CelestialObject) *Orbit {
	// From Vallado's RV2COE, page 113, with the circular and equatorial
	// special cases folded in.
	hVec := cross(R, V)
	h := norm(hVec)
	nVec := cross([]float64{0, 0, 1}, hVec)
	nn := norm(nVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - c.μ/r
	a := -c.μ / (2 * ξ)
	eVec := make([]float64, 3)
	for j := 0; j < 3; j++ {
		eVec[j] = ((v*v-c.μ/r)*R[j] - dot(R, V)*V[j]) / c.μ
	}
	e := norm(eVec)
	i := math.Acos(hVec[2] / h)

	circular := e < eccentricityε
	equatorial := i < angleε || i > math.Pi-angleε
	var Ω, ω, ν float64
	switch {
	case circular && equatorial:
		// True longitude replaces all the in-plane angles. Measured in the
		// direction of motion, hence the retrograde flip.
		ν = math.Acos(clampCos(R[0] / r))
		if R[1] < 0 {
			ν = 2*math.Pi - ν
		}
		if hVec[2] < 0 {
			ν = 2*math.Pi - ν
		}
	case circular:
		// Argument of latitude replaces ω and ν.
		Ω = math.Acos(clampCos(nVec[0] / nn))
		if nVec[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
		ν = math.Acos(clampCos(dot(nVec, R) / (nn * r)))
		if R[2] < 0 {
			ν = 2*math.Pi - ν
		}
	case equatorial:
		// True longitude of periapsis replaces Ω and ω.
		if hVec[2] >= 0 {
			ω = math.Atan2(eVec[1], eVec[0])
		} else {
			ω = math.Atan2(-eVec[1], eVec[0])
		}
		if ω < 0 {
			ω += 2 * math.Pi
		}
		ν = math.Acos(clampCos(dot(eVec, R) / (e * r)))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	default:
		Ω = math.Acos(clampCos(nVec[0] / nn))
		if nVec[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
		ω = math.Acos(clampCos(dot(nVec, eVec) / (nn * e)))
		if eVec[2] < 0 {
			ω = 2*math.Pi - ω
		}
		ν = math.Acos(clampCos(dot(eVec, R) / (e * r)))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	}
	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)

	orbit := Orbit{a, e, i, Ω, ω, ν, c, 0.0, R, V}
	orbit.computeHash()
	return &orbit
}

// Helper functions go here.

// Radii2ae returns the semi major axis and the eccentricity from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}

// clampCos keeps a cosine argument within [-1, 1] when rounding pushed it out.
func clampCos(x float64) float64 {
	if x > 1 {
		return 1
	} else if x < -1 {
		return -1
	}
	return x
}

// eccentricFromTrueAnomaly converts ν to the eccentric anomaly E.
func eccentricFromTrueAnomaly(ν, e float64) float64 {
	sinν, cosν := math.Sincos(ν)
	return math.Atan2(math.Sqrt(1-e*e)*sinν, e+cosν)
}

// trueFromEccentricAnomaly converts E back to ν.
func trueFromEccentricAnomaly(E, e float64) float64 {
	sinE, cosE := math.Sincos(E)
	return math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
}

// hyperbolicFromTrueAnomaly converts ν to the hyperbolic anomaly H.
func hyperbolicFromTrueAnomaly(ν, e float64) float64 {
	sinν, cosν := math.Sincos(ν)
	return math.Asinh(math.Sqrt(e*e-1) * sinν / (1 + e*cosν))
}

// trueFromHyperbolicAnomaly converts H back to ν.
func trueFromHyperbolicAnomaly(H, e float64) float64 {
	return 2 * math.Atan(math.Sqrt((e+1)/(e-1))*math.Tanh(H/2))
}

// solveEccentricAnomaly solves Kepler's equation M = E - e sin E for E.
func solveEccentricAnomaly(M, e float64) (float64, error) {
	E0 := M + 0.85*e*sign(math.Sin(M))
	return rootfind.NewtonRaphson(func(E float64) float64 {
		return E - e*math.Sin(E) - M
	}, func(E float64) float64 {
		return 1 - e*math.Cos(E)
	}, E0, 1e-12, rootfind.DefaultMaxIterations)
}

// solveHyperbolicAnomaly solves M = e sinh H - H for H.
func solveHyperbolicAnomaly(M, e float64) (float64, error) {
	H0 := sign(M) * math.Log(2*math.Abs(M)/e+1.8)
	return rootfind.NewtonRaphson(func(H float64) float64 {
		return e*math.Sinh(H) - H - M
	}, func(H float64) float64 {
		return e*math.Cosh(H) - 1
	}, H0, 1e-12, rootfind.DefaultMaxIterations)
}
