package astro

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
)

// meanElements holds Keplerian elements at J2000 and their per-century rates,
// referred to the mean ecliptic and equinox of J2000. Values from the JPL
// approximate planetary elements, valid 1800 AD through 2050 AD.
type meanElements struct {
	a, aDot float64 // semi-major axis, AU and AU/century
	e, eDot float64
	i, iDot float64 // degrees and degrees/century
	L, LDot float64 // mean longitude
	ϖ, ϖDot float64 // longitude of perihelion
	Ω, ΩDot float64
}

var planetElements = map[string]meanElements{
	"Mercury": {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749, 252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081},
	"Venus":   {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890, 181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418},
	"Earth":   {1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668, 100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0, 0},
	"Mars":    {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131, -4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343},
	"Jupiter": {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714, 34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106},
	"Saturn":  {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609, 49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794},
	"Uranus":  {19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939, 313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589},
	"Neptune": {30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372, -55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664},
}

// helioOrbit evaluates the mean elements of the planet at the provided date
// and solves Kepler's equation for the position on the orbit. The Earth entry
// is actually the Earth-Moon barycenter, which is plenty close for transfer
// design work.
func helioOrbit(c CelestialObject, dt time.Time) Orbit {
	if c.Equals(Moon) {
		return moonHelioOrbit(dt)
	}
	el, found := planetElements[c.Name]
	if !found {
		panic(fmt.Errorf("no mean elements for %s", c))
	}
	T := (julian.TimeToJD(dt) - 2451545.0) / 36525 // Julian centuries since J2000
	a := (el.a + el.aDot*T) * AU
	e := el.e + el.eDot*T
	i := math.Max(el.i+el.iDot*T, 0)
	Ω := el.Ω + el.ΩDot*T
	ϖ := el.ϖ + el.ϖDot*T
	L := el.L + el.LDot*T
	ω := ϖ - Ω
	M := Deg2rad(math.Mod(L-ϖ, 360))
	E, err := solveEccentricAnomaly(M, e)
	if err != nil {
		panic(fmt.Errorf("mean elements of %s at %s: %s", c, dt, err))
	}
	ν := trueFromEccentricAnomaly(E, e)
	return *NewOrbitFromOE(a, e, i, Ω, ω, Rad2deg(ν), Sun)
}

// moonHelioOrbit adds the geocentric lunar position from the truncated
// ELP-2000/82 series to the heliocentric Earth state. The geocentric velocity
// comes from a half-hour central difference, good to about 1e-4 km/s.
func moonHelioOrbit(dt time.Time) Orbit {
	earth := helioOrbit(Earth, dt)
	eR := earth.R()
	eV := earth.V()
	jde := julian.TimeToJD(dt)
	const step = 30.0 / (24 * 60) // days
	Rm := geocentricMoon(jde - step)
	R := geocentricMoon(jde)
	Rp := geocentricMoon(jde + step)
	V := make([]float64, 3)
	for i := 0; i < 3; i++ {
		V[i] = (Rp[i]-Rm[i])/(2*step*86400) + eV[i]
		R[i] += eR[i]
	}
	return *NewOrbitFromRV(R, V, Sun)
}

// geocentricMoon returns the ecliptic Cartesian position of the Moon in km.
func geocentricMoon(jde float64) []float64 {
	λ, β, Δ := moonposition.Position(jde)
	sλ, cλ := math.Sincos(λ.Rad())
	sβ, cβ := math.Sincos(β.Rad())
	return []float64{Δ * cβ * cλ, Δ * cβ * sλ, Δ * sβ}
}
