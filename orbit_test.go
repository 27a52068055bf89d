package astro

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestOrbitRV2COE(t *testing.T) {
	R := []float64{6524.834, 6862.875, 6448.296}
	V := []float64{4.901327, 5.533756, -1.976341}
	o := NewOrbitFromRV(R, V, Earth)
	oT := NewOrbitFromOE(36127.343, 0.832853, 87.869126, 227.898260, 53.384931, 92.335157, Earth)
	if ok, err := o.StrictlyEquals(*oT); !ok {
		t.Logf("\no0: %s\no1: %s", o, oT)
		t.Fatalf("orbits differ: %s", err)
	}
	if ok, err := anglesEqual(Deg2rad(281.283201), o.Tildeω()); !ok {
		t.Fatalf("longitude of periapsis invalid: %s (%f)", err, o.Tildeω())
	}
	if ok, err := anglesEqual(Deg2rad(145.720695), o.ArgLatitudeU()); !ok {
		t.Fatalf("argument of latitude invalid: %s (%f)", err, o.ArgLatitudeU())
	}
	valladoε := 1e-6
	if !scalar.EqualWithinAbs(o.Energyξ(), -5.516604, valladoε) {
		t.Fatalf("incorrect energy ξ=%f", o.Energyξ())
	}
	if !scalar.EqualWithinAbs(norm(o.R()), o.RNorm(), valladoε) {
		t.Fatalf("incorrect r norm |R|=%f\tr=%f", norm(o.R()), o.RNorm())
	}
	if !scalar.EqualWithinAbs(norm(o.V()), o.VNorm(), valladoε) {
		t.Fatalf("incorrect v norm |V|=%f\tv=%f", norm(o.V()), o.VNorm())
	}
	if !scalar.EqualWithinAbs(norm(o.H()), o.HNorm(), valladoε) {
		t.Fatalf("incorrect h norm |h|=%f\th=%f", norm(o.H()), o.HNorm())
	}
	// Regenerating the state through the elements must return the input.
	prop, err := o.PropagateFor(0)
	if err != nil {
		t.Fatal(err)
	}
	assertStateEqual(t, "R", prop.R(), R, 1e-3)
	assertStateEqual(t, "V", prop.V(), V, 1e-6)
}

func TestOrbitCOE2RV(t *testing.T) {
	a0 := 36126.64283
	e0 := 0.83280
	i0 := 87.874925
	ω0 := 53.378089
	Ω0 := 227.891253
	ν0 := 92.335027
	R := []float64{6524.344, 6861.535, 6449.125}
	V := []float64{4.902276, 5.533124, -1.975709}

	o0 := NewOrbitFromOE(a0, e0, i0, Ω0, ω0, ν0, Earth)
	if !vectorsEqual(R, o0.R()) {
		t.Fatalf("R vector incorrectly computed:\n%+v\n%+v", R, o0.R())
	}
	if !vectorsEqual(V, o0.V()) {
		t.Fatal("V vector incorrectly computed")
	}

	o1 := NewOrbitFromRV(R, V, Earth)
	if ok, err := o0.Equals(*o1); !ok {
		t.Logf("\no0: %s\no1: %s", o0, o1)
		t.Fatal(err)
	}
	if ok, err := anglesEqual(Deg2rad(ν0), o1.ν); !ok {
		t.Fatalf("true anomaly invalid: %s", err)
	}
}

func TestOrbitCircularInclined(t *testing.T) {
	o0 := NewOrbitFromOE(7000, 0, 45, 80, 0, 40, Earth)
	o1 := NewOrbitFromRV(o0.R(), o0.V(), Earth)
	_, _, i, Ω, _, _, _, _, u := o1.Elements()
	if ok, err := anglesEqual(Deg2rad(45), i); !ok {
		t.Fatalf("inclination: %s", err)
	}
	if ok, err := anglesEqual(Deg2rad(80), Ω); !ok {
		t.Fatalf("RAAN: %s", err)
	}
	// Only the argument of latitude is well defined on a circular orbit.
	if ok, err := anglesEqual(Deg2rad(40), u); !ok {
		t.Fatalf("argument of latitude: %s", err)
	}
	assertStateEqual(t, "R", o1.R(), o0.R(), 1e-6)
	assertStateEqual(t, "V", o1.V(), o0.V(), 1e-9)
}

func TestOrbitCircularEquatorial(t *testing.T) {
	o0 := NewOrbitFromOE(42164, 0, 0, 0, 0, 123, Earth)
	o1 := NewOrbitFromRV(o0.R(), o0.V(), Earth)
	// Only the true longitude survives the degeneracy.
	if ok, err := anglesEqual(Deg2rad(123), o1.TrueLongλ()); !ok {
		t.Fatalf("true longitude: %s", err)
	}
	// Regeneration through the circular special cases in RV.
	prop, err := o1.PropagateFor(0)
	if err != nil {
		t.Fatal(err)
	}
	assertStateEqual(t, "R", prop.R(), o0.R(), 1e-4)
	assertStateEqual(t, "V", prop.V(), o0.V(), 1e-7)
}

func TestOrbitEquatorialRetrograde(t *testing.T) {
	r := 42164.0
	vc := math.Sqrt(Earth.μ / r)
	// On the +X axis moving in -Y: a circular clockwise equatorial orbit.
	o := NewOrbitFromRV([]float64{r, 0, 0}, []float64{0, -vc, 0}, Earth)
	_, e, i, _, _, _, λ, _, _ := o.Elements()
	if e > 2*eccentricityε {
		t.Fatalf("e = %f on a circular orbit", e)
	}
	if ok, err := anglesEqual(math.Pi, i); !ok {
		t.Fatalf("inclination: %s", err)
	}
	if ok, err := anglesEqual(0, λ); !ok {
		t.Fatalf("true longitude: %s", err)
	}
	// A quarter orbit later in the direction of motion.
	o = NewOrbitFromRV([]float64{0, -r, 0}, []float64{-vc, 0, 0}, Earth)
	if ok, err := anglesEqual(math.Pi/2, o.TrueLongλ()); !ok {
		t.Fatalf("true longitude after a quarter: %s", err)
	}
	// The recovered elements must regenerate the same state.
	prop, err := o.PropagateFor(0)
	if err != nil {
		t.Fatal(err)
	}
	assertStateEqual(t, "R", prop.R(), []float64{0, -r, 0}, 1e-4)
	assertStateEqual(t, "V", prop.V(), []float64{-vc, 0, 0}, 1e-7)
}

func TestOrbitEquatorialElliptic(t *testing.T) {
	o0 := NewOrbitFromOE(26560, 0.72, 0, 0, 55, 10, Earth)
	o1 := NewOrbitFromRV(o0.R(), o0.V(), Earth)
	a, e, _, _, _, ν, _, tildeω, _ := o1.Elements()
	if !scalar.EqualWithinAbs(a, 26560, distanceε) {
		t.Fatalf("a = %f", a)
	}
	if !scalar.EqualWithinAbs(e, 0.72, eccentricityε) {
		t.Fatalf("e = %f", e)
	}
	// The node is degenerate: only ω̃ = Ω + ω is meaningful.
	if ok, err := anglesEqual(Deg2rad(55), tildeω); !ok {
		t.Fatalf("longitude of periapsis: %s", err)
	}
	if ok, err := anglesEqual(Deg2rad(10), ν); !ok {
		t.Fatalf("true anomaly: %s", err)
	}
	assertStateEqual(t, "R", o1.R(), o0.R(), 1e-6)
}

func TestOrbitHyperbolicRoundtrip(t *testing.T) {
	o0 := NewOrbitFromOE(-20000, 1.5, 10, 20, 30, 0, Earth)
	if !scalar.EqualWithinAbs(o0.RNorm(), 10000, 1e-6) {
		t.Fatalf("periapsis radius %f, expected 10000", o0.RNorm())
	}
	o1 := NewOrbitFromRV(o0.R(), o0.V(), Earth)
	if ok, err := o0.StrictlyEquals(*o1); !ok {
		t.Fatalf("hyperbolic roundtrip lost the elements: %s", err)
	}
	if o1.a >= 0 {
		t.Fatalf("a = %f, expected negative", o1.a)
	}
}

func TestOrbitGetters(t *testing.T) {
	o := NewOrbitFromOE(24396, 0.7283, 7.0, 194.0, 178.0, 2.0, Earth)
	if !scalar.EqualWithinAbs(o.SemiParameter(), 11455.85, 0.1) {
		t.Fatalf("p = %f", o.SemiParameter())
	}
	if !scalar.EqualWithinAbs(o.Energyξ(), -8.16939, 1e-4) {
		t.Fatalf("ξ = %f", o.Energyξ())
	}
	if !scalar.EqualWithinAbs(o.Periapsis(), 6628.39, 1e-2) {
		t.Fatalf("rP = %f", o.Periapsis())
	}
	if !scalar.EqualWithinAbs(o.Apoapsis(), 42163.61, 1e-2) {
		t.Fatalf("rA = %f", o.Apoapsis())
	}
	if !scalar.EqualWithinAbs(o.Period().Seconds(), 37922.0, 1.0) {
		t.Fatalf("period = %s", o.Period())
	}
	// The eccentric anomaly getters must agree with the Kepler solver.
	sinE, cosE := o.SinCosE()
	E := math.Atan2(sinE, cosE)
	M := math.Mod(E-o.e*math.Sin(E)+2*math.Pi, 2*math.Pi)
	if !scalar.EqualWithinAbs(M, o.MeanAnomaly(), 1e-9) {
		t.Fatalf("M = %f but MeanAnomaly says %f", M, o.MeanAnomaly())
	}
	// At periapsis the flight path angle vanishes.
	peri := NewOrbitFromOE(24396, 0.7283, 7.0, 194.0, 178.0, 0, Earth)
	if !scalar.EqualWithinAbs(peri.SinΦfpa(), 0, 1e-12) || !scalar.EqualWithinAbs(peri.CosΦfpa(), 1, 1e-12) {
		t.Fatal("flight path angle at periapsis")
	}
}

func TestOrbitΦfpa(t *testing.T) {
	for _, e := range []float64{0.5, 1} {
		for _, ν := range []float64{-120, 120} {
			o := NewOrbitFromOE(1e4, e, 1, 1, 1, ν, Earth)
			Φ := math.Atan2(o.SinΦfpa(), o.CosΦfpa())
			exp := (ν * e) / 2
			if exp < 0 {
				exp += 360
			}
			if sign(Φ) != sign(ν) || !scalar.EqualWithinAbs(Rad2deg(Φ), exp, angleε) {
				t.Fatalf("Φ = %f (%f) != %f for e=%f with ν=%f", Rad2deg(Φ), Φ, exp, e, ν)
			}
		}
	}
	// A circular orbit keeps only the ε-clamped eccentricity worth of
	// flight path angle.
	for _, ν := range []float64{-120, 120} {
		o := NewOrbitFromOE(1e4, 0, 1, 1, 1, ν, Earth)
		Φ := math.Atan2(o.SinΦfpa(), o.CosΦfpa())
		if math.Abs(Φ) > 2*eccentricityε || sign(Φ) != sign(ν) {
			t.Fatalf("Φ = %g for a circular orbit with ν=%f", Φ, ν)
		}
	}
}

func TestOrbitSinCosE(t *testing.T) {
	o := NewOrbitFromOE(9567205.5, 0.999, 1, 1, 1, 60, Earth)
	sinE, cosE := o.SinCosE()
	E0 := math.Acos(cosE)
	E1 := math.Asin(sinE)
	E2 := math.Atan2(sinE, cosE)
	if !scalar.EqualWithinAbs(E2, E0, angleε) || !scalar.EqualWithinAbs(E2, E1, angleε) || !scalar.EqualWithinAbs(E2, Deg2rad(1.479658), angleε) {
		t.Fatal("specific value of E incorrect")
	}
}

func TestOrbitPropagateFor(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.001, 30, 80, 40, 0, Earth)
	period := o.Period()
	full, err := o.PropagateFor(period)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := o.StrictlyEquals(*full); !ok {
		t.Fatalf("a full period changed the orbit: %s", err)
	}
	quarter, err := o.PropagateFor(period / 4)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(quarter.MeanAnomaly(), math.Pi/2, 1e-6) {
		t.Fatalf("M = %f after a quarter period", quarter.MeanAnomaly())
	}
	back, err := quarter.PropagateFor(-period / 4)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := o.StrictlyEquals(*back); !ok {
		t.Fatalf("backward propagation did not return: %s", err)
	}
}

func TestOrbitPropagateHyperbolic(t *testing.T) {
	o := NewOrbitFromOE(-20000, 1.5, 10, 20, 30, 0, Earth)
	out, err := o.PropagateFor(2 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if out.RNorm() <= o.RNorm() {
		t.Fatalf("radius did not grow from periapsis: %f", out.RNorm())
	}
	back, err := out.PropagateFor(-2 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := o.StrictlyEquals(*back); !ok {
		t.Fatalf("backward propagation did not return: %s", err)
	}
}

func TestOrbitPropagateParabolic(t *testing.T) {
	o := Orbit{25000, 1.0, Deg2rad(10), Deg2rad(20), Deg2rad(30), 0, Earth, 0, nil, nil}
	if _, err := o.PropagateFor(time.Hour); !errors.Is(err, ErrParabolicOrbit) {
		t.Fatalf("expected ErrParabolicOrbit, got %v", err)
	}
}

func TestOrbitToXCentric(t *testing.T) {
	dt := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	earth := Earth.HelioOrbit(dt)
	eR, eV := earth.RV()
	R := []float64{eR[0] + 7000, eR[1], eR[2]}
	V := []float64{eV[0], eV[1] + 7.5, eV[2]}
	helio := NewOrbitFromRV(R, V, Sun)
	geo := helio.ToXCentric(Earth, dt)
	assertStateEqual(t, "R", geo.R(), []float64{7000, 0, 0}, 1e-6)
	assertStateEqual(t, "V", geo.V(), []float64{0, 7.5, 0}, 1e-9)
	back := geo.ToXCentric(Sun, dt)
	assertStateEqual(t, "R", back.R(), R, 1e-6)
	assertStateEqual(t, "V", back.V(), V, 1e-9)
	assertPanic(t, func() { helio.ToXCentric(Sun, dt) })
	assertPanic(t, func() { geo.ToXCentric(Mars, dt) })
}

func TestOrbitRefChange(t *testing.T) {
	// Edge case geometry where cosν rounds slightly past ±1.
	o := NewOrbitFromOE(684420.277672, 0.893203, 0.174533, 0.032732, 0.474642, 2.830590, Earth)
	for _, dt := range []time.Time{time.Date(2016, 03, 24, 20, 41, 48, 0, time.UTC),
		time.Date(2016, 04, 14, 20, 50, 23, 0, time.UTC),
		time.Date(2016, 05, 12, 18, 0, 15, 0, time.UTC)} {

		helio := o.ToXCentric(Sun, dt)
		// Regenerate the state from the converted elements: a cosν pushed
		// past ±1 would surface as NaN here.
		regen, err := helio.PropagateFor(0)
		if err != nil {
			t.Fatalf("%s: %s", dt, err)
		}
		for i, x := range regen.R() {
			if math.IsNaN(x) {
				t.Fatalf("%s: R[%d]=NaN", dt, i)
			}
		}
		for i, x := range regen.V() {
			if math.IsNaN(x) {
				t.Fatalf("%s: V[%d]=NaN", dt, i)
			}
		}
		assertStateEqual(t, "regenerated R", regen.R(), helio.R(), 1e-2)
		if vectorsEqual(helio.R(), o.R()) {
			t.Fatal("helioR == earthR")
		}
		back := helio.ToXCentric(Earth, dt)
		assertStateEqual(t, "R", back.R(), o.R(), 1e-5)
		assertStateEqual(t, "V", back.V(), o.V(), 1e-8)
	}
}

func TestOrbitString(t *testing.T) {
	o := NewOrbitFromOE(24396, 0.7283, 7, 194, 178, 2, Earth)
	exp := "a=24396.0 e=0.7283 i=7.000 Ω=194.000 ω=178.000 ν=2.000"
	if o.String() != exp {
		t.Fatalf("got %q", o)
	}
}

func TestOrbitEquality(t *testing.T) {
	oInit := NewOrbitFromOE(226090298.679, 0.088, 26.195, 3.516, 326.494, 278.358, Sun)
	oTest := NewOrbitFromOE(226090290.608, 0.088, 26.195, 3.516, 326.494, 278.358, Sun)
	if ok, err := oInit.Equals(*oTest); !ok {
		t.Fatalf("orbits not equal: %s", err)
	}
	oTest.ω += math.Pi / 6
	if ok, _ := oInit.Equals(*oTest); ok {
		t.Fatalf("orbits of different ω are equal")
	}
	oTest.ω -= math.Pi / 6 // Reset
	oTest.Origin = Earth
	if ok, _ := oInit.Equals(*oTest); ok {
		t.Fatalf("orbits of different origins are equal")
	}
	oTest.Origin = Sun
	if ok, _ := oInit.StrictlyEquals(*oTest); !ok {
		t.Fatal("orbits differ after reset")
	}
	oTest.ν += math.Pi / 6
	if ok, _ := oInit.StrictlyEquals(*oTest); ok {
		t.Fatal("strict equality must catch the anomaly")
	}
}

func TestRadii2ae(t *testing.T) {
	a, e := Radii2ae(4, 2)
	if !scalar.EqualWithinAbs(a, 3.0, 1e-12) {
		t.Fatalf("a=%f instead of 3.0", a)
	}
	if !scalar.EqualWithinAbs(e, 1/3.0, 1e-12) {
		t.Fatalf("e=%f instead of 1/3", e)
	}
	assertPanic(t, func() {
		Radii2ae(1, 2)
	})
}

func TestNewOrbitClamping(t *testing.T) {
	o := NewOrbitFromOE(7000, 0, 0, 10, 20, 30, Earth)
	if o.e != eccentricityε {
		t.Fatalf("e = %g, expected the clamp at %g", o.e, eccentricityε)
	}
	if o.i != angleε {
		t.Fatalf("i = %g, expected the clamp at %g", o.i, angleε)
	}
}

func TestAnomalyConversions(t *testing.T) {
	for _, e := range []float64{0.001, 0.3, 0.9} {
		for _, νDeg := range []float64{10, 60, 120, 200, 340} {
			ν := Deg2rad(νDeg)
			E := eccentricFromTrueAnomaly(ν, e)
			M := E - e*math.Sin(E)
			got, err := solveEccentricAnomaly(M, e)
			if err != nil {
				t.Fatalf("e=%f ν=%f: %s", e, νDeg, err)
			}
			if !scalar.EqualWithinAbs(got, E, 1e-9) {
				t.Fatalf("e=%f ν=%f: E=%f, solved %f", e, νDeg, E, got)
			}
			νBack := math.Mod(trueFromEccentricAnomaly(got, e)+2*math.Pi, 2*math.Pi)
			if !scalar.EqualWithinAbs(νBack, ν, 1e-9) {
				t.Fatalf("e=%f ν=%f: recovered %f deg", e, νDeg, Rad2deg(νBack))
			}
		}
	}
	for _, e := range []float64{1.1, 1.5, 3} {
		νMax := Rad2deg(math.Acos(-1 / e))
		for _, νDeg := range []float64{-100, -60, -10, 10, 60, 100} {
			if math.Abs(νDeg) >= νMax-5 {
				continue // too close to the asymptote
			}
			ν := Deg2rad(νDeg)
			H := hyperbolicFromTrueAnomaly(ν, e)
			M := e*math.Sinh(H) - H
			got, err := solveHyperbolicAnomaly(M, e)
			if err != nil {
				t.Fatalf("e=%f ν=%f: %s", e, νDeg, err)
			}
			if !scalar.EqualWithinAbs(got, H, 1e-9) {
				t.Fatalf("e=%f ν=%f: H=%f, solved %f", e, νDeg, H, got)
			}
		}
	}
}
