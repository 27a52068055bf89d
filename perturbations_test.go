package astro

import (
	"testing"
	"time"
)

func TestPertZonal(t *testing.T) {
	r := 7000.0
	vc := 7.546
	equator := *NewOrbitFromRV([]float64{r, 0, 0}, []float64{0, vc, 0}, Earth)
	pole := *NewOrbitFromRV([]float64{0, 0, r}, []float64{0, vc, 0}, Earth)
	dt := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	// Over the equator the bulge pulls inward.
	pert := Perturbations{Jn: 2}.Perturb(equator, dt)
	for _, i := range []int{0, 1, 2, 4, 5} {
		if pert[i] != 0 {
			t.Fatalf("equator: pert[%d] = %e", i, pert[i])
		}
	}
	if pert[3] >= 0 || pert[3] < -1.2e-5 || pert[3] > -1e-5 {
		t.Fatalf("equatorial J2 acceleration of %e km/s²", pert[3])
	}
	// Over the pole it pushes outward, and the higher zonals trim it back.
	var polar [3]float64
	for deg := uint8(2); deg <= 4; deg++ {
		pert = Perturbations{Jn: deg}.Perturb(pole, dt)
		if pert[3] != 0 || pert[4] != 0 {
			t.Fatalf("Jn=%d: polar acceleration off the z axis", deg)
		}
		polar[deg-2] = pert[5]
	}
	if polar[0] < 2e-5 || polar[0] > 2.4e-5 {
		t.Fatalf("polar J2 acceleration of %e km/s²", polar[0])
	}
	if !(polar[2] < polar[1] && polar[1] < polar[0]) {
		t.Fatalf("zonal cascade broken: %e, %e, %e", polar[0], polar[1], polar[2])
	}
}

func TestPertThirdBody(t *testing.T) {
	R := []float64{6524.834, 6862.875, 6448.296}
	V := []float64{4.901327, 5.533756, -1.976341}
	o := *NewOrbitFromRV(R, V, Earth)
	dt, _ := time.Parse(time.RFC822, "01 Jan 15 10:00 UTC")

	// Tidal pulls bracketed between μr/d³ and 2μr/d³ for each body.
	testValues := []struct {
		body     CelestialObject
		min, max float64 // km/s²
	}{
		{Sun, 3e-10, 1.2e-9},
		{Moon, 5e-10, 5e-9},
		{Mars, 5e-18, 2e-16},
	}
	perts := Perturbations{}
	for _, test := range testValues {
		perts.PerturbingBody = &test.body
		pert := perts.Perturb(o, dt)
		for i := 0; i < 3; i++ {
			if pert[i] != 0 {
				t.Fatalf("%s: position slot %d perturbed", test.body, i)
			}
		}
		if n := norm(pert[3:6]); n < test.min || n > test.max {
			t.Fatalf("%s pull of %.3e km/s²", test.body, n)
		}
	}
	// A body does not perturb an orbit about itself.
	perts.PerturbingBody = &Earth
	for i, p := range perts.Perturb(o, dt) {
		if p != 0 {
			t.Fatalf("Earth on Earth orbit: pert[%d] = %e", i, p)
		}
	}
}

func TestPertThirdBodyHelio(t *testing.T) {
	// An interplanetary cruiser about the Sun pulled by Jupiter.
	o := *NewOrbitFromOE(1.9e8, 0.2, 2, 10, 10, 0, Sun)
	dt, _ := time.Parse(time.RFC822, "01 Jan 15 10:00 UTC")
	pert := Perturbations{PerturbingBody: &Jupiter}.Perturb(o, dt)
	for i := 0; i < 3; i++ {
		if pert[i] != 0 {
			t.Fatalf("position slot %d perturbed", i)
		}
	}
	// Jupiter stays between 3.9 and 6.5 AU from the craft, which brackets the
	// differential pull.
	if n := norm(pert[3:6]); n < 1e-11 || n > 5e-10 {
		t.Fatalf("jovian pull of %.3e km/s² on a heliocentric orbit", n)
	}
}
