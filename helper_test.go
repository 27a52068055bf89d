package astro

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !scalar.EqualWithinRel(a[i], b[i], 1e-3) {
			return false
		}
	}
	return true
}

// assertStateEqual compares component wise within an absolute tolerance, for
// vectors which legitimately carry zero components.
func assertStateEqual(t *testing.T, name string, got, exp []float64, tol float64) {
	t.Helper()
	for j := 0; j < 3; j++ {
		if !scalar.EqualWithinAbs(got[j], exp[j], tol) {
			t.Fatalf("%s[%d] = %f, expected %f", name, j, got[j], exp[j])
		}
	}
}

//anglesEqual returns whether two angles in Radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}
