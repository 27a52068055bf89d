// Package rootfind solves scalar nonlinear equations by Newton iteration.
package rootfind

import (
	"errors"
	"fmt"
	"math"
)

// Default solver settings, used by callers which have no better requirement.
const (
	DefaultTolerance     = 1e-9
	DefaultMaxIterations = 50
)

// derivativeFloor is the smallest slope magnitude the iteration will divide by.
const derivativeFloor = 1e-300

var (
	// ErrMaxIterations means the iteration budget ran out before the step size
	// shrank below the requested tolerance.
	ErrMaxIterations = errors.New("iteration budget exhausted")
	// ErrFlatDerivative means the derivative vanished at an iterate, so the
	// Newton step is undefined.
	ErrFlatDerivative = errors.New("derivative vanished at iterate")
	// ErrDiverged means an iterate left the representable range.
	ErrDiverged = errors.New("iterate is not finite")
)

// Func is a scalar function of a scalar variable.
type Func func(x float64) float64

// ConvergenceError reports a failed iteration along with where it stalled.
type ConvergenceError struct {
	Iterations int
	LastX      float64
	Residual   float64
	reason     error
}

func (e ConvergenceError) Error() string {
	return fmt.Sprintf("rootfind: %s after %d iterations (x=%g, f(x)=%g)", e.reason, e.Iterations, e.LastX, e.Residual)
}

// Unwrap returns the sentinel classifying the failure.
func (e ConvergenceError) Unwrap() error {
	return e.reason
}

// NewtonRaphson iterates x ← x - f(x)/f'(x) from x0 until the update is
// smaller than tol, or the iteration budget runs out. On failure, the
// returned error is a ConvergenceError wrapping one of the package sentinels,
// and the returned value is the last iterate.
// Panics on a nil function or non-positive tol or maxIter.
func NewtonRaphson(f, fPrime Func, x0, tol float64, maxIter int) (float64, error) {
	if f == nil || fPrime == nil {
		panic("rootfind: function and derivative may not be nil")
	}
	if tol <= 0 {
		panic("rootfind: tolerance must be positive")
	}
	if maxIter <= 0 {
		panic("rootfind: iteration budget must be positive")
	}
	x := x0
	for it := 0; it < maxIter; it++ {
		fx := f(x)
		slope := fPrime(x)
		if math.Abs(slope) < derivativeFloor {
			return x, ConvergenceError{Iterations: it, LastX: x, Residual: fx, reason: ErrFlatDerivative}
		}
		next := x - fx/slope
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return x, ConvergenceError{Iterations: it, LastX: x, Residual: fx, reason: ErrDiverged}
		}
		if math.Abs(next-x) <= tol {
			return next, nil
		}
		x = next
	}
	return x, ConvergenceError{Iterations: maxIter, LastX: x, Residual: f(x), reason: ErrMaxIterations}
}

// NewtonRaphsonAuto runs NewtonRaphson with a central finite difference
// standing in for the analytical derivative.
func NewtonRaphsonAuto(f Func, x0, tol float64, maxIter int) (float64, error) {
	if f == nil {
		panic("rootfind: function may not be nil")
	}
	fPrime := func(x float64) float64 {
		h := 1e-7 * math.Max(math.Abs(x), 1)
		return (f(x+h) - f(x-h)) / (2 * h)
	}
	return NewtonRaphson(f, fPrime, x0, tol, maxIter)
}
