package integrator

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFiniteState means a step produced a NaN or infinite state component,
// typically from a singularity in the differential equations.
var ErrNonFiniteState = errors.New("state is no longer finite")

// intervalε bounds the leftover interval treated as already-at-target,
// relative to the magnitude of the target.
const intervalε = 1e-14

// Scheme selects the explicit stepping rule used by FixedStep.
type Scheme uint8

const (
	// Euler is the explicit first-order rule.
	Euler Scheme = iota
	// Heun is the two-stage trapezoidal predictor-corrector rule.
	Heun
	// RK4 is the classical fourth-order Runge-Kutta rule.
	RK4
)

func (s Scheme) String() string {
	switch s {
	case Euler:
		return "Euler"
	case Heun:
		return "Heun"
	case RK4:
		return "RK4"
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// Stages returns the number of derivative evaluations per step.
func (s Scheme) Stages() int {
	switch s {
	case Euler:
		return 1
	case Heun:
		return 2
	case RK4:
		return 4
	}
	return 0
}

// FixedStep advances an Integrable one fixed-size step at a time. It retains
// the time and state which preceded the latest step, so that single step can
// be undone.
type FixedStep struct {
	scheme      Scheme
	stepSize    float64
	t           float64
	state       []float64
	prevT       float64
	prevState   []float64
	canRollback bool
	steps       uint64
	integ       Integrable
}

// NewFixedStep returns a stepper which reads its initial state off the
// provided integrable. The step size sets the magnitude of each step taken by
// IntegrateTo; direction comes from the position of the target.
// Panics on a nil integrable or a non-positive step size.
func NewFixedStep(scheme Scheme, t0, stepSize float64, integ Integrable) *FixedStep {
	if integ == nil {
		panic("integrator: integrable may not be nil")
	}
	if stepSize <= 0 {
		panic("integrator: stepSize must be positive")
	}
	return &FixedStep{
		scheme:   scheme,
		stepSize: stepSize,
		t:        t0,
		state:    append([]float64(nil), integ.GetState()...),
		integ:    integ,
	}
}

// CurrentInterval returns the current value of the independent variable.
func (f *FixedStep) CurrentInterval() float64 {
	return f.t
}

// CurrentState returns a copy of the current state vector.
func (f *FixedStep) CurrentState() []float64 {
	return append([]float64(nil), f.state...)
}

// StepCount returns the number of steps performed and not undone.
func (f *FixedStep) StepCount() uint64 {
	return f.steps
}

// Scheme returns the stepping rule in use.
func (f *FixedStep) Scheme() Scheme {
	return f.scheme
}

// PerformStep advances the integrable by a single step of size h. The sign of
// h sets the direction. On success the pre-step time and state are retained
// for RollbackToPreviousState. A failed step leaves the stepper untouched.
func (f *FixedStep) PerformStep(h float64) error {
	next, err := stepOnce(f.scheme, f.integ.Func, f.t, f.state, h)
	if err != nil {
		return err
	}
	f.prevT = f.t
	f.prevState = append(f.prevState[:0], f.state...)
	f.t += h
	f.state = next
	f.steps++
	f.canRollback = true
	f.integ.SetState(f.steps, append([]float64(nil), next...))
	return nil
}

// RollbackToPreviousState undoes the most recent step, restoring the time and
// state which preceded it. Only one step of history is retained: the call
// reports false, and restores nothing, until another step has been performed.
func (f *FixedStep) RollbackToPreviousState() bool {
	if !f.canRollback {
		return false
	}
	f.t = f.prevT
	f.state = append(f.state[:0], f.prevState...)
	f.steps--
	f.canRollback = false
	f.integ.SetState(f.steps, append([]float64(nil), f.state...))
	return true
}

// IntegrateTo steps from the current interval value to target, clipping the
// final step so the integration lands on target exactly. The integrable's
// Stop hook is honored between steps. A target equal to the current interval
// performs no step.
func (f *FixedStep) IntegrateTo(target float64) error {
	for {
		remaining := target - f.t
		if math.Abs(remaining) <= intervalε*math.Max(1, math.Abs(target)) {
			f.t = target
			return nil
		}
		if f.integ.Stop(f.steps) {
			return nil
		}
		h := math.Copysign(f.stepSize, remaining)
		if math.Abs(remaining) < f.stepSize {
			h = remaining
		}
		if err := f.PerformStep(h); err != nil {
			return err
		}
	}
}

func stepOnce(scheme Scheme, deriv func(float64, []float64) []float64, t float64, state []float64, h float64) ([]float64, error) {
	n := len(state)
	next := make([]float64, n)
	switch scheme {
	case Euler:
		k1 := deriv(t, state)
		for i := 0; i < n; i++ {
			next[i] = state[i] + h*k1[i]
		}
	case Heun:
		k1 := deriv(t, state)
		trial := make([]float64, n)
		for i := 0; i < n; i++ {
			trial[i] = state[i] + h*k1[i]
		}
		k2 := deriv(t+h, trial)
		for i := 0; i < n; i++ {
			next[i] = state[i] + 0.5*h*(k1[i]+k2[i])
		}
	case RK4:
		halfH := 0.5 * h
		tmp := make([]float64, n)
		k1 := deriv(t, state)
		for i := 0; i < n; i++ {
			tmp[i] = state[i] + halfH*k1[i]
		}
		k2 := deriv(t+halfH, tmp)
		for i := 0; i < n; i++ {
			tmp[i] = state[i] + halfH*k2[i]
		}
		k3 := deriv(t+halfH, tmp)
		for i := 0; i < n; i++ {
			tmp[i] = state[i] + h*k3[i]
		}
		k4 := deriv(t+h, tmp)
		for i := 0; i < n; i++ {
			next[i] = state[i] + h*(k1[i]+2*k2[i]+2*k3[i]+k4[i])/6
		}
	default:
		panic(fmt.Sprintf("integrator: unknown scheme %d", uint8(scheme)))
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(next[i]) || math.IsInf(next[i], 0) {
			return nil, fmt.Errorf("integrator: %w at t=%g (component %d)", ErrNonFiniteState, t+h, i)
		}
	}
	return next, nil
}
