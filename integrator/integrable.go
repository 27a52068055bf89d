// Package integrator provides fixed-step explicit integrators with stepwise
// control, including undoing the latest step.
package integrator

// Integrable defines something which can be numerically integrated.
type Integrable interface {
	GetState() []float64                   // Latest state of this integrable.
	SetState(i uint64, s []float64)        // Set the state s after step i.
	Stop(i uint64) bool                    // Return whether to stop the integration after step i.
	Func(t float64, s []float64) []float64 // ODE function from time t and state s, must return a new state.
}
