package astro

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/sethhirsh/astro/integrator"
)

// StepSize is the default step size of propagation.
const StepSize = 10 * time.Second

/* Handles the astrodynamical propagations. */

// Mission propagates an orbit around its origin body, subject to the
// provided perturbations. It implements integrator.Integrable over the
// Cartesian state [r⃗ v⃗] and is driven by an integrator.FixedStep.
type Mission struct {
	Name                       string
	Orbit                      *Orbit // As pointer because the orbit changes during propagation.
	StartDT, StopDT, CurrentDT time.Time
	perts                      Perturbations
	step                       time.Duration
	scheme                     integrator.Scheme
	rk                         *integrator.FixedStep
	legStart                   time.Time
	stopChan                   chan bool
	histChan                   chan<- State
	logger                     kitlog.Logger
	wg                         sync.WaitGroup
	done, collided             bool
}

// NewMission is the same as NewPreciseMission with the default step size and
// the RK4 scheme.
func NewMission(name string, o *Orbit, start, end time.Time, perts Perturbations, conf ExportConfig) *Mission {
	return NewPreciseMission(name, o, start, end, perts, StepSize, integrator.RK4, conf)
}

// NewPreciseMission returns a new Mission with a custom step size and scheme.
func NewPreciseMission(name string, o *Orbit, start, end time.Time, perts Perturbations, step time.Duration, scheme integrator.Scheme, conf ExportConfig) *Mission {
	if step <= 0 {
		panic("mission: step size must be positive")
	}
	// Must switch to UTC as all ephemeris data is in UTC.
	if start.Location() != time.UTC {
		start = start.UTC()
	}
	if end.Location() != time.UTC {
		end = end.UTC()
	}
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "mission", name)
	m := &Mission{Name: name, Orbit: o, StartDT: start, StopDT: end, CurrentDT: start,
		perts: perts, step: step, scheme: scheme, logger: klog, stopChan: make(chan bool, 1)}
	if !conf.IsUseless() {
		histChan := make(chan State, 1000) // a 1k entry buffer
		m.histChan = histChan
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			StreamStates(conf, histChan)
		}()
		// Write the first data point.
		histChan <- State{m.CurrentDT, *o}
	}
	if end.Before(start) {
		m.logger.Log("level", "warning", "subsys", "astro", "message", "mission ends before it starts")
	}
	return m
}

// LogStatus logs the current date and orbit.
func (m *Mission) LogStatus() {
	m.logger.Log("level", "info", "subsys", "astro", "date", m.CurrentDT, "orbit", m.Orbit)
}

// PropagateUntil propagates until the given date is reached.
func (m *Mission) PropagateUntil(dt time.Time) error {
	m.StopDT = dt.UTC()
	return m.Propagate()
}

// Propagate advances the mission from its current date to its stop date, or
// until StopPropagation is called. On return the exporter, if any, has
// drained all streamed states.
func (m *Mission) Propagate() error {
	if !m.StopDT.After(m.CurrentDT) {
		m.logger.Log("level", "warning", "subsys", "astro", "message", "nothing to propagate")
		m.finalize()
		return nil
	}
	m.done = false
	m.LogStatus()
	// Periodic status report for long propagations.
	statusTicker := time.NewTicker(10 * time.Second)
	statusQuit := make(chan struct{})
	go func() {
		for {
			select {
			case <-statusTicker.C:
				m.LogStatus()
			case <-statusQuit:
				return
			}
		}
	}()
	m.legStart = m.CurrentDT
	m.rk = integrator.NewFixedStep(m.scheme, 0, m.step.Seconds(), m)
	err := m.rk.IntegrateTo(m.StopDT.Sub(m.legStart).Seconds())
	statusTicker.Stop()
	close(statusQuit)
	m.done = true
	duration := m.CurrentDT.Sub(m.StartDT)
	durStr := duration.String()
	if duration.Hours() > 24 {
		durStr += fmt.Sprintf(" (~%.3fd)", duration.Hours()/24)
	}
	m.logger.Log("level", "notice", "subsys", "astro", "status", "finished", "duration", durStr, "steps", m.rk.StepCount())
	m.LogStatus()
	m.finalize()
	if err != nil {
		return fmt.Errorf("propagating %s: %w", m.Name, err)
	}
	return nil
}

// StopPropagation is used to stop the propagation before it is completed.
func (m *Mission) StopPropagation() {
	m.stopChan <- true
}

// finalize closes the history stream and waits for the exporter to drain it.
func (m *Mission) finalize() {
	if m.histChan != nil {
		close(m.histChan)
		m.wg.Wait()
		m.histChan = nil
	}
}

// GetState returns the Cartesian state [r⃗ v⃗] for the integrator.
func (m *Mission) GetState() []float64 {
	s := make([]float64, 6)
	R, V := m.Orbit.RV()
	for i := 0; i < 3; i++ {
		s[i] = R[i]
		s[i+3] = V[i]
	}
	return s
}

// SetState is called by the integrator after each accepted step and after a
// rollback. The mission date follows the stepper interval, so a clipped
// final step or a rollback keeps the date exact.
func (m *Mission) SetState(i uint64, s []float64) {
	m.CurrentDT = m.dateAt(m.rk.CurrentInterval())
	R := []float64{s[0], s[1], s[2]}
	V := []float64{s[3], s[4], s[5]}
	*m.Orbit = *NewOrbitFromRV(R, V, m.Orbit.Origin)
	if m.histChan != nil {
		m.histChan <- State{m.CurrentDT, *m.Orbit}
	}
	// Orbit sanity checks and warnings.
	if !m.collided && m.Orbit.RNorm() < m.Orbit.Origin.Radius {
		m.collided = true
		m.logger.Log("level", "critical", "subsys", "astro", "collided", m.Orbit.Origin.Name, "dt", m.CurrentDT, "r", m.Orbit.RNorm(), "radius", m.Orbit.Origin.Radius)
	} else if m.collided && m.Orbit.RNorm() > m.Orbit.Origin.Radius*1.1 {
		// Now further than the 10% dead zone.
		m.collided = false
		m.logger.Log("level", "critical", "subsys", "astro", "revived", m.Orbit.Origin.Name, "dt", m.CurrentDT)
	}
}

// Stop implements the integrator's stop hook. To stop the propagation before
// the stop date, call StopPropagation.
func (m *Mission) Stop(i uint64) bool {
	select {
	case <-m.stopChan:
		return true
	default:
		return false
	}
}

// Func is the two-body dynamics with perturbations, in Cartesian form.
func (m *Mission) Func(t float64, f []float64) []float64 {
	R := []float64{f[0], f[1], f[2]}
	V := []float64{f[3], f[4], f[5]}
	tmpOrbit := NewOrbitFromRV(R, V, m.Orbit.Origin)
	bodyAcc := -tmpOrbit.Origin.μ / math.Pow(tmpOrbit.RNorm(), 3)
	fDot := make([]float64, 6)
	// d\vec{R}/dt
	fDot[0] = f[3]
	fDot[1] = f[4]
	fDot[2] = f[5]
	// d\vec{V}/dt
	fDot[3] = bodyAcc * f[0]
	fDot[4] = bodyAcc * f[1]
	fDot[5] = bodyAcc * f[2]
	pert := m.perts.Perturb(*tmpOrbit, m.dateAt(t))
	for i := 0; i < 6; i++ {
		fDot[i] += pert[i]
	}
	return fDot
}

func (m *Mission) dateAt(t float64) time.Time {
	return m.legStart.Add(time.Duration(t * float64(time.Second)))
}

// State stores a propagated state.
type State struct {
	DT    time.Time
	Orbit Orbit
}
