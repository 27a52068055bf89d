package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	lambertTolerance     = 1e-9 // on the iterate, not the time of flight
	lambertMaxIterations = 50
	// Switching distances from the parabola x=1: Battin series inside the
	// inner band, Lagrange form inside the outer band, Lancaster-Blanchard
	// beyond.
	battinBand   = 0.01
	lagrangeBand = 0.2
)

var (
	// ErrInvalidGeometry is returned when the boundary value problem is not
	// defined for the provided vectors and time of flight.
	ErrInvalidGeometry = errors.New("lambert: invalid transfer geometry")
	// ErrLambertConvergence is returned when the Householder iteration does
	// not settle within the iteration budget.
	ErrLambertConvergence = errors.New("lambert: iteration did not converge")
	// ErrTooManyRevolutions is returned when the time of flight is too short
	// for the requested revolution count.
	ErrTooManyRevolutions = errors.New("lambert: too many revolutions for time of flight")
)

// Direction sets the sense of motion of a transfer.
type Direction uint8

const (
	// Prograde moves counterclockwise as seen from the north pole.
	Prograde Direction = iota
	// Retrograde moves clockwise as seen from the north pole.
	Retrograde
)

func (d Direction) String() string {
	switch d {
	case Prograde:
		return "prograde"
	case Retrograde:
		return "retrograde"
	default:
		panic("unknown direction")
	}
}

// Branch selects one of the two conics which exist for each feasible
// revolution count above zero.
type Branch uint8

const (
	// LeftBranch is the long-period solution (iterate left of the minimum).
	LeftBranch Branch = iota
	// RightBranch is the short-period solution.
	RightBranch
)

func (b Branch) String() string {
	switch b {
	case LeftBranch:
		return "left"
	case RightBranch:
		return "right"
	default:
		panic("unknown branch")
	}
}

// LambertSolution is one conic solving the boundary value problem. Its Branch
// is only meaningful when Revs is greater than zero.
type LambertSolution struct {
	Revs       int
	Branch     Branch
	X          float64 // converged iterate of the Izzo formulation
	A          float64 // semi-major axis in km, negative on hyperbolic arcs
	Iterations int
	v1, v2     []float64
	vr1, vt1   float64 // radial and transverse components at departure, km/s
	vr2, vt2   float64 // and at arrival
}

// V1 returns the velocity at the initial position, in km/s.
func (s LambertSolution) V1() *mat.VecDense {
	return mat.NewVecDense(3, append([]float64{}, s.v1...))
}

// V2 returns the velocity at the final position, in km/s.
func (s LambertSolution) V2() *mat.VecDense {
	return mat.NewVecDense(3, append([]float64{}, s.v2...))
}

// Vr1 returns the radial velocity component at the initial position, in km/s.
func (s LambertSolution) Vr1() float64 {
	return s.vr1
}

// Vt1 returns the transverse velocity component at the initial position, in
// km/s.
func (s LambertSolution) Vt1() float64 {
	return s.vt1
}

// Vr2 returns the radial velocity component at the final position, in km/s.
func (s LambertSolution) Vr2() float64 {
	return s.vr2
}

// Vt2 returns the transverse velocity component at the final position, in
// km/s.
func (s LambertSolution) Vt2() float64 {
	return s.vt2
}

// LambertTargeter solves the two point boundary value problem between two
// position vectors for a given time of flight, after Izzo 2015. The geometry
// is non-dimensionalized once at construction; the zero revolution solution
// is computed lazily and memoized, and multi revolution solutions share the
// same geometry.
type LambertTargeter struct {
	Δt       time.Duration
	body     CelestialObject
	dir      Direction
	tol      float64
	maxIters int

	// Non-dimensional geometry, fixed at construction.
	r1, r2, c, s, λ, T float64
	θ                  float64
	ir1, ir2, it1, it2 []float64

	nmax       int
	nmaxValid  bool
	zeroRev    *LambertSolution
	zeroRevErr error
	solved     bool
}

// NewLambertTargeter returns a targeter with the default tolerance on the
// iterate and the default iteration budget.
func NewLambertTargeter(R1, R2 *mat.VecDense, Δt time.Duration, dir Direction, body CelestialObject) (*LambertTargeter, error) {
	return NewPreciseLambertTargeter(R1, R2, Δt, dir, body, lambertTolerance, lambertMaxIterations)
}

// NewPreciseLambertTargeter returns a targeter with explicit control of the
// tolerance and iteration budget. The geometry is validated and
// non-dimensionalized here; degenerate inputs return ErrInvalidGeometry.
func NewPreciseLambertTargeter(R1, R2 *mat.VecDense, Δt time.Duration, dir Direction, body CelestialObject, tolerance float64, maxIterations int) (*LambertTargeter, error) {
	if R1 == nil || R2 == nil {
		panic("lambert: position vectors may not be nil")
	}
	if R1.Len() != 3 || R2.Len() != 3 {
		panic("lambert: position vectors must have three components")
	}
	if tolerance <= 0 {
		panic("lambert: tolerance must be positive")
	}
	if maxIterations <= 0 {
		panic("lambert: maxIterations must be positive")
	}
	if Δt <= 0 {
		return nil, fmt.Errorf("%w: time of flight %s is not positive", ErrInvalidGeometry, Δt)
	}
	if body.μ <= 0 {
		return nil, fmt.Errorf("%w: non positive gravitational parameter for %s", ErrInvalidGeometry, body.Name)
	}
	rv1 := vecSlice(R1)
	rv2 := vecSlice(R2)
	r1 := norm(rv1)
	r2 := norm(rv2)
	if r1 == 0 || r2 == 0 {
		return nil, fmt.Errorf("%w: zero norm position vector", ErrInvalidGeometry)
	}
	chord := []float64{rv2[0] - rv1[0], rv2[1] - rv1[1], rv2[2] - rv1[2]}
	c := norm(chord)
	if c == 0 {
		return nil, fmt.Errorf("%w: positions coincide", ErrInvalidGeometry)
	}
	hVec := cross(rv1, rv2)
	if norm(hVec) == 0 {
		return nil, fmt.Errorf("%w: transfer angle of 0 or π leaves the plane undefined", ErrInvalidGeometry)
	}
	ih := unit(hVec)
	if ih[2] == 0 {
		return nil, fmt.Errorf("%w: transfer plane contains the pole, sense of motion is ambiguous", ErrInvalidGeometry)
	}

	s := (r1 + r2 + c) / 2
	λ := math.Sqrt(1 - c/s)
	ir1 := unit(rv1)
	ir2 := unit(rv2)
	var it1, it2 []float64
	if ih[2] < 0 {
		// Transfer angle above π: the prograde normal points south.
		λ = -λ
		it1 = unit(cross(ir1, ih))
		it2 = unit(cross(ir2, ih))
	} else {
		it1 = unit(cross(ih, ir1))
		it2 = unit(cross(ih, ir2))
	}
	if dir == Retrograde {
		λ = -λ
		for j := 0; j < 3; j++ {
			it1[j] = -it1[j]
			it2[j] = -it2[j]
		}
	}
	θ := math.Acos(clampCos(dot(ir1, ir2)))
	if λ < 0 {
		θ = 2*math.Pi - θ
	}
	T := math.Sqrt(2*body.μ/math.Pow(s, 3)) * Δt.Seconds()

	return &LambertTargeter{Δt: Δt, body: body, dir: dir, tol: tolerance, maxIters: maxIterations,
		r1: r1, r2: r2, c: c, s: s, λ: λ, T: T, θ: θ, ir1: ir1, ir2: ir2, it1: it1, it2: it2}, nil
}

// Geometry returns the memoized non-dimensional geometry: the chord, the
// semi-perimeter, the Izzo λ parameter and the non-dimensional time of flight.
func (lt *LambertTargeter) Geometry() (c, s, λ, T float64) {
	return lt.c, lt.s, lt.λ, lt.T
}

// TransferAngle returns the swept angle in the direction of motion, in
// radians, within (0, 2π).
func (lt *LambertTargeter) TransferAngle() float64 {
	return lt.θ
}

// Solve computes the zero revolution solution. The result is memoized, so
// repeated calls (and the V1/V2/SemiMajorAxis accessors) are cheap.
func (lt *LambertTargeter) Solve() (*LambertSolution, error) {
	if !lt.solved {
		lt.zeroRev, lt.zeroRevErr = lt.computeZeroRev()
		lt.solved = true
	}
	return lt.zeroRev, lt.zeroRevErr
}

// V1 returns the zero revolution velocity at the initial position, in km/s.
func (lt *LambertTargeter) V1() (*mat.VecDense, error) {
	sol, err := lt.Solve()
	if err != nil {
		return nil, err
	}
	return sol.V1(), nil
}

// V2 returns the zero revolution velocity at the final position, in km/s.
func (lt *LambertTargeter) V2() (*mat.VecDense, error) {
	sol, err := lt.Solve()
	if err != nil {
		return nil, err
	}
	return sol.V2(), nil
}

// SemiMajorAxis returns the semi-major axis of the zero revolution conic, in
// km. It is negative for hyperbolic transfers and +Inf for the parabolic
// limit.
func (lt *LambertTargeter) SemiMajorAxis() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.A, nil
}

// XIterate returns the converged iterate of the zero revolution solution.
func (lt *LambertTargeter) XIterate() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.X, nil
}

// Vr1 returns the zero revolution radial velocity at the initial position, in
// km/s.
func (lt *LambertTargeter) Vr1() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.vr1, nil
}

// Vt1 returns the zero revolution transverse velocity at the initial
// position, in km/s.
func (lt *LambertTargeter) Vt1() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.vt1, nil
}

// Vr2 returns the zero revolution radial velocity at the final position, in
// km/s.
func (lt *LambertTargeter) Vr2() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.vr2, nil
}

// Vt2 returns the zero revolution transverse velocity at the final position,
// in km/s.
func (lt *LambertTargeter) Vt2() (float64, error) {
	sol, err := lt.Solve()
	if err != nil {
		return 0, err
	}
	return sol.vt2, nil
}

// MaxRevolutions returns the largest revolution count for which this time of
// flight still admits a solution. Hyperbolic transfers return zero.
func (lt *LambertTargeter) MaxRevolutions() int {
	if lt.nmaxValid {
		return lt.nmax
	}
	nmax := int(lt.T / math.Pi)
	T00 := math.Acos(lt.λ) + lt.λ*math.Sqrt(1-lt.λ*lt.λ)
	if nmax > 0 && lt.T < T00+float64(nmax)*math.Pi {
		// The floor estimate may overshoot by one: find the actual minimum
		// of the nmax revolution time curve by Halley iteration on dT/dx.
		Tmin := T00 + float64(nmax)*math.Pi
		xold, xnew := 0.0, 0.0
		for it := 0; it < 12; it++ {
			DT, DDT, DDDT := lt.dTdx(xold, Tmin)
			if DT != 0 {
				xnew = xold - DT*DDT/(DDT*DDT-DT*DDDT/2)
			}
			if math.Abs(xold-xnew) < 1e-13 {
				break
			}
			Tmin = lt.x2tof(xnew, nmax)
			xold = xnew
		}
		if Tmin > lt.T {
			nmax--
		}
	}
	lt.nmax = nmax
	lt.nmaxValid = true
	return nmax
}

// ComputeForRevolutionsAndBranch computes the solution for the given
// revolution count and branch. A count of zero delegates to Solve and
// ignores the branch; a negative count is rejected as an invalid argument.
func (lt *LambertTargeter) ComputeForRevolutionsAndBranch(revs int, branch Branch) (*LambertSolution, error) {
	if revs < 0 {
		return nil, fmt.Errorf("%w: negative revolution count %d", ErrInvalidGeometry, revs)
	}
	if revs == 0 {
		return lt.Solve()
	}
	if nmax := lt.MaxRevolutions(); revs > nmax {
		return nil, fmt.Errorf("%w: %d requested but at most %d fit in %s", ErrTooManyRevolutions, revs, nmax, lt.Δt)
	}
	var x0 float64
	switch branch {
	case LeftBranch:
		tmp := math.Pow((float64(revs)*math.Pi+math.Pi)/(8*lt.T), 2.0/3.0)
		x0 = (tmp - 1) / (tmp + 1)
	case RightBranch:
		tmp := math.Pow(8*lt.T/(float64(revs)*math.Pi), 2.0/3.0)
		x0 = (tmp - 1) / (tmp + 1)
	default:
		panic(fmt.Sprintf("lambert: unknown branch %d", branch))
	}
	x, iters, err := lt.householder(x0, revs)
	if err != nil {
		return nil, err
	}
	return lt.solutionFor(x, revs, branch, iters), nil
}

func (lt *LambertTargeter) computeZeroRev() (*LambertSolution, error) {
	x, iters, err := lt.householder(lt.initialGuess(), 0)
	if err != nil {
		return nil, err
	}
	return lt.solutionFor(x, 0, LeftBranch, iters), nil
}

// initialGuess seeds the zero revolution iteration from the single-parameter
// fits of Izzo 2015.
func (lt *LambertTargeter) initialGuess() float64 {
	λ := lt.λ
	T := lt.T
	T00 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
	T1 := (2.0 / 3.0) * (1 - λ*λ*λ)
	switch {
	case T >= T00:
		return -(T - T00) / (T - T00 + 4)
	case T <= T1:
		return T1*(T1-T)/((2.0/5.0)*(1-math.Pow(λ, 5))*T) + 1
	default:
		return math.Pow(T/T00, math.Ln2/math.Log(T1/T00)) - 1
	}
}

// householder runs the third order root finding iteration on T(x)-T★ for the
// given revolution count, starting from x0.
func (lt *LambertTargeter) householder(x0 float64, revs int) (x float64, iters int, err error) {
	x = x0
	for iters = 1; iters <= lt.maxIters; iters++ {
		tof := lt.x2tof(x, revs)
		DT, DDT, DDDT := lt.dTdx(x, tof)
		Δ := tof - lt.T
		DT2 := DT * DT
		xnew := x - Δ*(DT2-Δ*DDT/2)/(DT*(DT2-Δ*DDT)+DDDT*Δ*Δ/6)
		if math.IsNaN(xnew) || math.IsInf(xnew, 0) {
			return x, iters, fmt.Errorf("%w: iterate diverged from x=%g after %d iterations (%d revs)", ErrLambertConvergence, x, iters, revs)
		}
		converged := math.Abs(x-xnew) <= lt.tol
		x = xnew
		if converged {
			return x, iters, nil
		}
	}
	return x, lt.maxIters, fmt.Errorf("%w: |Δx| still above %g after %d iterations (%d revs)", ErrLambertConvergence, lt.tol, lt.maxIters, revs)
}

// dTdx returns the first three derivatives of the time of flight curve at x.
func (lt *LambertTargeter) dTdx(x, T float64) (DT, DDT, DDDT float64) {
	λ2 := lt.λ * lt.λ
	λ3 := λ2 * lt.λ
	λ5 := λ3 * λ2
	y := math.Sqrt(1 - λ2*(1-x*x))
	y3 := y * y * y
	y5 := y3 * y * y
	umx2 := 1 - x*x
	DT = (3*T*x - 2 + 2*λ3*x/y) / umx2
	DDT = (3*T + 5*x*DT + 2*(1-λ2)*λ3/y3) / umx2
	DDDT = (7*x*DDT + 8*DT - 6*(1-λ2)*λ5*x/y5) / umx2
	return
}

// x2tof computes the non-dimensional time of flight at iterate x for the
// given revolution count. The Lancaster-Blanchard form is used far from the
// parabola, the Lagrange form in the intermediate band, and the Battin
// series inside the band where both others lose digits to cancellation.
func (lt *LambertTargeter) x2tof(x float64, revs int) float64 {
	dist := math.Abs(x - 1)
	if dist > battinBand && dist < lagrangeBand {
		return lt.lagrangeTOF(x, revs)
	}
	K := lt.λ * lt.λ
	E := x*x - 1
	ρ := math.Abs(E)
	z := math.Sqrt(1 + K*E)
	if dist < battinBand {
		η := z - lt.λ*x
		S1 := (1 - lt.λ - x*η) * 0.5
		Q := (4.0 / 3.0) * hypergeometricF(S1)
		return (η*η*η*Q+4*lt.λ*η)*0.5 + float64(revs)*math.Pi/math.Pow(ρ, 1.5)
	}
	y := math.Sqrt(ρ)
	g := x*z - lt.λ*E
	var d float64
	if E < 0 {
		d = float64(revs)*math.Pi + math.Acos(g)
	} else {
		d = math.Log(y*(z-lt.λ*x) + g)
	}
	return (x - lt.λ*z - d/y) / E
}

// lagrangeTOF is the classical Lagrange expression of the time of flight, in
// terms of the non-dimensional semi-major axis.
func (lt *LambertTargeter) lagrangeTOF(x float64, revs int) float64 {
	a := 1 / (1 - x*x)
	if a > 0 {
		α := 2 * math.Acos(x)
		β := 2 * math.Asin(math.Sqrt(lt.λ*lt.λ/a))
		if lt.λ < 0 {
			β = -β
		}
		return (a * math.Sqrt(a) * ((α - math.Sin(α)) - (β - math.Sin(β)) + 2*math.Pi*float64(revs))) / 2
	}
	α := 2 * math.Acosh(x)
	β := 2 * math.Asinh(math.Sqrt(-lt.λ*lt.λ/a))
	if lt.λ < 0 {
		β = -β
	}
	return -(a * math.Sqrt(-a) * ((β - math.Sinh(β)) - (α - math.Sinh(α)))) / 2
}

// solutionFor reconstitutes the dimensional conic and terminal velocities
// from a converged iterate.
func (lt *LambertTargeter) solutionFor(x float64, revs int, branch Branch, iters int) *LambertSolution {
	λ := lt.λ
	y := math.Sqrt(1 - λ*λ*(1-x*x))
	γ := math.Sqrt(lt.body.μ * lt.s / 2)
	ρ := (lt.r1 - lt.r2) / lt.c
	σ := math.Sqrt(1 - ρ*ρ)
	vr1 := γ * ((λ*y - x) - ρ*(λ*y+x)) / lt.r1
	vr2 := -γ * ((λ*y - x) + ρ*(λ*y+x)) / lt.r2
	vt := γ * σ * (y + λ*x)
	vt1 := vt / lt.r1
	vt2 := vt / lt.r2
	v1 := make([]float64, 3)
	v2 := make([]float64, 3)
	for j := 0; j < 3; j++ {
		v1[j] = vr1*lt.ir1[j] + vt1*lt.it1[j]
		v2[j] = vr2*lt.ir2[j] + vt2*lt.it2[j]
	}
	a := (lt.s / 2) / (1 - x*x)
	return &LambertSolution{Revs: revs, Branch: branch, X: x, A: a, Iterations: iters,
		v1: v1, v2: v2, vr1: vr1, vt1: vt1, vr2: vr2, vt2: vt2}
}

// hypergeometricF evaluates the Gauss series 2F1(3, 1; 5/2; z), which
// converges for |z| < 1.
func hypergeometricF(z float64) float64 {
	Sj, Cj := 1.0, 1.0
	for j := 0.0; math.Abs(Cj) > 1e-11; j++ {
		Cj = Cj * (3 + j) * (1 + j) / (2.5 + j) * z / (j + 1)
		Sj += Cj
	}
	return Sj
}
