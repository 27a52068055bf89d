package main

import (
	"flag"
	"log"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sethhirsh/astro"
)

// Solves one boundary value problem from the command line.

var (
	r1Str, r2Str string
	bodyName     string
	branchName   string
	tof          time.Duration
	revs         int
	retrograde   bool
)

func init() {
	flag.StringVar(&r1Str, "r1", "", "initial position in km, comma separated (e.g. 15945.34,0,0)")
	flag.StringVar(&r2Str, "r2", "", "final position in km, comma separated")
	flag.DurationVar(&tof, "tof", 0, "time of flight (e.g. 76m)")
	flag.StringVar(&bodyName, "body", "Earth", "central body")
	flag.IntVar(&revs, "revs", 0, "number of revolutions")
	flag.StringVar(&branchName, "branch", "right", "multi revolution branch (left or right)")
	flag.BoolVar(&retrograde, "retrograde", false, "clockwise transfer")
}

func main() {
	flag.Parse()
	if r1Str == "" || r2Str == "" {
		log.Fatal("[error] both -r1 and -r2 are required")
	}
	body, err := astro.CelestialObjectFromString(bodyName)
	if err != nil {
		log.Fatalf("[error] %s", err)
	}
	R1 := parseVec(r1Str, "r1")
	R2 := parseVec(r2Str, "r2")
	dir := astro.Prograde
	if retrograde {
		dir = astro.Retrograde
	}
	var branch astro.Branch
	switch strings.ToLower(branchName) {
	case "left":
		branch = astro.LeftBranch
	case "right":
		branch = astro.RightBranch
	default:
		log.Fatalf("[error] unknown branch %q (want left or right)", branchName)
	}

	lt, err := astro.NewLambertTargeter(R1, R2, tof, dir, body)
	if err != nil {
		log.Fatalf("[error] %s", err)
	}
	log.Printf("[info] %s transfer of %.4f degrees about %s in %s", dir, astro.Rad2deg(lt.TransferAngle()), body.Name, tof)
	if nmax := lt.MaxRevolutions(); nmax > 0 {
		log.Printf("[info] up to %d revolutions fit in this time of flight", nmax)
	}
	sol, err := lt.ComputeForRevolutionsAndBranch(revs, branch)
	if err != nil {
		log.Fatalf("[error] %s", err)
	}
	if revs > 0 {
		log.Printf("[info] %d revolutions, %s branch", sol.Revs, sol.Branch)
	}
	log.Printf("[info] converged to x=%.9f (a=%.3f km) in %d iterations", sol.X, sol.A, sol.Iterations)
	v1 := sol.V1()
	v2 := sol.V2()
	log.Printf("[info] v1 = [%.6f %.6f %.6f] km/s (|v1|=%.6f)", v1.AtVec(0), v1.AtVec(1), v1.AtVec(2), mat.Norm(v1, 2))
	log.Printf("[info] v2 = [%.6f %.6f %.6f] km/s (|v2|=%.6f)", v2.AtVec(0), v2.AtVec(1), v2.AtVec(2), mat.Norm(v2, 2))
	log.Printf("[info] radial/transverse split: departure (%.6f, %.6f), arrival (%.6f, %.6f) km/s",
		sol.Vr1(), sol.Vt1(), sol.Vr2(), sol.Vt2())
}

func parseVec(s, name string) *mat.VecDense {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		log.Fatalf("[error] -%s must have three comma separated components, got %q", name, s)
	}
	v := make([]float64, 3)
	for i, p := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Fatalf("[error] -%s component %d: %s", name, i, err)
		}
		v[i] = val
	}
	return mat.NewVecDense(3, v)
}
