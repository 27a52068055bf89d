package astro

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	kitlog "github.com/go-kit/log"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PorkchopGrid holds the surfaces of a launch window sweep. Rows are launch
// epochs and columns arrival epochs.
type PorkchopGrid struct {
	Departure, Arrival CelestialObject
	LaunchEpochs       []time.Time
	ArrivalEpochs      []time.Time
	C3                 *mat.Dense // km²/s² (or km/s if built with plotC3 unset)
	TOFDays            *mat.Dense
	VInf               *mat.Dense // arrival v∞, km/s
}

// PCPGenerator sweeps the launch and arrival windows, solving the boundary
// value problem between the ephemeris states of both planets for each pair
// of epochs. Infeasible pairs are stored as NaN. When plotC3 is unset, the
// first surface holds the departure v∞ instead of the C3.
func PCPGenerator(initPlanet, arrivalPlanet CelestialObject, initLaunch, maxLaunch, initArrival, maxArrival time.Time, ptsPerLaunchDay, ptsPerArrivalDay float64, dir Direction, plotC3, verbose bool) *PorkchopGrid {
	if !maxLaunch.After(initLaunch) || !maxArrival.After(initArrival) {
		panic("porkchop: empty launch or arrival window")
	}
	if ptsPerLaunchDay <= 0 || ptsPerArrivalDay <= 0 {
		panic("porkchop: points per day must be positive")
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "subsys", "porkchop", "from", initPlanet.Name, "to", arrivalPlanet.Name)
	launchWindow := int(maxLaunch.Sub(initLaunch).Hours() / 24)    // days
	arrivalWindow := int(maxArrival.Sub(initArrival).Hours() / 24) // days
	rows := int(float64(launchWindow) * ptsPerLaunchDay)
	cols := int(float64(arrivalWindow) * ptsPerArrivalDay)
	grid := &PorkchopGrid{
		Departure:     initPlanet,
		Arrival:       arrivalPlanet,
		LaunchEpochs:  make([]time.Time, rows),
		ArrivalEpochs: make([]time.Time, cols),
		C3:            mat.NewDense(rows, cols, nil),
		TOFDays:       mat.NewDense(rows, cols, nil),
		VInf:          mat.NewDense(rows, cols, nil),
	}
	if verbose {
		logger.Log("level", "info", "launchDays", launchWindow, "arrivalDays", arrivalWindow, "grid", fmt.Sprintf("%dx%d", rows, cols))
	}
	// The arrival states do not depend on the launch epoch, so compute each
	// column once.
	arrivalR := make([]*mat.VecDense, cols)
	arrivalV := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		arrivalDT := initArrival.Add(time.Duration(float64(j)/ptsPerArrivalDay*24) * time.Hour)
		grid.ArrivalEpochs[j] = arrivalDT
		arrOrbit := arrivalPlanet.HelioOrbit(arrivalDT)
		arrivalR[j] = mat.NewVecDense(3, arrOrbit.R())
		arrivalV[j] = arrOrbit.V()
	}
	var feasibleC3s []float64
	for i := 0; i < rows; i++ {
		launchDT := initLaunch.Add(time.Duration(float64(i)/ptsPerLaunchDay*24) * time.Hour)
		grid.LaunchEpochs[i] = launchDT
		initOrbit := initPlanet.HelioOrbit(launchDT)
		initR := mat.NewVecDense(3, initOrbit.R())
		initV := initOrbit.V()
		if verbose {
			logger.Log("level", "info", "launch", launchDT.Format("2006-01-02"))
		}
		for j := 0; j < cols; j++ {
			tof := grid.ArrivalEpochs[j].Sub(launchDT)
			c3 := math.NaN()
			vInfArrival := math.NaN()
			grid.TOFDays.Set(i, j, tof.Hours()/24)
			if tof > 0 {
				if sol, err := solveTransfer(initR, arrivalR[j], tof, dir); err == nil {
					v1 := sol.V1()
					v2 := sol.V2()
					vInfDep := make([]float64, 3)
					vInfArr := make([]float64, 3)
					for k := 0; k < 3; k++ {
						vInfDep[k] = v1.AtVec(k) - initV[k]
						vInfArr[k] = arrivalV[j][k] - v2.AtVec(k)
					}
					// WARNING: when not plotting the C3, the first surface
					// holds the departure v∞ instead.
					if plotC3 {
						c3 = math.Pow(norm(vInfDep), 2)
					} else {
						c3 = norm(vInfDep)
					}
					vInfArrival = norm(vInfArr)
					feasibleC3s = append(feasibleC3s, c3)
				} else if verbose {
					logger.Log("level", "debug", "launch", launchDT.Format("2006-01-02"), "arrival", grid.ArrivalEpochs[j].Format("2006-01-02"), "err", err)
				}
			}
			grid.C3.Set(i, j, c3)
			grid.VInf.Set(i, j, vInfArrival)
		}
	}
	if len(feasibleC3s) > 0 {
		μ, σ := stat.MeanStdDev(feasibleC3s, nil)
		logger.Log("level", "notice", "status", "finished", "feasible", len(feasibleC3s), "of", rows*cols, "meanC3", fmt.Sprintf("%.3f", μ), "stddevC3", fmt.Sprintf("%.3f", σ))
	} else {
		logger.Log("level", "warning", "status", "finished", "message", "no feasible transfer in the window")
	}
	return grid
}

// solveTransfer is the single cell Lambert call of the sweep.
func solveTransfer(R1, R2 *mat.VecDense, tof time.Duration, dir Direction) (*LambertSolution, error) {
	lt, err := NewLambertTargeter(R1, R2, tof, dir, Sun)
	if err != nil {
		return nil, err
	}
	return lt.Solve()
}

// Best returns the launch and arrival epochs with the lowest finite value of
// the first surface, along with that value. It errors when the whole grid is
// infeasible.
func (g *PorkchopGrid) Best() (launch, arrival time.Time, c3 float64, err error) {
	rows, cols := g.C3.Dims()
	type cell struct{ i, j int }
	cells := make([]cell, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !math.IsNaN(g.C3.At(i, j)) {
				cells = append(cells, cell{i, j})
			}
		}
	}
	if len(cells) == 0 {
		return time.Time{}, time.Time{}, 0, errors.New("porkchop: no feasible transfer in the window")
	}
	best := slices.MinFunc(cells, func(a, b cell) int {
		va, vb := g.C3.At(a.i, a.j), g.C3.At(b.i, b.j)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return 0
		}
	})
	return g.LaunchEpochs[best.i], g.ArrivalEpochs[best.j], g.C3.At(best.i, best.j), nil
}

// WriteCSV writes the surfaces to contour-<name>-{c3,tof,vinf,dates}.csv in
// the configured output directory. Rows are launch epochs, columns arrival
// epochs; the dates file carries both epoch lists.
func (g *PorkchopGrid) WriteCSV(name string) error {
	outDir := astroConfig().outputDir
	for _, surf := range []struct {
		suffix string
		m      *mat.Dense
	}{{"c3", g.C3}, {"tof", g.TOFDays}, {"vinf", g.VInf}} {
		if err := writeSurface(fmt.Sprintf("%s/contour-%s-%s.csv", outDir, name, surf.suffix), surf.m); err != nil {
			return fmt.Errorf("writing %s surface: %w", surf.suffix, err)
		}
	}
	f, err := os.Create(fmt.Sprintf("%s/contour-%s-dates.csv", outDir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	launch := make([]string, len(g.LaunchEpochs)+1)
	launch[0] = "launch"
	for i, dt := range g.LaunchEpochs {
		launch[i+1] = dt.Format("2006-01-02")
	}
	arrival := make([]string, len(g.ArrivalEpochs)+1)
	arrival[0] = "arrival"
	for j, dt := range g.ArrivalEpochs {
		arrival[j+1] = dt.Format("2006-01-02")
	}
	w.Write(launch)
	w.Write(arrival)
	w.Flush()
	return w.Error()
}

func writeSurface(filename string, m *mat.Dense) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'f', 6, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
