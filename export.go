package astro

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the exporting of a propagation.
type ExportConfig struct {
	Filename     string
	AsCSV        bool
	Timestamp    bool                    // Append the creation timestamp to the file name
	CSVAppend    func(st State) []string // Custom columns
	CSVAppendHdr func() []string         // Headers for the custom columns
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV
}

// createCSVFile returns a file which requires a defer close statement!
func createCSVFile(conf ExportConfig, stateDT time.Time) *os.File {
	config := astroConfig()
	var filename string
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("%s/states-%s-%d-%02d-%02dT%02d.%02d.%02d.csv", config.outputDir, conf.Filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/states-%s.csv", config.outputDir, conf.Filename)
	}
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Angles in degrees, distances in km, velocities in km/s
# Simulation time start (UTC): %s
`, time.Now(), stateDT.UTC()))
	return f
}

// StreamStates streams the states off the channel into the configured CSV
// file until the channel closes. States closer than one step are skipped to
// keep the file size in check.
func StreamStates(conf ExportConfig, stateChan <-chan State) {
	if conf.IsUseless() {
		// Still drain the channel so the mission does not block.
		for range stateChan {
		}
		return
	}
	var f *os.File
	var w *csv.Writer
	var prevDT time.Time
	started := false
	for state := range stateChan {
		if !started {
			f = createCSVFile(conf, state.DT)
			w = csv.NewWriter(f)
			hdr := []string{"time", "jd", "a", "e", "i", "Omega", "omega", "nu", "rX", "rY", "rZ", "vX", "vY", "vZ"}
			if conf.CSVAppendHdr != nil {
				hdr = append(hdr, conf.CSVAppendHdr()...)
			}
			if err := w.Write(hdr); err != nil {
				panic(err)
			}
			started = true
		} else if state.DT.Sub(prevDT) < StepSize {
			continue
		}
		prevDT = state.DT
		a, e, i, Ω, ω, ν, _, _, _ := state.Orbit.Elements()
		R, V := state.Orbit.RV()
		record := []string{
			state.DT.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(julian.TimeToJD(state.DT), 'f', 6, 64),
			strconv.FormatFloat(a, 'f', 3, 64),
			strconv.FormatFloat(e, 'f', 6, 64),
			strconv.FormatFloat(Rad2deg(i), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(Ω), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(ω), 'f', 3, 64),
			strconv.FormatFloat(Rad2deg(ν), 'f', 3, 64),
		}
		for j := 0; j < 3; j++ {
			record = append(record, strconv.FormatFloat(R[j], 'f', 3, 64))
		}
		for j := 0; j < 3; j++ {
			record = append(record, strconv.FormatFloat(V[j], 'f', 6, 64))
		}
		if conf.CSVAppend != nil {
			record = append(record, conf.CSVAppend(state)...)
		}
		if err := w.Write(record); err != nil {
			panic(err)
		}
	}
	if started {
		w.Flush()
		if err := w.Error(); err != nil {
			panic(err)
		}
		f.WriteString(fmt.Sprintf("# Simulation time end (UTC): %s\n", prevDT.UTC()))
		f.Close()
	}
}
