package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sethhirsh/astro"
)

// Sweeps a launch window from a TOML scenario and writes the contour files.

const (
	defaultScenario = "~~unset~~"
	dateFormat      = "2006-01-02"
)

var (
	scenario string
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "porkchop scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "print per launch day progress")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("[error] no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("[error] ./%s.toml: %s", scenario, err)
	}

	from := mustBody("window.from")
	to := mustBody("window.to")
	launchFrom := mustDate("window.launch_from")
	launchUntil := mustDate("window.launch_until")
	arrivalFrom := mustDate("window.arrival_from")
	arrivalUntil := mustDate("window.arrival_until")
	ptsLaunch := viper.GetFloat64("grid.pts_per_launch_day")
	if ptsLaunch == 0 {
		ptsLaunch = 1
	}
	ptsArrival := viper.GetFloat64("grid.pts_per_arrival_day")
	if ptsArrival == 0 {
		ptsArrival = 1
	}
	plotC3 := viper.GetBool("grid.plot_c3")
	dir := astro.Prograde
	if viper.GetBool("grid.retrograde") {
		dir = astro.Retrograde
	}
	if verbose {
		log.Printf("[conf] %s -> %s, launch %s to %s, arrival %s to %s", from.Name, to.Name,
			launchFrom.Format(dateFormat), launchUntil.Format(dateFormat),
			arrivalFrom.Format(dateFormat), arrivalUntil.Format(dateFormat))
	}

	grid := astro.PCPGenerator(from, to, launchFrom, launchUntil, arrivalFrom, arrivalUntil, ptsLaunch, ptsArrival, dir, plotC3, verbose)

	name := viper.GetString("output.name")
	if name == "" {
		name = fmt.Sprintf("%s-%s", strings.ToLower(from.Name), strings.ToLower(to.Name))
	}
	if err := grid.WriteCSV(name); err != nil {
		log.Fatalf("[error] %s", err)
	}
	log.Printf("[info] contour files written as contour-%s-*.csv", name)
	launch, arrival, c3, err := grid.Best()
	if err != nil {
		log.Printf("[info] %s", err)
		return
	}
	unit := "km^2/s^2"
	if !plotC3 {
		unit = "km/s"
	}
	log.Printf("[info] best departure %s, arrival %s (%.3f %s)", launch.Format(dateFormat), arrival.Format(dateFormat), c3, unit)
}

func mustBody(key string) astro.CelestialObject {
	body, err := astro.CelestialObjectFromString(viper.GetString(key))
	if err != nil {
		log.Fatalf("[error] %s: %s", key, err)
	}
	return body
}

func mustDate(key string) time.Time {
	dt, err := time.Parse(dateFormat, viper.GetString(key))
	if err != nil {
		log.Fatalf("[error] %s: %s", key, err)
	}
	return dt.UTC()
}
