package astro

import (
	"math"
	"time"
)

// Hohmann computes a Hohmann transfer between coplanar circular orbits. It
// returns the velocities on the transfer ellipse at departure and arrival,
// and the time of flight. To get final computations:
// ΔvInit = vDeparture - vI
// ΔvFinal = vArrival - vF
func Hohmann(rI, vI, rF, vF float64, body CelestialObject) (vDeparture, vArrival float64, tof time.Duration) {
	if rI <= 0 || rF <= 0 {
		panic("hohmann: radii must be positive")
	}
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * body.GM() / rI) - (body.GM() / aTransfer))
	vArrival = math.Sqrt((2 * body.GM() / rF) - (body.GM() / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/body.GM())) * time.Second
	return
}
