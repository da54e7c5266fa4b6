// Package simulation maps a project's baseline and a slider vector to the six
// street metrics. Every function here is pure and safe for concurrent use.
package simulation

import "streetplan/internal/types"

// Clamp ranges for the metric outputs.
const (
	MaxParkingPressure = 200.0
	MaxScore           = 100.0

	maxIntersectionRisk = 30.0
)

// Baseline holds the per-project inputs that do not change between submissions.
// ParkingSpots is carried for completeness; no formula reads it.
type Baseline struct {
	ParkingPressure   float64
	ParkingSpots      int
	IntersectionCount int
}

// Input is one simulation request. Sliders may be fractional so that
// consensus medians can be simulated without rounding.
type Input struct {
	Baseline
	Sliders types.SliderVector
}

// BaselineFor extracts the simulation baseline from a stored project.
func BaselineFor(p *types.Project) Baseline {
	return Baseline{
		ParkingPressure:   p.BaselineParkingPressure,
		ParkingSpots:      p.BaselineParkingSpots,
		IntersectionCount: p.IntersectionCount(),
	}
}

// LimitsFor returns the inclusive slider maxima accepted for a project.
func LimitsFor(p *types.Project) types.SliderValues {
	return types.SliderLimitsFor(p.BaselineParkingSpots)
}

// Simulate computes the metrics for in. It never fails: out-of-range inputs
// are not rejected, only the outputs are clamped.
func Simulate(in Input) types.Metrics {
	s := in.Sliders

	parking := clamp(in.ParkingPressure+0.9*s.RemovedParkingSpots-4.5*s.AddedSharedCars, 0, MaxParkingPressure)
	risk := clamp(float64(in.IntersectionCount)*2, 0, maxIntersectionRisk)

	return types.Metrics{
		ParkingPressure: parking,
		Livability:      clamp(55+2.2*s.AddedGreenUnits+1.4*s.AddedPublicSpace-0.15*parking, 0, MaxScore),
		Biodiversity:    clamp(35+3.4*s.AddedGreenUnits, 0, MaxScore),
		Safety:          clamp(50+2.1*s.AddedBikeUnits+1.6*s.AddedPublicSpace-0.6*risk, 0, MaxScore),
		HeatStress:      clamp(75-2.8*s.AddedGreenUnits-1.2*s.AddedPublicSpace, 0, MaxScore),
		Accessibility:   clamp(60+1.8*s.AddedPublicSpace-0.4*s.RemovedParkingSpots, 0, MaxScore),
	}
}

// SimulateSliders is the submission-path shorthand for integer sliders.
func SimulateSliders(b Baseline, sliders types.SliderValues) types.Metrics {
	return Simulate(Input{Baseline: b, Sliders: sliders.Vector()})
}

// BaselineMetrics simulates the "no change" design.
func BaselineMetrics(b Baseline) types.Metrics {
	return Simulate(Input{Baseline: b})
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
