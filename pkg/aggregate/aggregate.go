// Package aggregate computes the summary statistics for a window of metering
// and grid data. The functions are pure and expect series that are already
// index aligned.
package aggregate

import (
	"github.com/gridtally/gridtally/pkg/types"
)

// GramsPerKG converts grams to kilograms.
const GramsPerKG = 1000

// TotalKWh returns the energy consumed across all intervals.
func TotalKWh(intervals []types.EnergyInterval) float64 {
	var total float64
	for _, interval := range intervals {
		total += float64(interval.Consumption)
	}
	return total
}

// TotalCO2Kg returns the kilograms of CO2 attributable to the consumption in
// intervals, pairing each interval with the carbon interval at the same
// index. Only the common prefix of the two series is considered.
func TotalCO2Kg(intervals []types.EnergyInterval, carbon []types.CarbonIntensityInterval) float64 {
	n := min(len(intervals), len(carbon))

	var grams float64
	for i := 0; i < n; i++ {
		// kWh * gCO2/kWh
		grams += float64(intervals[i].Consumption) * carbon[i].Intensity.Actual
	}
	return grams / GramsPerKG
}

// AverageFuelMix returns the mean percentage each fuel contributed over
// numberOfIntervals intervals. A fuel missing from an interval counts as 0 for
// that interval.
func AverageFuelMix(mix []types.GenerationMixInterval, numberOfIntervals int) map[types.Fuel]float64 {
	avg := make(map[types.Fuel]float64)
	if numberOfIntervals <= 0 {
		return avg
	}

	for _, interval := range mix {
		for _, m := range interval.GenerationMix {
			avg[m.Fuel] += m.Perc
		}
	}
	for fuel, total := range avg {
		avg[fuel] = total / float64(numberOfIntervals)
	}
	return avg
}
