package types

import "time"

// Summary is the result of one summarization run.
type Summary struct {
	Start     time.Time
	End       time.Time
	Intervals int

	// TotalKWh is the energy consumed by the meter over the window.
	TotalKWh float64

	// TotalCO2Kg is the CO2 attributed to that consumption using the grid's
	// actual carbon intensity for each interval.
	TotalCO2Kg float64

	// FuelMix is the average percentage each fuel contributed per interval.
	FuelMix map[Fuel]float64
}
