package types

// Fuel is a generation source reported by the grid API.
type Fuel string

const (
	FuelGas     Fuel = "gas"
	FuelCoal    Fuel = "coal"
	FuelBiomass Fuel = "biomass"
	FuelNuclear Fuel = "nuclear"
	FuelHydro   Fuel = "hydro"
	FuelImports Fuel = "imports"
	FuelOther   Fuel = "other"
	FuelWind    Fuel = "wind"
	FuelSolar   Fuel = "solar"
)

// Fuels lists every known fuel in display order.
var Fuels = []Fuel{
	FuelGas,
	FuelCoal,
	FuelBiomass,
	FuelNuclear,
	FuelHydro,
	FuelImports,
	FuelOther,
	FuelWind,
	FuelSolar,
}

// Valid returns true if the fuel is one of the known fuels.
func (f Fuel) Valid() bool {
	for _, known := range Fuels {
		if f == known {
			return true
		}
	}
	return false
}
