package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// timestampLayouts are the layouts accepted when decoding a Timestamp. The
// grid API omits seconds while the metering API includes milliseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Timestamp is a point in time decoded from either API.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp: %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// Consumption is an amount of energy in kWh. The metering API encodes it as a
// decimal string but plain numbers are accepted too.
type Consumption float64

// UnmarshalJSON implements json.Unmarshaler.
func (c *Consumption) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(b)), 64)
	if err != nil {
		return fmt.Errorf("invalid consumption %q: %w", b, err)
	}
	*c = Consumption(f)
	return nil
}

// EnergyInterval is a single slot of interval data from the metering API.
type EnergyInterval struct {
	StartInterval Timestamp   `json:"start_interval"`
	Consumption   Consumption `json:"consumption"`
}

// CarbonIntensity is the grid carbon intensity in grams of CO2 per kWh.
type CarbonIntensity struct {
	Forecast float64 `json:"forecast"`
	Actual   float64 `json:"actual"`
	Index    string  `json:"index"`
}

// CarbonIntensityInterval is a carbon intensity reading from the grid API.
type CarbonIntensityInterval struct {
	From      Timestamp       `json:"from"`
	To        Timestamp       `json:"to"`
	Intensity CarbonIntensity `json:"intensity"`
}

// GenerationMix is the share of generation a single fuel provided.
type GenerationMix struct {
	Fuel Fuel    `json:"fuel"`
	Perc float64 `json:"perc"`
}

// GenerationMixInterval is the fuel breakdown from the grid API for one
// interval.
type GenerationMixInterval struct {
	From          Timestamp       `json:"from"`
	To            Timestamp       `json:"to"`
	GenerationMix []GenerationMix `json:"generationmix"`
}
