package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/gridtally/gridtally/pkg/types"
)

// Row is a single titled value in the results table.
type Row struct {
	Title string
	Value string
}

// Rows returns the results table for s.
func Rows(s types.Summary) []Row {
	window := fmt.Sprintf("from %s to %s", s.Start.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339))
	return []Row{
		{Title: "kWh consumed " + window, Value: strconv.FormatFloat(s.TotalKWh, 'f', -1, 64)},
		{Title: "CO2 emitted (kg) " + window, Value: strconv.FormatFloat(s.TotalCO2Kg, 'f', -1, 64)},
		{Title: "intervals", Value: strconv.Itoa(s.Intervals)},
	}
}

// FuelOrder returns the fuels in mix with known fuels first in display order,
// then any unknown fuels sorted by name.
func FuelOrder(mix map[types.Fuel]float64) []types.Fuel {
	order := make([]types.Fuel, 0, len(mix))
	for _, f := range types.Fuels {
		if _, ok := mix[f]; ok {
			order = append(order, f)
		}
	}
	var unknown []types.Fuel
	for f := range mix {
		if !f.Valid() {
			unknown = append(unknown, f)
		}
	}
	slices.Sort(unknown)
	return append(order, unknown...)
}

// Writer prints summaries as aligned console tables.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that prints to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write prints the results table followed by the fuel mix table.
func (rw *Writer) Write(s types.Summary) error {
	tw := tabwriter.NewWriter(rw.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "TITLE\tVALUE")
	for _, row := range Rows(s) {
		fmt.Fprintf(tw, "%s\t%s\n", row.Title, row.Value)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "FUEL\tAVERAGE %")
	for _, f := range FuelOrder(s.FuelMix) {
		fmt.Fprintf(tw, "%s\t%.2f\n", f, s.FuelMix[f])
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
