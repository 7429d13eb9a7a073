package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridtally/gridtally/pkg/aggregate"
	"github.com/gridtally/gridtally/pkg/log"
	"github.com/gridtally/gridtally/pkg/types"
	"github.com/levenlabs/go-lflag"
	"golang.org/x/sync/errgroup"
)

// ErrIntervalMismatch is returned when the loaded series differ in length.
var ErrIntervalMismatch = errors.New("mismatch in the number of intervals")

// IntervalLoader loads energy consumption for a window.
type IntervalLoader interface {
	LoadIntervals(ctx context.Context, start, end time.Time) ([]types.EnergyInterval, error)
}

// GridLoader loads grid carbon data for a metering window.
type GridLoader interface {
	LoadIntensity(ctx context.Context, start, end time.Time) ([]types.CarbonIntensityInterval, error)
	LoadGenerationMix(ctx context.Context, start, end time.Time) ([]types.GenerationMixInterval, error)
}

// Config controls a summarization run.
type Config struct {
	Start        time.Time
	End          time.Time
	FetchTimeout time.Duration

	// StrictAlignment fails the run when the series lengths differ. When
	// false the mismatch is logged and only the aligned prefix is paired.
	StrictAlignment bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return errors.New("start and end are required")
	}
	if !c.End.After(c.Start) {
		return fmt.Errorf("end (%s) must be after start (%s)", c.End.Format(time.RFC3339), c.Start.Format(time.RFC3339))
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch-timeout must be positive: %s", c.FetchTimeout)
	}
	return nil
}

// Summarizer loads the metering and grid series for a window and aggregates
// them into a Summary.
type Summarizer struct {
	cfg      Config
	metering IntervalLoader
	grid     GridLoader
}

// New returns a Summarizer. The config is not validated.
func New(cfg Config, metering IntervalLoader, grid GridLoader) *Summarizer {
	return &Summarizer{
		cfg:      cfg,
		metering: metering,
		grid:     grid,
	}
}

// Configured registers flags for the run window and returns a Summarizer
// that is populated once flags are parsed.
func Configured(metering IntervalLoader, grid GridLoader) *Summarizer {
	s := &Summarizer{
		metering: metering,
		grid:     grid,
	}
	start := lflag.String("start", "2023-01-01T00:00:00Z", "Start of the window (RFC3339)")
	end := lflag.String("end", "2023-01-01T00:30:00Z", "End of the window (RFC3339)")
	fetchTimeout := lflag.Duration("fetch-timeout", 30*time.Second, "Timeout shared by all API fetches")
	strict := lflag.Bool("strict-alignment", true, "Fail when the loaded series differ in length")

	lflag.Do(func() {
		startTime, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			panic(fmt.Sprintf("invalid start (%s): %v", *start, err))
		}
		endTime, err := time.Parse(time.RFC3339, *end)
		if err != nil {
			panic(fmt.Sprintf("invalid end (%s): %v", *end, err))
		}
		s.cfg = Config{
			Start:           startTime,
			End:             endTime,
			FetchTimeout:    *fetchTimeout,
			StrictAlignment: *strict,
		}
		if err := s.cfg.Validate(); err != nil {
			panic(fmt.Sprintf("summary validation failed: %v", err))
		}
	})

	return s
}

// Summarize fetches all three series concurrently and aggregates them. The
// first fetch to fail cancels the others and its error is returned.
func (s *Summarizer) Summarize(ctx context.Context) (types.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	var (
		intervals []types.EnergyInterval
		carbon    []types.CarbonIntensityInterval
		mix       []types.GenerationMixInterval
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		intervals, err = s.metering.LoadIntervals(egCtx, s.cfg.Start, s.cfg.End)
		if err != nil {
			return fmt.Errorf("failed to load intervals: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		carbon, err = s.grid.LoadIntensity(egCtx, s.cfg.Start, s.cfg.End)
		if err != nil {
			return fmt.Errorf("failed to load carbon intensity: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		mix, err = s.grid.LoadGenerationMix(egCtx, s.cfg.Start, s.cfg.End)
		if err != nil {
			return fmt.Errorf("failed to load generation mix: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return types.Summary{}, err
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"loaded series",
		slog.Any("intervals", intervals),
		slog.Any("carbon", carbon),
		slog.Any("generationMix", mix),
	)

	n := len(intervals)
	if len(carbon) != n || len(mix) != n {
		err := fmt.Errorf("%w: %d energy, %d carbon, %d generation mix", ErrIntervalMismatch, n, len(carbon), len(mix))
		if s.cfg.StrictAlignment {
			return types.Summary{}, err
		}
		log.Ctx(ctx).ErrorContext(ctx, "aggregating misaligned series", slog.Any("error", err))
	}

	return types.Summary{
		Start:      s.cfg.Start,
		End:        s.cfg.End,
		Intervals:  n,
		TotalKWh:   aggregate.TotalKWh(intervals),
		TotalCO2Kg: aggregate.TotalCO2Kg(intervals, carbon),
		FuelMix:    aggregate.AverageFuelMix(mix, n),
	}, nil
}
