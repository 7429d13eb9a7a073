package summary

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/gridtally/gridtally/pkg/log"
	"github.com/gridtally/gridtally/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

var (
	testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC)
)

func testConfig() Config {
	return Config{
		Start:           testStart,
		End:             testEnd,
		FetchTimeout:    5 * time.Second,
		StrictAlignment: true,
	}
}

var (
	testIntervals = []types.EnergyInterval{
		{Consumption: 10},
		{Consumption: 20},
	}
	testCarbon = []types.CarbonIntensityInterval{
		{Intensity: types.CarbonIntensity{Actual: 100}},
		{Intensity: types.CarbonIntensity{Actual: 50}},
	}
	testMix = []types.GenerationMixInterval{
		{GenerationMix: []types.GenerationMix{{Fuel: types.FuelWind, Perc: 60}, {Fuel: types.FuelGas, Perc: 40}}},
		{GenerationMix: []types.GenerationMix{{Fuel: types.FuelWind, Perc: 80}}},
	}
)

func TestSummarize(t *testing.T) {
	t.Run("aggregates loaded series", func(t *testing.T) {
		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(testCarbon, nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix, nil)

		s, err := New(testConfig(), m, g).Summarize(context.Background())
		require.NoError(t, err)

		assert.Equal(t, testStart, s.Start)
		assert.Equal(t, testEnd, s.End)
		assert.Equal(t, 2, s.Intervals)
		assert.Equal(t, 30.0, s.TotalKWh)
		// 10*100 + 20*50 = 2000 g
		assert.Equal(t, 2.0, s.TotalCO2Kg)
		assert.Equal(t, map[types.Fuel]float64{types.FuelWind: 70, types.FuelGas: 20}, s.FuelMix)

		m.AssertExpectations(t)
		g.AssertExpectations(t)
	})

	t.Run("loads concurrently", func(t *testing.T) {
		// each loader blocks until all three have started
		started := make(chan struct{}, 3)
		wait := func(mock.Arguments) {
			started <- struct{}{}
			deadline := time.After(2 * time.Second)
			for len(started) < 3 {
				select {
				case <-deadline:
					return
				case <-time.After(time.Millisecond):
				}
			}
		}

		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Run(wait).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Run(wait).Return(testCarbon, nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Run(wait).Return(testMix, nil)

		begin := time.Now()
		_, err := New(testConfig(), m, g).Summarize(context.Background())
		require.NoError(t, err)
		assert.Less(t, time.Since(begin), 2*time.Second)
	})

	t.Run("first failure fails the run", func(t *testing.T) {
		loadErr := errors.New("boom")

		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(nil, loadErr)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix, nil)

		_, err := New(testConfig(), m, g).Summarize(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, loadErr)
		assert.Contains(t, err.Error(), "failed to load carbon intensity")
	})

	t.Run("failure cancels other loaders", func(t *testing.T) {
		loadErr := errors.New("boom")

		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(nil, loadErr)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).Return(nil, context.Canceled)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix, nil)

		_, err := New(testConfig(), m, g).Summarize(context.Background())
		assert.ErrorIs(t, err, loadErr)
	})

	t.Run("shared timeout", func(t *testing.T) {
		cfg := testConfig()
		cfg.FetchTimeout = 50 * time.Millisecond

		block := func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}
		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Run(block).Return(nil, context.DeadlineExceeded)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(testCarbon, nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix, nil)

		_, err := New(cfg, m, g).Summarize(context.Background())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("mismatch fails when strict", func(t *testing.T) {
		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(testCarbon[:1], nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix, nil)

		_, err := New(testConfig(), m, g).Summarize(context.Background())
		require.ErrorIs(t, err, ErrIntervalMismatch)
		assert.Contains(t, err.Error(), "2 energy, 1 carbon, 2 generation mix")
	})

	t.Run("single series mismatch is detected", func(t *testing.T) {
		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(testCarbon, nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix[:1], nil)

		_, err := New(testConfig(), m, g).Summarize(context.Background())
		assert.ErrorIs(t, err, ErrIntervalMismatch)
	})

	t.Run("mismatch proceeds when not strict", func(t *testing.T) {
		cfg := testConfig()
		cfg.StrictAlignment = false

		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return(testIntervals, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(testCarbon[:1], nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(testMix[:1], nil)

		s, err := New(cfg, m, g).Summarize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 30.0, s.TotalKWh)
		assert.Equal(t, 1.0, s.TotalCO2Kg)
		// still divided by the number of energy intervals
		assert.Equal(t, 30.0, s.FuelMix[types.FuelWind])
		assert.Equal(t, 20.0, s.FuelMix[types.FuelGas])
	})

	t.Run("empty window", func(t *testing.T) {
		m := &mockMetering{}
		g := &mockGrid{}
		m.On("LoadIntervals", mock.Anything, testStart, testEnd).Return([]types.EnergyInterval{}, nil)
		g.On("LoadIntensity", mock.Anything, testStart, testEnd).Return(nil, nil)
		g.On("LoadGenerationMix", mock.Anything, testStart, testEnd).Return(nil, nil)

		s, err := New(testConfig(), m, g).Summarize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.0, s.TotalKWh)
		assert.Equal(t, 0.0, s.TotalCO2Kg)
		assert.Empty(t, s.FuelMix)
	})
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.End = cfg.Start
	assert.ErrorContains(t, cfg.Validate(), "must be after start")

	cfg = testConfig()
	cfg.Start = time.Time{}
	assert.ErrorContains(t, cfg.Validate(), "required")

	cfg = testConfig()
	cfg.FetchTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "fetch-timeout")
}
