package summary

import (
	"context"
	"time"

	"github.com/gridtally/gridtally/pkg/types"
	"github.com/stretchr/testify/mock"
)

type mockMetering struct {
	mock.Mock
}

var _ IntervalLoader = (*mockMetering)(nil)

func (m *mockMetering) LoadIntervals(ctx context.Context, start, end time.Time) ([]types.EnergyInterval, error) {
	args := m.Called(ctx, start, end)
	if v := args.Get(0); v != nil {
		return v.([]types.EnergyInterval), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGrid struct {
	mock.Mock
}

var _ GridLoader = (*mockGrid)(nil)

func (m *mockGrid) LoadIntensity(ctx context.Context, start, end time.Time) ([]types.CarbonIntensityInterval, error) {
	args := m.Called(ctx, start, end)
	if v := args.Get(0); v != nil {
		return v.([]types.CarbonIntensityInterval), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGrid) LoadGenerationMix(ctx context.Context, start, end time.Time) ([]types.GenerationMixInterval, error) {
	args := m.Called(ctx, start, end)
	if v := args.Get(0); v != nil {
		return v.([]types.GenerationMixInterval), args.Error(1)
	}
	return nil, args.Error(1)
}
