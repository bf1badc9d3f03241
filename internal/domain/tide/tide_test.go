package tide_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/domain/tide"
)

func sampleDay() (time.Time, []*tide.Reading) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return day, []*tide.Reading{
		{PortID: 1, TideTime: day.Add(6 * time.Hour), Type: tide.ReadingLow, HeightMeters: 0.5},
		{PortID: 1, TideTime: day.Add(12 * time.Hour), Type: tide.ReadingHigh, HeightMeters: 3.5},
		{PortID: 1, TideTime: day.Add(18 * time.Hour), Type: tide.ReadingLow, HeightMeters: 0.5},
	}
}

func TestNearest(t *testing.T) {
	day, readings := sampleDay()

	assert.Nil(t, tide.Nearest(nil, day))

	nearest := tide.Nearest(readings, day.Add(10*time.Hour))
	require.NotNil(t, nearest)
	assert.Equal(t, day.Add(12*time.Hour), nearest.TideTime)
}

func TestHeightAt_HalfCosineInterpolation(t *testing.T) {
	day, readings := sampleDay()

	// At the extremes the curve pins to the sample
	assert.InDelta(t, 0.5, tide.HeightAt(readings, day.Add(6*time.Hour)), 0.001)
	assert.InDelta(t, 3.5, tide.HeightAt(readings, day.Add(12*time.Hour)), 0.001)

	// Midway between low and high the half-cosine passes the mean
	assert.InDelta(t, 2.0, tide.HeightAt(readings, day.Add(9*time.Hour)), 0.001)

	// Quarter of the way the curve is still near the starting extreme
	quarter := tide.HeightAt(readings, day.Add(7*time.Hour+30*time.Minute))
	assert.Less(t, quarter, 2.0)
	assert.Greater(t, quarter, 0.5)

	// Outside the sampled range the nearest extreme's height holds
	assert.InDelta(t, 0.5, tide.HeightAt(readings, day), 0.001)
	assert.InDelta(t, 0.5, tide.HeightAt(readings, day.Add(23*time.Hour)), 0.001)

	assert.Equal(t, 0.0, tide.HeightAt(nil, day))
}

func TestFirstTimeAtOrAbove(t *testing.T) {
	day, readings := sampleDay()

	// Rising leg: the first grid point at or above 2.0m is the 09:00 midpoint
	at := tide.FirstTimeAtOrAbove(readings, 2.0, day.Add(6*time.Hour), 12*time.Hour, 15*time.Minute)
	assert.Equal(t, day.Add(9*time.Hour), at)

	// A level the series never reaches yields the zero time
	never := tide.FirstTimeAtOrAbove(readings, 5.0, day, 24*time.Hour, 15*time.Minute)
	assert.True(t, never.IsZero())

	// Already-satisfied start returns the start itself
	now := tide.FirstTimeAtOrAbove(readings, 1.0, day.Add(12*time.Hour), 2*time.Hour, 15*time.Minute)
	assert.Equal(t, day.Add(12*time.Hour), now)
}
