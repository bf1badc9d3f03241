package position_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/domain/position"
)

func TestDistanceNm(t *testing.T) {
	// One degree of latitude is 60 nautical miles
	d := position.DistanceNm(51.0, 4.0, 52.0, 4.0)
	assert.InDelta(t, 60.0, d, 0.5)

	assert.InDelta(t, 0.0, position.DistanceNm(51.95, 4.05, 51.95, 4.05), 0.001)
}

func TestSmoothedSpeed(t *testing.T) {
	assert.Equal(t, 0.0, position.SmoothedSpeed(nil, 0.3))
	assert.Equal(t, 12.0, position.SmoothedSpeed([]float64{12}, 0.3))

	// EMA pulls toward recent samples without jumping to them
	ema := position.SmoothedSpeed([]float64{10, 10, 16}, 0.3)
	assert.Greater(t, ema, 10.0)
	assert.Less(t, ema, 16.0)
}

func TestProjector_PredictETA(t *testing.T) {
	p := position.NewProjector()
	recorded := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	// 60nm due south of the port, steady 12 knots -> 5 hours out
	report := &position.Report{VesselID: 1, Lat: 50.95, Lon: 4.05, SOGKnots: 12, RecordedAt: recorded}

	eta, ok := p.PredictETA(report, []float64{12, 12, 12}, 51.95, 4.05)

	require.True(t, ok)
	assert.WithinDuration(t, recorded.Add(5*time.Hour), eta, 5*time.Minute)
}

func TestProjector_StationaryVesselHasNoETA(t *testing.T) {
	p := position.NewProjector()
	report := &position.Report{VesselID: 1, Lat: 51.9, Lon: 4.0, RecordedAt: time.Now()}

	_, ok := p.PredictETA(report, []float64{0.2, 0.1, 0.3}, 51.95, 4.05)
	assert.False(t, ok, "below 0.5kn the vessel is effectively moored or anchored")

	_, ok = p.PredictETA(nil, []float64{10}, 51.95, 4.05)
	assert.False(t, ok)
}

func TestProjector_UsesOnlyRecentSamples(t *testing.T) {
	p := position.NewProjector()
	recorded := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	report := &position.Report{VesselID: 1, Lat: 50.95, Lon: 4.05, RecordedAt: recorded}

	// Old zero samples beyond the window must not drag the EMA under way
	speeds := []float64{0, 0, 0, 0, 12, 12, 12, 12, 12, 12}
	eta, ok := p.PredictETA(report, speeds, 51.95, 4.05)

	require.True(t, ok)
	assert.WithinDuration(t, recorded.Add(5*time.Hour), eta, 10*time.Minute)
}
