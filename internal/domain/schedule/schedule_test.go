package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/domain/schedule"
)

func mustSchedule(t *testing.T, eta, etd time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewSchedule(1, 1, eta, etd, 50)
	require.NoError(t, err)
	return s
}

func TestNewSchedule_RejectsInvertedWindow(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := schedule.NewSchedule(1, 1, eta, eta, 50)

	assert.Error(t, err)
}

func TestSchedule_Lifecycle(t *testing.T) {
	// Arrange
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := mustSchedule(t, eta, eta.Add(4*time.Hour))

	// Act - full forward walk
	require.NoError(t, s.RecordArrival(eta.Add(-30*time.Minute)))
	assert.Equal(t, schedule.StatusApproaching, s.Status)

	require.NoError(t, s.RecordBerthing(eta.Add(45*time.Minute)))
	assert.Equal(t, schedule.StatusBerthed, s.Status)
	require.NotNil(t, s.WaitingMinutes)
	assert.Equal(t, 45, *s.WaitingMinutes)

	require.NoError(t, s.RecordDeparture(eta.Add(5*time.Hour)))
	assert.Equal(t, schedule.StatusDeparted, s.Status)
	// Dwell is atd-atb, not the planned window
	assert.Equal(t, int((5*time.Hour - 45*time.Minute).Minutes()), s.DwellMinutes)
}

func TestSchedule_MilestonesAreIdempotentAtSameTime(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := mustSchedule(t, eta, eta.Add(4*time.Hour))
	ata := eta.Add(-10 * time.Minute)

	require.NoError(t, s.RecordArrival(ata))
	assert.NoError(t, s.RecordArrival(ata), "same-time replay is a no-op")
	assert.Error(t, s.RecordArrival(ata.Add(time.Minute)), "conflicting time is rejected")
	assert.Equal(t, schedule.StatusApproaching, s.Status)
}

func TestSchedule_StatusNeverMovesBackwards(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := mustSchedule(t, eta, eta.Add(4*time.Hour))
	require.NoError(t, s.RecordArrival(eta))
	require.NoError(t, s.RecordBerthing(eta))

	err := s.RecordArrival(eta.Add(time.Hour))

	assert.Error(t, err)
	assert.Equal(t, schedule.StatusBerthed, s.Status)
}

func TestSchedule_DepartureRequiresBerthing(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := mustSchedule(t, eta, eta.Add(4*time.Hour))

	err := s.RecordDeparture(eta.Add(2 * time.Hour))

	assert.Error(t, err)
}

func TestSchedule_CancelTerminalExceptDeparted(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	berthed := mustSchedule(t, eta, eta.Add(4*time.Hour))
	require.NoError(t, berthed.RecordArrival(eta))
	require.NoError(t, berthed.RecordBerthing(eta))
	assert.NoError(t, berthed.Cancel())

	departed := mustSchedule(t, eta, eta.Add(4*time.Hour))
	require.NoError(t, departed.RecordArrival(eta))
	require.NoError(t, departed.RecordBerthing(eta))
	require.NoError(t, departed.RecordDeparture(eta.Add(time.Hour)))
	assert.Error(t, departed.Cancel())
}

func TestSchedule_OverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := mustSchedule(t, base, base.Add(4*time.Hour))
	touching := mustSchedule(t, base.Add(4*time.Hour), base.Add(8*time.Hour))
	crossing := mustSchedule(t, base.Add(3*time.Hour), base.Add(7*time.Hour))

	assert.False(t, first.Overlaps(touching), "windows touching at endpoints do not overlap")
	assert.True(t, first.Overlaps(crossing))

	otherBerth := mustSchedule(t, base, base.Add(4*time.Hour))
	otherBerth.BerthID = 99
	assert.False(t, first.Overlaps(otherBerth))
}

func TestShiftETA_KeepsDwell(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := mustSchedule(t, base, base.Add(6*time.Hour))

	s.ShiftETA(base.Add(90 * time.Minute))

	assert.Equal(t, base.Add(90*time.Minute), s.ETA)
	assert.Equal(t, 6*time.Hour, s.ETD.Sub(s.ETA))
}

func TestEtaAccuracy(t *testing.T) {
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, float64(100), schedule.EtaAccuracy(eta, nil))

	exact := eta
	assert.Equal(t, float64(100), schedule.EtaAccuracy(eta, &exact))

	twoHoursLate := eta.Add(2 * time.Hour)
	assert.InDelta(t, 75.0, schedule.EtaAccuracy(eta, &twoHoursLate), 0.01)

	// Symmetry: early deviations score the same as late ones
	twoHoursEarly := eta.Add(-2 * time.Hour)
	assert.InDelta(t, 75.0, schedule.EtaAccuracy(eta, &twoHoursEarly), 0.01)

	// Floor at 8 hours off
	tenHoursLate := eta.Add(10 * time.Hour)
	assert.Equal(t, float64(0), schedule.EtaAccuracy(eta, &tenHoursLate))
}
