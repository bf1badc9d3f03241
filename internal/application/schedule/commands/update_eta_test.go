package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/schedule/commands"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/test/helpers"
	"gorm.io/gorm"
)

type etaFixture struct {
	handler   *commands.UpdateETAHandler
	schedules *persistence.GormScheduleRepository
	conflicts *persistence.GormConflictRepository
	alerts    *persistence.GormAlertRepository
	berthID   int
	clock     *shared.MockClock
	db        *gorm.DB
}

func newETAFixture(t *testing.T) *etaFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 300, 12, "CONTAINER")

	schedules := persistence.NewGormScheduleRepository(db)
	berths := persistence.NewGormBerthRepository(db)
	conflicts := persistence.NewGormConflictRepository(db, clock)
	alerts := persistence.NewGormAlertRepository(db, clock)
	bus := events.NewBus(16, clock)

	return &etaFixture{
		handler:   commands.NewUpdateETAHandler(schedules, berths, conflicts, alerts, bus, clock),
		schedules: schedules,
		conflicts: conflicts,
		alerts:    alerts,
		berthID:   k1.ID,
		clock:     clock,
		db:        db,
	}
}

func (f *etaFixture) createSchedule(t *testing.T, vesselID int, eta, etd time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewSchedule(vesselID, f.berthID, eta, etd, 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), s))
	return s
}

func TestUpdateETA_DeviationRaisesAlertWithoutMovingTheWindow(t *testing.T) {
	// Arrange: a schedule holding [10:00, 14:00)
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))

	// Act: the agent reports the arrival 75 minutes late
	resp, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(75 * time.Minute),
		Source:     "AGENT",
	})

	// Assert: only the prediction moves; the planned window stands
	require.NoError(t, err)
	out := resp.(*commands.UpdateETAResponse)
	assert.Equal(t, 75, out.DeltaMinutes)

	stored, err := f.schedules.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, eta, stored.ETA.UTC())
	assert.Equal(t, eta.Add(4*time.Hour), stored.ETD.UTC())
	assert.Equal(t, eta.Add(75*time.Minute), stored.PredictedETA.UTC())

	require.NotNil(t, out.Alert)
	assert.Equal(t, conflict.SeverityHigh, out.Alert.Severity)
	assert.Equal(t, string(conflict.KindETADeviation), out.Alert.Type)
	assert.Nil(t, out.Conflict, "no other schedule occupies the shifted window")
}

func TestUpdateETA_ModerateDeviationIsMedium(t *testing.T) {
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))

	resp, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(45 * time.Minute),
		Source:     "AGENT",
	})

	require.NoError(t, err)
	out := resp.(*commands.UpdateETAResponse)
	require.NotNil(t, out.Alert)
	assert.Equal(t, conflict.SeverityMedium, out.Alert.Severity)
}

func TestUpdateETA_AISSourcedMovesGradeInFinerTiers(t *testing.T) {
	// The projector dispatches from 15 minutes up; each tier maps to its own
	// alert severity so operators can filter feed noise from real slips
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))

	cases := []struct {
		minutes  int
		severity conflict.Severity
	}{
		{20, conflict.SeverityInfo},
		{75, conflict.SeverityWarning},
		{130, conflict.SeverityCritical},
	}
	for _, tc := range cases {
		resp, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
			ScheduleID: s.ID,
			NewETA:     eta.Add(time.Duration(tc.minutes) * time.Minute),
			Source:     commands.SourceAIS,
		})
		require.NoError(t, err)
		out := resp.(*commands.UpdateETAResponse)
		require.NotNil(t, out.Alert, "move of %d minutes", tc.minutes)
		assert.Equal(t, tc.severity, out.Alert.Severity, "move of %d minutes", tc.minutes)
	}
}

func TestUpdateETA_SmallDeviationStaysSilent(t *testing.T) {
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))

	resp, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(20 * time.Minute),
		Source:     "AGENT",
	})

	require.NoError(t, err)
	out := resp.(*commands.UpdateETAResponse)
	assert.Equal(t, 20, out.DeltaMinutes)
	assert.Nil(t, out.Alert)

	// An AIS-projected move under its 15-minute floor is equally silent
	resp, err = f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(10 * time.Minute),
		Source:     commands.SourceAIS,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.(*commands.UpdateETAResponse).Alert)

	alerts, err := f.alerts.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestUpdateETA_ShiftedWindowOverlapRaisesHighAndConflict(t *testing.T) {
	// Arrange: the next tenant holds [14:00, 18:00) on the same berth
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))
	next := f.createSchedule(t, 2, eta.Add(4*time.Hour), eta.Add(8*time.Hour))

	// Act: a 75-minute slip pushes the projected window into the next tenant
	resp, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(75 * time.Minute),
		Source:     "AIS",
	})

	// Assert: the deviation alone grades Warning on the AIS tiers, the
	// occupancy hit lifts it to High
	require.NoError(t, err)
	out := resp.(*commands.UpdateETAResponse)
	require.NotNil(t, out.Conflict)
	assert.Equal(t, conflict.KindBerthOverlap, out.Conflict.Kind)
	require.NotNil(t, out.Conflict.ScheduleID2)
	assert.Equal(t, next.ID, *out.Conflict.ScheduleID2)
	require.NotNil(t, out.Alert)
	assert.Equal(t, conflict.SeverityHigh, out.Alert.Severity)

	// A second slip while the conflict is still open must not duplicate it
	resp, err = f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(90 * time.Minute),
		Source:     "AIS",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.(*commands.UpdateETAResponse).Conflict)

	active, err := f.conflicts.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpdateETA_RejectsBerthedOrClosedSchedules(t *testing.T) {
	f := newETAFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := f.createSchedule(t, 1, eta, eta.Add(4*time.Hour))
	require.NoError(t, s.RecordArrival(eta.Add(-time.Hour)))
	require.NoError(t, s.RecordBerthing(eta))
	require.NoError(t, f.schedules.Update(context.Background(), s))

	_, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     eta.Add(time.Hour),
		Source:     "AGENT",
	})

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestUpdateETA_UnknownScheduleIsNotFound(t *testing.T) {
	f := newETAFixture(t)

	_, err := f.handler.Handle(context.Background(), &commands.UpdateETACommand{
		ScheduleID: 424242,
		NewETA:     f.clock.Now().Add(time.Hour),
		Source:     "AIS",
	})

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}
