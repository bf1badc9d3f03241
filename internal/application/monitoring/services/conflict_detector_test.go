package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/monitoring/services"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/test/helpers"
)

type detectorFixture struct {
	detector  *services.ConflictDetector
	schedules *persistence.GormScheduleRepository
	conflicts *persistence.GormConflictRepository
	alerts    *persistence.GormAlertRepository
	tides     *persistence.GormTideRepository
	clock     *shared.MockClock
	port      *berth.Port
	k1        *berth.Berth
	db        *gorm.DB
}

func newDetectorFixture(t *testing.T) *detectorFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	port, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 300, 16, "CONTAINER")

	schedules := persistence.NewGormScheduleRepository(db)
	vessels := persistence.NewGormVesselRepository(db)
	berths := persistence.NewGormBerthRepository(db)
	tides := persistence.NewGormTideRepository(db)
	conflicts := persistence.NewGormConflictRepository(db, clock)
	alerts := persistence.NewGormAlertRepository(db, clock)
	bus := events.NewBus(16, clock)

	buffer := planningServices.BufferPolicy(func(vessel.Type) time.Duration { return time.Hour })
	planner := planningServices.NewResolutionPlanner(berths, schedules, buffer)
	ukc := planning.UKCConfig{DefaultMeters: 1.5, LargeMeters: 2.0, VLCCMeters: 2.5}

	return &detectorFixture{
		detector: services.NewConflictDetector(
			schedules, vessels, berths, tides, conflicts, alerts,
			planner, ukc, bus, clock, 30*time.Second, "NLRTM"),
		schedules: schedules,
		conflicts: conflicts,
		alerts:    alerts,
		tides:     tides,
		clock:     clock,
		port:      port,
		k1:        k1,
		db:        db,
	}
}

func (f *detectorFixture) berthedSchedule(t *testing.T, vesselID int, eta, etd time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewSchedule(vesselID, f.k1.ID, eta, etd, 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), s))
	require.NoError(t, s.RecordArrival(eta.Add(-30*time.Minute)))
	require.NoError(t, s.RecordBerthing(eta))
	require.NoError(t, f.schedules.Update(context.Background(), s))
	return s
}

func (f *detectorFixture) countAlerts(t *testing.T) int {
	t.Helper()
	alerts, err := f.alerts.Active(context.Background())
	require.NoError(t, err)
	return len(alerts)
}

func TestConflictDetector_OverstayEscalatesWithoutDuplicates(t *testing.T) {
	// Arrange: the vessel is alongside and its ETD has just passed
	f := newDetectorFixture(t)
	eta := time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC)
	etd := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s := f.berthedSchedule(t, 1, eta, etd)
	ctx := context.Background()

	// Act/Assert: 20 minutes over -> one Warning alert and one conflict row
	f.clock.SetTime(etd.Add(20 * time.Minute))
	f.detector.Scan(ctx)

	conflicts, err := f.conflicts.Active(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, conflict.KindOverstay, conflicts[0].Kind)
	assert.Equal(t, s.ID, conflicts[0].ScheduleID1)
	assert.Equal(t, conflict.SeverityWarning, conflicts[0].Severity)
	assert.Equal(t, 1, f.countAlerts(t))

	// Scanning again inside the same band stays silent
	f.clock.SetTime(etd.Add(25 * time.Minute))
	f.detector.Scan(ctx)
	assert.Equal(t, 1, f.countAlerts(t))

	// 35 minutes over crosses into High: a new alert, still one conflict
	f.clock.SetTime(etd.Add(35 * time.Minute))
	f.detector.Scan(ctx)
	assert.Equal(t, 2, f.countAlerts(t))
	conflicts, err = f.conflicts.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	// 65 minutes over crosses into Critical
	f.clock.SetTime(etd.Add(65 * time.Minute))
	f.detector.Scan(ctx)
	assert.Equal(t, 3, f.countAlerts(t))

	// Critical is the ceiling; further scans add nothing
	f.clock.SetTime(etd.Add(3 * time.Hour))
	f.detector.Scan(ctx)
	assert.Equal(t, 3, f.countAlerts(t))
}

func TestConflictDetector_ShortOverrunsStayBelowTheWarningBand(t *testing.T) {
	// A vessel a few minutes past ETD is still clearing lines; the first
	// band only opens at 15 minutes over
	f := newDetectorFixture(t)
	eta := time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC)
	etd := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	f.berthedSchedule(t, 1, eta, etd)
	ctx := context.Background()

	f.clock.SetTime(etd.Add(5 * time.Minute))
	f.detector.Scan(ctx)

	conflicts, err := f.conflicts.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, 0, f.countAlerts(t))

	// Crossing the band boundary opens it
	f.clock.SetTime(etd.Add(16 * time.Minute))
	f.detector.Scan(ctx)
	conflicts, err = f.conflicts.Active(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, conflict.SeverityWarning, conflicts[0].Severity)
	assert.Equal(t, 1, f.countAlerts(t))
}

func TestConflictDetector_ApproachingDepartureNoticeFiresOnce(t *testing.T) {
	f := newDetectorFixture(t)
	eta := time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC)
	etd := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.berthedSchedule(t, 1, eta, etd)
	ctx := context.Background()

	// 90 minutes before ETD the heads-up fires
	f.clock.SetTime(etd.Add(-90 * time.Minute))
	f.detector.Scan(ctx)
	require.Equal(t, 1, f.countAlerts(t))

	alerts, err := f.alerts.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "APPROACHING_DEPARTURE", alerts[0].Type)
	assert.Equal(t, conflict.SeverityInfo, alerts[0].Severity)

	// Later scans before the ETD do not repeat the notice
	f.clock.SetTime(etd.Add(-30 * time.Minute))
	f.detector.Scan(ctx)
	assert.Equal(t, 1, f.countAlerts(t))
}

func TestConflictDetector_OverlapOnSharedBerthRaisesOneConflict(t *testing.T) {
	// Two confirmed stays cannot be created overlapping, but an upstream ETD
	// slip can push a stored window into its successor
	f := newDetectorFixture(t)
	ctx := context.Background()
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := schedule.NewSchedule(1, f.k1.ID, eta, eta.Add(4*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, first))
	second, err := schedule.NewSchedule(2, f.k1.ID, eta.Add(4*time.Hour), eta.Add(8*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, second))

	first.ETD = eta.Add(5 * time.Hour)
	require.NoError(t, f.schedules.Update(ctx, first))

	f.detector.Scan(ctx)
	f.detector.Scan(ctx)

	conflicts, err := f.conflicts.Active(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1, "repeat scans must not duplicate the open conflict")
	assert.Equal(t, conflict.KindBerthOverlap, conflicts[0].Kind)
	require.NotNil(t, conflicts[0].ScheduleID2)
}

func TestConflictDetector_TidalShortfallAtPredictedArrival(t *testing.T) {
	// Draft 17.5 + 1.5 clearance needs 19.0m; charted 16.0 leaves 3.0m to the
	// tide, and the series tops out at 2.5m around the predicted arrival
	f := newDetectorFixture(t)
	ctx := context.Background()
	deep := helpers.SeedVessel(t, f.db, "MSC Oscar", 395, 59, 17.5)

	eta := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := schedule.NewSchedule(deep.ID, f.k1.ID, eta, eta.Add(6*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, s))

	for _, r := range []*tide.Reading{
		{PortID: f.port.ID, TideTime: eta.Add(-6 * time.Hour), Type: tide.ReadingLow, HeightMeters: 0.4},
		{PortID: f.port.ID, TideTime: eta, Type: tide.ReadingHigh, HeightMeters: 2.5},
		{PortID: f.port.ID, TideTime: eta.Add(6 * time.Hour), Type: tide.ReadingLow, HeightMeters: 0.5},
	} {
		require.NoError(t, f.tides.Save(ctx, r))
	}

	f.detector.Scan(ctx)
	f.detector.Scan(ctx)

	conflicts, err := f.conflicts.Active(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, conflict.KindTidalConstraint, conflicts[0].Kind)
	assert.Equal(t, s.ID, conflicts[0].ScheduleID1)
}
