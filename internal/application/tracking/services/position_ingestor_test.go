package services_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/common"
	scheduleCommands "github.com/harborops/quayplan/internal/application/schedule/commands"
	"github.com/harborops/quayplan/internal/application/tracking/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/position"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/test/helpers"
)

// recordingMediator captures dispatched commands instead of handling them
type recordingMediator struct {
	sent []common.Request
}

func (m *recordingMediator) Send(_ context.Context, request common.Request) (common.Response, error) {
	m.sent = append(m.sent, request)
	return nil, nil
}

func (m *recordingMediator) Register(reflect.Type, common.RequestHandler) error { return nil }

type ingestFixture struct {
	ingestor  *services.PositionIngestor
	positions *persistence.GormPositionRepository
	schedules *persistence.GormScheduleRepository
	mediator  *recordingMediator
	clock     *shared.MockClock
	ves       *vessel.Vessel
	k1        *berth.Berth
	db        *gorm.DB
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC))

	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 16, "CONTAINER")

	vessels := persistence.NewGormVesselRepository(db)
	ves := helpers.SeedVessel(t, db, "Maas Trader", 300, 42, 10)
	mmsi := "244123456"
	ves.MMSI = &mmsi
	require.NoError(t, vessels.Save(context.Background(), ves))

	positions := persistence.NewGormPositionRepository(db, clock)
	schedules := persistence.NewGormScheduleRepository(db)
	berths := persistence.NewGormBerthRepository(db)
	med := &recordingMediator{}
	bus := events.NewBus(16, clock)

	return &ingestFixture{
		ingestor: services.NewPositionIngestor(positions, vessels, schedules, berths, med, bus, clock,
			services.IngestorConfig{CoalesceWindow: 5 * time.Second, StaleAfter: 10 * time.Minute, RetentionDays: 30}),
		positions: positions,
		schedules: schedules,
		mediator:  med,
		clock:     clock,
		ves:       ves,
		k1:        k1,
		db:        db,
	}
}

func (f *ingestFixture) report(sog float64) *position.Report {
	return &position.Report{
		VesselID:   f.ves.ID,
		Lat:        51.0,
		Lon:        4.05,
		SOGKnots:   sog,
		RecordedAt: f.clock.Now(),
	}
}

func TestIngest_CoalescesBurstsPerVessel(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	// The first sample writes through
	require.NoError(t, f.ingestor.Ingest(ctx, f.report(12)))
	latest, err := f.positions.Latest(ctx, f.ves.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, latest.SOGKnots)

	// A burst inside the window only replaces the pending sample
	f.clock.Advance(time.Second)
	require.NoError(t, f.ingestor.Ingest(ctx, f.report(11)))
	f.clock.Advance(time.Second)
	require.NoError(t, f.ingestor.Ingest(ctx, f.report(10)))

	speeds, err := f.positions.RecentSpeeds(ctx, f.ves.ID, 10)
	require.NoError(t, err)
	assert.Len(t, speeds, 1, "burst samples must not write through")

	// Once the window has elapsed the next sample writes again
	f.clock.Advance(10 * time.Second)
	require.NoError(t, f.ingestor.Ingest(ctx, f.report(9)))
	speeds, err = f.positions.RecentSpeeds(ctx, f.ves.ID, 10)
	require.NoError(t, err)
	assert.Len(t, speeds, 2)
}

func TestIngest_StaleSampleIsDropped(t *testing.T) {
	f := newIngestFixture(t)
	r := f.report(12)
	r.RecordedAt = f.clock.Now().Add(-15 * time.Minute)

	require.NoError(t, f.ingestor.Ingest(context.Background(), r))

	latest, err := f.positions.Latest(context.Background(), f.ves.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestIngest_OutOfOrderSampleIsDropped(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ingestor.Ingest(ctx, f.report(12)))

	// A frame recorded before the persisted track arrives after the window
	f.clock.Advance(10 * time.Second)
	r := f.report(9)
	r.RecordedAt = f.clock.Now().Add(-time.Minute)
	require.NoError(t, f.ingestor.Ingest(ctx, r))

	speeds, err := f.positions.RecentSpeeds(ctx, f.ves.ID, 10)
	require.NoError(t, err)
	assert.Len(t, speeds, 1, "the track must not rewind")
	latest, err := f.positions.Latest(ctx, f.ves.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, latest.SOGKnots)
}

func TestIngestStatic_BackfillsMMSIMappingByIMO(t *testing.T) {
	// A registered vessel without a radio identifier gets one from the
	// feed's static data, matched on its IMO number
	f := newIngestFixture(t)
	ctx := context.Background()
	vessels := persistence.NewGormVesselRepository(f.db)

	imo := "9321483"
	carrier := helpers.SeedVessel(t, f.db, "Rhine Carrier", 294, 32, 11)
	carrier.IMO = &imo
	require.NoError(t, vessels.Save(ctx, carrier))

	require.NoError(t, f.ingestor.IngestStatic(ctx, &position.StaticRecord{
		MMSI:       "244555000",
		IMO:        imo,
		Name:       "RHINE CARRIER",
		LOA:        294,
		Beam:       32,
		MaxDraft:   11.5,
		RecordedAt: f.clock.Now(),
	}))

	stored, err := vessels.FindByMMSI(ctx, "244555000")
	require.NoError(t, err)
	assert.Equal(t, carrier.ID, stored.ID)
}

func TestIngestStatic_UnknownVesselIsDropped(t *testing.T) {
	f := newIngestFixture(t)

	require.NoError(t, f.ingestor.IngestStatic(context.Background(), &position.StaticRecord{
		MMSI:       "111222333",
		IMO:        "1234567",
		RecordedAt: f.clock.Now(),
	}))

	vessels := persistence.NewGormVesselRepository(f.db)
	_, err := vessels.FindByMMSI(context.Background(), "111222333")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestIngest_UnknownMMSIIsSilentlySkipped(t *testing.T) {
	f := newIngestFixture(t)
	r := &position.Report{MMSI: "999999999", Lat: 51.0, Lon: 4.05, SOGKnots: 12, RecordedAt: f.clock.Now()}

	require.NoError(t, f.ingestor.Ingest(context.Background(), r))

	assert.Empty(t, f.mediator.sent)
}

func TestIngest_ResolvesVesselByMMSI(t *testing.T) {
	f := newIngestFixture(t)
	r := f.report(12)
	r.VesselID = 0
	r.MMSI = "244123456"

	require.NoError(t, f.ingestor.Ingest(context.Background(), r))

	latest, err := f.positions.Latest(context.Background(), f.ves.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ves.ID, latest.VesselID)
}

func TestIngest_MaterialDeviationReprojectsETA(t *testing.T) {
	// Arrange: the inbound call is planned in one hour, but the vessel is
	// still 57nm out making 12 knots
	f := newIngestFixture(t)
	ctx := context.Background()
	eta := f.clock.Now().Add(time.Hour)
	s, err := schedule.NewSchedule(f.ves.ID, f.k1.ID, eta, eta.Add(6*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, s))

	// Act
	require.NoError(t, f.ingestor.Ingest(ctx, f.report(12)))

	// Assert: the projected arrival deviates by hours, so an ETA update is
	// dispatched on the AIS source
	require.Len(t, f.mediator.sent, 1)
	cmd, ok := f.mediator.sent[0].(*scheduleCommands.UpdateETACommand)
	require.True(t, ok)
	assert.Equal(t, s.ID, cmd.ScheduleID)
	assert.Equal(t, "AIS", cmd.Source)
	assert.True(t, cmd.NewETA.After(eta.Add(2*time.Hour)), "a 57nm leg at 12kn takes close to five hours")
}

func TestIngest_SmallDeviationLeavesETAAlone(t *testing.T) {
	// The schedule already expects the vessel right about when the track
	// projects it, so no write-back happens
	f := newIngestFixture(t)
	ctx := context.Background()

	r := f.report(12)
	distNm := position.DistanceNm(r.Lat, r.Lon, 51.95, 4.05)
	projected := r.RecordedAt.Add(time.Duration(distNm / 12 * float64(time.Hour)))

	s, err := schedule.NewSchedule(f.ves.ID, f.k1.ID, projected, projected.Add(6*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, s))

	require.NoError(t, f.ingestor.Ingest(ctx, r))

	assert.Empty(t, f.mediator.sent)
}

func TestIngest_BerthedVesselIsNotReprojected(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	eta := f.clock.Now().Add(-2 * time.Hour)
	s, err := schedule.NewSchedule(f.ves.ID, f.k1.ID, eta, eta.Add(6*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(ctx, s))
	require.NoError(t, s.RecordArrival(eta))
	require.NoError(t, s.RecordBerthing(eta.Add(30*time.Minute)))
	require.NoError(t, f.schedules.Update(ctx, s))

	require.NoError(t, f.ingestor.Ingest(ctx, f.report(0.2)))

	assert.Empty(t, f.mediator.sent)
}
