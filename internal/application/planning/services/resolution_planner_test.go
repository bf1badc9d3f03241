package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/test/helpers"
)

type plannerFixture struct {
	planner   *services.ResolutionPlanner
	schedules *persistence.GormScheduleRepository
	terminal  *berth.Terminal
	k1        *berth.Berth
	ves       *vessel.Vessel
	db        *gorm.DB
}

func newPlannerFixture(t *testing.T) *plannerFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 16, "CONTAINER")

	berths := persistence.NewGormBerthRepository(db)
	schedules := persistence.NewGormScheduleRepository(db)
	buffer := services.BufferPolicy(func(vessel.Type) time.Duration { return time.Hour })

	return &plannerFixture{
		planner:   services.NewResolutionPlanner(berths, schedules, buffer),
		schedules: schedules,
		terminal:  terminal,
		k1:        k1,
		ves:       helpers.SeedVessel(t, db, "Maas Trader", 300, 42, 10),
		db:        db,
	}
}

func (f *plannerFixture) storedSchedule(t *testing.T, vesselID, berthID int, eta, etd time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewSchedule(vesselID, berthID, eta, etd, 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), s))
	return s
}

func unstored(t *testing.T, vesselID, berthID int, eta, etd time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewSchedule(vesselID, berthID, eta, etd, 50)
	require.NoError(t, err)
	return s
}

func TestOptionsForOverlap_OrderedByImpact(t *testing.T) {
	// Arrange: K1 is taken [10:00, 14:00); a free sister berth exists
	f := newPlannerFixture(t)
	helpers.SeedBerth(t, f.db, f.terminal.ID, "K2", 350, 16, "CONTAINER")
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	blocker := f.storedSchedule(t, 2, f.k1.ID, eta, eta.Add(4*time.Hour))

	incoming := unstored(t, f.ves.ID, f.k1.ID, eta.Add(2*time.Hour), eta.Add(8*time.Hour))

	// Act
	options := f.planner.OptionsForOverlap(context.Background(), f.ves, incoming, []*schedule.Schedule{blocker})

	// Assert: the free alternate costs nothing and leads; impact never decreases
	require.NotEmpty(t, options)
	assert.Equal(t, conflict.StrategyShiftToAlternate, options[0].Strategy)
	assert.Equal(t, 0.0, options[0].ImpactScore)
	for i := 1; i < len(options); i++ {
		assert.GreaterOrEqual(t, options[i].ImpactScore, options[i-1].ImpactScore)
	}

	var delay *conflict.ResolutionOption
	for i := range options {
		if options[i].Strategy == conflict.StrategyDelaySecond {
			delay = &options[i]
		}
	}
	require.NotNil(t, delay)
	require.NotNil(t, delay.NewETA)
	assert.Equal(t, blocker.ETD.Add(time.Hour), delay.NewETA.UTC())
	assert.Equal(t, 180.0, delay.ImpactScore, "12:00 -> 15:00 costs 180 waiting minutes")
}

func TestOptionsForOverlap_ExpediteOfferedForSmallTailOnly(t *testing.T) {
	// The occupier's stay ends 30 minutes into an 8-hour call: a small tail
	f := newPlannerFixture(t)
	eta := time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)
	blocker := f.storedSchedule(t, 2, f.k1.ID, eta, eta.Add(8*time.Hour+30*time.Minute))
	incoming := unstored(t, f.ves.ID, f.k1.ID, eta.Add(8*time.Hour), eta.Add(14*time.Hour))

	options := f.planner.OptionsForOverlap(context.Background(), f.ves, incoming, []*schedule.Schedule{blocker})

	var sawExpedite bool
	for _, opt := range options {
		if opt.Strategy == conflict.StrategyExpedite {
			sawExpedite = true
			assert.Equal(t, blocker.ID, opt.TargetScheduleID)
			assert.Equal(t, 30.0, opt.ImpactScore)
		}
	}
	assert.True(t, sawExpedite)

	// A deep overlap is not something to expedite away
	deep := unstored(t, f.ves.ID, f.k1.ID, eta.Add(2*time.Hour), eta.Add(10*time.Hour))
	options = f.planner.OptionsForOverlap(context.Background(), f.ves, deep, []*schedule.Schedule{blocker})
	for _, opt := range options {
		assert.NotEqual(t, conflict.StrategyExpedite, opt.Strategy)
	}
}

func TestOptionsForOverlap_TruncateNeedsHalfTheDwell(t *testing.T) {
	f := newPlannerFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// The blocker starts 4 hours into a 6-hour request: 2/3 of the dwell survives
	blocker := f.storedSchedule(t, 2, f.k1.ID, eta.Add(4*time.Hour), eta.Add(9*time.Hour))
	incoming := unstored(t, f.ves.ID, f.k1.ID, eta, eta.Add(6*time.Hour))

	options := f.planner.OptionsForOverlap(context.Background(), f.ves, incoming, []*schedule.Schedule{blocker})

	var truncate *conflict.ResolutionOption
	for i := range options {
		if options[i].Strategy == conflict.StrategyTruncateStay {
			truncate = &options[i]
		}
	}
	require.NotNil(t, truncate)
	require.NotNil(t, truncate.NewETD)
	assert.Equal(t, blocker.ETA.UTC(), truncate.NewETD.UTC())
	assert.Equal(t, 120.0, truncate.ImpactScore, "two hours of dwell are given up")
}

func TestOptionsForOverlap_NoBlockersNoOptions(t *testing.T) {
	f := newPlannerFixture(t)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	incoming := unstored(t, f.ves.ID, f.k1.ID, eta, eta.Add(6*time.Hour))

	assert.Nil(t, f.planner.OptionsForOverlap(context.Background(), f.ves, incoming, nil))
}

func TestOptionsForPair_SwapOnlyForFutureCrossBerthPairs(t *testing.T) {
	f := newPlannerFixture(t)
	k2 := helpers.SeedBerth(t, f.db, f.terminal.ID, "K2", 350, 16, "CONTAINER")
	now := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	eta := now.Add(4 * time.Hour)

	a := f.storedSchedule(t, f.ves.ID, f.k1.ID, eta, eta.Add(6*time.Hour))
	b := f.storedSchedule(t, 2, k2.ID, eta.Add(time.Hour), eta.Add(7*time.Hour))

	options := f.planner.OptionsForPair(context.Background(), f.ves, a, b, now)

	var swap *conflict.ResolutionOption
	for i := range options {
		if options[i].Strategy == conflict.StrategySwapSchedules {
			swap = &options[i]
		}
	}
	require.NotNil(t, swap)
	assert.Equal(t, a.ID, swap.TargetScheduleID)
	assert.Equal(t, k2.ID, swap.NewBerthID)
	assert.Equal(t, 60.0, swap.ImpactScore)

	// A pair already alongside cannot swap
	options = f.planner.OptionsForPair(context.Background(), f.ves, a, b, eta.Add(2*time.Hour))
	for _, opt := range options {
		assert.NotEqual(t, conflict.StrategySwapSchedules, opt.Strategy)
	}
}
