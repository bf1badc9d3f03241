package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/planning/commands"
	"github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/test/helpers"
)

type allocateFixture struct {
	handler   *commands.AllocateBerthHandler
	vessels   *persistence.GormVesselRepository
	schedules *persistence.GormScheduleRepository
	k1        *berth.Berth
	db        *gorm.DB
}

func newAllocateFixture(t *testing.T) *allocateFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC))

	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 16, "CONTAINER")

	vessels := persistence.NewGormVesselRepository(db)
	berths := persistence.NewGormBerthRepository(db)
	schedules := persistence.NewGormScheduleRepository(db)
	maintenance := persistence.NewGormMaintenanceRepository(db)
	resources := persistence.NewGormResourceRepository(db)
	tides := persistence.NewGormTideRepository(db)

	// One pilot and one rated tug cover the smallest movement requirement
	pull := 60.0
	require.NoError(t, resources.Save(context.Background(),
		&resource.Resource{Kind: resource.KindPilot, Name: "Pilot 1", IsAvailable: true}))
	require.NoError(t, resources.Save(context.Background(),
		&resource.Resource{Kind: resource.KindTug, Name: "Tug 1", BollardPull: &pull, IsAvailable: true}))

	ukc := planning.UKCConfig{DefaultMeters: 1.5, LargeMeters: 2.0, VLCCMeters: 2.5}
	validator := planning.NewValidator(ukc, planning.DefaultWeatherLimits())
	envBuilder := services.NewEnvironmentBuilder(schedules, maintenance, resources, tides, nil)
	buffer := services.BufferPolicy(func(vessel.Type) time.Duration { return time.Hour })
	planner := services.NewResolutionPlanner(berths, schedules, buffer)
	bus := events.NewBus(16, clock)

	return &allocateFixture{
		handler: commands.NewAllocateBerthHandler(
			vessels, berths, schedules, envBuilder, planner, validator, bus, clock),
		vessels:   vessels,
		schedules: schedules,
		k1:        k1,
		db:        db,
	}
}

func (f *allocateFixture) saveVessel(t *testing.T, name string, loa float64, priority vessel.PriorityClass) *vessel.Vessel {
	t.Helper()
	v, err := vessel.NewVessel(name, vessel.TypeContainer, loa, 42, 10, "CONTAINER", priority)
	require.NoError(t, err)
	require.NoError(t, f.vessels.Save(context.Background(), v))
	return v
}

func blockedRules(resp *commands.AllocateBerthResponse) []string {
	rules := make([]string, 0, len(resp.Blocked))
	for _, v := range resp.Blocked {
		rules = append(rules, v.Rule)
	}
	return rules
}

func TestAllocateBerth_CommitsFreeWindow(t *testing.T) {
	// Arrange
	f := newAllocateFixture(t)
	ves := f.saveVessel(t, "Maas Trader", 300, vessel.PriorityFCFS)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// Act
	resp, err := f.handler.Handle(context.Background(), &commands.AllocateBerthCommand{
		VesselID: ves.ID,
		BerthID:  f.k1.ID,
		PortCode: "NLRTM",
		ETA:      eta,
		ETD:      eta.Add(8 * time.Hour),
		Notes:    "first call",
	})

	// Assert
	require.NoError(t, err)
	out := resp.(*commands.AllocateBerthResponse)
	require.True(t, out.Allocated())
	assert.Empty(t, out.Blocked)

	stored, err := f.schedules.FindByID(context.Background(), out.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusScheduled, stored.Status)
	assert.Equal(t, "first call", stored.Notes)
	assert.Equal(t, eta, stored.ETA.UTC())
}

func TestAllocateBerth_OccupiedWindowReturnsViolationsAndOptions(t *testing.T) {
	// Arrange: the berth is taken over [10:00, 14:00)
	f := newAllocateFixture(t)
	occupier := f.saveVessel(t, "Ever Given", 300, vessel.PriorityFCFS)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	held, err := schedule.NewSchedule(occupier.ID, f.k1.ID, eta, eta.Add(4*time.Hour), 50)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), held))

	ves := f.saveVessel(t, "Maas Trader", 300, vessel.PriorityFCFS)

	// Act: request [12:00, 16:00) on the same quay
	resp, err := f.handler.Handle(context.Background(), &commands.AllocateBerthCommand{
		VesselID: ves.ID,
		BerthID:  f.k1.ID,
		PortCode: "NLRTM",
		ETA:      eta.Add(2 * time.Hour),
		ETD:      eta.Add(6 * time.Hour),
	})

	// Assert: no schedule, the availability violation, and a delay option
	// sliding past the occupier plus the turnaround buffer
	require.NoError(t, err)
	out := resp.(*commands.AllocateBerthResponse)
	assert.False(t, out.Allocated())
	assert.Contains(t, blockedRules(out), "B-AVL-001")
	require.NotEmpty(t, out.Options)

	var sawDelay bool
	for _, opt := range out.Options {
		if opt.Strategy != "DELAY_SECOND" {
			continue
		}
		sawDelay = true
		require.NotNil(t, opt.NewETA)
		assert.Equal(t, held.ETD.Add(time.Hour), opt.NewETA.UTC())
	}
	assert.True(t, sawDelay, "a delay option past the occupier must be offered")
}

func TestAllocateBerth_OversizedVesselBlocked(t *testing.T) {
	f := newAllocateFixture(t)
	ves := f.saveVessel(t, "MSC Irina", 399.9, vessel.PriorityFCFS)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	resp, err := f.handler.Handle(context.Background(), &commands.AllocateBerthCommand{
		VesselID: ves.ID,
		BerthID:  f.k1.ID,
		PortCode: "NLRTM",
		ETA:      eta,
		ETD:      eta.Add(8 * time.Hour),
	})

	require.NoError(t, err)
	out := resp.(*commands.AllocateBerthResponse)
	assert.False(t, out.Allocated())
	assert.Contains(t, blockedRules(out), "V-DIM-001")
}

func TestAllocateBerth_GovernmentOverrideClearsOnlyTheWindowClaim(t *testing.T) {
	// Arrange: a contracted window vessel claims the berth from 12:00
	f := newAllocateFixture(t)
	liner := f.saveVessel(t, "Window Liner", 300, vessel.PriorityWindow)
	claimETA := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	claim, err := schedule.NewSchedule(liner.ID, f.k1.ID, claimETA, claimETA.Add(6*time.Hour), liner.PriorityWeight())
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), claim))

	gov := f.saveVessel(t, "Zr.Ms. Holland", 108, vessel.PriorityGovernment)
	cmd := &commands.AllocateBerthCommand{
		VesselID: gov.ID,
		BerthID:  f.k1.ID,
		PortCode: "NLRTM",
		ETA:      claimETA.Add(-2 * time.Hour),
		ETD:      claimETA.Add(2 * time.Hour),
	}

	// Without the explicit override the claim itself blocks
	resp, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Contains(t, blockedRules(resp.(*commands.AllocateBerthResponse)), "P-WND-001")

	// With it the claim rule is waived, yet the physical occupancy still holds
	cmd.GovernmentOverride = true
	resp, err = f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	rules := blockedRules(resp.(*commands.AllocateBerthResponse))
	assert.NotContains(t, rules, "P-WND-001")
	assert.Contains(t, rules, "B-AVL-001")
}

func TestAllocateBerth_FCFSVesselCannotOverride(t *testing.T) {
	f := newAllocateFixture(t)
	liner := f.saveVessel(t, "Window Liner", 300, vessel.PriorityWindow)
	claimETA := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	claim, err := schedule.NewSchedule(liner.ID, f.k1.ID, claimETA, claimETA.Add(6*time.Hour), liner.PriorityWeight())
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), claim))

	tramp := f.saveVessel(t, "Tramp Carrier", 200, vessel.PriorityFCFS)
	resp, err := f.handler.Handle(context.Background(), &commands.AllocateBerthCommand{
		VesselID:           tramp.ID,
		BerthID:            f.k1.ID,
		PortCode:           "NLRTM",
		ETA:                claimETA.Add(-2 * time.Hour),
		ETD:                claimETA.Add(2 * time.Hour),
		GovernmentOverride: true,
	})

	require.NoError(t, err)
	assert.Contains(t, blockedRules(resp.(*commands.AllocateBerthResponse)), "P-WND-001")
}

func TestAllocateBerth_UnknownVesselIsNotFound(t *testing.T) {
	f := newAllocateFixture(t)

	_, err := f.handler.Handle(context.Background(), &commands.AllocateBerthCommand{
		VesselID: 9999,
		BerthID:  f.k1.ID,
		PortCode: "NLRTM",
		ETA:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		ETD:      time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
	})

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}
