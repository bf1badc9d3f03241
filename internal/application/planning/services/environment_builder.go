package services

import (
	"context"
	"time"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// WeatherProvider supplies the forecast for a candidate window.
// A nil provider (or nil forecast) skips the weather rules.
type WeatherProvider interface {
	ForWindow(ctx context.Context, portID int, w planning.Window) (*planning.Weather, error)
}

// EnvironmentBuilder assembles the world state the constraint validator reads
// for one (vessel, berth, window) tuple. The validator itself stays pure; all
// store access happens here.
type EnvironmentBuilder struct {
	schedules   schedule.Repository
	maintenance berth.MaintenanceRepository
	resources   resource.Repository
	tides       tide.Repository
	weather     WeatherProvider
}

// NewEnvironmentBuilder creates a builder over the given repositories
func NewEnvironmentBuilder(
	schedules schedule.Repository,
	maintenance berth.MaintenanceRepository,
	resources resource.Repository,
	tides tide.Repository,
	weather WeatherProvider,
) *EnvironmentBuilder {
	return &EnvironmentBuilder{
		schedules:   schedules,
		maintenance: maintenance,
		resources:   resources,
		tides:       tides,
		weather:     weather,
	}
}

// Build loads everything the validator needs for the candidate window.
// excludeScheduleID removes the schedule being moved from its own overlap set.
func (b *EnvironmentBuilder) Build(
	ctx context.Context,
	ves *vessel.Vessel,
	target *berth.Berth,
	portID int,
	window planning.Window,
	excludeScheduleID int,
	commitCheck bool,
) (planning.Env, error) {
	env := planning.Env{Window: window, CommitCheck: commitCheck}

	overlapping, err := b.schedules.Overlapping(ctx, target.ID, window.From, window.To, excludeScheduleID)
	if err != nil {
		return env, err
	}
	env.OverlappingSchedules = overlapping

	maint, err := b.maintenance.BlockingForBerth(ctx, target.ID, window.From, window.To)
	if err != nil {
		return env, err
	}
	env.Maintenance = maint

	pilots, err := b.resources.AvailableInWindow(ctx, resource.KindPilot, window.From, window.To)
	if err != nil {
		return env, err
	}
	env.AvailablePilots = pilots

	tugs, err := b.resources.AvailableInWindow(ctx, resource.KindTug, window.From, window.To)
	if err != nil {
		return env, err
	}
	env.AvailableTugs = tugs

	// A day of margin either side keeps the interpolation anchored by extremes
	// outside the window itself
	readings, err := b.tides.Range(ctx, portID, window.From.Add(-tideMargin), window.To.Add(tideMargin))
	if err != nil {
		return env, err
	}
	env.TideReadings = readings

	env.WindowClaimCrossed = windowClaimCrossed(ves, overlapping, window)

	if b.weather != nil {
		forecast, err := b.weather.ForWindow(ctx, portID, window)
		if err == nil {
			env.Weather = forecast
		}
	}
	return env, nil
}

const tideMargin = 24 * time.Hour

// windowClaimCrossed reports whether a contracted window-vessel claim on the
// berth starts inside the candidate stay of a non-window vessel
func windowClaimCrossed(ves *vessel.Vessel, overlapping []*schedule.Schedule, w planning.Window) bool {
	if ves.PriorityClass == vessel.PriorityWindow {
		return false
	}
	claimWeight := vessel.PriorityWindow.Weight()
	for _, s := range overlapping {
		if s.PriorityWeight == claimWeight && !s.ETA.Before(w.From) && s.ETA.Before(w.To) {
			return true
		}
	}
	return false
}
