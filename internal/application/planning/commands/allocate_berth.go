package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// AllocateBerthCommand commits a vessel to a berth over [ETA, ETD)
type AllocateBerthCommand struct {
	VesselID int
	BerthID  int
	PortCode string
	ETA      time.Time
	ETD      time.Time
	Notes    string
	// GovernmentOverride lets a GOVERNMENT call preempt a contracted
	// window-vessel claim; it must be set explicitly, never inferred
	GovernmentOverride bool
}

// AllocateBerthResponse reports the committed schedule, or the violations and
// resolution options when the allocation is blocked
type AllocateBerthResponse struct {
	Schedule *schedule.Schedule
	Blocked  []planning.Violation
	Options  []conflict.ResolutionOption
}

// Allocated reports whether the command produced a schedule
func (r *AllocateBerthResponse) Allocated() bool {
	return r.Schedule != nil
}

// AllocateBerthHandler handles berth allocation commands. Commit-time
// validation is strict: every hard violation blocks, and the store re-checks
// occupancy inside its transaction so racing allocators serialize.
type AllocateBerthHandler struct {
	vessels    vessel.Repository
	berths     berth.Repository
	schedules  schedule.Repository
	envBuilder *services.EnvironmentBuilder
	planner    *services.ResolutionPlanner
	validator  *planning.Validator
	bus        *events.Bus
	clock      shared.Clock
}

// NewAllocateBerthHandler creates a new handler
func NewAllocateBerthHandler(
	vessels vessel.Repository,
	berths berth.Repository,
	schedules schedule.Repository,
	envBuilder *services.EnvironmentBuilder,
	planner *services.ResolutionPlanner,
	validator *planning.Validator,
	bus *events.Bus,
	clock shared.Clock,
) *AllocateBerthHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &AllocateBerthHandler{
		vessels:    vessels,
		berths:     berths,
		schedules:  schedules,
		envBuilder: envBuilder,
		planner:    planner,
		validator:  validator,
		bus:        bus,
		clock:      clock,
	}
}

// Handle executes the command
func (h *AllocateBerthHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*AllocateBerthCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	ves, err := h.vessels.FindByID(ctx, cmd.VesselID)
	if err != nil {
		return nil, err
	}
	target, err := h.berths.FindByID(ctx, cmd.BerthID)
	if err != nil {
		return nil, err
	}
	port, err := h.berths.FindPortByCode(ctx, cmd.PortCode)
	if err != nil {
		return nil, err
	}

	proposed, err := schedule.NewSchedule(ves.ID, target.ID, cmd.ETA, cmd.ETD, ves.PriorityWeight())
	if err != nil {
		return nil, err
	}
	proposed.Notes = cmd.Notes

	window := planning.Window{From: cmd.ETA, To: cmd.ETD}
	env, err := h.envBuilder.Build(ctx, ves, target, port.ID, window, 0, true)
	if err != nil {
		return nil, err
	}

	result := h.validator.Validate(ves, target, env, planning.ModeFull)
	blocked := hardViolations(result, ves, cmd.GovernmentOverride)
	if len(blocked) > 0 {
		options := h.planner.OptionsForOverlap(ctx, ves, proposed, env.OverlappingSchedules)
		return &AllocateBerthResponse{Blocked: blocked, Options: options}, nil
	}

	if err := h.schedules.Create(ctx, proposed); err != nil {
		if !shared.IsKind(err, shared.KindTimeConflict) {
			return nil, err
		}
		// Lost a race with a concurrent allocator; retry once from the
		// earliest still-meaningful arrival
		retried, retryErr := h.retryAfterConflict(ctx, ves, target, port.ID, proposed)
		if retryErr != nil {
			return nil, retryErr
		}
		proposed = retried
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "created", Schedule: proposed},
		events.RoomPort(port.Code), events.RoomTerminal(target.TerminalID), events.RoomVessel(ves.ID))

	return &AllocateBerthResponse{Schedule: proposed}, nil
}

// hardViolations filters the hard failures, honoring an explicit government
// override of the window-claim rule only
func hardViolations(result planning.Result, ves *vessel.Vessel, override bool) []planning.Violation {
	var out []planning.Violation
	for _, v := range result.Violations {
		if !v.Hard {
			continue
		}
		if v.Rule == "P-WND-001" && override && ves.PriorityClass == vessel.PriorityGovernment {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (h *AllocateBerthHandler) retryAfterConflict(
	ctx context.Context,
	ves *vessel.Vessel,
	target *berth.Berth,
	portID int,
	proposed *schedule.Schedule,
) (*schedule.Schedule, error) {
	dwell := proposed.ETD.Sub(proposed.ETA)
	from := proposed.ETA
	if now := h.clock.Now(); now.After(from) {
		from = now
	}

	active, err := h.schedules.ActiveForBerth(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	req := planning.SlotRequest{PreferredETA: from, Dwell: dwell}
	for _, s := range active {
		req.Schedules = append(req.Schedules, planning.Window{From: s.ETA, To: s.ETD})
	}
	slot, err := planning.FindSlot(req)
	if err != nil {
		return nil, err
	}

	window := planning.Window{From: slot.ETA, To: slot.ETD}
	env, err := h.envBuilder.Build(ctx, ves, target, portID, window, 0, true)
	if err != nil {
		return nil, err
	}
	result := h.validator.Validate(ves, target, env, planning.ModeFull)
	if v := result.FirstHard(); v != nil {
		return nil, shared.NewError(shared.KindConstraintHard, v.Rule, v.Message)
	}

	retried, err := schedule.NewSchedule(ves.ID, target.ID, slot.ETA, slot.ETD, proposed.PriorityWeight)
	if err != nil {
		return nil, err
	}
	retried.Notes = proposed.Notes
	if err := h.schedules.Create(ctx, retried); err != nil {
		return nil, err
	}
	return retried, nil
}
