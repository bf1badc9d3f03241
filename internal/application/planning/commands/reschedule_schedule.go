package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// RescheduleCommand moves a schedule to a new berth and/or window
type RescheduleCommand struct {
	ScheduleID int
	NewBerthID int // 0 keeps the current berth
	NewETA     time.Time
	NewETD     time.Time
	PortCode   string
}

// RescheduleResponse carries the replacement schedule
type RescheduleResponse struct {
	Old *schedule.Schedule
	New *schedule.Schedule
}

// RescheduleHandler validates the new placement and applies the move
// atomically through the schedule store
type RescheduleHandler struct {
	vessels    vessel.Repository
	berths     berth.Repository
	schedules  schedule.Repository
	envBuilder *services.EnvironmentBuilder
	validator  *planning.Validator
	bus        *events.Bus
}

// NewRescheduleHandler creates a new handler
func NewRescheduleHandler(
	vessels vessel.Repository,
	berths berth.Repository,
	schedules schedule.Repository,
	envBuilder *services.EnvironmentBuilder,
	validator *planning.Validator,
	bus *events.Bus,
) *RescheduleHandler {
	return &RescheduleHandler{
		vessels:    vessels,
		berths:     berths,
		schedules:  schedules,
		envBuilder: envBuilder,
		validator:  validator,
		bus:        bus,
	}
}

// Handle executes the command
func (h *RescheduleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RescheduleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	current, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, shared.ValidationError("scheduleId", "cannot reschedule a departed or cancelled schedule")
	}

	berthID := cmd.NewBerthID
	if berthID == 0 {
		berthID = current.BerthID
	}
	ves, err := h.vessels.FindByID(ctx, current.VesselID)
	if err != nil {
		return nil, err
	}
	target, err := h.berths.FindByID(ctx, berthID)
	if err != nil {
		return nil, err
	}
	port, err := h.berths.FindPortByCode(ctx, cmd.PortCode)
	if err != nil {
		return nil, err
	}

	window := planning.Window{From: cmd.NewETA, To: cmd.NewETD}
	env, err := h.envBuilder.Build(ctx, ves, target, port.ID, window, current.ID, true)
	if err != nil {
		return nil, err
	}
	result := h.validator.Validate(ves, target, env, planning.ModeFull)
	if v := result.FirstHard(); v != nil {
		return nil, shared.NewError(shared.KindConstraintHard, v.Rule, v.Message)
	}

	replacement, err := h.schedules.Reschedule(ctx, current.ID, berthID, cmd.NewETA, cmd.NewETD)
	if err != nil {
		return nil, err
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "rescheduled", Schedule: replacement},
		events.RoomPort(port.Code), events.RoomTerminal(target.TerminalID), events.RoomVessel(ves.ID))

	return &RescheduleResponse{Old: current, New: replacement}, nil
}
