package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// ResolveConflictCommand applies a chosen resolution option to an open conflict
type ResolveConflictCommand struct {
	ConflictID int
	Option     conflict.ResolutionOption
}

// ResolveConflictResponse reports the applied resolution
type ResolveConflictResponse struct {
	Conflict *conflict.Conflict
	// Rescheduled is the replacement schedule when the strategy moved one
	Rescheduled *schedule.Schedule
}

// ResolveConflictHandler applies the structural change the option describes
// and closes the conflict with the serialized resolution
type ResolveConflictHandler struct {
	conflicts conflict.Repository
	schedules schedule.Repository
	bus       *events.Bus
	clock     shared.Clock
	portCode  string
}

// NewResolveConflictHandler creates a new handler
func NewResolveConflictHandler(
	conflicts conflict.Repository,
	schedules schedule.Repository,
	bus *events.Bus,
	clock shared.Clock,
	portCode string,
) *ResolveConflictHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ResolveConflictHandler{conflicts: conflicts, schedules: schedules, bus: bus, clock: clock, portCode: portCode}
}

// Handle executes the command
func (h *ResolveConflictHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ResolveConflictCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	c, err := h.conflicts.FindByID(ctx, cmd.ConflictID)
	if err != nil {
		return nil, err
	}
	if !c.IsOpen() {
		return nil, shared.ValidationError("conflictId", "conflict is already resolved")
	}

	resp := &ResolveConflictResponse{}
	opt := cmd.Option

	switch opt.Strategy {
	case conflict.StrategyDelaySecond, conflict.StrategyShiftToAlternate, conflict.StrategyTruncateStay:
		if opt.NewETA == nil || opt.NewETD == nil {
			return nil, shared.ValidationError("option", "strategy requires a new window")
		}
		moved, err := h.schedules.Reschedule(ctx, opt.TargetScheduleID, opt.NewBerthID, *opt.NewETA, *opt.NewETD)
		if err != nil {
			return nil, err
		}
		resp.Rescheduled = moved

	case conflict.StrategyExpedite:
		if opt.NewETD == nil {
			return nil, shared.ValidationError("option", "expedite requires a new departure time")
		}
		target, err := h.schedules.FindByID(ctx, opt.TargetScheduleID)
		if err != nil {
			return nil, err
		}
		if !target.ETA.Before(*opt.NewETD) {
			return nil, shared.ValidationError("option", "expedited departure must follow the arrival")
		}
		target.ETD = *opt.NewETD
		target.DwellMinutes = int(target.ETD.Sub(target.ETA).Minutes())
		if err := h.schedules.Update(ctx, target); err != nil {
			return nil, err
		}
		resp.Rescheduled = target

	case conflict.StrategySwapSchedules:
		moved, err := h.applySwap(ctx, c, opt)
		if err != nil {
			return nil, err
		}
		resp.Rescheduled = moved

	default:
		return nil, shared.ValidationError("option", fmt.Sprintf("unknown strategy %s", opt.Strategy))
	}

	payload, err := json.Marshal(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize resolution: %w", err)
	}
	if err := h.conflicts.Resolve(ctx, c.ID, string(payload)); err != nil {
		return nil, err
	}
	now := h.clock.Now()
	c.ResolvedAt = &now
	c.ResolutionJSON = string(payload)
	resp.Conflict = c

	h.bus.Publish(events.TypeConflictResolved, events.ConflictPayload{Conflict: c},
		events.RoomPort(h.portCode))

	return resp, nil
}

// applySwap exchanges berths between the conflict's two schedules
func (h *ResolveConflictHandler) applySwap(ctx context.Context, c *conflict.Conflict, opt conflict.ResolutionOption) (*schedule.Schedule, error) {
	if c.ScheduleID2 == nil {
		return nil, shared.ValidationError("option", "swap needs a two-schedule conflict")
	}
	first, err := h.schedules.FindByID(ctx, opt.TargetScheduleID)
	if err != nil {
		return nil, err
	}
	otherID := *c.ScheduleID2
	if otherID == first.ID {
		otherID = c.ScheduleID1
	}
	second, err := h.schedules.FindByID(ctx, otherID)
	if err != nil {
		return nil, err
	}

	movedFirst, err := h.schedules.Reschedule(ctx, first.ID, second.BerthID, first.ETA, first.ETD)
	if err != nil {
		return nil, err
	}
	if _, err := h.schedules.Reschedule(ctx, second.ID, first.BerthID, second.ETA, second.ETD); err != nil {
		return nil, err
	}
	return movedFirst, nil
}
