package commands

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// CancelScheduleCommand cancels a planned or in-progress call
type CancelScheduleCommand struct {
	ScheduleID int
	Reason     string
}

// CancelScheduleResponse carries the cancelled schedule
type CancelScheduleResponse struct {
	Schedule *schedule.Schedule
}

// CancelScheduleHandler moves a schedule to Cancelled and frees its resources
type CancelScheduleHandler struct {
	schedules schedule.Repository
	resources resource.Repository
	berths    berth.Repository
	bus       *events.Bus
}

// NewCancelScheduleHandler creates a new handler
func NewCancelScheduleHandler(
	schedules schedule.Repository,
	resources resource.Repository,
	berths berth.Repository,
	bus *events.Bus,
) *CancelScheduleHandler {
	return &CancelScheduleHandler{schedules: schedules, resources: resources, berths: berths, bus: bus}
}

// Handle executes the command
func (h *CancelScheduleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CancelScheduleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	s, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.Cancel(); err != nil {
		return nil, err
	}
	if cmd.Reason != "" {
		if s.Notes != "" {
			s.Notes += "; "
		}
		s.Notes += "cancelled: " + cmd.Reason
	}
	if err := h.schedules.Update(ctx, s); err != nil {
		return nil, err
	}
	if err := h.resources.ReleaseForSchedule(ctx, s.ID); err != nil {
		return nil, err
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "cancelled", Schedule: s},
		roomsFor(ctx, h.berths, s)...)

	return &CancelScheduleResponse{Schedule: s}, nil
}
