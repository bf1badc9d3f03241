package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// RecordArrivalCommand marks a vessel arrived at the anchorage or pilot station
type RecordArrivalCommand struct {
	ScheduleID int
	ATA        time.Time
}

// RecordArrivalResponse carries the updated schedule
type RecordArrivalResponse struct {
	Schedule *schedule.Schedule
}

// RecordArrivalHandler advances a schedule to Approaching
type RecordArrivalHandler struct {
	schedules schedule.Repository
	berths    berth.Repository
	bus       *events.Bus
}

// NewRecordArrivalHandler creates a new handler
func NewRecordArrivalHandler(schedules schedule.Repository, berths berth.Repository, bus *events.Bus) *RecordArrivalHandler {
	return &RecordArrivalHandler{schedules: schedules, berths: berths, bus: bus}
}

// Handle executes the command
func (h *RecordArrivalHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RecordArrivalCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	s, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.RecordArrival(cmd.ATA); err != nil {
		return nil, err
	}
	if err := h.schedules.Update(ctx, s); err != nil {
		return nil, err
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "updated", Schedule: s},
		roomsFor(ctx, h.berths, s)...)

	return &RecordArrivalResponse{Schedule: s}, nil
}
