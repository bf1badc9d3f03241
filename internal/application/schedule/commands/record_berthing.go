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

// RecordBerthingCommand marks a vessel all-fast alongside
type RecordBerthingCommand struct {
	ScheduleID int
	ATB        time.Time
}

// RecordBerthingResponse carries the updated schedule
type RecordBerthingResponse struct {
	Schedule *schedule.Schedule
}

// RecordBerthingHandler advances a schedule to Berthed and fixes its waiting time
type RecordBerthingHandler struct {
	schedules schedule.Repository
	berths    berth.Repository
	bus       *events.Bus
}

// NewRecordBerthingHandler creates a new handler
func NewRecordBerthingHandler(schedules schedule.Repository, berths berth.Repository, bus *events.Bus) *RecordBerthingHandler {
	return &RecordBerthingHandler{schedules: schedules, berths: berths, bus: bus}
}

// Handle executes the command
func (h *RecordBerthingHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RecordBerthingCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	s, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.RecordBerthing(cmd.ATB); err != nil {
		return nil, err
	}
	if err := h.schedules.Update(ctx, s); err != nil {
		return nil, err
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "updated", Schedule: s},
		roomsFor(ctx, h.berths, s)...)

	return &RecordBerthingResponse{Schedule: s}, nil
}
