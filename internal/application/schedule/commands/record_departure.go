package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// RecordDepartureCommand marks a vessel departed and closes out the call
type RecordDepartureCommand struct {
	ScheduleID int
	ATD        time.Time
}

// RecordDepartureResponse carries the final schedule and its history row
type RecordDepartureResponse struct {
	Schedule *schedule.Schedule
	History  *schedule.History
}

// RecordDepartureHandler advances a schedule to Departed, releases its
// resources, and appends the per-call performance record
type RecordDepartureHandler struct {
	schedules schedule.Repository
	history   schedule.HistoryRepository
	resources resource.Repository
	berths    berth.Repository
	bus       *events.Bus
}

// NewRecordDepartureHandler creates a new handler
func NewRecordDepartureHandler(
	schedules schedule.Repository,
	history schedule.HistoryRepository,
	resources resource.Repository,
	berths berth.Repository,
	bus *events.Bus,
) *RecordDepartureHandler {
	return &RecordDepartureHandler{
		schedules: schedules,
		history:   history,
		resources: resources,
		berths:    berths,
		bus:       bus,
	}
}

// Handle executes the command
func (h *RecordDepartureHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RecordDepartureCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	s, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	alreadyDeparted := s.Status == schedule.StatusDeparted
	if err := s.RecordDeparture(cmd.ATD); err != nil {
		return nil, err
	}
	if err := h.schedules.Update(ctx, s); err != nil {
		return nil, err
	}

	if err := h.resources.ReleaseForSchedule(ctx, s.ID); err != nil {
		return nil, err
	}

	var row *schedule.History
	if !alreadyDeparted {
		waiting := 0
		if s.WaitingMinutes != nil {
			waiting = *s.WaitingMinutes
		}
		row = &schedule.History{
			VesselID:           s.VesselID,
			BerthID:            s.BerthID,
			ScheduleID:         s.ID,
			ArrivedAt:          s.ATA,
			BerthedAt:          *s.ATB,
			DepartedAt:         *s.ATD,
			ActualDwellMinutes: s.DwellMinutes,
			WaitingMinutes:     waiting,
			EtaAccuracyPercent: schedule.EtaAccuracy(s.ETA, s.ATA),
		}
		if err := h.history.Append(ctx, row); err != nil {
			return nil, err
		}
	}

	h.bus.Publish(events.TypeScheduleChanged,
		events.ScheduleChangedPayload{Action: "updated", Schedule: s},
		roomsFor(ctx, h.berths, s)...)

	return &RecordDepartureResponse{Schedule: s, History: row}, nil
}
