package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// SourceAIS marks ETA moves projected from the position feed
const SourceAIS = "AIS"

// Deviation thresholds in minutes for alerting on a predicted-ETA move.
// Agent-reported moves alert from 30 minutes and grade High past 60; the
// AIS projector reports finer-grained tiers starting at 15 minutes.
const (
	etaAlertThreshold = 30
	etaHighThreshold  = 60

	aisInfoThreshold     = 15
	aisWarningThreshold  = 60
	aisCriticalThreshold = 120
)

// UpdateETACommand records a new predicted arrival for a schedule
type UpdateETACommand struct {
	ScheduleID int
	NewETA     time.Time
	Source     string // e.g. "AIS", "AGENT"
}

// UpdateETAResponse reports the deviation and any raised alert or conflict
type UpdateETAResponse struct {
	Schedule     *schedule.Schedule
	DeltaMinutes int
	Alert        *conflict.Alert
	Conflict     *conflict.Conflict
}

// UpdateETAHandler moves the predicted ETA, alerting on large deviations and
// re-checking berth occupancy at the shifted window
type UpdateETAHandler struct {
	schedules schedule.Repository
	berths    berth.Repository
	conflicts conflict.Repository
	alerts    conflict.AlertRepository
	bus       *events.Bus
	clock     shared.Clock
}

// NewUpdateETAHandler creates a new handler
func NewUpdateETAHandler(
	schedules schedule.Repository,
	berths berth.Repository,
	conflicts conflict.Repository,
	alerts conflict.AlertRepository,
	bus *events.Bus,
	clock shared.Clock,
) *UpdateETAHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &UpdateETAHandler{
		schedules: schedules,
		berths:    berths,
		conflicts: conflicts,
		alerts:    alerts,
		bus:       bus,
		clock:     clock,
	}
}

// Handle executes the command
func (h *UpdateETAHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*UpdateETACommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	s, err := h.schedules.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if s.Status.IsTerminal() || s.ATB != nil {
		return nil, shared.ValidationError("scheduleId", "cannot move the ETA of a berthed or closed schedule")
	}

	oldETA := s.PredictedETA
	delta := int(cmd.NewETA.Sub(s.ETA).Minutes())
	s.PredictedETA = cmd.NewETA
	if err := h.schedules.Update(ctx, s); err != nil {
		return nil, err
	}

	resp := &UpdateETAResponse{Schedule: s, DeltaMinutes: delta}

	// The planned window shifts with the prediction; any occupancy hit on the
	// shifted window is a conflict, not a silent reschedule
	dwell := time.Duration(s.DwellMinutes) * time.Minute
	overlapping, err := h.schedules.Overlapping(ctx, s.BerthID, cmd.NewETA, cmd.NewETA.Add(dwell), s.ID)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		resp.Conflict, err = h.raiseOverlapConflict(ctx, s, overlapping[0])
		if err != nil {
			return nil, err
		}
	}

	if severity, ok := deviationSeverity(abs(delta), cmd.Source); ok {
		if resp.Conflict != nil && severity != conflict.SeverityCritical {
			severity = conflict.SeverityHigh
		}
		alert := &conflict.Alert{
			Type:     string(conflict.KindETADeviation),
			Severity: severity,
			Message:  fmt.Sprintf("schedule %d predicted ETA moved %+d minutes (%s)", s.ID, delta, cmd.Source),
			RelatedEntities: map[string]interface{}{
				"scheduleId": s.ID,
				"vesselId":   s.VesselID,
			},
			CreatedAt: h.clock.Now(),
		}
		if err := h.alerts.Insert(ctx, alert); err != nil {
			return nil, err
		}
		resp.Alert = alert
		h.bus.Publish(events.TypeAlertRaised, events.AlertPayload{Alert: alert},
			roomsFor(ctx, h.berths, s)...)
	}

	h.bus.Publish(events.TypeETAUpdated, events.ETAUpdatedPayload{
		ScheduleID:   s.ID,
		VesselID:     s.VesselID,
		OldETA:       oldETA,
		NewETA:       cmd.NewETA,
		DeltaMinutes: delta,
	}, roomsFor(ctx, h.berths, s)...)

	return resp, nil
}

func (h *UpdateETAHandler) raiseOverlapConflict(ctx context.Context, s, other *schedule.Schedule) (*conflict.Conflict, error) {
	open, err := h.conflicts.HasOpen(ctx, s.ID, conflict.KindBerthOverlap)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, nil
	}
	otherID := other.ID
	c := &conflict.Conflict{
		Kind:        conflict.KindBerthOverlap,
		ScheduleID1: s.ID,
		ScheduleID2: &otherID,
		Severity:    conflict.SeverityHigh,
		DetectedAt:  h.clock.Now(),
		Description: fmt.Sprintf("predicted arrival of schedule %d now overlaps schedule %d on berth %d", s.ID, otherID, s.BerthID),
	}
	if err := h.conflicts.Insert(ctx, c); err != nil {
		return nil, err
	}
	h.bus.Publish(events.TypeConflictDetected, events.ConflictPayload{Conflict: c},
		roomsFor(ctx, h.berths, s)...)
	return c, nil
}

func deviationSeverity(delta int, source string) (conflict.Severity, bool) {
	if source == SourceAIS {
		switch {
		case delta >= aisCriticalThreshold:
			return conflict.SeverityCritical, true
		case delta >= aisWarningThreshold:
			return conflict.SeverityWarning, true
		case delta >= aisInfoThreshold:
			return conflict.SeverityInfo, true
		}
		return "", false
	}
	switch {
	case delta > etaHighThreshold:
		return conflict.SeverityHigh, true
	case delta > etaAlertThreshold:
		return conflict.SeverityMedium, true
	}
	return "", false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
