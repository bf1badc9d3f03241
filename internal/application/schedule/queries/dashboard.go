package queries

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/pkg/utils"
)

// DashboardMetricsQuery requests the operator overview numbers
type DashboardMetricsQuery struct {
	TerminalID int // 0 means all terminals
}

// DashboardMetricsResponse is the operator overview
type DashboardMetricsResponse struct {
	ActiveSchedules    int     `json:"activeSchedules"`
	VesselsAlongside   int     `json:"vesselsAlongside"`
	VesselsWaiting     int     `json:"vesselsWaiting"`
	OpenConflicts      int     `json:"openConflicts"`
	UnreadAlerts       int     `json:"unreadAlerts"`
	BerthUtilization   float64 `json:"berthUtilization"`
	AvgWaitingMinutes  float64 `json:"avgWaitingMinutes"`
}

// DashboardMetricsHandler aggregates the overview from the stores
type DashboardMetricsHandler struct {
	schedules schedule.Repository
	berths    berth.Repository
	conflicts conflict.Repository
	alerts    conflict.AlertRepository
	clock     shared.Clock
}

// NewDashboardMetricsHandler creates a new handler
func NewDashboardMetricsHandler(
	schedules schedule.Repository,
	berths berth.Repository,
	conflicts conflict.Repository,
	alerts conflict.AlertRepository,
	clock shared.Clock,
) *DashboardMetricsHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &DashboardMetricsHandler{
		schedules: schedules,
		berths:    berths,
		conflicts: conflicts,
		alerts:    alerts,
		clock:     clock,
	}
}

// Handle executes the query
func (h *DashboardMetricsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*DashboardMetricsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	active, err := h.schedules.Active(ctx, query.TerminalID)
	if err != nil {
		return nil, err
	}
	openConflicts, err := h.conflicts.Active(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := h.alerts.Active(ctx)
	if err != nil {
		return nil, err
	}
	allBerths, err := h.berths.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := &DashboardMetricsResponse{
		ActiveSchedules: len(active),
		OpenConflicts:   len(openConflicts),
		UnreadAlerts:    len(unread),
	}

	now := h.clock.Now()
	occupied := make(map[int]bool)
	waitingSum := 0.0
	waitingCount := 0
	for _, s := range active {
		switch s.Status {
		case schedule.StatusBerthed:
			resp.VesselsAlongside++
			occupied[s.BerthID] = true
		case schedule.StatusApproaching:
			if s.ETA.Before(now) {
				resp.VesselsWaiting++
			}
		}
		if s.WaitingMinutes != nil {
			waitingSum += float64(*s.WaitingMinutes)
			waitingCount++
		}
	}
	if len(allBerths) > 0 {
		resp.BerthUtilization = utils.Round2(float64(len(occupied)) / float64(len(allBerths)) * 100)
	}
	if waitingCount > 0 {
		resp.AvgWaitingMinutes = utils.Round2(waitingSum / float64(waitingCount))
	}
	return resp, nil
}
