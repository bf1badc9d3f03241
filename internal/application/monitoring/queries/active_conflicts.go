package queries

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// ActiveConflictsQuery requests the open conflicts with their resolution options
type ActiveConflictsQuery struct{}

// ConflictWithOptions pairs a conflict with the structural ways out of it
type ConflictWithOptions struct {
	Conflict *conflict.Conflict          `json:"conflict"`
	Options  []conflict.ResolutionOption `json:"options,omitempty"`
}

// ActiveConflictsResponse lists open conflicts, newest first
type ActiveConflictsResponse struct {
	Conflicts []ConflictWithOptions `json:"conflicts"`
}

// ActiveConflictsHandler reads the open conflicts and computes options for
// the resolvable kinds
type ActiveConflictsHandler struct {
	conflicts conflict.Repository
	schedules schedule.Repository
	vessels   vessel.Repository
	planner   *planningServices.ResolutionPlanner
	clock     shared.Clock
}

// NewActiveConflictsHandler creates a new handler
func NewActiveConflictsHandler(
	conflicts conflict.Repository,
	schedules schedule.Repository,
	vessels vessel.Repository,
	planner *planningServices.ResolutionPlanner,
	clock shared.Clock,
) *ActiveConflictsHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ActiveConflictsHandler{
		conflicts: conflicts,
		schedules: schedules,
		vessels:   vessels,
		planner:   planner,
		clock:     clock,
	}
}

// Handle executes the query
func (h *ActiveConflictsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ActiveConflictsQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	open, err := h.conflicts.Active(ctx)
	if err != nil {
		return nil, err
	}
	resp := &ActiveConflictsResponse{Conflicts: make([]ConflictWithOptions, 0, len(open))}
	for _, c := range open {
		entry := ConflictWithOptions{Conflict: c}
		if c.Kind == conflict.KindBerthOverlap && c.ScheduleID2 != nil {
			entry.Options = h.optionsForOverlap(ctx, c)
		}
		resp.Conflicts = append(resp.Conflicts, entry)
	}
	return resp, nil
}

func (h *ActiveConflictsHandler) optionsForOverlap(ctx context.Context, c *conflict.Conflict) []conflict.ResolutionOption {
	a, err := h.schedules.FindByID(ctx, c.ScheduleID1)
	if err != nil {
		return nil
	}
	b, err := h.schedules.FindByID(ctx, *c.ScheduleID2)
	if err != nil {
		return nil
	}
	ves, err := h.vessels.FindByID(ctx, a.VesselID)
	if err != nil {
		return nil
	}
	return h.planner.OptionsForPair(ctx, ves, a, b, h.clock.Now())
}
