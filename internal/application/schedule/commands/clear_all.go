package commands

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// ClearAllCommand wipes schedules, conflicts, and alerts. Administrative
// reset for planning sandboxes; disabled unless explicitly configured.
type ClearAllCommand struct{}

// ClearAllResponse confirms the wipe
type ClearAllResponse struct {
	Cleared bool
}

// ClearAllHandler gates and executes the administrative reset
type ClearAllHandler struct {
	schedules schedule.Repository
	conflicts conflict.Repository
	alerts    conflict.AlertRepository
	allowed   bool
}

// NewClearAllHandler creates a new handler; allowed comes from admin config
func NewClearAllHandler(
	schedules schedule.Repository,
	conflicts conflict.Repository,
	alerts conflict.AlertRepository,
	allowed bool,
) *ClearAllHandler {
	return &ClearAllHandler{schedules: schedules, conflicts: conflicts, alerts: alerts, allowed: allowed}
}

// Handle executes the command
func (h *ClearAllHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ClearAllCommand); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if !h.allowed {
		return nil, shared.NewError(shared.KindValidation, "E-ADM-001",
			"clear-all is disabled; enable admin.allow_clear_all to use it")
	}
	if err := h.schedules.ClearAll(ctx); err != nil {
		return nil, err
	}
	if err := h.conflicts.ClearAll(ctx); err != nil {
		return nil, err
	}
	if err := h.alerts.ClearAll(ctx); err != nil {
		return nil, err
	}
	return &ClearAllResponse{Cleared: true}, nil
}
