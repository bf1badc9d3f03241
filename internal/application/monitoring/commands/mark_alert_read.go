package commands

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/conflict"
)

// MarkAlertReadCommand acknowledges an alert; re-acknowledging is a no-op
type MarkAlertReadCommand struct {
	AlertID int
}

// MarkAlertReadResponse confirms the acknowledgement
type MarkAlertReadResponse struct {
	AlertID int
}

// MarkAlertReadHandler stamps the alert read
type MarkAlertReadHandler struct {
	alerts conflict.AlertRepository
}

// NewMarkAlertReadHandler creates a new handler
func NewMarkAlertReadHandler(alerts conflict.AlertRepository) *MarkAlertReadHandler {
	return &MarkAlertReadHandler{alerts: alerts}
}

// Handle executes the command
func (h *MarkAlertReadHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*MarkAlertReadCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if err := h.alerts.MarkRead(ctx, cmd.AlertID); err != nil {
		return nil, err
	}
	return &MarkAlertReadResponse{AlertID: cmd.AlertID}, nil
}
