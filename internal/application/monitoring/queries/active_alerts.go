package queries

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/conflict"
)

// ActiveAlertsQuery requests the unread alert feed
type ActiveAlertsQuery struct{}

// ActiveAlertsResponse lists unread alerts, newest first
type ActiveAlertsResponse struct {
	Alerts []*conflict.Alert `json:"alerts"`
}

// ActiveAlertsHandler reads the unread alert feed
type ActiveAlertsHandler struct {
	alerts conflict.AlertRepository
}

// NewActiveAlertsHandler creates a new handler
func NewActiveAlertsHandler(alerts conflict.AlertRepository) *ActiveAlertsHandler {
	return &ActiveAlertsHandler{alerts: alerts}
}

// Handle executes the query
func (h *ActiveAlertsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ActiveAlertsQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	alerts, err := h.alerts.Active(ctx)
	if err != nil {
		return nil, err
	}
	return &ActiveAlertsResponse{Alerts: alerts}, nil
}
