package queries

import (
	"context"
	"fmt"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// VesselHistoryQuery requests a vessel's aggregated call performance
type VesselHistoryQuery struct {
	VesselID int
}

// VesselHistoryResponse carries the aggregates the scoring engine also uses
type VesselHistoryResponse struct {
	VesselID       int     `json:"vesselId"`
	Visits         int     `json:"visits"`
	AvgEtaAccuracy float64 `json:"avgEtaAccuracy"`
}

// VesselHistoryHandler reads the departure history aggregates
type VesselHistoryHandler struct {
	history schedule.HistoryRepository
}

// NewVesselHistoryHandler creates a new handler
func NewVesselHistoryHandler(history schedule.HistoryRepository) *VesselHistoryHandler {
	return &VesselHistoryHandler{history: history}
}

// Handle executes the query
func (h *VesselHistoryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*VesselHistoryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	stats, err := h.history.StatsForVessel(ctx, query.VesselID)
	if err != nil {
		return nil, err
	}
	return &VesselHistoryResponse{
		VesselID:       query.VesselID,
		Visits:         stats.Visits,
		AvgEtaAccuracy: stats.AvgEtaAccuracy,
	}, nil
}
