package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/application/planning/types"
)

// SuggestBerthsQuery requests a ranked list of berth options for a vessel call
type SuggestBerthsQuery struct {
	VesselID     int
	PortCode     string
	PreferredETA time.Time
	DwellHours   float64 // requested stay length; default 24h
	TopN         int     // maximum suggestions to return
}

// SuggestBerthsResponse contains the ranked suggestions
type SuggestBerthsResponse struct {
	VesselID    int
	Suggestions []*types.BerthSuggestionDTO
}

// SuggestBerthsHandler handles berth suggestion queries
type SuggestBerthsHandler struct {
	engine      *services.SuggestionEngine
	defaultTopN int
}

// NewSuggestBerthsHandler creates a new handler
func NewSuggestBerthsHandler(engine *services.SuggestionEngine, defaultTopN int) *SuggestBerthsHandler {
	if defaultTopN <= 0 {
		defaultTopN = 5
	}
	return &SuggestBerthsHandler{engine: engine, defaultTopN: defaultTopN}
}

// Handle executes the query
func (h *SuggestBerthsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*SuggestBerthsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	dwell := time.Duration(query.DwellHours * float64(time.Hour))
	if dwell <= 0 {
		dwell = 24 * time.Hour
	}
	topN := query.TopN
	if topN <= 0 {
		topN = h.defaultTopN
	}

	suggestions, err := h.engine.Suggest(ctx, query.VesselID, query.PortCode, query.PreferredETA, dwell, topN)
	if err != nil {
		return nil, err
	}
	return &SuggestBerthsResponse{VesselID: query.VesselID, Suggestions: suggestions}, nil
}
