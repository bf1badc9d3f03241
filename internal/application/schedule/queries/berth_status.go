package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// BerthStatusQuery requests per-berth occupancy for the board view
type BerthStatusQuery struct {
	TerminalID int // 0 means all terminals
}

// BerthStatusRow is one berth on the board
type BerthStatusRow struct {
	BerthID         int        `json:"berthId"`
	BerthCode       string     `json:"berthCode"`
	BerthName       string     `json:"berthName"`
	Occupied        bool       `json:"occupied"`
	CurrentVesselID *int       `json:"currentVesselId,omitempty"`
	CurrentETD      *time.Time `json:"currentEtd,omitempty"`
	NextVesselID    *int       `json:"nextVesselId,omitempty"`
	NextETA         *time.Time `json:"nextEta,omitempty"`
}

// BerthStatusResponse is the full board
type BerthStatusResponse struct {
	Rows []BerthStatusRow `json:"rows"`
}

// BerthStatusHandler assembles the board from berths and active schedules
type BerthStatusHandler struct {
	schedules schedule.Repository
	berths    berth.Repository
	clock     shared.Clock
}

// NewBerthStatusHandler creates a new handler
func NewBerthStatusHandler(schedules schedule.Repository, berths berth.Repository, clock shared.Clock) *BerthStatusHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &BerthStatusHandler{schedules: schedules, berths: berths, clock: clock}
}

// Handle executes the query
func (h *BerthStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*BerthStatusQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	var list []*berth.Berth
	var err error
	if query.TerminalID != 0 {
		list, err = h.berths.ListByTerminal(ctx, query.TerminalID)
	} else {
		list, err = h.berths.ListActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	resp := &BerthStatusResponse{Rows: make([]BerthStatusRow, 0, len(list))}
	for _, b := range list {
		row := BerthStatusRow{BerthID: b.ID, BerthCode: b.Code, BerthName: b.Name}
		active, err := h.schedules.ActiveForBerth(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range active {
			if s.Status == schedule.StatusBerthed {
				vid := s.VesselID
				etd := s.ETD
				row.Occupied = true
				row.CurrentVesselID = &vid
				row.CurrentETD = &etd
				continue
			}
			if s.ETA.After(now) && row.NextETA == nil {
				vid := s.VesselID
				eta := s.ETA
				row.NextVesselID = &vid
				row.NextETA = &eta
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}
