package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	monitoringCommands "github.com/harborops/quayplan/internal/application/monitoring/commands"
	monitoringQueries "github.com/harborops/quayplan/internal/application/monitoring/queries"
	planningQueries "github.com/harborops/quayplan/internal/application/planning/queries"
	scheduleQueries "github.com/harborops/quayplan/internal/application/schedule/queries"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

func (s *Server) suggestBerths(w http.ResponseWriter, r *http.Request) {
	vesselID, err := pathInt(r, "vesselId")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()

	preferredETA := s.clock.Now()
	if raw := q.Get("eta"); raw != "" {
		preferredETA, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, shared.ValidationError("eta", "must be RFC 3339"))
			return
		}
	}
	dwellHours := 0.0
	if raw := q.Get("dwellHours"); raw != "" {
		dwellHours, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, shared.ValidationError("dwellHours", "must be a number"))
			return
		}
	}
	topN := 0
	if raw := q.Get("topN"); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, shared.ValidationError("topN", "must be an integer"))
			return
		}
	}
	portCode := q.Get("portCode")
	if portCode == "" {
		portCode = s.cfg.DefaultPortCode
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SuggestTimeout)
	defer cancel()
	resp, err := s.mediator.Send(ctx, &planningQueries.SuggestBerthsQuery{
		VesselID:     vesselID,
		PortCode:     portCode,
		PreferredETA: preferredETA,
		DwellHours:   dwellHours,
		TopN:         topN,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// etaPrediction is one row of the active-predictions feed
type etaPrediction struct {
	ScheduleID   int       `json:"scheduleId"`
	VesselID     int       `json:"vesselId"`
	BerthID      int       `json:"berthId"`
	ETA          time.Time `json:"eta"`
	PredictedETA time.Time `json:"predictedEta"`
	DeltaMinutes int       `json:"deltaMinutes"`
}

func (s *Server) activeETAPredictions(w http.ResponseWriter, r *http.Request) {
	active, err := s.schedules.Active(r.Context(), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]etaPrediction, 0, len(active))
	for _, sc := range active {
		if sc.Status != schedule.StatusScheduled && sc.Status != schedule.StatusApproaching {
			continue
		}
		rows = append(rows, etaPrediction{
			ScheduleID:   sc.ID,
			VesselID:     sc.VesselID,
			BerthID:      sc.BerthID,
			ETA:          sc.ETA,
			PredictedETA: sc.PredictedETA,
			DeltaMinutes: int(sc.PredictedETA.Sub(sc.ETA).Minutes()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": rows})
}

func (s *Server) dashboardMetrics(w http.ResponseWriter, r *http.Request) {
	terminalID, err := queryInt(r, "terminalId")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleQueries.DashboardMetricsQuery{TerminalID: terminalID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) berthStatus(w http.ResponseWriter, r *http.Request) {
	terminalID, err := queryInt(r, "terminalId")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleQueries.BerthStatusQuery{TerminalID: terminalID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) activeAlerts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &monitoringQueries.ActiveAlertsQuery{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) activeConflicts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &monitoringQueries.ActiveConflictsQuery{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type resolveConflictRequest struct {
	Strategy         string     `json:"strategy"`
	TargetScheduleID int        `json:"targetScheduleId"`
	NewBerthID       int        `json:"newBerthId,omitempty"`
	NewETA           *time.Time `json:"newEta,omitempty"`
	NewETD           *time.Time `json:"newEtd,omitempty"`
}

func (s *Server) resolveConflict(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "conflictId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req resolveConflictRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &monitoringCommands.ResolveConflictCommand{
		ConflictID: id,
		Option: conflict.ResolutionOption{
			Strategy:         conflict.Strategy(req.Strategy),
			TargetScheduleID: req.TargetScheduleID,
			NewBerthID:       req.NewBerthID,
			NewETA:           req.NewETA,
			NewETD:           req.NewETD,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) markAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "alertId")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &monitoringCommands.MarkAlertReadCommand{AlertID: id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.ValidationError(name, "must be an integer")
	}
	return v, nil
}
