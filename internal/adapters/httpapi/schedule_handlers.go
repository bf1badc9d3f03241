package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	planningCommands "github.com/harborops/quayplan/internal/application/planning/commands"
	scheduleCommands "github.com/harborops/quayplan/internal/application/schedule/commands"
	scheduleQueries "github.com/harborops/quayplan/internal/application/schedule/queries"
	"github.com/harborops/quayplan/internal/domain/shared"
)

type allocateRequest struct {
	VesselID           int       `json:"vesselId"`
	BerthID            int       `json:"berthId"`
	PortCode           string    `json:"portCode,omitempty"`
	ETA                time.Time `json:"eta"`
	ETD                time.Time `json:"etd"`
	Notes              string    `json:"notes,omitempty"`
	GovernmentOverride bool      `json:"governmentOverride,omitempty"`
}

func (s *Server) allocateBerth(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	portCode := req.PortCode
	if portCode == "" {
		portCode = s.cfg.DefaultPortCode
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AllocateTimeout)
	defer cancel()
	resp, err := s.mediator.Send(ctx, &planningCommands.AllocateBerthCommand{
		VesselID:           req.VesselID,
		BerthID:            req.BerthID,
		PortCode:           portCode,
		ETA:                req.ETA,
		ETD:                req.ETD,
		Notes:              req.Notes,
		GovernmentOverride: req.GovernmentOverride,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	result := resp.(*planningCommands.AllocateBerthResponse)
	if !result.Allocated() {
		// blocked: conflict with violations and the structural ways out
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) listActiveSchedules(w http.ResponseWriter, r *http.Request) {
	terminalID := 0
	if tid := r.URL.Query().Get("terminalId"); tid != "" {
		v, err := strconv.Atoi(tid)
		if err != nil {
			writeError(w, shared.ValidationError("terminalId", "must be an integer"))
			return
		}
		terminalID = v
	}
	list, err := s.schedules.Active(r.Context(), terminalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "scheduleId")
	if err != nil {
		writeError(w, err)
		return
	}
	sched, err := s.schedules.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

type rescheduleRequest struct {
	NewBerthID int       `json:"newBerthId,omitempty"`
	NewETA     time.Time `json:"newEta"`
	NewETD     time.Time `json:"newEtd"`
	PortCode   string    `json:"portCode,omitempty"`
}

func (s *Server) reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "scheduleId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req rescheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	portCode := req.PortCode
	if portCode == "" {
		portCode = s.cfg.DefaultPortCode
	}
	resp, err := s.mediator.Send(r.Context(), &planningCommands.RescheduleCommand{
		ScheduleID: id,
		NewBerthID: req.NewBerthID,
		NewETA:     req.NewETA,
		NewETD:     req.NewETD,
		PortCode:   portCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type milestoneRequest struct {
	At time.Time `json:"at"`
}

func (s *Server) milestoneTime(r *http.Request) (int, time.Time, error) {
	id, err := pathInt(r, "scheduleId")
	if err != nil {
		return 0, time.Time{}, err
	}
	var req milestoneRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, time.Time{}, err
	}
	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	return id, at, nil
}

func (s *Server) recordArrival(w http.ResponseWriter, r *http.Request) {
	id, at, err := s.milestoneTime(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.RecordArrivalCommand{ScheduleID: id, ATA: at})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordBerthing(w http.ResponseWriter, r *http.Request) {
	id, at, err := s.milestoneTime(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.RecordBerthingCommand{ScheduleID: id, ATB: at})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordDeparture(w http.ResponseWriter, r *http.Request) {
	id, at, err := s.milestoneTime(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.RecordDepartureCommand{ScheduleID: id, ATD: at})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) cancelSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "scheduleId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.CancelScheduleCommand{ScheduleID: id, Reason: req.Reason})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateETARequest struct {
	NewETA time.Time `json:"newEta"`
	Source string    `json:"source,omitempty"`
}

func (s *Server) updateETA(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "scheduleId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateETARequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	source := req.Source
	if source == "" {
		source = "AGENT"
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.UpdateETACommand{
		ScheduleID: id,
		NewETA:     req.NewETA,
		Source:     source,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &scheduleCommands.ClearAllCommand{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) vesselHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "vesselId")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.mediator.Send(r.Context(), &scheduleQueries.VesselHistoryQuery{VesselID: id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
