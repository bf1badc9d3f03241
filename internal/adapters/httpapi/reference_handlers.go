package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, shared.ValidationError(name, "must be an integer")
	}
	return v, nil
}

type createVesselRequest struct {
	Name          string   `json:"name"`
	IMO           *string  `json:"imo,omitempty"`
	MMSI          *string  `json:"mmsi,omitempty"`
	Type          string   `json:"type"`
	LOA           float64  `json:"loa"`
	Beam          float64  `json:"beam"`
	Draft         float64  `json:"draft"`
	AirDraft      *float64 `json:"airDraft,omitempty"`
	GrossTonnage  *float64 `json:"grossTonnage,omitempty"`
	CargoType     string   `json:"cargoType"`
	CargoVolume   *float64 `json:"cargoVolume,omitempty"`
	PriorityClass string   `json:"priorityClass,omitempty"`
	HazmatClass   *string  `json:"hazmatClass,omitempty"`
	ReeferDemand  *int     `json:"reeferDemand,omitempty"`
}

func (s *Server) createVessel(w http.ResponseWriter, r *http.Request) {
	var req createVesselRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ves, err := vessel.NewVessel(req.Name, vessel.Type(req.Type), req.LOA, req.Beam, req.Draft,
		req.CargoType, vessel.PriorityClass(req.PriorityClass))
	if err != nil {
		writeError(w, err)
		return
	}
	ves.IMO = req.IMO
	ves.MMSI = req.MMSI
	ves.AirDraft = req.AirDraft
	ves.GrossTonnage = req.GrossTonnage
	ves.CargoVolume = req.CargoVolume
	ves.HazmatClass = req.HazmatClass
	ves.ReeferDemand = req.ReeferDemand
	if err := s.vessels.Save(r.Context(), ves); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ves)
}

func (s *Server) listVessels(w http.ResponseWriter, r *http.Request) {
	list, err := s.vessels.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getVessel(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "vesselId")
	if err != nil {
		writeError(w, err)
		return
	}
	ves, err := s.vessels.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ves)
}

type createPortRequest struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func (s *Server) createPort(w http.ResponseWriter, r *http.Request) {
	var req createPortRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Code == "" {
		writeError(w, shared.ValidationError("code", "cannot be empty"))
		return
	}
	p := &berth.Port{Code: req.Code, Name: req.Name, Lat: req.Lat, Lon: req.Lon}
	if err := s.berths.SavePort(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listPorts(w http.ResponseWriter, r *http.Request) {
	list, err := s.berths.ListPorts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createTerminalRequest struct {
	PortID int    `json:"portId"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

func (s *Server) createTerminal(w http.ResponseWriter, r *http.Request) {
	var req createTerminalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t := &berth.Terminal{PortID: req.PortID, Code: req.Code, Name: req.Name}
	if err := s.berths.SaveTerminal(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listTerminals(w http.ResponseWriter, r *http.Request) {
	list, err := s.berths.ListTerminals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createBerthRequest struct {
	TerminalID        int      `json:"terminalId"`
	Name              string   `json:"name"`
	Code              string   `json:"code"`
	Length            float64  `json:"length"`
	MaxDraft          float64  `json:"maxDraft"`
	MaxLOA            *float64 `json:"maxLoa,omitempty"`
	MaxBeam           *float64 `json:"maxBeam,omitempty"`
	MaxAirDraft       *float64 `json:"maxAirDraft,omitempty"`
	MaxGT             *float64 `json:"maxGt,omitempty"`
	BerthType         string   `json:"berthType"`
	CargoTypesAllowed []string `json:"cargoTypesAllowed,omitempty"`
	NumberOfCranes    int      `json:"numberOfCranes"`
	CraneMaxOutreach  *float64 `json:"craneMaxOutreach,omitempty"`
	ReeferPlugs       *int     `json:"reeferPlugs,omitempty"`
	DGCertified       bool     `json:"dgCertified"`
	ChartedDepth      *float64 `json:"chartedDepth,omitempty"`
}

func (s *Server) createBerth(w http.ResponseWriter, r *http.Request) {
	var req createBerthRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := berth.NewBerth(req.TerminalID, req.Name, req.Code, req.Length, req.MaxDraft, req.BerthType)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.MaxLOA != nil {
		b.MaxLOA = *req.MaxLOA
	}
	b.MaxBeam = req.MaxBeam
	b.MaxAirDraft = req.MaxAirDraft
	b.MaxGT = req.MaxGT
	b.CargoTypesAllowed = req.CargoTypesAllowed
	b.NumberOfCranes = req.NumberOfCranes
	b.CraneMaxOutreach = req.CraneMaxOutreach
	b.ReeferPlugs = req.ReeferPlugs
	b.DGCertified = req.DGCertified
	if req.ChartedDepth != nil {
		b.ChartedDepth = *req.ChartedDepth
	}
	if err := s.berths.Save(r.Context(), b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) listBerths(w http.ResponseWriter, r *http.Request) {
	if tid := r.URL.Query().Get("terminalId"); tid != "" {
		id, err := strconv.Atoi(tid)
		if err != nil {
			writeError(w, shared.ValidationError("terminalId", "must be an integer"))
			return
		}
		list, err := s.berths.ListByTerminal(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	list, err := s.berths.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getBerth(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "berthId")
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := s.berths.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type maintenanceRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s *Server) addMaintenanceWindow(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "berthId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req maintenanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Start.Before(req.End) {
		writeError(w, shared.ValidationError("start", "must be before end"))
		return
	}
	win := &berth.MaintenanceWindow{
		BerthID: id,
		Start:   req.Start,
		End:     req.End,
		Status:  berth.MaintenanceScheduled,
	}
	if err := s.maintenance.Save(r.Context(), win); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, win)
}

type createResourceRequest struct {
	Kind           string   `json:"kind"`
	Name           string   `json:"name"`
	Capacity       int      `json:"capacity"`
	Class          string   `json:"class,omitempty"`
	BollardPull    *float64 `json:"bollardPull,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res := &resource.Resource{
		Kind:           resource.Kind(req.Kind),
		Name:           req.Name,
		Capacity:       req.Capacity,
		Class:          req.Class,
		BollardPull:    req.BollardPull,
		Certifications: req.Certifications,
		IsAvailable:    true,
	}
	if err := s.resources.Save(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) availableResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		writeError(w, shared.ValidationError("from", "must be RFC 3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		writeError(w, shared.ValidationError("to", "must be RFC 3339"))
		return
	}
	list, err := s.resources.AvailableInWindow(r.Context(), resource.Kind(q.Get("kind")), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type tideReadingRequest struct {
	TideTime     time.Time `json:"tideTime"`
	Type         string    `json:"type"`
	HeightMeters float64   `json:"heightMeters"`
}

func (s *Server) addTideReading(w http.ResponseWriter, r *http.Request) {
	port, err := s.berths.FindPortByCode(r.Context(), chi.URLParam(r, "portCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req tideReadingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	reading := &tide.Reading{
		PortID:       port.ID,
		TideTime:     req.TideTime,
		Type:         tide.ReadingType(req.Type),
		HeightMeters: req.HeightMeters,
	}
	if err := s.tides.Save(r.Context(), reading); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (s *Server) listTideReadings(w http.ResponseWriter, r *http.Request) {
	port, err := s.berths.FindPortByCode(r.Context(), chi.URLParam(r, "portCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		writeError(w, shared.ValidationError("from", "must be RFC 3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		writeError(w, shared.ValidationError("to", "must be RFC 3339"))
		return
	}
	readings, err := s.tides.Range(r.Context(), port.ID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}
