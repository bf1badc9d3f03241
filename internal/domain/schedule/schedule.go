package schedule

import (
	"time"

	"github.com/harborops/quayplan/internal/domain/shared"
)

// Schedule is a proposed or executed berth stay over the half-open window [ETA, ETD)
type Schedule struct {
	ID                int
	VesselID          int
	BerthID           int
	ETA               time.Time
	PredictedETA      time.Time
	ETD               time.Time
	ATA               *time.Time
	ATB               *time.Time
	ATD               *time.Time
	Status            Status
	DwellMinutes      int
	WaitingMinutes    *int
	OptimizationScore *float64
	PriorityWeight    int
	Notes             string
}

// NewSchedule validates and constructs a schedule in Scheduled state
func NewSchedule(vesselID, berthID int, eta, etd time.Time, priorityWeight int) (*Schedule, error) {
	if !eta.Before(etd) {
		return nil, shared.ValidationError("eta", "must be before etd")
	}
	return &Schedule{
		VesselID:       vesselID,
		BerthID:        berthID,
		ETA:            eta,
		PredictedETA:   eta,
		ETD:            etd,
		Status:         StatusScheduled,
		DwellMinutes:   int(etd.Sub(eta).Minutes()),
		PriorityWeight: priorityWeight,
	}, nil
}

// Overlaps reports half-open window overlap with another schedule on the same berth.
// Windows touching exactly at endpoints do not overlap.
func (s *Schedule) Overlaps(other *Schedule) bool {
	if s.BerthID != other.BerthID {
		return false
	}
	return s.ETA.Before(other.ETD) && other.ETA.Before(s.ETD)
}

// OverlapsWindow reports half-open overlap with [from, to)
func (s *Schedule) OverlapsWindow(from, to time.Time) bool {
	return s.ETA.Before(to) && from.Before(s.ETD)
}

// RecordArrival sets ATA and advances to Approaching.
// Recording the same ATA twice is a no-op after the first call.
func (s *Schedule) RecordArrival(ata time.Time) error {
	if s.ATA != nil && s.ATA.Equal(ata) {
		return nil
	}
	if s.ATA != nil {
		return shared.ValidationError("ata", "already recorded with a different time")
	}
	if err := s.Status.CanAdvanceTo(StatusApproaching); err != nil {
		return shared.NewError(shared.KindValidation, "E-TRN-001", err.Error())
	}
	s.ATA = &ata
	s.Status = StatusApproaching
	return nil
}

// RecordBerthing sets ATB, advances to Berthed, and fixes waiting time as max(0, atb-eta)
func (s *Schedule) RecordBerthing(atb time.Time) error {
	if s.ATB != nil && s.ATB.Equal(atb) {
		return nil
	}
	if s.ATB != nil {
		return shared.ValidationError("atb", "already recorded with a different time")
	}
	if err := s.Status.CanAdvanceTo(StatusBerthed); err != nil {
		return shared.NewError(shared.KindValidation, "E-TRN-001", err.Error())
	}
	waiting := int(atb.Sub(s.ETA).Minutes())
	if waiting < 0 {
		waiting = 0
	}
	s.ATB = &atb
	s.WaitingMinutes = &waiting
	s.Status = StatusBerthed
	return nil
}

// RecordDeparture sets ATD, advances to Departed, and fixes actual dwell as atd-atb
func (s *Schedule) RecordDeparture(atd time.Time) error {
	if s.ATD != nil && s.ATD.Equal(atd) {
		return nil
	}
	if s.ATD != nil {
		return shared.ValidationError("atd", "already recorded with a different time")
	}
	if s.ATB == nil {
		return shared.ValidationError("atd", "cannot depart before berthing is recorded")
	}
	if atd.Before(*s.ATB) {
		return shared.ValidationError("atd", "must not precede atb")
	}
	if err := s.Status.CanAdvanceTo(StatusDeparted); err != nil {
		return shared.NewError(shared.KindValidation, "E-TRN-001", err.Error())
	}
	s.ATD = &atd
	s.DwellMinutes = int(atd.Sub(*s.ATB).Minutes())
	s.Status = StatusDeparted
	return nil
}

// Cancel moves the schedule to its terminal Cancelled state
func (s *Schedule) Cancel() error {
	if err := s.Status.CanAdvanceTo(StatusCancelled); err != nil {
		return shared.NewError(shared.KindValidation, "E-TRN-001", err.Error())
	}
	s.Status = StatusCancelled
	return nil
}

// ShiftETA moves the planned window keeping the dwell duration
func (s *Schedule) ShiftETA(newEta time.Time) {
	dwell := s.ETD.Sub(s.ETA)
	s.ETA = newEta
	s.ETD = newEta.Add(dwell)
}

// History is the per-call performance record appended on departure
type History struct {
	ID                 int
	VesselID           int
	BerthID            int
	ScheduleID         int
	ArrivedAt          *time.Time
	BerthedAt          time.Time
	DepartedAt         time.Time
	ActualDwellMinutes int
	WaitingMinutes     int
	EtaAccuracyPercent float64
}

// EtaAccuracy maps ETA deviation to a 0-100 score, reaching 0 at 8 hours off
func EtaAccuracy(eta time.Time, ata *time.Time) float64 {
	if ata == nil {
		return 100
	}
	dev := ata.Sub(eta).Minutes()
	if dev < 0 {
		dev = -dev
	}
	acc := 100 - dev*100/480
	if acc < 0 {
		return 0
	}
	return acc
}

// HistoryStats summarizes a vessel's past calls for the scoring engine
type HistoryStats struct {
	Visits         int
	AvgEtaAccuracy float64
}
