package vessel

import (
	"github.com/harborops/quayplan/internal/domain/shared"
)

// Type is the operational class of a vessel
type Type string

const (
	TypeContainer Type = "CONTAINER"
	TypeBulk      Type = "BULK"
	TypeTanker    Type = "TANKER"
	TypeRoRo      Type = "RORO"
	TypeGeneral   Type = "GENERAL"
	TypeLNG       Type = "LNG"
)

// PriorityClass drives the commercial weighting of a ship call
type PriorityClass string

const (
	PriorityGovernment    PriorityClass = "GOVERNMENT"
	PriorityEmergency     PriorityClass = "EMERGENCY"
	PriorityWindow        PriorityClass = "WINDOW"
	PriorityPerishable    PriorityClass = "PERISHABLE"
	PriorityTransshipment PriorityClass = "TRANSSHIPMENT"
	PriorityStrategic     PriorityClass = "STRATEGIC"
	PriorityFCFS          PriorityClass = "FCFS"
	PriorityLow           PriorityClass = "LOW"
)

var priorityWeights = map[PriorityClass]int{
	PriorityGovernment:    100,
	PriorityEmergency:     95,
	PriorityWindow:        90,
	PriorityPerishable:    80,
	PriorityTransshipment: 75,
	PriorityStrategic:     70,
	PriorityFCFS:          50,
	PriorityLow:           30,
}

// Weight returns the numeric priority weight, defaulting to FCFS for unknown classes
func (p PriorityClass) Weight() int {
	if w, ok := priorityWeights[p]; ok {
		return w
	}
	return priorityWeights[PriorityFCFS]
}

// Vessel is a ship call candidate. Dimensions are meters, tonnage gross tons.
type Vessel struct {
	ID            int
	Name          string
	IMO           *string
	MMSI          *string
	Type          Type
	LOA           float64
	Beam          float64
	Draft         float64
	AirDraft      *float64
	GrossTonnage  *float64
	CargoType     string
	CargoVolume   *float64
	PriorityClass PriorityClass
	HazmatClass   *string
	ReeferDemand  *int
}

// NewVessel validates and constructs a vessel record
func NewVessel(name string, vtype Type, loa, beam, draft float64, cargoType string, priority PriorityClass) (*Vessel, error) {
	if name == "" {
		return nil, shared.ValidationError("name", "cannot be empty")
	}
	if loa <= 0 {
		return nil, shared.ValidationError("loa", "must be positive")
	}
	if beam <= 0 {
		return nil, shared.ValidationError("beam", "must be positive")
	}
	if draft <= 0 {
		return nil, shared.ValidationError("draft", "must be positive")
	}
	if priority == "" {
		priority = PriorityFCFS
	}
	return &Vessel{
		Name:          name,
		Type:          vtype,
		LOA:           loa,
		Beam:          beam,
		Draft:         draft,
		CargoType:     cargoType,
		PriorityClass: priority,
	}, nil
}

// PriorityWeight returns the vessel's commercial weight
func (v *Vessel) PriorityWeight() int {
	return v.PriorityClass.Weight()
}

// IsHazmat reports whether the vessel carries dangerous goods
func (v *Vessel) IsHazmat() bool {
	return v.HazmatClass != nil && *v.HazmatClass != ""
}

// GT returns the gross tonnage, 0 when unknown
func (v *Vessel) GT() float64 {
	if v.GrossTonnage == nil {
		return 0
	}
	return *v.GrossTonnage
}

// EstimatedCranesRequired derives crane demand from vessel type and cargo volume.
// Container calls step at 2k/5k TEU, bulk at 50k MT.
func (v *Vessel) EstimatedCranesRequired() int {
	volume := 0.0
	if v.CargoVolume != nil {
		volume = *v.CargoVolume
	}
	switch v.Type {
	case TypeContainer:
		if volume > 5000 {
			return 3
		}
		if volume > 2000 {
			return 2
		}
		return 1
	case TypeBulk:
		if volume > 50000 {
			return 2
		}
		return 1
	default:
		return 1
	}
}
