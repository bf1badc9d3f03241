package berth

import (
	"time"

	"github.com/harborops/quayplan/internal/domain/shared"
)

// Berth is a physical quay slot with its operational caps.
// Optional caps are nil when the berth imposes no limit on that axis.
type Berth struct {
	ID                int
	TerminalID        int
	Name              string
	Code              string
	Length            float64
	MaxDraft          float64
	MaxLOA            float64
	MaxBeam           *float64
	MaxAirDraft       *float64
	MaxGT             *float64
	BerthType         string
	CargoTypesAllowed []string
	NumberOfCranes    int
	CraneMaxOutreach  *float64
	FenderCapacity    *float64
	BollardSWL        *float64
	ReeferPlugs       *int
	DGCertified       bool
	ChartedDepth      float64
	Active            bool
}

// NewBerth validates and constructs a berth. MaxLOA defaults to the quay length.
func NewBerth(terminalID int, name, code string, length, maxDraft float64, berthType string) (*Berth, error) {
	if code == "" {
		return nil, shared.ValidationError("code", "cannot be empty")
	}
	if length <= 0 {
		return nil, shared.ValidationError("length", "must be positive")
	}
	if maxDraft <= 0 {
		return nil, shared.ValidationError("maxDraft", "must be positive")
	}
	return &Berth{
		TerminalID:   terminalID,
		Name:         name,
		Code:         code,
		Length:       length,
		MaxDraft:     maxDraft,
		MaxLOA:       length,
		BerthType:    berthType,
		ChartedDepth: maxDraft,
		Active:       true,
	}, nil
}

// AllowsCargo reports whether the berth accepts the given cargo type.
// An empty allowed list means unrestricted.
func (b *Berth) AllowsCargo(cargoType string) bool {
	if len(b.CargoTypesAllowed) == 0 {
		return true
	}
	for _, c := range b.CargoTypesAllowed {
		if c == cargoType {
			return true
		}
	}
	return false
}

// MaintenanceStatus is the lifecycle state of a maintenance window
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
)

// MaintenanceWindow blocks a berth for [Start, End). The slot finder treats it as opaque.
type MaintenanceWindow struct {
	ID      int
	BerthID int
	Start   time.Time
	End     time.Time
	Status  MaintenanceStatus
}

// Blocks reports whether the window still removes capacity
func (m *MaintenanceWindow) Blocks() bool {
	return m.Status == MaintenanceScheduled || m.Status == MaintenanceInProgress
}

// Overlaps reports half-open interval overlap with [from, to)
func (m *MaintenanceWindow) Overlaps(from, to time.Time) bool {
	return m.Start.Before(to) && from.Before(m.End)
}

// Terminal groups berths under a port
type Terminal struct {
	ID     int
	PortID int
	Name   string
	Code   string
}

// Port is the top-level location; Lat/Lon anchor distance-to-port ETA projections
type Port struct {
	ID   int
	Code string
	Name string
	Lat  float64
	Lon  float64
}
