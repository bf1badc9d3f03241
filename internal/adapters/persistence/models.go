package persistence

import (
	"time"
)

// PortModel represents the ports table
type PortModel struct {
	ID   int     `gorm:"column:id;primaryKey;autoIncrement"`
	Code string  `gorm:"column:code;unique;not null"`
	Name string  `gorm:"column:name;not null"`
	Lat  float64 `gorm:"column:lat"`
	Lon  float64 `gorm:"column:lon"`
}

func (PortModel) TableName() string { return "ports" }

// TerminalModel represents the terminals table
type TerminalModel struct {
	ID     int        `gorm:"column:id;primaryKey;autoIncrement"`
	PortID int        `gorm:"column:port_id;not null;index"`
	Port   *PortModel `gorm:"foreignKey:PortID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name   string     `gorm:"column:name;not null"`
	Code   string     `gorm:"column:code;not null"`
}

func (TerminalModel) TableName() string { return "terminals" }

// VesselModel represents the vessels table
// IMO is nullable-unique: present values must be globally unique
type VesselModel struct {
	ID            int      `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string   `gorm:"column:name;not null"`
	IMO           *string  `gorm:"column:imo;uniqueIndex"`
	MMSI          *string  `gorm:"column:mmsi;index"`
	Type          string   `gorm:"column:type;not null"`
	LOA           float64  `gorm:"column:loa;not null"`
	Beam          float64  `gorm:"column:beam;not null"`
	Draft         float64  `gorm:"column:draft;not null"`
	AirDraft      *float64 `gorm:"column:air_draft"`
	GrossTonnage  *float64 `gorm:"column:gross_tonnage"`
	CargoType     string   `gorm:"column:cargo_type"`
	CargoVolume   *float64 `gorm:"column:cargo_volume"`
	PriorityClass string   `gorm:"column:priority_class;not null;default:'FCFS'"`
	HazmatClass   *string  `gorm:"column:hazmat_class"`
	ReeferDemand  *int     `gorm:"column:reefer_demand"`
}

func (VesselModel) TableName() string { return "vessels" }

// BerthModel represents the berths table
type BerthModel struct {
	ID                int            `gorm:"column:id;primaryKey;autoIncrement"`
	TerminalID        int            `gorm:"column:terminal_id;not null;index"`
	Terminal          *TerminalModel `gorm:"foreignKey:TerminalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name              string         `gorm:"column:name;not null"`
	Code              string         `gorm:"column:code;unique;not null"`
	Length            float64        `gorm:"column:length;not null"`
	MaxDraft          float64        `gorm:"column:max_draft;not null"`
	MaxLOA            float64        `gorm:"column:max_loa;not null"`
	MaxBeam           *float64       `gorm:"column:max_beam"`
	MaxAirDraft       *float64       `gorm:"column:max_air_draft"`
	MaxGT             *float64       `gorm:"column:max_gt"`
	BerthType         string         `gorm:"column:berth_type"`
	CargoTypesAllowed string         `gorm:"column:cargo_types_allowed;type:text"` // JSON array as text
	NumberOfCranes    int            `gorm:"column:number_of_cranes;default:0"`
	CraneMaxOutreach  *float64       `gorm:"column:crane_max_outreach"`
	FenderCapacity    *float64       `gorm:"column:fender_capacity"`
	BollardSWL        *float64       `gorm:"column:bollard_swl"`
	ReeferPlugs       *int           `gorm:"column:reefer_plugs"`
	DGCertified       bool           `gorm:"column:dg_certified;default:false"`
	ChartedDepth      float64        `gorm:"column:charted_depth"`
	Active            bool           `gorm:"column:active;default:true"`
}

func (BerthModel) TableName() string { return "berths" }

// ScheduleModel represents the schedules table.
// The composite (berth_id, eta) index backs the overlap search.
type ScheduleModel struct {
	ID                int          `gorm:"column:id;primaryKey;autoIncrement"`
	VesselID          int          `gorm:"column:vessel_id;not null;index"`
	Vessel            *VesselModel `gorm:"foreignKey:VesselID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	BerthID           int          `gorm:"column:berth_id;not null;index:idx_schedules_berth_eta"`
	Berth             *BerthModel  `gorm:"foreignKey:BerthID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ETA               time.Time    `gorm:"column:eta;not null;index:idx_schedules_berth_eta"`
	PredictedETA      time.Time    `gorm:"column:predicted_eta;not null"`
	ETD               time.Time    `gorm:"column:etd;not null"`
	ATA               *time.Time   `gorm:"column:ata"`
	ATB               *time.Time   `gorm:"column:atb"`
	ATD               *time.Time   `gorm:"column:atd"`
	Status            string       `gorm:"column:status;not null;default:'SCHEDULED';index"`
	DwellMinutes      int          `gorm:"column:dwell_minutes;not null"`
	WaitingMinutes    *int         `gorm:"column:waiting_minutes"`
	OptimizationScore *float64     `gorm:"column:optimization_score"`
	PriorityWeight    int          `gorm:"column:priority_weight;not null;default:50"`
	Notes             string       `gorm:"column:notes;type:text"`
}

func (ScheduleModel) TableName() string { return "schedules" }

// MaintenanceWindowModel represents the maintenance_windows table
type MaintenanceWindowModel struct {
	ID      int         `gorm:"column:id;primaryKey;autoIncrement"`
	BerthID int         `gorm:"column:berth_id;not null;index"`
	Berth   *BerthModel `gorm:"foreignKey:BerthID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Start   time.Time   `gorm:"column:start_time;not null"`
	End     time.Time   `gorm:"column:end_time;not null"`
	Status  string      `gorm:"column:status;not null;default:'SCHEDULED'"`
}

func (MaintenanceWindowModel) TableName() string { return "maintenance_windows" }

// TidalReadingModel represents the tidal_readings table
type TidalReadingModel struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement"`
	PortID       int       `gorm:"column:port_id;not null;index:idx_tides_port_time"`
	TideTime     time.Time `gorm:"column:tide_time;not null;index:idx_tides_port_time"`
	Type         string    `gorm:"column:type;not null"`
	HeightMeters float64   `gorm:"column:height_meters;not null"`
}

func (TidalReadingModel) TableName() string { return "tidal_readings" }

// ResourceModel represents the resources table
type ResourceModel struct {
	ID             int      `gorm:"column:id;primaryKey;autoIncrement"`
	Kind           string   `gorm:"column:kind;not null;index"`
	Name           string   `gorm:"column:name;not null"`
	Capacity       int      `gorm:"column:capacity;default:1"`
	Class          string   `gorm:"column:class"`
	BollardPull    *float64 `gorm:"column:bollard_pull"`
	Certifications string   `gorm:"column:certifications;type:text"` // JSON array as text
	IsAvailable    bool     `gorm:"column:is_available;default:true"`
}

func (ResourceModel) TableName() string { return "resources" }

// ResourceAllocationModel represents the resource_allocations table.
// The composite (resource_id, from, to) index backs the availability search.
type ResourceAllocationModel struct {
	ID         int            `gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleID int            `gorm:"column:schedule_id;not null;index"`
	ResourceID int            `gorm:"column:resource_id;not null;index:idx_alloc_resource_window"`
	Resource   *ResourceModel `gorm:"foreignKey:ResourceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	From       time.Time      `gorm:"column:from_time;not null;index:idx_alloc_resource_window"`
	To         time.Time      `gorm:"column:to_time;not null;index:idx_alloc_resource_window"`
	Quantity   int            `gorm:"column:quantity;default:1"`
	Status     string         `gorm:"column:status;not null;default:'ALLOCATED'"`
}

func (ResourceAllocationModel) TableName() string { return "resource_allocations" }

// PositionReportModel represents the append-only position_reports table
type PositionReportModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	VesselID   int       `gorm:"column:vessel_id;not null;index:idx_positions_vessel_time,sort:desc"`
	MMSI       string    `gorm:"column:mmsi;index"`
	Lat        float64   `gorm:"column:lat;not null"`
	Lon        float64   `gorm:"column:lon;not null"`
	SOGKnots   float64   `gorm:"column:sog_knots"`
	COGDegrees float64   `gorm:"column:cog_degrees"`
	Heading    float64   `gorm:"column:heading"`
	NavStatus  string    `gorm:"column:nav_status"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index:idx_positions_vessel_time,sort:desc"`
	IngestedAt time.Time `gorm:"column:ingested_at;not null"`
}

func (PositionReportModel) TableName() string { return "position_reports" }

// ConflictModel represents the conflicts table
type ConflictModel struct {
	ID             int        `gorm:"column:id;primaryKey;autoIncrement"`
	Kind           string     `gorm:"column:kind;not null;index"`
	ScheduleID1    int        `gorm:"column:schedule_id_1;not null;index"`
	ScheduleID2    *int       `gorm:"column:schedule_id_2"`
	Severity       string     `gorm:"column:severity;not null"`
	DetectedAt     time.Time  `gorm:"column:detected_at;not null"`
	ResolvedAt     *time.Time `gorm:"column:resolved_at"`
	Description    string     `gorm:"column:description;type:text"`
	ResolutionJSON string     `gorm:"column:resolution_json;type:text"`
}

func (ConflictModel) TableName() string { return "conflicts" }

// AlertModel represents the alerts table
type AlertModel struct {
	ID              int        `gorm:"column:id;primaryKey;autoIncrement"`
	Type            string     `gorm:"column:type;not null"`
	Severity        string     `gorm:"column:severity;not null"`
	Message         string     `gorm:"column:message;type:text;not null"`
	RelatedEntities string     `gorm:"column:related_entities;type:text"` // JSON as text
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	ReadAt          *time.Time `gorm:"column:read_at"`
	AutoDismissMs   *int       `gorm:"column:auto_dismiss_ms"`
}

func (AlertModel) TableName() string { return "alerts" }

// VesselHistoryModel represents the vessel_history table
type VesselHistoryModel struct {
	ID                 int        `gorm:"column:id;primaryKey;autoIncrement"`
	VesselID           int        `gorm:"column:vessel_id;not null;index"`
	BerthID            int        `gorm:"column:berth_id;not null"`
	ScheduleID         int        `gorm:"column:schedule_id;not null"`
	ArrivedAt          *time.Time `gorm:"column:arrived_at"`
	BerthedAt          time.Time  `gorm:"column:berthed_at;not null"`
	DepartedAt         time.Time  `gorm:"column:departed_at;not null"`
	ActualDwellMinutes int        `gorm:"column:actual_dwell_minutes;not null"`
	WaitingMinutes     int        `gorm:"column:waiting_minutes;not null"`
	EtaAccuracyPercent float64    `gorm:"column:eta_accuracy_percent;not null"`
}

func (VesselHistoryModel) TableName() string { return "vessel_history" }
