package config

// SchedulerConfig holds the planning engine tunables
type SchedulerConfig struct {
	// DefaultPortCode scopes tide lookups and event rooms when a request
	// carries no explicit port
	DefaultPortCode string `mapstructure:"default_port_code"`

	// Buffers are the minimum minutes between consecutive calls on a berth,
	// keyed by the incoming vessel's type
	Buffers BufferConfig `mapstructure:"buffers"`

	// SlotHorizonDays bounds the forward search for a free slot
	SlotHorizonDays int `mapstructure:"slot_horizon_days" validate:"min=1"`

	// ConflictScanIntervalSeconds is the background detector cadence
	ConflictScanIntervalSeconds int `mapstructure:"conflict_scan_interval_seconds" validate:"min=1"`

	// PositionWritesCoalesceMs is the per-vessel position write coalescing window
	PositionWritesCoalesceMs int `mapstructure:"position_writes_coalesce_ms" validate:"min=0"`

	// PositionRetentionDays bounds the rolling position history
	PositionRetentionDays int `mapstructure:"position_retention_days" validate:"min=1"`

	// UKC holds the under-keel clearance tiers by gross tonnage
	UKC UKCConfig `mapstructure:"ukc"`

	// Scoring holds the berth ranking weights; they must sum to 100
	Scoring ScoringConfig `mapstructure:"scoring"`

	// SuggestTopN caps the suggestion list length
	SuggestTopN int `mapstructure:"suggest_top_n" validate:"min=1"`
}

// BufferConfig holds inter-vessel buffer minutes per vessel type
type BufferConfig struct {
	Container int `mapstructure:"container" validate:"min=0"`
	Bulk      int `mapstructure:"bulk" validate:"min=0"`
	Liquid    int `mapstructure:"liquid" validate:"min=0"`
	RoRo      int `mapstructure:"roro" validate:"min=0"`
	Default   int `mapstructure:"default" validate:"min=0"`
}

// ForVesselType returns the buffer minutes for a vessel type string
func (b BufferConfig) ForVesselType(vesselType string) int {
	switch vesselType {
	case "CONTAINER":
		return b.Container
	case "BULK":
		return b.Bulk
	case "TANKER", "LNG":
		return b.Liquid
	case "RORO":
		return b.RoRo
	default:
		return b.Default
	}
}

// UKCConfig holds the gross-tonnage-tiered under-keel clearance in meters
type UKCConfig struct {
	Small  float64 `mapstructure:"small"`  // up to 100k GT
	Medium float64 `mapstructure:"medium"` // 100k to 200k GT
	Large  float64 `mapstructure:"large"`  // over 200k GT
}

// ScoringConfig holds the six berth-ranking weights
type ScoringConfig struct {
	PhysicalFit    float64 `mapstructure:"physical_fit"`
	BerthTypeMatch float64 `mapstructure:"berth_type_match"`
	WaitingTime    float64 `mapstructure:"waiting_time"`
	CraneAdequacy  float64 `mapstructure:"crane_adequacy"`
	History        float64 `mapstructure:"history"`
	TidalSafety    float64 `mapstructure:"tidal_safety"`
}
