package conflict

import "time"

// Kind classifies a detected schedule conflict
type Kind string

const (
	KindBerthOverlap        Kind = "BERTH_OVERLAP"
	KindTidalConstraint     Kind = "TIDAL_CONSTRAINT"
	KindResourceUnavailable Kind = "RESOURCE_UNAVAILABLE"
	KindOverstay            Kind = "OVERSTAY"
	KindETADeviation        Kind = "ETA_DEVIATION"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindCascade             Kind = "CASCADE_CONFLICT"
)

// Severity orders conflicts and alerts for operator attention
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Conflict is one detected condition between one or two schedules
type Conflict struct {
	ID          int
	Kind        Kind
	ScheduleID1 int
	ScheduleID2 *int
	Severity    Severity
	DetectedAt  time.Time
	ResolvedAt  *time.Time
	Description string
	// ResolutionJSON holds the applied resolution, serialized
	ResolutionJSON string
}

// IsOpen reports whether the conflict still needs attention
func (c *Conflict) IsOpen() bool {
	return c.ResolvedAt == nil
}

// Strategy names a structural resolution option
type Strategy string

const (
	StrategyDelaySecond     Strategy = "DELAY_SECOND"
	StrategyShiftToAlternate Strategy = "SHIFT_TO_ALTERNATE_BERTH"
	StrategySwapSchedules   Strategy = "SWAP_SCHEDULES"
	StrategyExpedite        Strategy = "EXPEDITE"
	StrategyTruncateStay    Strategy = "TRUNCATE_STAY"
)

// ResolutionOption is one structural way out of a conflict.
// ImpactScore is expressed in waiting-minute units, never currency.
type ResolutionOption struct {
	Strategy    Strategy
	ImpactScore float64
	Description string
	// TargetScheduleID is the schedule the option moves or truncates
	TargetScheduleID int
	// NewBerthID / NewETA / NewETD describe the proposed placement when applicable
	NewBerthID int
	NewETA     *time.Time
	NewETD     *time.Time
}

// Alert is the user-visible channel for non-fatal operational conditions. Append-only.
type Alert struct {
	ID              int
	Type            string
	Severity        Severity
	Message         string
	RelatedEntities map[string]interface{}
	CreatedAt       time.Time
	ReadAt          *time.Time
	AutoDismissMs   *int
}

// MarkRead is the terminal transition for an alert; re-reading is a no-op
func (a *Alert) MarkRead(at time.Time) {
	if a.ReadAt == nil {
		a.ReadAt = &at
	}
}
