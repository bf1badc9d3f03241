package planning

import (
	"fmt"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// Severity grades a constraint violation
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Mode selects full evaluation or fast rejection
type Mode int

const (
	// ModeFull evaluates every layer and collects all violations
	ModeFull Mode = iota
	// ModeFastReject returns on the first Critical violation
	ModeFastReject
)

// Violation is one failed constraint rule
type Violation struct {
	Rule     string
	Layer    int
	Severity Severity
	Hard     bool
	Message  string
}

// Result is the validator output for one (vessel, berth, window) tuple
type Result struct {
	Violations []Violation
	HardPassed bool
}

// NonCritical returns the violations a suggestion may carry forward
func (r Result) NonCritical() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityCritical {
			out = append(out, v)
		}
	}
	return out
}

// FirstHard returns the first hard violation, or nil
func (r Result) FirstHard() *Violation {
	for i := range r.Violations {
		if r.Violations[i].Hard {
			return &r.Violations[i]
		}
	}
	return nil
}

// UKCConfig holds the required under-keel clearance tiers by gross tonnage
type UKCConfig struct {
	DefaultMeters float64
	LargeMeters   float64 // GT > 100 000
	VLCCMeters    float64 // GT > 200 000
}

// DefaultUKC returns the standard clearance tiers
func DefaultUKC() UKCConfig {
	return UKCConfig{DefaultMeters: 1.5, LargeMeters: 2.0, VLCCMeters: 2.5}
}

// RequiredFor returns the clearance the vessel's tonnage demands
func (c UKCConfig) RequiredFor(gt float64) float64 {
	switch {
	case gt > 200000:
		return c.VLCCMeters
	case gt > 100000:
		return c.LargeMeters
	default:
		return c.DefaultMeters
	}
}

// WeatherLimits gates crane operation and harbour movement
type WeatherLimits struct {
	CraneShutdownWindMps float64
	WarnWindMps          float64
	MinVisibilityMeters  float64
}

// DefaultWeatherLimits returns the standard operating limits
func DefaultWeatherLimits() WeatherLimits {
	return WeatherLimits{CraneShutdownWindMps: 22, WarnWindMps: 15, MinVisibilityMeters: 1000}
}

// Weather is an observed or forecast condition for the candidate window
type Weather struct {
	WindSpeedMps     float64
	VisibilityMeters float64
}

// Env is the world state the validator reads, assembled by the caller so the
// validator itself stays pure.
type Env struct {
	Window               Window
	OverlappingSchedules []*schedule.Schedule
	Maintenance          []*berth.MaintenanceWindow
	AvailablePilots      []*resource.Resource
	AvailableTugs        []*resource.Resource
	TideReadings         []*tide.Reading
	Weather              *Weather
	// WindowClaimCrossed is set when a contracted window-vessel claim on this
	// berth starts inside the candidate stay
	WindowClaimCrossed bool
	// CommitCheck hardens the window-claim rule at allocation time
	CommitCheck bool
}

// Validator evaluates the six-layer constraint hierarchy in order
type Validator struct {
	ukc     UKCConfig
	weather WeatherLimits
}

// NewValidator creates a validator with the given clearance and weather limits
func NewValidator(ukc UKCConfig, weather WeatherLimits) *Validator {
	return &Validator{ukc: ukc, weather: weather}
}

type collector struct {
	result     Result
	fastReject bool
	done       bool
}

func (c *collector) add(v Violation) {
	c.result.Violations = append(c.result.Violations, v)
	if v.Hard {
		c.result.HardPassed = false
	}
	if c.fastReject && v.Severity == SeverityCritical {
		c.done = true
	}
}

// Validate runs the hierarchy for a (vessel, berth, window) tuple
func (val *Validator) Validate(ves *vessel.Vessel, b *berth.Berth, env Env, mode Mode) Result {
	c := &collector{fastReject: mode == ModeFastReject}
	c.result.HardPassed = true

	val.checkPhysical(c, ves, b)
	if c.done {
		return c.result
	}
	val.checkCargo(c, ves, b)
	if c.done {
		return c.result
	}
	val.checkAvailability(c, env)
	if c.done {
		return c.result
	}
	val.checkResources(c, ves, env)
	if c.done {
		return c.result
	}
	val.checkEnvironmental(c, ves, b, env)
	if c.done {
		return c.result
	}
	val.checkCommercial(c, ves, env)
	if c.done {
		return c.result
	}
	val.checkNavigationSafety(c, ves, b, env)
	return c.result
}

// Layer 1: vessel physical dimensions against berth caps
func (val *Validator) checkPhysical(c *collector, ves *vessel.Vessel, b *berth.Berth) {
	if ves.LOA > b.MaxLOA {
		c.add(Violation{Rule: "V-DIM-001", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("vessel LOA %.1fm exceeds berth max LOA %.1fm", ves.LOA, b.MaxLOA)})
		if c.done {
			return
		}
	}
	if b.MaxBeam != nil && ves.Beam > *b.MaxBeam {
		c.add(Violation{Rule: "V-DIM-002", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("vessel beam %.1fm exceeds berth max beam %.1fm", ves.Beam, *b.MaxBeam)})
		if c.done {
			return
		}
	}
	if ves.Draft > b.MaxDraft {
		c.add(Violation{Rule: "V-DIM-003", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("vessel draft %.1fm exceeds berth max draft %.1fm", ves.Draft, b.MaxDraft)})
		if c.done {
			return
		}
	}
	if b.MaxAirDraft != nil && ves.AirDraft != nil && *ves.AirDraft > *b.MaxAirDraft {
		c.add(Violation{Rule: "V-DIM-004", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("vessel air draft %.1fm exceeds berth limit %.1fm", *ves.AirDraft, *b.MaxAirDraft)})
		if c.done {
			return
		}
	}
	if b.MaxGT != nil && ves.GT() > *b.MaxGT {
		c.add(Violation{Rule: "V-DIM-005", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("vessel GT %.0f exceeds berth limit %.0f", ves.GT(), *b.MaxGT)})
	}
}

// Layer 1: cargo and equipment compatibility
func (val *Validator) checkCargo(c *collector, ves *vessel.Vessel, b *berth.Berth) {
	if !b.AllowsCargo(ves.CargoType) {
		c.add(Violation{Rule: "C-CGO-001", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("cargo type %s not handled at berth %s", ves.CargoType, b.Code)})
		if c.done {
			return
		}
	}
	if ves.IsHazmat() && !b.DGCertified {
		c.add(Violation{Rule: "C-CGO-002", Layer: 1, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("berth %s is not certified for dangerous goods class %s", b.Code, *ves.HazmatClass)})
		if c.done {
			return
		}
	}
	if ves.ReeferDemand != nil && *ves.ReeferDemand > 0 {
		plugs := 0
		if b.ReeferPlugs != nil {
			plugs = *b.ReeferPlugs
		}
		if *ves.ReeferDemand > plugs {
			c.add(Violation{Rule: "C-CGO-003", Layer: 1, Severity: SeverityCritical, Hard: true,
				Message: fmt.Sprintf("reefer demand %d exceeds %d plugs at berth %s", *ves.ReeferDemand, plugs, b.Code)})
		}
	}
}

// Layer 2: berth availability in the requested window
func (val *Validator) checkAvailability(c *collector, env Env) {
	if len(env.OverlappingSchedules) > 0 {
		c.add(Violation{Rule: "B-AVL-001", Layer: 2, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("%d schedule(s) occupy the berth in the requested window", len(env.OverlappingSchedules))})
		if c.done {
			return
		}
	}
	for _, m := range env.Maintenance {
		if m.Blocks() && m.Overlaps(env.Window.From, env.Window.To) {
			c.add(Violation{Rule: "B-AVL-002", Layer: 2, Severity: SeverityCritical, Hard: true,
				Message: "maintenance window blocks the berth in the requested window"})
			return
		}
	}
}

// Layer 3: pilot and tug sufficiency for the tonnage tier
func (val *Validator) checkResources(c *collector, ves *vessel.Vessel, env Env) {
	req := resource.RequirementForGT(ves.GT())
	if len(env.AvailablePilots) < req.Pilots {
		c.add(Violation{Rule: "R-RES-001", Layer: 3, Severity: SeverityHigh, Hard: true,
			Message: fmt.Sprintf("need %d pilot(s), %d available", req.Pilots, len(env.AvailablePilots))})
		if c.done {
			return
		}
	}
	if len(env.AvailableTugs) < req.Tugs {
		c.add(Violation{Rule: "R-RES-002", Layer: 3, Severity: SeverityHigh, Hard: true,
			Message: fmt.Sprintf("need %d tug(s), %d available", req.Tugs, len(env.AvailableTugs))})
		if c.done {
			return
		}
	}
	if req.MinBollardPull > 0 && len(env.AvailableTugs) > 0 {
		if total := resource.TotalBollardPull(env.AvailableTugs); total < req.MinBollardPull {
			c.add(Violation{Rule: "R-RES-003", Layer: 3, Severity: SeverityHigh, Hard: true,
				Message: fmt.Sprintf("available bollard pull %.0ft below required %.0ft", total, req.MinBollardPull)})
		}
	}
}

// Layer 4: tidal window and weather
func (val *Validator) checkEnvironmental(c *collector, ves *vessel.Vessel, b *berth.Berth, env Env) {
	need := ves.Draft + val.ukc.RequiredFor(ves.GT())
	if need > b.ChartedDepth {
		tideHeight := 0.0
		if nearest := tide.Nearest(env.TideReadings, env.Window.From); nearest != nil {
			tideHeight = nearest.HeightMeters
		}
		if b.ChartedDepth+tideHeight < need {
			c.add(Violation{Rule: "T-TID-001", Layer: 4, Severity: SeverityCritical, Hard: true,
				Message: fmt.Sprintf("depth %.1fm + tide %.1fm below required %.1fm", b.ChartedDepth, tideHeight, need)})
			if c.done {
				return
			}
		}
	}
	if env.Weather == nil {
		return
	}
	if env.Weather.WindSpeedMps > val.weather.CraneShutdownWindMps {
		c.add(Violation{Rule: "W-WEA-001", Layer: 4, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("wind %.1fm/s above crane shutdown limit %.1fm/s", env.Weather.WindSpeedMps, val.weather.CraneShutdownWindMps)})
		if c.done {
			return
		}
	} else if env.Weather.WindSpeedMps > val.weather.WarnWindMps {
		c.add(Violation{Rule: "W-WEA-101", Layer: 4, Severity: SeverityMedium, Hard: false,
			Message: fmt.Sprintf("wind %.1fm/s above advisory limit, expect reduced crane productivity", env.Weather.WindSpeedMps)})
	}
	if env.Weather.VisibilityMeters > 0 && env.Weather.VisibilityMeters < val.weather.MinVisibilityMeters {
		c.add(Violation{Rule: "W-WEA-002", Layer: 4, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("visibility %.0fm below minimum %.0fm", env.Weather.VisibilityMeters, val.weather.MinVisibilityMeters)})
	}
}

// Layer 5: priority and commercial contracts
func (val *Validator) checkCommercial(c *collector, ves *vessel.Vessel, env Env) {
	if env.WindowClaimCrossed && ves.PriorityClass != vessel.PriorityWindow {
		sev := SeverityMedium
		hard := false
		if env.CommitCheck {
			sev = SeverityHigh
			hard = true
		}
		c.add(Violation{Rule: "P-WND-001", Layer: 5, Severity: sev, Hard: hard,
			Message: "stay crosses a contracted window-vessel claim; berth must be vacated by window start"})
	}
}

// Layer 6: under-keel clearance against charted depth plus tide
func (val *Validator) checkNavigationSafety(c *collector, ves *vessel.Vessel, b *berth.Berth, env Env) {
	required := ves.Draft + val.ukc.RequiredFor(ves.GT())
	available := b.ChartedDepth + tide.HeightAt(env.TideReadings, env.Window.From)
	if required > available {
		c.add(Violation{Rule: "N-NAV-001", Layer: 6, Severity: SeverityCritical, Hard: true,
			Message: fmt.Sprintf("required UKC depth %.2fm exceeds available %.2fm", required, available)})
	}
}
