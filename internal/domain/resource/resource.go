package resource

import "time"

// Kind is the category of an operational resource
type Kind string

const (
	KindPilot Kind = "PILOT"
	KindTug   Kind = "TUG"
	KindCrane Kind = "CRANE"
	KindGang  Kind = "GANG"
)

// Resource is a pilot, tug, crane, or labour gang
type Resource struct {
	ID             int
	Kind           Kind
	Name           string
	Capacity       int
	Class          string
	BollardPull    *float64
	Certifications []string
	IsAvailable    bool
}

// AllocationStatus tracks a resource booking through its lifecycle
type AllocationStatus string

const (
	AllocationAllocated AllocationStatus = "ALLOCATED"
	AllocationInUse     AllocationStatus = "IN_USE"
	AllocationReleased  AllocationStatus = "RELEASED"
)

// Allocation books a resource for a schedule over [From, To).
// Per resource, non-released allocations have pairwise-disjoint windows.
type Allocation struct {
	ID         int
	ScheduleID int
	ResourceID int
	From       time.Time
	To         time.Time
	Quantity   int
	Status     AllocationStatus
}

// Requirement is the pilot/tug demand derived from vessel gross tonnage
type Requirement struct {
	Pilots          int
	Tugs            int
	MinBollardPull  float64
}

// RequirementForGT tiers tug count and bollard pull by gross tonnage.
// Large calls (>150k GT) take a second pilot.
func RequirementForGT(gt float64) Requirement {
	req := Requirement{Pilots: 1, Tugs: 1}
	switch {
	case gt > 100000:
		req.Tugs = 3
	case gt > 30000:
		req.Tugs = 2
	}
	if gt > 150000 {
		req.Pilots = 2
	}
	if gt > 0 {
		req.MinBollardPull = gt/2000 + 20
	}
	return req
}

// TotalBollardPull sums the pull of a tug set, skipping unrated tugs
func TotalBollardPull(tugs []*Resource) float64 {
	total := 0.0
	for _, t := range tugs {
		if t.BollardPull != nil {
			total += *t.BollardPull
		}
	}
	return total
}
