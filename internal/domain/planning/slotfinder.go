package planning

import (
	"time"

	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
)

// TidalConstraint restricts arrival to moments where the interpolated tide
// makes the water deep enough for the vessel.
type TidalConstraint struct {
	Readings       []*tide.Reading
	RequiredHeight float64
	Step           time.Duration
}

// SlotRequest describes one berth/dwell search
type SlotRequest struct {
	PreferredETA time.Time
	Dwell        time.Duration
	// Buffer is the turnaround gap required after an existing schedule
	Buffer time.Duration
	// Horizon bounds the search; beyond it the finder gives up
	Horizon time.Duration
	// Schedules are the non-terminal stays on the berth
	Schedules []Window
	// Maintenance windows are opaque blockers, skipped without buffer
	Maintenance []Window
	// Tidal is set for deep-draft arrivals needing a tidal window
	Tidal *TidalConstraint
}

// Slot is a feasible placement
type Slot struct {
	ETA            time.Time
	ETD            time.Time
	WaitingMinutes int
}

// Shift handovers at 06:00, 14:00, and 22:00 port time; arrivals within
// 15 minutes either side are nudged forward when the nudge is cheap.
var handoverHours = []int{6, 14, 22}

const handoverHalfWidth = 15 * time.Minute
const maxNudgeCost = 15 * time.Minute

// FindSlot walks forward from the preferred ETA to the earliest window of the
// requested dwell that clears existing schedules, maintenance, and any tidal
// constraint. Returns a NoSlotFound error past the horizon.
func FindSlot(req SlotRequest) (*Slot, error) {
	if req.Horizon <= 0 {
		req.Horizon = 14 * 24 * time.Hour
	}
	deadline := req.PreferredETA.Add(req.Horizon)
	eta := req.PreferredETA

	// Bounded walk; every advance moves eta strictly forward
	for iter := 0; iter < 10000; iter++ {
		if eta.After(deadline) {
			break
		}
		if req.Tidal != nil {
			step := req.Tidal.Step
			if step <= 0 {
				step = 15 * time.Minute
			}
			t := tide.FirstTimeAtOrAbove(req.Tidal.Readings, req.Tidal.RequiredHeight, eta, deadline.Sub(eta), step)
			if t.IsZero() {
				return nil, shared.NewError(shared.KindNoSlotFound, "E-SLT-002", "no tidal window inside the search horizon")
			}
			eta = t
		}

		candidate := Window{From: eta, To: eta.Add(req.Dwell)}

		if next, moved := advancePast(candidate, req.Schedules, req.Buffer); moved {
			eta = next
			continue
		}
		if next, moved := advancePast(candidate, req.Maintenance, 0); moved {
			eta = next
			continue
		}
		if nudged, ok := nudgeOffHandover(eta); ok {
			eta = nudged
			continue
		}

		waiting := int(eta.Sub(req.PreferredETA).Minutes())
		if waiting < 0 {
			waiting = 0
		}
		return &Slot{ETA: eta, ETD: candidate.To, WaitingMinutes: waiting}, nil
	}
	return nil, shared.NewError(shared.KindNoSlotFound, "E-SLT-001", "no free window inside the search horizon")
}

// advancePast moves the candidate start beyond the earliest overlapping blocker
func advancePast(candidate Window, blockers []Window, buffer time.Duration) (time.Time, bool) {
	var next time.Time
	moved := false
	for _, b := range blockers {
		if !candidate.Overlaps(b) {
			continue
		}
		after := b.To.Add(buffer)
		if !moved || after.After(next) {
			// Jump past the latest-ending overlapping blocker in one step
			next = after
			moved = true
		}
	}
	return next, moved
}

// nudgeOffHandover pushes an arrival out of a shift-handover zone when the
// added wait stays under the nudge budget
func nudgeOffHandover(eta time.Time) (time.Time, bool) {
	for _, h := range handoverHours {
		center := time.Date(eta.Year(), eta.Month(), eta.Day(), h, 0, 0, 0, eta.Location())
		zoneStart := center.Add(-handoverHalfWidth)
		zoneEnd := center.Add(handoverHalfWidth)
		if !eta.Before(zoneStart) && eta.Before(zoneEnd) {
			if cost := zoneEnd.Sub(eta); cost < maxNudgeCost {
				return zoneEnd, true
			}
		}
	}
	return time.Time{}, false
}
