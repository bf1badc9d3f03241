package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// Overstay escalation bands, measured from the scheduled departure
const (
	overstayWarningAfter  = 15 * time.Minute
	overstayHighAfter     = 30 * time.Minute
	overstayCriticalAfter = 60 * time.Minute
	departureNoticeWindow = 2 * time.Hour
)

// ConflictDetector is the background watchdog over the live schedule board.
// It scans on a fixed cadence and reacts immediately to schedule changes on
// its port room. Alerts and conflicts are edge-triggered: each condition is
// raised once per escalation, not on every scan.
type ConflictDetector struct {
	schedules schedule.Repository
	vessels   vessel.Repository
	berths    berth.Repository
	tides     tide.Repository
	conflicts conflict.Repository
	alerts    conflict.AlertRepository
	planner   *planningServices.ResolutionPlanner
	ukc       planning.UKCConfig
	bus       *events.Bus
	clock     shared.Clock
	interval  time.Duration
	portCode  string

	mu             sync.Mutex
	overstayBand   map[int]conflict.Severity
	departureNoted map[int]bool
	tidalRaised    map[int]bool
}

// NewConflictDetector creates the watchdog
func NewConflictDetector(
	schedules schedule.Repository,
	vessels vessel.Repository,
	berths berth.Repository,
	tides tide.Repository,
	conflicts conflict.Repository,
	alerts conflict.AlertRepository,
	planner *planningServices.ResolutionPlanner,
	ukc planning.UKCConfig,
	bus *events.Bus,
	clock shared.Clock,
	interval time.Duration,
	portCode string,
) *ConflictDetector {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ConflictDetector{
		schedules:      schedules,
		vessels:        vessels,
		berths:         berths,
		tides:          tides,
		conflicts:      conflicts,
		alerts:         alerts,
		planner:        planner,
		ukc:            ukc,
		bus:            bus,
		clock:          clock,
		interval:       interval,
		portCode:       portCode,
		overstayBand:   make(map[int]conflict.Severity),
		departureNoted: make(map[int]bool),
		tidalRaised:    make(map[int]bool),
	}
}

// Run starts the detector loop; it returns when the context is cancelled
func (d *ConflictDetector) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	sub := d.bus.Subscribe(events.RoomPort(d.portCode))
	defer d.bus.Unsubscribe(sub)

	logger.Log("INFO", "Conflict detector started", map[string]interface{}{
		"interval": d.interval.String(),
		"port":     d.portCode,
	})

	for {
		select {
		case <-ticker.C:
			d.Scan(ctx)
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if e.Type == events.TypeScheduleChanged {
				d.Scan(ctx)
			}
		case <-ctx.Done():
			logger.Log("INFO", "Conflict detector stopped", nil)
			return
		}
	}
}

// Scan runs all detection passes once
func (d *ConflictDetector) Scan(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	active, err := d.schedules.Active(ctx, 0)
	if err != nil {
		logger.Log("WARN", "Conflict scan skipped, store unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	now := d.clock.Now()

	d.checkOverstays(ctx, active, now)
	d.checkApproachingDepartures(ctx, active, now)
	d.checkOverlaps(ctx, active)
	d.checkTidal(ctx, active)
	d.pruneClosed(active)
}

func (d *ConflictDetector) checkOverstays(ctx context.Context, active []*schedule.Schedule, now time.Time) {
	for _, s := range active {
		if s.Status != schedule.StatusBerthed {
			continue
		}
		// The first band opens 15 minutes past ETD
		overdue := now.Sub(s.ETD)
		if overdue < overstayWarningAfter {
			continue
		}
		band := conflict.SeverityWarning
		switch {
		case overdue >= overstayCriticalAfter:
			band = conflict.SeverityCritical
		case overdue >= overstayHighAfter:
			band = conflict.SeverityHigh
		}

		d.mu.Lock()
		prev, seen := d.overstayBand[s.ID]
		escalated := !seen || severityRank(band) > severityRank(prev)
		if escalated {
			d.overstayBand[s.ID] = band
		}
		d.mu.Unlock()
		if !escalated {
			continue
		}

		if !seen {
			c := &conflict.Conflict{
				Kind:        conflict.KindOverstay,
				ScheduleID1: s.ID,
				Severity:    band,
				DetectedAt:  now,
				Description: fmt.Sprintf("vessel %d overstayed schedule %d by %.0f minutes", s.VesselID, s.ID, overdue.Minutes()),
			}
			if err := d.conflicts.Insert(ctx, c); err == nil {
				d.publishConflict(ctx, s, c)
			}
		}
		d.raiseAlert(ctx, s, string(conflict.KindOverstay), band,
			fmt.Sprintf("schedule %d overstay at berth %d: %.0f minutes past ETD", s.ID, s.BerthID, overdue.Minutes()))
	}
}

func (d *ConflictDetector) checkApproachingDepartures(ctx context.Context, active []*schedule.Schedule, now time.Time) {
	for _, s := range active {
		if s.Status != schedule.StatusBerthed {
			continue
		}
		until := s.ETD.Sub(now)
		if until <= 0 || until > departureNoticeWindow {
			continue
		}
		d.mu.Lock()
		noted := d.departureNoted[s.ID]
		d.departureNoted[s.ID] = true
		d.mu.Unlock()
		if noted {
			continue
		}
		d.raiseAlert(ctx, s, "APPROACHING_DEPARTURE", conflict.SeverityInfo,
			fmt.Sprintf("schedule %d departs berth %d in %.0f minutes", s.ID, s.BerthID, until.Minutes()))
	}
}

func (d *ConflictDetector) checkOverlaps(ctx context.Context, active []*schedule.Schedule) {
	byBerth := make(map[int][]*schedule.Schedule)
	for _, s := range active {
		byBerth[s.BerthID] = append(byBerth[s.BerthID], s)
	}
	for _, group := range byBerth {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !a.Overlaps(b) {
					continue
				}
				open, err := d.conflicts.HasOpen(ctx, a.ID, conflict.KindBerthOverlap)
				if err != nil || open {
					continue
				}
				otherID := b.ID
				c := &conflict.Conflict{
					Kind:        conflict.KindBerthOverlap,
					ScheduleID1: a.ID,
					ScheduleID2: &otherID,
					Severity:    conflict.SeverityHigh,
					DetectedAt:  d.clock.Now(),
					Description: fmt.Sprintf("schedules %d and %d overlap on berth %d", a.ID, b.ID, a.BerthID),
				}
				if err := d.conflicts.Insert(ctx, c); err != nil {
					continue
				}
				d.publishConflict(ctx, a, c)
			}
		}
	}
}

// checkTidal re-validates deep-draft arrivals against the tide at their
// current predicted arrival
func (d *ConflictDetector) checkTidal(ctx context.Context, active []*schedule.Schedule) {
	for _, s := range active {
		if s.Status != schedule.StatusScheduled && s.Status != schedule.StatusApproaching {
			continue
		}
		d.mu.Lock()
		raised := d.tidalRaised[s.ID]
		d.mu.Unlock()
		if raised {
			continue
		}

		ves, err := d.vessels.FindByID(ctx, s.VesselID)
		if err != nil {
			continue
		}
		b, err := d.berths.FindByID(ctx, s.BerthID)
		if err != nil {
			continue
		}
		need := ves.Draft + d.ukc.RequiredFor(ves.GT())
		if need <= b.ChartedDepth {
			continue
		}
		portID, ok := d.portIDForBerth(ctx, b)
		if !ok {
			continue
		}
		readings, err := d.tides.Range(ctx, portID, s.PredictedETA.Add(-24*time.Hour), s.PredictedETA.Add(24*time.Hour))
		if err != nil || len(readings) == 0 {
			continue
		}
		if b.ChartedDepth+tide.HeightAt(readings, s.PredictedETA) >= need {
			continue
		}

		d.mu.Lock()
		d.tidalRaised[s.ID] = true
		d.mu.Unlock()
		c := &conflict.Conflict{
			Kind:        conflict.KindTidalConstraint,
			ScheduleID1: s.ID,
			Severity:    conflict.SeverityMedium,
			DetectedAt:  d.clock.Now(),
			Description: fmt.Sprintf("predicted arrival of schedule %d falls outside the tidal window for draft %.1fm", s.ID, ves.Draft),
		}
		if err := d.conflicts.Insert(ctx, c); err == nil {
			d.publishConflict(ctx, s, c)
		}
	}
}

// pruneClosed drops debounce state for schedules that left the active set
func (d *ConflictDetector) pruneClosed(active []*schedule.Schedule) {
	alive := make(map[int]bool, len(active))
	for _, s := range active {
		alive[s.ID] = true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.overstayBand {
		if !alive[id] {
			delete(d.overstayBand, id)
		}
	}
	for id := range d.departureNoted {
		if !alive[id] {
			delete(d.departureNoted, id)
		}
	}
	for id := range d.tidalRaised {
		if !alive[id] {
			delete(d.tidalRaised, id)
		}
	}
}

func (d *ConflictDetector) raiseAlert(ctx context.Context, s *schedule.Schedule, alertType string, sev conflict.Severity, message string) {
	a := &conflict.Alert{
		Type:     alertType,
		Severity: sev,
		Message:  message,
		RelatedEntities: map[string]interface{}{
			"scheduleId": s.ID,
			"vesselId":   s.VesselID,
			"berthId":    s.BerthID,
		},
		CreatedAt: d.clock.Now(),
	}
	if err := d.alerts.Insert(ctx, a); err != nil {
		return
	}
	d.bus.Publish(events.TypeAlertRaised, events.AlertPayload{Alert: a},
		events.RoomPort(d.portCode), events.RoomVessel(s.VesselID))
}

func (d *ConflictDetector) publishConflict(ctx context.Context, s *schedule.Schedule, c *conflict.Conflict) {
	d.bus.Publish(events.TypeConflictDetected, events.ConflictPayload{Conflict: c},
		events.RoomPort(d.portCode), events.RoomVessel(s.VesselID))
}

func (d *ConflictDetector) portIDForBerth(ctx context.Context, b *berth.Berth) (int, bool) {
	t, err := d.berths.FindTerminal(ctx, b.TerminalID)
	if err != nil {
		return 0, false
	}
	return t.PortID, true
}

func severityRank(s conflict.Severity) int {
	switch s {
	case conflict.SeverityInfo:
		return 0
	case conflict.SeverityWarning:
		return 1
	case conflict.SeverityLow:
		return 2
	case conflict.SeverityMedium:
		return 3
	case conflict.SeverityHigh:
		return 4
	case conflict.SeverityCritical:
		return 5
	}
	return 0
}
