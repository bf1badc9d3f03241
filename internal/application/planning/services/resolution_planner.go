package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// ResolutionPlanner enumerates structural ways out of a berth-occupancy
// collision. Options are ordered by impact, expressed in waiting minutes.
type ResolutionPlanner struct {
	berths    berth.Repository
	schedules schedule.Repository
	buffer    BufferPolicy
}

// NewResolutionPlanner creates a planner over the berth and schedule stores
func NewResolutionPlanner(berths berth.Repository, schedules schedule.Repository, buffer BufferPolicy) *ResolutionPlanner {
	return &ResolutionPlanner{berths: berths, schedules: schedules, buffer: buffer}
}

// OptionsForOverlap builds resolution options for an incoming stay blocked by
// existing schedules on the berth. incoming may be unsaved (ID 0).
func (p *ResolutionPlanner) OptionsForOverlap(
	ctx context.Context,
	ves *vessel.Vessel,
	incoming *schedule.Schedule,
	blocking []*schedule.Schedule,
) []conflict.ResolutionOption {
	if len(blocking) == 0 {
		return nil
	}
	var options []conflict.ResolutionOption
	dwell := incoming.ETD.Sub(incoming.ETA)
	buffer := p.buffer(ves.Type)

	// Delay: slide the incoming stay past the latest-ending blocker
	latestEnd := blocking[0].ETD
	for _, b := range blocking[1:] {
		if b.ETD.After(latestEnd) {
			latestEnd = b.ETD
		}
	}
	delayedETA := latestEnd.Add(buffer)
	delayedETD := delayedETA.Add(dwell)
	delayCost := delayedETA.Sub(incoming.ETA).Minutes()
	options = append(options, conflict.ResolutionOption{
		Strategy:         conflict.StrategyDelaySecond,
		ImpactScore:      delayCost,
		Description:      fmt.Sprintf("delay arrival by %.0f minutes to follow the occupying call", delayCost),
		TargetScheduleID: incoming.ID,
		NewBerthID:       incoming.BerthID,
		NewETA:           &delayedETA,
		NewETD:           &delayedETD,
	})

	// Alternate berth: any compatible berth free over the requested window
	if alt := p.findAlternate(ctx, ves, incoming); alt != nil {
		options = append(options, *alt)
	}

	// Expedite: ask the occupying call to complete early when the overlap is
	// a small tail of its stay
	earliest := blocking[0]
	for _, b := range blocking[1:] {
		if b.ETD.Before(earliest.ETD) {
			earliest = b
		}
	}
	if len(blocking) == 1 {
		overlap := earliest.ETD.Sub(incoming.ETA).Minutes()
		stay := earliest.ETD.Sub(earliest.ETA).Minutes()
		if overlap > 0 && stay > 0 && overlap <= stay*0.25 {
			newETD := incoming.ETA
			options = append(options, conflict.ResolutionOption{
				Strategy:         conflict.StrategyExpedite,
				ImpactScore:      overlap,
				Description:      fmt.Sprintf("expedite schedule %d to depart %.0f minutes early", earliest.ID, overlap),
				TargetScheduleID: earliest.ID,
				NewBerthID:       earliest.BerthID,
				NewETA:           &earliest.ETA,
				NewETD:           &newETD,
			})
		}
	}

	// Truncate: cut the incoming stay short of the first blocker when at
	// least half the requested dwell survives
	first := blocking[0]
	for _, b := range blocking[1:] {
		if b.ETA.Before(first.ETA) {
			first = b
		}
	}
	if usable := first.ETA.Sub(incoming.ETA); usable >= dwell/2 {
		truncatedETD := first.ETA
		lost := incoming.ETD.Sub(truncatedETD).Minutes()
		options = append(options, conflict.ResolutionOption{
			Strategy:         conflict.StrategyTruncateStay,
			ImpactScore:      lost,
			Description:      fmt.Sprintf("truncate the stay, giving up %.0f minutes of dwell", lost),
			TargetScheduleID: incoming.ID,
			NewBerthID:       incoming.BerthID,
			NewETA:           &incoming.ETA,
			NewETD:           &truncatedETD,
		})
	}

	sortOptions(options)
	return options
}

// OptionsForPair builds options for two already-committed overlapping
// schedules, including a straight swap when both are still in the future.
func (p *ResolutionPlanner) OptionsForPair(
	ctx context.Context,
	ves *vessel.Vessel,
	a, b *schedule.Schedule,
	now time.Time,
) []conflict.ResolutionOption {
	options := p.OptionsForOverlap(ctx, ves, a, []*schedule.Schedule{b})
	if a.ETA.After(now) && b.ETA.After(now) && a.BerthID != b.BerthID {
		cost := a.ETA.Sub(b.ETA).Minutes()
		if cost < 0 {
			cost = -cost
		}
		options = append(options, conflict.ResolutionOption{
			Strategy:         conflict.StrategySwapSchedules,
			ImpactScore:      cost,
			Description:      fmt.Sprintf("swap berths between schedules %d and %d", a.ID, b.ID),
			TargetScheduleID: a.ID,
			NewBerthID:       b.BerthID,
		})
		sortOptions(options)
	}
	return options
}

func (p *ResolutionPlanner) findAlternate(ctx context.Context, ves *vessel.Vessel, incoming *schedule.Schedule) *conflict.ResolutionOption {
	compatible, err := p.berths.ListCompatible(ctx, ves.LOA, ves.Draft)
	if err != nil {
		return nil
	}
	for _, b := range compatible {
		if b.ID == incoming.BerthID {
			continue
		}
		overlapping, err := p.schedules.Overlapping(ctx, b.ID, incoming.ETA, incoming.ETD, 0)
		if err != nil || len(overlapping) > 0 {
			continue
		}
		return &conflict.ResolutionOption{
			Strategy:         conflict.StrategyShiftToAlternate,
			ImpactScore:      0,
			Description:      fmt.Sprintf("shift to free berth %s for the same window", b.Code),
			TargetScheduleID: incoming.ID,
			NewBerthID:       b.ID,
			NewETA:           &incoming.ETA,
			NewETD:           &incoming.ETD,
		}
	}
	return nil
}

func sortOptions(options []conflict.ResolutionOption) {
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].ImpactScore < options[j].ImpactScore
	})
}
