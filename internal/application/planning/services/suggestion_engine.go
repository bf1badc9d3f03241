package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/harborops/quayplan/internal/application/planning/types"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// BufferPolicy maps a vessel type to the turnaround gap required after the
// previous call on a berth
type BufferPolicy func(t vessel.Type) time.Duration

// SuggestionEngine ranks feasible berth placements for a vessel call.
// Candidates pass a fast-reject constraint check, get the earliest feasible
// slot, then a full validation and weighted score at that slot.
type SuggestionEngine struct {
	vessels     vessel.Repository
	berths      berth.Repository
	schedules   schedule.Repository
	maintenance berth.MaintenanceRepository
	history     schedule.HistoryRepository
	tides       tide.Repository
	envBuilder  *EnvironmentBuilder
	validator   *planning.Validator
	weights     planning.Weights
	ukc         planning.UKCConfig
	buffer      BufferPolicy
	horizon     time.Duration
	clock       shared.Clock
}

// NewSuggestionEngine wires the suggestion pipeline
func NewSuggestionEngine(
	vessels vessel.Repository,
	berths berth.Repository,
	schedules schedule.Repository,
	maintenance berth.MaintenanceRepository,
	history schedule.HistoryRepository,
	tides tide.Repository,
	envBuilder *EnvironmentBuilder,
	validator *planning.Validator,
	weights planning.Weights,
	ukc planning.UKCConfig,
	buffer BufferPolicy,
	horizon time.Duration,
	clock shared.Clock,
) *SuggestionEngine {
	if horizon <= 0 {
		horizon = 14 * 24 * time.Hour
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SuggestionEngine{
		vessels:     vessels,
		berths:      berths,
		schedules:   schedules,
		maintenance: maintenance,
		history:     history,
		tides:       tides,
		envBuilder:  envBuilder,
		validator:   validator,
		weights:     weights,
		ukc:         ukc,
		buffer:      buffer,
		horizon:     horizon,
		clock:       clock,
	}
}

type candidate struct {
	berth    *berth.Berth
	slot     *planning.Slot
	ranked   planning.Ranked
	warnings []string
}

// Suggest returns up to topN ranked berth options for the vessel arriving at
// preferredETA for the given dwell, scoped to the port's tide series.
func (e *SuggestionEngine) Suggest(
	ctx context.Context,
	vesselID int,
	portCode string,
	preferredETA time.Time,
	dwell time.Duration,
	topN int,
) ([]*types.BerthSuggestionDTO, error) {
	ves, err := e.vessels.FindByID(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	port, err := e.berths.FindPortByCode(ctx, portCode)
	if err != nil {
		return nil, err
	}

	compatible, err := e.berths.ListCompatible(ctx, ves.LOA, ves.Draft)
	if err != nil {
		return nil, err
	}
	if len(compatible) == 0 {
		return nil, shared.NewError(shared.KindNoCompatibleBerth, "E-SUG-001",
			fmt.Sprintf("no active berth fits LOA %.1fm draft %.1fm", ves.LOA, ves.Draft))
	}

	stats, err := e.history.StatsForVessel(ctx, ves.ID)
	if err != nil {
		stats = nil
	}

	var candidates []*candidate
	for _, b := range compatible {
		c, err := e.evaluate(ctx, ves, b, port.ID, preferredETA, dwell, stats)
		if err != nil {
			return nil, err
		}
		if c != nil {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.NewError(shared.KindNoSlotFound, "E-SUG-002",
			"no feasible slot on any compatible berth inside the search horizon")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return planning.RankLess(&candidates[i].ranked, &candidates[j].ranked)
	})
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}

	out := make([]*types.BerthSuggestionDTO, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, e.toDTO(ves, c))
	}
	return out, nil
}

// evaluate runs one berth through fast-reject, slot search, and full scoring.
// Returns nil with no error when the berth is simply infeasible.
func (e *SuggestionEngine) evaluate(
	ctx context.Context,
	ves *vessel.Vessel,
	b *berth.Berth,
	portID int,
	preferredETA time.Time,
	dwell time.Duration,
	stats *schedule.HistoryStats,
) (*candidate, error) {
	prefWindow := planning.Window{From: preferredETA, To: preferredETA.Add(dwell)}
	env, err := e.envBuilder.Build(ctx, ves, b, portID, prefWindow, 0, false)
	if err != nil {
		return nil, err
	}

	// Fast rejection on static constraints; occupancy and tide are the slot
	// finder's job, not a reason to drop the berth
	res := e.validator.Validate(ves, b, env, planning.ModeFastReject)
	for _, v := range res.Violations {
		if v.Severity == planning.SeverityCritical && !slotRecoverable(v.Rule) {
			return nil, nil
		}
	}

	slotReq, err := e.buildSlotRequest(ctx, ves, b, portID, preferredETA, dwell)
	if err != nil {
		return nil, err
	}
	slot, err := planning.FindSlot(slotReq)
	if err != nil {
		if shared.IsKind(err, shared.KindNoSlotFound) {
			return nil, nil
		}
		return nil, err
	}

	slotWindow := planning.Window{From: slot.ETA, To: slot.ETD}
	slotEnv, err := e.envBuilder.Build(ctx, ves, b, portID, slotWindow, 0, false)
	if err != nil {
		return nil, err
	}
	full := e.validator.Validate(ves, b, slotEnv, planning.ModeFull)
	var warnings []string
	for _, v := range full.Violations {
		if v.Severity == planning.SeverityCritical {
			return nil, nil
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}

	var tideHeight *float64
	if nearest := tide.Nearest(slotEnv.TideReadings, slot.ETA); nearest != nil {
		h := nearest.HeightMeters
		tideHeight = &h
	}

	breakdown := planning.Score(planning.ScoreInput{
		Vessel:       ves,
		Berth:        b,
		RequestedETA: preferredETA,
		SlotETA:      slot.ETA,
		TideHeight:   tideHeight,
		History:      stats,
	}, e.weights)

	return &candidate{
		berth: b,
		slot:  slot,
		ranked: planning.Ranked{
			BerthID:        b.ID,
			WaitingMinutes: slot.WaitingMinutes,
			Breakdown:      breakdown,
		},
		warnings: warnings,
	}, nil
}

// slotRecoverable lists the rules the slot finder can route around by moving
// the arrival in time
func slotRecoverable(rule string) bool {
	switch rule {
	case "B-AVL-001", "B-AVL-002", "T-TID-001", "N-NAV-001":
		return true
	}
	return false
}

func (e *SuggestionEngine) buildSlotRequest(
	ctx context.Context,
	ves *vessel.Vessel,
	b *berth.Berth,
	portID int,
	preferredETA time.Time,
	dwell time.Duration,
) (planning.SlotRequest, error) {
	req := planning.SlotRequest{
		PreferredETA: preferredETA,
		Dwell:        dwell,
		Buffer:       e.buffer(ves.Type),
		Horizon:      e.horizon,
	}
	deadline := preferredETA.Add(e.horizon)

	active, err := e.schedules.ActiveForBerth(ctx, b.ID)
	if err != nil {
		return req, err
	}
	for _, s := range active {
		req.Schedules = append(req.Schedules, planning.Window{From: s.ETA, To: s.ETD})
	}

	maint, err := e.maintenance.BlockingForBerth(ctx, b.ID, preferredETA, deadline.Add(dwell))
	if err != nil {
		return req, err
	}
	for _, m := range maint {
		req.Maintenance = append(req.Maintenance, planning.Window{From: m.Start, To: m.End})
	}

	// Deep-draft arrivals need the tide to lift the water over draft + UKC
	need := ves.Draft + e.ukc.RequiredFor(ves.GT())
	if need > b.ChartedDepth {
		readings, err := e.tides.Range(ctx, portID, preferredETA.Add(-tideMargin), deadline.Add(tideMargin))
		if err != nil {
			return req, err
		}
		req.Tidal = &planning.TidalConstraint{
			Readings:       readings,
			RequiredHeight: need - b.ChartedDepth,
		}
	}
	return req, nil
}

func (e *SuggestionEngine) toDTO(ves *vessel.Vessel, c *candidate) *types.BerthSuggestionDTO {
	bd := c.ranked.Breakdown
	reasoning := []types.ReasoningFactor{
		factor("PHYSICAL_FIT", e.weights.PhysicalFit, bd.PhysicalFit,
			fmt.Sprintf("LOA %.1fm against berth max %.1fm, draft %.1fm against %.1fm", ves.LOA, c.berth.MaxLOA, ves.Draft, c.berth.MaxDraft)),
		factor("BERTH_TYPE_MATCH", e.weights.TypeMatch, bd.TypeMatch,
			fmt.Sprintf("%s vessel at %s berth", ves.Type, c.berth.BerthType)),
		factor("WAITING_TIME", e.weights.WaitingTime, bd.WaitingTime,
			fmt.Sprintf("%d minutes past requested arrival", c.slot.WaitingMinutes)),
		factor("CRANE_ADEQUACY", e.weights.CraneAdequacy, bd.CraneAdequacy,
			fmt.Sprintf("%d cranes available, %d required", c.berth.NumberOfCranes, ves.EstimatedCranesRequired())),
		factor("HISTORICAL_PERFORMANCE", e.weights.History, bd.History,
			"past calls and ETA reliability at this port"),
		factor("TIDAL_SAFETY", e.weights.Tidal, bd.Tidal,
			fmt.Sprintf("draft %.1fm against charted depth %.1fm plus tide", ves.Draft, c.berth.ChartedDepth)),
	}
	return &types.BerthSuggestionDTO{
		BerthID:        c.berth.ID,
		BerthCode:      c.berth.Code,
		BerthName:      c.berth.Name,
		TerminalID:     c.berth.TerminalID,
		Score:          bd.Total,
		Confidence:     types.ConfidenceForScore(bd.Total),
		SlotETA:        c.slot.ETA,
		SlotETD:        c.slot.ETD,
		WaitingMinutes: c.slot.WaitingMinutes,
		Breakdown:      bd,
		Reasoning:      reasoning,
		Warnings:       c.warnings,
	}
}

func factor(name string, weight, score float64, message string) types.ReasoningFactor {
	impact := types.ImpactNeutral
	switch {
	case score >= 0.8:
		impact = types.ImpactPositive
	case score < 0.5:
		impact = types.ImpactNegative
	}
	return types.ReasoningFactor{Factor: name, Impact: impact, Weight: weight, Message: message}
}
