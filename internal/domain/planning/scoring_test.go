package planning_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

func TestScore_WaitingTiersSeparateEqualBerths(t *testing.T) {
	// Three identical berths, waits 0/45/120 minutes; the waiting factor alone
	// must produce sub-scores 20, 16, 14 and rank them 1, 2, 3
	eta := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ves := testVessel(t, 300, 48, 9)
	weights := planning.DefaultWeights()

	waits := []int{0, 45, 120}
	var ranked []*planning.Ranked
	for i, w := range waits {
		b := testBerth(t, 350, 13)
		b.ID = i + 1
		in := planning.ScoreInput{
			Vessel:       ves,
			Berth:        b,
			RequestedETA: eta,
			SlotETA:      eta.Add(time.Duration(w) * time.Minute),
		}
		ranked = append(ranked, &planning.Ranked{
			BerthID:        b.ID,
			WaitingMinutes: w,
			Breakdown:      planning.Score(in, weights),
		})
	}

	assert.InDelta(t, 20.0, weights.WaitingTime*ranked[0].Breakdown.WaitingTime, 0.001)
	assert.InDelta(t, 16.0, weights.WaitingTime*ranked[1].Breakdown.WaitingTime, 0.001)
	assert.InDelta(t, 14.0, weights.WaitingTime*ranked[2].Breakdown.WaitingTime, 0.001)

	sort.Slice(ranked, func(i, j int) bool { return planning.RankLess(ranked[i], ranked[j]) })
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].BerthID, ranked[1].BerthID, ranked[2].BerthID})

	// Adjacent totals separated by at least 2 points
	assert.GreaterOrEqual(t, ranked[0].Breakdown.Total-ranked[1].Breakdown.Total, 2.0)
	assert.GreaterOrEqual(t, ranked[1].Breakdown.Total-ranked[2].Breakdown.Total, 2.0)
}

func TestScore_PerfectFitNeverExceedsWeightSum(t *testing.T) {
	eta := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ves := testVessel(t, 200, 32, 9)
	b := testBerth(t, 350, 13)
	b.NumberOfCranes = 8

	breakdown := planning.Score(planning.ScoreInput{
		Vessel:       ves,
		Berth:        b,
		RequestedETA: eta,
		SlotETA:      eta,
		History:      &schedule.HistoryStats{Visits: 10, AvgEtaAccuracy: 100},
	}, planning.DefaultWeights())

	assert.LessOrEqual(t, breakdown.Total, 100.0)
	assert.Greater(t, breakdown.Total, 80.0)
}

func TestScore_HistoryNeutralWithoutVisits(t *testing.T) {
	eta := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ves := testVessel(t, 200, 32, 9)
	b := testBerth(t, 350, 13)

	noHistory := planning.Score(planning.ScoreInput{Vessel: ves, Berth: b, RequestedETA: eta, SlotETA: eta}, planning.DefaultWeights())

	// Unknown vessels score the neutral midpoint on the history factor
	assert.InDelta(t, 0.5, noHistory.History, 0.001)
}

func TestRankLess_NearTieBreaksOnPhysicalFitThenWait(t *testing.T) {
	a := &planning.Ranked{BerthID: 1, WaitingMinutes: 30, Breakdown: planning.Breakdown{Total: 80.0, PhysicalFit: 0.9}}
	b := &planning.Ranked{BerthID: 2, WaitingMinutes: 0, Breakdown: planning.Breakdown{Total: 80.3, PhysicalFit: 0.7}}

	// Within the 0.5-point tie band the better physical fit wins despite the lower total
	assert.True(t, planning.RankLess(a, b))

	c := &planning.Ranked{BerthID: 3, WaitingMinutes: 10, Breakdown: planning.Breakdown{Total: 80.2, PhysicalFit: 0.9}}
	assert.True(t, planning.RankLess(c, a), "equal fit falls through to waiting time")
}
