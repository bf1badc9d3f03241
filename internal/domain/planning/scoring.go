package planning

import (
	"strings"
	"time"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/pkg/utils"
)

// Weights are the scoring points per factor; the defaults sum to 100
type Weights struct {
	PhysicalFit   float64
	TypeMatch     float64
	WaitingTime   float64
	CraneAdequacy float64
	History       float64
	Tidal         float64
}

// DefaultWeights returns the standard 25/20/20/15/10/10 split
func DefaultWeights() Weights {
	return Weights{
		PhysicalFit:   25,
		TypeMatch:     20,
		WaitingTime:   20,
		CraneAdequacy: 15,
		History:       10,
		Tidal:         10,
	}
}

// ScoreInput is everything the scoring engine reads for one candidate
type ScoreInput struct {
	Vessel       *vessel.Vessel
	Berth        *berth.Berth
	RequestedETA time.Time
	SlotETA      time.Time
	// TideHeight is the nearest sample height at the slot, nil when no series exists
	TideHeight *float64
	History    *schedule.HistoryStats
}

// Breakdown carries the 0..1 sub-scores and the weighted 0-100 total
type Breakdown struct {
	PhysicalFit   float64
	TypeMatch     float64
	WaitingTime   float64
	CraneAdequacy float64
	History       float64
	Tidal         float64
	Total         float64
}

// Score produces the weighted compatibility score for one (vessel, berth, slot) triple
func Score(in ScoreInput, w Weights) Breakdown {
	b := Breakdown{
		PhysicalFit:   physicalFitScore(in.Vessel, in.Berth),
		TypeMatch:     typeMatchScore(in.Vessel.Type, in.Berth.BerthType),
		WaitingTime:   waitingScore(in.SlotETA.Sub(in.RequestedETA).Minutes()),
		CraneAdequacy: craneAdequacyScore(in.Vessel, in.Berth),
		History:       historyScore(in.History),
		Tidal:         tidalScore(in.Vessel.Draft, in.TideHeight),
	}
	b.Total = utils.Round2(
		w.PhysicalFit*b.PhysicalFit +
			w.TypeMatch*b.TypeMatch +
			w.WaitingTime*b.WaitingTime +
			w.CraneAdequacy*b.CraneAdequacy +
			w.History*b.History +
			w.Tidal*b.Tidal)
	return b
}

// marginScore grades the relative clearance m = (cap - dim)/cap.
// The ideal band is a snug-but-safe fit; very loose berths waste quay.
func marginScore(m float64) float64 {
	switch {
	case m < 0:
		return 0
	case m < 0.05:
		return 0.70
	case m < 0.10:
		return 0.85
	case m <= 0.25:
		return 1.0
	case m <= 0.40:
		return 0.9
	default:
		return 0.8
	}
}

func physicalFitScore(v *vessel.Vessel, b *berth.Berth) float64 {
	lengthMargin := (b.MaxLOA - v.LOA) / b.MaxLOA
	draftMargin := (b.MaxDraft - v.Draft) / b.MaxDraft
	if lengthMargin < 0 || draftMargin < 0 {
		return 0
	}
	return (marginScore(lengthMargin) + marginScore(draftMargin)) / 2
}

// partialTypeMatch maps known cross-type compatibilities; unlisted pairs score 0.4
var partialTypeMatch = map[string]float64{
	"CONTAINER|GENERAL": 0.6,
	"GENERAL|CONTAINER": 0.6,
	"TANKER|BULK":       0.3,
	"BULK|TANKER":       0.3,
	"GENERAL|BULK":      0.5,
	"BULK|GENERAL":      0.5,
	"LNG|TANKER":        0.5,
	"RORO|GENERAL":      0.5,
}

func typeMatchScore(vtype vessel.Type, berthType string) float64 {
	bt := strings.ToUpper(berthType)
	vt := string(vtype)
	if vt == bt {
		return 1.0
	}
	if s, ok := partialTypeMatch[vt+"|"+bt]; ok {
		return s
	}
	return 0.4
}

func waitingScore(minutes float64) float64 {
	switch {
	case minutes <= 0:
		return 1.0
	case minutes <= 30:
		return 0.95
	case minutes <= 60:
		return 0.80
	case minutes <= 120:
		return 0.70
	case minutes <= 240:
		return 0.50
	case minutes <= 480:
		return 0.30
	default:
		return 0.10
	}
}

func craneAdequacyScore(v *vessel.Vessel, b *berth.Berth) float64 {
	required := v.EstimatedCranesRequired()
	if required <= 0 {
		return 1.0
	}
	ratio := float64(b.NumberOfCranes) / float64(required)
	if ratio > 1 {
		return 1.0
	}
	return ratio
}

func historyScore(stats *schedule.HistoryStats) float64 {
	if stats == nil || stats.Visits == 0 {
		return 0.5
	}
	visits := float64(stats.Visits) / 10
	if visits > 1 {
		visits = 1
	}
	return 0.4*visits + 0.6*(stats.AvgEtaAccuracy/100)
}

// tidalScore is full for shallow drafts; deep drafts grade linearly on the
// nearest tide sample between draft and draft+1 meters.
func tidalScore(draft float64, tideHeight *float64) float64 {
	if draft <= 10 {
		return 1.0
	}
	if tideHeight == nil {
		return 0.5
	}
	h := *tideHeight
	switch {
	case h >= draft+1:
		return 1.0
	case h > draft:
		return 0.5 + 0.5*(h-draft)
	default:
		return 0
	}
}

// Ranked is one scored candidate ready for ordering
type Ranked struct {
	BerthID        int
	WaitingMinutes int
	Breakdown      Breakdown
}

// RankLess orders candidates: total score descending, with near-ties (within
// 0.5 points) broken by physical fit, then waiting time, then berth id for
// determinism.
func RankLess(a, b *Ranked) bool {
	diff := a.Breakdown.Total - b.Breakdown.Total
	if diff > 0.5 || diff < -0.5 {
		return a.Breakdown.Total > b.Breakdown.Total
	}
	if a.Breakdown.PhysicalFit != b.Breakdown.PhysicalFit {
		return a.Breakdown.PhysicalFit > b.Breakdown.PhysicalFit
	}
	if a.WaitingMinutes != b.WaitingMinutes {
		return a.WaitingMinutes < b.WaitingMinutes
	}
	return a.BerthID < b.BerthID
}
