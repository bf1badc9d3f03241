package tide

import (
	"math"
	"sort"
	"time"
)

// ReadingType marks a sample as a high or low water extreme
type ReadingType string

const (
	ReadingHigh ReadingType = "HIGH"
	ReadingLow  ReadingType = "LOW"
)

// Reading is a tide extreme at a port
type Reading struct {
	ID           int
	PortID       int
	TideTime     time.Time
	Type         ReadingType
	HeightMeters float64
}

// Nearest returns the sample closest in time to t, nil for an empty series
func Nearest(readings []*Reading, t time.Time) *Reading {
	var best *Reading
	var bestDelta time.Duration
	for _, r := range readings {
		delta := r.TideTime.Sub(t)
		if delta < 0 {
			delta = -delta
		}
		if best == nil || delta < bestDelta {
			best = r
			bestDelta = delta
		}
	}
	return best
}

// HeightAt interpolates the tide height at t with a half-cosine curve between
// consecutive extremes, the standard approximation for semidiurnal tides.
// Outside the sampled range the nearest extreme's height is used.
func HeightAt(readings []*Reading, t time.Time) float64 {
	if len(readings) == 0 {
		return 0
	}
	sorted := make([]*Reading, len(readings))
	copy(sorted, readings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TideTime.Before(sorted[j].TideTime) })

	if !t.After(sorted[0].TideTime) {
		return sorted[0].HeightMeters
	}
	last := sorted[len(sorted)-1]
	if !t.Before(last.TideTime) {
		return last.HeightMeters
	}
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if t.Before(a.TideTime) || !t.Before(b.TideTime) {
			continue
		}
		span := b.TideTime.Sub(a.TideTime).Seconds()
		if span <= 0 {
			return a.HeightMeters
		}
		frac := t.Sub(a.TideTime).Seconds() / span
		mid := (a.HeightMeters + b.HeightMeters) / 2
		amp := (a.HeightMeters - b.HeightMeters) / 2
		return mid + amp*math.Cos(math.Pi*frac)
	}
	return last.HeightMeters
}

// FirstTimeAtOrAbove finds the earliest time in [from, from+horizon] where the
// interpolated height reaches required, scanning on a step grid.
// Returns the zero time when no such moment exists in the horizon.
func FirstTimeAtOrAbove(readings []*Reading, required float64, from time.Time, horizon, step time.Duration) time.Time {
	if step <= 0 {
		step = 15 * time.Minute
	}
	end := from.Add(horizon)
	for t := from; !t.After(end); t = t.Add(step) {
		if HeightAt(readings, t) >= required {
			return t
		}
	}
	return time.Time{}
}
