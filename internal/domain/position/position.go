package position

import (
	"math"
	"time"
)

// Report is one normalized AIS position sample. Append-only.
type Report struct {
	ID         int
	VesselID   int
	MMSI       string
	Lat        float64
	Lon        float64
	SOGKnots   float64
	COGDegrees float64
	Heading    float64
	NavStatus  string
	RecordedAt time.Time
	IngestedAt time.Time
}

// StaticRecord is a vessel's self-reported identity and dimensions from the
// feed's static-data messages. Used to backfill the MMSI mapping and any
// missing dimensions on registered vessels.
type StaticRecord struct {
	MMSI       string
	IMO        string
	Name       string
	LOA        float64
	Beam       float64
	MaxDraft   float64
	RecordedAt time.Time
}

const earthRadiusNm = 3440.065

// DistanceNm computes the great-circle distance between two coordinates in nautical miles
func DistanceNm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusNm * math.Asin(math.Sqrt(a))
}

// SmoothedSpeed applies an exponential moving average over speed samples,
// oldest first. Zero-length input yields 0.
func SmoothedSpeed(speeds []float64, alpha float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	ema := speeds[0]
	for _, s := range speeds[1:] {
		ema = alpha*s + (1-alpha)*ema
	}
	return ema
}

// Projector recomputes predicted ETA from the latest position and an
// EMA-smoothed speed over the most recent samples.
type Projector struct {
	Alpha      float64 // smoothing factor, 0.3 by default
	MaxSamples int     // samples in the moving average, 6 by default
}

// NewProjector creates a projector with the default smoothing parameters
func NewProjector() *Projector {
	return &Projector{Alpha: 0.3, MaxSamples: 6}
}

// PredictETA projects arrival at (portLat, portLon) given the latest report and
// recent speed history (oldest first). Returns false when the vessel is
// effectively stationary and no projection is possible.
func (p *Projector) PredictETA(latest *Report, recentSpeeds []float64, portLat, portLon float64) (time.Time, bool) {
	if latest == nil {
		return time.Time{}, false
	}
	speeds := recentSpeeds
	if n := len(speeds); n > p.MaxSamples {
		speeds = speeds[n-p.MaxSamples:]
	}
	speed := SmoothedSpeed(speeds, p.Alpha)
	if speed < 0.5 {
		return time.Time{}, false
	}
	distance := DistanceNm(latest.Lat, latest.Lon, portLat, portLon)
	hours := distance / speed
	return latest.RecordedAt.Add(time.Duration(hours * float64(time.Hour))), true
}
