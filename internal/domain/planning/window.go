package planning

import "time"

// Window is a half-open time interval [From, To)
type Window struct {
	From time.Time
	To   time.Time
}

// Overlaps reports half-open overlap; windows touching at endpoints do not overlap
func (w Window) Overlaps(o Window) bool {
	return w.From.Before(o.To) && o.From.Before(w.To)
}

// Duration returns the window length
func (w Window) Duration() time.Duration {
	return w.To.Sub(w.From)
}
