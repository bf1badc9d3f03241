package position

import "context"

// Repository persists position reports under a rolling retention policy
type Repository interface {
	Append(ctx context.Context, r *Report) error
	// Latest returns the newest report for a vessel, nil when none exists
	Latest(ctx context.Context, vesselID int) (*Report, error)
	// RecentSpeeds returns up to n speed-over-ground samples, oldest first
	RecentSpeeds(ctx context.Context, vesselID int, n int) ([]float64, error)
	// PruneOlderThan removes reports past the retention window, returning the count
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}
