package schedule

import (
	"context"
	"time"
)

// Repository persists schedules with berth-exclusivity semantics.
// Create and Reschedule run inside a transaction that re-checks overlap,
// so concurrent writers on one berth serialize on the exclusivity invariant.
type Repository interface {
	// Create inserts a new schedule, failing with a TimeConflict error when any
	// non-terminal schedule on the same berth overlaps [eta, etd).
	Create(ctx context.Context, s *Schedule) error
	Update(ctx context.Context, s *Schedule) error
	FindByID(ctx context.Context, id int) (*Schedule, error)
	// Overlapping returns non-terminal schedules on the berth whose window
	// intersects [from, to), excluding excludeID (0 = none).
	Overlapping(ctx context.Context, berthID int, from, to time.Time, excludeID int) ([]*Schedule, error)
	// ActiveForBerth returns non-terminal schedules on the berth ordered by eta
	ActiveForBerth(ctx context.Context, berthID int) ([]*Schedule, error)
	ActiveForVessel(ctx context.Context, vesselID int) ([]*Schedule, error)
	// Active returns all non-terminal schedules; terminalID 0 means all terminals
	Active(ctx context.Context, terminalID int) ([]*Schedule, error)
	// Reschedule cancels the schedule and creates a replacement atomically
	Reschedule(ctx context.Context, scheduleID int, newBerthID int, newEta, newEtd time.Time) (*Schedule, error)
	// ClearAll truncates all schedules. Administrative path only.
	ClearAll(ctx context.Context) error
}

// HistoryRepository persists per-departure performance rows
type HistoryRepository interface {
	Append(ctx context.Context, h *History) error
	StatsForVessel(ctx context.Context, vesselID int) (*HistoryStats, error)
}
