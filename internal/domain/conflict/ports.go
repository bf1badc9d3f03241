package conflict

import "context"

// Repository persists the conflict log
type Repository interface {
	Insert(ctx context.Context, c *Conflict) error
	FindByID(ctx context.Context, id int) (*Conflict, error)
	Resolve(ctx context.Context, id int, resolutionJSON string) error
	Active(ctx context.Context) ([]*Conflict, error)
	// HasOpen reports whether an unresolved conflict of the kind exists for the schedule
	HasOpen(ctx context.Context, scheduleID int, kind Kind) (bool, error)
	ClearAll(ctx context.Context) error
}

// AlertRepository persists the append-only alert feed
type AlertRepository interface {
	Insert(ctx context.Context, a *Alert) error
	Active(ctx context.Context) ([]*Alert, error)
	MarkRead(ctx context.Context, id int) error
	ClearAll(ctx context.Context) error
}
