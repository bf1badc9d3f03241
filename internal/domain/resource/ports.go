package resource

import (
	"context"
	"time"
)

// Repository persists resources and their allocations
type Repository interface {
	Save(ctx context.Context, r *Resource) error
	FindByID(ctx context.Context, id int) (*Resource, error)
	// AvailableInWindow returns available resources of the kind with no
	// non-released allocation overlapping [from, to)
	AvailableInWindow(ctx context.Context, kind Kind, from, to time.Time) ([]*Resource, error)
	Allocate(ctx context.Context, a *Allocation) error
	Release(ctx context.Context, allocationID int) error
	AllocationsForSchedule(ctx context.Context, scheduleID int) ([]*Allocation, error)
	ReleaseForSchedule(ctx context.Context, scheduleID int) error
}
