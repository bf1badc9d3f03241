package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// GormResourceRepository implements resource and allocation persistence using GORM
type GormResourceRepository struct {
	db *gorm.DB
}

// NewGormResourceRepository creates a new GORM-based resource repository
func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

var _ resource.Repository = (*GormResourceRepository)(nil)

func resourceToModel(res *resource.Resource) *ResourceModel {
	return &ResourceModel{
		ID:             res.ID,
		Kind:           string(res.Kind),
		Name:           res.Name,
		Capacity:       res.Capacity,
		Class:          res.Class,
		BollardPull:    res.BollardPull,
		Certifications: encodeStringList(res.Certifications),
		IsAvailable:    res.IsAvailable,
	}
}

func resourceFromModel(m *ResourceModel) *resource.Resource {
	return &resource.Resource{
		ID:             m.ID,
		Kind:           resource.Kind(m.Kind),
		Name:           m.Name,
		Capacity:       m.Capacity,
		Class:          m.Class,
		BollardPull:    m.BollardPull,
		Certifications: decodeStringList(m.Certifications),
		IsAvailable:    m.IsAvailable,
	}
}

func allocationFromModel(m *ResourceAllocationModel) *resource.Allocation {
	return &resource.Allocation{
		ID:         m.ID,
		ScheduleID: m.ScheduleID,
		ResourceID: m.ResourceID,
		From:       m.From,
		To:         m.To,
		Quantity:   m.Quantity,
		Status:     resource.AllocationStatus(m.Status),
	}
}

// Save inserts or updates a resource
func (r *GormResourceRepository) Save(ctx context.Context, res *resource.Resource) error {
	model := resourceToModel(res)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("resource.save", err)
	}
	res.ID = model.ID
	return nil
}

// FindByID retrieves a resource by id
func (r *GormResourceRepository) FindByID(ctx context.Context, id int) (*resource.Resource, error) {
	var model ResourceModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("resource", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("resource.find", err)
	}
	return resourceFromModel(&model), nil
}

// AvailableInWindow returns available resources of the kind with no
// non-released allocation overlapping [from, to)
func (r *GormResourceRepository) AvailableInWindow(ctx context.Context, kind resource.Kind, from, to time.Time) ([]*resource.Resource, error) {
	var models []ResourceModel
	sub := r.db.Model(&ResourceAllocationModel{}).
		Select("resource_id").
		Where("status <> ? AND from_time < ? AND to_time > ?", string(resource.AllocationReleased), to, from)
	err := r.db.WithContext(ctx).
		Where("kind = ? AND is_available = ? AND id NOT IN (?)", string(kind), true, sub).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("resource.available", err)
	}
	out := make([]*resource.Resource, 0, len(models))
	for i := range models {
		out = append(out, resourceFromModel(&models[i]))
	}
	return out, nil
}

// Allocate books a resource, re-checking window exclusivity in the same
// transaction so racing bookings on one resource serialize.
func (r *GormResourceRepository) Allocate(ctx context.Context, a *resource.Allocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&ResourceAllocationModel{}).
			Where("resource_id = ? AND status <> ? AND from_time < ? AND to_time > ?",
				a.ResourceID, string(resource.AllocationReleased), a.To, a.From).
			Count(&count).Error
		if err != nil {
			return shared.TransientStoreError("resource.allocate", err)
		}
		if count > 0 {
			return shared.NewError(shared.KindTimeConflict, "E-RSC-001",
				"resource already allocated in the requested window")
		}
		model := &ResourceAllocationModel{
			ScheduleID: a.ScheduleID,
			ResourceID: a.ResourceID,
			From:       a.From,
			To:         a.To,
			Quantity:   a.Quantity,
			Status:     string(a.Status),
		}
		if model.Status == "" {
			model.Status = string(resource.AllocationAllocated)
		}
		if err := tx.Create(model).Error; err != nil {
			return shared.TransientStoreError("resource.allocate", err)
		}
		a.ID = model.ID
		a.Status = resource.AllocationStatus(model.Status)
		return nil
	})
}

// Release marks one allocation released
func (r *GormResourceRepository) Release(ctx context.Context, allocationID int) error {
	res := r.db.WithContext(ctx).Model(&ResourceAllocationModel{}).
		Where("id = ?", allocationID).
		Update("status", string(resource.AllocationReleased))
	if res.Error != nil {
		return shared.TransientStoreError("resource.release", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFoundError("allocation", allocationID)
	}
	return nil
}

// AllocationsForSchedule returns all allocations of a schedule
func (r *GormResourceRepository) AllocationsForSchedule(ctx context.Context, scheduleID int) ([]*resource.Allocation, error) {
	var models []ResourceAllocationModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("resource.allocations", err)
	}
	out := make([]*resource.Allocation, 0, len(models))
	for i := range models {
		out = append(out, allocationFromModel(&models[i]))
	}
	return out, nil
}

// ReleaseForSchedule releases every allocation held by the schedule
func (r *GormResourceRepository) ReleaseForSchedule(ctx context.Context, scheduleID int) error {
	err := r.db.WithContext(ctx).Model(&ResourceAllocationModel{}).
		Where("schedule_id = ? AND status <> ?", scheduleID, string(resource.AllocationReleased)).
		Update("status", string(resource.AllocationReleased)).Error
	if err != nil {
		return shared.TransientStoreError("resource.releaseForSchedule", err)
	}
	return nil
}
