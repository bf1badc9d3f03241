package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// GormConflictRepository implements the conflict log using GORM
type GormConflictRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormConflictRepository creates a new GORM-based conflict repository
func NewGormConflictRepository(db *gorm.DB, clock shared.Clock) *GormConflictRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormConflictRepository{db: db, clock: clock}
}

var _ conflict.Repository = (*GormConflictRepository)(nil)

func conflictToModel(c *conflict.Conflict) *ConflictModel {
	return &ConflictModel{
		ID:             c.ID,
		Kind:           string(c.Kind),
		ScheduleID1:    c.ScheduleID1,
		ScheduleID2:    c.ScheduleID2,
		Severity:       string(c.Severity),
		DetectedAt:     c.DetectedAt,
		ResolvedAt:     c.ResolvedAt,
		Description:    c.Description,
		ResolutionJSON: c.ResolutionJSON,
	}
}

func conflictFromModel(m *ConflictModel) *conflict.Conflict {
	return &conflict.Conflict{
		ID:             m.ID,
		Kind:           conflict.Kind(m.Kind),
		ScheduleID1:    m.ScheduleID1,
		ScheduleID2:    m.ScheduleID2,
		Severity:       conflict.Severity(m.Severity),
		DetectedAt:     m.DetectedAt,
		ResolvedAt:     m.ResolvedAt,
		Description:    m.Description,
		ResolutionJSON: m.ResolutionJSON,
	}
}

// Insert appends a detected conflict
func (r *GormConflictRepository) Insert(ctx context.Context, c *conflict.Conflict) error {
	if c.DetectedAt.IsZero() {
		c.DetectedAt = r.clock.Now()
	}
	model := conflictToModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.TransientStoreError("conflict.insert", err)
	}
	c.ID = model.ID
	return nil
}

// FindByID retrieves a conflict by id
func (r *GormConflictRepository) FindByID(ctx context.Context, id int) (*conflict.Conflict, error) {
	var model ConflictModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("conflict", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("conflict.find", err)
	}
	return conflictFromModel(&model), nil
}

// Resolve closes the conflict, recording the applied resolution
func (r *GormConflictRepository) Resolve(ctx context.Context, id int, resolutionJSON string) error {
	now := r.clock.Now()
	res := r.db.WithContext(ctx).Model(&ConflictModel{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolved_at":     now,
			"resolution_json": resolutionJSON,
		})
	if res.Error != nil {
		return shared.TransientStoreError("conflict.resolve", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFoundError("conflict", id)
	}
	return nil
}

// Active returns open conflicts, newest first
func (r *GormConflictRepository) Active(ctx context.Context) ([]*conflict.Conflict, error) {
	var models []ConflictModel
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("detected_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("conflict.active", err)
	}
	out := make([]*conflict.Conflict, 0, len(models))
	for i := range models {
		out = append(out, conflictFromModel(&models[i]))
	}
	return out, nil
}

// HasOpen reports whether an unresolved conflict of the kind exists for the schedule
func (r *GormConflictRepository) HasOpen(ctx context.Context, scheduleID int, kind conflict.Kind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ConflictModel{}).
		Where("schedule_id_1 = ? AND kind = ? AND resolved_at IS NULL", scheduleID, string(kind)).
		Count(&count).Error
	if err != nil {
		return false, shared.TransientStoreError("conflict.hasOpen", err)
	}
	return count > 0, nil
}

// ClearAll truncates the conflict log. Administrative path only.
func (r *GormConflictRepository) ClearAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&ConflictModel{}).Error; err != nil {
		return shared.TransientStoreError("conflict.clearAll", err)
	}
	return nil
}

// GormAlertRepository implements the append-only alert feed using GORM
type GormAlertRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormAlertRepository creates a new GORM-based alert repository
func NewGormAlertRepository(db *gorm.DB, clock shared.Clock) *GormAlertRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormAlertRepository{db: db, clock: clock}
}

var _ conflict.AlertRepository = (*GormAlertRepository)(nil)

func alertFromModel(m *AlertModel) *conflict.Alert {
	a := &conflict.Alert{
		ID:            m.ID,
		Type:          m.Type,
		Severity:      conflict.Severity(m.Severity),
		Message:       m.Message,
		CreatedAt:     m.CreatedAt,
		ReadAt:        m.ReadAt,
		AutoDismissMs: m.AutoDismissMs,
	}
	if m.RelatedEntities != "" {
		var related map[string]interface{}
		if err := json.Unmarshal([]byte(m.RelatedEntities), &related); err == nil {
			a.RelatedEntities = related
		}
	}
	return a
}

// Insert appends an alert to the feed
func (r *GormAlertRepository) Insert(ctx context.Context, a *conflict.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.clock.Now()
	}
	related := ""
	if len(a.RelatedEntities) > 0 {
		if data, err := json.Marshal(a.RelatedEntities); err == nil {
			related = string(data)
		}
	}
	model := &AlertModel{
		Type:            a.Type,
		Severity:        string(a.Severity),
		Message:         a.Message,
		RelatedEntities: related,
		CreatedAt:       a.CreatedAt,
		ReadAt:          a.ReadAt,
		AutoDismissMs:   a.AutoDismissMs,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.TransientStoreError("alert.insert", err)
	}
	a.ID = model.ID
	return nil
}

// Active returns unread alerts, newest first
func (r *GormAlertRepository) Active(ctx context.Context) ([]*conflict.Alert, error) {
	var models []AlertModel
	err := r.db.WithContext(ctx).
		Where("read_at IS NULL").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("alert.active", err)
	}
	out := make([]*conflict.Alert, 0, len(models))
	for i := range models {
		out = append(out, alertFromModel(&models[i]))
	}
	return out, nil
}

// MarkRead stamps the alert read; re-reading an already-read alert is a no-op
func (r *GormAlertRepository) MarkRead(ctx context.Context, id int) error {
	var model AlertModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFoundError("alert", id)
	}
	if err != nil {
		return shared.TransientStoreError("alert.markRead", err)
	}
	if model.ReadAt != nil {
		return nil
	}
	now := r.clock.Now()
	if err := r.db.WithContext(ctx).Model(&AlertModel{}).Where("id = ?", id).
		Update("read_at", now).Error; err != nil {
		return shared.TransientStoreError("alert.markRead", err)
	}
	return nil
}

// ClearAll truncates the alert feed. Administrative path only.
func (r *GormAlertRepository) ClearAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&AlertModel{}).Error; err != nil {
		return shared.TransientStoreError("alert.clearAll", err)
	}
	return nil
}
