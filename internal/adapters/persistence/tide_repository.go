package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
)

// GormTideRepository implements the tide time-series store using GORM
type GormTideRepository struct {
	db *gorm.DB
}

// NewGormTideRepository creates a new GORM-based tide repository
func NewGormTideRepository(db *gorm.DB) *GormTideRepository {
	return &GormTideRepository{db: db}
}

var _ tide.Repository = (*GormTideRepository)(nil)

func tideFromModel(m *TidalReadingModel) *tide.Reading {
	return &tide.Reading{
		ID:           m.ID,
		PortID:       m.PortID,
		TideTime:     m.TideTime,
		Type:         tide.ReadingType(m.Type),
		HeightMeters: m.HeightMeters,
	}
}

// Save inserts or updates a tide extreme
func (r *GormTideRepository) Save(ctx context.Context, reading *tide.Reading) error {
	model := &TidalReadingModel{
		ID:           reading.ID,
		PortID:       reading.PortID,
		TideTime:     reading.TideTime,
		Type:         string(reading.Type),
		HeightMeters: reading.HeightMeters,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("tide.save", err)
	}
	reading.ID = model.ID
	return nil
}

// Range returns samples with tideTime in [from, to) ordered ascending
func (r *GormTideRepository) Range(ctx context.Context, portID int, from, to time.Time) ([]*tide.Reading, error) {
	var models []TidalReadingModel
	err := r.db.WithContext(ctx).
		Where("port_id = ? AND tide_time >= ? AND tide_time < ?", portID, from, to).
		Order("tide_time").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("tide.range", err)
	}
	out := make([]*tide.Reading, 0, len(models))
	for i := range models {
		out = append(out, tideFromModel(&models[i]))
	}
	return out, nil
}

// NearestTo returns the sample closest in time to t, nil when the series is empty
func (r *GormTideRepository) NearestTo(ctx context.Context, portID int, t time.Time) (*tide.Reading, error) {
	var before, after TidalReadingModel
	errBefore := r.db.WithContext(ctx).
		Where("port_id = ? AND tide_time <= ?", portID, t).
		Order("tide_time DESC").
		First(&before).Error
	errAfter := r.db.WithContext(ctx).
		Where("port_id = ? AND tide_time > ?", portID, t).
		Order("tide_time").
		First(&after).Error

	haveBefore := errBefore == nil
	haveAfter := errAfter == nil
	if errBefore != nil && !errors.Is(errBefore, gorm.ErrRecordNotFound) {
		return nil, shared.TransientStoreError("tide.nearest", errBefore)
	}
	if errAfter != nil && !errors.Is(errAfter, gorm.ErrRecordNotFound) {
		return nil, shared.TransientStoreError("tide.nearest", errAfter)
	}
	switch {
	case haveBefore && haveAfter:
		if t.Sub(before.TideTime) <= after.TideTime.Sub(t) {
			return tideFromModel(&before), nil
		}
		return tideFromModel(&after), nil
	case haveBefore:
		return tideFromModel(&before), nil
	case haveAfter:
		return tideFromModel(&after), nil
	default:
		return nil, nil
	}
}
