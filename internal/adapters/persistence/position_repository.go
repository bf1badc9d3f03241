package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/position"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// GormPositionRepository implements the append-only position store using GORM
type GormPositionRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormPositionRepository creates a new GORM-based position repository
func NewGormPositionRepository(db *gorm.DB, clock shared.Clock) *GormPositionRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormPositionRepository{db: db, clock: clock}
}

var _ position.Repository = (*GormPositionRepository)(nil)

func positionFromModel(m *PositionReportModel) *position.Report {
	return &position.Report{
		ID:         m.ID,
		VesselID:   m.VesselID,
		MMSI:       m.MMSI,
		Lat:        m.Lat,
		Lon:        m.Lon,
		SOGKnots:   m.SOGKnots,
		COGDegrees: m.COGDegrees,
		Heading:    m.Heading,
		NavStatus:  m.NavStatus,
		RecordedAt: m.RecordedAt,
		IngestedAt: m.IngestedAt,
	}
}

// Append inserts one position report, stamping ingestion time if unset
func (r *GormPositionRepository) Append(ctx context.Context, report *position.Report) error {
	if report.IngestedAt.IsZero() {
		report.IngestedAt = r.clock.Now()
	}
	model := &PositionReportModel{
		VesselID:   report.VesselID,
		MMSI:       report.MMSI,
		Lat:        report.Lat,
		Lon:        report.Lon,
		SOGKnots:   report.SOGKnots,
		COGDegrees: report.COGDegrees,
		Heading:    report.Heading,
		NavStatus:  report.NavStatus,
		RecordedAt: report.RecordedAt,
		IngestedAt: report.IngestedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.TransientStoreError("position.append", err)
	}
	report.ID = model.ID
	return nil
}

// Latest returns the newest report for a vessel, nil when none exists
func (r *GormPositionRepository) Latest(ctx context.Context, vesselID int) (*position.Report, error) {
	var model PositionReportModel
	err := r.db.WithContext(ctx).
		Where("vessel_id = ?", vesselID).
		Order("recorded_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.TransientStoreError("position.latest", err)
	}
	return positionFromModel(&model), nil
}

// RecentSpeeds returns up to n speed-over-ground samples, oldest first
func (r *GormPositionRepository) RecentSpeeds(ctx context.Context, vesselID int, n int) ([]float64, error) {
	var models []PositionReportModel
	err := r.db.WithContext(ctx).
		Select("sog_knots", "recorded_at").
		Where("vessel_id = ?", vesselID).
		Order("recorded_at DESC").
		Limit(n).
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("position.recentSpeeds", err)
	}
	// newest-first from the query; the smoother wants oldest-first
	out := make([]float64, len(models))
	for i := range models {
		out[len(models)-1-i] = models[i].SOGKnots
	}
	return out, nil
}

// PruneOlderThan removes reports past the retention window, returning the count
func (r *GormPositionRepository) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := r.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	res := r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&PositionReportModel{})
	if res.Error != nil {
		return 0, shared.TransientStoreError("position.prune", res.Error)
	}
	return res.RowsAffected, nil
}
