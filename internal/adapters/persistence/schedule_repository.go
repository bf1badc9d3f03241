package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// terminalStatuses are excluded from every overlap and active-schedule query
var terminalStatuses = []string{string(schedule.StatusDeparted), string(schedule.StatusCancelled)}

// GormScheduleRepository implements schedule persistence using GORM.
// Writes that must respect berth exclusivity run inside a transaction
// holding an overlap re-check, so racing allocators serialize here.
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GORM-based schedule repository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

var _ schedule.Repository = (*GormScheduleRepository)(nil)

func scheduleToModel(s *schedule.Schedule) *ScheduleModel {
	return &ScheduleModel{
		ID:                s.ID,
		VesselID:          s.VesselID,
		BerthID:           s.BerthID,
		ETA:               s.ETA,
		PredictedETA:      s.PredictedETA,
		ETD:               s.ETD,
		ATA:               s.ATA,
		ATB:               s.ATB,
		ATD:               s.ATD,
		Status:            string(s.Status),
		DwellMinutes:      s.DwellMinutes,
		WaitingMinutes:    s.WaitingMinutes,
		OptimizationScore: s.OptimizationScore,
		PriorityWeight:    s.PriorityWeight,
		Notes:             s.Notes,
	}
}

func scheduleFromModel(m *ScheduleModel) *schedule.Schedule {
	return &schedule.Schedule{
		ID:                m.ID,
		VesselID:          m.VesselID,
		BerthID:           m.BerthID,
		ETA:               m.ETA,
		PredictedETA:      m.PredictedETA,
		ETD:               m.ETD,
		ATA:               m.ATA,
		ATB:               m.ATB,
		ATD:               m.ATD,
		Status:            schedule.Status(m.Status),
		DwellMinutes:      m.DwellMinutes,
		WaitingMinutes:    m.WaitingMinutes,
		OptimizationScore: m.OptimizationScore,
		PriorityWeight:    m.PriorityWeight,
		Notes:             m.Notes,
	}
}

func schedulesFromModels(models []ScheduleModel) []*schedule.Schedule {
	out := make([]*schedule.Schedule, 0, len(models))
	for i := range models {
		out = append(out, scheduleFromModel(&models[i]))
	}
	return out
}

// overlappingTx finds non-terminal schedules on the berth intersecting the
// half-open window [from, to), excluding excludeID when non-zero.
func overlappingTx(tx *gorm.DB, berthID int, from, to time.Time, excludeID int) ([]ScheduleModel, error) {
	var models []ScheduleModel
	q := tx.Where("berth_id = ? AND eta < ? AND etd > ? AND status NOT IN ?", berthID, to, from, terminalStatuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("eta").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func createTx(tx *gorm.DB, s *schedule.Schedule) error {
	conflicts, err := overlappingTx(tx, s.BerthID, s.ETA, s.ETD, s.ID)
	if err != nil {
		return shared.TransientStoreError("schedule.overlapCheck", err)
	}
	if len(conflicts) > 0 {
		ids := make([]int, 0, len(conflicts))
		for _, c := range conflicts {
			ids = append(ids, c.ID)
		}
		return shared.TimeConflictError(ids)
	}
	model := scheduleToModel(s)
	if err := tx.Create(model).Error; err != nil {
		return shared.TransientStoreError("schedule.create", err)
	}
	s.ID = model.ID
	return nil
}

// Create inserts a new schedule after re-checking berth exclusivity inside
// the same transaction. Overlap yields a TimeConflict error carrying the
// conflicting schedule ids.
func (r *GormScheduleRepository) Create(ctx context.Context, s *schedule.Schedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createTx(tx, s)
	})
}

// Update persists the full schedule row
func (r *GormScheduleRepository) Update(ctx context.Context, s *schedule.Schedule) error {
	model := scheduleToModel(s)
	res := r.db.WithContext(ctx).Model(&ScheduleModel{}).Where("id = ?", s.ID).Select("*").Omit("id").Updates(model)
	if res.Error != nil {
		return shared.TransientStoreError("schedule.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFoundError("schedule", s.ID)
	}
	return nil
}

// FindByID retrieves a schedule by id
func (r *GormScheduleRepository) FindByID(ctx context.Context, id int) (*schedule.Schedule, error) {
	var model ScheduleModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("schedule", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("schedule.find", err)
	}
	return scheduleFromModel(&model), nil
}

// Overlapping returns non-terminal schedules on the berth intersecting [from, to)
func (r *GormScheduleRepository) Overlapping(ctx context.Context, berthID int, from, to time.Time, excludeID int) ([]*schedule.Schedule, error) {
	models, err := overlappingTx(r.db.WithContext(ctx), berthID, from, to, excludeID)
	if err != nil {
		return nil, shared.TransientStoreError("schedule.overlapping", err)
	}
	return schedulesFromModels(models), nil
}

// ActiveForBerth returns non-terminal schedules on the berth ordered by eta
func (r *GormScheduleRepository) ActiveForBerth(ctx context.Context, berthID int) ([]*schedule.Schedule, error) {
	var models []ScheduleModel
	err := r.db.WithContext(ctx).
		Where("berth_id = ? AND status NOT IN ?", berthID, terminalStatuses).
		Order("eta").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("schedule.activeForBerth", err)
	}
	return schedulesFromModels(models), nil
}

// ActiveForVessel returns non-terminal schedules of the vessel ordered by eta
func (r *GormScheduleRepository) ActiveForVessel(ctx context.Context, vesselID int) ([]*schedule.Schedule, error) {
	var models []ScheduleModel
	err := r.db.WithContext(ctx).
		Where("vessel_id = ? AND status NOT IN ?", vesselID, terminalStatuses).
		Order("eta").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("schedule.activeForVessel", err)
	}
	return schedulesFromModels(models), nil
}

// Active returns all non-terminal schedules, optionally scoped to a terminal
// via the berth join. terminalID 0 means every terminal.
func (r *GormScheduleRepository) Active(ctx context.Context, terminalID int) ([]*schedule.Schedule, error) {
	var models []ScheduleModel
	q := r.db.WithContext(ctx).Where("schedules.status NOT IN ?", terminalStatuses)
	if terminalID != 0 {
		q = q.Joins("JOIN berths ON berths.id = schedules.berth_id").
			Where("berths.terminal_id = ?", terminalID)
	}
	if err := q.Order("schedules.eta").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("schedule.active", err)
	}
	return schedulesFromModels(models), nil
}

// Reschedule cancels the schedule and creates its replacement in one
// transaction, re-checking exclusivity at the new berth and window.
func (r *GormScheduleRepository) Reschedule(ctx context.Context, scheduleID int, newBerthID int, newEta, newEtd time.Time) (*schedule.Schedule, error) {
	var created *schedule.Schedule
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old ScheduleModel
		if err := tx.First(&old, scheduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NotFoundError("schedule", scheduleID)
			}
			return shared.TransientStoreError("schedule.find", err)
		}
		prev := scheduleFromModel(&old)
		if err := prev.Cancel(); err != nil {
			return err
		}
		if err := tx.Model(&ScheduleModel{}).Where("id = ?", scheduleID).
			Update("status", string(prev.Status)).Error; err != nil {
			return shared.TransientStoreError("schedule.cancel", err)
		}
		next, err := schedule.NewSchedule(prev.VesselID, newBerthID, newEta, newEtd, prev.PriorityWeight)
		if err != nil {
			return err
		}
		next.Notes = prev.Notes
		if err := createTx(tx, next); err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ClearAll truncates all schedules. Administrative path only.
func (r *GormScheduleRepository) ClearAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&ScheduleModel{}).Error; err != nil {
		return shared.TransientStoreError("schedule.clearAll", err)
	}
	return nil
}

// GormHistoryRepository implements departure-history persistence
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GORM-based history repository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

var _ schedule.HistoryRepository = (*GormHistoryRepository)(nil)

// Append inserts one per-departure performance row
func (r *GormHistoryRepository) Append(ctx context.Context, h *schedule.History) error {
	model := &VesselHistoryModel{
		ID:                 h.ID,
		VesselID:           h.VesselID,
		BerthID:            h.BerthID,
		ScheduleID:         h.ScheduleID,
		ArrivedAt:          h.ArrivedAt,
		BerthedAt:          h.BerthedAt,
		DepartedAt:         h.DepartedAt,
		ActualDwellMinutes: h.ActualDwellMinutes,
		WaitingMinutes:     h.WaitingMinutes,
		EtaAccuracyPercent: h.EtaAccuracyPercent,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.TransientStoreError("history.append", err)
	}
	h.ID = model.ID
	return nil
}

// StatsForVessel aggregates visit count and mean ETA accuracy.
// A vessel with no history yields zero visits, not an error.
func (r *GormHistoryRepository) StatsForVessel(ctx context.Context, vesselID int) (*schedule.HistoryStats, error) {
	var row struct {
		Visits int
		AvgAcc *float64
	}
	err := r.db.WithContext(ctx).Model(&VesselHistoryModel{}).
		Select("COUNT(*) AS visits, AVG(eta_accuracy_percent) AS avg_acc").
		Where("vessel_id = ?", vesselID).
		Scan(&row).Error
	if err != nil {
		return nil, shared.TransientStoreError("history.stats", err)
	}
	stats := &schedule.HistoryStats{Visits: row.Visits}
	if row.AvgAcc != nil {
		stats.AvgEtaAccuracy = *row.AvgAcc
	}
	return stats, nil
}
