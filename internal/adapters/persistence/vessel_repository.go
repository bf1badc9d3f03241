package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// GormVesselRepository implements vessel persistence using GORM
type GormVesselRepository struct {
	db *gorm.DB
}

// NewGormVesselRepository creates a new GORM-based vessel repository
func NewGormVesselRepository(db *gorm.DB) *GormVesselRepository {
	return &GormVesselRepository{db: db}
}

var _ vessel.Repository = (*GormVesselRepository)(nil)

func vesselToModel(v *vessel.Vessel) *VesselModel {
	return &VesselModel{
		ID:            v.ID,
		Name:          v.Name,
		IMO:           v.IMO,
		MMSI:          v.MMSI,
		Type:          string(v.Type),
		LOA:           v.LOA,
		Beam:          v.Beam,
		Draft:         v.Draft,
		AirDraft:      v.AirDraft,
		GrossTonnage:  v.GrossTonnage,
		CargoType:     v.CargoType,
		CargoVolume:   v.CargoVolume,
		PriorityClass: string(v.PriorityClass),
		HazmatClass:   v.HazmatClass,
		ReeferDemand:  v.ReeferDemand,
	}
}

func vesselFromModel(m *VesselModel) *vessel.Vessel {
	return &vessel.Vessel{
		ID:            m.ID,
		Name:          m.Name,
		IMO:           m.IMO,
		MMSI:          m.MMSI,
		Type:          vessel.Type(m.Type),
		LOA:           m.LOA,
		Beam:          m.Beam,
		Draft:         m.Draft,
		AirDraft:      m.AirDraft,
		GrossTonnage:  m.GrossTonnage,
		CargoType:     m.CargoType,
		CargoVolume:   m.CargoVolume,
		PriorityClass: vessel.PriorityClass(m.PriorityClass),
		HazmatClass:   m.HazmatClass,
		ReeferDemand:  m.ReeferDemand,
	}
}

// Save inserts or updates a vessel, writing the generated id back
func (r *GormVesselRepository) Save(ctx context.Context, v *vessel.Vessel) error {
	model := vesselToModel(v)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("vessel.save", err)
	}
	v.ID = model.ID
	return nil
}

// FindByID retrieves a vessel by surrogate id
func (r *GormVesselRepository) FindByID(ctx context.Context, id int) (*vessel.Vessel, error) {
	var model VesselModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("vessel", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("vessel.find", err)
	}
	return vesselFromModel(&model), nil
}

// FindByIMO retrieves a vessel by its IMO number
func (r *GormVesselRepository) FindByIMO(ctx context.Context, imo string) (*vessel.Vessel, error) {
	var model VesselModel
	err := r.db.WithContext(ctx).Where("imo = ?", imo).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("vessel", imo)
	}
	if err != nil {
		return nil, shared.TransientStoreError("vessel.find", err)
	}
	return vesselFromModel(&model), nil
}

// FindByMMSI retrieves a vessel by its radio identifier
func (r *GormVesselRepository) FindByMMSI(ctx context.Context, mmsi string) (*vessel.Vessel, error) {
	var model VesselModel
	err := r.db.WithContext(ctx).Where("mmsi = ?", mmsi).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("vessel", mmsi)
	}
	if err != nil {
		return nil, shared.TransientStoreError("vessel.find", err)
	}
	return vesselFromModel(&model), nil
}

// List returns all vessels ordered by id
func (r *GormVesselRepository) List(ctx context.Context) ([]*vessel.Vessel, error) {
	var models []VesselModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("vessel.list", err)
	}
	out := make([]*vessel.Vessel, 0, len(models))
	for i := range models {
		out = append(out, vesselFromModel(&models[i]))
	}
	return out, nil
}

func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
