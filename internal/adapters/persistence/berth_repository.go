package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// GormBerthRepository implements berth, terminal, and port persistence using GORM
type GormBerthRepository struct {
	db *gorm.DB
}

// NewGormBerthRepository creates a new GORM-based berth repository
func NewGormBerthRepository(db *gorm.DB) *GormBerthRepository {
	return &GormBerthRepository{db: db}
}

var _ berth.Repository = (*GormBerthRepository)(nil)

func berthToModel(b *berth.Berth) *BerthModel {
	return &BerthModel{
		ID:                b.ID,
		TerminalID:        b.TerminalID,
		Name:              b.Name,
		Code:              b.Code,
		Length:            b.Length,
		MaxDraft:          b.MaxDraft,
		MaxLOA:            b.MaxLOA,
		MaxBeam:           b.MaxBeam,
		MaxAirDraft:       b.MaxAirDraft,
		MaxGT:             b.MaxGT,
		BerthType:         b.BerthType,
		CargoTypesAllowed: encodeStringList(b.CargoTypesAllowed),
		NumberOfCranes:    b.NumberOfCranes,
		CraneMaxOutreach:  b.CraneMaxOutreach,
		FenderCapacity:    b.FenderCapacity,
		BollardSWL:        b.BollardSWL,
		ReeferPlugs:       b.ReeferPlugs,
		DGCertified:       b.DGCertified,
		ChartedDepth:      b.ChartedDepth,
		Active:            b.Active,
	}
}

func berthFromModel(m *BerthModel) *berth.Berth {
	return &berth.Berth{
		ID:                m.ID,
		TerminalID:        m.TerminalID,
		Name:              m.Name,
		Code:              m.Code,
		Length:            m.Length,
		MaxDraft:          m.MaxDraft,
		MaxLOA:            m.MaxLOA,
		MaxBeam:           m.MaxBeam,
		MaxAirDraft:       m.MaxAirDraft,
		MaxGT:             m.MaxGT,
		BerthType:         m.BerthType,
		CargoTypesAllowed: decodeStringList(m.CargoTypesAllowed),
		NumberOfCranes:    m.NumberOfCranes,
		CraneMaxOutreach:  m.CraneMaxOutreach,
		FenderCapacity:    m.FenderCapacity,
		BollardSWL:        m.BollardSWL,
		ReeferPlugs:       m.ReeferPlugs,
		DGCertified:       m.DGCertified,
		ChartedDepth:      m.ChartedDepth,
		Active:            m.Active,
	}
}

// Save inserts or updates a berth, writing the generated id back
func (r *GormBerthRepository) Save(ctx context.Context, b *berth.Berth) error {
	model := berthToModel(b)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("berth.save", err)
	}
	b.ID = model.ID
	return nil
}

// FindByID retrieves a berth by id
func (r *GormBerthRepository) FindByID(ctx context.Context, id int) (*berth.Berth, error) {
	var model BerthModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("berth", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("berth.find", err)
	}
	return berthFromModel(&model), nil
}

// FindByCode retrieves a berth by its unique code
func (r *GormBerthRepository) FindByCode(ctx context.Context, code string) (*berth.Berth, error) {
	var model BerthModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("berth", code)
	}
	if err != nil {
		return nil, shared.TransientStoreError("berth.find", err)
	}
	return berthFromModel(&model), nil
}

// ListActive returns all berths open for allocation
func (r *GormBerthRepository) ListActive(ctx context.Context) ([]*berth.Berth, error) {
	var models []BerthModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("berth.list", err)
	}
	return berthsFromModels(models), nil
}

// ListByTerminal returns all berths of a terminal
func (r *GormBerthRepository) ListByTerminal(ctx context.Context, terminalID int) ([]*berth.Berth, error) {
	var models []BerthModel
	if err := r.db.WithContext(ctx).Where("terminal_id = ?", terminalID).Order("id").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("berth.list", err)
	}
	return berthsFromModels(models), nil
}

// ListCompatible returns active berths satisfying length >= loa and maxDraft >= draft
func (r *GormBerthRepository) ListCompatible(ctx context.Context, loa, draft float64) ([]*berth.Berth, error) {
	var models []BerthModel
	err := r.db.WithContext(ctx).
		Where("active = ? AND length >= ? AND max_draft >= ?", true, loa, draft).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("berth.listCompatible", err)
	}
	return berthsFromModels(models), nil
}

func berthsFromModels(models []BerthModel) []*berth.Berth {
	out := make([]*berth.Berth, 0, len(models))
	for i := range models {
		out = append(out, berthFromModel(&models[i]))
	}
	return out
}

// SaveTerminal inserts or updates a terminal
func (r *GormBerthRepository) SaveTerminal(ctx context.Context, t *berth.Terminal) error {
	model := &TerminalModel{ID: t.ID, PortID: t.PortID, Name: t.Name, Code: t.Code}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("terminal.save", err)
	}
	t.ID = model.ID
	return nil
}

// ListTerminals returns all terminals
func (r *GormBerthRepository) ListTerminals(ctx context.Context) ([]*berth.Terminal, error) {
	var models []TerminalModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("terminal.list", err)
	}
	out := make([]*berth.Terminal, 0, len(models))
	for _, m := range models {
		out = append(out, &berth.Terminal{ID: m.ID, PortID: m.PortID, Name: m.Name, Code: m.Code})
	}
	return out, nil
}

// FindTerminal retrieves a terminal by id
func (r *GormBerthRepository) FindTerminal(ctx context.Context, id int) (*berth.Terminal, error) {
	var m TerminalModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("terminal", id)
	}
	if err != nil {
		return nil, shared.TransientStoreError("terminal.find", err)
	}
	return &berth.Terminal{ID: m.ID, PortID: m.PortID, Name: m.Name, Code: m.Code}, nil
}

// SavePort inserts or updates a port
func (r *GormBerthRepository) SavePort(ctx context.Context, p *berth.Port) error {
	model := &PortModel{ID: p.ID, Code: p.Code, Name: p.Name, Lat: p.Lat, Lon: p.Lon}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("port.save", err)
	}
	p.ID = model.ID
	return nil
}

// ListPorts returns all ports
func (r *GormBerthRepository) ListPorts(ctx context.Context) ([]*berth.Port, error) {
	var models []PortModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, shared.TransientStoreError("port.list", err)
	}
	out := make([]*berth.Port, 0, len(models))
	for _, m := range models {
		out = append(out, &berth.Port{ID: m.ID, Code: m.Code, Name: m.Name, Lat: m.Lat, Lon: m.Lon})
	}
	return out, nil
}

// FindPortByCode retrieves a port by its code
func (r *GormBerthRepository) FindPortByCode(ctx context.Context, code string) (*berth.Port, error) {
	var m PortModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NotFoundError("port", code)
	}
	if err != nil {
		return nil, shared.TransientStoreError("port.find", err)
	}
	return &berth.Port{ID: m.ID, Code: m.Code, Name: m.Name, Lat: m.Lat, Lon: m.Lon}, nil
}

// GormMaintenanceRepository implements maintenance window persistence
type GormMaintenanceRepository struct {
	db *gorm.DB
}

// NewGormMaintenanceRepository creates a new GORM-based maintenance repository
func NewGormMaintenanceRepository(db *gorm.DB) *GormMaintenanceRepository {
	return &GormMaintenanceRepository{db: db}
}

var _ berth.MaintenanceRepository = (*GormMaintenanceRepository)(nil)

// Save inserts or updates a maintenance window
func (r *GormMaintenanceRepository) Save(ctx context.Context, w *berth.MaintenanceWindow) error {
	model := &MaintenanceWindowModel{
		ID:      w.ID,
		BerthID: w.BerthID,
		Start:   w.Start,
		End:     w.End,
		Status:  string(w.Status),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.TransientStoreError("maintenance.save", err)
	}
	w.ID = model.ID
	return nil
}

// BlockingForBerth returns windows that still remove capacity and overlap [from, to)
func (r *GormMaintenanceRepository) BlockingForBerth(ctx context.Context, berthID int, from, to time.Time) ([]*berth.MaintenanceWindow, error) {
	var models []MaintenanceWindowModel
	err := r.db.WithContext(ctx).
		Where("berth_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			berthID,
			[]string{string(berth.MaintenanceScheduled), string(berth.MaintenanceInProgress)},
			to, from).
		Order("start_time").
		Find(&models).Error
	if err != nil {
		return nil, shared.TransientStoreError("maintenance.list", err)
	}
	out := make([]*berth.MaintenanceWindow, 0, len(models))
	for _, m := range models {
		out = append(out, &berth.MaintenanceWindow{
			ID:      m.ID,
			BerthID: m.BerthID,
			Start:   m.Start,
			End:     m.End,
			Status:  berth.MaintenanceStatus(m.Status),
		})
	}
	return out, nil
}
