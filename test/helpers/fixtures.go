package helpers

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// Ptr returns a pointer to v, for the optional entity fields
func Ptr[T any](v T) *T {
	return &v
}

// SeedPort persists a port with a terminal and returns both
func SeedPort(t *testing.T, db *gorm.DB, code string) (*berth.Port, *berth.Terminal) {
	t.Helper()
	repo := persistence.NewGormBerthRepository(db)
	port := &berth.Port{Code: code, Name: code + " test port", Lat: 51.95, Lon: 4.05}
	if err := repo.SavePort(context.Background(), port); err != nil {
		t.Fatalf("failed to seed port: %v", err)
	}
	terminal := &berth.Terminal{PortID: port.ID, Name: "Terminal 1", Code: code + "-T1"}
	if err := repo.SaveTerminal(context.Background(), terminal); err != nil {
		t.Fatalf("failed to seed terminal: %v", err)
	}
	return port, terminal
}

// SeedBerth persists a berth on the terminal
func SeedBerth(t *testing.T, db *gorm.DB, terminalID int, code string, length, maxDraft float64, berthType string) *berth.Berth {
	t.Helper()
	repo := persistence.NewGormBerthRepository(db)
	b, err := berth.NewBerth(terminalID, "Berth "+code, code, length, maxDraft, berthType)
	if err != nil {
		t.Fatalf("invalid berth fixture: %v", err)
	}
	if err := repo.Save(context.Background(), b); err != nil {
		t.Fatalf("failed to seed berth: %v", err)
	}
	return b
}

// SeedVessel persists a container vessel with the given dimensions
func SeedVessel(t *testing.T, db *gorm.DB, name string, loa, beam, draft float64) *vessel.Vessel {
	t.Helper()
	repo := persistence.NewGormVesselRepository(db)
	v, err := vessel.NewVessel(name, vessel.TypeContainer, loa, beam, draft, "CONTAINER", vessel.PriorityFCFS)
	if err != nil {
		t.Fatalf("invalid vessel fixture: %v", err)
	}
	if err := repo.Save(context.Background(), v); err != nil {
		t.Fatalf("failed to seed vessel: %v", err)
	}
	return v
}
