package berth

import (
	"context"
	"time"
)

// Repository persists berths, terminals, and ports
type Repository interface {
	Save(ctx context.Context, b *Berth) error
	FindByID(ctx context.Context, id int) (*Berth, error)
	FindByCode(ctx context.Context, code string) (*Berth, error)
	ListActive(ctx context.Context) ([]*Berth, error)
	ListByTerminal(ctx context.Context, terminalID int) ([]*Berth, error)
	// ListCompatible returns active berths with length >= loa and maxDraft >= draft
	ListCompatible(ctx context.Context, loa, draft float64) ([]*Berth, error)

	SaveTerminal(ctx context.Context, t *Terminal) error
	ListTerminals(ctx context.Context) ([]*Terminal, error)
	FindTerminal(ctx context.Context, id int) (*Terminal, error)

	SavePort(ctx context.Context, p *Port) error
	ListPorts(ctx context.Context) ([]*Port, error)
	FindPortByCode(ctx context.Context, code string) (*Port, error)
}

// MaintenanceRepository persists berth maintenance windows
type MaintenanceRepository interface {
	Save(ctx context.Context, w *MaintenanceWindow) error
	// BlockingForBerth returns non-cancelled, non-completed windows overlapping [from, to)
	BlockingForBerth(ctx context.Context, berthID int, from, to time.Time) ([]*MaintenanceWindow, error)
}
