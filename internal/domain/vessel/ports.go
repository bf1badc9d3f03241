package vessel

import "context"

// Repository persists vessel records
type Repository interface {
	Save(ctx context.Context, v *Vessel) error
	FindByID(ctx context.Context, id int) (*Vessel, error)
	FindByIMO(ctx context.Context, imo string) (*Vessel, error)
	FindByMMSI(ctx context.Context, mmsi string) (*Vessel, error)
	List(ctx context.Context) ([]*Vessel, error)
}
