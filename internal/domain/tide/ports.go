package tide

import (
	"context"
	"time"
)

// Repository persists the tide time-series per port
type Repository interface {
	Save(ctx context.Context, r *Reading) error
	// Range returns samples with tideTime in [from, to) ordered ascending
	Range(ctx context.Context, portID int, from, to time.Time) ([]*Reading, error)
	// NearestTo returns the sample closest in time to t, nil when the series is empty
	NearestTo(ctx context.Context, portID int, t time.Time) (*Reading, error)
}
