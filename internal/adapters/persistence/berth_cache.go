package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/shared"
)

// berthSnapshot is one cached read of the active berth set, indexed for
// point lookups.
type berthSnapshot struct {
	takenAt time.Time
	active  []*berth.Berth
	byID    map[int]*berth.Berth
	byCode  map[string]*berth.Berth
}

// CachedBerthRepository decorates a berth.Repository with a short-TTL read
// cache over the active berth set. Berth reference data changes orders of
// magnitude less often than the suggestion path reads it, so a single
// snapshot guarded by an RWMutex covers the hot lookups. Writes through
// this decorator invalidate the snapshot; point lookups that miss the
// snapshot (inactive berths) fall through to the inner repository.
// Terminal and port methods pass through uncached.
type CachedBerthRepository struct {
	inner berth.Repository
	clock shared.Clock
	ttl   time.Duration

	mu   sync.RWMutex
	snap *berthSnapshot
}

func NewCachedBerthRepository(inner berth.Repository, clock shared.Clock, ttl time.Duration) *CachedBerthRepository {
	return &CachedBerthRepository{inner: inner, clock: clock, ttl: ttl}
}

func (r *CachedBerthRepository) snapshot(ctx context.Context) (*berthSnapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()
	if snap != nil && r.clock.Now().Sub(snap.takenAt) < r.ttl {
		return snap, nil
	}

	active, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	snap = &berthSnapshot{
		takenAt: r.clock.Now(),
		active:  active,
		byID:    make(map[int]*berth.Berth, len(active)),
		byCode:  make(map[string]*berth.Berth, len(active)),
	}
	for _, b := range active {
		snap.byID[b.ID] = b
		snap.byCode[b.Code] = b
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	return snap, nil
}

func (r *CachedBerthRepository) invalidate() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}

func (r *CachedBerthRepository) Save(ctx context.Context, b *berth.Berth) error {
	if err := r.inner.Save(ctx, b); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

func (r *CachedBerthRepository) FindByID(ctx context.Context, id int) (*berth.Berth, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := snap.byID[id]; ok {
		return b, nil
	}
	// Inactive berths are absent from the snapshot but still addressable.
	return r.inner.FindByID(ctx, id)
}

func (r *CachedBerthRepository) FindByCode(ctx context.Context, code string) (*berth.Berth, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := snap.byCode[code]; ok {
		return b, nil
	}
	return r.inner.FindByCode(ctx, code)
}

func (r *CachedBerthRepository) ListActive(ctx context.Context) ([]*berth.Berth, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.active, nil
}

func (r *CachedBerthRepository) ListByTerminal(ctx context.Context, terminalID int) ([]*berth.Berth, error) {
	return r.inner.ListByTerminal(ctx, terminalID)
}

// ListCompatible filters the cached snapshot with the same predicate the
// store query applies: active, length >= loa, maxDraft >= draft, id order.
func (r *CachedBerthRepository) ListCompatible(ctx context.Context, loa, draft float64) ([]*berth.Berth, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []*berth.Berth
	for _, b := range snap.active {
		if b.Length >= loa && b.MaxDraft >= draft {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *CachedBerthRepository) SaveTerminal(ctx context.Context, t *berth.Terminal) error {
	return r.inner.SaveTerminal(ctx, t)
}

func (r *CachedBerthRepository) ListTerminals(ctx context.Context) ([]*berth.Terminal, error) {
	return r.inner.ListTerminals(ctx)
}

func (r *CachedBerthRepository) FindTerminal(ctx context.Context, id int) (*berth.Terminal, error) {
	return r.inner.FindTerminal(ctx, id)
}

func (r *CachedBerthRepository) SavePort(ctx context.Context, p *berth.Port) error {
	return r.inner.SavePort(ctx, p)
}

func (r *CachedBerthRepository) ListPorts(ctx context.Context) ([]*berth.Port, error) {
	return r.inner.ListPorts(ctx)
}

func (r *CachedBerthRepository) FindPortByCode(ctx context.Context, code string) (*berth.Port, error) {
	return r.inner.FindPortByCode(ctx, code)
}
