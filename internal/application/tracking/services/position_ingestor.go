package services

import (
	"context"
	"sync"
	"time"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
	scheduleCommands "github.com/harborops/quayplan/internal/application/schedule/commands"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/position"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// etaRecomputeThreshold is the smallest projected deviation worth writing back
const etaRecomputeThreshold = 15 * time.Minute

// IngestorConfig tunes the position pipeline
type IngestorConfig struct {
	// CoalesceWindow bounds the write rate per vessel; newer samples replace
	// the pending one until the window elapses
	CoalesceWindow time.Duration
	// StaleAfter drops samples recorded too far in the past
	StaleAfter time.Duration
	// RetentionDays bounds how long raw reports are kept
	RetentionDays int
}

type pendingReport struct {
	report    *position.Report
	lastWrite time.Time
}

// PositionIngestor normalizes AIS position reports into the store, coalescing
// per vessel, and reprojects predicted arrivals from the smoothed track.
type PositionIngestor struct {
	positions position.Repository
	vessels   vessel.Repository
	schedules schedule.Repository
	berths    berth.Repository
	mediator  common.Mediator
	projector *position.Projector
	bus       *events.Bus
	clock     shared.Clock
	cfg       IngestorConfig

	mu      sync.Mutex
	pending map[int]*pendingReport
}

// NewPositionIngestor creates the pipeline
func NewPositionIngestor(
	positions position.Repository,
	vessels vessel.Repository,
	schedules schedule.Repository,
	berths berth.Repository,
	mediator common.Mediator,
	bus *events.Bus,
	clock shared.Clock,
	cfg IngestorConfig,
) *PositionIngestor {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg.CoalesceWindow <= 0 {
		cfg.CoalesceWindow = 5 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	return &PositionIngestor{
		positions: positions,
		vessels:   vessels,
		schedules: schedules,
		berths:    berths,
		mediator:  mediator,
		projector: position.NewProjector(),
		bus:       bus,
		clock:     clock,
		cfg:       cfg,
		pending:   make(map[int]*pendingReport),
	}
}

// Ingest accepts one raw report. Unknown MMSIs and stale samples are dropped
// silently; within the coalesce window the newest sample replaces the pending
// one instead of producing another write.
func (p *PositionIngestor) Ingest(ctx context.Context, r *position.Report) error {
	if r.VesselID == 0 {
		ves, err := p.vessels.FindByMMSI(ctx, r.MMSI)
		if err != nil {
			return nil // unknown MMSI, not our vessel
		}
		r.VesselID = ves.ID
	}
	now := p.clock.Now()
	if now.Sub(r.RecordedAt) > p.cfg.StaleAfter {
		return nil
	}

	p.mu.Lock()
	pend, ok := p.pending[r.VesselID]
	if ok && now.Sub(pend.lastWrite) < p.cfg.CoalesceWindow {
		if pend.report == nil || r.RecordedAt.After(pend.report.RecordedAt) {
			pend.report = r
		}
		p.mu.Unlock()
		return nil
	}
	p.pending[r.VesselID] = &pendingReport{report: nil, lastWrite: now}
	p.mu.Unlock()

	return p.write(ctx, r)
}

// IngestStatic backfills the MMSI mapping and missing dimensions from a
// static-data report. Records for vessels this port never registered are
// dropped silently.
func (p *PositionIngestor) IngestStatic(ctx context.Context, r *position.StaticRecord) error {
	ves, err := p.vessels.FindByMMSI(ctx, r.MMSI)
	if err != nil {
		if r.IMO == "" {
			return nil
		}
		ves, err = p.vessels.FindByIMO(ctx, r.IMO)
		if err != nil {
			return nil
		}
	}

	changed := false
	if ves.MMSI == nil || *ves.MMSI != r.MMSI {
		mmsi := r.MMSI
		ves.MMSI = &mmsi
		changed = true
	}
	if ves.LOA == 0 && r.LOA > 0 {
		ves.LOA = r.LOA
		changed = true
	}
	if ves.Beam == 0 && r.Beam > 0 {
		ves.Beam = r.Beam
		changed = true
	}
	if ves.Draft == 0 && r.MaxDraft > 0 {
		ves.Draft = r.MaxDraft
		changed = true
	}
	if !changed {
		return nil
	}
	return p.vessels.Save(ctx, ves)
}

// Run flushes coalesced samples and prunes old reports until the context ends
func (p *PositionIngestor) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	flush := time.NewTicker(p.cfg.CoalesceWindow)
	defer flush.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	logger.Log("INFO", "Position ingestor started", map[string]interface{}{
		"coalesceWindow": p.cfg.CoalesceWindow.String(),
		"retentionDays":  p.cfg.RetentionDays,
	})

	for {
		select {
		case <-flush.C:
			p.flushPending(ctx)
		case <-prune.C:
			removed, err := p.positions.PruneOlderThan(ctx, p.cfg.RetentionDays)
			if err != nil {
				logger.Log("WARN", "Position prune failed", map[string]interface{}{"error": err.Error()})
			} else if removed > 0 {
				logger.Log("INFO", "Pruned old position reports", map[string]interface{}{"removed": removed})
			}
		case <-ctx.Done():
			p.flushPending(context.Background())
			logger.Log("INFO", "Position ingestor stopped", nil)
			return
		}
	}
}

func (p *PositionIngestor) flushPending(ctx context.Context) {
	now := p.clock.Now()
	var due []*position.Report
	p.mu.Lock()
	for id, pend := range p.pending {
		if pend.report != nil && now.Sub(pend.lastWrite) >= p.cfg.CoalesceWindow {
			due = append(due, pend.report)
			pend.report = nil
			pend.lastWrite = now
		} else if pend.report == nil && now.Sub(pend.lastWrite) >= p.cfg.CoalesceWindow {
			delete(p.pending, id)
		}
	}
	p.mu.Unlock()

	for _, r := range due {
		_ = p.write(ctx, r)
	}
}

func (p *PositionIngestor) write(ctx context.Context, r *position.Report) error {
	// Out-of-order feed frames must not rewind the track
	latest, err := p.positions.Latest(ctx, r.VesselID)
	if err != nil {
		return err
	}
	if latest != nil && !r.RecordedAt.After(latest.RecordedAt) {
		return nil
	}
	if err := p.positions.Append(ctx, r); err != nil {
		return err
	}
	p.bus.Publish(events.TypePositionUpdated, events.PositionPayload{Report: r},
		events.RoomVessel(r.VesselID))
	p.reprojectETA(ctx, r)
	return nil
}

// reprojectETA recomputes the predicted arrival for the vessel's next
// inbound schedule and writes it back when the deviation is material
func (p *PositionIngestor) reprojectETA(ctx context.Context, r *position.Report) {
	active, err := p.schedules.ActiveForVessel(ctx, r.VesselID)
	if err != nil {
		return
	}
	var inbound *schedule.Schedule
	for _, s := range active {
		if s.Status != schedule.StatusScheduled && s.Status != schedule.StatusApproaching {
			continue
		}
		if inbound == nil || s.ETA.Before(inbound.ETA) {
			inbound = s
		}
	}
	if inbound == nil {
		return
	}

	port, ok := p.portForBerth(ctx, inbound.BerthID)
	if !ok {
		return
	}
	speeds, err := p.positions.RecentSpeeds(ctx, r.VesselID, p.projector.MaxSamples)
	if err != nil {
		return
	}
	projected, ok := p.projector.PredictETA(r, speeds, port.Lat, port.Lon)
	if !ok {
		return
	}

	delta := projected.Sub(inbound.PredictedETA)
	if delta < 0 {
		delta = -delta
	}
	if delta < etaRecomputeThreshold {
		return
	}
	_, _ = p.mediator.Send(ctx, &scheduleCommands.UpdateETACommand{
		ScheduleID: inbound.ID,
		NewETA:     projected,
		Source:     scheduleCommands.SourceAIS,
	})
}

func (p *PositionIngestor) portForBerth(ctx context.Context, berthID int) (*berth.Port, bool) {
	b, err := p.berths.FindByID(ctx, berthID)
	if err != nil {
		return nil, false
	}
	t, err := p.berths.FindTerminal(ctx, b.TerminalID)
	if err != nil {
		return nil, false
	}
	ports, err := p.berths.ListPorts(ctx)
	if err != nil {
		return nil, false
	}
	for _, port := range ports {
		if port.ID == t.PortID {
			return port, true
		}
	}
	return nil, false
}
