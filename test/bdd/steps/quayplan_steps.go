package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
	"gorm.io/gorm"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	monitoringServices "github.com/harborops/quayplan/internal/application/monitoring/services"
	planningCommands "github.com/harborops/quayplan/internal/application/planning/commands"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/application/planning/types"
	scheduleCommands "github.com/harborops/quayplan/internal/application/schedule/commands"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/internal/infrastructure/database"
)

// quayPlanContext wires a full planning stack over an in-memory store for
// one scenario at a time
type quayPlanContext struct {
	db    *gorm.DB
	clock *shared.MockClock
	bus   *events.Bus

	vesselRepo   *persistence.GormVesselRepository
	berthRepo    *persistence.GormBerthRepository
	scheduleRepo *persistence.GormScheduleRepository
	tideRepo     *persistence.GormTideRepository
	conflictRepo *persistence.GormConflictRepository
	alertRepo    *persistence.GormAlertRepository

	engine     *planningServices.SuggestionEngine
	allocator  *planningCommands.AllocateBerthHandler
	etaHandler *scheduleCommands.UpdateETAHandler
	detector   *monitoringServices.ConflictDetector

	port      *berth.Port
	berths    map[string]*berth.Berth
	vessels   map[string]*vessel.Vessel
	schedules map[string]*schedule.Schedule
	terminal  *berth.Terminal

	suggestions      []*types.BerthSuggestionDTO
	allocResp        *planningCommands.AllocateBerthResponse
	lastErr          error
	watched          *schedule.Schedule
	etd              time.Time
	alertCountBefore int
}

func (q *quayPlanContext) reset() error {
	if q.db != nil {
		_ = database.Close(q.db)
	}
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("test database: %w", err)
	}
	q.db = db
	q.clock = shared.NewMockClock(time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC))
	q.bus = events.NewBus(16, q.clock)

	q.vesselRepo = persistence.NewGormVesselRepository(db)
	q.berthRepo = persistence.NewGormBerthRepository(db)
	q.scheduleRepo = persistence.NewGormScheduleRepository(db)
	q.tideRepo = persistence.NewGormTideRepository(db)
	q.conflictRepo = persistence.NewGormConflictRepository(db, q.clock)
	q.alertRepo = persistence.NewGormAlertRepository(db, q.clock)
	maintenanceRepo := persistence.NewGormMaintenanceRepository(db)
	resourceRepo := persistence.NewGormResourceRepository(db)
	historyRepo := persistence.NewGormHistoryRepository(db)

	ctx := context.Background()
	pull := 60.0
	if err := resourceRepo.Save(ctx, &resource.Resource{Kind: resource.KindPilot, Name: "Pilot 1", IsAvailable: true}); err != nil {
		return err
	}
	if err := resourceRepo.Save(ctx, &resource.Resource{Kind: resource.KindTug, Name: "Tug 1", BollardPull: &pull, IsAvailable: true}); err != nil {
		return err
	}

	ukc := planning.UKCConfig{DefaultMeters: 1.5, LargeMeters: 2.0, VLCCMeters: 2.5}
	weights := planning.Weights{PhysicalFit: 25, TypeMatch: 20, WaitingTime: 20, CraneAdequacy: 15, History: 10, Tidal: 10}
	validator := planning.NewValidator(ukc, planning.DefaultWeatherLimits())
	envBuilder := planningServices.NewEnvironmentBuilder(q.scheduleRepo, maintenanceRepo, resourceRepo, q.tideRepo, nil)
	buffer := planningServices.BufferPolicy(func(vessel.Type) time.Duration { return 0 })
	planner := planningServices.NewResolutionPlanner(q.berthRepo, q.scheduleRepo, buffer)

	q.engine = planningServices.NewSuggestionEngine(
		q.vesselRepo, q.berthRepo, q.scheduleRepo, maintenanceRepo, historyRepo, q.tideRepo,
		envBuilder, validator, weights, ukc, buffer, 14*24*time.Hour, q.clock)
	q.allocator = planningCommands.NewAllocateBerthHandler(
		q.vesselRepo, q.berthRepo, q.scheduleRepo, envBuilder, planner, validator, q.bus, q.clock)
	q.etaHandler = scheduleCommands.NewUpdateETAHandler(
		q.scheduleRepo, q.berthRepo, q.conflictRepo, q.alertRepo, q.bus, q.clock)
	q.detector = monitoringServices.NewConflictDetector(
		q.scheduleRepo, q.vesselRepo, q.berthRepo, q.tideRepo, q.conflictRepo, q.alertRepo,
		planner, ukc, q.bus, q.clock, 30*time.Second, "NLRTM")

	q.berths = make(map[string]*berth.Berth)
	q.vessels = make(map[string]*vessel.Vessel)
	q.schedules = make(map[string]*schedule.Schedule)
	q.port = nil
	q.terminal = nil
	q.suggestions = nil
	q.allocResp = nil
	q.lastErr = nil
	q.watched = nil
	q.etd = time.Time{}
	q.alertCountBefore = 0
	return nil
}

// ----- Given -----

func (q *quayPlanContext) aPortWithATerminal(code string) error {
	ctx := context.Background()
	q.port = &berth.Port{Code: code, Name: code + " port", Lat: 51.95, Lon: 4.05}
	if err := q.berthRepo.SavePort(ctx, q.port); err != nil {
		return err
	}
	q.terminal = &berth.Terminal{PortID: q.port.ID, Name: "Terminal 1", Code: code + "-T1"}
	return q.berthRepo.SaveTerminal(ctx, q.terminal)
}

func (q *quayPlanContext) aBerthWithLengthAndMaxDraft(code string, length, maxDraft int) error {
	b, err := berth.NewBerth(q.terminal.ID, "Berth "+code, code, float64(length), float64(maxDraft), "CONTAINER")
	if err != nil {
		return err
	}
	if err := q.berthRepo.Save(context.Background(), b); err != nil {
		return err
	}
	q.berths[code] = b
	return nil
}

func (q *quayPlanContext) aBerthWithChartedDepth(code string, length, maxDraft int, charted string) error {
	depth, err := strconv.ParseFloat(charted, 64)
	if err != nil {
		return err
	}
	b, err := berth.NewBerth(q.terminal.ID, "Berth "+code, code, float64(length), float64(maxDraft), "CONTAINER")
	if err != nil {
		return err
	}
	b.ChartedDepth = depth
	if err := q.berthRepo.Save(context.Background(), b); err != nil {
		return err
	}
	q.berths[code] = b
	return nil
}

func (q *quayPlanContext) aVesselWithLOAAndDraft(name string, loa int, draft string) error {
	d, err := strconv.ParseFloat(draft, 64)
	if err != nil {
		return err
	}
	v, err := vessel.NewVessel(name, vessel.TypeContainer, float64(loa), 42, d, "CONTAINER", vessel.PriorityFCFS)
	if err != nil {
		return err
	}
	if err := q.vesselRepo.Save(context.Background(), v); err != nil {
		return err
	}
	q.vessels[name] = v
	return nil
}

func (q *quayPlanContext) vesselHoldsBerth(vesselName, berthCode, from, to string) error {
	eta, etd, err := parseWindow(from, to)
	if err != nil {
		return err
	}
	ves, ok := q.vessels[vesselName]
	if !ok {
		return fmt.Errorf("unknown vessel %q", vesselName)
	}
	b, ok := q.berths[berthCode]
	if !ok {
		return fmt.Errorf("unknown berth %q", berthCode)
	}
	s, err := schedule.NewSchedule(ves.ID, b.ID, eta, etd, ves.PriorityWeight())
	if err != nil {
		return err
	}
	if err := q.scheduleRepo.Create(context.Background(), s); err != nil {
		return err
	}
	q.schedules[vesselName] = s
	return nil
}

func (q *quayPlanContext) tideReadingsForThePort(table *godog.Table) error {
	ctx := context.Background()
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		at, err := time.Parse(time.RFC3339, row.Cells[0].Value)
		if err != nil {
			return err
		}
		height, err := strconv.ParseFloat(row.Cells[2].Value, 64)
		if err != nil {
			return err
		}
		reading := &tide.Reading{
			PortID:       q.port.ID,
			TideTime:     at,
			Type:         tide.ReadingType(row.Cells[1].Value),
			HeightMeters: height,
		}
		if err := q.tideRepo.Save(ctx, reading); err != nil {
			return err
		}
	}
	return nil
}

func (q *quayPlanContext) vesselIsBerthedWithETD(vesselName, berthCode, etdStr string) error {
	etd, err := time.Parse(time.RFC3339, etdStr)
	if err != nil {
		return err
	}
	eta := etd.Add(-4 * time.Hour)
	if err := q.vesselHoldsBerth(vesselName, berthCode, eta.Format(time.RFC3339), etdStr); err != nil {
		return err
	}
	s := q.schedules[vesselName]
	if err := s.RecordArrival(eta.Add(-30 * time.Minute)); err != nil {
		return err
	}
	if err := s.RecordBerthing(eta); err != nil {
		return err
	}
	if err := q.scheduleRepo.Update(context.Background(), s); err != nil {
		return err
	}
	q.watched = s
	q.etd = etd
	return nil
}

// ----- When -----

func (q *quayPlanContext) berthSuggestionsAreRequested(vesselName, at string, hours int) error {
	eta, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return err
	}
	ves, ok := q.vessels[vesselName]
	if !ok {
		return fmt.Errorf("unknown vessel %q", vesselName)
	}
	q.suggestions, q.lastErr = q.engine.Suggest(
		context.Background(), ves.ID, q.port.Code, eta, time.Duration(hours)*time.Hour, 0)
	return nil
}

func (q *quayPlanContext) vesselIsAllocated(vesselName, berthCode, from, to string) error {
	eta, etd, err := parseWindow(from, to)
	if err != nil {
		return err
	}
	ves, ok := q.vessels[vesselName]
	if !ok {
		return fmt.Errorf("unknown vessel %q", vesselName)
	}
	b, ok := q.berths[berthCode]
	if !ok {
		return fmt.Errorf("unknown berth %q", berthCode)
	}
	resp, err := q.allocator.Handle(context.Background(), &planningCommands.AllocateBerthCommand{
		VesselID: ves.ID,
		BerthID:  b.ID,
		PortCode: q.port.Code,
		ETA:      eta,
		ETD:      etd,
	})
	q.lastErr = err
	if err == nil {
		q.allocResp = resp.(*planningCommands.AllocateBerthResponse)
	}
	return nil
}

func (q *quayPlanContext) scheduleIsCommitted(vesselName, berthCode, from, to string) error {
	eta, etd, err := parseWindow(from, to)
	if err != nil {
		return err
	}
	ves := q.vessels[vesselName]
	b := q.berths[berthCode]
	s, err := schedule.NewSchedule(ves.ID, b.ID, eta, etd, ves.PriorityWeight())
	if err != nil {
		return err
	}
	q.lastErr = q.scheduleRepo.Create(context.Background(), s)
	return nil
}

func (q *quayPlanContext) predictedETAMovesBy(vesselName string, minutes int) error {
	s, ok := q.schedules[vesselName]
	if !ok {
		return fmt.Errorf("no schedule for vessel %q", vesselName)
	}
	q.watched = s
	resp, err := q.etaHandler.Handle(context.Background(), &scheduleCommands.UpdateETACommand{
		ScheduleID: s.ID,
		NewETA:     s.ETA.Add(time.Duration(minutes) * time.Minute),
		Source:     "AIS",
	})
	q.lastErr = err
	_ = resp
	return err
}

func (q *quayPlanContext) detectorScansMinutesAfterETD(minutes int) error {
	ctx := context.Background()
	alerts, err := q.alertRepo.Active(ctx)
	if err != nil {
		return err
	}
	q.alertCountBefore = len(alerts)
	q.clock.SetTime(q.etd.Add(time.Duration(minutes) * time.Minute))
	q.detector.Scan(ctx)
	return nil
}

// ----- Then -----

func (q *quayPlanContext) noCompatibleBerthIsFound() error {
	if q.lastErr == nil {
		return fmt.Errorf("expected a no-compatible-berth failure, got %d suggestions", len(q.suggestions))
	}
	if !shared.IsKind(q.lastErr, shared.KindNoCompatibleBerth) {
		return fmt.Errorf("expected NO_COMPATIBLE_BERTH, got %v", q.lastErr)
	}
	return nil
}

func (q *quayPlanContext) allocationBlockedByRule(rule string) error {
	if q.lastErr != nil {
		return fmt.Errorf("allocation failed outright: %v", q.lastErr)
	}
	if q.allocResp == nil || q.allocResp.Allocated() {
		return fmt.Errorf("expected a blocked allocation")
	}
	for _, v := range q.allocResp.Blocked {
		if v.Rule == rule {
			return nil
		}
	}
	return fmt.Errorf("rule %s not among blocking violations %v", rule, q.allocResp.Blocked)
}

func (q *quayPlanContext) commitFailsWithTimeConflict() error {
	if q.lastErr == nil {
		return fmt.Errorf("expected a time conflict, commit succeeded")
	}
	var serr *shared.Error
	if !shared.IsKind(q.lastErr, shared.KindTimeConflict) || !asSharedError(q.lastErr, &serr) {
		return fmt.Errorf("expected TIME_CONFLICT, got %v", q.lastErr)
	}
	ids, ok := serr.Details["conflicts"].([]int)
	if !ok || len(ids) == 0 {
		return fmt.Errorf("conflict details carry no schedule ids: %v", serr.Details)
	}
	return nil
}

func (q *quayPlanContext) commitSucceeds() error {
	if q.lastErr != nil {
		return fmt.Errorf("commit failed: %v", q.lastErr)
	}
	return nil
}

func (q *quayPlanContext) topSuggestionProposes(berthCode, at string) error {
	want, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return err
	}
	if q.lastErr != nil {
		return fmt.Errorf("suggestion failed: %v", q.lastErr)
	}
	if len(q.suggestions) == 0 {
		return fmt.Errorf("no suggestions returned")
	}
	top := q.suggestions[0]
	if top.BerthCode != berthCode {
		return fmt.Errorf("top suggestion is %s, want %s", top.BerthCode, berthCode)
	}
	if !top.SlotETA.UTC().Equal(want) {
		return fmt.Errorf("top slot ETA %s, want %s", top.SlotETA.UTC(), want)
	}
	return nil
}

func (q *quayPlanContext) suggestionsRank(first, second, third string) error {
	if q.lastErr != nil {
		return fmt.Errorf("suggestion failed: %v", q.lastErr)
	}
	want := []string{first, second, third}
	if len(q.suggestions) < len(want) {
		return fmt.Errorf("got %d suggestions, want %d", len(q.suggestions), len(want))
	}
	for i, code := range want {
		if q.suggestions[i].BerthCode != code {
			return fmt.Errorf("rank %d is %s, want %s", i+1, q.suggestions[i].BerthCode, code)
		}
	}
	return nil
}

func (q *quayPlanContext) suggestedWaitsAre(w1, w2, w3 int) error {
	want := []int{w1, w2, w3}
	for i, mins := range want {
		if q.suggestions[i].WaitingMinutes != mins {
			return fmt.Errorf("rank %d waits %d minutes, want %d", i+1, q.suggestions[i].WaitingMinutes, mins)
		}
	}
	return nil
}

func (q *quayPlanContext) adjacentScoresDifferByAtLeast(points int) error {
	for i := 1; i < len(q.suggestions); i++ {
		gap := q.suggestions[i-1].Score - q.suggestions[i].Score
		if gap < float64(points) {
			return fmt.Errorf("scores %0.2f and %0.2f differ by %0.2f, want >= %d",
				q.suggestions[i-1].Score, q.suggestions[i].Score, gap, points)
		}
	}
	return nil
}

func (q *quayPlanContext) onlyPredictedETAChanges() error {
	stored, err := q.scheduleRepo.FindByID(context.Background(), q.watched.ID)
	if err != nil {
		return err
	}
	if !stored.ETA.UTC().Equal(q.watched.ETA.UTC()) || !stored.ETD.UTC().Equal(q.watched.ETD.UTC()) {
		return fmt.Errorf("the committed window moved: [%s, %s)", stored.ETA, stored.ETD)
	}
	if stored.PredictedETA.UTC().Equal(stored.ETA.UTC()) {
		return fmt.Errorf("the predicted ETA did not move")
	}
	return nil
}

func (q *quayPlanContext) etaDeviationAlertOfSeverity(severity string) error {
	return q.latestAlert(string(conflict.KindETADeviation), severity)
}

func (q *quayPlanContext) overstayAlertOfSeverity(severity string) error {
	ctx := context.Background()
	alerts, err := q.alertRepo.Active(ctx)
	if err != nil {
		return err
	}
	if len(alerts) != q.alertCountBefore+1 {
		return fmt.Errorf("alert count went %d -> %d, want exactly one new alert", q.alertCountBefore, len(alerts))
	}
	return q.latestAlert(string(conflict.KindOverstay), severity)
}

func (q *quayPlanContext) noFurtherOverstayAlert() error {
	alerts, err := q.alertRepo.Active(context.Background())
	if err != nil {
		return err
	}
	if len(alerts) != q.alertCountBefore {
		return fmt.Errorf("alert count went %d -> %d, want no new alerts", q.alertCountBefore, len(alerts))
	}
	return nil
}

func (q *quayPlanContext) exactlyOneConflictOfKind(kind conflict.Kind) error {
	all, err := q.conflictRepo.Active(context.Background())
	if err != nil {
		return err
	}
	count := 0
	for _, c := range all {
		if c.Kind == kind {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("found %d open %s conflicts, want exactly 1", count, kind)
	}
	return nil
}

func (q *quayPlanContext) latestAlert(alertType, severity string) error {
	alerts, err := q.alertRepo.Active(context.Background())
	if err != nil {
		return err
	}
	var newest *conflict.Alert
	for _, a := range alerts {
		if a.Type != alertType {
			continue
		}
		if newest == nil || a.ID > newest.ID {
			newest = a
		}
	}
	if newest == nil {
		return fmt.Errorf("no %s alert found", alertType)
	}
	if newest.Severity != conflict.Severity(severity) {
		return fmt.Errorf("latest %s alert severity %s, want %s", alertType, newest.Severity, severity)
	}
	return nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	eta, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	etd, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return eta, etd, nil
}

func asSharedError(err error, target **shared.Error) bool {
	e, ok := err.(*shared.Error)
	if ok {
		*target = e
		return true
	}
	return false
}

// InitializeQuayPlanScenario registers the planning and monitoring steps
func InitializeQuayPlanScenario(ctx *godog.ScenarioContext) {
	q := &quayPlanContext{}

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		return c, q.reset()
	})

	ctx.Step(`^a port "([^"]*)" with a terminal$`, q.aPortWithATerminal)
	ctx.Step(`^a berth "([^"]*)" with length (\d+) and max draft (\d+)$`, q.aBerthWithLengthAndMaxDraft)
	ctx.Step(`^a berth "([^"]*)" with length (\d+), max draft (\d+) and charted depth (\d+\.\d+)$`, q.aBerthWithChartedDepth)
	ctx.Step(`^a vessel "([^"]*)" with LOA (\d+) and draft (\d+(?:\.\d+)?)$`, q.aVesselWithLOAAndDraft)
	ctx.Step(`^"([^"]*)" holds "([^"]*)" from "([^"]*)" to "([^"]*)"$`, q.vesselHoldsBerth)
	ctx.Step(`^tide readings for the port:$`, q.tideReadingsForThePort)
	ctx.Step(`^"([^"]*)" is berthed on "([^"]*)" with ETD "([^"]*)"$`, q.vesselIsBerthedWithETD)

	ctx.Step(`^berth suggestions are requested for "([^"]*)" at "([^"]*)" for (\d+) hours$`, q.berthSuggestionsAreRequested)
	ctx.Step(`^"([^"]*)" is allocated to "([^"]*)" from "([^"]*)" to "([^"]*)"$`, q.vesselIsAllocated)
	ctx.Step(`^a schedule for "([^"]*)" on "([^"]*)" from "([^"]*)" to "([^"]*)" is committed$`, q.scheduleIsCommitted)
	ctx.Step(`^the predicted ETA of the "([^"]*)" schedule moves by (\d+) minutes$`, q.predictedETAMovesBy)
	ctx.Step(`^the detector scans (\d+) minutes after the ETD$`, q.detectorScansMinutesAfterETD)

	ctx.Step(`^no compatible berth is found$`, q.noCompatibleBerthIsFound)
	ctx.Step(`^the allocation is blocked by rule "([^"]*)"$`, q.allocationBlockedByRule)
	ctx.Step(`^the commit fails with a time conflict naming the occupying schedule$`, q.commitFailsWithTimeConflict)
	ctx.Step(`^the commit succeeds$`, q.commitSucceeds)
	ctx.Step(`^the top suggestion proposes berth "([^"]*)" at "([^"]*)"$`, q.topSuggestionProposes)
	ctx.Step(`^the suggestions rank "([^"]*)", "([^"]*)", "([^"]*)"$`, q.suggestionsRank)
	ctx.Step(`^the suggested waits are (\d+), (\d+) and (\d+) minutes$`, q.suggestedWaitsAre)
	ctx.Step(`^adjacent suggestion scores differ by at least (\d+) points$`, q.adjacentScoresDifferByAtLeast)
	ctx.Step(`^only the predicted ETA changes on the stored schedule$`, q.onlyPredictedETAChanges)
	ctx.Step(`^an ETA deviation alert of severity "([^"]*)" is raised$`, q.etaDeviationAlertOfSeverity)
	ctx.Step(`^an overstay alert of severity "([^"]*)" is raised$`, q.overstayAlertOfSeverity)
	ctx.Step(`^no further overstay alert is raised$`, q.noFurtherOverstayAlert)
	ctx.Step(`^exactly one berth-overlap conflict is recorded$`, func() error {
		return q.exactlyOneConflictOfKind(conflict.KindBerthOverlap)
	})
	ctx.Step(`^exactly one overstay conflict is recorded$`, func() error {
		return q.exactlyOneConflictOfKind(conflict.KindOverstay)
	})

	ctx.After(func(c context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if q.db != nil {
			_ = database.Close(q.db)
			q.db = nil
		}
		return c, nil
	})
}
