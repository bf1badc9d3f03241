package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborops/quayplan/internal/adapters/ais"
	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/httpapi"
	"github.com/harborops/quayplan/internal/adapters/metrics"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/common"
	monitoringCmd "github.com/harborops/quayplan/internal/application/monitoring/commands"
	monitoringQuery "github.com/harborops/quayplan/internal/application/monitoring/queries"
	monitoringServices "github.com/harborops/quayplan/internal/application/monitoring/services"
	planningCmd "github.com/harborops/quayplan/internal/application/planning/commands"
	planningQuery "github.com/harborops/quayplan/internal/application/planning/queries"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	scheduleCmd "github.com/harborops/quayplan/internal/application/schedule/commands"
	scheduleQuery "github.com/harborops/quayplan/internal/application/schedule/queries"
	trackingServices "github.com/harborops/quayplan/internal/application/tracking/services"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/internal/infrastructure/config"
	"github.com/harborops/quayplan/internal/infrastructure/database"
	"github.com/harborops/quayplan/internal/infrastructure/pidfile"
)

// Exit codes of the daemon's operator contract
const (
	exitOK       = 0
	exitConfig   = 1
	exitDatabase = 2
	exitFeed     = 3
)

// startupError carries the exit code a fatal startup failure maps to
type startupError struct {
	code int
	err  error
}

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// Parse command-line flags
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configPath := flag.String("config", "", "Path to config file (default: search ./configs, /etc/quayplan)")
	flag.Parse()

	fmt.Println("QuayPlan Daemon v0.1.0")
	fmt.Println("======================")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return exitConfig
	}

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	if err := pf.Acquire(); err != nil {
		if *forceFlag {
			fmt.Println("Force mode enabled - stopping existing daemon...")
			if killErr := pf.KillExisting(); killErr != nil {
				log.Printf("Failed to stop existing daemon: %v", killErr)
				return exitConfig
			}
			if err := pf.Acquire(); err != nil {
				log.Printf("Failed to acquire PID file lock after stopping existing daemon: %v", err)
				return exitConfig
			}
		} else {
			log.Printf("Failed to acquire PID file lock: %v\nUse --force to stop the existing daemon", err)
			return exitConfig
		}
	}

	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Printf("Fatal error: %v", err)
		var se *startupError
		if errors.As(err, &se) {
			return se.code
		}
		return exitConfig
	}
	return exitOK
}

func run(cfg *config.Config) error {
	clock := shared.NewRealClock()
	logger := &common.StdLogger{}

	// 1. Setup database connection
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return &startupError{exitDatabase, fmt.Errorf("failed to connect to database: %w", err)}
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return &startupError{exitDatabase, fmt.Errorf("failed to run migrations: %w", err)}
	}
	fmt.Println("Database connected and migrated")

	// 2. Initialize metrics
	metrics.InitRegistry()
	planningCollector := metrics.NewPlanningMetricsCollector()
	if err := planningCollector.Register(); err != nil {
		return fmt.Errorf("failed to register planning metrics: %w", err)
	}
	metrics.SetGlobalPlanningCollector(planningCollector)
	ingestCollector := metrics.NewIngestMetricsCollector()
	if err := ingestCollector.Register(); err != nil {
		return fmt.Errorf("failed to register ingest metrics: %w", err)
	}
	metrics.SetGlobalIngestCollector(ingestCollector)
	commandCollector := metrics.NewCommandMetricsCollector()
	if err := commandCollector.Register(); err != nil {
		return fmt.Errorf("failed to register command metrics: %w", err)
	}
	fmt.Println("Metrics registry initialized")

	// 3. Initialize event bus
	bus := events.NewBus(cfg.Server.EventQueueDepth, clock)
	bus.SetDropHook(metrics.RecordBusDrop)
	fmt.Println("Event bus initialized")

	// 4. Initialize repositories
	vesselRepo := persistence.NewGormVesselRepository(db)
	// Berth reference data is read on every suggestion but changes rarely;
	// a 60s snapshot cache keeps the hot path off the database.
	berthRepo := persistence.NewCachedBerthRepository(persistence.NewGormBerthRepository(db), clock, 60*time.Second)
	maintenanceRepo := persistence.NewGormMaintenanceRepository(db)
	scheduleRepo := persistence.NewGormScheduleRepository(db)
	historyRepo := persistence.NewGormHistoryRepository(db)
	tideRepo := persistence.NewGormTideRepository(db)
	resourceRepo := persistence.NewGormResourceRepository(db)
	positionRepo := persistence.NewGormPositionRepository(db, clock)
	conflictRepo := persistence.NewGormConflictRepository(db, clock)
	alertRepo := persistence.NewGormAlertRepository(db, clock)
	fmt.Println("Repositories initialized")

	// 5. Initialize planning services
	ukc := planning.UKCConfig{
		DefaultMeters: cfg.Scheduler.UKC.Small,
		LargeMeters:   cfg.Scheduler.UKC.Medium,
		VLCCMeters:    cfg.Scheduler.UKC.Large,
	}
	weights := planning.Weights{
		PhysicalFit:   cfg.Scheduler.Scoring.PhysicalFit,
		TypeMatch:     cfg.Scheduler.Scoring.BerthTypeMatch,
		WaitingTime:   cfg.Scheduler.Scoring.WaitingTime,
		CraneAdequacy: cfg.Scheduler.Scoring.CraneAdequacy,
		History:       cfg.Scheduler.Scoring.History,
		Tidal:         cfg.Scheduler.Scoring.TidalSafety,
	}
	buffer := planningServices.BufferPolicy(func(t vessel.Type) time.Duration {
		return time.Duration(cfg.Scheduler.Buffers.ForVesselType(string(t))) * time.Minute
	})
	validator := planning.NewValidator(ukc, planning.DefaultWeatherLimits())
	envBuilder := planningServices.NewEnvironmentBuilder(scheduleRepo, maintenanceRepo, resourceRepo, tideRepo, nil)
	suggestionEngine := planningServices.NewSuggestionEngine(
		vesselRepo, berthRepo, scheduleRepo, maintenanceRepo, historyRepo, tideRepo,
		envBuilder, validator, weights, ukc, buffer,
		time.Duration(cfg.Scheduler.SlotHorizonDays)*24*time.Hour, clock,
	)
	resolutionPlanner := planningServices.NewResolutionPlanner(berthRepo, scheduleRepo, buffer)
	fmt.Println("Planning services initialized")

	// 6. Initialize mediator (CQRS dispatcher) with command instrumentation
	med := metrics.NewInstrumentedMediator(common.NewMediator(), commandCollector)

	// 7. Register command handlers
	allocateHandler := planningCmd.NewAllocateBerthHandler(
		vesselRepo, berthRepo, scheduleRepo, envBuilder, resolutionPlanner, validator, bus, clock,
	)
	if err := common.RegisterHandler[*planningCmd.AllocateBerthCommand](med, allocateHandler); err != nil {
		return fmt.Errorf("failed to register AllocateBerth handler: %w", err)
	}

	rescheduleHandler := planningCmd.NewRescheduleHandler(
		vesselRepo, berthRepo, scheduleRepo, envBuilder, validator, bus,
	)
	if err := common.RegisterHandler[*planningCmd.RescheduleCommand](med, rescheduleHandler); err != nil {
		return fmt.Errorf("failed to register Reschedule handler: %w", err)
	}

	arrivalHandler := scheduleCmd.NewRecordArrivalHandler(scheduleRepo, berthRepo, bus)
	if err := common.RegisterHandler[*scheduleCmd.RecordArrivalCommand](med, arrivalHandler); err != nil {
		return fmt.Errorf("failed to register RecordArrival handler: %w", err)
	}

	berthingHandler := scheduleCmd.NewRecordBerthingHandler(scheduleRepo, berthRepo, bus)
	if err := common.RegisterHandler[*scheduleCmd.RecordBerthingCommand](med, berthingHandler); err != nil {
		return fmt.Errorf("failed to register RecordBerthing handler: %w", err)
	}

	departureHandler := scheduleCmd.NewRecordDepartureHandler(scheduleRepo, historyRepo, resourceRepo, berthRepo, bus)
	if err := common.RegisterHandler[*scheduleCmd.RecordDepartureCommand](med, departureHandler); err != nil {
		return fmt.Errorf("failed to register RecordDeparture handler: %w", err)
	}

	cancelHandler := scheduleCmd.NewCancelScheduleHandler(scheduleRepo, resourceRepo, berthRepo, bus)
	if err := common.RegisterHandler[*scheduleCmd.CancelScheduleCommand](med, cancelHandler); err != nil {
		return fmt.Errorf("failed to register CancelSchedule handler: %w", err)
	}

	updateETAHandler := scheduleCmd.NewUpdateETAHandler(scheduleRepo, berthRepo, conflictRepo, alertRepo, bus, clock)
	if err := common.RegisterHandler[*scheduleCmd.UpdateETACommand](med, updateETAHandler); err != nil {
		return fmt.Errorf("failed to register UpdateETA handler: %w", err)
	}

	clearAllHandler := scheduleCmd.NewClearAllHandler(scheduleRepo, conflictRepo, alertRepo, cfg.Admin.AllowClearAll)
	if err := common.RegisterHandler[*scheduleCmd.ClearAllCommand](med, clearAllHandler); err != nil {
		return fmt.Errorf("failed to register ClearAll handler: %w", err)
	}

	resolveConflictHandler := monitoringCmd.NewResolveConflictHandler(
		conflictRepo, scheduleRepo, bus, clock, cfg.Scheduler.DefaultPortCode,
	)
	if err := common.RegisterHandler[*monitoringCmd.ResolveConflictCommand](med, resolveConflictHandler); err != nil {
		return fmt.Errorf("failed to register ResolveConflict handler: %w", err)
	}

	markReadHandler := monitoringCmd.NewMarkAlertReadHandler(alertRepo)
	if err := common.RegisterHandler[*monitoringCmd.MarkAlertReadCommand](med, markReadHandler); err != nil {
		return fmt.Errorf("failed to register MarkAlertRead handler: %w", err)
	}

	// 8. Register query handlers
	suggestHandler := planningQuery.NewSuggestBerthsHandler(suggestionEngine, cfg.Scheduler.SuggestTopN)
	if err := common.RegisterHandler[*planningQuery.SuggestBerthsQuery](med, suggestHandler); err != nil {
		return fmt.Errorf("failed to register SuggestBerths handler: %w", err)
	}

	dashboardHandler := scheduleQuery.NewDashboardMetricsHandler(scheduleRepo, berthRepo, conflictRepo, alertRepo, clock)
	if err := common.RegisterHandler[*scheduleQuery.DashboardMetricsQuery](med, dashboardHandler); err != nil {
		return fmt.Errorf("failed to register DashboardMetrics handler: %w", err)
	}

	berthStatusHandler := scheduleQuery.NewBerthStatusHandler(scheduleRepo, berthRepo, clock)
	if err := common.RegisterHandler[*scheduleQuery.BerthStatusQuery](med, berthStatusHandler); err != nil {
		return fmt.Errorf("failed to register BerthStatus handler: %w", err)
	}

	vesselHistoryHandler := scheduleQuery.NewVesselHistoryHandler(historyRepo)
	if err := common.RegisterHandler[*scheduleQuery.VesselHistoryQuery](med, vesselHistoryHandler); err != nil {
		return fmt.Errorf("failed to register VesselHistory handler: %w", err)
	}

	activeConflictsHandler := monitoringQuery.NewActiveConflictsHandler(
		conflictRepo, scheduleRepo, vesselRepo, resolutionPlanner, clock,
	)
	if err := common.RegisterHandler[*monitoringQuery.ActiveConflictsQuery](med, activeConflictsHandler); err != nil {
		return fmt.Errorf("failed to register ActiveConflicts handler: %w", err)
	}

	activeAlertsHandler := monitoringQuery.NewActiveAlertsHandler(alertRepo)
	if err := common.RegisterHandler[*monitoringQuery.ActiveAlertsQuery](med, activeAlertsHandler); err != nil {
		return fmt.Errorf("failed to register ActiveAlerts handler: %w", err)
	}
	fmt.Println("Handlers registered")

	// 9. Background services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithLogger(ctx, logger)

	detector := monitoringServices.NewConflictDetector(
		scheduleRepo, vesselRepo, berthRepo, tideRepo, conflictRepo, alertRepo,
		resolutionPlanner, ukc, bus, clock,
		time.Duration(cfg.Scheduler.ConflictScanIntervalSeconds)*time.Second,
		cfg.Scheduler.DefaultPortCode,
	)
	go detector.Run(ctx)
	fmt.Println("Conflict detector started")

	ingestor := trackingServices.NewPositionIngestor(
		positionRepo, vesselRepo, scheduleRepo, berthRepo, med, bus, clock,
		trackingServices.IngestorConfig{
			CoalesceWindow: time.Duration(cfg.Scheduler.PositionWritesCoalesceMs) * time.Millisecond,
			StaleAfter:     cfg.AIS.StaleAfter,
			RetentionDays:  cfg.Scheduler.PositionRetentionDays,
		},
	)
	go ingestor.Run(ctx)
	fmt.Println("Position ingestor started")

	if cfg.AIS.Enabled {
		if cfg.AIS.EndpointURL == "" {
			if cfg.Daemon.RequireAIS {
				return &startupError{exitFeed, fmt.Errorf("ais.enabled is set but ais.endpoint_url is empty")}
			}
			fmt.Println("AIS feed skipped (no endpoint configured)")
		} else {
			feed := ais.NewClient(ais.Config{
				EndpointURL:   cfg.AIS.EndpointURL,
				APIKey:        cfg.AIS.APIKey,
				BoundingBox:   cfg.AIS.BoundingBox,
				MMSIFilter:    cfg.AIS.MMSIFilter,
				ReconnectBase: cfg.AIS.ReconnectBase,
				ReconnectMax:  cfg.AIS.ReconnectMax,
			}, ingestor)
			if cfg.Daemon.RequireAIS {
				probeCtx, cancelProbe := context.WithTimeout(ctx, 10*time.Second)
				err := feed.Probe(probeCtx)
				cancelProbe()
				if err != nil {
					return &startupError{exitFeed, fmt.Errorf("AIS feed unreachable at startup: %w", err)}
				}
			}
			go feed.Run(ctx)
			fmt.Printf("AIS feed client started (%s)\n", cfg.AIS.EndpointURL)
		}
	} else if cfg.Daemon.RequireAIS {
		return &startupError{exitFeed, fmt.Errorf("daemon.require_ais is set but ais.enabled is false")}
	}

	// 10. HTTP API server
	apiServer := httpapi.NewServer(
		med, vesselRepo, berthRepo, maintenanceRepo, scheduleRepo, resourceRepo, tideRepo,
		bus, clock, logger,
		httpapi.Config{
			RateLimitPerIPPerMinute: cfg.Server.RateLimitPerIPPerMinute,
			SuggestTimeout:          cfg.Server.SuggestTimeout,
			AllocateTimeout:         cfg.Server.AllocateTimeout,
			DefaultPortCode:         cfg.Scheduler.DefaultPortCode,
		},
	)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("\n✓ Daemon is ready, listening on %s\n", cfg.Server.Address)
		fmt.Println("Press Ctrl+C to stop")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	fmt.Println("Daemon stopped")
	return nil
}
