package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "quayplan"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "quayplan"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost:8080"
	}
	if cfg.Server.RateLimitPerIPPerMinute == 0 {
		cfg.Server.RateLimitPerIPPerMinute = 120
	}
	if cfg.Server.EventQueueDepth == 0 {
		cfg.Server.EventQueueDepth = 1024
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.SuggestTimeout == 0 {
		cfg.Server.SuggestTimeout = 5 * time.Second
	}
	if cfg.Server.AllocateTimeout == 0 {
		cfg.Server.AllocateTimeout = 10 * time.Second
	}

	// Scheduler defaults
	if cfg.Scheduler.Buffers.Container == 0 {
		cfg.Scheduler.Buffers.Container = 60
	}
	if cfg.Scheduler.Buffers.Bulk == 0 {
		cfg.Scheduler.Buffers.Bulk = 90
	}
	if cfg.Scheduler.Buffers.Liquid == 0 {
		cfg.Scheduler.Buffers.Liquid = 45
	}
	if cfg.Scheduler.Buffers.RoRo == 0 {
		cfg.Scheduler.Buffers.RoRo = 30
	}
	if cfg.Scheduler.Buffers.Default == 0 {
		cfg.Scheduler.Buffers.Default = 60
	}
	if cfg.Scheduler.SlotHorizonDays == 0 {
		cfg.Scheduler.SlotHorizonDays = 14
	}
	if cfg.Scheduler.ConflictScanIntervalSeconds == 0 {
		cfg.Scheduler.ConflictScanIntervalSeconds = 30
	}
	if cfg.Scheduler.PositionWritesCoalesceMs == 0 {
		cfg.Scheduler.PositionWritesCoalesceMs = 5000
	}
	if cfg.Scheduler.PositionRetentionDays == 0 {
		cfg.Scheduler.PositionRetentionDays = 90
	}
	if cfg.Scheduler.UKC.Small == 0 {
		cfg.Scheduler.UKC.Small = 1.5
	}
	if cfg.Scheduler.UKC.Medium == 0 {
		cfg.Scheduler.UKC.Medium = 2.0
	}
	if cfg.Scheduler.UKC.Large == 0 {
		cfg.Scheduler.UKC.Large = 2.5
	}
	if cfg.Scheduler.Scoring.PhysicalFit == 0 {
		cfg.Scheduler.Scoring.PhysicalFit = 25
	}
	if cfg.Scheduler.Scoring.BerthTypeMatch == 0 {
		cfg.Scheduler.Scoring.BerthTypeMatch = 20
	}
	if cfg.Scheduler.Scoring.WaitingTime == 0 {
		cfg.Scheduler.Scoring.WaitingTime = 20
	}
	if cfg.Scheduler.Scoring.CraneAdequacy == 0 {
		cfg.Scheduler.Scoring.CraneAdequacy = 15
	}
	if cfg.Scheduler.Scoring.History == 0 {
		cfg.Scheduler.Scoring.History = 10
	}
	if cfg.Scheduler.Scoring.TidalSafety == 0 {
		cfg.Scheduler.Scoring.TidalSafety = 10
	}
	if cfg.Scheduler.SuggestTopN == 0 {
		cfg.Scheduler.SuggestTopN = 5
	}

	// AIS defaults
	if cfg.AIS.ReconnectBase == 0 {
		cfg.AIS.ReconnectBase = 1 * time.Second
	}
	if cfg.AIS.ReconnectMax == 0 {
		cfg.AIS.ReconnectMax = 60 * time.Second
	}
	if cfg.AIS.StaleAfter == 0 {
		cfg.AIS.StaleAfter = 10 * time.Minute
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/quayplan-daemon.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
