package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/javiserrasc-tech/Corricion/internal/config"
	"github.com/javiserrasc-tech/Corricion/internal/database"
	"github.com/javiserrasc-tech/Corricion/internal/engine"
	"github.com/javiserrasc-tech/Corricion/internal/history"
	"github.com/javiserrasc-tech/Corricion/internal/insight"
	"github.com/javiserrasc-tech/Corricion/internal/location"
	"github.com/javiserrasc-tech/Corricion/internal/logger"
	"github.com/javiserrasc-tech/Corricion/internal/models"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	exportPath := flag.String("export", "", "Export run history to the given file and exit")
	importPath := flag.String("import", "", "Import run history from the given file and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting corricion",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	historyRepo := database.NewHistoryRepository(db.DB, log.Logger)
	store := history.NewStore(historyRepo, cfg.Tracking.HistoryLimit, log.Logger)
	if err := store.Load(); err != nil {
		log.Warn("Could not restore run history, starting empty", zap.Error(err))
	}

	if *exportPath != "" {
		exportHistory(store, *exportPath, log)
		return
	}
	if *importPath != "" {
		importHistory(store, *importPath, log)
		return
	}

	source, err := location.NewReplaySource(
		cfg.Location.RouteFile,
		time.Duration(cfg.Location.ReplayIntervalMs)*time.Millisecond,
		location.Options{
			HighAccuracy: cfg.Location.HighAccuracy,
			MaximumAge:   time.Duration(cfg.Location.MaximumAgeMs) * time.Millisecond,
			Timeout:      time.Duration(cfg.Location.TimeoutMs) * time.Millisecond,
		},
		cfg.Location.WatchRouteFile,
		log.Logger,
	)
	if err != nil {
		log.Fatal("No location capability available", zap.Error(err))
	}
	defer source.Close()

	var insights engine.InsightGenerator
	if cfg.Insight.Enabled {
		insights = insight.NewClient(
			cfg.Insight.BaseURL,
			cfg.Insight.APIKey,
			time.Duration(cfg.Insight.TimeoutSeconds)*time.Second,
			log.Logger,
		)
	} else {
		log.Info("AI commentary disabled in configuration")
	}

	runEngine := engine.NewEngine(cfg.Tracking, source, store, insights, nil, log.Logger)
	runEngine.OnUpdate(func(snap engine.Snapshot) {
		log.Info("Run update",
			zap.String("status", string(snap.Status)),
			zap.String("time", models.FormatDuration(snap.ElapsedMs)),
			zap.Float64("distance_km", snap.DistanceKm),
			zap.Float64("speed_kmh", snap.CurrentSpeedKmh),
			zap.String("pace", models.FormatPace(snap.CurrentPace)),
			zap.Int("path_points", snap.PathPoints),
		)
	})

	if err := runEngine.Begin(); err != nil {
		log.Fatal("Failed to start run", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-source.Done():
		log.Info("Route replay finished")
	}

	if err := runEngine.Stop(); err != nil {
		log.Error("Failed to stop run", zap.Error(err))
	}
	runEngine.Drain()

	if session := runEngine.CurrentSession(); session != nil {
		log.Info("Session summary",
			zap.String("session_id", session.ID),
			zap.Float64("distance_km", session.DistanceKm),
			zap.String("pace", models.FormatPace(session.AveragePace)),
			zap.Int("path_points", len(session.Path)),
		)
	}

	stats := store.Stats()
	log.Info("History totals",
		zap.Int("runs", stats.TotalRuns),
		zap.Float64("total_distance_km", stats.TotalDistance),
		zap.String("average_pace", models.FormatPace(stats.AveragePace)),
	)

	log.Info("Corricion stopped")
}

func exportHistory(store *history.Store, path string, log *logger.Logger) {
	data, err := store.Export()
	if err != nil {
		log.Fatal("Failed to export history", zap.Error(err))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatal("Failed to write export file", zap.Error(err))
	}
	log.Info("History exported", zap.String("path", path), zap.Int("sessions", store.Len()))
}

func importHistory(store *history.Store, path string, log *logger.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("Failed to read import file", zap.Error(err))
	}
	if err := store.Import(data); err != nil {
		log.Fatal("Failed to import history", zap.Error(err))
	}
	log.Info("History imported", zap.String("path", path), zap.Int("sessions", store.Len()))
}
