package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duelforge/duel-server-go/internal/catalog"
	"github.com/duelforge/duel-server-go/internal/config"
	"github.com/duelforge/duel-server-go/internal/game"
	"github.com/duelforge/duel-server-go/internal/repository"
	"github.com/duelforge/duel-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting duel server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	registry, err := catalog.LoadFile(cfg.Cards.Path, logger)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.String("path", cfg.Cards.Path),
		zap.Int("cards", registry.Size()),
	)

	// Match result persistence is optional; without a DSN results stay in
	// memory only.
	var recorder *repository.Recorder
	if cfg.Database.DSN != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		results := repository.NewMatchResultRepository(db)
		if schemaErr := results.EnsureSchema(ctx); schemaErr != nil {
			logger.Fatal("failed to ensure match_results schema", zap.Error(schemaErr))
		}
		recorder = repository.NewRecorder(results, logger)
		logger.Info("match result persistence enabled")
	} else {
		logger.Warn("no database configured; match results will not be persisted")
	}

	rules := game.Config{
		DeckSize:         cfg.Match.DeckSize,
		MaxEnergy:        cfg.Match.MaxEnergy,
		TotalTurns:       cfg.Match.TotalTurns,
		StartingHandSize: cfg.Match.StartingHandSize,
		TurnDuration:     cfg.Match.TurnDuration,
		TickInterval:     cfg.Match.TickInterval,
	}

	manager := game.NewManager(logger)
	logger.Info("match manager initialized")

	hub := server.NewHub(manager, registry, rules, recorder, logger)
	wsServer := server.NewServer(cfg.Server, hub, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- wsServer.Start(ctx)
	}()

	logger.Info("duel server initialized",
		zap.String("address", cfg.Server.Address),
		zap.Int("total_turns", rules.TotalTurns),
		zap.Duration("turn_duration", rules.TurnDuration),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	cancel()
	manager.AbortAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("duel server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
