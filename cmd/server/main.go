package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/derbybench/lineup-server-go/internal/config"
	"github.com/derbybench/lineup-server-go/internal/lineup"
	"github.com/derbybench/lineup-server-go/internal/metrics"
	"github.com/derbybench/lineup-server-go/internal/server"
	"github.com/derbybench/lineup-server-go/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting lineup server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		logger.Fatal("failed to open roster store", zap.Error(err))
	}
	defer store.Close()

	var recorder *metrics.Recorder
	if cfg.Server.MetricsEnabled {
		recorder = metrics.NewRecorder()
	}

	engine := lineup.NewEngine(logger.Named("lineup"),
		lineup.WithStore(store),
		lineup.WithHistoryDepth(cfg.Lineup.HistoryDepth),
		lineup.WithRecorder(recorder),
	)

	// A broken roster is reported but not fatal; the engine starts empty
	if err := engine.Load(ctx); err != nil {
		logger.Error("roster could not be loaded, starting with an empty roster", zap.Error(err))
	}

	srv := server.New(cfg.Server, engine, recorder, logger.Named("server"))

	logger.Info("lineup server initialized",
		zap.String("version", version),
		zap.String("session_id", engine.SessionID()),
		zap.String("address", cfg.Server.Address),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int("history_depth", cfg.Lineup.HistoryDepth),
		zap.Bool("metrics_enabled", cfg.Server.MetricsEnabled),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("lineup server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
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
