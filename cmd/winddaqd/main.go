package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aerolab/winddaq/internal/acquire"
	"github.com/aerolab/winddaq/internal/broadcast"
	"github.com/aerolab/winddaq/internal/config"
	"github.com/aerolab/winddaq/internal/natspub"
	"github.com/aerolab/winddaq/internal/sensor"
	"github.com/aerolab/winddaq/internal/server"
	"github.com/aerolab/winddaq/internal/store"
	"github.com/aerolab/winddaq/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/winddaq.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting winddaq",
		"build", version.String(),
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"device", cfg.Serial.Device,
		"store_backend", cfg.Store.Backend,
		"server_addr", cfg.Server.Addr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the reading store
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open reading store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Sensor link
	link := sensor.NewLink(sensor.LinkConfig{
		Device:        cfg.Serial.Device,
		BaudRate:      cfg.Serial.BaudRate,
		ReadTimeout:   cfg.Serial.ReadTimeout.Std(),
		SettleDelay:   cfg.Serial.SettleDelay.Std(),
		RetryInterval: cfg.Serial.RetryInterval.Std(),
	}, logger)

	// Subscriber registry and orchestrator
	registry := broadcast.NewRegistry(logger)
	orch := acquire.New(acquire.Config{
		ReadingInterval: cfg.Acquire.ReadingInterval.Std(),
		RetryInterval:   cfg.Serial.RetryInterval.Std(),
		FaultPause:      time.Second,
	}, link, st, registry, logger)

	// Optional NATS fan-out
	if cfg.NATS.Enabled {
		pub, err := natspub.New(natspub.Config{
			URL:     cfg.NATS.URL,
			Subject: cfg.NATS.Subject,
		}, logger)
		if err != nil {
			logger.Error("failed to start nats publisher", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		registry.Subscribe(pub.Subscriber())
	}

	// Start acquisition
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// HTTP/WebSocket transport
	srv := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		MetricsPath: cfg.Server.MetricsPath,
	}, orch, logger)
	srv.Start()

	logger.Info("winddaq running", "addr", cfg.Server.Addr)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err)
	}
	if err := orch.Stop(shutdownCtx); err != nil {
		logger.Warn("orchestrator stop failed", "error", err)
	}

	logger.Info("winddaq stopped")
}

// openStore builds the configured reading store backend.
func openStore(ctx context.Context, cfg *config.DaemonConfig, logger *slog.Logger) (store.Store, error) {
	storeCfg := store.Config{
		BatchSize:     cfg.Store.BatchSize,
		FlushInterval: cfg.Store.FlushInterval.Std(),
	}

	if cfg.Store.Backend == "postgres" {
		return store.NewPostgresStore(ctx, cfg.Store.Postgres, storeCfg, logger)
	}
	return store.NewSQLiteStore(cfg.Store.SQLitePath, storeCfg, logger)
}
