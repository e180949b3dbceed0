// readingsdump exports stored readings to stdout for offline analysis
// and plotting.
// Usage: go run ./cmd/readingsdump --config configs/winddaq.yaml --limit 500 --format csv
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aerolab/winddaq/internal/config"
	"github.com/aerolab/winddaq/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/winddaq.yaml", "path to config file")
	limit := flag.Int("limit", 1000, "max readings to export (most recent)")
	format := flag.String("format", "csv", "output format: csv or json")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open reading store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	readings, err := st.GetRecent(ctx, *limit)
	if err != nil {
		logger.Error("failed to read readings", "error", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(readings); err != nil {
			logger.Error("failed to encode readings", "error", err)
			os.Exit(1)
		}

	case "csv":
		w := csv.NewWriter(os.Stdout)
		w.Write([]string{"timestamp", "rpm", "lift_force"})
		for _, r := range readings {
			w.Write([]string{
				r.Timestamp.Format(time.RFC3339Nano),
				strconv.FormatFloat(r.RotationSpeed, 'f', -1, 64),
				strconv.FormatFloat(r.LiftForce, 'f', -1, 64),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			logger.Error("failed to write csv", "error", err)
			os.Exit(1)
		}

	default:
		logger.Error("unknown format", "format", *format)
		os.Exit(1)
	}
}

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
