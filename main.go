package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradewind/crossintel/crossintel"
	"github.com/tradewind/crossintel/crossintel/database"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
	"github.com/tradewind/crossintel/crossintel/intel"
	"github.com/tradewind/crossintel/crossintel/intel/audit"
	"github.com/tradewind/crossintel/crossintel/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := crossintel.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))

	slog.Info("Starting cross-intelligence scoring engine",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStart)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStart)))

	// The audit trail is optional; without a Mongo URI the engines run with
	// a nil trail and skip audit writes.
	var trail *audit.Trail
	if cfg.Mongo.URI != "" {
		trail, err = audit.Connect(ctx, cfg.Mongo)
		if err != nil {
			slog.Error("Audit trail connection failed",
				slog.String("type", "audit"),
				slog.Any("error", err))
			os.Exit(-1)
		}
		slog.Info("Audit trail connected", slog.String("type", "audit"))
	}

	repo := repositories.NewProfileRepository(db.BunDB())
	service := intel.NewService(repo, trail, intel.Options{
		RecomputeInterval: time.Duration(cfg.Intel.RecomputeIntervalHours) * time.Hour,
	})

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	service.StartScheduler(schedCtx)

	slog.Info("Scoring engines running. Press CTRL-C to exit.",
		slog.String("type", "sys"))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...", slog.String("type", "sys"))
}
