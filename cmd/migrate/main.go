package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/Irine7/securetech-sub001/internal/config"
	"github.com/Irine7/securetech-sub001/internal/telemetry"
)

const usage = "usage: migrate <up|down|version|force N>"

func main() {
	cfg := config.Load("migrate")
	logger := telemetry.NewLogger(cfg.ServiceName, cfg.LogLevel)

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		logger.Error(usage)
		os.Exit(1)
	}

	if err := cfg.Require("POSTGRES_URL"); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// The migrations create the schema themselves, so the migrate
	// bookkeeping table lives in the default schema.
	m, err := migrate.New(cfg.MigrationsPath, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to create migrate instance", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	command := args[0]

	switch command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
			return
		}
		if err != nil {
			logger.Error("migration up failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to rollback")
			return
		}
		if err != nil {
			logger.Error("migration down failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("failed to get version", "error", err)
			os.Exit(1)
		}
		logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	case "force":
		if len(args) < 2 {
			logger.Error(usage)
			os.Exit(1)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Error("invalid version", "version", args[1], "error", err)
			os.Exit(1)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration version forced", "version", version)

	default:
		logger.Error("unknown command", "command", command)
		os.Exit(1)
	}
}
