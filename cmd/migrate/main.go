package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/config"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/repository/sqldb"
)

const usage = "Usage: migrate [up|down|steps N|version]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("failed to load config")
	}
	log := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Log.ServiceName,
	}).WithField(logger.FieldComponent, "migrate").WithField("driver", cfg.DB.Driver)

	db, err := sqldb.NewDB(&cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	m, err := sqldb.NewMigrator(db)
	if err != nil {
		_ = db.Close()
		log.WithError(err).Fatal("failed to create migrate instance")
	}
	defer m.Close()

	if err := run(m, os.Args[1:], log); err != nil {
		_, _ = m.Close()
		log.WithError(err).Fatal("migration failed")
	}
}

func run(m *migrate.Migrate, args []string, log *logger.Logger) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("migrations applied successfully")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Info("migrations reverted successfully")

	case "steps":
		if len(args) < 2 {
			return errors.New("steps requires a number argument")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid steps argument: %w", err)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		log.WithField("steps", n).Info("migration steps applied")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("unknown command: %s\n", args[0])
		fmt.Println(usage)
		os.Exit(1)
	}
	return nil
}
