// Command backfill records a PARSE_ERROR error ledger row for every failed
// extraction job that has none, so every failure is classified.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/config"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/repository/sqldb"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/service"
)

func main() {
	if err := run(); err != nil {
		logger.GetDefault().WithError(err).Fatal("backfill failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetDefaultLogger(logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      os.Stdout,
		ServiceName: cfg.Log.ServiceName,
	}))

	db, err := sqldb.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.SetComponent(ctx, "backfill")

	jobRepo := sqldb.NewJobRepo(db, cfg.Jobs.LockTimeout)
	errSvc := service.NewErrorService(sqldb.NewErrorRepo(db))

	res, err := service.BackfillJobErrors(ctx, jobRepo, errSvc)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).WithFields(logger.Fields{
		"scanned":  res.Scanned,
		"recorded": res.Recorded,
		"skipped":  res.Skipped,
	}).Info("backfill complete")
	return nil
}
