// Command ledgerctl is the operator CLI for the extraction job ledger and the
// correction ledger.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/config"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/repository/sqldb"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/service"
)

var version = "dev"

var (
	noColor     bool
	autoMigrate bool

	// ledger is opened by the root command before any subcommand runs.
	ledger *app
)

type app struct {
	db          *sqlx.DB
	jobs        service.JobService
	errors      service.ErrorService
	extractions service.ExtractionService
	corrections service.CorrectionService
	values      service.EffectiveValueService
	reports     service.ReportService
}

func openApp(cfg *config.Config) (*app, error) {
	db, err := sqldb.NewDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	if autoMigrate {
		if err := sqldb.MigrateUp(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	jobRepo := sqldb.NewJobRepo(db, cfg.Jobs.LockTimeout)
	errorRepo := sqldb.NewErrorRepo(db)
	extractionRepo := sqldb.NewExtractionRepo(db)
	correctionRepo := sqldb.NewCorrectionRepo(db)
	valueRepo := sqldb.NewEffectiveValueRepo(db)
	reportRepo := sqldb.NewReportRepo(db)

	return &app{
		db:          db,
		jobs:        service.NewJobService(jobRepo, cfg.Jobs.DefaultMaxRetries),
		errors:      service.NewErrorService(errorRepo),
		extractions: service.NewExtractionService(extractionRepo),
		corrections: service.NewCorrectionService(correctionRepo),
		values:      service.NewEffectiveValueService(valueRepo),
		reports:     service.NewReportService(reportRepo, valueRepo, correctionRepo),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and drive the extraction job and correction ledgers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger.SetDefaultLogger(logger.New(&logger.Config{
				Level:       cfg.Log.Level,
				Format:      cfg.Log.Format,
				Output:      cmd.ErrOrStderr(),
				ServiceName: cfg.Log.ServiceName,
			}))

			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			ledger = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ledger == nil {
				return nil
			}
			err := ledger.Close()
			ledger = nil
			return err
		},
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored status output")
	root.PersistentFlags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before running the command")

	root.AddCommand(
		newJobCmd(),
		newErrorCmd(),
		newExtractionCmd(),
		newCorrectionCmd(),
		newEffectiveCmd(),
		newReportCmd(),
	)
	return root
}

func main() {
	err := newRootCmd().Execute()
	if ledger != nil {
		_ = ledger.Close()
	}
	if err != nil {
		printError("%v", err)
		printHint(err)
		os.Exit(exitCode(err))
	}
}

// printHint explains ledger rejections an operator is likely to hit.
func printHint(err error) {
	var tv *domain.TransitionViolation
	var av *domain.AppendOnlyViolation
	switch {
	case errors.As(err, &tv):
		if (&domain.ExtractionJob{Status: tv.From}).IsTerminal() {
			printStatus("hint", "%s is terminal; queue a new job instead", tv.From)
		} else {
			printStatus("hint", "from %s the job may move to %v", tv.From, tv.Allowed)
		}
	case errors.As(err, &av):
		printStatus("hint", "append a new correction with 'ledgerctl correction append' instead")
	case errors.Is(err, domain.ErrJobClaimConflict):
		printStatus("hint", "another worker holds this job; pick a different pending job")
	case errors.Is(err, domain.ErrRetryLimitReached):
		printStatus("hint", "the retry budget is spent; the document needs human review")
	}
}

// exitCode maps ledger rejections to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransitionViolation),
		errors.Is(err, domain.ErrAppendOnlyViolation),
		errors.Is(err, domain.ErrImmutableField):
		return 3
	case errors.Is(err, domain.ErrJobClaimConflict):
		return 4
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrExtractionNotFound),
		errors.Is(err, domain.ErrCorrectionNotFound):
		return 2
	default:
		return 1
	}
}
