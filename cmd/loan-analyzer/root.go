package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/loan-analyzer/internal/config"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/datasource"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/output"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	logLevel     string
	outputFormat string
	dataPath     string
	batchPolicy  string

	conf   *config.Configuration
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "loan-analyzer",
	Short: "Loan amortization and what-if scenario analysis",
	Long: `Loan analyzer computes amortization metrics for batches of loans and
simulates what-if scenarios over them.

It provides tools for:
  - Baseline analysis: level payment, total cost and interest share per loan
  - Rate shocks, prepayment and refinancing scenarios
  - Balance schedules and compounding frequency comparisons
  - Executive summaries and CSV/XLSX exports
  - A JSON HTTP API and an interactive menu

Loans are read from .csv or .xlsx files.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("path to configuration file (default %s when present)", constants.DefaultConfigFile))
	flags.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVarP(&outputFormat, "output", "o", "", "output format override: pretty, csv, json")
	flags.StringVar(&dataPath, "data", "", "loan file override (.csv or .xlsx)")
	flags.StringVar(&batchPolicy, "batch-policy", "", "malformed loan handling override: strict, skip")
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfiguration(cfgFile)
	if err != nil {
		return err
	}

	if outputFormat != "" {
		loaded.Output.Format = outputFormat
	}
	if dataPath != "" {
		loaded.Data.Path = dataPath
	}
	if batchPolicy != "" {
		loaded.Analysis.BatchPolicy = batchPolicy
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := initializeLogger(loaded.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	conf = loaded
	logger = l
	return nil
}

func loadConfiguration(path string) (*config.Configuration, error) {
	if path != "" {
		return config.LoadConfiguration(path)
	}
	if _, err := os.Stat(constants.DefaultConfigFile); err == nil {
		return config.LoadConfiguration(constants.DefaultConfigFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return config.Default()
}

func newEngine() (*scenario.Simulator, error) {
	opts, err := conf.SimulatorOptions()
	if err != nil {
		return nil, err
	}
	return scenario.NewSimulator(logger, opts), nil
}

// loadBatch reads the loan file named by the first argument, or the
// configured data path when no argument is given.
func loadBatch(args []string) ([]loans.LoanRecord, error) {
	path := conf.Data.Path
	if len(args) > 0 {
		path = args[0]
	}
	batch, err := datasource.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loan file loaded",
		zap.String("op", "main.loadBatch"),
		zap.String("path", path),
		zap.Int("loans", len(batch)),
	)
	return batch, nil
}

func render(cmd *cobra.Command, result any) error {
	return output.Render(cmd.OutOrStdout(), conf.Output.Format, result)
}

// recordRun records a run when a journal path is configured. Journal
// failures are logged; the run result is still rendered.
func recordRun(cmd *cobra.Command, entry export.Entry) {
	const op = "main.recordRun"
	if conf.Export.JournalPath == "" {
		return
	}
	j, err := export.OpenJournal(conf.Export.JournalPath, logger)
	if err != nil {
		logger.Warn("failed to open journal",
			zap.String("op", op),
			zap.String("path", conf.Export.JournalPath),
			zap.Error(err),
		)
		return
	}
	defer j.Close()

	if _, err := j.Record(cmd.Context(), entry); err != nil {
		logger.Warn("failed to journal run",
			zap.String("op", op),
			zap.String("kind", entry.Kind),
			zap.Error(err),
		)
	}
}
