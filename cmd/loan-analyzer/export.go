package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export [loan-file]",
	Short: "Write baseline metrics to CSV and XLSX files",
	Long: `Analyze a loan batch and write its metrics to the configured export
files. Flags override export.csvPath and export.xlsxPath; an empty path
disables that export.

Examples:
  loan-analyzer export loans.csv
  loan-analyzer export loans.csv --csv results.csv --xlsx results.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	exportCSVPath  string
	exportXLSXPath string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "CSV destination (default from config)")
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "XLSX destination (default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	csvPath := conf.Export.CSVPath
	if cmd.Flags().Changed("csv") {
		csvPath = exportCSVPath
	}
	xlsxPath := conf.Export.XLSXPath
	if cmd.Flags().Changed("xlsx") {
		xlsxPath = exportXLSXPath
	}
	if csvPath == "" && xlsxPath == "" {
		return errors.New("no export destination configured")
	}

	batch, err := loadBatch(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	analysis, err := engine.AnalyzeBatch(batch)
	if err != nil {
		return err
	}

	targets := []struct {
		path  string
		write func(io.Writer, []loans.DerivedMetrics) error
	}{
		{csvPath, export.WriteMetricsCSV},
		{xlsxPath, export.WriteMetricsXLSX},
	}
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		if err := writeFile(target.path, analysis.Metrics, target.write); err != nil {
			return err
		}
		logger.Info("metrics exported",
			zap.String("op", "main.runExport"),
			zap.String("path", target.path),
			zap.Int("loans", len(analysis.Metrics)),
			zap.Int("rejected", len(analysis.Rejected)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d loans to %s\n", len(analysis.Metrics), target.path)
	}
	return nil
}

func writeFile(path string, metrics []loans.DerivedMetrics, write func(io.Writer, []loans.DerivedMetrics) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, metrics); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
