package main

import (
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [loan-file]",
	Short: "Compute baseline metrics for every loan",
	Long: `Compute the level monthly payment, total cost, interest share and the
compound versus simple interest projection of every loan in the file.

Examples:
  loan-analyzer analyze loans.csv
  loan-analyzer analyze loans.xlsx -o json
  loan-analyzer analyze --batch-policy skip`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	batch, err := loadBatch(args)
	if err != nil {
		return err
	}

	bv := validation.BatchValidator{Batch: batch}
	for _, warning := range bv.ValidateAll() {
		logger.Warn("Loan warning: "+warning,
			zap.String("op", "main.runAnalyze"),
		)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	analysis, err := engine.AnalyzeBatch(batch)
	if err != nil {
		return err
	}
	recordRun(cmd, export.AnalysisEntry(analysis))
	return render(cmd, analysis)
}
