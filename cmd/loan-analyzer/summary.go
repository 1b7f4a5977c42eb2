package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/summary"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [loan-file]",
	Short: "Print an executive summary of a loan batch",
	Long: `Print portfolio totals, a breakdown by purpose, the costliest loans and
refinancing or prepayment opportunities. Pretty output is rendered as
styled Markdown; --plain prints the raw Markdown instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

var (
	summaryPlain bool
	summaryWidth int
)

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().BoolVar(&summaryPlain, "plain", false, "print raw Markdown")
	summaryCmd.Flags().IntVar(&summaryWidth, "width", 100, "word wrap width of rendered output")
}

func runSummary(cmd *cobra.Command, args []string) error {
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
	s := summary.Summarize(analysis.Metrics)

	if conf.Output.Format != constants.OutputFormatPretty || summaryPlain {
		return render(cmd, s)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(summaryWidth),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	styled, err := renderer.Render(summary.Markdown(s))
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), styled)
	return err
}
