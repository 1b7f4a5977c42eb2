package main

import (
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/spf13/cobra"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run what-if scenarios over a loan batch",
	Long: `Run what-if scenarios over a loan batch. Parameters default to the
scenarios section of the configuration.

Subcommands:
  rate-shock  - Shift every rate by a list of percentage-point deltas
  prepayment  - Pay a fixed fraction above the level payment
  refinance   - Compare each loan against a single new rate

Examples:
  loan-analyzer scenario rate-shock loans.csv --deltas -2,-1,1,2
  loan-analyzer scenario prepayment loans.csv --extra 0.10
  loan-analyzer scenario refinance loans.csv --rate 3.5`,
}

var rateShockCmd = &cobra.Command{
	Use:   "rate-shock [loan-file]",
	Short: "Recompute payments with shifted interest rates",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRateShock,
}

var prepaymentCmd = &cobra.Command{
	Use:   "prepayment [loan-file]",
	Short: "Measure savings from paying above the level payment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrepayment,
}

var refinanceCmd = &cobra.Command{
	Use:   "refinance [loan-file]",
	Short: "Evaluate refinancing every loan at a new rate",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRefinance,
}

var (
	shockDeltas   []float64
	extraFraction float64
	refinanceRate float64
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(rateShockCmd)
	scenarioCmd.AddCommand(prepaymentCmd)
	scenarioCmd.AddCommand(refinanceCmd)

	rateShockCmd.Flags().Float64SliceVar(&shockDeltas, "deltas", nil, "rate deltas in percentage points (default from config)")
	prepaymentCmd.Flags().Float64Var(&extraFraction, "extra", 0, "extra payment as a fraction of the level payment (default from config)")
	refinanceCmd.Flags().Float64Var(&refinanceRate, "rate", 0, "new annual rate in percent (default from config)")
}

func runRateShock(cmd *cobra.Command, args []string) error {
	deltas := conf.Scenarios.RateShock.Deltas
	if cmd.Flags().Changed("deltas") {
		deltas = shockDeltas
	}

	batch, err := loadBatch(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	report, err := engine.RateShock(batch, deltas)
	if err != nil {
		return err
	}
	recordRun(cmd, export.RateShockEntry(report))
	return render(cmd, report)
}

func runPrepayment(cmd *cobra.Command, args []string) error {
	fraction := conf.Scenarios.Prepayment.ExtraFraction
	if cmd.Flags().Changed("extra") {
		fraction = extraFraction
	}

	batch, err := loadBatch(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	report, err := engine.Prepayment(batch, fraction)
	if err != nil {
		return err
	}
	recordRun(cmd, export.PrepaymentEntry(report))
	return render(cmd, report)
}

func runRefinance(cmd *cobra.Command, args []string) error {
	rate := conf.Scenarios.Refinance.NewRate
	if cmd.Flags().Changed("rate") {
		rate = refinanceRate
	}

	batch, err := loadBatch(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	report, err := engine.Refinance(batch, rate)
	if err != nil {
		return err
	}
	recordRun(cmd, export.RefinanceEntry(report))
	return render(cmd, report)
}
