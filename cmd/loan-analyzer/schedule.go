package main

import (
	"fmt"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [loan-file]",
	Short: "Print month-by-month balance schedules",
	Long: `Print the month-by-month payment, interest, principal and remaining
balance of loans in the file. By default the first valid loans are shown.

Examples:
  loan-analyzer schedule loans.csv
  loan-analyzer schedule loans.csv --loan L7 -o csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compare compounding frequencies for a single amount",
	Long: `Compute the level monthly payment for an amount, rate and term and
compare the compound interest it accrues under several compounding
frequencies.

Example:
  loan-analyzer calc --principal 10000 --rate 5 --term 24`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

var (
	scheduleLoanID string
	scheduleLimit  int

	calcPrincipal   float64
	calcRate        float64
	calcTerm        int
	calcFrequencies []int
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(calcCmd)

	scheduleCmd.Flags().StringVar(&scheduleLoanID, "loan", "", "only show the loan with this ID or name")
	scheduleCmd.Flags().IntVar(&scheduleLimit, "limit", constants.ScheduleSampleSize, "maximum number of schedules")

	calcCmd.Flags().Float64Var(&calcPrincipal, "principal", 10000, "amount borrowed")
	calcCmd.Flags().Float64Var(&calcRate, "rate", 5, "annual rate in percent")
	calcCmd.Flags().IntVar(&calcTerm, "term", 12, "term in months")
	calcCmd.Flags().IntSliceVar(&calcFrequencies, "frequencies", constants.DefaultComparisonFrequencies, "compounding periods per year to compare")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	batch, err := loadBatch(args)
	if err != nil {
		return err
	}

	var schedules []output.Schedule
	for i, loan := range batch {
		if scheduleLimit > 0 && len(schedules) == scheduleLimit {
			break
		}
		if scheduleLoanID != "" && loan.Label() != scheduleLoanID {
			continue
		}
		payments, err := loans.BalanceSchedule(loan)
		if err != nil {
			logger.Warn("skipping malformed loan",
				zap.String("op", "main.runSchedule"),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		schedules = append(schedules, output.Schedule{LoanID: loan.Label(), Payments: payments})
	}

	if scheduleLoanID != "" && len(schedules) == 0 {
		return fmt.Errorf("no valid loan %q found", scheduleLoanID)
	}
	return render(cmd, schedules)
}

type calcResult struct {
	MonthlyPayment float64                `json:"monthly_payment"`
	Comparison     []loans.CompoundResult `json:"comparison"`
}

func runCalc(cmd *cobra.Command, args []string) error {
	payment, err := loans.MonthlyPayment(calcPrincipal, calcRate, calcTerm)
	if err != nil {
		return err
	}
	comparison, err := loans.CompareFrequencies(calcPrincipal, calcRate, calcTerm, calcFrequencies)
	if err != nil {
		return err
	}

	if conf.Output.Format != constants.OutputFormatPretty {
		return render(cmd, calcResult{MonthlyPayment: payment, Comparison: comparison})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Monthly payment: %.2f\n\n", payment)
	return render(cmd, comparison)
}
