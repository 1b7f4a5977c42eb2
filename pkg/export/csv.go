// Package export writes analysis results to CSV and XLSX files and keeps a
// SQLite journal of scenario runs.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/shopspring/decimal"
)

// fixed renders a value with exactly two decimals.
func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// MetricsHeader is the column layout of metrics exports.
var MetricsHeader = []string{
	"id", "name", "age", "purpose", "principal", "annual_rate_pct", "term_months",
	"monthly_payment", "total_cost", "total_interest", "interest_pct",
	"compound_final_amount", "simple_amount", "compound_minus_simple",
}

func metricsRow(m loans.DerivedMetrics) []string {
	return []string{
		m.ID, m.Name, itoa(m.Age), m.Purpose, fixed(m.Principal), fixed(m.AnnualRatePct), itoa(m.TermMonths),
		fixed(m.MonthlyPayment), fixed(m.TotalCost), fixed(m.TotalInterest), fixed(m.InterestPct),
		fixed(m.CompoundFinalAmount), fixed(m.SimpleAmount), fixed(m.CompoundMinusSimple),
	}
}

// WriteMetricsCSV writes one row per analyzed loan.
func WriteMetricsCSV(w io.Writer, metrics []loans.DerivedMetrics) error {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, metricsRow(m))
	}
	return writeAll(w, MetricsHeader, rows)
}

// WriteRateShockCSV writes one row per loan and delta.
func WriteRateShockCSV(w io.Writer, report scenario.RateShockReport) error {
	header := []string{
		"loan_id", "name", "original_rate", "original_payment", "original_cost",
		"delta", "new_rate", "floored", "new_payment", "new_cost", "impact",
	}
	var rows [][]string
	for _, r := range report.Results {
		for _, s := range r.Shocks {
			rows = append(rows, []string{
				r.LoanID, r.Name, fixed(r.OriginalRate), fixed(r.OriginalPayment), fixed(r.OriginalCost),
				fixed(s.Delta), fixed(s.NewRate), strconv.FormatBool(s.Floored),
				fixed(s.NewPayment), fixed(s.NewCost), fixed(s.Impact),
			})
		}
	}
	return writeAll(w, header, rows)
}

// WritePrepaymentCSV writes one row per loan.
func WritePrepaymentCSV(w io.Writer, report scenario.PrepaymentReport) error {
	header := []string{
		"loan_id", "name", "baseline_payment", "boosted_payment", "baseline_months", "months_elapsed",
		"months_saved", "baseline_cost", "realized_cost", "money_saved", "remaining_balance", "cap_reached",
	}
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, []string{
			r.LoanID, r.Name, fixed(r.BaselinePayment), fixed(r.BoostedPayment),
			itoa(r.BaselineMonths), itoa(r.MonthsElapsed), itoa(r.MonthsSaved),
			fixed(r.BaselineCost), fixed(r.RealizedCost), fixed(r.MoneySaved),
			fixed(r.RemainingBalance), strconv.FormatBool(r.CapReached),
		})
	}
	return writeAll(w, header, rows)
}

// WriteRefinanceCSV writes one row per loan.
func WriteRefinanceCSV(w io.Writer, report scenario.RefinanceReport) error {
	header := []string{
		"loan_id", "name", "current_rate", "new_rate", "current_payment", "new_payment",
		"current_cost", "new_cost", "savings", "savings_pct", "worth_it",
	}
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, []string{
			r.LoanID, r.Name, fixed(r.CurrentRate), fixed(r.NewRate), fixed(r.CurrentPayment), fixed(r.NewPayment),
			fixed(r.CurrentCost), fixed(r.NewCost), fixed(r.Savings), fixed(r.SavingsPct), strconv.FormatBool(r.WorthIt),
		})
	}
	return writeAll(w, header, rows)
}

// WriteScheduleCSV writes a loan's month-by-month balance schedule.
func WriteScheduleCSV(w io.Writer, loanID string, schedule []loans.Payment) error {
	header := []string{"loan_id", "month", "payment", "principal", "interest", "remaining_principal"}
	rows := make([][]string, 0, len(schedule))
	for _, p := range schedule {
		rows = append(rows, []string{
			loanID, itoa(p.Month), fixed(p.Payment), fixed(p.Principal), fixed(p.Interest), fixed(p.RemainingPrincipal),
		})
	}
	return writeAll(w, header, rows)
}
