// Package output provides utilities for formatting and displaying analysis results.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/iwvelando/loan-analyzer/pkg/summary"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Schedule pairs a loan with its balance schedule for display.
type Schedule struct {
	LoanID   string          `json:"loan_id"`
	Payments []loans.Payment `json:"payments"`
}

// Render writes a result in the requested format. Supported results are
// scenario.BatchAnalysis, the three scenario reports, []Schedule,
// []loans.CompoundResult and summary.Summary.
func Render(w io.Writer, format string, result any) error {
	switch format {
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatPretty:
		return PrettyFormat(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// JSONFormat outputs indented JSON.
func JSONFormat(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, result any) error {
	switch r := result.(type) {
	case scenario.BatchAnalysis:
		return export.WriteMetricsCSV(w, r.Metrics)
	case scenario.RateShockReport:
		return export.WriteRateShockCSV(w, r)
	case scenario.PrepaymentReport:
		return export.WritePrepaymentCSV(w, r)
	case scenario.RefinanceReport:
		return export.WriteRefinanceCSV(w, r)
	case []Schedule:
		for _, s := range r {
			if err := export.WriteScheduleCSV(w, s.LoanID, s.Payments); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("csv output is not available for %T", result)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result any) error {
	p := message.NewPrinter(language.English)
	switch r := result.(type) {
	case scenario.BatchAnalysis:
		prettyAnalysis(w, p, r)
	case scenario.RateShockReport:
		prettyRateShock(w, p, r)
	case scenario.PrepaymentReport:
		prettyPrepayment(w, p, r)
	case scenario.RefinanceReport:
		prettyRefinance(w, p, r)
	case []Schedule:
		prettySchedules(w, p, r)
	case []loans.CompoundResult:
		prettyCompound(w, p, r)
	case summary.Summary:
		_, err := io.WriteString(w, summary.Markdown(r))
		return err
	default:
		return fmt.Errorf("pretty output is not available for %T", result)
	}
	return nil
}

func prettyRejected(w io.Writer, rejected []scenario.RecordError) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSkipped %d malformed loans:\n", len(rejected))
	for _, r := range rejected {
		fmt.Fprintf(w, "  #%d %s: %s\n", r.Index, r.LoanID, r.Message)
	}
}

func prettyAnalysis(w io.Writer, p *message.Printer, a scenario.BatchAnalysis) {
	fmt.Fprintf(w, "--- Loan analysis (%d loans) ---\n", len(a.Metrics))
	fmt.Fprintf(w, "Loan         | Principal       | Rate   | Term | Payment       | Total cost      | Interest %%\n")
	fmt.Fprintf(w, "____         | _______________ | ______ | ____ | _____________ | _______________ | __________\n")
	for _, m := range a.Metrics {
		_, _ = p.Fprintf(w, "%-12s | $%14.2f | %5.2f%% | %4d | $%12.2f | $%14.2f | %9.2f%%\n",
			m.Label(), m.Principal, m.AnnualRatePct, m.TermMonths, m.MonthlyPayment, m.TotalCost, m.InterestPct)
	}
	prettyRejected(w, a.Rejected)
}

func prettyRateShock(w io.Writer, p *message.Printer, r scenario.RateShockReport) {
	fmt.Fprintf(w, "--- Rate shock (%d loans) ---\n", len(r.Results))
	for _, res := range r.Results {
		_, _ = p.Fprintf(w, "%s at %.2f%%: payment $%.2f, cost $%.2f\n",
			res.LoanID, res.OriginalRate, res.OriginalPayment, res.OriginalCost)
		for _, s := range res.Shocks {
			floored := ""
			if s.Floored {
				floored = " (floored)"
			}
			_, _ = p.Fprintf(w, "  %+.2f pts -> %.2f%%%s: payment $%.2f, impact $%+.2f\n",
				s.Delta, s.NewRate, floored, s.NewPayment, s.Impact)
		}
	}
	fmt.Fprintf(w, "\nMean impact per delta:\n")
	for _, m := range r.MeanImpact {
		_, _ = p.Fprintf(w, "  %+.2f pts: $%+.2f\n", m.Delta, m.MeanImpact)
	}
	if r.StressDelta != nil {
		_, _ = p.Fprintf(w, "\nMost affected at %+.2f pts:\n", *r.StressDelta)
		for i, s := range r.TopStressed {
			_, _ = p.Fprintf(w, "  %d. %s: $%+.2f\n", i+1, s.LoanID, s.Impact)
		}
	}
	prettyRejected(w, r.Rejected)
}

func prettyPrepayment(w io.Writer, p *message.Printer, r scenario.PrepaymentReport) {
	_, _ = p.Fprintf(w, "--- Prepayment at +%.0f%% (%d loans) ---\n", r.ExtraFraction*100, len(r.Results))
	for _, res := range r.Results {
		_, _ = p.Fprintf(w, "%s: $%.2f -> $%.2f, %d of %d months, saves $%.2f\n",
			res.LoanID, res.BaselinePayment, res.BoostedPayment, res.MonthsElapsed, res.BaselineMonths, res.MoneySaved)
		if res.CapReached {
			fmt.Fprintf(w, "  warning: %s\n", res.Warning)
		}
	}
	_, _ = p.Fprintf(w, "\nMean money saved: $%.2f\n", r.MeanMoneySaved)
	_, _ = p.Fprintf(w, "Mean months saved: %.1f\n", r.MeanMonthsSaved)
	if len(r.TopSavers) > 0 {
		fmt.Fprintf(w, "\nLargest savings:\n")
		for i, s := range r.TopSavers {
			_, _ = p.Fprintf(w, "  %d. %s: $%.2f (%d months)\n", i+1, s.LoanID, s.MoneySaved, s.MonthsSaved)
		}
	}
	prettyRejected(w, r.Rejected)
}

func prettyRefinance(w io.Writer, p *message.Printer, r scenario.RefinanceReport) {
	_, _ = p.Fprintf(w, "--- Refinance at %.2f%% (%d loans) ---\n", r.NewRate, len(r.Results))
	for _, res := range r.Results {
		verdict := "not worth it"
		if res.WorthIt {
			verdict = "worth it"
		}
		_, _ = p.Fprintf(w, "%s: %.2f%% -> %.2f%%, saves $%.2f (%.1f%%), %s\n",
			res.LoanID, res.CurrentRate, res.NewRate, res.Savings, res.SavingsPct, verdict)
	}
	_, _ = p.Fprintf(w, "\nWorth refinancing: %d of %d (%.1f%%)\n", r.WorthItCount, len(r.Results), r.WorthItShare*100)
	_, _ = p.Fprintf(w, "Total savings: $%.2f\n", r.TotalSavings)
	_, _ = p.Fprintf(w, "Mean savings: $%.2f\n", r.MeanSavings)
	if len(r.TopOpportunities) > 0 {
		fmt.Fprintf(w, "\nBest opportunities:\n")
		for i, o := range r.TopOpportunities {
			_, _ = p.Fprintf(w, "  %d. %s: $%.2f\n", i+1, o.LoanID, o.Savings)
		}
	}
	prettyRejected(w, r.Rejected)
}

func prettySchedules(w io.Writer, p *message.Printer, schedules []Schedule) {
	for i, s := range schedules {
		fmt.Fprintf(w, "--- Balance schedule for %s ---\n", s.LoanID)
		fmt.Fprintf(w, "Month | Payment       | Principal     | Interest      | Balance\n")
		fmt.Fprintf(w, "_____ | _____________ | _____________ | _____________ | _______\n")
		for _, pay := range s.Payments {
			_, _ = p.Fprintf(w, "%5d | $%12.2f | $%12.2f | $%12.2f | $%.2f\n",
				pay.Month, pay.Payment, pay.Principal, pay.Interest, pay.RemainingPrincipal)
		}
		if i < len(schedules)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

func prettyCompound(w io.Writer, p *message.Printer, results []loans.CompoundResult) {
	fmt.Fprintf(w, "Frequency    | Final amount    | Compound int.  | Simple int.    | Difference\n")
	fmt.Fprintf(w, "_________    | _______________ | ______________ | ______________ | __________\n")
	for _, r := range results {
		_, _ = p.Fprintf(w, "%-12s | $%14.2f | $%13.2f | $%13.2f | $%.2f\n",
			r.FrequencyLabel, r.FinalAmount, r.CompoundInterest, r.SimpleInterest, r.CompoundMinusSimple)
	}
}
