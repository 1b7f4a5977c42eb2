package summary

import (
	"strings"

	"github.com/iwvelando/loan-analyzer/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Markdown renders the summary as a Markdown document.
func Markdown(s Summary) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("# Loan portfolio summary\n\n")

	b.WriteString("## Totals\n\n")
	p.Fprintf(&b, "- Loans analyzed: %d\n", s.Totals.Loans)
	p.Fprintf(&b, "- Principal lent: %s\n", format.Currency(s.Totals.Principal))
	p.Fprintf(&b, "- Total cost: %s\n", format.Currency(s.Totals.TotalCost))
	p.Fprintf(&b, "- Total interest: %s\n", format.Currency(s.Totals.TotalInterest))
	p.Fprintf(&b, "- Mean annual rate: %.2f%%\n\n", s.Totals.MeanRate)

	b.WriteString("## By purpose\n\n")
	if len(s.ByPurpose) == 0 {
		b.WriteString("_No loans._\n\n")
	} else {
		b.WriteString("| Purpose | Loans | Principal | Mean principal | Mean rate | Total cost |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|\n")
		for _, g := range s.ByPurpose {
			p.Fprintf(&b, "| %s | %d | %s | %s | %.1f%% | %s |\n",
				escapeCell(g.Purpose), g.Loans,
				format.Currency(g.Principal), format.Currency(g.MeanPrincipal),
				g.MeanRate, format.Currency(g.TotalCost))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Costliest loans\n\n")
	for i, l := range s.Costliest {
		name := l.Name
		if name == "" {
			name = l.LoanID
		}
		p.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, escapeCell(name), format.Currency(l.TotalCost), l.Purpose)
	}
	if len(s.Costliest) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Savings opportunities\n\n")
	o := s.Opportunities
	if o.HighRateLoans > 0 {
		p.Fprintf(&b, "- %d loans above %.1f%% could benefit from refinancing\n", o.HighRateLoans, o.HighRateThreshold)
		p.Fprintf(&b, "- Estimated potential savings: %s\n", format.Currency(o.PotentialSavings))
	}
	if o.LongTermLoans > 0 {
		p.Fprintf(&b, "- %d loans longer than %d months could benefit from prepayment\n", o.LongTermLoans, o.LongTermThreshold)
	}
	if o.HighRateLoans == 0 && o.LongTermLoans == 0 {
		b.WriteString("- No high-rate or long-term loans found\n")
	}

	return b.String()
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
