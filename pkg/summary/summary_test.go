package summary

import (
	"testing"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metric(id, purpose string, principal, rate float64, term int, cost float64) loans.DerivedMetrics {
	return loans.DerivedMetrics{
		LoanRecord: loans.LoanRecord{
			ID: id, Name: "Borrower " + id, Purpose: purpose,
			Principal: principal, AnnualRatePct: rate, TermMonths: term,
		},
		TotalCost:     cost,
		TotalInterest: cost - principal,
	}
}

func sampleMetrics() []loans.DerivedMetrics {
	return []loans.DerivedMetrics{
		metric("A", "home", 200_000, 4.0, 360, 340_000),
		metric("B", "car", 20_000, 8.5, 48, 23_600),
		metric("C", "home", 100_000, 6.0, 120, 133_000),
		metric("D", "education", 15_000, 9.0, 72, 19_400),
		metric("E", "car", 10_000, 5.0, 36, 23_600),
	}
}

func TestSummarizeTotals(t *testing.T) {
	s := Summarize(sampleMetrics())

	assert.Equal(t, 5, s.Totals.Loans)
	assert.InDelta(t, 345_000, s.Totals.Principal, 1e-9)
	assert.InDelta(t, 539_600, s.Totals.TotalCost, 1e-9)
	assert.InDelta(t, 194_600, s.Totals.TotalInterest, 1e-9)
	assert.InDelta(t, 6.5, s.Totals.MeanRate, 1e-12)
}

func TestSummarizeByPurpose(t *testing.T) {
	s := Summarize(sampleMetrics())

	require.Len(t, s.ByPurpose, 3)
	assert.Equal(t, []string{"car", "education", "home"}, []string{
		s.ByPurpose[0].Purpose, s.ByPurpose[1].Purpose, s.ByPurpose[2].Purpose,
	})

	home := s.ByPurpose[2]
	assert.Equal(t, 2, home.Loans)
	assert.InDelta(t, 300_000, home.Principal, 1e-9)
	assert.InDelta(t, 150_000, home.MeanPrincipal, 1e-9)
	assert.InDelta(t, 5.0, home.MeanRate, 1e-12)
	assert.InDelta(t, 473_000, home.TotalCost, 1e-9)
}

func TestSummarizeCostliestIsStable(t *testing.T) {
	s := Summarize(sampleMetrics())

	require.Len(t, s.Costliest, 3)
	assert.Equal(t, "A", s.Costliest[0].LoanID)
	assert.Equal(t, "C", s.Costliest[1].LoanID)
	// B and E tie on cost; B comes first in the input.
	assert.Equal(t, "B", s.Costliest[2].LoanID)
}

func TestSummarizeOpportunities(t *testing.T) {
	s := Summarize(sampleMetrics())

	o := s.Opportunities
	assert.Equal(t, 2, o.HighRateLoans)
	assert.InDelta(t, 43_000, o.HighRateCost, 1e-9)
	assert.InDelta(t, 6_450, o.PotentialSavings, 1e-9)
	assert.Equal(t, 3, o.LongTermLoans)
}

func TestSummarizeThresholdsAreExclusive(t *testing.T) {
	s := Summarize([]loans.DerivedMetrics{metric("X", "misc", 1_000, 7.0, 60, 1_200)})
	assert.Equal(t, 0, s.Opportunities.HighRateLoans)
	assert.Equal(t, 0, s.Opportunities.LongTermLoans)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Totals.Loans)
	assert.Equal(t, 0.0, s.Totals.MeanRate)
	assert.Empty(t, s.ByPurpose)
	assert.Empty(t, s.Costliest)
	assert.Equal(t, 0.0, s.Opportunities.PotentialSavings)
}

func TestSummarizeBlankPurpose(t *testing.T) {
	s := Summarize([]loans.DerivedMetrics{metric("X", "", 1_000, 3.0, 12, 1_020)})
	require.Len(t, s.ByPurpose, 1)
	assert.Equal(t, "unspecified", s.ByPurpose[0].Purpose)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(Summarize(sampleMetrics()))

	assert.Contains(t, md, "# Loan portfolio summary")
	assert.Contains(t, md, "- Loans analyzed: 5")
	assert.Contains(t, md, "- Principal lent: $345,000.00")
	assert.Contains(t, md, "| home | 2 | $300,000.00 | $150,000.00 | 5.0% | $473,000.00 |")
	assert.Contains(t, md, "1. Borrower A: $340,000.00 (home)")
	assert.Contains(t, md, "- 2 loans above 7.0% could benefit from refinancing")
	assert.Contains(t, md, "- Estimated potential savings: $6,450.00")
	assert.Contains(t, md, "- 3 loans longer than 60 months could benefit from prepayment")
}

func TestMarkdownEmpty(t *testing.T) {
	md := Markdown(Summarize(nil))
	assert.Contains(t, md, "_No loans._")
	assert.Contains(t, md, "- No high-rate or long-term loans found")
}
