// Package summary condenses a batch analysis into an executive summary.
package summary

import (
	"cmp"
	"slices"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
)

// Totals are batch-wide sums.
type Totals struct {
	Loans         int     `json:"loans"`
	Principal     float64 `json:"principal"`
	TotalCost     float64 `json:"total_cost"`
	TotalInterest float64 `json:"total_interest"`
	MeanRate      float64 `json:"mean_rate"`
}

// PurposeGroup aggregates the loans sharing one purpose.
type PurposeGroup struct {
	Purpose       string  `json:"purpose"`
	Loans         int     `json:"loans"`
	Principal     float64 `json:"principal"`
	MeanPrincipal float64 `json:"mean_principal"`
	MeanRate      float64 `json:"mean_rate"`
	TotalCost     float64 `json:"total_cost"`
}

// CostlyLoan is one entry of the costliest-loans ranking.
type CostlyLoan struct {
	LoanID    string  `json:"loan_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Purpose   string  `json:"purpose,omitempty"`
	TotalCost float64 `json:"total_cost"`
}

// Opportunities flags loans likely to benefit from refinancing or prepayment.
type Opportunities struct {
	HighRateThreshold float64 `json:"high_rate_threshold"`
	HighRateLoans     int     `json:"high_rate_loans"`
	HighRateCost      float64 `json:"high_rate_cost"`
	PotentialSavings  float64 `json:"potential_savings"`
	LongTermThreshold int     `json:"long_term_threshold"`
	LongTermLoans     int     `json:"long_term_loans"`
}

// Summary is the executive summary of a batch.
type Summary struct {
	Totals        Totals         `json:"totals"`
	ByPurpose     []PurposeGroup `json:"by_purpose"`
	Costliest     []CostlyLoan   `json:"costliest"`
	Opportunities Opportunities  `json:"opportunities"`
}

// Summarize builds the executive summary of analyzed loans. Purposes are
// listed alphabetically; a blank purpose is grouped as "unspecified".
func Summarize(metrics []loans.DerivedMetrics) Summary {
	s := Summary{
		ByPurpose: []PurposeGroup{},
		Opportunities: Opportunities{
			HighRateThreshold: constants.HighRateThreshold,
			LongTermThreshold: constants.LongTermThreshold,
		},
	}

	rates := make([]float64, 0, len(metrics))
	groups := make(map[string]*PurposeGroup)
	groupRates := make(map[string][]float64)

	for _, m := range metrics {
		s.Totals.Loans++
		s.Totals.Principal += m.Principal
		s.Totals.TotalCost += m.TotalCost
		s.Totals.TotalInterest += m.TotalInterest
		rates = append(rates, m.AnnualRatePct)

		purpose := m.Purpose
		if purpose == "" {
			purpose = "unspecified"
		}
		group, ok := groups[purpose]
		if !ok {
			group = &PurposeGroup{Purpose: purpose}
			groups[purpose] = group
		}
		group.Loans++
		group.Principal += m.Principal
		group.TotalCost += m.TotalCost
		groupRates[purpose] = append(groupRates[purpose], m.AnnualRatePct)

		if m.AnnualRatePct > constants.HighRateThreshold {
			s.Opportunities.HighRateLoans++
			s.Opportunities.HighRateCost += m.TotalCost
		}
		if m.TermMonths > constants.LongTermThreshold {
			s.Opportunities.LongTermLoans++
		}
	}

	s.Totals.MeanRate = mathutil.Mean(rates)
	s.Opportunities.PotentialSavings = s.Opportunities.HighRateCost * constants.HighRateSavingsEstimate

	for purpose, group := range groups {
		group.MeanPrincipal = group.Principal / float64(group.Loans)
		group.MeanRate = mathutil.Mean(groupRates[purpose])
		s.ByPurpose = append(s.ByPurpose, *group)
	}
	slices.SortFunc(s.ByPurpose, func(a, b PurposeGroup) int {
		return cmp.Compare(a.Purpose, b.Purpose)
	})

	ranked := slices.Clone(metrics)
	slices.SortStableFunc(ranked, func(a, b loans.DerivedMetrics) int {
		return cmp.Compare(b.TotalCost, a.TotalCost)
	})
	ranked = ranked[:min(len(ranked), constants.SummaryTopCostly)]
	s.Costliest = make([]CostlyLoan, 0, len(ranked))
	for _, m := range ranked {
		s.Costliest = append(s.Costliest, CostlyLoan{
			LoanID:    m.Label(),
			Name:      m.Name,
			Purpose:   m.Purpose,
			TotalCost: m.TotalCost,
		})
	}

	return s
}
