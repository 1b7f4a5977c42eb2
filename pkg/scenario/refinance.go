package scenario

import (
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// RefinanceResult compares a loan at its current rate with the same principal
// and term at a new rate.
type RefinanceResult struct {
	LoanID         string  `json:"loan_id,omitempty"`
	Name           string  `json:"name,omitempty"`
	CurrentRate    float64 `json:"current_rate"`
	NewRate        float64 `json:"new_rate"`
	CurrentPayment float64 `json:"current_payment"`
	NewPayment     float64 `json:"new_payment"`
	CurrentCost    float64 `json:"current_cost"`
	NewCost        float64 `json:"new_cost"`
	Savings        float64 `json:"savings"`
	SavingsPct     float64 `json:"savings_pct"`
	WorthIt        bool    `json:"worth_it"`
}

// RefinanceReport aggregates a refinancing simulation.
type RefinanceReport struct {
	NewRate          float64           `json:"new_rate"`
	Results          []RefinanceResult `json:"results"`
	WorthItCount     int               `json:"worth_it_count"`
	WorthItShare     float64           `json:"worth_it_share"`
	TotalSavings     float64           `json:"total_savings"`
	MeanSavings      float64           `json:"mean_savings"`
	TopOpportunities []RefinanceResult `json:"top_opportunities"`
	Rejected         []RecordError     `json:"rejected,omitempty"`
}

// CompareRefinance prices one loan at newRate. Zero savings is not worth it.
func CompareRefinance(loan loans.LoanRecord, newRate float64) (RefinanceResult, error) {
	if err := loans.ValidateRate("new_rate", newRate); err != nil {
		return RefinanceResult{}, err
	}
	current, err := loans.Schedule(loan.Principal, loan.AnnualRatePct, loan.TermMonths)
	if err != nil {
		return RefinanceResult{}, err
	}
	refinanced, err := loans.Schedule(loan.Principal, newRate, loan.TermMonths)
	if err != nil {
		return RefinanceResult{}, err
	}

	savings := current.TotalCost - refinanced.TotalCost
	return RefinanceResult{
		LoanID:         loan.Label(),
		Name:           loan.Name,
		CurrentRate:    loan.AnnualRatePct,
		NewRate:        newRate,
		CurrentPayment: current.MonthlyPayment,
		NewPayment:     refinanced.MonthlyPayment,
		CurrentCost:    current.TotalCost,
		NewCost:        refinanced.TotalCost,
		Savings:        savings,
		SavingsPct:     mathutil.CalculatePercentage(savings, current.TotalCost),
		WorthIt:        savings > 0,
	}, nil
}

// Refinance compares every loan against a flat new rate.
func (s *Simulator) Refinance(batch []loans.LoanRecord, newRate float64) (RefinanceReport, error) {
	const op = "scenario.Refinance"

	if err := loans.ValidateRate("new_rate", newRate); err != nil {
		return RefinanceReport{}, err
	}
	valid, rejected, err := s.screen(batch, op)
	if err != nil {
		return RefinanceReport{}, err
	}

	report := RefinanceReport{
		NewRate:  newRate,
		Results:  make([]RefinanceResult, 0, len(valid)),
		Rejected: rejected,
	}

	savings := make([]float64, 0, len(valid))
	var worthIt []RefinanceResult
	for _, item := range valid {
		result, err := CompareRefinance(item.loan, newRate)
		if err != nil {
			return RefinanceReport{}, newRecordError(item.index, item.loan, err)
		}
		report.Results = append(report.Results, result)
		savings = append(savings, result.Savings)
		report.TotalSavings += result.Savings
		if result.WorthIt {
			worthIt = append(worthIt, result)
		}
	}

	report.WorthItCount = len(worthIt)
	report.WorthItShare = mathutil.Ratio(len(worthIt), len(report.Results))
	report.MeanSavings = mathutil.Mean(savings)
	report.TopOpportunities = topN(worthIt, s.opts.TopN, func(r RefinanceResult) float64 { return r.Savings })

	s.logger.Info("refinance simulated",
		zap.String("op", op),
		zap.Int("loans", len(report.Results)),
		zap.Float64("new_rate", newRate),
		zap.Int("worth_it", report.WorthItCount),
		zap.Int("rejected", len(rejected)),
	)
	return report, nil
}
