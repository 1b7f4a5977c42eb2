package loans

import (
	"fmt"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
)

// DerivedMetrics holds the baseline metrics of one loan.
type DerivedMetrics struct {
	LoanRecord
	MonthlyPayment      float64 `json:"monthly_payment"`
	TotalCost           float64 `json:"total_cost"`
	TotalInterest       float64 `json:"total_interest"`
	InterestPct         float64 `json:"interest_pct"`
	CompoundFinalAmount float64 `json:"compound_final_amount"`
	SimpleAmount        float64 `json:"simple_amount"`
	CompoundMinusSimple float64 `json:"compound_minus_simple"`
}

// Analyze computes the derived metrics of a single loan, compounding the
// projection frequency times per year.
func Analyze(loan LoanRecord, frequency int) (DerivedMetrics, error) {
	if err := loan.Validate(); err != nil {
		return DerivedMetrics{}, err
	}

	compound, err := Compound(loan.Principal, loan.AnnualRatePct, loan.TermMonths, frequency)
	if err != nil {
		return DerivedMetrics{}, err
	}
	schedule, err := Schedule(loan.Principal, loan.AnnualRatePct, loan.TermMonths)
	if err != nil {
		return DerivedMetrics{}, err
	}

	return DerivedMetrics{
		LoanRecord:          loan,
		MonthlyPayment:      schedule.MonthlyPayment,
		TotalCost:           schedule.TotalCost,
		TotalInterest:       schedule.TotalInterest,
		InterestPct:         schedule.InterestPct,
		CompoundFinalAmount: compound.FinalAmount,
		SimpleAmount:        compound.SimpleAmount,
		CompoundMinusSimple: compound.CompoundMinusSimple,
	}, nil
}

// AnalyzeBatch analyzes every loan independently with monthly compounding.
// Output order matches input order; an empty batch yields an empty result.
// The first malformed loan aborts the batch.
func AnalyzeBatch(batch []LoanRecord) ([]DerivedMetrics, error) {
	results := make([]DerivedMetrics, 0, len(batch))
	for i, loan := range batch {
		metrics, err := Analyze(loan, constants.FrequencyMonthly)
		if err != nil {
			return nil, fmt.Errorf("loan at index %d: %w", i, err)
		}
		results = append(results, metrics)
	}
	return results, nil
}
