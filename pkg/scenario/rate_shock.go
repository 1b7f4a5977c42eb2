package scenario

import (
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// RateShockOutcome is the effect of one rate delta on one loan.
type RateShockOutcome struct {
	Delta      float64 `json:"delta"`
	NewRate    float64 `json:"new_rate"`
	Floored    bool    `json:"floored"`
	NewPayment float64 `json:"new_payment"`
	NewCost    float64 `json:"new_cost"`
	Impact     float64 `json:"impact"`
}

// RateShockResult holds every shock applied to one loan.
type RateShockResult struct {
	LoanID          string             `json:"loan_id,omitempty"`
	Name            string             `json:"name,omitempty"`
	Principal       float64            `json:"principal"`
	TermMonths      int                `json:"term_months"`
	OriginalRate    float64            `json:"original_rate"`
	OriginalPayment float64            `json:"original_payment"`
	OriginalCost    float64            `json:"original_cost"`
	Shocks          []RateShockOutcome `json:"shocks"`
}

// DeltaImpact is the mean cost impact of one delta across the batch.
type DeltaImpact struct {
	Delta      float64 `json:"delta"`
	MeanImpact float64 `json:"mean_impact"`
}

// StressedLoan ranks a loan by its impact under the stress delta.
type StressedLoan struct {
	LoanID  string  `json:"loan_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	NewRate float64 `json:"new_rate"`
	Impact  float64 `json:"impact"`
}

// RateShockReport aggregates a rate-shock simulation.
type RateShockReport struct {
	Deltas      []float64         `json:"deltas"`
	Results     []RateShockResult `json:"results"`
	MeanImpact  []DeltaImpact     `json:"mean_impact"`
	StressDelta *float64          `json:"stress_delta,omitempty"`
	TopStressed []StressedLoan    `json:"top_stressed,omitempty"`
	Rejected    []RecordError     `json:"rejected,omitempty"`
}

// ShockedRate applies a percentage-point delta to a rate, never going below
// the policy floor of 0.1%.
func ShockedRate(annualRatePct, delta float64) (rate float64, floored bool) {
	shocked := annualRatePct + delta
	if shocked < constants.MinShockedRate {
		return constants.MinShockedRate, true
	}
	return shocked, false
}

func validateDeltas(deltas []float64) error {
	if len(deltas) == 0 {
		return &loans.InvalidInputError{Field: "deltas", Value: 0, Constraint: "a non-empty list"}
	}
	for _, delta := range deltas {
		if !mathutil.IsFinite(delta) {
			return &loans.InvalidInputError{Field: "deltas", Value: delta, Constraint: "finite percentage points"}
		}
	}
	return nil
}

// stressIndex locates the largest strictly positive delta, preferring its
// first occurrence. It returns -1 when no delta is positive.
func stressIndex(deltas []float64) int {
	index := -1
	for i, delta := range deltas {
		if delta > 0 && (index < 0 || delta > deltas[index]) {
			index = i
		}
	}
	return index
}

// RateShock recomputes every loan's cost under each delta.
func (s *Simulator) RateShock(batch []loans.LoanRecord, deltas []float64) (RateShockReport, error) {
	const op = "scenario.RateShock"

	if err := validateDeltas(deltas); err != nil {
		return RateShockReport{}, err
	}
	valid, rejected, err := s.screen(batch, op)
	if err != nil {
		return RateShockReport{}, err
	}

	report := RateShockReport{
		Deltas:   append([]float64(nil), deltas...),
		Results:  make([]RateShockResult, 0, len(valid)),
		Rejected: rejected,
	}

	for _, item := range valid {
		loan := item.loan
		baseline, err := loans.Schedule(loan.Principal, loan.AnnualRatePct, loan.TermMonths)
		if err != nil {
			return RateShockReport{}, newRecordError(item.index, loan, err)
		}

		result := RateShockResult{
			LoanID:          loan.Label(),
			Name:            loan.Name,
			Principal:       loan.Principal,
			TermMonths:      loan.TermMonths,
			OriginalRate:    loan.AnnualRatePct,
			OriginalPayment: baseline.MonthlyPayment,
			OriginalCost:    baseline.TotalCost,
			Shocks:          make([]RateShockOutcome, 0, len(deltas)),
		}
		for _, delta := range deltas {
			rate, floored := ShockedRate(loan.AnnualRatePct, delta)
			shocked, err := loans.Schedule(loan.Principal, rate, loan.TermMonths)
			if err != nil {
				return RateShockReport{}, newRecordError(item.index, loan, err)
			}
			result.Shocks = append(result.Shocks, RateShockOutcome{
				Delta:      delta,
				NewRate:    rate,
				Floored:    floored,
				NewPayment: shocked.MonthlyPayment,
				NewCost:    shocked.TotalCost,
				Impact:     shocked.TotalCost - baseline.TotalCost,
			})
		}
		report.Results = append(report.Results, result)
	}

	report.MeanImpact = make([]DeltaImpact, 0, len(deltas))
	for d, delta := range deltas {
		impacts := make([]float64, 0, len(report.Results))
		for _, result := range report.Results {
			impacts = append(impacts, result.Shocks[d].Impact)
		}
		report.MeanImpact = append(report.MeanImpact, DeltaImpact{Delta: delta, MeanImpact: mathutil.Mean(impacts)})
	}

	if stress := stressIndex(deltas); stress >= 0 {
		stressDelta := deltas[stress]
		report.StressDelta = &stressDelta

		stressed := make([]StressedLoan, 0, len(report.Results))
		for _, result := range report.Results {
			outcome := result.Shocks[stress]
			stressed = append(stressed, StressedLoan{
				LoanID:  result.LoanID,
				Name:    result.Name,
				NewRate: outcome.NewRate,
				Impact:  outcome.Impact,
			})
		}
		report.TopStressed = topN(stressed, s.opts.TopN, func(l StressedLoan) float64 { return l.Impact })
	}

	s.logger.Info("rate shock simulated",
		zap.String("op", op),
		zap.Int("loans", len(report.Results)),
		zap.Int("deltas", len(deltas)),
		zap.Int("rejected", len(rejected)),
	)
	return report, nil
}
