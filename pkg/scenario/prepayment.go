package scenario

import (
	"fmt"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// PrepaymentResult compares a loan's baseline repayment with a boosted one.
type PrepaymentResult struct {
	LoanID           string  `json:"loan_id,omitempty"`
	Name             string  `json:"name,omitempty"`
	BaselinePayment  float64 `json:"baseline_payment"`
	BoostedPayment   float64 `json:"boosted_payment"`
	BaselineMonths   int     `json:"baseline_months"`
	MonthsElapsed    int     `json:"months_elapsed"`
	MonthsSaved      int     `json:"months_saved"`
	BaselineCost     float64 `json:"baseline_cost"`
	RealizedCost     float64 `json:"realized_cost"`
	MoneySaved       float64 `json:"money_saved"`
	RemainingBalance float64 `json:"remaining_balance"`
	CapReached       bool    `json:"cap_reached"`
	Warning          string  `json:"warning,omitempty"`
}

// PrepaymentReport aggregates a prepayment simulation.
type PrepaymentReport struct {
	ExtraFraction   float64            `json:"extra_fraction"`
	Results         []PrepaymentResult `json:"results"`
	MeanMoneySaved  float64            `json:"mean_money_saved"`
	MeanMonthsSaved float64            `json:"mean_months_saved"`
	TopSavers       []PrepaymentResult `json:"top_savers"`
	CapReachedCount int                `json:"cap_reached_count"`
	Rejected        []RecordError      `json:"rejected,omitempty"`
}

func validateExtraFraction(extraFraction float64) error {
	if !mathutil.IsFinite(extraFraction) || extraFraction < 0 {
		return &loans.InvalidInputError{Field: "extra_fraction", Value: extraFraction, Constraint: "a finite fraction >= 0"}
	}
	return nil
}

// SimulatePrepayment pays a loan down month by month with its level payment
// boosted by extraFraction. The original term is a hard iteration cap: when
// the balance is still open at the cap the result is flagged, not failed.
func SimulatePrepayment(loan loans.LoanRecord, extraFraction float64) (PrepaymentResult, error) {
	if err := validateExtraFraction(extraFraction); err != nil {
		return PrepaymentResult{}, err
	}
	baseline, err := loans.Schedule(loan.Principal, loan.AnnualRatePct, loan.TermMonths)
	if err != nil {
		return PrepaymentResult{}, err
	}

	boosted := baseline.MonthlyPayment * (1 + extraFraction)
	monthlyRate := loans.MonthlyRate(loan.AnnualRatePct)

	balance := loan.Principal
	paid := 0.0
	months := 0
	for balance > 0 && months < loan.TermMonths {
		interestDue := balance * monthlyRate
		principalPaid := min(boosted-interestDue, balance)
		balance -= principalPaid
		// The closing month only pays what is still owed.
		paid += interestDue + principalPaid
		months++
	}

	result := PrepaymentResult{
		LoanID:           loan.Label(),
		Name:             loan.Name,
		BaselinePayment:  baseline.MonthlyPayment,
		BoostedPayment:   boosted,
		BaselineMonths:   loan.TermMonths,
		MonthsElapsed:    months,
		MonthsSaved:      loan.TermMonths - months,
		BaselineCost:     baseline.TotalCost,
		RealizedCost:     paid,
		MoneySaved:       baseline.TotalCost - paid,
		RemainingBalance: max(balance, 0),
	}
	if mathutil.IsPositive(balance) {
		result.CapReached = true
		result.Warning = fmt.Sprintf("balance of %.2f still open after the %d-month cap", balance, loan.TermMonths)
	}
	return result, nil
}

// Prepayment simulates a boosted monthly payment on every loan.
func (s *Simulator) Prepayment(batch []loans.LoanRecord, extraFraction float64) (PrepaymentReport, error) {
	const op = "scenario.Prepayment"

	if err := validateExtraFraction(extraFraction); err != nil {
		return PrepaymentReport{}, err
	}
	valid, rejected, err := s.screen(batch, op)
	if err != nil {
		return PrepaymentReport{}, err
	}

	report := PrepaymentReport{
		ExtraFraction: extraFraction,
		Results:       make([]PrepaymentResult, 0, len(valid)),
		Rejected:      rejected,
	}

	moneySaved := make([]float64, 0, len(valid))
	monthsSaved := make([]float64, 0, len(valid))
	for _, item := range valid {
		result, err := SimulatePrepayment(item.loan, extraFraction)
		if err != nil {
			return PrepaymentReport{}, newRecordError(item.index, item.loan, err)
		}
		if result.CapReached {
			report.CapReachedCount++
			s.logger.Debug("prepayment hit the term cap",
				zap.String("op", op),
				zap.String("loan", result.LoanID),
				zap.Float64("remaining_balance", result.RemainingBalance),
			)
		}
		report.Results = append(report.Results, result)
		moneySaved = append(moneySaved, result.MoneySaved)
		monthsSaved = append(monthsSaved, float64(result.MonthsSaved))
	}

	report.MeanMoneySaved = mathutil.Mean(moneySaved)
	report.MeanMonthsSaved = mathutil.Mean(monthsSaved)
	report.TopSavers = topN(report.Results, s.opts.TopN, func(r PrepaymentResult) float64 { return r.MoneySaved })

	s.logger.Info("prepayment simulated",
		zap.String("op", op),
		zap.Int("loans", len(report.Results)),
		zap.Float64("extra_fraction", extraFraction),
		zap.Int("cap_reached", report.CapReachedCount),
		zap.Int("rejected", len(rejected)),
	)
	return report, nil
}
