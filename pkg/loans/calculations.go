package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
)

// CompoundResult holds a compound-interest projection next to its simple-interest
// counterpart.
type CompoundResult struct {
	Principal           float64 `json:"principal"`
	AnnualRatePct       float64 `json:"annual_rate_pct"`
	TermMonths          int     `json:"term_months"`
	Years               float64 `json:"years"`
	Frequency           int     `json:"frequency"`
	FrequencyLabel      string  `json:"frequency_label"`
	FinalAmount         float64 `json:"final_amount"`
	CompoundInterest    float64 `json:"compound_interest"`
	SimpleInterest      float64 `json:"simple_interest"`
	SimpleAmount        float64 `json:"simple_amount"`
	CompoundMinusSimple float64 `json:"compound_minus_simple"`
}

// PaymentSchedule summarizes the level-payment repayment of a loan.
type PaymentSchedule struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalCost      float64 `json:"total_cost"`
	TotalInterest  float64 `json:"total_interest"`
	InterestPct    float64 `json:"interest_pct"`
}

// Payment holds the values for a given month of an amortization schedule.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

var frequencyLabels = map[int]string{
	constants.FrequencyAnnual:     "annual",
	constants.FrequencySemiannual: "semiannual",
	constants.FrequencyQuarterly:  "quarterly",
	constants.FrequencyMonthly:    "monthly",
	constants.FrequencyWeekly:     "weekly",
	constants.FrequencyDaily:      "daily",
}

// FrequencyLabel names a compounding frequency; unmapped values are labeled
// generically.
func FrequencyLabel(frequency int) string {
	if label, ok := frequencyLabels[frequency]; ok {
		return label
	}
	return fmt.Sprintf("%d times per year", frequency)
}

// MonthlyRate converts an annual percentage rate into a monthly decimal rate.
func MonthlyRate(annualRatePct float64) float64 {
	return annualRatePct / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateInterestPayment calculates the interest due for one month on a balance.
func CalculateInterestPayment(remainingPrincipal, annualRatePct float64) float64 {
	return remainingPrincipal * MonthlyRate(annualRatePct)
}

// Compound projects principal under compound interest, A = P(1 + r/n)^(nt), and
// compares it with simple interest over the same term.
func Compound(principal, annualRatePct float64, termMonths, frequency int) (CompoundResult, error) {
	if err := validateTerms(principal, annualRatePct, termMonths); err != nil {
		return CompoundResult{}, err
	}
	if frequency < 1 {
		return CompoundResult{}, &InvalidInputError{Field: "frequency", Value: float64(frequency), Constraint: ">= 1"}
	}

	r := annualRatePct / constants.PercentageMultiplier
	t := float64(termMonths) / constants.MonthsPerYear
	n := float64(frequency)

	finalAmount := principal * math.Pow(1+r/n, n*t)
	compoundInterest := finalAmount - principal
	simpleInterest := principal * r * t

	return CompoundResult{
		Principal:           principal,
		AnnualRatePct:       annualRatePct,
		TermMonths:          termMonths,
		Years:               t,
		Frequency:           frequency,
		FrequencyLabel:      FrequencyLabel(frequency),
		FinalAmount:         finalAmount,
		CompoundInterest:    compoundInterest,
		SimpleInterest:      simpleInterest,
		SimpleAmount:        principal + simpleInterest,
		CompoundMinusSimple: compoundInterest - simpleInterest,
	}, nil
}

// CompareFrequencies runs Compound once per frequency, in the order given.
func CompareFrequencies(principal, annualRatePct float64, termMonths int, frequencies []int) ([]CompoundResult, error) {
	results := make([]CompoundResult, 0, len(frequencies))
	for _, frequency := range frequencies {
		result, err := Compound(principal, annualRatePct, termMonths, frequency)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// MonthlyPayment calculates the level payment that amortizes principal over
// termMonths. A zero rate degenerates to principal / termMonths.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) (float64, error) {
	if err := validateTerms(principal, annualRatePct, termMonths); err != nil {
		return 0, err
	}
	return levelPayment(principal, annualRatePct, termMonths), nil
}

// levelPayment evaluates P*i*(1+i)^t / ((1+i)^t - 1) in the equivalent form
// P*i / (1 - (1+i)^-t), using Log1p/Expm1 so tiny monthly rates over long
// terms keep their precision. Inputs must already be validated.
func levelPayment(principal, annualRatePct float64, termMonths int) float64 {
	if annualRatePct == 0 {
		return principal / float64(termMonths)
	}
	i := MonthlyRate(annualRatePct)
	discount := -math.Expm1(-float64(termMonths) * math.Log1p(i))
	return principal * i / discount
}

// Schedule derives the payment, total cost, total interest and interest share
// of a loan repaid with level payments.
func Schedule(principal, annualRatePct float64, termMonths int) (PaymentSchedule, error) {
	payment, err := MonthlyPayment(principal, annualRatePct, termMonths)
	if err != nil {
		return PaymentSchedule{}, err
	}
	totalCost := payment * float64(termMonths)
	totalInterest := totalCost - principal
	return PaymentSchedule{
		MonthlyPayment: payment,
		TotalCost:      totalCost,
		TotalInterest:  totalInterest,
		InterestPct:    totalInterest / principal * constants.PercentageMultiplier,
	}, nil
}

// BalanceSchedule amortizes a loan month by month at its level payment and
// returns one Payment per month. The balance never goes below zero and is
// exactly zero after the final month.
func BalanceSchedule(loan LoanRecord) ([]Payment, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	payment := levelPayment(loan.Principal, loan.AnnualRatePct, loan.TermMonths)
	schedule := make([]Payment, 0, loan.TermMonths)
	balance := loan.Principal

	for month := 1; month <= loan.TermMonths; month++ {
		interest := CalculateInterestPayment(balance, loan.AnnualRatePct)
		principal := payment - interest
		if month == loan.TermMonths || principal > balance {
			// Close out the residual left by floating point error.
			principal = balance
		}
		balance -= principal
		schedule = append(schedule, Payment{
			Month:              month,
			Payment:            interest + principal,
			Principal:          principal,
			Interest:           interest,
			RemainingPrincipal: balance,
		})
	}

	return schedule, nil
}
