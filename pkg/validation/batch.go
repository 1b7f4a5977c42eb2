package validation

import (
	"fmt"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
)

// ValidateAge warns about borrower ages outside the adult lending range. A
// zero age means the age is unknown.
func ValidateAge(label string, age int) string {
	if age == 0 {
		return ""
	}
	if age < constants.MinBorrowerAge || age > constants.MaxBorrowerAge {
		return fmt.Sprintf("Loan '%s' has an unusual borrower age of %d", label, age)
	}
	return ""
}

// ValidateTerms warns about terms that are legal but implausible.
func ValidateTerms(label string, loan loans.LoanRecord) []string {
	var warnings []string

	if loan.TermMonths > constants.MaxPlausibleTermMonths {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' runs for %d months (over %d years)",
			label, loan.TermMonths, constants.MaxPlausibleTermMonths/constants.MonthsPerYear))
	}
	if loan.AnnualRatePct > constants.MaxPlausibleRatePct {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' has an annual rate of %.2f%% (above %.0f%%)",
			label, loan.AnnualRatePct, constants.MaxPlausibleRatePct))
	}

	return warnings
}

// BatchValidator collects non-fatal warnings about a loan batch. Records
// that break an invariant are left to the engine and not reported here.
type BatchValidator struct {
	Batch []loans.LoanRecord
}

// ValidateAll returns the warnings for the whole batch in input order.
func (bv *BatchValidator) ValidateAll() []string {
	var warnings []string

	seen := make(map[string]int)
	for i, loan := range bv.Batch {
		if loan.Validate() != nil {
			continue
		}
		label := loan.Label()
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if loan.ID != "" {
			if first, dup := seen[loan.ID]; dup {
				warnings = append(warnings, fmt.Sprintf("Loan ID '%s' at index %d duplicates index %d", loan.ID, i, first))
			} else {
				seen[loan.ID] = i
			}
		}
		if warning := ValidateAge(label, loan.Age); warning != "" {
			warnings = append(warnings, warning)
		}
		warnings = append(warnings, ValidateTerms(label, loan)...)
	}

	return warnings
}
