// Package loans provides the loan record model and the amortization engine:
// compound-interest projections, level payments and per-loan batch analysis.
// Every function in this package is pure; none mutates a LoanRecord.
package loans

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
)

// ErrInvalidInput is matched by every *InvalidInputError through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a loan or parameter that violates a stated invariant.
type InvalidInputError struct {
	Record     string  `json:"record,omitempty"`
	Field      string  `json:"field"`
	Value      float64 `json:"value"`
	Constraint string  `json:"constraint"`
}

func (e *InvalidInputError) Error() string {
	msg := fmt.Sprintf("invalid %s %s: must be %s", e.Field, strconv.FormatFloat(e.Value, 'g', -1, 64), e.Constraint)
	if e.Record != "" {
		return fmt.Sprintf("loan %q: %s", e.Record, msg)
	}
	return msg
}

// Is makes errors.Is(err, ErrInvalidInput) succeed for any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// LoanRecord holds one loan's static attributes.
type LoanRecord struct {
	ID            string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string  `json:"name,omitempty" yaml:"name,omitempty"`
	Age           int     `json:"age,omitempty" yaml:"age,omitempty"`
	Purpose       string  `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Principal     float64 `json:"principal" yaml:"principal"`
	AnnualRatePct float64 `json:"annual_rate_pct" yaml:"annualRatePct"`
	TermMonths    int     `json:"term_months" yaml:"termMonths"`
}

// Label returns the identifying label of the loan: its ID, or its name when
// no ID was supplied.
func (l LoanRecord) Label() string {
	if l.ID != "" {
		return l.ID
	}
	return l.Name
}

// Validate checks the record invariants: principal > 0, annual rate >= 0 and
// term > 0.
func (l LoanRecord) Validate() error {
	if err := validateTerms(l.Principal, l.AnnualRatePct, l.TermMonths); err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			invalid.Record = l.Label()
		}
		return err
	}
	return nil
}

func validateTerms(principal, annualRatePct float64, termMonths int) error {
	if !mathutil.IsFinite(principal) || principal <= 0 {
		return &InvalidInputError{Field: "principal", Value: principal, Constraint: "a finite amount > 0"}
	}
	if err := ValidateRate("annual_rate_pct", annualRatePct); err != nil {
		return err
	}
	if termMonths <= 0 {
		return &InvalidInputError{Field: "term_months", Value: float64(termMonths), Constraint: "> 0"}
	}
	return nil
}

// ValidateRate checks that an annual percentage rate is finite and non-negative.
func ValidateRate(field string, annualRatePct float64) error {
	if !mathutil.IsFinite(annualRatePct) || annualRatePct < 0 {
		return &InvalidInputError{Field: field, Value: annualRatePct, Constraint: "a finite percentage >= 0"}
	}
	return nil
}
