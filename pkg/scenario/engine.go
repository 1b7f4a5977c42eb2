// Package scenario runs what-if simulations (rate shocks, prepayment and
// refinancing) over batches of loans and aggregates the outcomes.
//
// A Simulator holds no mutable state; one instance may serve concurrent
// callers, and every call recomputes its results from the batch it is given.
package scenario

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"go.uber.org/zap"
)

// Engine is the contract offered to the HTTP layer, the CLI and exporters.
type Engine interface {
	AnalyzeBatch(batch []loans.LoanRecord) (BatchAnalysis, error)
	RateShock(batch []loans.LoanRecord, deltas []float64) (RateShockReport, error)
	Prepayment(batch []loans.LoanRecord, extraFraction float64) (PrepaymentReport, error)
	Refinance(batch []loans.LoanRecord, newRate float64) (RefinanceReport, error)
}

var _ Engine = (*Simulator)(nil)

// Policy decides what a batch call does with a malformed loan.
type Policy int

const (
	// PolicyStrict aborts the whole call on the first malformed loan.
	PolicyStrict Policy = iota
	// PolicySkip leaves malformed loans out and reports them in Rejected.
	PolicySkip
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", constants.BatchPolicyStrict:
		return PolicyStrict, nil
	case constants.BatchPolicySkip:
		return PolicySkip, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown batch policy %q, expected %s or %s",
			value, constants.BatchPolicyStrict, constants.BatchPolicySkip)
	}
}

func (p Policy) String() string {
	if p == PolicySkip {
		return constants.BatchPolicySkip
	}
	return constants.BatchPolicyStrict
}

// Options tunes a Simulator. Zero values fall back to the defaults.
type Options struct {
	Policy    Policy
	Frequency int // compounding periods per year used by AnalyzeBatch
	TopN      int // length of ranked aggregate lists
}

// DefaultOptions returns strict batches, monthly compounding and top-5 rankings.
func DefaultOptions() Options {
	return Options{
		Policy:    PolicyStrict,
		Frequency: constants.FrequencyMonthly,
		TopN:      constants.DefaultTopN,
	}
}

// RecordError identifies a malformed loan within a batch.
type RecordError struct {
	Index      int    `json:"index"`
	LoanID     string `json:"loan_id,omitempty"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

func newRecordError(index int, loan loans.LoanRecord, err error) *RecordError {
	recordErr := &RecordError{Index: index, LoanID: loan.Label(), Message: err.Error(), Err: err}
	var invalid *loans.InvalidInputError
	if errors.As(err, &invalid) {
		recordErr.Field = invalid.Field
		recordErr.Constraint = invalid.Constraint
	}
	return recordErr
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// BatchAnalysis holds the baseline metrics of a batch.
type BatchAnalysis struct {
	Metrics  []loans.DerivedMetrics `json:"metrics"`
	Rejected []RecordError          `json:"rejected,omitempty"`
}

// Simulator implements Engine on top of the loans amortization engine.
type Simulator struct {
	logger *zap.Logger
	opts   Options
}

// NewSimulator creates a Simulator. A nil logger discards log output.
func NewSimulator(logger *zap.Logger, opts Options) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.Frequency < 1 {
		opts.Frequency = defaults.Frequency
	}
	if opts.TopN < 1 {
		opts.TopN = defaults.TopN
	}
	return &Simulator{logger: logger, opts: opts}
}

// Options returns the effective options of the simulator.
func (s *Simulator) Options() Options {
	return s.opts
}

type indexedLoan struct {
	index int
	loan  loans.LoanRecord
}

// screen validates every loan before any simulation runs and applies the
// batch policy to the malformed ones.
func (s *Simulator) screen(batch []loans.LoanRecord, op string) ([]indexedLoan, []RecordError, error) {
	valid := make([]indexedLoan, 0, len(batch))
	var rejected []RecordError

	for i, loan := range batch {
		err := loan.Validate()
		if err == nil {
			valid = append(valid, indexedLoan{index: i, loan: loan})
			continue
		}
		recordErr := newRecordError(i, loan, err)
		if s.opts.Policy == PolicyStrict {
			return nil, nil, recordErr
		}
		s.logger.Debug("skipping malformed loan",
			zap.String("op", op),
			zap.Int("index", i),
			zap.String("loan", recordErr.LoanID),
			zap.Error(err),
		)
		rejected = append(rejected, *recordErr)
	}

	return valid, rejected, nil
}

// AnalyzeBatch computes the baseline metrics of every well-formed loan, in
// input order.
func (s *Simulator) AnalyzeBatch(batch []loans.LoanRecord) (BatchAnalysis, error) {
	const op = "scenario.AnalyzeBatch"

	valid, rejected, err := s.screen(batch, op)
	if err != nil {
		return BatchAnalysis{}, err
	}

	analysis := BatchAnalysis{Metrics: make([]loans.DerivedMetrics, 0, len(valid)), Rejected: rejected}
	for _, item := range valid {
		metrics, err := loans.Analyze(item.loan, s.opts.Frequency)
		if err != nil {
			return BatchAnalysis{}, newRecordError(item.index, item.loan, err)
		}
		analysis.Metrics = append(analysis.Metrics, metrics)
	}

	s.logger.Info("batch analyzed",
		zap.String("op", op),
		zap.Int("loans", len(analysis.Metrics)),
		zap.Int("rejected", len(rejected)),
	)
	return analysis, nil
}

// topN returns up to n items ordered by key, highest first. Equal keys keep
// their input order.
func topN[T any](items []T, n int, key func(T) float64) []T {
	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
