package scenario

import (
	"errors"
	"testing"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBatch() []loans.LoanRecord {
	return []loans.LoanRecord{
		{ID: "L1", Name: "Ana Torres", Purpose: "home", Principal: 10_000_000, AnnualRatePct: 8.0, TermMonths: 36},
		{ID: "L2", Name: "Luis Pardo", Purpose: "car", Principal: 25_000, AnnualRatePct: 1.5, TermMonths: 48},
		{ID: "L3", Name: "Eva Ruiz", Purpose: "education", Principal: 4_000, AnnualRatePct: 12.5, TermMonths: 18},
	}
}

func malformedBatch() []loans.LoanRecord {
	batch := testBatch()
	batch = append(batch[:2], append([]loans.LoanRecord{
		{ID: "BAD", Principal: -5, AnnualRatePct: 4, TermMonths: 12},
	}, batch[2:]...)...)
	return batch
}

func newTestSimulator(policy Policy) *Simulator {
	return NewSimulator(zap.NewNop(), Options{Policy: policy})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{"", PolicyStrict, false},
		{"strict", PolicyStrict, false},
		{" Skip ", PolicySkip, false},
		{"abort", PolicyStrict, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			policy, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, policy)
			assert.Equal(t, policy, mustParse(t, policy.String()))
		})
	}
}

func mustParse(t *testing.T, value string) Policy {
	t.Helper()
	policy, err := ParsePolicy(value)
	require.NoError(t, err)
	return policy
}

func TestNewSimulatorDefaults(t *testing.T) {
	sim := NewSimulator(nil, Options{})
	assert.Equal(t, DefaultOptions(), sim.Options())
}

func TestAnalyzeBatchStrictPolicyAborts(t *testing.T) {
	sim := newTestSimulator(PolicyStrict)

	analysis, err := sim.AnalyzeBatch(malformedBatch())
	require.Error(t, err)
	assert.Empty(t, analysis.Metrics)

	var recordErr *RecordError
	require.True(t, errors.As(err, &recordErr))
	assert.Equal(t, 2, recordErr.Index)
	assert.Equal(t, "BAD", recordErr.LoanID)
	assert.Equal(t, "principal", recordErr.Field)
	assert.True(t, errors.Is(err, loans.ErrInvalidInput))
}

func TestAnalyzeBatchSkipPolicyReports(t *testing.T) {
	sim := newTestSimulator(PolicySkip)

	analysis, err := sim.AnalyzeBatch(malformedBatch())
	require.NoError(t, err)
	require.Len(t, analysis.Metrics, 3)
	require.Len(t, analysis.Rejected, 1)

	assert.Equal(t, []string{"L1", "L2", "L3"}, []string{
		analysis.Metrics[0].ID, analysis.Metrics[1].ID, analysis.Metrics[2].ID,
	})
	assert.Equal(t, 2, analysis.Rejected[0].Index)
	assert.Equal(t, "BAD", analysis.Rejected[0].LoanID)
	assert.Contains(t, analysis.Rejected[0].Message, "principal")
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	analysis, err := newTestSimulator(PolicyStrict).AnalyzeBatch(nil)
	require.NoError(t, err)
	assert.NotNil(t, analysis.Metrics)
	assert.Empty(t, analysis.Metrics)
	assert.Empty(t, analysis.Rejected)
}

func TestAnalyzeBatchMatchesEngine(t *testing.T) {
	batch := testBatch()
	analysis, err := newTestSimulator(PolicyStrict).AnalyzeBatch(batch)
	require.NoError(t, err)

	direct, err := loans.AnalyzeBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, direct, analysis.Metrics)
}

func TestTopNIsStable(t *testing.T) {
	type item struct {
		id    string
		score float64
	}
	items := []item{{"a", 1}, {"b", 3}, {"c", 3}, {"d", 2}, {"e", 3}}

	ranked := topN(items, 4, func(i item) float64 { return i.score })
	assert.Equal(t, []item{{"b", 3}, {"c", 3}, {"e", 3}, {"d", 2}}, ranked)
	assert.Equal(t, "a", items[0].id, "input must not be reordered")

	assert.Len(t, topN(items, 10, func(i item) float64 { return i.score }), 5)
}
