package scenario

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticBatch builds n valid loans with spread-out terms and rates.
func syntheticBatch(n int) []loans.LoanRecord {
	batch := make([]loans.LoanRecord, n)
	for i := range batch {
		batch[i] = loans.LoanRecord{
			ID:            fmt.Sprintf("S%05d", i),
			Principal:     float64(1_000 + (i%500)*1_000),
			AnnualRatePct: 0.5 + float64(i%40)*0.5,
			TermMonths:    6 + (i%30)*12,
		}
	}
	return batch
}

// TestPerformance times every batch operation on a large portfolio.
func TestPerformance(t *testing.T) {
	if !testing.Verbose() {
		t.Skip("Skipping performance test. Run with -v to enable.")
	}

	sim := newTestSimulator(PolicyStrict)
	batch := syntheticBatch(5_000)

	start := time.Now()
	analysis, err := sim.AnalyzeBatch(batch)
	require.NoError(t, err)
	analyzeTime := time.Since(start)

	start = time.Now()
	_, err = sim.RateShock(batch, []float64{-1, 1, 2, 3})
	require.NoError(t, err)
	shockTime := time.Since(start)

	start = time.Now()
	_, err = sim.Prepayment(batch, 0.1)
	require.NoError(t, err)
	prepayTime := time.Since(start)

	start = time.Now()
	_, err = sim.Refinance(batch, 4)
	require.NoError(t, err)
	refinanceTime := time.Since(start)

	totalTime := analyzeTime + shockTime + prepayTime + refinanceTime

	t.Logf("Performance metrics for %d loans:", len(batch))
	t.Logf("  Analyze: %v", analyzeTime)
	t.Logf("  Rate shock: %v", shockTime)
	t.Logf("  Prepayment: %v", prepayTime)
	t.Logf("  Refinance: %v", refinanceTime)
	t.Logf("  Total time: %v", totalTime)

	if totalTime > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", totalTime)
	}
	assert.Len(t, analysis.Metrics, len(batch))
}

// TestDataConsistency checks that repeated and concurrent runs over the same
// batch produce identical reports.
func TestDataConsistency(t *testing.T) {
	sim := newTestSimulator(PolicySkip)
	batch := append(syntheticBatch(200), malformedBatch()...)

	first, err := sim.Prepayment(batch, 0.1)
	require.NoError(t, err)
	require.Len(t, first.Rejected, 1)

	const workers = 8
	reports := make([]PrepaymentReport, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = sim.Prepayment(batch, 0.1)
		}(i)
	}
	wg.Wait()

	for i := range reports {
		require.NoError(t, errs[i])
		assert.Equal(t, first, reports[i], "run %d diverged", i)
	}
}

func BenchmarkAnalyzeBatch(b *testing.B) {
	sim := newTestSimulator(PolicyStrict)
	batch := syntheticBatch(1_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sim.AnalyzeBatch(batch); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRateShock(b *testing.B) {
	sim := newTestSimulator(PolicyStrict)
	batch := syntheticBatch(1_000)
	deltas := []float64{-1, 1, 2, 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sim.RateShock(batch, deltas); err != nil {
			b.Fatal(err)
		}
	}
}
