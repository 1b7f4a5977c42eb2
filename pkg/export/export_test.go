package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/loan-analyzer/pkg/id"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testBatch() []loans.LoanRecord {
	return []loans.LoanRecord{
		{ID: "L1", Name: "Ana Torres", Age: 34, Purpose: "home", Principal: 10_000_000, AnnualRatePct: 8.0, TermMonths: 36},
		{ID: "L2", Name: "Eva Ruiz", Age: 22, Purpose: "education", Principal: 4_000, AnnualRatePct: 12.5, TermMonths: 18},
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteMetricsCSV(t *testing.T) {
	metrics, err := loans.AnalyzeBatch(testBatch())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, metrics))

	rows := readCSV(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, MetricsHeader, rows[0])
	assert.Equal(t, []string{"L1", "Ana Torres", "34", "home", "10000000.00", "8.00", "36"}, rows[1][:7])
	assert.Equal(t, "313363.65", rows[1][7])
	assert.Equal(t, "11281091.57", rows[1][8])
	assert.Equal(t, "1281091.57", rows[1][9])
}

func TestWriteMetricsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, nil))
	assert.Equal(t, strings.Join(MetricsHeader, ",")+"\n", buf.String())
}

func TestWriteScenarioCSVs(t *testing.T) {
	sim := scenario.NewSimulator(nil, scenario.Options{})

	shock, err := sim.RateShock(testBatch(), []float64{-1, 2})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteRateShockCSV(&buf, shock))
	rows := readCSV(t, buf.String())
	require.Len(t, rows, 1+2*2)
	assert.Equal(t, "delta", rows[0][5])
	assert.Equal(t, "-1.00", rows[1][5])
	assert.Equal(t, "10.00", rows[2][6])

	prepay, err := sim.Prepayment(testBatch(), 0.10)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, WritePrepaymentCSV(&buf, prepay))
	rows = readCSV(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, "33", rows[1][5])
	assert.Equal(t, "false", rows[1][11])

	refi, err := sim.Refinance(testBatch(), 3.5)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, WriteRefinanceCSV(&buf, refi))
	rows = readCSV(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, "3.50", rows[1][3])
	assert.Equal(t, "true", rows[1][10])
}

func TestWriteScheduleCSV(t *testing.T) {
	schedule, err := loans.BalanceSchedule(testBatch()[1])
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteScheduleCSV(&buf, "L2", schedule))
	rows := readCSV(t, buf.String())
	require.Len(t, rows, 1+18)
	assert.Equal(t, []string{"L2", "18"}, rows[18][:2])
	assert.Equal(t, "0.00", rows[18][5])
}

func TestWriteMetricsXLSX(t *testing.T) {
	metrics, err := loans.AnalyzeBatch(testBatch())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsXLSX(&buf, metrics))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{MetricsSheet}, f.GetSheetList())
	rows, err := f.GetRows(MetricsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, MetricsHeader, rows[0])
	assert.Equal(t, "L1", rows[1][0])
	assert.Equal(t, "313363.65", rows[1][7])
	assert.Equal(t, "18", rows[2][6])
}

func newTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestJournalSchemaCreated(t *testing.T) {
	j, path := newTestJournal(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','run_rows')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())
	assert.True(t, found["runs"])
	assert.True(t, found["run_rows"])
}

func TestJournalRecordAndList(t *testing.T) {
	j, _ := newTestJournal(t)
	ctx := context.Background()

	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return at }

	sim := scenario.NewSimulator(nil, scenario.Options{})
	refi, err := sim.Refinance(testBatch(), 3.5)
	require.NoError(t, err)

	firstID, err := j.Record(ctx, RefinanceEntry(refi))
	require.NoError(t, err)

	shock, err := sim.RateShock(testBatch(), []float64{1, 1})
	require.NoError(t, err)
	j.now = func() time.Time { return at.Add(time.Minute) }
	secondID, err := j.Record(ctx, RateShockEntry(shock))
	require.NoError(t, err)
	assert.Less(t, firstID, secondID)

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, KindRateShock, runs[0].Kind)
	assert.Equal(t, map[string]float64{"delta_0": 1, "delta_1": 1}, runs[0].Parameters)
	assert.Equal(t, KindRefinance, runs[1].Kind)
	assert.Equal(t, 3.5, runs[1].Parameters["new_rate"])
	assert.Equal(t, 2, runs[1].Loans)
	assert.True(t, at.Equal(runs[1].CreatedAt))

	rows, err := j.Rows(ctx, firstID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, RunRow{Position: 0, LoanID: "L1", Metric: "savings", Value: refi.Results[0].Savings}, rows[0])

	rows, err = j.Rows(ctx, secondID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = j.Rows(ctx, id.New(at.Add(time.Hour)))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = j.Rows(ctx, "not-a-run")
	assert.ErrorContains(t, err, "invalid run id")
}

func TestJournalEntries(t *testing.T) {
	sim := scenario.NewSimulator(nil, scenario.Options{Policy: scenario.PolicySkip})
	batch := append(testBatch(), loans.LoanRecord{ID: "BAD", Principal: 0, AnnualRatePct: 1, TermMonths: 1})

	analysis, err := sim.AnalyzeBatch(batch)
	require.NoError(t, err)
	entry := AnalysisEntry(analysis)
	assert.Equal(t, KindAnalysis, entry.Kind)
	assert.Equal(t, 2, entry.Loans)
	assert.Equal(t, 1, entry.Rejected)
	assert.Len(t, entry.Rows, 4)

	prepay, err := sim.Prepayment(batch, 0.2)
	require.NoError(t, err)
	entry = PrepaymentEntry(prepay)
	assert.Equal(t, 0.2, entry.Parameters["extra_fraction"])
	assert.Equal(t, 1, entry.Rejected)
	assert.Len(t, entry.Rows, 4)
}
