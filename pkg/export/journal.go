package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/loan-analyzer/pkg/id"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Run kinds recorded in the journal.
const (
	KindAnalysis   = "analysis"
	KindRateShock  = "rate-shock"
	KindPrepayment = "prepayment"
	KindRefinance  = "refinance"
)

// Run is one journaled engine invocation.
type Run struct {
	ID         string             `json:"run_id"`
	Kind       string             `json:"kind"`
	CreatedAt  time.Time          `json:"created_at"`
	Parameters map[string]float64 `json:"parameters"`
	Loans      int                `json:"loans"`
	Rejected   int                `json:"rejected"`
}

// RunRow is one per-loan metric of a run.
type RunRow struct {
	Position int     `json:"position"`
	LoanID   string  `json:"loan_id"`
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
}

// Entry is a run waiting to be recorded.
type Entry struct {
	Kind       string
	Parameters map[string]float64
	Loans      int
	Rejected   int
	Rows       []RunRow
}

// Journal stores scenario runs in SQLite.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(JournalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db, logger: logger, now: time.Now}, nil
}

// Record stores an entry and returns its run ID.
func (j *Journal) Record(ctx context.Context, entry Entry) (string, error) {
	const op = "export.Journal.Record"

	createdAt := j.now().UTC()
	runID := id.New(createdAt)

	params := entry.Parameters
	if params == nil {
		params = map[string]float64{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, kind, created_at, parameters, loans, rejected)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, entry.Kind, createdAt, string(encoded), entry.Loans, entry.Rejected,
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (run_id, position, loan_id, metric, value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, row := range entry.Rows {
		if _, err := stmt.ExecContext(ctx, runID, row.Position, row.LoanID, row.Metric, row.Value); err != nil {
			return "", fmt.Errorf("failed to insert row %d/%s: %w", row.Position, row.Metric, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	j.logger.Info("run journaled",
		zap.String("op", op),
		zap.String("run_id", runID),
		zap.String("kind", entry.Kind),
		zap.Int("rows", len(entry.Rows)),
	)
	return runID, nil
}

// Runs lists journaled runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, kind, created_at, parameters, loans, rejected
		FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var params string
		if err := rows.Scan(&run.ID, &run.Kind, &run.CreatedAt, &params, &run.Loans, &run.Rejected); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &run.Parameters); err != nil {
			return nil, fmt.Errorf("run %s has corrupt parameters: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Rows returns the rows of one run in insertion order. An unknown run has
// no rows; a malformed run ID is an error.
func (j *Journal) Rows(ctx context.Context, runID string) ([]RunRow, error) {
	if _, err := id.Time(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT position, loan_id, metric, value
		FROM run_rows WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		if err := rows.Scan(&row.Position, &row.LoanID, &row.Metric, &row.Value); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// AnalysisEntry journals the baseline payment and cost of every loan.
func AnalysisEntry(analysis scenario.BatchAnalysis) Entry {
	entry := Entry{Kind: KindAnalysis, Loans: len(analysis.Metrics), Rejected: len(analysis.Rejected)}
	for i, m := range analysis.Metrics {
		entry.Rows = append(entry.Rows,
			RunRow{Position: i, LoanID: m.Label(), Metric: "monthly_payment", Value: m.MonthlyPayment},
			RunRow{Position: i, LoanID: m.Label(), Metric: "total_cost", Value: m.TotalCost},
		)
	}
	return entry
}

// RateShockEntry journals the cost impact of every delta on every loan.
// Metric impact_N pairs with parameter delta_N.
func RateShockEntry(report scenario.RateShockReport) Entry {
	entry := Entry{
		Kind:       KindRateShock,
		Parameters: map[string]float64{},
		Loans:      len(report.Results),
		Rejected:   len(report.Rejected),
	}
	for i, delta := range report.Deltas {
		entry.Parameters[fmt.Sprintf("delta_%d", i)] = delta
	}
	for i, r := range report.Results {
		for d, s := range r.Shocks {
			entry.Rows = append(entry.Rows, RunRow{
				Position: i,
				LoanID:   r.LoanID,
				Metric:   fmt.Sprintf("impact_%d", d),
				Value:    s.Impact,
			})
		}
	}
	return entry
}

// PrepaymentEntry journals money and months saved per loan.
func PrepaymentEntry(report scenario.PrepaymentReport) Entry {
	entry := Entry{
		Kind:       KindPrepayment,
		Parameters: map[string]float64{"extra_fraction": report.ExtraFraction},
		Loans:      len(report.Results),
		Rejected:   len(report.Rejected),
	}
	for i, r := range report.Results {
		entry.Rows = append(entry.Rows,
			RunRow{Position: i, LoanID: r.LoanID, Metric: "money_saved", Value: r.MoneySaved},
			RunRow{Position: i, LoanID: r.LoanID, Metric: "months_saved", Value: float64(r.MonthsSaved)},
		)
	}
	return entry
}

// RefinanceEntry journals the savings per loan.
func RefinanceEntry(report scenario.RefinanceReport) Entry {
	entry := Entry{
		Kind:       KindRefinance,
		Parameters: map[string]float64{"new_rate": report.NewRate},
		Loans:      len(report.Results),
		Rejected:   len(report.Rejected),
	}
	for i, r := range report.Results {
		entry.Rows = append(entry.Rows, RunRow{Position: i, LoanID: r.LoanID, Metric: "savings", Value: r.Savings})
	}
	return entry
}
