// Package menu implements the interactive text menu as an explicit
// finite-state loop: each state prints its options, reads one choice and
// dispatches to an engine operation or moves to another state.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-analyzer/internal/config"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/datasource"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/output"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/iwvelando/loan-analyzer/pkg/summary"
	"go.uber.org/zap"
)

type state int

const (
	stateMain state = iota
	stateScenario
	stateExit
)

const mainOptions = `
=== Loan analyzer ===
1. Load data
2. Analyze loans
3. Scenarios
4. Balance schedule
5. Export CSV
6. Calculator
7. Executive summary
0. Exit
`

const scenarioOptions = `
=== Scenarios ===
1. Rate shock
2. Prepayment
3. Refinance
0. Back
`

// errNoData is reported when an option needs a loaded batch.
var errNoData = errors.New("no loans loaded, choose 1 to load data first")

// Menu drives the interactive session. It is not safe for concurrent use.
type Menu struct {
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger
	engine scenario.Engine
	conf   *config.Configuration

	// load reads a batch from a path; datasource.Load unless replaced in tests.
	load func(path string) ([]loans.LoanRecord, error)

	loaded bool
	batch  []loans.LoanRecord
}

// New creates a Menu reading choices from in and writing to out.
func New(in io.Reader, out io.Writer, logger *zap.Logger, engine scenario.Engine, conf *config.Configuration) (*Menu, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		var err error
		if conf, err = config.Default(); err != nil {
			return nil, err
		}
	}
	if engine == nil {
		opts, err := conf.SimulatorOptions()
		if err != nil {
			return nil, err
		}
		engine = scenario.NewSimulator(logger, opts)
	}
	return &Menu{
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
		engine: engine,
		conf:   conf,
		load:   datasource.Load,
	}, nil
}

// Run loops until the user exits or the input ends. Failed operations are
// reported and the loop continues; only output errors end the session early.
func (m *Menu) Run() error {
	current := stateMain
	for current != stateExit {
		var err error
		switch current {
		case stateMain:
			current, err = m.mainState()
		case stateScenario:
			current, err = m.scenarioState()
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(m.out, "Goodbye.")
	return nil
}

func (m *Menu) mainState() (state, error) {
	if _, err := io.WriteString(m.out, mainOptions); err != nil {
		return stateExit, err
	}
	choice, ok := m.prompt("Choose an option: ")
	if !ok {
		return stateExit, nil
	}

	var err error
	switch choice {
	case "1":
		err = m.loadData()
	case "2":
		err = m.analyze()
	case "3":
		return stateScenario, nil
	case "4":
		err = m.schedules()
	case "5":
		err = m.exportCSV()
	case "6":
		err = m.calculator()
	case "7":
		err = m.executiveSummary()
	case "0":
		return stateExit, nil
	default:
		fmt.Fprintf(m.out, "Invalid option %q\n", choice)
	}
	m.report(err, "menu.mainState")
	return stateMain, nil
}

func (m *Menu) scenarioState() (state, error) {
	if _, err := io.WriteString(m.out, scenarioOptions); err != nil {
		return stateExit, err
	}
	choice, ok := m.prompt("Choose a scenario: ")
	if !ok {
		return stateExit, nil
	}

	var err error
	switch choice {
	case "1":
		err = m.rateShock()
	case "2":
		err = m.prepayment()
	case "3":
		err = m.refinance()
	case "0":
		return stateMain, nil
	default:
		fmt.Fprintf(m.out, "Invalid option %q\n", choice)
	}
	m.report(err, "menu.scenarioState")
	return stateScenario, nil
}

func (m *Menu) report(err error, op string) {
	if err == nil {
		return
	}
	m.logger.Debug("menu operation failed",
		zap.String("op", op),
		zap.Error(err),
	)
	fmt.Fprintf(m.out, "Error: %v\n", err)
}

// prompt prints label and returns the next trimmed input line. ok is false
// once the input is exhausted.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		fmt.Fprintln(m.out)
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) promptFloat(label string, fallback float64) (float64, error) {
	value, _ := m.prompt(fmt.Sprintf("%s [%g]: ", label, fallback))
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return f, nil
}

func (m *Menu) requireBatch() error {
	if !m.loaded {
		return errNoData
	}
	return nil
}

func (m *Menu) loadData() error {
	path, _ := m.prompt(fmt.Sprintf("File path [%s]: ", m.conf.Data.Path))
	if path == "" {
		path = m.conf.Data.Path
	}
	batch, err := m.load(path)
	if err != nil {
		return err
	}
	m.loaded = true
	m.batch = batch
	fmt.Fprintf(m.out, "Loaded %d loans from %s\n", len(batch), path)
	return nil
}

func (m *Menu) analyze() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	analysis, err := m.engine.AnalyzeBatch(m.batch)
	if err != nil {
		return err
	}
	return output.PrettyFormat(m.out, analysis)
}

func (m *Menu) rateShock() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	deltas := m.conf.Scenarios.RateShock.Deltas
	value, _ := m.prompt(fmt.Sprintf("Rate deltas in points %v: ", deltas))
	if value != "" {
		parsed, err := parseDeltas(value)
		if err != nil {
			return err
		}
		deltas = parsed
	}
	report, err := m.engine.RateShock(m.batch, deltas)
	if err != nil {
		return err
	}
	return output.PrettyFormat(m.out, report)
}

func (m *Menu) prepayment() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	fraction, err := m.promptFloat("Extra payment fraction", m.conf.Scenarios.Prepayment.ExtraFraction)
	if err != nil {
		return err
	}
	report, err := m.engine.Prepayment(m.batch, fraction)
	if err != nil {
		return err
	}
	return output.PrettyFormat(m.out, report)
}

func (m *Menu) refinance() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	rate, err := m.promptFloat("New annual rate %", m.conf.Scenarios.Refinance.NewRate)
	if err != nil {
		return err
	}
	report, err := m.engine.Refinance(m.batch, rate)
	if err != nil {
		return err
	}
	return output.PrettyFormat(m.out, report)
}

func (m *Menu) schedules() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	var schedules []output.Schedule
	for i, loan := range m.batch {
		if len(schedules) == constants.ScheduleSampleSize {
			break
		}
		payments, err := loans.BalanceSchedule(loan)
		if err != nil {
			fmt.Fprintf(m.out, "Skipping #%d %s: %v\n", i, loan.Label(), err)
			continue
		}
		schedules = append(schedules, output.Schedule{LoanID: loan.Label(), Payments: payments})
	}
	return output.PrettyFormat(m.out, schedules)
}

func (m *Menu) exportCSV() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	analysis, err := m.engine.AnalyzeBatch(m.batch)
	if err != nil {
		return err
	}

	path := m.conf.Export.CSVPath
	if path == "" {
		path = constants.DefaultExportFile
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteMetricsCSV(f, analysis.Metrics); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	m.logger.Info("metrics exported",
		zap.String("op", "menu.exportCSV"),
		zap.String("path", path),
		zap.Int("loans", len(analysis.Metrics)),
	)
	fmt.Fprintf(m.out, "Exported %d loans to %s\n", len(analysis.Metrics), path)
	return nil
}

func (m *Menu) calculator() error {
	principal, err := m.promptFloat("Amount", 10000)
	if err != nil {
		return err
	}
	rate, err := m.promptFloat("Annual rate %", 5)
	if err != nil {
		return err
	}
	termValue, _ := m.prompt("Term in months [12]: ")
	term := 12
	if termValue != "" {
		if term, err = strconv.Atoi(termValue); err != nil {
			return fmt.Errorf("%q is not a whole number", termValue)
		}
	}

	compound, err := loans.Compound(principal, rate, term, m.conf.Analysis.Frequency)
	if err != nil {
		return err
	}
	payment, err := loans.MonthlyPayment(principal, rate, term)
	if err != nil {
		return err
	}
	comparison, err := loans.CompareFrequencies(principal, rate, term, constants.DefaultComparisonFrequencies)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "Final amount (%s): %.2f\n", compound.FrequencyLabel, compound.FinalAmount)
	fmt.Fprintf(m.out, "Compound interest: %.2f\n", compound.CompoundInterest)
	fmt.Fprintf(m.out, "Simple interest: %.2f\n", compound.SimpleInterest)
	fmt.Fprintf(m.out, "Monthly payment: %.2f\n\n", payment)
	return output.PrettyFormat(m.out, comparison)
}

func (m *Menu) executiveSummary() error {
	if err := m.requireBatch(); err != nil {
		return err
	}
	analysis, err := m.engine.AnalyzeBatch(m.batch)
	if err != nil {
		return err
	}
	return output.PrettyFormat(m.out, summary.Summarize(analysis.Metrics))
}

func parseDeltas(value string) ([]float64, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	deltas := make([]float64, 0, len(fields))
	for _, field := range fields {
		d, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", field)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}
