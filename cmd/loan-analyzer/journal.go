package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/output"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the scenario run journal",
	Long: `Query runs recorded in the SQLite journal. Runs are recorded by the
analyze and scenario commands when export.journalPath is configured.

Subcommands:
  runs  - List recorded runs, newest first
  show  - Print the per-loan rows of one run

Examples:
  loan-analyzer journal runs --db runs.db
  loan-analyzer journal show 01J9Z3K8Q4W6V0M2N5T7X1Y3B4`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the rows of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal (default from config)")
}

func openJournal(cmd *cobra.Command) (*export.Journal, error) {
	path := conf.Export.JournalPath
	if journalDBPath != "" {
		path = journalDBPath
	}
	if path == "" {
		return nil, errors.New("no journal configured, set export.journalPath or --db")
	}
	j, err := export.OpenJournal(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Runs(cmd.Context())
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if conf.Output.Format == constants.OutputFormatJSON {
		return output.JSONFormat(cmd.OutOrStdout(), runs)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run ID                     | Kind       | Created              | Loans | Rejected | Parameters\n")
	fmt.Fprintf(w, "______                     | ____       | _______              | _____ | ________ | __________\n")
	for _, run := range runs {
		fmt.Fprintf(w, "%-26s | %-10s | %s | %5d | %8d | %s\n",
			run.ID, run.Kind, run.CreatedAt.UTC().Format(time.RFC3339), run.Loans, run.Rejected, formatParameters(run.Parameters))
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	rows, err := j.Rows(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no rows", args[0])
	}
	if conf.Output.Format == constants.OutputFormatJSON {
		return output.JSONFormat(cmd.OutOrStdout(), rows)
	}

	w := cmd.OutOrStdout()
	for _, row := range rows {
		fmt.Fprintf(w, "%4d %-12s %-16s %.2f\n", row.Position, row.LoanID, row.Metric, row.Value)
	}
	return nil
}

func formatParameters(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, params[k]))
	}
	return strings.Join(parts, " ")
}
