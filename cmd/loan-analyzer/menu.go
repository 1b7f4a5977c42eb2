package main

import (
	"github.com/iwvelando/loan-analyzer/internal/menu"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start the interactive text menu",
	Long: `Start an interactive session to load a loan file, analyze it, run
scenarios, print balance schedules, export results and use the
compound interest calculator.`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	m, err := menu.New(cmd.InOrStdin(), cmd.OutOrStdout(), logger, engine, conf)
	if err != nil {
		return err
	}
	return m.Run()
}
