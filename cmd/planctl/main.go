/*
main.go - planctl command-line entry point

PURPOSE:
  Runs the schedule engine against a project file (JSON or YAML) without a
  server. Every command loads the project, resolves calendars through the
  project's registry, and prints a colored report or, with --json, the raw
  engine result.

COMMANDS:
  validate            List constraint violations
  apply               Auto-resolve constraints and print the moved tasks
  conflicts           Detect resource overallocation
  level               Run resource leveling
  cost                Price every allocation with the project's rates
  metrics             Scenario metrics for the project as planned
  calendar end-date   Last working day of a task of N days
  calendar days       Working days between two dates

SEE ALSO:
  - factory/project.go: Project file schema
  - config/config.go: Engine defaults shared with the server
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", BoldRed("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "planctl",
		Short: "Validate, level and price project schedules",
		Long: `planctl reads a project file (tasks, calendars, resources, allocations,
constraints and rates) and runs the schedule engine over it: constraint
validation and resolution, resource conflict detection and leveling,
time-varied costing and scenario metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&app.projectPath, "project", "p", "", "Project file (.json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().BoolVar(&app.json, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(validateCmd(app))
	rootCmd.AddCommand(applyCmd(app))
	rootCmd.AddCommand(conflictsCmd(app))
	rootCmd.AddCommand(levelCmd(app))
	rootCmd.AddCommand(costCmd(app))
	rootCmd.AddCommand(metricsCmd(app))
	rootCmd.AddCommand(calendarCmd(app))

	return rootCmd
}
