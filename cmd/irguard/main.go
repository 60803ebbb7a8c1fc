// Command irguard drives the guarded handle layer: scripted contract
// scenarios, a concurrent stress run and store snapshot inspection.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"irguard/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "irguard",
	Short:             "Memory- and concurrency-safe handles over an IR object graph",
	Long:              `irguard runs contract scenarios and stress workloads against the guarded handle layer`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

// main registers subcommands and persistent flags, then executes the root
// command. A failing command exits with status 1.
func main() {
	rootCmd.Version = version.Collect().Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(snapshotCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to irguard.toml (default: search upwards from the working directory)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("log-level", "", "log level (error|info|debug|trace)")
	flags.String("log-format", "", "log format (console|json)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	flags.Bool("metrics", false, "print prometheus metrics on exit")
	flags.Bool("timings", false, "show timing information")

	err := rootCmd.Execute()
	app.close()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
