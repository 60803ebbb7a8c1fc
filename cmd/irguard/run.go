package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"irguard/internal/ir"
	"irguard/internal/scenario"
	"irguard/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <scenario.yaml>...",
	Short: "Run scripted contract scenarios",
	Long: `Run executes each scenario on a fresh context and prints a table of step
outcomes. The command fails when a step's outcome differs from its expectation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().String("format", "table", "report format (table|text)")
	runCmd.Flags().String("snapshot", "", "write the uniquing store of the last scenario to this file")
	runCmd.Flags().Bool("diagnostics", false, "print the reported diagnostics after each scenario")
}

func runExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	snapshotPath, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return err
	}
	showDiags, err := cmd.Flags().GetBool("diagnostics")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "table" && format != "text" {
		return fmt.Errorf("unsupported format %q (must be table or text)", format)
	}

	out := cmd.OutOrStdout()
	failed := 0
	var last *scenario.Result
	for i, path := range args {
		idx := app.timer.Begin("scenario " + path)
		s, err := scenario.Load(path)
		if err != nil {
			app.timer.End(idx, "invalid")
			return fmt.Errorf("%s: %w", path, err)
		}

		rep, bag := newReporter()
		res, err := scenario.Run(cmd.Context(), s,
			scenario.WithReporter(rep),
			scenario.WithContextOptions(ir.WithMetrics(app.metrics)),
		)
		if err != nil {
			app.timer.End(idx, "script error")
			return fmt.Errorf("%s: %w", path, err)
		}
		app.timer.End(idx, fmt.Sprintf("%d steps", len(res.Steps)))
		last = res

		if i > 0 {
			fmt.Fprintln(out)
		}
		if format == "text" {
			err = res.WriteText(out)
		} else {
			err = ui.WriteScenario(out, res)
		}
		if err != nil {
			return err
		}
		if showDiags {
			printDiagnostics(out, bag)
		}
		if res.Failed() > 0 {
			failed++
		}
	}

	if snapshotPath != "" && last != nil {
		if err := writeSnapshot(snapshotPath, last); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}

func writeSnapshot(path string, res *scenario.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := res.Store.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
