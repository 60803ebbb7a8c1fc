package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"irguard/internal/config"
	"irguard/internal/diag"
	"irguard/internal/ir"
	"irguard/internal/metrics"
	"irguard/internal/observ"
	"irguard/internal/trace"
)

// appState is what the persistent flags and irguard.toml resolve to. It is
// set up once before any subcommand runs.
type appState struct {
	cfg      config.Config
	log      logr.Logger
	zap      *zap.Logger
	tracer   trace.Tracer
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	timer    *observ.Timer

	showMetrics bool
	showTimings bool
	stdout      io.Writer
	stderr      io.Writer
}

var app = &appState{log: logr.Discard(), tracer: trace.Nop}

func setupApp(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	for flag, dst := range map[string]*string{
		"log-level":   &cfg.Log.Level,
		"log-format":  &cfg.Log.Format,
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	} {
		if flags.Changed(flag) {
			v, err := flags.GetString(flag)
			if err != nil {
				return fmt.Errorf("failed to get %s flag: %w", flag, err)
			}
			*dst = v
		}
	}
	// --trace без уровня включает трассировку фаз
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
		if !flags.Changed("trace-mode") {
			cfg.Trace.Mode = "stream"
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.cfg = cfg
	app.stdout = cmd.OutOrStdout()
	app.stderr = cmd.ErrOrStderr()

	colorMode, err := flags.GetString("color")
	if err != nil {
		return err
	}
	if err := setupColor(colorMode); err != nil {
		return err
	}

	app.log, app.zap = newLogger(cfg.Log, app.stderr)
	if cfg.Path != "" {
		app.log.V(1).Info("configuration loaded", "path", cfg.Path)
	}

	if app.tracer, err = setupTracing(cfg.Trace); err != nil {
		return err
	}

	app.registry = prometheus.NewRegistry()
	if app.metrics, err = metrics.New(app.registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if app.showMetrics, err = flags.GetBool("metrics"); err != nil {
		return err
	}
	if app.showTimings, err = flags.GetBool("timings"); err != nil {
		return err
	}
	app.timer = observ.NewTimer()

	ctx := logr.NewContext(cmd.Context(), app.log)
	ctx = trace.WithTracer(ctx, app.tracer)
	cmd.SetContext(ctx)
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		return config.Load(path)
	}
	cfg, _, err := config.Discover(".")
	return cfg, err
}

func setupColor(mode string) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		enabled = isTerminal(os.Stdout)
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !enabled
	if !enabled {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return nil
}

// newLogger builds the zap backend and bridges it to logr. logr verbosity
// V(n) maps onto zap level -n, so "debug" shows V(1) and "trace" V(2).
func newLogger(cfg config.LogConfig, w io.Writer) (logr.Logger, *zap.Logger) {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "error":
		level = zapcore.ErrorLevel
	case "debug":
		level = zapcore.DebugLevel
	case "trace":
		level = zapcore.Level(-2)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		if !color.NoColor {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	zl := zap.New(core)
	return zapr.NewLogger(zl), zl
}

// contextOptions wires the shared logger, tracer and metrics into a context.
func contextOptions(rep diag.Reporter) []ir.Option {
	return []ir.Option{
		ir.WithLogger(app.log),
		ir.WithTracer(app.tracer),
		ir.WithMetrics(app.metrics),
		ir.WithReporter(rep),
		ir.WithMultithreading(app.cfg.Context.Multithreading),
	}
}

// newReporter collects diagnostics into a bag sized by [report], dropping
// ignored codes and, unless disabled, duplicates.
func newReporter() (diag.Reporter, *diag.Bag) {
	bag := diag.NewBag(app.cfg.Report.MaxDiagnostics)
	ignored := app.cfg.IgnoredCodes()
	var rep diag.Reporter = diag.ReporterFunc(func(d diag.Diagnostic) {
		if !ignored[d.Code] {
			bag.Add(d)
		}
	})
	if app.cfg.Report.Dedup {
		rep = diag.NewDedupReporter(rep)
	}
	return rep, bag
}

func printDiagnostics(w io.Writer, bag *diag.Bag) {
	if bag.Len() == 0 {
		return
	}
	fmt.Fprintln(w, diag.FormatShort(bag.Items(), app.cfg.Report.Notes))
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "... %d more diagnostics dropped (max_diagnostics=%d)\n", n, app.cfg.Report.MaxDiagnostics)
	}
}

// close flushes tracing, prints timings and metrics. Runs after the command,
// including failed ones.
func (a *appState) close() {
	if a.stderr == nil {
		return
	}
	if ring, ok := trace.Ring(a.tracer); ok && a.cfg.Trace.Mode == "ring" && a.cfg.Trace.Output != "" {
		if err := dumpRing(ring, a.cfg.Trace.Output); err != nil {
			fmt.Fprintf(a.stderr, "trace: dump error: %v\n", err)
		}
	}
	if err := a.tracer.Flush(); err != nil {
		fmt.Fprintf(a.stderr, "trace: flush error: %v\n", err)
	}
	if err := a.tracer.Close(); err != nil {
		fmt.Fprintf(a.stderr, "trace: close error: %v\n", err)
	}
	if a.showTimings {
		fmt.Fprint(a.stderr, a.timer.Summary())
	}
	if a.showMetrics {
		if err := metrics.Dump(a.stdout, a.registry); err != nil {
			fmt.Fprintf(a.stderr, "metrics: %v\n", err)
		}
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}
