// Package config loads irguard.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"irguard/internal/diag"
	"irguard/internal/trace"
)

// FileName is the project configuration file looked up by Find.
const FileName = "irguard.toml"

// Config mirrors irguard.toml. Zero sections keep their defaults.
type Config struct {
	Path string `toml:"-"`

	Context ContextConfig `toml:"context"`
	Trace   TraceConfig   `toml:"trace"`
	Log     LogConfig     `toml:"log"`
	Report  ReportConfig  `toml:"report"`
}

type ContextConfig struct {
	Multithreading bool `toml:"multithreading"`
	// Jobs bounds the pass scheduler fan-out; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

type TraceConfig struct {
	Output   string `toml:"output"`
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	RingSize int    `toml:"ring_size"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // error|info|debug|trace
	Format string `toml:"format"` // console|json
}

type ReportConfig struct {
	MaxDiagnostics int      `toml:"max_diagnostics"`
	Notes          bool     `toml:"notes"`
	Dedup          bool     `toml:"dedup"`
	Ignore         []string `toml:"ignore"` // codes never shown, e.g. "policy_violation"
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Trace: TraceConfig{Level: "off", Mode: "ring", RingSize: 4096},
		Log:   LogConfig{Level: "info", Format: "console"},
		Report: ReportConfig{
			MaxDiagnostics: 200,
			Dedup:          true,
		},
	}
}

// Find walks up from startDir to locate irguard.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses path on top of Default and validates the result. Unknown keys
// are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads irguard.toml starting at startDir. Without a file
// it returns Default and ok=false.
func Discover(startDir string) (cfg Config, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, false, err
	}
	if !ok {
		return Default(), false, nil
	}
	cfg, err = Load(path)
	return cfg, true, err
}

// Validate checks value ranges and enum spellings.
func (c Config) Validate() error {
	if c.Context.Jobs < 0 {
		return fmt.Errorf("[context].jobs must be >= 0, got %d", c.Context.Jobs)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if c.Trace.RingSize < 0 {
		return fmt.Errorf("[trace].ring_size must be >= 0, got %d", c.Trace.RingSize)
	}
	switch c.Log.Level {
	case "error", "info", "debug", "trace":
	default:
		return fmt.Errorf("[log].level: invalid level %q (expected: error|info|debug|trace)", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("[log].format: invalid format %q (expected: console|json)", c.Log.Format)
	}
	if c.Report.MaxDiagnostics < 0 {
		return fmt.Errorf("[report].max_diagnostics must be >= 0, got %d", c.Report.MaxDiagnostics)
	}
	for _, name := range c.Report.Ignore {
		if _, ok := diag.ParseCode(name); !ok {
			return fmt.Errorf("[report].ignore: unknown code %q", name)
		}
	}
	return nil
}

// IgnoredCodes resolves Report.Ignore. Call after Validate.
func (c Config) IgnoredCodes() map[diag.Code]bool {
	out := make(map[diag.Code]bool, len(c.Report.Ignore))
	for _, name := range c.Report.Ignore {
		if code, ok := diag.ParseCode(name); ok {
			out[code] = true
		}
	}
	return out
}
