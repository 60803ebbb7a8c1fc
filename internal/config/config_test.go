package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"irguard/internal/diag"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("Find = %q, want %q", got, want)
	}
}

func TestDiscoverWithoutFileReturnsDefaults(t *testing.T) {
	cfg, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Skip("an irguard.toml exists above the temp dir")
	}
	if cfg.Log.Level != "info" || cfg.Trace.Mode != "ring" || cfg.Report.MaxDiagnostics != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[context]
multithreading = true
jobs = 4

[trace]
level = "detail"
output = "trace.ndjson"

[report]
ignore = ["policy_violation", "RACE3001"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Context.Multithreading || cfg.Context.Jobs != 4 {
		t.Fatalf("context section not applied: %+v", cfg.Context)
	}
	if cfg.Trace.Level != "detail" || cfg.Trace.Mode != "ring" {
		t.Fatalf("trace section: %+v", cfg.Trace)
	}
	if cfg.Log.Format != "console" {
		t.Fatalf("log defaults lost: %+v", cfg.Log)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q", cfg.Path)
	}
	ignored := cfg.IgnoredCodes()
	if !ignored[diag.PolViolation] || !ignored[diag.RaceConcurrentAccess] || len(ignored) != 2 {
		t.Fatalf("IgnoredCodes = %v", ignored)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"unknown key":   {"[context]\nthreads = 2\n", "unknown keys: context.threads"},
		"bad level":     {"[trace]\nlevel = \"loud\"\n", "[trace].level"},
		"negative jobs": {"[context]\njobs = -1\n", "[context].jobs"},
		"bad log":       {"[log]\nformat = \"xml\"\n", "[log].format"},
		"bad code":      {"[report]\nignore = [\"nope\"]\n", "unknown code"},
		"syntax":        {"[context\n", "failed to parse TOML"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load error = %v, want containing %q", err, tc.want)
			}
		})
	}
}
