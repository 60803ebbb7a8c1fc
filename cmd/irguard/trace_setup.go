package main

import (
	"fmt"
	"os"
	"strings"

	"irguard/internal/config"
	"irguard/internal/trace"
)

// setupTracing creates the tracer described by [trace] and the trace flags.
func setupTracing(cfg config.TraceConfig) (trace.Tracer, error) {
	level, err := trace.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		return trace.Nop, nil
	}
	mode, err := trace.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: cfg.Output,
		RingSize:   cfg.RingSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	return tracer, nil
}

// dumpRing writes the events kept by a ring tracer to path ("-" for stderr).
func dumpRing(ring *trace.RingTracer, path string) error {
	if path == "-" {
		return ring.Dump(os.Stderr, trace.FormatText)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open trace output: %w", err)
	}
	defer f.Close()
	format := trace.FormatText
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		format = trace.FormatNDJSON
	}
	return ring.Dump(f, format)
}
