package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"xclower/internal/trace"
)

// setupTracing builds the tracer from --trace, --trace-level and the config.
// The returned cleanup flushes and closes the output.
func setupTracing(cmd *cobra.Command, cfg config) (trace.Tracer, func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	if levelStr == "" {
		levelStr = cfg.Trace.Level
		// a trace file without any level asks for phases
		if traceOutput != "" && levelStr == "off" {
			levelStr = "phase"
		}
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	if level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}

	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, nil, err
	}
	if format == trace.FormatAuto {
		format = trace.FormatText
		if strings.EqualFold(filepath.Ext(traceOutput), ".ndjson") || strings.EqualFold(filepath.Ext(traceOutput), ".jsonl") {
			format = trace.FormatNDJSON
		}
	}

	if traceOutput == "" || traceOutput == "-" {
		tr := trace.NewStreamTracer(os.Stderr, level, format)
		return tr, func() { _ = tr.Flush() }, nil
	}
	// #nosec G304 -- user-selected trace destination
	f, err := os.Create(traceOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	tr := trace.NewStreamTracer(f, level, format)
	return tr, func() {
		_ = tr.Flush()
		_ = f.Close()
	}, nil
}
