// Package runner connects the interpreter to the process: it reads script
// files, renders diagnostics, reports timing and records runs.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/expr"
	"github.com/antibyte/zen/pkg/history"
	"github.com/antibyte/zen/pkg/logger"
	"github.com/antibyte/zen/pkg/shared"
	"github.com/antibyte/zen/pkg/zen"

	"github.com/google/uuid"
)

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// Config controls one run.
type Config struct {
	Args   []string
	Timing bool // print the execution time after the run
	Color  bool // colour diagnostics and the timing line
	Trace  bool

	Recorder Recorder // nil disables recording
	Origin   string

	Stdout io.Writer
	Stderr io.Writer

	NewEvaluator func() zen.Evaluator
}

// ConfigFromSettings fills Config from the [Output] and [Debug] sections.
func ConfigFromSettings() Config {
	return Config{
		Timing: configuration.GetBool("Output", "show_timing", false),
		Color:  configuration.GetBool("Output", "color", true),
		Trace:  configuration.GetBool("Debug", "trace_lines", false),
		Origin: history.OriginCLI,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Result summarises a finished run.
type Result struct {
	RunID     uuid.UUID
	Stats     shared.RunStats
	Cancelled bool
}

// RunFile reads and runs the script at path. Only an unreadable file is an
// error; statement errors are reported as diagnostics.
func RunFile(ctx context.Context, path string, cfg Config) (Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading script: %w", err)
	}
	return RunSource(ctx, path, source, cfg)
}

// RunSource runs source, naming it name in logs and the journal.
func RunSource(ctx context.Context, name string, source []byte, cfg Config) (Result, error) {
	cfg = withDefaults(cfg)

	program, err := zen.LoadProgram(bytes.NewReader(source))
	if err != nil {
		return Result{}, err
	}

	p := newPrinter(cfg.Stdout, cfg.Color)
	in := zen.New(program,
		zen.WithArgs(zen.ParseArgs(cfg.Args)),
		zen.WithOutput(cfg.Stdout),
		zen.WithDiagnostics(p.diagnostic),
		zen.WithEvaluator(cfg.NewEvaluator()),
		zen.WithTrace(cfg.Trace),
	)

	res := Result{RunID: uuid.New()}
	logger.Info(logger.AreaGeneral, "Run %s of %s started (%d lines, %d args)", res.RunID, name, len(program), len(cfg.Args))

	started := time.Now()
	runErr := in.Run(ctx)
	elapsed := time.Since(started)

	stats := in.Stats()
	res.Cancelled = runErr != nil
	res.Stats = shared.RunStats{
		Steps:       stats.Steps,
		Jumps:       stats.Jumps,
		Diagnostics: stats.Diagnostics,
		Printed:     stats.Printed,
		DurationMs:  elapsed.Milliseconds(),
	}

	if cfg.Timing {
		p.timing(elapsed)
	}
	logger.Info(logger.AreaGeneral, "Run %s finished: %d steps, %d diagnostics, %v (cancelled: %t)",
		res.RunID, stats.Steps, stats.Diagnostics, elapsed, res.Cancelled)

	if cfg.Recorder != nil {
		run := &history.Run{
			ID:          res.RunID,
			Script:      name,
			Digest:      history.Digest(source),
			Args:        cfg.Args,
			Origin:      cfg.Origin,
			StartedAt:   started,
			Duration:    elapsed,
			Steps:       stats.Steps,
			Jumps:       stats.Jumps,
			Diagnostics: stats.Diagnostics,
			Printed:     stats.Printed,
			Cancelled:   res.Cancelled,
		}
		// The run context may already be cancelled; recording must still happen.
		if err := cfg.Recorder.Record(context.Background(), run); err != nil {
			logger.Error(logger.AreaHistory, "Recording run %s failed: %v", res.RunID, err)
			fmt.Fprintf(cfg.Stderr, "warning: %v\n", err)
		}
	}

	return res, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Origin == "" {
		cfg.Origin = history.OriginCLI
	}
	if cfg.NewEvaluator == nil {
		cfg.NewEvaluator = func() zen.Evaluator { return expr.NewConfiguredEvaluator() }
	}
	return cfg
}
