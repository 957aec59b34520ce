package zen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/antibyte/zen/pkg/expr"
	"github.com/antibyte/zen/pkg/logger"
	"github.com/davecgh/go-spew/spew"
)

// Evaluator computes the value of an expression string. The engine never
// does arithmetic itself.
type Evaluator interface {
	Eval(src string) (expr.Value, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(src string) (expr.Value, error)

// Eval calls f(src).
func (f EvaluatorFunc) Eval(src string) (expr.Value, error) {
	return f(src)
}

// Stats counts what a run did.
type Stats struct {
	Steps       int64 // lines executed, including abandoned ones
	Jumps       int64
	Diagnostics int64
	Printed     int64 // output lines written
}

// Interpreter executes a Program. It is not safe for concurrent use; one
// run owns its variables and labels exclusively.
type Interpreter struct {
	program  Program
	labels   LabelTable
	vars     *Store
	args     []int64
	eval     Evaluator
	out      io.Writer
	diagnose func(*Error)
	trace    bool

	pc    int
	stats Stats
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithArgs sets the argument vector read by `!N`.
func WithArgs(args []int64) Option {
	return func(in *Interpreter) {
		in.args = append([]int64(nil), args...)
	}
}

// WithEvaluator replaces the default expression evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(in *Interpreter) {
		in.eval = e
	}
}

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithDiagnostics sets the sink for statement errors. By default they
// are written to the output as a line of their own.
func WithDiagnostics(fn func(*Error)) Option {
	return func(in *Interpreter) {
		in.diagnose = fn
	}
}

// WithTrace logs every executed line and its tokens at debug level.
func WithTrace(enabled bool) Option {
	return func(in *Interpreter) {
		in.trace = enabled
	}
}

// New prepares program for execution. Labels are resolved here, before
// any statement runs, so forward jumps work.
func New(program Program, opts ...Option) *Interpreter {
	in := &Interpreter{
		program: program,
		vars:    NewStore(),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.eval == nil {
		in.eval = expr.NewConfiguredEvaluator()
	}
	if in.diagnose == nil {
		in.diagnose = func(err *Error) {
			fmt.Fprintln(in.out, err.Error())
		}
	}

	labels, duplicates := BuildLabels(program)
	in.labels = labels
	for _, dup := range duplicates {
		in.report(dup)
	}

	if in.trace && logger.Enabled(logger.DEBUG, logger.AreaInterpreter) {
		logger.InterpreterDebug("labels found: %s", spew.Sdump(labels))
	}
	return in
}

// Step executes the line at the program counter and reports whether the
// program has more lines to run.
func (in *Interpreter) Step() bool {
	if in.pc >= len(in.program) {
		return false
	}
	line := in.program[in.pc]
	in.stats.Steps++

	text, err := Substitute(line.Text, in.vars)
	if err != nil {
		// The whole line is abandoned.
		in.report(err.AtLine(line.Number))
		in.pc++
		return in.pc < len(in.program)
	}

	tokens := Tokenize(text)
	if in.trace && logger.Enabled(logger.DEBUG, logger.AreaInterpreter) {
		logger.InterpreterDebug("executing line %d (pc %d): %s\n%s", line.Number, in.pc, text, spew.Sdump(tokens))
	}

	if in.dispatch(tokens, line) {
		in.stats.Jumps++
	} else {
		in.pc++
	}
	return in.pc < len(in.program)
}

// Run executes until the program counter falls off the end of the
// program. There is no step limit: a goto loop runs until ctx is
// cancelled, which is the only error Run returns.
func (in *Interpreter) Run(ctx context.Context) error {
	logger.InterpreterInfo("run started: %d lines, %d labels, %d args", len(in.program), len(in.labels), len(in.args))

	done := ctx.Done()
	for in.pc < len(in.program) {
		if done != nil {
			select {
			case <-done:
				logger.InterpreterWarn("run cancelled at line index %d after %d steps", in.pc, in.stats.Steps)
				return ctx.Err()
			default:
			}
		}
		in.Step()
	}

	logger.InterpreterInfo("run finished: %d steps, %d jumps, %d diagnostics", in.stats.Steps, in.stats.Jumps, in.stats.Diagnostics)
	return nil
}

// PC returns the index of the next line to execute.
func (in *Interpreter) PC() int {
	return in.pc
}

// Stats returns the counters of the run so far.
func (in *Interpreter) Stats() Stats {
	return in.stats
}

// Variables returns a copy of the variable store.
func (in *Interpreter) Variables() map[string]int64 {
	return in.vars.Snapshot()
}

// Lookup returns the current value of a variable.
func (in *Interpreter) Lookup(name string) (int64, bool) {
	return in.vars.Get(name)
}

func (in *Interpreter) report(err *Error) {
	in.stats.Diagnostics++
	logger.InterpreterDebug("diagnostic: %v", err)
	in.diagnose(err)
}

func (in *Interpreter) writeLine(s string) {
	in.stats.Printed++
	if _, err := fmt.Fprintln(in.out, s); err != nil {
		logger.InterpreterWarn("writing output failed: %v", err)
	}
}
