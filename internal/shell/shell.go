// Package shell runs formatter commands in an in-process POSIX shell so they
// behave the same on every platform that has the formatter binary.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes shell commands from a fixed directory.
type Runner struct {
	dir        string
	env        []string
	blockFuncs []BlockFunc
}

// New creates a Runner working in dir, or in the working directory when dir
// is empty.
func New(dir string, blockers []BlockFunc) *Runner {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &Runner{
		dir:        dir,
		env:        os.Environ(),
		blockFuncs: blockers,
	}
}

// Dir returns the directory commands run in.
func (r *Runner) Dir() string { return r.dir }

// Run executes command with stdin connected to the given reader and returns
// what it wrote to stdout and stderr.
func (r *Runner) Run(ctx context.Context, command string, stdin io.Reader) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := r.RunStream(ctx, command, stdin, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// RunStream is Run with caller supplied output writers.
func (r *Runner) RunStream(ctx context.Context, command string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("command execution panic: %v", p)
		}
	}()

	parsed, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return fmt.Errorf("could not parse command: %w", err)
	}

	runner, err := interp.New(
		interp.StdIO(stdin, stdout, stderr),
		interp.Interactive(false),
		interp.Env(expand.ListEnviron(r.env...)),
		interp.Dir(r.dir),
		interp.ExecHandlers(r.blockHandler()),
	)
	if err != nil {
		return fmt.Errorf("could not create interpreter: %w", err)
	}
	return runner.Run(ctx, parsed)
}

func (r *Runner) blockHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			for _, bf := range r.blockFuncs {
				if bf(args) {
					return fmt.Errorf("command blocked: %q", args[0])
				}
			}
			return next(ctx, args)
		}
	}
}

// ExitCode extracts the exit code from an interpreter error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr interp.ExitStatus
	if errors.As(err, &exitErr) {
		return int(exitErr)
	}
	return 1
}
