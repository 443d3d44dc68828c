// Package format pipes buffer text through external formatter commands.
package format

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/shell"
)

// ErrNoCommand is returned when no formatter command is configured.
var ErrNoCommand = errors.New("no formatter command")

// Formatter runs formatter commands that read source on stdin and write the
// formatted result to stdout.
type Formatter struct {
	runner  *shell.Runner
	timeout time.Duration
}

// New returns a Formatter running commands through r. A zero timeout means
// commands are bounded only by the caller's context.
func New(r *shell.Runner, timeout time.Duration) *Formatter {
	return &Formatter{runner: r, timeout: timeout}
}

// Format returns text as formatted by command.
func (f *Formatter) Format(ctx context.Context, command, text string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", ErrNoCommand
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	stdout, stderr, err := f.runner.Run(ctx, command, strings.NewReader(text))
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return "", fmt.Errorf("format %q: exit %d: %s", command, shell.ExitCode(err), msg)
		}
		return "", fmt.Errorf("format %q: %w", command, err)
	}
	log.Debug().Str("command", command).Dur("took", time.Since(start)).Msg("format: done")
	return stdout, nil
}
