// Package checker wraps one invocation of the external check command
// (cargo check --message-format=json by default): it spawns the process in
// the workspace root, streams stdout as JSON lines, and converts
// compiler-message records into diagnostics. Everything else the process
// prints (build progress, artifact metadata, garbage) is skipped.
package checker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tack-ls/tack/protocol"
)

// ErrSpawn marks a checker process that could not be started at all
// (missing binary, permission error). Not retried until the next trigger.
var ErrSpawn = errors.New("checker spawn failed")

// ErrEmptyCommand marks an empty configured checkCommand.
var ErrEmptyCommand = errors.New("checkCommand is empty")

// Record is one parsed diagnostic from the checker's output stream. File is
// the path exactly as the checker reported it, which may be relative to the
// workspace root; the diagnostics coordinator resolves it.
type Record struct {
	File     string
	Range    protocol.Range
	Severity protocol.DiagnosticSeverity
	Message  string
	Code     string
}

// Report is the outcome of a completed (not cancelled) run. ExitErr carries
// a non-zero exit status; cargo exits non-zero whenever the build has
// errors, so this is informational and the records remain valid.
type Report struct {
	Records []Record
	ExitErr error
}

// Runner executes one check. A Runner is single-use; the coordinator builds
// a fresh one per generation.
type Runner struct {
	command []string
	root    string
	logger  *slog.Logger
}

// NewRunner creates a runner for the given command and workspace root.
func NewRunner(command []string, root string, logger *slog.Logger) *Runner {
	return &Runner{command: command, root: root, logger: logger}
}

// Run spawns the checker and consumes its output until the stream ends or
// ctx is cancelled. Cancellation kills the child and returns ctx.Err();
// partially collected records are discarded by returning no report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if len(r.command) == 0 {
		return nil, ErrEmptyCommand
	}
	argv := ensureMessageFormat(r.command)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("checker stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("checker stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	var records []Record
	var g errgroup.Group
	g.Go(func() error {
		records = r.collect(ctx, stdout)
		return nil
	})
	g.Go(func() error {
		// Drained so the child never blocks on a full stderr pipe; cargo's
		// human-readable progress goes there.
		_, _ = io.Copy(io.Discard, stderr)
		return nil
	})
	_ = g.Wait()

	exitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if exitErr != nil {
		r.logger.Debug("checker exited non-zero", "command", argv[0], "error", exitErr)
	}
	return &Report{Records: records, ExitErr: exitErr}, nil
}

// collect parses stdout line by line. One unparseable line is a skip, not a
// stream failure.
func (r *Runner) collect(ctx context.Context, stdout io.Reader) []Record {
	var records []Record
	scanner := bufio.NewScanner(stdout)
	// Compiler-message lines embed full rendered diagnostics and can be
	// arbitrarily long.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		rec, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		r.logger.Debug("checker output stream ended early", "error", err)
	}
	return records
}

// ensureMessageFormat appends --message-format=json to cargo invocations
// that lack one. Without it cargo prints human-readable output and the run
// yields nothing. Non-cargo checkers are taken as configured.
func ensureMessageFormat(command []string) []string {
	if filepath.Base(command[0]) != "cargo" {
		return command
	}
	for _, arg := range command {
		if strings.Contains(arg, "--message-format") {
			return command
		}
	}
	out := make([]string, 0, len(command)+1)
	out = append(out, command...)
	return append(out, "--message-format=json")
}
