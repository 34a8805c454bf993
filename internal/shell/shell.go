// Package shell invokes external collaborator commands as blocking child
// processes through the system shell. The orchestrator never interprets
// command strings itself; everything a rule runs goes through here.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Runner executes shell commands in a fixed working directory. Commands
// inherit the parent environment: collaborators need PATH, TEXINPUTS and
// friends to function.
type Runner struct {
	// Dir is the working directory for every invocation. All artifact
	// paths in the build declaration are relative to it.
	Dir string
	// Stdout and Stderr receive the command's output streams unless the
	// caller captures stdout. Nil writers discard the stream.
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the outcome of one captured invocation.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Run executes the command, streaming its output, and returns the exit code.
// A non-nil error indicates the command could not be run at all; a nonzero
// exit status is reported through the code, not the error.
func (r *Runner) Run(ctx context.Context, command string) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return r.wait(ctx, cmd)
}

// RunCapture executes the command with stdout and stderr captured in memory.
func (r *Runner) RunCapture(ctx context.Context, command string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code, err := r.wait(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return &Result{
		ExitCode: code,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

// wait runs the prepared command to completion and normalizes the exit code.
func (r *Runner) wait(ctx context.Context, cmd *exec.Cmd) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Interruption leaves outputs in whatever partial state the
		// command left them; the caller surfaces the cancellation.
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("failed to run command: %w", err)
}
