// Package naming queries the naming-resolution collaborator: an external
// command that, given an experiment name and an artifact-kind tag, prints
// the ordered list of expected file names, one per line.
package naming

import (
	"context"
	"fmt"
	"strings"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/shell"
)

// NamingResolutionError reports a failed enumeration: the collaborator
// exited nonzero.
type NamingResolutionError struct {
	Command    string
	Experiment string
	Kind       string
	ExitCode   int
	Stderr     string
}

// Error implements the error interface for NamingResolutionError.
func (e *NamingResolutionError) Error() string {
	return fmt.Sprintf("naming resolution for experiment %q kind %q failed: %q exited with status %d",
		e.Experiment, e.Kind, e.Command, e.ExitCode)
}

// Resolver invokes the collaborator as a child process in the workspace
// directory and parses its stdout.
type Resolver struct {
	shell *shell.Runner
}

// NewResolver creates a Resolver executing in the given workspace directory.
func NewResolver(dir string) *Resolver {
	return &Resolver{shell: &shell.Runner{Dir: dir}}
}

// Enumerate runs the collaborator once and returns the ordered file list.
// An empty result is valid: the dependent rule is treated as having no
// inputs. The caller is responsible for once-per-build caching.
func (r *Resolver) Enumerate(ctx context.Context, q *config.InputQuery) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	command := fmt.Sprintf("%s %s %s", q.Command, q.Experiment, q.Kind)
	logger.Debug("Enumerating dynamic inputs.", "command", command)

	res, err := r.shell.RunCapture(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("naming resolution for experiment %q kind %q: %w", q.Experiment, q.Kind, err)
	}
	if res.ExitCode != 0 {
		return nil, &NamingResolutionError{
			Command:    q.Command,
			Experiment: q.Experiment,
			Kind:       q.Kind,
			ExitCode:   res.ExitCode,
			Stderr:     string(res.Stderr),
		}
	}

	// The result set is an exact, ordered list: one file name per line,
	// surrounding whitespace ignored, blank lines skipped.
	var names []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
	}

	logger.Debug("Dynamic inputs enumerated.", "experiment", q.Experiment, "kind", q.Kind, "count", len(names))
	return names, nil
}
