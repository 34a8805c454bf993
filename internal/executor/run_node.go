package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/dag"
)

// executeNode resolves a single node according to its kind.
func (e *Executor) executeNode(ctx context.Context, node *dag.Node) error {
	switch node.Kind {
	case dag.SourceNode:
		return e.checkSource(ctx, node)
	case dag.PhonyNode:
		// A phony target has no artifact and no staleness of its own; its
		// entire effect is forcing resolution of its dependencies.
		ctxlog.FromContext(ctx).Debug("Phony target resolved.", "nodeID", node.ID)
		return nil
	case dag.RuleNode:
		return e.executeRule(ctx, node)
	default:
		return fmt.Errorf("unknown node kind %d for %q", node.Kind, node.ID)
	}
}

// checkSource verifies that a source artifact exists.
func (e *Executor) checkSource(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx)
	if _, err := os.Stat(filepath.Join(e.dir, node.Path)); err != nil {
		if os.IsNotExist(err) {
			return &MissingSourceError{Path: node.Path}
		}
		return fmt.Errorf("stat source %q: %w", node.Path, err)
	}
	logger.Debug("Source artifact present.", "path", node.Path)
	return nil
}

// executeRule performs the staleness check and, when needed, the single
// invocation regenerating all of the rule's declared outputs.
func (e *Executor) executeRule(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("rule", node.ID)

	stale, reason, err := e.isStale(node)
	if err != nil {
		return err
	}
	if !stale {
		logger.Debug("Outputs current, skipping invocation.")
		return nil
	}

	logger.Info("▶️ Invoking rule", "reason", reason, "command", node.Rule.Command)

	// Producers assume their output directories exist, the same way a
	// checked-out tree provides them.
	for _, out := range node.Rule.Outputs {
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(filepath.Join(e.dir, dir), 0o755); err != nil {
				return fmt.Errorf("rule %q: creating output directory: %w", node.ID, err)
			}
		}
	}

	if node.Rule.CaptureStdout {
		if err := e.invokeCaptured(ctx, node); err != nil {
			return err
		}
	} else {
		code, err := e.shell.Run(ctx, node.Rule.Command)
		if err != nil {
			return fmt.Errorf("rule %q: %w", node.ID, err)
		}
		if code != 0 {
			return &RuleExecutionError{Rule: node.ID, ExitCode: code}
		}
	}

	// The invocation claimed success; every declared output must now exist.
	for _, out := range node.Rule.Outputs {
		if _, err := os.Stat(filepath.Join(e.dir, out)); err != nil {
			if os.IsNotExist(err) {
				return &RuleOutputMissingError{Rule: node.ID, Output: out}
			}
			return fmt.Errorf("stat output %q: %w", out, err)
		}
	}

	logger.Info("✅ Rule finished", "outputs", node.Rule.Outputs)
	return nil
}

// invokeCaptured runs a capture_stdout rule: the command's standard output
// becomes the content of the single declared output. Nothing is written on
// a nonzero exit.
func (e *Executor) invokeCaptured(ctx context.Context, node *dag.Node) error {
	res, err := e.shell.RunCapture(ctx, node.Rule.Command)
	if err != nil {
		return fmt.Errorf("rule %q: %w", node.ID, err)
	}
	if res.ExitCode != 0 {
		return &RuleExecutionError{Rule: node.ID, ExitCode: res.ExitCode}
	}

	out := filepath.Join(e.dir, node.Rule.Outputs[0])
	if err := os.WriteFile(out, res.Stdout, 0o644); err != nil {
		return fmt.Errorf("rule %q: writing captured output: %w", node.ID, err)
	}
	return nil
}
