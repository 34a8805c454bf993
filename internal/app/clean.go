package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/executor"
	"github.com/numapde/papermake/internal/shell"
)

// Clean removes all generated artifacts in the named category, then runs the
// category's auxiliary cleanup command when one is declared. Deletion is
// unconditional and irreversible; an absent path is a no-op.
func (a *App) Clean(ctx context.Context, category string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	clean, ok := a.model.Cleans[category]
	if !ok {
		return fmt.Errorf("unknown clean category %q (known: %s)", category, strings.Join(a.cleanCategories(), ", "))
	}

	for _, p := range clean.Paths {
		full := filepath.Join(a.workDir, p)
		a.logger.Info("🔥 Removing artifacts.", "path", p)
		if err := os.RemoveAll(full); err != nil {
			return fmt.Errorf("clean %q: removing %q: %w", category, p, err)
		}
	}

	if clean.Command != "" {
		a.logger.Info("▶️ Running auxiliary cleanup.", "command", clean.Command)
		runner := &shell.Runner{Dir: a.workDir, Stdout: a.outW, Stderr: a.outW}
		code, err := runner.Run(ctx, clean.Command)
		if err != nil {
			return fmt.Errorf("clean %q: %w", category, err)
		}
		if code != 0 {
			return &executor.RuleExecutionError{Rule: "clean." + category, ExitCode: code}
		}
	}

	a.logger.Info("✅ Clean finished.", "category", category)
	return nil
}

// cleanCategories lists the declared clean categories in stable order.
func (a *App) cleanCategories() []string {
	names := make([]string, 0, len(a.model.Cleans))
	for name := range a.model.Cleans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
