package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/dag"
	"github.com/numapde/papermake/internal/naming"
)

// Targets prints every addressable target, one per line: declared rule
// outputs and group names.
func (a *App) Targets(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	graph, err := dag.Build(ctx, a.model, naming.NewResolver(a.workDir))
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}

	targets := graph.Targets()
	sort.Strings(targets)
	for _, t := range targets {
		fmt.Fprintln(a.outW, t)
	}
	return nil
}
