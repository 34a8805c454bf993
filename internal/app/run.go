package app

import (
	"context"
	"fmt"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/dag"
	"github.com/numapde/papermake/internal/executor"
	"github.com/numapde/papermake/internal/naming"
)

// Build brings the requested targets up to date. With no targets given, the
// `default` group is built when one is declared.
func (a *App) Build(ctx context.Context, targets []string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	targets, err := a.defaultTargets(targets)
	if err != nil {
		return err
	}

	_, nodes, err := a.plan(ctx, targets)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Starting build.", "targets", targets, "nodes", len(nodes), "jobs", a.jobs)
	exec := executor.New(nodes, a.workDir, a.jobs, a.outW, a.outW)
	if err := exec.Run(ctx); err != nil {
		return err
	}
	a.logger.Info("🏁 Build finished.", "targets", targets)
	return nil
}

// plan constructs the dependency graph for one build pass and prunes it to
// the requested targets. Dynamic input enumeration happens here, once per
// pass.
func (a *App) plan(ctx context.Context, targets []string) (*dag.Graph, map[string]*dag.Node, error) {
	graph, err := dag.Build(ctx, a.model, naming.NewResolver(a.workDir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	nodes := graph.Subgraph(targets)
	a.logger.Debug("Subgraph pruned to requested targets.", "node_count", len(nodes))
	return graph, nodes, nil
}

// defaultTargets substitutes the `default` group when no target is requested.
func (a *App) defaultTargets(targets []string) ([]string, error) {
	if len(targets) > 0 {
		return targets, nil
	}
	if _, ok := a.model.Groups["default"]; ok {
		return []string{"default"}, nil
	}
	return nil, fmt.Errorf("no target requested and no 'default' group declared")
}
