package app

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/dag"
)

// watchDebounce coalesces bursts of filesystem events (editors write, sync,
// and rename in quick succession) into one rebuild.
const watchDebounce = 200 * time.Millisecond

// Watch builds the requested targets, then watches their source artifacts
// and rebuilds whenever one changes. A failed rebuild is logged and watching
// continues; only watcher breakdowns or context cancellation end the loop.
func (a *App) Watch(ctx context.Context, targets []string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	targets, err := a.defaultTargets(targets)
	if err != nil {
		return err
	}

	if err := a.Build(ctx, targets); err != nil {
		a.logger.Error("Initial build failed, watching anyway.", "error", err)
	}

	_, nodes, err := a.plan(ctx, targets)
	if err != nil {
		return err
	}
	sources, dirs := sourcePaths(a.workDir, nodes)
	if len(sources) == 0 {
		a.logger.Warn("No source artifacts to watch for the requested targets.")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	a.logger.Info("👀 Watching source artifacts.", "sources", len(sources), "directories", len(dirs))

	var debounce *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := sources[filepath.Clean(event.Name)]; !watched {
				continue
			}
			a.logger.Debug("Source changed.", "path", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case <-rebuild:
			if err := a.Build(ctx, targets); err != nil {
				a.logger.Error("Rebuild failed.", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// sourcePaths collects the source artifacts of a pruned subgraph, keyed by
// absolute path, along with the sorted set of parent directories to watch.
func sourcePaths(workDir string, nodes map[string]*dag.Node) (map[string]struct{}, []string) {
	sources := make(map[string]struct{})
	dirSet := make(map[string]struct{})
	for _, node := range nodes {
		if node.Kind != dag.SourceNode {
			continue
		}
		abs := filepath.Clean(filepath.Join(workDir, node.Path))
		sources[abs] = struct{}{}
		dirSet[filepath.Dir(abs)] = struct{}{}
	}

	dirs := make([]string, 0, len(dirSet))
	for dir := range dirSet {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return sources, dirs
}
