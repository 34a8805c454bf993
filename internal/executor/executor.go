package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/dag"
	"github.com/numapde/papermake/internal/shell"
)

// Executor runs one resolution pass over a pruned subgraph.
type Executor struct {
	nodes   map[string]*dag.Node
	dir     string
	shell   *shell.Runner
	workers int
	wg      sync.WaitGroup
}

// New creates an Executor for a pruned node set, as returned by
// dag.Subgraph. dir is the workspace directory all artifact paths are
// relative to; collaborator output streams go to outW and errW.
func New(nodes map[string]*dag.Node, dir string, workers int, outW, errW io.Writer) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		nodes:   nodes,
		dir:     dir,
		shell:   &shell.Runner{Dir: dir, Stdout: outW, Stderr: errW},
		workers: workers,
	}
}

// Run executes the subgraph and returns an error if any node fails. It
// respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *dag.Node, len(e.nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.nodes {
		node.State.Store(int32(dag.Pending))
		node.Error = nil
		// Subgraph is dependency-closed, so every dep is in the set.
		node.DepCount.Store(int32(len(node.Deps)))
		if len(node.Deps) == 0 {
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.nodes))

	logger.Debug("Starting worker pool.", "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	// Collect failures in a stable order; skips and cancellations are
	// symptoms, not causes.
	ids := make([]string, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var failedNodes []string
	var rootCauseError error
	for _, id := range ids {
		node := e.nodes[id]
		if node.State.Load() != int32(dag.Failed) || node.Error == nil {
			continue
		}
		logger.Error("Node failed execution.", "nodeID", node.ID, "error", node.Error)
		var skip *skipError
		if errors.As(node.Error, &skip) || errors.Is(node.Error, context.Canceled) {
			continue
		}
		failedNodes = append(failedNodes, node.ID)
		if rootCauseError == nil {
			rootCauseError = node.Error
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("build failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}
	return nil
}

// skipDependents recursively marks all downstream nodes as failed and
// releases their WaitGroup slots, confined to the pruned set.
func (e *Executor) skipDependents(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	for id, dependent := range node.Dependents {
		if _, ok := e.nodes[id]; !ok {
			continue
		}
		dependent.SkipOnce.Do(func() {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependent.ID, "dependency", node.ID)
			dependent.State.Store(int32(dag.Failed))
			dependent.Error = &skipError{dependency: node.ID}
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for node := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", node.ID)

		if ctx.Err() != nil {
			node.SkipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping node execution.")
				node.State.Store(int32(dag.Failed))
				node.Error = ctx.Err()
				e.wg.Done()
			})
			continue
		}

		workerLogger.Debug("Worker picked up node for resolution.")
		node.State.Store(int32(dag.Running))
		err := e.executeNode(ctx, node)

		if err != nil {
			workerLogger.Error("Node resolution failed.", "error", err)
			node.State.Store(int32(dag.Failed))
			node.Error = err
			cancel()
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		node.State.Store(int32(dag.Done))

		for id, dependent := range node.Dependents {
			if _, ok := e.nodes[id]; !ok {
				continue
			}
			if dependent.DepCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		e.wg.Done()
	}
}
