package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/numapde/papermake/internal/dag"
)

// isStale decides whether a rule's grouped output set needs regeneration:
// stale iff any declared output is missing, or the newest input is strictly
// newer than the oldest output. Using the minimum output timestamp keeps the
// grouped-output invariant intact after a prior partial failure: if one
// output of the group lags behind, the whole group regenerates together.
func (e *Executor) isStale(node *dag.Node) (bool, string, error) {
	outTime, allExist, err := e.oldestOutputTime(node.Rule.Outputs)
	if err != nil {
		return false, "", err
	}
	if !allExist {
		return true, "output missing", nil
	}

	for _, in := range node.Inputs {
		info, err := os.Stat(filepath.Join(e.dir, in))
		if err != nil {
			// Dependencies resolved before this rule ran, so every input
			// should exist by now; a missing one is a wiring defect.
			return false, "", fmt.Errorf("stat input %q of rule %q: %w", in, node.ID, err)
		}
		if info.ModTime().After(outTime) {
			return true, fmt.Sprintf("input %q newer than outputs", in), nil
		}
	}

	return false, "", nil
}

// oldestOutputTime returns the effective timestamp of a grouped output set:
// the minimum mtime among the declared outputs. allExist is false when any
// output is absent.
func (e *Executor) oldestOutputTime(outputs []string) (time.Time, bool, error) {
	var oldest time.Time
	for i, out := range outputs {
		info, err := os.Stat(filepath.Join(e.dir, out))
		if err != nil {
			if os.IsNotExist(err) {
				return time.Time{}, false, nil
			}
			return time.Time{}, false, fmt.Errorf("stat output %q: %w", out, err)
		}
		if i == 0 || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}
	return oldest, true, nil
}
