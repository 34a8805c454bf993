package executor

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/dag"
)

// touch writes a file and pins its mtime.
func touch(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func stalenessNode(outputs, inputs []string) *dag.Node {
	rule := &config.Rule{Name: "gen", Outputs: outputs, Command: "true"}
	return &dag.Node{ID: rule.ID(), Kind: dag.RuleNode, Rule: rule, Inputs: inputs}
}

func TestIsStale_MissingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, dir, "a.out", base)

	e := New(nil, dir, 1, io.Discard, io.Discard)
	node := stalenessNode([]string{"a.out", "b.out"}, nil)

	stale, reason, err := e.isStale(node)
	require.NoError(t, err)
	require.True(t, stale)
	require.Equal(t, "output missing", reason)
}

func TestIsStale_FreshWhenOutputsNotOlder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, dir, "in.dat", base)
	touch(t, dir, "out.dat", base) // equal mtimes count as fresh

	e := New(nil, dir, 1, io.Discard, io.Discard)
	node := stalenessNode([]string{"out.dat"}, []string{"in.dat"})

	stale, _, err := e.isStale(node)
	require.NoError(t, err)
	require.False(t, stale)
}

func TestIsStale_InputNewerThanOldestOutput(t *testing.T) {
	t.Parallel()

	// One output of the group lags behind the input; the whole group is stale
	// even though the other output is newer.
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, dir, "in.dat", base.Add(10*time.Minute))
	touch(t, dir, "old.out", base)
	touch(t, dir, "new.out", base.Add(20*time.Minute))

	e := New(nil, dir, 1, io.Discard, io.Discard)
	node := stalenessNode([]string{"old.out", "new.out"}, []string{"in.dat"})

	stale, reason, err := e.isStale(node)
	require.NoError(t, err)
	require.True(t, stale)
	require.Contains(t, reason, "in.dat")
}

func TestOldestOutputTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	touch(t, dir, "a.out", base.Add(time.Minute))
	touch(t, dir, "b.out", base)

	e := New(nil, dir, 1, io.Discard, io.Discard)

	oldest, allExist, err := e.oldestOutputTime([]string{"a.out", "b.out"})
	require.NoError(t, err)
	require.True(t, allExist)
	require.True(t, oldest.Equal(base))

	_, allExist, err = e.oldestOutputTime([]string{"a.out", "gone.out"})
	require.NoError(t, err)
	require.False(t, allExist)
}
