package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/dag"
)

// noDynamicInputs satisfies dag.InputEnumerator for models without
// inputs_from blocks.
type noDynamicInputs struct{}

func (noDynamicInputs) Enumerate(context.Context, *config.InputQuery) ([]string, error) {
	return nil, nil
}

// runPass builds the graph for model, prunes it to targets, and runs one
// sequential resolution pass in dir.
func runPass(t *testing.T, dir string, model *config.Model, targets []string) error {
	t.Helper()
	graph, err := dag.Build(context.Background(), model, noDynamicInputs{})
	require.NoError(t, err)
	nodes := graph.Subgraph(targets)
	return New(nodes, dir, 1, io.Discard, io.Discard).Run(context.Background())
}

// invocations returns the trimmed lines of dir/invocations.log, one per
// producer run.
func invocations(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "invocations.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func writeSource(t *testing.T, dir, name string) {
	t.Helper()
	touch(t, dir, name, time.Now().Add(-time.Hour))
}

func TestRun_BuildsMissingOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "scripts/optimize.py")
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "optimize",
		Outputs: []string{"numericals/controls.npy"},
		Inputs:  []string{"scripts/optimize.py"},
		Command: "echo optimize >> invocations.log && echo c > numericals/controls.npy",
	}}}

	err := runPass(t, dir, model, []string{"numericals/controls.npy"})

	require.NoError(t, err)
	require.Equal(t, []string{"optimize"}, invocations(t, dir))
	require.FileExists(t, filepath.Join(dir, "numericals/controls.npy"))
}

func TestRun_FreshOutputsSkipInvocation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "in.dat")
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "gen",
		Outputs: []string{"out.dat"},
		Inputs:  []string{"in.dat"},
		Command: "echo gen >> invocations.log && cp in.dat out.dat",
	}}}

	require.NoError(t, runPass(t, dir, model, []string{"out.dat"}))
	require.NoError(t, runPass(t, dir, model, []string{"out.dat"}))

	require.Equal(t, []string{"gen"}, invocations(t, dir))
}

func TestRun_InputNewerTriggersRebuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "in.dat")
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "gen",
		Outputs: []string{"out.dat"},
		Inputs:  []string{"in.dat"},
		Command: "echo gen >> invocations.log && cp in.dat out.dat",
	}}}

	require.NoError(t, runPass(t, dir, model, []string{"out.dat"}))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "in.dat"), future, future))

	require.NoError(t, runPass(t, dir, model, []string{"out.dat"}))
	require.Equal(t, []string{"gen", "gen"}, invocations(t, dir))
}

func TestRun_GroupedOutputsRegenerateTogether(t *testing.T) {
	t.Parallel()

	// Deleting one member of a grouped output set must regenerate the whole
	// set with a single new invocation.
	dir := t.TempDir()
	writeSource(t, dir, "scripts/optimize.py")
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "optimize",
		Outputs: []string{"numericals/controls.npy", "numericals/report.json"},
		Inputs:  []string{"scripts/optimize.py"},
		Command: "echo optimize >> invocations.log && echo c > numericals/controls.npy && echo r > numericals/report.json",
	}}}

	require.NoError(t, runPass(t, dir, model, []string{"numericals/report.json"}))
	require.NoError(t, os.Remove(filepath.Join(dir, "numericals/controls.npy")))
	require.NoError(t, runPass(t, dir, model, []string{"numericals/report.json"}))

	require.Equal(t, []string{"optimize", "optimize"}, invocations(t, dir))
	require.FileExists(t, filepath.Join(dir, "numericals/controls.npy"))
	require.FileExists(t, filepath.Join(dir, "numericals/report.json"))
}

func TestRun_MissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "gen",
		Outputs: []string{"out.dat"},
		Inputs:  []string{"absent.dat"},
		Command: "echo gen >> invocations.log && touch out.dat",
	}}}

	err := runPass(t, dir, model, []string{"out.dat"})

	require.Error(t, err)
	var msErr *MissingSourceError
	require.True(t, errors.As(err, &msErr))
	require.Equal(t, "absent.dat", msErr.Path)

	// The dependent producer must not have run.
	require.Empty(t, invocations(t, dir))
}

func TestRun_NonzeroExitStopsDownstream(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{Rules: []*config.Rule{
		{
			Name:    "optimize",
			Outputs: []string{"controls.npy"},
			Command: "echo optimize >> invocations.log && exit 2",
		},
		{
			Name:    "plot",
			Outputs: []string{"plot.pdf"},
			Inputs:  []string{"controls.npy"},
			Command: "echo plot >> invocations.log && touch plot.pdf",
		},
	}}

	err := runPass(t, dir, model, []string{"plot.pdf"})

	require.Error(t, err)
	var execErr *RuleExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, 2, execErr.ExitCode)
	require.Equal(t, "rule.optimize", execErr.Rule)

	require.Equal(t, []string{"optimize"}, invocations(t, dir))
	require.NoFileExists(t, filepath.Join(dir, "plot.pdf"))
}

func TestRun_OutputMissingAfterInvocation(t *testing.T) {
	t.Parallel()

	// The command exits 0 but never writes its second declared output.
	dir := t.TempDir()
	model := &config.Model{Rules: []*config.Rule{{
		Name:    "gen",
		Outputs: []string{"a.out", "b.out"},
		Command: "touch a.out",
	}}}

	err := runPass(t, dir, model, []string{"a.out"})

	require.Error(t, err)
	var outErr *RuleOutputMissingError
	require.True(t, errors.As(err, &outErr))
	require.Equal(t, "b.out", outErr.Output)
}

func TestRun_CaptureStdout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{Rules: []*config.Rule{{
		Name:          "table",
		Outputs:       []string{"tables/convergence.tex"},
		Command:       `printf '%s\n' '\begin{tabular}'`,
		CaptureStdout: true,
	}}}

	require.NoError(t, runPass(t, dir, model, []string{"tables/convergence.tex"}))

	data, err := os.ReadFile(filepath.Join(dir, "tables/convergence.tex"))
	require.NoError(t, err)
	require.Equal(t, "\\begin{tabular}\n", string(data))
}

func TestRun_CaptureStdoutFailureWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{Rules: []*config.Rule{{
		Name:          "table",
		Outputs:       []string{"table.tex"},
		Command:       "echo partial && exit 5",
		CaptureStdout: true,
	}}}

	err := runPass(t, dir, model, []string{"table.tex"})

	require.Error(t, err)
	var execErr *RuleExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, 5, execErr.ExitCode)
	require.NoFileExists(t, filepath.Join(dir, "table.tex"))
}

func TestRun_PhonyTargetForcesDependencies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{
		Rules: []*config.Rule{{
			Name:    "plot",
			Outputs: []string{"plots/energy.pdf"},
			Command: "echo plot >> invocations.log && touch plots/energy.pdf",
		}},
		Groups: map[string]*config.Group{
			"plots":   {Name: "plots", Targets: []string{"plots/energy.pdf"}},
			"default": {Name: "default", Targets: []string{"plots"}},
		},
	}

	require.NoError(t, runPass(t, dir, model, []string{"default"}))
	require.Equal(t, []string{"plot"}, invocations(t, dir))

	// A phony node carries no state of its own, so a second pass over fresh
	// outputs invokes nothing.
	require.NoError(t, runPass(t, dir, model, []string{"default"}))
	require.Equal(t, []string{"plot"}, invocations(t, dir))
}

func TestRun_ParallelWorkersBuildIndependentRules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := &config.Model{
		Rules: []*config.Rule{
			{Name: "a", Outputs: []string{"a.out"}, Command: "touch a.out"},
			{Name: "b", Outputs: []string{"b.out"}, Command: "touch b.out"},
			{Name: "c", Outputs: []string{"c.out"}, Inputs: []string{"a.out", "b.out"}, Command: "cat a.out b.out > c.out"},
		},
	}

	graph, err := dag.Build(context.Background(), model, noDynamicInputs{})
	require.NoError(t, err)
	nodes := graph.Subgraph([]string{"c.out"})

	err = New(nodes, dir, 4, io.Discard, io.Discard).Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "c.out"))
}
