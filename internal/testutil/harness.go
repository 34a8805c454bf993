// Package testutil provides a standardized harness for integration tests:
// a temporary workspace populated with paperfiles and fake collaborator
// scripts, run through the full application.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/numapde/papermake/internal/app"
	"github.com/numapde/papermake/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
}

// Workspace creates a temporary workspace directory populated with the given
// files (paperfiles, source artifacts, fake collaborator scripts). Relative
// paths in the map create the subdirectory structure.
func Workspace(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunBuild runs a full build of the given targets against a workspace
// created from files. Startup panics are recovered into HarnessResult.Err.
func RunBuild(t *testing.T, files map[string]string, targets []string) *HarnessResult {
	t.Helper()
	dir := Workspace(t, files)
	return BuildIn(t, dir, targets)
}

// BuildIn runs a full build of the given targets against an existing
// workspace directory. It allows scenarios that build the same workspace
// more than once.
func BuildIn(t *testing.T, dir string, targets []string) *HarnessResult {
	t.Helper()

	result := &HarnessResult{Dir: dir}
	logBuffer := &SafeBuffer{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		cfg := &app.Config{
			PaperfilePath: dir,
			LogLevel:      "debug",
			LogFormat:     "text",
			Jobs:          1,
		}
		result.App = app.New(logBuffer, cfg, hcl.NewLoader())
		result.Err = result.App.Build(context.Background(), targets)
	}()

	result.LogOutput = logBuffer.String()
	return result
}

// CleanIn runs a clean of the given category against an existing workspace.
func CleanIn(t *testing.T, dir string, category string) *HarnessResult {
	t.Helper()

	result := &HarnessResult{Dir: dir}
	logBuffer := &SafeBuffer{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		cfg := &app.Config{
			PaperfilePath: dir,
			LogLevel:      "debug",
			LogFormat:     "text",
			Jobs:          1,
		}
		result.App = app.New(logBuffer, cfg, hcl.NewLoader())
		result.Err = result.App.Clean(context.Background(), category)
	}()

	result.LogOutput = logBuffer.String()
	return result
}

// Invocations reads the fake collaborators' shared invocation log: tests
// declare commands that append one line per run to invocations.log, so the
// file records how often and in which order producers actually ran.
func Invocations(t *testing.T, dir string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "invocations.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
