package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A paperfile with a syntax error makes app.New panic during loading;
	// run must recover it into a clean error.
	invalidHCL := `
rule "broken" {
  outputs = [
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "paperfile.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, out, []string{"build", "-f", filePath})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "a critical startup error occurred")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(out, out, []string{"--help"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
	require.Contains(t, out.String(), "build")
	require.Contains(t, out.String(), "clean")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(out, out, []string{"build", "--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
