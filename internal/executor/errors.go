package executor

import "fmt"

// MissingSourceError reports a required artifact that no rule produces and
// that is absent from the filesystem.
type MissingSourceError struct {
	Path string
}

// Error implements the error interface for MissingSourceError.
func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source artifact %q: no rule produces it and it does not exist", e.Path)
}

// RuleExecutionError reports a producer command that exited nonzero. Partial
// outputs from the failed invocation are left in place for inspection.
type RuleExecutionError struct {
	Rule     string
	ExitCode int
}

// Error implements the error interface for RuleExecutionError.
func (e *RuleExecutionError) Error() string {
	return fmt.Sprintf("rule %q: command exited with status %d", e.Rule, e.ExitCode)
}

// RuleOutputMissingError reports a rule whose invocation succeeded without
// writing one of its declared outputs. A rule that claims two outputs but
// writes only one violates its contract.
type RuleOutputMissingError struct {
	Rule   string
	Output string
}

// Error implements the error interface for RuleOutputMissingError.
func (e *RuleOutputMissingError) Error() string {
	return fmt.Sprintf("rule %q: declared output %q does not exist after invocation", e.Rule, e.Output)
}

// skipError marks a node that never ran because something upstream failed.
// It is a symptom, not a root cause, and is filtered from error reporting.
type skipError struct {
	dependency string
}

// Error implements the error interface for skipError.
func (e *skipError) Error() string {
	return fmt.Sprintf("skipped due to upstream failure of '%s'", e.dependency)
}
