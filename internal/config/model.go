package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Model is the unified, format-agnostic representation of the entire build
// declaration: producer rules, phony groups, and clean categories.
type Model struct {
	Rules  []*Rule
	Groups map[string]*Group
	Cleans map[string]*Clean
}

// Rule maps a set of input artifacts to one or more output artifacts via an
// external command. All declared outputs are produced jointly by a single
// invocation: they are simultaneously stale or simultaneously fresh.
type Rule struct {
	// Name is the rule's declared label, unique within its experiment scope.
	Name string
	// Experiment is the optimization scenario this rule belongs to. Empty
	// for rules declared outside an experiment block.
	Experiment string
	// Outputs is the grouped output set, at least one artifact path.
	Outputs []string
	// Inputs is the static ordered input list.
	Inputs []string
	// InputsFrom optionally enumerates additional inputs dynamically by
	// querying the naming-resolution collaborator.
	InputsFrom *InputQuery
	// Command is the producer invocation, run through the system shell.
	Command string
	// CaptureStdout redirects the command's standard output into the single
	// declared output instead of letting the command write it (table
	// generators emit to stdout).
	CaptureStdout bool
}

// ID returns the rule's unique graph address, e.g. "rule.optimize.zeroguess".
func (r *Rule) ID() string {
	if r.Experiment != "" {
		return fmt.Sprintf("rule.%s.%s", r.Name, r.Experiment)
	}
	return "rule." + r.Name
}

// InputQuery describes a dynamic input enumeration: the naming-resolution
// collaborator is invoked with an experiment name and an artifact-kind tag
// and returns an ordered list of expected file names on stdout.
type InputQuery struct {
	Command    string
	Experiment string
	Kind       string
}

// Group is a phony aggregate target. It has no filesystem artifact of its
// own; resolving it resolves every listed target.
type Group struct {
	Name    string
	Targets []string
}

// Clean is a named destructive reset of one artifact category. Paths are
// deleted unconditionally; Command, when set, runs the typesetting tool's
// own auxiliary-file cleanup afterwards.
type Clean struct {
	Name    string
	Paths   []string
	Command string
}

// Validate checks the structural invariants of the model that are
// independent of the filesystem: unique rule addresses, exactly one producer
// per artifact, sane capture_stdout usage, and safe clean paths.
func (m *Model) Validate() error {
	seenRules := make(map[string]struct{})
	producers := make(map[string]string)

	for _, rule := range m.Rules {
		id := rule.ID()
		if _, ok := seenRules[id]; ok {
			return fmt.Errorf("duplicate rule %q", id)
		}
		seenRules[id] = struct{}{}

		if len(rule.Outputs) == 0 {
			return fmt.Errorf("rule %q declares no outputs", id)
		}
		if rule.CaptureStdout && len(rule.Outputs) != 1 {
			return fmt.Errorf("rule %q captures stdout but declares %d outputs; exactly one is required", id, len(rule.Outputs))
		}
		if rule.Command == "" {
			return fmt.Errorf("rule %q has an empty command", id)
		}
		for _, out := range rule.Outputs {
			if prev, ok := producers[out]; ok {
				return fmt.Errorf("artifact %q is produced by both %q and %q; every artifact must have exactly one producer", out, prev, id)
			}
			producers[out] = id
		}
		if q := rule.InputsFrom; q != nil {
			if q.Command == "" {
				return fmt.Errorf("rule %q: inputs_from requires a command", id)
			}
			if q.Kind == "" {
				return fmt.Errorf("rule %q: inputs_from requires a kind", id)
			}
			if q.Experiment == "" {
				return fmt.Errorf("rule %q: inputs_from requires an experiment, either explicitly or from an enclosing experiment block", id)
			}
		}
	}

	for name, group := range m.Groups {
		if len(group.Targets) == 0 {
			return fmt.Errorf("group %q lists no targets", name)
		}
	}

	for name, clean := range m.Cleans {
		for _, p := range clean.Paths {
			if filepath.IsAbs(p) || strings.Contains(p, "..") {
				return fmt.Errorf("clean %q: path %q must be relative and stay inside the workspace", name, p)
			}
		}
	}

	return nil
}
