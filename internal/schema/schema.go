// Package schema defines the HCL block structures of a paperfile. These
// structs carry the `hcl:` tags used by gohcl decoding and are translated
// into the format-agnostic config model by the hcl package.
package schema

import "github.com/hashicorp/hcl/v2"

// VarsBlock represents the content of a `vars` block. Its attributes are
// evaluated before any other block and exposed as `var.<name>`.
type VarsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// InputsFrom represents the `inputs_from` block within a rule: the dynamic
// input enumeration performed by the naming-resolution collaborator.
type InputsFrom struct {
	Command    string `hcl:"command"`
	Kind       string `hcl:"kind"`
	Experiment string `hcl:"experiment,optional"`
}

// Rule represents a `rule` block: one producer mapping inputs to one or more
// outputs via an external command.
type Rule struct {
	Name          string      `hcl:"name,label"`
	Outputs       []string    `hcl:"outputs"`
	Inputs        []string    `hcl:"inputs,optional"`
	Command       string      `hcl:"command"`
	CaptureStdout bool        `hcl:"capture_stdout,optional"`
	InputsFrom    *InputsFrom `hcl:"inputs_from,block"`
}

// Experiment represents an `experiment` block. Its body is decoded in a
// second pass with the `experiment` variable in scope, so nested rules can
// template their paths on the scenario name.
type Experiment struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// ExperimentContent holds the blocks permitted inside an experiment.
type ExperimentContent struct {
	Rules []*Rule `hcl:"rule,block"`
}

// Group represents a `group` block: a phony aggregate target.
type Group struct {
	Name    string   `hcl:"name,label"`
	Targets []string `hcl:"targets"`
}

// Clean represents a `clean` block: a named destructive reset of one
// artifact category.
type Clean struct {
	Name    string   `hcl:"name,label"`
	Paths   []string `hcl:"paths"`
	Command string   `hcl:"command,optional"`
}

// FileRoot represents the top-level structure of a paperfile, containing
// all block kinds the orchestrator understands.
type FileRoot struct {
	Vars        []*VarsBlock  `hcl:"vars,block"`
	Experiments []*Experiment `hcl:"experiment,block"`
	Rules       []*Rule       `hcl:"rule,block"`
	Groups      []*Group      `hcl:"group,block"`
	Cleans      []*Clean      `hcl:"clean,block"`
}
