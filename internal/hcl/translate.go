package hcl

import (
	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/schema"
)

// translateRule converts the HCL-specific rule schema into the agnostic
// model. Rules inside an experiment block inherit its name, both as their
// scope and as the default experiment for dynamic input enumeration.
func translateRule(s *schema.Rule, experiment string) *config.Rule {
	r := &config.Rule{
		Name:          s.Name,
		Experiment:    experiment,
		Outputs:       s.Outputs,
		Inputs:        s.Inputs,
		Command:       s.Command,
		CaptureStdout: s.CaptureStdout,
	}
	if s.InputsFrom != nil {
		q := &config.InputQuery{
			Command:    s.InputsFrom.Command,
			Experiment: s.InputsFrom.Experiment,
			Kind:       s.InputsFrom.Kind,
		}
		if q.Experiment == "" {
			q.Experiment = experiment
		}
		r.InputsFrom = q
	}
	return r
}

// translateGroup converts the HCL-specific group schema into the agnostic model.
func translateGroup(s *schema.Group) *config.Group {
	return &config.Group{
		Name:    s.Name,
		Targets: s.Targets,
	}
}

// translateClean converts the HCL-specific clean schema into the agnostic model.
func translateClean(s *schema.Clean) *config.Clean {
	return &config.Clean{
		Name:    s.Name,
		Paths:   s.Paths,
		Command: s.Command,
	}
}
