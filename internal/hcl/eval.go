package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// baseEvalContext builds the root evaluation context shared by every file:
// the merged `vars` object plus a small table of string helpers.
func baseEvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	varsVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		varsVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": varsVal,
		},
		Functions: map[string]function.Function{
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
		},
	}
}

// experimentEvalContext derives a child context exposing the experiment name
// to the rules declared inside an experiment block.
func experimentEvalContext(parent *hcl.EvalContext, name string) *hcl.EvalContext {
	child := parent.NewChild()
	child.Variables = map[string]cty.Value{
		"experiment": cty.StringVal(name),
	}
	return child
}
