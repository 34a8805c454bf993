package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/ctxlog"
	"github.com/numapde/papermake/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL paperfile loader.
func NewLoader() *Loader {
	return &Loader{}
}

// varsRoot is used by the first decoding pass, which collects only `vars`
// blocks. Everything else is deferred to the second pass so that rule
// expressions can see the fully merged variable set.
type varsRoot struct {
	Vars   []*schema.VarsBlock `hcl:"vars,block"`
	Remain hcl.Body            `hcl:",remain"`
}

// Load orchestrates the entire paperfile loading process: discovery,
// parsing, two-pass decoding, and translation into the config model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findPaperfiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl paperfiles found under %q", path)
	}
	logger.Debug("Discovered paperfiles.", "count", len(files))

	parser := hclparse.NewParser()
	parsed := make([]*hcl.File, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}
		parsed = append(parsed, hclFile)
	}

	// First pass: merge all vars blocks across all files.
	vars := make(map[string]cty.Value)
	for i, hclFile := range parsed {
		var root varsRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", files[i], diags)
		}
		for _, block := range root.Vars {
			attrs, diags := block.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid vars block in %s: %w", files[i], diags)
			}
			for name, attr := range attrs {
				if _, ok := vars[name]; ok {
					return nil, fmt.Errorf("variable %q declared more than once", name)
				}
				val, diags := attr.Expr.Value(nil)
				if diags.HasErrors() {
					return nil, fmt.Errorf("failed to evaluate variable %q: %w", name, diags)
				}
				vars[name] = val
			}
		}
	}
	logger.Debug("Variables merged.", "count", len(vars))

	// Second pass: decode every block with the full evaluation context.
	evalCtx := baseEvalContext(vars)
	model := &config.Model{
		Groups: make(map[string]*config.Group),
		Cleans: make(map[string]*config.Clean),
	}

	for i, hclFile := range parsed {
		var root schema.FileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", files[i], diags)
		}

		for _, rule := range root.Rules {
			model.Rules = append(model.Rules, translateRule(rule, ""))
		}
		for _, exp := range root.Experiments {
			expCtx := experimentEvalContext(evalCtx, exp.Name)
			var content schema.ExperimentContent
			if diags := gohcl.DecodeBody(exp.Body, expCtx, &content); diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode experiment %q in %s: %w", exp.Name, files[i], diags)
			}
			for _, rule := range content.Rules {
				model.Rules = append(model.Rules, translateRule(rule, exp.Name))
			}
		}
		for _, group := range root.Groups {
			if _, ok := model.Groups[group.Name]; ok {
				return nil, fmt.Errorf("group %q declared more than once", group.Name)
			}
			model.Groups[group.Name] = translateGroup(group)
		}
		for _, clean := range root.Cleans {
			if _, ok := model.Cleans[clean.Name]; ok {
				return nil, fmt.Errorf("clean category %q declared more than once", clean.Name)
			}
			model.Cleans[clean.Name] = translateClean(clean)
		}
	}

	logger.Debug("Paperfile loading complete.",
		"rules", len(model.Rules), "groups", len(model.Groups), "cleans", len(model.Cleans))
	return model, nil
}

// findPaperfiles walks the given path and returns all .hcl files found. A
// single-file path is returned as-is.
func findPaperfiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("%s is not an .hcl paperfile", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
