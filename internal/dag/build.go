package dag

import (
	"context"
	"fmt"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/ctxlog"
)

// InputEnumerator resolves a dynamic input query to an ordered list of
// artifact paths. Build invokes it at most once per distinct query; the
// result is frozen into ordinary graph edges for the rest of the pass.
type InputEnumerator interface {
	Enumerate(ctx context.Context, q *config.InputQuery) ([]string, error)
}

// Build constructs a complete, validated dependency graph from a config
// model. Dynamic input lists are enumerated here, once per build, so the
// returned graph is immutable.
func Build(ctx context.Context, model *config.Model, enum InputEnumerator) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")

	graph := &Graph{
		Nodes:    make(map[string]*Node),
		byOutput: make(map[string]*Node),
		byGroup:  make(map[string]*Node),
	}

	// First pass: create a node per rule and index its outputs.
	for _, rule := range model.Rules {
		node := newNode(rule.ID(), RuleNode)
		node.Rule = rule
		if _, ok := graph.Nodes[node.ID]; ok {
			return nil, fmt.Errorf("duplicate rule %q", node.ID)
		}
		graph.Nodes[node.ID] = node
		for _, out := range rule.Outputs {
			if prev, ok := graph.byOutput[out]; ok {
				return nil, fmt.Errorf("artifact %q is produced by both %q and %q", out, prev.ID, node.ID)
			}
			graph.byOutput[out] = node
		}
	}
	logger.Debug("Build: Rule nodes created.", "count", len(graph.Nodes))

	// Second pass: resolve every rule's input list, enumerating dynamic
	// inputs through the collaborator, and link edges.
	queryCache := make(map[string][]string)
	for _, rule := range model.Rules {
		node := graph.Nodes[rule.ID()]
		inputs := append([]string(nil), rule.Inputs...)

		if q := rule.InputsFrom; q != nil {
			key := q.Command + "\x00" + q.Experiment + "\x00" + q.Kind
			dynamic, ok := queryCache[key]
			if !ok {
				var err error
				dynamic, err = enum.Enumerate(ctx, q)
				if err != nil {
					return nil, err
				}
				queryCache[key] = dynamic
			}
			inputs = append(inputs, dynamic...)
		}

		node.Inputs = inputs
		for _, in := range inputs {
			addEdge(graph.artifactNode(in), node)
		}
	}
	logger.Debug("Build: Rule inputs linked.")

	// Third pass: phony group nodes and their edges.
	for name, group := range model.Groups {
		node := newNode("group."+name, PhonyNode)
		node.Group = group
		graph.Nodes[node.ID] = node
		graph.byGroup[name] = node
	}
	for name, group := range model.Groups {
		node := graph.byGroup[name]
		for _, target := range group.Targets {
			if dep, ok := graph.byGroup[target]; ok {
				addEdge(dep, node)
				continue
			}
			addEdge(graph.artifactNode(target), node)
		}
	}
	logger.Debug("Build: Group nodes linked.", "count", len(model.Groups))

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	logger.Debug("Build: Graph construction successful.", "node_count", len(graph.Nodes))
	return graph, nil
}

// artifactNode returns the node for an artifact path: the producing rule
// node when one exists, otherwise a source node created on first reference.
func (g *Graph) artifactNode(path string) *Node {
	if node, ok := g.byOutput[path]; ok {
		return node
	}
	id := "src." + path
	if node, ok := g.Nodes[id]; ok {
		return node
	}
	node := newNode(id, SourceNode)
	node.Path = path
	g.Nodes[id] = node
	return node
}
