package dag

import "fmt"

// Lookup maps a requested target name to its node. Group names resolve to
// their phony node, output paths to their producing rule, and anything else
// to a source artifact node created on demand. Whether a source target
// actually exists is checked at execution time.
func (g *Graph) Lookup(target string) *Node {
	if node, ok := g.byGroup[target]; ok {
		return node
	}
	return g.artifactNode(target)
}

// Subgraph returns the minimal set of nodes needed to bring the requested
// targets up to date: the targets' nodes plus their transitive dependencies.
func (g *Graph) Subgraph(targets []string) map[string]*Node {
	nodes := make(map[string]*Node)

	var visit func(n *Node)
	visit = func(n *Node) {
		if _, ok := nodes[n.ID]; ok {
			return
		}
		nodes[n.ID] = n
		for _, dep := range n.Deps {
			visit(dep)
		}
	}

	for _, target := range targets {
		visit(g.Lookup(target))
	}
	return nodes
}

// Targets returns every addressable real target: all declared rule outputs
// and all group names. Ordering is left to the caller.
func (g *Graph) Targets() []string {
	targets := make([]string, 0, len(g.byOutput)+len(g.byGroup))
	for out := range g.byOutput {
		targets = append(targets, out)
	}
	for name := range g.byGroup {
		targets = append(targets, name)
	}
	return targets
}

// detectCycles checks the graph for cycles using a depth-first search with
// three node sets: permanent (fully visited, known safe), temporary
// (currently in the recursion stack), and unvisited.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			// A node already in the recursion stack means a cycle.
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}

		temporary[n.ID] = true
		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true

		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
