package dag

import (
	"sync"
	"sync/atomic"

	"github.com/numapde/papermake/internal/config"
)

// NodeKind distinguishes the three vertex types in the build graph.
type NodeKind int

const (
	// RuleNode is a producer: it regenerates its declared outputs when
	// they are stale.
	RuleNode NodeKind = iota
	// SourceNode is an artifact no rule produces; it is current iff it
	// exists on the filesystem.
	SourceNode
	// PhonyNode is a named aggregate with no artifact of its own.
	PhonyNode
)

// NodeState tracks a node through one execution pass.
type NodeState int32

const (
	Pending NodeState = iota
	Running
	Done
	Failed
)

// Node is a single vertex in the build graph.
type Node struct {
	// ID is the node's unique graph address, e.g. "rule.optimize.zeroguess",
	// "src.manuscript.tex", or "group.plots".
	ID   string
	Kind NodeKind

	// Rule is set for RuleNode vertices.
	Rule *config.Rule
	// Path is the artifact path for SourceNode vertices.
	Path string
	// Group is set for PhonyNode vertices.
	Group *config.Group

	// Inputs is the resolved, ordered input artifact list of a RuleNode:
	// static inputs first, then the dynamic enumeration result.
	Inputs []string

	// Deps are the nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents are the nodes depending on this node (successors).
	Dependents map[string]*Node

	// State and Error describe the node's outcome during one execution pass.
	State atomic.Int32
	Error error

	// DepCount counts unfinished dependencies during execution.
	DepCount atomic.Int32
	// SkipOnce guards the one-shot skip of a node after upstream failure.
	SkipOnce sync.Once
}

// newNode allocates a node with initialized edge maps.
func newNode(id string, kind NodeKind) *Node {
	return &Node{
		ID:         id,
		Kind:       kind,
		Deps:       make(map[string]*Node),
		Dependents: make(map[string]*Node),
	}
}

// Graph is the complete, validated build graph.
type Graph struct {
	// Nodes stores all nodes, keyed by their unique ID.
	Nodes map[string]*Node
	// byOutput maps each declared output path to its producing rule node.
	byOutput map[string]*Node
	// byGroup maps each group name to its phony node.
	byGroup map[string]*Node
}

// addEdge records that `to` depends on `from`.
func addEdge(from, to *Node) {
	to.Deps[from.ID] = from
	from.Dependents[to.ID] = to
}
