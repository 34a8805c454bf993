// Package dag builds the artifact dependency graph from a config model:
// one node per producer rule, phony group, and source artifact, with edges
// from every input to the rule consuming it. The graph is immutable once
// built; all mutation during a build is confined to the filesystem side
// effects of rule invocations.
package dag
