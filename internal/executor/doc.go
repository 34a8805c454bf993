// Package executor brings a requested set of build targets up to date. It
// walks the pruned dependency graph with a worker pool, checks each rule's
// outputs against its inputs' timestamps, and invokes the producer command
// only when an output is missing or older than an input. With a single
// worker execution is strictly sequential; with more, independent subtrees
// run in parallel while a rule is still never invoked before all of its
// inputs are current.
package executor
