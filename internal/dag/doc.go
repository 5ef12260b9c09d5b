// Package dag provides a small, concurrency-safe directed graph keyed by
// string IDs.
//
// The IR uses it to model which modules nest which: an edge from a parent
// module to a child module means the child is referenced by a control-flow
// instruction of the parent. Cycle detection rejects a module that
// (transitively) nests itself, and Ancestors tells the validator which
// modules an instruction may read inputs from.
//
// The graph builder also orders declarations with it. TopologicalOrder
// keeps insertion order wherever dependencies allow, so a graph file that
// is already in order builds into the same instruction order.
package dag
