// Package ir holds the mutable instruction graph: Programs own Modules,
// Modules own Instructions.
//
// Instructions live in a per-module arena and are addressed by Ref, a
// module pointer plus a slot index. Slots are never reused, so a Ref held
// across a rewrite either still names the same instruction or reports
// !Valid(). Module order is a doubly linked list over the arena with sparse
// integer positions, which makes "does a precede b" a single comparison.
//
// Every mutation keeps three properties: an input from the same module
// precedes its user, every input is live, and every cached shape equals
// what the operation infers from its current inputs. Breaking the first two
// is a programmer error and panics; shape inference failures are returned.
//
// Control-flow instructions refer to nested modules of the same Program.
// Instructions inside a nested module may read values from any module that
// encloses it.
package ir
