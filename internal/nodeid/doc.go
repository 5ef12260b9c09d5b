// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for instruction
addresses used by graph files and diagnostics.

The canonical format is `[module.]name[index]`:

	x            instruction x of the referencing module
	main.x       instruction x of module main
	loop[1]      element 1 of the tuple produced by loop
	main.loop[1] both

A module qualifier is only needed when a nested module reads a value of an
enclosing module with the same instruction name.
*/
package nodeid
