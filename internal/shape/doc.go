// internal/shape/doc.go

/*
Package shape describes the result layout of an instruction: an element type,
dimension lengths and per-dimension strides, or an ordered list of sub-shapes
for multi-output operations.

A shape is standard when its strides are the row-major packing of its lens,
and packed when every storage slot is addressed exactly once. Permutations
are packed but not standard; zero-stride broadcasts are neither.
*/
package shape
