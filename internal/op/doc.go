/*
Package op defines the Operation contract and the builtin operation set.

An operation is a small Go struct. Its attributes are the struct fields
tagged with `cty:"name"`; that schema is the single source for building an
operation from a generic attribute object (Make), and for equality, hashing
and printing. Operations without tagged fields take no attributes.

Every operation infers its output shape with ComputeShape. Operations that
can be evaluated on host tensors also implement Computer, and control-flow
operations that run nested modules implement SubgraphComputer.

Shape inference failures wrap ErrShape, unknown names wrap
ErrUnknownOperation, and bad attribute objects wrap ErrMalformedAttribute.
*/
package op
