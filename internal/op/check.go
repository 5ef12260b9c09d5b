package op

import (
	"slices"

	"github.com/vk/graphc/internal/shape"
)

// checker accumulates the first failed precondition over a set of input
// shapes.
type checker struct {
	op     string
	shapes []shape.Shape
	err    error
}

func check(op string, inputs []shape.Shape) *checker {
	return &checker{op: op, shapes: inputs}
}

func (c *checker) has(n ...int) *checker {
	if c.err == nil && !slices.Contains(n, len(c.shapes)) {
		c.err = shapeErrorf(c.op, "expected %v inputs, got %d", n, len(c.shapes))
	}
	return c
}

func (c *checker) notTuple() *checker {
	for i, s := range c.shapes {
		if c.err == nil && s.IsTuple() {
			c.err = shapeErrorf(c.op, "input %d is a tuple", i)
		}
	}
	return c
}

func (c *checker) sameType() *checker {
	for i, s := range c.shapes {
		if c.err == nil && s.Type() != c.shapes[0].Type() {
			c.err = shapeErrorf(c.op, "input %d has type %s, want %s", i, s.Type(), c.shapes[0].Type())
		}
	}
	return c
}

func (c *checker) sameDims() *checker {
	for i, s := range c.shapes {
		if c.err == nil && !slices.Equal(s.Lens(), c.shapes[0].Lens()) {
			c.err = shapeErrorf(c.op, "input %d has lens %v, want %v", i, s.Lens(), c.shapes[0].Lens())
		}
	}
	return c
}

func (c *checker) standard() *checker {
	for i, s := range c.shapes {
		if c.err == nil && !s.Standard() {
			c.err = shapeErrorf(c.op, "input %d is not standard: %s", i, s)
		}
	}
	return c
}

func (c *checker) noModules(mods []Subgraph) *checker {
	if c.err == nil && len(mods) != 0 {
		c.err = shapeErrorf(c.op, "does not take submodules, got %d", len(mods))
	}
	return c
}

func (c *checker) Err() error { return c.err }
