package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nested builds main -> {then, else}, else -> body, the shape of a program
// with an if whose else branch holds a loop.
func nested(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"main", "then", "else", "body"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("main", "then"))
	require.NoError(t, g.AddEdge("main", "else"))
	require.NoError(t, g.AddEdge("else", "body"))
	return g
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("main")
	g.AddNode("main") // idempotent
	g.AddNode("body")

	assert.Len(t, g.nodes, 2)
	assert.Equal(t, []string{"main", "body"}, g.order)
	assert.Equal(t, 1, g.nodes["body"].seq)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("main")
		g.AddNode("body")

		require.NoError(t, g.AddEdge("main", "body"))
		assert.Contains(t, g.nodes["main"].dependents, "body")
		assert.Contains(t, g.nodes["body"].deps, "main")
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("main")

		assert.ErrorContains(t, g.AddEdge("dne", "main"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("main", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("main", "main"), "self-referential edge")
	})
}

func TestDependenciesAndDependents(t *testing.T) {
	g := nested(t)

	deps, err := g.Dependencies("body")
	require.NoError(t, err)
	assert.Equal(t, []string{"else"}, deps)

	dependents, err := g.Dependents("main")
	require.NoError(t, err)
	assert.Equal(t, []string{"then", "else"}, dependents)

	_, err = g.Dependents("dne")
	assert.ErrorContains(t, err, "node not found")
}

func TestAncestors(t *testing.T) {
	g := nested(t)

	anc, err := g.Ancestors("body")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "else"}, anc)

	anc, err = g.Ancestors("main")
	require.NoError(t, err)
	assert.Empty(t, anc)
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	// Added out of dependency order on purpose.
	g.AddNode("body")
	g.AddNode("else")
	g.AddNode("main")
	require.NoError(t, g.AddEdge("main", "else"))
	require.NoError(t, g.AddEdge("else", "body"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "else", "body"}, order)
}

func TestTopologicalOrder_KeepsValidInsertionOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "c", "b", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("c", "d"))
	require.NoError(t, g.AddEdge("b", "d"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, order)
}

func TestReachable(t *testing.T) {
	g := nested(t)
	g.AddNode("orphan")

	got, err := g.Reachable("main")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "then", "else", "body"}, got)

	got, err = g.Reachable("else")
	require.NoError(t, err)
	assert.Equal(t, []string{"else", "body"}, got)
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("nested modules have no cycles", func(t *testing.T) {
		assert.NoError(t, nested(t).DetectCycles())
	})

	t.Run("module nesting itself is detected", func(t *testing.T) {
		g := nested(t)
		require.NoError(t, g.AddEdge("body", "main"))

		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
		_, err := g.TopologicalOrder()
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := nested(t)
		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))

		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}
