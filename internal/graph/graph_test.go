// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// chainLinks is A -> B -> C in link-matrix form.
func chainLinks() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	})
}

func TestEdges(t *testing.T) {
	assert.Equal(t, []Edge{{From: 0, To: 1}, {From: 1, To: 2}}, Edges(chainLinks()))
	assert.Empty(t, Edges(mat.NewDense(2, 2, nil)))
}

func TestFromLinks(t *testing.T) {
	g := FromLinks(chainLinks(), []string{"temp", "humidity", "flu"})

	assert.Equal(t, 3, g.Nodes().Len())
	assert.True(t, g.HasEdgeFromTo(1, 2))
	assert.True(t, g.HasEdgeFromTo(2, 3))
	assert.False(t, g.HasEdgeFromTo(1, 3))
	assert.False(t, g.HasEdgeFromTo(2, 1))
}

func TestMarshalDOT(t *testing.T) {
	out, err := MarshalDOT(chainLinks(), []string{"temp", "humidity", "flu"}, "causality")
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "digraph causality {")
	assert.Equal(t, 2, strings.Count(s, "->"), s)
	assert.Contains(t, s, "humidity")
}

func TestOrder(t *testing.T) {
	order, err := Order(chainLinks())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)

	loop := chainLinks()
	loop.Set(0, 2, 1) // C -> A closes the loop
	_, err = Order(loop)
	assert.Error(t, err)
}

func TestCycles(t *testing.T) {
	assert.Empty(t, Cycles(chainLinks()))

	loop := chainLinks()
	loop.Set(0, 2, 1)
	cycles := Cycles(loop)
	require.Len(t, cycles, 1)
	assert.Subset(t, cycles[0], []int{0, 1, 2})
}
