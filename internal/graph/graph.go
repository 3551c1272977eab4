// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package graph turns a link matrix into a directed graph over signals and
// renders it as Graphviz DOT.
//
// Node k+1 stands for signal k. An entry links(i, j) = 1 becomes the edge
// j+1 -> i+1.
package graph

import (
	"fmt"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
)

// Edge is a directed link between 0-based signal indices.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// signalNode is a graph node carrying the signal name for DOT output.
type signalNode struct {
	id   int64
	name string
}

func (n signalNode) ID() int64 { return n.id }

// DOTID is the 1-based signal number.
func (n signalNode) DOTID() string { return fmt.Sprintf("%d", n.id) }

func (n signalNode) Attributes() []encoding.Attribute {
	if n.name == "" || n.name == n.DOTID() {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%q", n.name)}}
}

// Edges lists the edges of links in row-major order of the matrix.
func Edges(links mat.Matrix) []Edge {
	r, c := links.Dims()
	var edges []Edge
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && links.At(i, j) == 1 {
				edges = append(edges, Edge{From: j, To: i})
			}
		}
	}
	return edges
}

// FromLinks builds the directed graph of links. names is optional.
func FromLinks(links mat.Matrix, names []string) *simple.DirectedGraph {
	n, _ := links.Dims()
	g := simple.NewDirectedGraph()
	for k := 0; k < n; k++ {
		node := signalNode{id: int64(k + 1)}
		if k < len(names) {
			node.name = names[k]
		}
		g.AddNode(node)
	}
	for _, e := range Edges(links) {
		g.SetEdge(g.NewEdge(g.Node(int64(e.From+1)), g.Node(int64(e.To+1))))
	}
	return g
}

// MarshalDOT renders links as a DOT digraph.
func MarshalDOT(links mat.Matrix, names []string, title string) ([]byte, error) {
	return dot.Marshal(FromLinks(links, names), title, "", "  ")
}

// Order returns the signals in a causal (topological) order. It fails when the
// graph contains a feedback loop.
func Order(links mat.Matrix) ([]int, error) {
	sorted, err := topo.SortStabilized(FromLinks(links, nil), byID)
	if err != nil {
		return nil, fmt.Errorf("causal graph has feedback loops: %w", err)
	}
	return indices(sorted), nil
}

// Cycles returns every elementary feedback loop as 0-based signal indices.
func Cycles(links mat.Matrix) [][]int {
	cycles := topo.DirectedCyclesIn(FromLinks(links, nil))
	out := make([][]int, len(cycles))
	for i, c := range cycles {
		out[i] = indices(c)
	}
	sort.Slice(out, func(a, b int) bool {
		return lessInts(out[a], out[b])
	})
	return out
}

func byID(nodes []gonumgraph.Node) {
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].ID() < nodes[b].ID() })
}

func indices(nodes []gonumgraph.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID()) - 1
	}
	return out
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
