// Package graph provides the directed sender → URL → domain graph that risk
// features are computed over. Nodes are identified by their string value and
// receive a stable integer index in insertion order; that order is the
// canonical iteration order for every consumer.
package graph

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// NodeType tags what kind of value a node was created from.
type NodeType string

// Node types.
const (
	TypeSender NodeType = "sender"
	TypeURL    NodeType = "url"
	TypeDomain NodeType = "domain"
)

// Node is a vertex in the graph.
type Node struct {
	ID    string
	Type  NodeType
	Index int // position in insertion order
}

// Edge is a directed link between two node IDs.
type Edge struct {
	From, To string
}

// Graph is a directed graph with set-semantics edges. It is built once per
// batch and is not safe for concurrent mutation.
type Graph struct {
	nodes []*Node
	index map[string]int

	// adjacency holds successor indices per node, in edge insertion order.
	adjacency [][]int
	// reverse holds predecessor indices per node, in edge insertion order.
	reverse [][]int

	edges   []Edge
	edgeSet map[[2]int]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:   make(map[string]int),
		edgeSet: make(map[[2]int]struct{}),
	}
}

// AddNode ensures a node with the given ID exists and returns it. If the
// node already exists its type is left unchanged: the first occurrence wins.
func (g *Graph) AddNode(id string, typ NodeType) *Node {
	if i, ok := g.index[id]; ok {
		return g.nodes[i]
	}
	n := &Node{ID: id, Type: typ, Index: len(g.nodes)}
	g.index[id] = n.Index
	g.nodes = append(g.nodes, n)
	g.adjacency = append(g.adjacency, nil)
	g.reverse = append(g.reverse, nil)
	return n
}

// AddEdge adds a directed edge from → to. Both nodes must already exist.
// Adding an edge that is already present is a no-op; the returned bool
// reports whether a new edge was created. Self-loops are permitted.
func (g *Graph) AddEdge(from, to string) (bool, error) {
	fi, ok := g.index[from]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	ti, ok := g.index[to]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	key := [2]int{fi, ti}
	if _, exists := g.edgeSet[key]; exists {
		return false, nil
	}
	g.edgeSet[key] = struct{}{}
	g.adjacency[fi] = append(g.adjacency[fi], ti)
	g.reverse[ti] = append(g.reverse[ti], fi)
	g.edges = append(g.edges, Edge{From: from, To: to})
	return true, nil
}

// HasEdge reports whether the edge from → to exists.
func (g *Graph) HasEdge(from, to string) bool {
	fi, ok := g.index[from]
	if !ok {
		return false
	}
	ti, ok := g.index[to]
	if !ok {
		return false
	}
	_, exists := g.edgeSet[[2]int{fi, ti}]
	return exists
}

// Node returns the node with the given ID, or nil if not found.
func (g *Graph) Node(id string) *Node {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.nodes[i]
}

// Nodes returns all nodes in insertion order. The slice is a copy; the
// nodes are shared.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Successors returns the successor indices of the node at index i, in edge
// insertion order. The returned slice must not be modified.
func (g *Graph) Successors(i int) []int {
	return g.adjacency[i]
}

// OutDegree returns the number of edges leaving id, or 0 if id is unknown.
func (g *Graph) OutDegree(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return len(g.adjacency[i])
}

// InDegree returns the number of edges entering id, or 0 if id is unknown.
func (g *Graph) InDegree(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return len(g.reverse[i])
}

// Degree returns the total degree of id: in-degree plus out-degree.
// A self-loop contributes one to each.
func (g *Graph) Degree(id string) int {
	return g.InDegree(id) + g.OutDegree(id)
}
