// Package metrics joins per-node graph structure with PageRank scores and
// serializes the resulting feature rows.
package metrics

import "github.com/papapumpkin/riskgraph/internal/graph"

// Metric is the feature row emitted for a single node.
type Metric struct {
	Node     string
	Type     graph.NodeType
	Degree   int // in-degree + out-degree
	PageRank float64
}

// Aggregate returns one Metric per node of g in insertion order. Nodes
// absent from ranks are emitted with a rank of 0.
func Aggregate(g *graph.Graph, ranks map[string]float64) []Metric {
	nodes := g.Nodes()
	out := make([]Metric, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Metric{
			Node:     n.ID,
			Type:     n.Type,
			Degree:   g.Degree(n.ID),
			PageRank: ranks[n.ID],
		})
	}
	return out
}
