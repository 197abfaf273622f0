package pagerank

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/papapumpkin/riskgraph/internal/graph"
)

// ErrAlternateFailed is wrapped by every AlternateError.
var ErrAlternateFailed = errors.New("alternate pagerank failed")

// AlternateError records why an alternate solver could not produce ranks.
type AlternateError struct {
	Method Method
	Err    error
}

func (e *AlternateError) Error() string {
	return fmt.Sprintf("pagerank: %s solver: %v", e.Method, e.Err)
}

func (e *AlternateError) Unwrap() error { return e.Err }

// gonumRanks scores g with gonum's sparse PageRank. Node indices become
// gonum node IDs. gonum panics on inputs it does not model (self-loops);
// panics and unusable results are returned as *AlternateError.
func gonumRanks(g *graph.Graph, opts Options) (ranks []float64, err error) {
	fail := func(format string, args ...any) error {
		return &AlternateError{
			Method: MethodGonum,
			Err:    fmt.Errorf("%w: "+format, append([]any{ErrAlternateFailed}, args...)...),
		}
	}
	defer func() {
		if r := recover(); r != nil {
			ranks, err = nil, fail("panic: %v", r)
		}
	}()

	n := g.Len()
	dg := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		dg.AddNode(simple.Node(int64(i)))
	}
	for i := 0; i < n; i++ {
		for _, j := range g.Successors(i) {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(i)), T: simple.Node(int64(j))})
		}
	}

	pr := network.PageRankSparse(dg, opts.Damping, opts.Tolerance)
	if len(pr) != n {
		return nil, fail("got %d ranks for %d nodes", len(pr), n)
	}
	ranks = make([]float64, n)
	for id, v := range pr {
		if id < 0 || id >= int64(n) {
			return nil, fail("unknown node id %d", id)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fail("non-finite rank %v for node %d", v, id)
		}
		ranks[id] = v
	}
	return ranks, nil
}
