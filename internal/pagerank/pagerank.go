// Package pagerank scores graph nodes with a bounded-time PageRank.
//
// The canonical solver is a sparse power iteration over the graph's
// insertion-ordered adjacency lists. Dangling nodes (no out-edges)
// redistribute their full rank uniformly across all nodes, so total mass
// stays at 1.0. Iteration stops on convergence, on the iteration cap, or
// when the wall-clock budget is spent; the last case returns the partial
// ranks and logs a warning rather than failing.
package pagerank

import (
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/riskgraph/internal/graph"
)

// Result holds the ranks produced by Score and how they were obtained.
type Result struct {
	Ranks  map[string]float64 // node ID → rank
	Vector []float64          // ranks by node index

	Iterations int     // completed power iterations; 0 for alternate solvers
	Delta      float64 // L1 change of the final iteration
	Converged  bool
	TimedOut   bool
	Fallback   bool   // the requested alternate solver failed
	Method     Method // solver that produced Ranks
	Elapsed    time.Duration
}

// Engine runs PageRank computations. An Engine holds no per-graph state;
// each Score call is independent.
type Engine struct {
	logger    *zap.Logger
	now       func() time.Time
	alternate func(*graph.Graph, Options) ([]float64, error)
}

// NewEngine returns an Engine that logs notices to logger. A nil logger
// discards them.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:    logger,
		now:       time.Now,
		alternate: gonumRanks,
	}
}

// Score computes PageRank for every node in g. The only error is
// ErrInvalidOptions; time-limit exits and alternate-solver failures are
// reported through Result and the logger.
func (e *Engine) Score(g *graph.Graph, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Method == "" {
		opts.Method = MethodSparse
	}
	start := e.now()

	if g.Len() == 0 {
		return Result{
			Ranks:     make(map[string]float64),
			Converged: true,
			Method:    opts.Method,
		}, nil
	}

	if opts.Method == MethodGonum {
		vec, err := e.alternate(g, opts)
		if err == nil {
			res := newResult(g, vec)
			res.Method = MethodGonum
			res.Converged = true
			res.Elapsed = e.now().Sub(start)
			return res, nil
		}
		e.logger.Warn("alternate pagerank failed; falling back to sparse solver",
			zap.String("method", string(opts.Method)),
			zap.Int("nodes", g.Len()),
			zap.Error(err))
		res := e.sparse(g, opts, start)
		res.Fallback = true
		return res, nil
	}

	return e.sparse(g, opts, start), nil
}

// newResult maps an index-ordered rank vector back to node IDs.
func newResult(g *graph.Graph, vec []float64) Result {
	ranks := make(map[string]float64, len(vec))
	for _, n := range g.Nodes() {
		ranks[n.ID] = vec[n.Index]
	}
	return Result{Ranks: ranks, Vector: vec}
}
