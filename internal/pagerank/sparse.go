package pagerank

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/riskgraph/internal/graph"
)

// sparse runs the canonical power iteration. start is the instant the
// Score call began; the time budget is measured from it.
func (e *Engine) sparse(g *graph.Graph, opts Options, start time.Time) Result {
	n := g.Len()
	adj := make([][]int, n)
	for i := range adj {
		adj[i] = g.Successors(i)
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}

	var (
		iterations int
		delta      float64
		converged  bool
		timedOut   bool
	)
	for iterations < opts.MaxIterations {
		step(adj, rank, next, opts.Damping)
		delta = l1Distance(next, rank)
		rank, next = next, rank
		iterations++

		if delta < opts.Tolerance {
			converged = true
			break
		}
		if elapsed := e.now().Sub(start); elapsed > opts.TimeLimit {
			timedOut = true
			e.logger.Warn("pagerank time limit exceeded; returning partial ranks",
				zap.Int("nodes", n),
				zap.Int("iterations", iterations),
				zap.Float64("delta", delta),
				zap.Duration("elapsed", elapsed),
				zap.Duration("limit", opts.TimeLimit))
			break
		}
	}
	if !converged && !timedOut {
		e.logger.Info("pagerank stopped at iteration cap",
			zap.Int("iterations", iterations),
			zap.Float64("delta", delta),
			zap.Float64("tolerance", opts.Tolerance))
	}

	res := newResult(g, rank)
	res.Iterations = iterations
	res.Delta = delta
	res.Converged = converged
	res.TimedOut = timedOut
	res.Method = MethodSparse
	res.Elapsed = e.now().Sub(start)
	return res
}

// step performs one power iteration, writing the ranks derived from rank
// into next. Every node starts at the teleport term (1-alpha)/N. A node
// with out-edges sends alpha*rank/outdeg to each successor; a dangling node
// sends alpha*rank/N to every node.
func step(adj [][]int, rank, next []float64, alpha float64) {
	nf := float64(len(rank))
	base := (1 - alpha) / nf
	for i := range next {
		next[i] = base
	}

	var dangling float64
	for i, succ := range adj {
		if len(succ) == 0 {
			dangling += rank[i]
			continue
		}
		share := rank[i] / float64(len(succ))
		for _, j := range succ {
			next[j] += alpha * share
		}
	}

	if dangling != 0 {
		spread := alpha * dangling / nf
		for i := range next {
			next[i] += spread
		}
	}
}

func l1Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}
