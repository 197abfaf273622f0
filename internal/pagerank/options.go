package pagerank

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions is returned when Options fail their preconditions.
var ErrInvalidOptions = errors.New("invalid pagerank options")

// Method selects the solver used for a Score call.
type Method string

const (
	// MethodSparse is the adjacency-indexed power iteration. It is the
	// canonical solver and the fallback for every other method.
	MethodSparse Method = "sparse"

	// MethodGonum attempts gonum's sparse PageRank first and falls back to
	// MethodSparse if it fails. Its dangling-node policy, iteration count and
	// time bound are not controlled by Options.
	MethodGonum Method = "gonum"
)

// Options configures the iterative PageRank algorithm.
type Options struct {
	Damping       float64       // damping factor (alpha); typically 0.85
	MaxIterations int           // upper bound on iterations
	Tolerance     float64       // L1 convergence threshold
	TimeLimit     time.Duration // wall-clock budget, checked between iterations
	Method        Method
}

// DefaultOptions returns production defaults: damping 0.85, 100
// iterations, tolerance 1e-6, a 10 second budget and the sparse solver.
func DefaultOptions() Options {
	return Options{
		Damping:       0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
		TimeLimit:     10 * time.Second,
		Method:        MethodSparse,
	}
}

// Validate checks the preconditions of Score.
func (o Options) Validate() error {
	if !(o.Damping > 0 && o.Damping < 1) {
		return fmt.Errorf("%w: damping %v not in (0,1)", ErrInvalidOptions, o.Damping)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations %d < 1", ErrInvalidOptions, o.MaxIterations)
	}
	if !(o.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidOptions, o.Tolerance)
	}
	if o.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit %v", ErrInvalidOptions, o.TimeLimit)
	}
	switch o.Method {
	case "", MethodSparse, MethodGonum:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidOptions, o.Method)
	}
	return nil
}
