// Package pipeline runs one batch scoring pass: read records, build the
// graph, score it, and write the metrics table plus any configured side
// outputs (SQLite, TOML report, Prometheus textfile).
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papapumpkin/riskgraph/internal/config"
	"github.com/papapumpkin/riskgraph/internal/graph"
	"github.com/papapumpkin/riskgraph/internal/metrics"
	"github.com/papapumpkin/riskgraph/internal/pagerank"
	"github.com/papapumpkin/riskgraph/internal/record"
	"github.com/papapumpkin/riskgraph/internal/report"
	"github.com/papapumpkin/riskgraph/internal/telemetry"
)

// Deps carries the collaborators of a run. Every field is optional.
type Deps struct {
	Logger   *zap.Logger
	Emitter  *telemetry.Emitter
	Recorder *telemetry.Recorder
	Stdout   io.Writer // destination when cfg.Output is "-"; os.Stdout if nil

	// Engine overrides the PageRank engine, mainly for tests.
	Engine *pagerank.Engine
}

// Summary describes a completed run.
type Summary struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	Records     int
	Nodes       int
	Edges       int
	PageRank    pagerank.Result
	Metrics     []metrics.Metric
}

// Run executes one scoring pass using cfg. cfg should already be
// validated. The context is checked between stages; PageRank itself is
// bounded by cfg.PageRank's time limit.
func Run(ctx context.Context, cfg config.Config, deps Deps) (Summary, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = pagerank.NewEngine(logger)
	}

	sum := Summary{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger = logger.With(zap.String("run", sum.RunID))
	emit := func(kind string, data any) {
		if err := deps.Emitter.EmitRun(sum.RunID, kind, data); err != nil {
			logger.Warn("telemetry emit failed", zap.String("kind", kind), zap.Error(err))
		}
	}

	emit(telemetry.KindRunStart, map[string]string{"input": cfg.Input, "output": cfg.Output})

	sum, err := run(ctx, cfg, deps, engine, logger, emit, sum)
	if err != nil {
		emit(telemetry.KindRunFailed, map[string]string{"error": err.Error()})
		return sum, err
	}
	sum.CompletedAt = time.Now()

	if cfg.ReportPath != "" {
		if err := report.Save(cfg.ReportPath, reportRun(cfg, sum)); err != nil {
			emit(telemetry.KindRunFailed, map[string]string{"error": err.Error()})
			return sum, fmt.Errorf("pipeline: %w", err)
		}
	}
	if deps.Recorder != nil {
		deps.Recorder.Observe(runStats(sum))
		if cfg.MetricsTextfile != "" {
			if err := deps.Recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
				emit(telemetry.KindRunFailed, map[string]string{"error": err.Error()})
				return sum, fmt.Errorf("pipeline: %w", err)
			}
		}
	}

	emit(telemetry.KindRunDone, map[string]any{
		"nodes":       sum.Nodes,
		"edges":       sum.Edges,
		"duration_ms": sum.CompletedAt.Sub(sum.StartedAt).Milliseconds(),
	})
	logger.Info("run complete",
		zap.Int("nodes", sum.Nodes),
		zap.Int("edges", sum.Edges),
		zap.Duration("elapsed", sum.CompletedAt.Sub(sum.StartedAt)))
	return sum, nil
}

// run performs the staged work whose failure aborts the pass.
func run(ctx context.Context, cfg config.Config, deps Deps, engine *pagerank.Engine,
	logger *zap.Logger, emit func(string, any), sum Summary) (Summary, error) {

	records, err := record.ReadFile(cfg.Input, record.ReadOptions{
		MaxRows:       cfg.MaxRows,
		DeriveDomains: cfg.DeriveDomains,
	})
	if err != nil {
		return sum, fmt.Errorf("pipeline: %w", err)
	}
	sum.Records = len(records)
	emit(telemetry.KindRecordsLoaded, map[string]int{"records": sum.Records})
	logger.Debug("records loaded", zap.Int("records", sum.Records))
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	g := graph.Build(records)
	sum.Nodes, sum.Edges = g.Len(), g.EdgeCount()
	emit(telemetry.KindGraphBuilt, map[string]int{"nodes": sum.Nodes, "edges": sum.Edges})
	logger.Debug("graph built", zap.Int("nodes", sum.Nodes), zap.Int("edges", sum.Edges))
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	res, err := engine.Score(g, Options(cfg.PageRank))
	if err != nil {
		return sum, fmt.Errorf("pipeline: %w", err)
	}
	sum.PageRank = res
	prData := map[string]any{
		"method":     string(res.Method),
		"iterations": res.Iterations,
		"delta":      res.Delta,
		"converged":  res.Converged,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}
	if res.Fallback {
		emit(telemetry.KindPageRankFallback, map[string]string{"requested": cfg.PageRank.Method})
	}
	if res.TimedOut {
		emit(telemetry.KindPageRankTimeout, prData)
	}
	emit(telemetry.KindPageRankDone, prData)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	sum.Metrics = metrics.Aggregate(g, res.Ranks)
	if err := writeMetrics(cfg.Output, deps.Stdout, sum.Metrics); err != nil {
		return sum, fmt.Errorf("pipeline: %w", err)
	}
	if cfg.SQLitePath != "" {
		if err := writeSQLite(ctx, cfg.SQLitePath, sum.RunID, sum.Metrics); err != nil {
			return sum, fmt.Errorf("pipeline: %w", err)
		}
	}
	emit(telemetry.KindMetricsWritten, map[string]any{
		"output": cfg.Output,
		"sqlite": cfg.SQLitePath,
		"rows":   len(sum.Metrics),
	})
	return sum, nil
}

// Options converts the configured engine settings to pagerank.Options.
func Options(c config.PageRankConfig) pagerank.Options {
	return pagerank.Options{
		Damping:       c.Damping,
		MaxIterations: c.MaxIterations,
		Tolerance:     c.Tolerance,
		TimeLimit:     c.TimeLimit(),
		Method:        pagerank.Method(c.Method),
	}
}

func writeMetrics(output string, stdout io.Writer, ms []metrics.Metric) error {
	if output != metrics.Stdout {
		return metrics.WriteCSVFile(output, ms)
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return metrics.WriteCSV(stdout, ms)
}

func writeSQLite(ctx context.Context, path, runID string, ms []metrics.Metric) error {
	store, err := metrics.OpenSQLiteStore(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.WriteRun(ctx, runID, ms)
}

func reportRun(cfg config.Config, s Summary) report.Run {
	return report.Run{
		RunID:       s.RunID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Input:       cfg.Input,
		Output:      cfg.Output,
		Records:     s.Records,
		Nodes:       s.Nodes,
		Edges:       s.Edges,
		Method:      string(s.PageRank.Method),
		Iterations:  s.PageRank.Iterations,
		Delta:       s.PageRank.Delta,
		Converged:   s.PageRank.Converged,
		TimedOut:    s.PageRank.TimedOut,
		Fallback:    s.PageRank.Fallback,
		PageRank:    s.PageRank.Elapsed,
	}
}

func runStats(s Summary) telemetry.RunStats {
	return telemetry.RunStats{
		Records:    s.Records,
		Nodes:      s.Nodes,
		Edges:      s.Edges,
		Iterations: s.PageRank.Iterations,
		Delta:      s.PageRank.Delta,
		Converged:  s.PageRank.Converged,
		TimedOut:   s.PageRank.TimedOut,
		Fallback:   s.PageRank.Fallback,
		Seconds:    s.PageRank.Elapsed.Seconds(),
		Method:     string(s.PageRank.Method),
	}
}
