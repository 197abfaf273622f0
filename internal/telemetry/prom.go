package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RunStats summarizes one scoring run for export.
type RunStats struct {
	Records    int
	Nodes      int
	Edges      int
	Iterations int
	Delta      float64
	Converged  bool
	TimedOut   bool
	Fallback   bool
	Seconds    float64 // PageRank wall-clock time
	Method     string
}

// Recorder holds run-level gauges in a private registry. Batch runs have no
// scrape endpoint, so the gauges are written to a file for the node
// exporter's textfile collector. A nil *Recorder is a valid no-op recorder.
type Recorder struct {
	registry   *prometheus.Registry
	records    prometheus.Gauge
	nodes      prometheus.Gauge
	edges      prometheus.Gauge
	iterations prometheus.Gauge
	delta      prometheus.Gauge
	converged  prometheus.Gauge
	timedOut   prometheus.Gauge
	seconds    *prometheus.GaugeVec
	fallbacks  prometheus.Counter
	lastRun    prometheus.Gauge
}

// NewRecorder creates a Recorder with all gauges registered.
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "riskgraph",
			Name:      name,
			Help:      help,
		})
	}
	r := &Recorder{
		registry:   prometheus.NewRegistry(),
		records:    gauge("records", "Input records read in the last run."),
		nodes:      gauge("graph_nodes", "Nodes in the last run's graph."),
		edges:      gauge("graph_edges", "Distinct edges in the last run's graph."),
		iterations: gauge("pagerank_iterations", "Power iterations completed in the last run."),
		delta:      gauge("pagerank_delta", "L1 change of the last power iteration."),
		converged:  gauge("pagerank_converged", "1 if the last run converged within tolerance."),
		timedOut:   gauge("pagerank_timed_out", "1 if the last run hit its time limit."),
		seconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "riskgraph",
			Name:      "pagerank_duration_seconds",
			Help:      "Wall-clock time of the last PageRank computation.",
		}, []string{"method"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskgraph",
			Name:      "pagerank_fallbacks_total",
			Help:      "Alternate solver failures recovered by the sparse solver.",
		}),
		lastRun: gauge("last_run_timestamp_seconds", "Unix time the last run completed."),
	}
	r.registry.MustRegister(r.records, r.nodes, r.edges, r.iterations, r.delta,
		r.converged, r.timedOut, r.seconds, r.fallbacks, r.lastRun)
	return r
}

// Observe records the stats of a completed run.
func (r *Recorder) Observe(s RunStats) {
	if r == nil {
		return
	}
	r.records.Set(float64(s.Records))
	r.nodes.Set(float64(s.Nodes))
	r.edges.Set(float64(s.Edges))
	r.iterations.Set(float64(s.Iterations))
	r.delta.Set(s.Delta)
	r.converged.Set(boolGauge(s.Converged))
	r.timedOut.Set(boolGauge(s.TimedOut))
	// Only the last run's method is exported.
	r.seconds.Reset()
	r.seconds.WithLabelValues(s.Method).Set(s.Seconds)
	if s.Fallback {
		r.fallbacks.Inc()
	}
	r.lastRun.SetToCurrentTime()
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the gauges in Prometheus text format to path,
// atomically replacing any previous file.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("telemetry: write textfile %s: %w", path, err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
