// Package telemetry records what happened during scoring runs. Stage
// transitions are appended to a JSONL event stream so runs are auditable,
// and run-level gauges can be exported for a Prometheus textfile collector.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart         = "run_start"
	KindRecordsLoaded    = "records_loaded"
	KindGraphBuilt       = "graph_built"
	KindPageRankDone     = "pagerank_done"
	KindPageRankTimeout  = "pagerank_timeout"
	KindPageRankFallback = "pagerank_fallback"
	KindMetricsWritten   = "metrics_written"
	KindRunDone          = "run_done"
	KindRunFailed        = "run_failed"
)

// Event is one line of the run log. RunID is the UUID assigned by the
// pipeline at run start; the same ID is stored as run_id in the SQLite
// metrics store and as the report's current run, so a line here can be
// joined to the rows that run produced. Data holds stage-specific counters.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter appends run events to a JSONL file that outlives any single run:
// "riskgraph watch" shares one Emitter across every re-score, and
// "riskgraph telemetry --run" filters the file back down by RunID.
// Concurrent runs may share an Emitter. A nil *Emitter discards events, so
// callers without a telemetry path need no branches.
type Emitter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewEmitter opens path for appending, creating it when missing. Earlier
// runs' events are kept.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{file: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

// EmitRun records a stage of run runID.
func (e *Emitter) EmitRun(runID, kind string, data any) error {
	return e.Emit(Event{Kind: kind, RunID: runID, Data: data})
}

// Emit appends evt as one JSON line. A zero Timestamp is replaced with the
// current UTC time.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode %s event: %w", evt.Kind, err)
	}
	return nil
}

// Close releases the log file once no more runs will be recorded.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close %s: %w", e.file.Name(), err)
	}
	return nil
}
