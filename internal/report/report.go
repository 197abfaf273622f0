// Package report persists a TOML summary of each scoring run. The latest
// run is kept in full and earlier runs are rotated into a capped history.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// MaxHistory is the number of previous runs kept in a report file.
const MaxHistory = 10

// Run describes one completed scoring run.
type Run struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	Input       string
	Output      string
	Records     int
	Nodes       int
	Edges       int
	Method      string
	Iterations  int
	Delta       float64
	Converged   bool
	TimedOut    bool
	Fallback    bool
	PageRank    time.Duration
}

// Duration is the wall-clock time of the whole run.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary is a condensed record of a previous run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Nodes      int
	Edges      int
	Iterations int
	Converged  bool
	TimedOut   bool
}

// reportFile is the on-disk form. Durations are stored in nanoseconds since
// the TOML library has no native duration type.
type reportFile struct {
	Current runRecord       `toml:"current"`
	History []summaryRecord `toml:"history"`
}

type runRecord struct {
	RunID       string    `toml:"run_id"`
	StartedAt   time.Time `toml:"started_at"`
	CompletedAt time.Time `toml:"completed_at"`
	Input       string    `toml:"input"`
	Output      string    `toml:"output"`
	Records     int       `toml:"records"`
	Nodes       int       `toml:"nodes"`
	Edges       int       `toml:"edges"`
	Method      string    `toml:"method"`
	Iterations  int       `toml:"iterations"`
	Delta       float64   `toml:"delta"`
	Converged   bool      `toml:"converged"`
	TimedOut    bool      `toml:"timed_out,omitempty"`
	Fallback    bool      `toml:"fallback,omitempty"`
	PageRankNs  int64     `toml:"pagerank_ns"`
}

type summaryRecord struct {
	RunID      string    `toml:"run_id"`
	StartedAt  time.Time `toml:"started_at"`
	DurationNs int64     `toml:"duration_ns"`
	Nodes      int       `toml:"nodes"`
	Edges      int       `toml:"edges"`
	Iterations int       `toml:"iterations"`
	Converged  bool      `toml:"converged"`
	TimedOut   bool      `toml:"timed_out,omitempty"`
}

// Save writes r as the current run of the report at path. The previous
// current run, if any, moves into history, which keeps the MaxHistory most
// recent entries. The file is replaced atomically.
func Save(path string, r Run) error {
	existing, err := loadFile(path)
	if err != nil {
		return err
	}

	var history []summaryRecord
	if existing != nil {
		history = append(existing.History, toSummaryRecord(existing.Current))
	}
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	data, err := toml.Marshal(reportFile{Current: toRecord(r), History: history})
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("report: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}

// Load reads the report at path. A missing file returns a nil run and no
// error.
func Load(path string) (*Run, []Summary, error) {
	file, err := loadFile(path)
	if err != nil || file == nil {
		return nil, nil, err
	}

	cur := fromRecord(file.Current)
	history := make([]Summary, len(file.History))
	for i, h := range file.History {
		history[i] = Summary{
			RunID:      h.RunID,
			StartedAt:  h.StartedAt,
			Duration:   time.Duration(h.DurationNs),
			Nodes:      h.Nodes,
			Edges:      h.Edges,
			Iterations: h.Iterations,
			Converged:  h.Converged,
			TimedOut:   h.TimedOut,
		}
	}
	return &cur, history, nil
}

func loadFile(path string) (*reportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("report: read: %w", err)
	}
	var file reportFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return &file, nil
}

func toRecord(r Run) runRecord {
	return runRecord{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Input:       r.Input,
		Output:      r.Output,
		Records:     r.Records,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
		Method:      r.Method,
		Iterations:  r.Iterations,
		Delta:       r.Delta,
		Converged:   r.Converged,
		TimedOut:    r.TimedOut,
		Fallback:    r.Fallback,
		PageRankNs:  int64(r.PageRank),
	}
}

func fromRecord(r runRecord) Run {
	return Run{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Input:       r.Input,
		Output:      r.Output,
		Records:     r.Records,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
		Method:      r.Method,
		Iterations:  r.Iterations,
		Delta:       r.Delta,
		Converged:   r.Converged,
		TimedOut:    r.TimedOut,
		Fallback:    r.Fallback,
		PageRank:    time.Duration(r.PageRankNs),
	}
}

func toSummaryRecord(r runRecord) summaryRecord {
	var durationNs int64
	if !r.CompletedAt.IsZero() && !r.StartedAt.IsZero() {
		durationNs = int64(r.CompletedAt.Sub(r.StartedAt))
	}
	return summaryRecord{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationNs: durationNs,
		Nodes:      r.Nodes,
		Edges:      r.Edges,
		Iterations: r.Iterations,
		Converged:  r.Converged,
		TimedOut:   r.TimedOut,
	}
}
