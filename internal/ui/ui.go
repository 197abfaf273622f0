package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/papapumpkin/riskgraph/internal/report"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Printer writes human-oriented status output. Machine output (the metrics
// table) goes to stdout; everything a Printer writes goes to stderr by
// default so the two never mix.
type Printer struct {
	w io.Writer
}

func New() *Printer {
	return &Printer{w: os.Stderr}
}

// NewWriter returns a Printer that writes to w.
func NewWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, red+bold+"error: "+reset+"%s\n", msg)
}

func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, yellow+bold+"⚠ "+reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, dim+"%s"+reset+"\n", msg)
}

// RunSummaryData holds what RunSummary renders. It lives here rather than
// taking a pipeline.Summary so ui stays free of pipeline imports.
type RunSummaryData struct {
	RunID      string
	Records    int
	Nodes      int
	Edges      int
	Method     string
	Iterations int
	Delta      float64
	Converged  bool
	TimedOut   bool
	Fallback   bool
	PageRank   time.Duration
	Total      time.Duration
	Output     string
}

// RunSummary prints a boxed summary of a completed scoring run.
func (p *Printer) RunSummary(d RunSummaryData) {
	fmt.Fprintf(p.w, "\n"+dim+"┌─ "+reset+bold+"run %s"+reset+dim+" ─────────────────"+reset+"\n", shortID(d.RunID))
	fmt.Fprintf(p.w, dim+"│"+reset+"  graph: %d records, %d nodes, %d edges\n", d.Records, d.Nodes, d.Edges)
	fmt.Fprintf(p.w, dim+"│"+reset+"  pagerank: %s, %d iteration(s), delta %.3g, %.2fs\n",
		d.Method, d.Iterations, d.Delta, d.PageRank.Seconds())

	switch {
	case d.TimedOut:
		fmt.Fprintf(p.w, dim+"│"+reset+"  outcome: "+yellow+bold+"time limit reached"+reset+" (partial ranks)\n")
	case d.Converged:
		fmt.Fprintf(p.w, dim+"│"+reset+"  outcome: "+green+bold+"converged"+reset+"\n")
	default:
		fmt.Fprintf(p.w, dim+"│"+reset+"  outcome: "+yellow+"iteration cap reached"+reset+"\n")
	}
	if d.Fallback {
		fmt.Fprintf(p.w, dim+"│"+reset+"  "+yellow+"alternate solver failed; sparse solver used"+reset+"\n")
	}
	out := d.Output
	if out == "-" {
		out = "stdout"
	}
	fmt.Fprintf(p.w, dim+"│"+reset+"  output: %s (%.2fs total)\n", out, d.Total.Seconds())
	fmt.Fprintln(p.w, dim+"└──────────────────────────────────────────"+reset)
}

// WatchStarted announces that path is being watched for changes.
func (p *Printer) WatchStarted(path string) {
	fmt.Fprintf(p.w, cyan+"◆ watching"+reset+" %s "+dim+"(ctrl-c to stop)"+reset+"\n", path)
}

// WatchTriggered announces a re-run caused by a change to path.
func (p *Printer) WatchTriggered(path string) {
	fmt.Fprintf(p.w, cyan+"◆ changed"+reset+" %s "+dim+"re-scoring"+reset+"\n", path)
}

// ReportShow prints the latest run of a TOML report followed by its
// history, most recent first.
func (p *Printer) ReportShow(cur *report.Run, history []report.Summary) {
	if cur == nil {
		fmt.Fprintln(p.w, dim+"no runs recorded"+reset)
		return
	}
	fmt.Fprintf(p.w, bold+cyan+"latest run: %s"+reset+"\n", cur.RunID)
	fmt.Fprintf(p.w, "  started:     %s\n", cur.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(p.w, "  duration:    %s\n", cur.Duration().Round(time.Millisecond))
	fmt.Fprintf(p.w, "  input:       %s\n", cur.Input)
	fmt.Fprintf(p.w, "  output:      %s\n", cur.Output)
	fmt.Fprintf(p.w, "  graph:       %d records, %d nodes, %d edges\n", cur.Records, cur.Nodes, cur.Edges)
	fmt.Fprintf(p.w, "  pagerank:    %s, %d iteration(s), %s\n", cur.Method, cur.Iterations, outcome(cur.Converged, cur.TimedOut))
	if cur.Fallback {
		fmt.Fprintf(p.w, "  fallback:    "+yellow+"yes"+reset+"\n")
	}

	if len(history) == 0 {
		return
	}
	fmt.Fprintln(p.w, "\n"+bold+"history:"+reset)
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		fmt.Fprintf(p.w, "  %-10s %s  %6d nodes %6d edges  %4d iter  %-10s %s\n",
			shortID(h.RunID),
			h.StartedAt.Local().Format(time.DateTime),
			h.Nodes, h.Edges, h.Iterations,
			outcome(h.Converged, h.TimedOut),
			dim+h.Duration.Round(time.Millisecond).String()+reset)
	}
}

func outcome(converged, timedOut bool) string {
	switch {
	case timedOut:
		return "timed out"
	case converged:
		return "converged"
	default:
		return "capped"
	}
}

// shortID trims a UUID to its first group for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
