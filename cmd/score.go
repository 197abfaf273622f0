package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papapumpkin/riskgraph/internal/config"
	"github.com/papapumpkin/riskgraph/internal/logging"
	"github.com/papapumpkin/riskgraph/internal/pipeline"
	"github.com/papapumpkin/riskgraph/internal/telemetry"
	"github.com/papapumpkin/riskgraph/internal/ui"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an input CSV and write per-node metrics",
	Long: `Reads sender/URL/domain records, builds the risk graph, runs PageRank,
and writes one row per node: node, type, degree, pagerank.

Settings come from flags, RISKGRAPH_* environment variables (including a
.env file), and .riskgraph.yaml, in that order of precedence.`,
	Args:    cobra.NoArgs,
	PreRunE: bindRunFlags,
	RunE:    runScore,
}

// runFlagKeys maps run flags to their configuration keys.
var runFlagKeys = map[string]string{
	"input":            "input",
	"output":           "output",
	"max-rows":         "max_rows",
	"derive-domains":   "derive_domains",
	"damping":          "pagerank.damping",
	"max-iterations":   "pagerank.max_iterations",
	"tolerance":        "pagerank.tolerance",
	"time-limit":       "pagerank.time_limit_seconds",
	"method":           "pagerank.method",
	"sqlite":           "sqlite_path",
	"report":           "report_path",
	"telemetry-file":   "telemetry_path",
	"metrics-textfile": "metrics_textfile",
}

func init() {
	addRunFlags(scoreCmd)
	scoreCmd.Flags().BoolP("quiet", "q", false, "do not print the run summary")
	rootCmd.AddCommand(scoreCmd)
}

// addRunFlags registers the flags shared by commands that run the pipeline.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "input CSV of sender/url/domain records")
	f.StringP("output", "o", "-", `metrics CSV path, or "-" for stdout`)
	f.Int("max-rows", 0, "read at most this many data rows (0 reads all)")
	f.Bool("derive-domains", false, "fill missing domains from URLs and sender addresses")
	f.Float64("damping", 0.85, "PageRank damping factor")
	f.Int("max-iterations", 100, "PageRank iteration cap")
	f.Float64("tolerance", 1e-6, "PageRank L1 convergence tolerance")
	f.Float64("time-limit", 10, "PageRank wall-clock budget in seconds")
	f.String("method", "sparse", "PageRank solver: sparse or gonum")
	f.String("sqlite", "", "also store metrics in this SQLite database")
	f.String("report", "", "TOML run report to update")
	f.String("telemetry-file", "", "append JSONL run events to this file")
	f.String("metrics-textfile", "", "write Prometheus gauges to this file")
}

// bindRunFlags binds the running command's flags to their configuration
// keys. Binding happens per invocation because score and watch share keys.
func bindRunFlags(cmd *cobra.Command, _ []string) error {
	for flag, key := range runFlagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadRunConfig loads and validates the configuration for a pipeline run.
func loadRunConfig() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // syncing a terminal stderr can fail harmlessly

	deps, closeDeps, err := openDeps(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeDeps()

	printer := ui.New()
	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	sum, err := pipeline.Run(ctx, cfg, deps)
	if err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		printer.RunSummary(summaryData(cfg, sum))
	}
	return nil
}

// openDeps creates the optional run collaborators named by cfg. The
// returned func releases them.
func openDeps(cfg config.Config, logger *zap.Logger, stdout io.Writer) (pipeline.Deps, func(), error) {
	deps := pipeline.Deps{Logger: logger, Stdout: stdout}
	if cfg.TelemetryPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TelemetryPath), 0o755); err != nil {
			return deps, nil, fmt.Errorf("telemetry: create dir: %w", err)
		}
		em, err := telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return deps, nil, err
		}
		deps.Emitter = em
	}
	if cfg.MetricsTextfile != "" {
		deps.Recorder = telemetry.NewRecorder()
	}
	return deps, func() {
		if err := deps.Emitter.Close(); err != nil {
			logger.Warn("closing telemetry file", zap.Error(err))
		}
	}, nil
}

func summaryData(cfg config.Config, s pipeline.Summary) ui.RunSummaryData {
	return ui.RunSummaryData{
		RunID:      s.RunID,
		Records:    s.Records,
		Nodes:      s.Nodes,
		Edges:      s.Edges,
		Method:     string(s.PageRank.Method),
		Iterations: s.PageRank.Iterations,
		Delta:      s.PageRank.Delta,
		Converged:  s.PageRank.Converged,
		TimedOut:   s.PageRank.TimedOut,
		Fallback:   s.PageRank.Fallback,
		PageRank:   s.PageRank.Elapsed,
		Total:      s.CompletedAt.Sub(s.StartedAt),
		Output:     cfg.Output,
	}
}

// setupSignalContext returns a context cancelled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
