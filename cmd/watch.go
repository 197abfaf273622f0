package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/riskgraph/internal/logging"
	"github.com/papapumpkin/riskgraph/internal/pipeline"
	"github.com/papapumpkin/riskgraph/internal/ui"
	"github.com/papapumpkin/riskgraph/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-score the input CSV every time it changes",
	Long: `Runs the scoring pipeline once, then again after every write to the input
file. Each run is an independent batch: the graph is rebuilt from scratch and
the outputs are replaced. A failed run is reported and watching continues.`,
	Args:    cobra.NoArgs,
	PreRunE: bindRunFlags,
	RunE:    runWatch,
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
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

	debounce, _ := cmd.Flags().GetDuration("debounce")
	w, err := watch.New(cfg.Input, debounce)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	printer := ui.New()
	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	runOnce := func() {
		sum, err := pipeline.Run(ctx, cfg, deps)
		if err != nil {
			if ctx.Err() == nil {
				printer.Error(err.Error())
			}
			return
		}
		printer.RunSummary(summaryData(cfg, sum))
	}

	printer.WatchStarted(cfg.Input)
	runOnce()

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Changes:
			if !ok {
				return fmt.Errorf("watch: watcher closed")
			}
			printer.WatchTriggered(path)
			runOnce()
		case err := <-w.Errors():
			logger.Warn("file watch error", zap.Error(err))
		}
	}
}
