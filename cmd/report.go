package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/riskgraph/internal/report"
	"github.com/papapumpkin/riskgraph/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report [report.toml]",
	Short: "Show the latest run and run history from a TOML report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.ReportPath
	}
	if path == "" {
		return errors.New("report: no report path; pass one or set report_path")
	}

	cur, history, err := report.Load(path)
	if err != nil {
		return err
	}
	ui.NewWriter(cmd.OutOrStdout()).ReportShow(cur, history)
	return nil
}
