package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/riskgraph/internal/metrics"
	"github.com/papapumpkin/riskgraph/internal/ui"
)

var topCmd = &cobra.Command{
	Use:   "top [metrics.csv]",
	Short: "Show the highest-ranked nodes from a metrics file",
	Long: `Reads a metrics CSV written by "riskgraph score" and prints the nodes with
the highest PageRank. Without an argument the configured output path is used;
"-" reads the table from stdin, so "riskgraph score | riskgraph top -" works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTop,
}

func init() {
	topCmd.Flags().IntP("limit", "n", 20, "number of nodes to show (0 shows all)")
	topCmd.Flags().String("type", "", "only show nodes of this type: sender, url, or domain")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Output
	}

	var (
		ms  []metrics.Metric
		err error
	)
	if path == metrics.Stdout {
		ms, err = metrics.ReadCSV(cmd.InOrStdin())
	} else {
		ms, err = metrics.ReadCSVFile(path)
	}
	if err != nil {
		return err
	}

	if typ, _ := cmd.Flags().GetString("type"); typ != "" {
		filtered := ms[:0]
		for _, m := range ms {
			if string(m.Type) == typ {
				filtered = append(filtered, m)
			}
		}
		ms = filtered
	}

	limit, _ := cmd.Flags().GetInt("limit")
	return ui.TopTable(cmd.OutOrStdout(), ui.TopN(ms, limit))
}
