package ui

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/mattn/go-runewidth"

	"github.com/papapumpkin/riskgraph/internal/metrics"
)

// maxNodeWidth caps the node column so long URLs don't push the score
// columns off screen.
const maxNodeWidth = 60

// TopN returns the n highest-ranked metrics, highest first. Ties keep
// their original order. n <= 0 returns all of them.
func TopN(ms []metrics.Metric, n int) []metrics.Metric {
	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, func(a, b metrics.Metric) int {
		return cmp.Compare(b.PageRank, a.PageRank)
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// TopTable writes ms as an aligned plain-text table. Column widths are
// measured in terminal cells, so wide characters in node IDs line up.
func TopTable(w io.Writer, ms []metrics.Metric) error {
	nodeWidth := runewidth.StringWidth("node")
	for _, m := range ms {
		nodeWidth = max(nodeWidth, min(runewidth.StringWidth(m.Node), maxNodeWidth))
	}

	row := func(rank, node, typ, degree, score string) error {
		_, err := fmt.Fprintf(w, "%4s  %s  %-6s  %6s  %s\n",
			rank,
			runewidth.FillRight(runewidth.Truncate(node, nodeWidth, "…"), nodeWidth),
			typ, degree, score)
		return err
	}

	if err := row("#", "node", "type", "degree", "pagerank"); err != nil {
		return fmt.Errorf("ui: write table: %w", err)
	}
	for i, m := range ms {
		err := row(fmt.Sprint(i+1), m.Node, string(m.Type), fmt.Sprint(m.Degree), fmt.Sprintf("%.6g", m.PageRank))
		if err != nil {
			return fmt.Errorf("ui: write table: %w", err)
		}
	}
	return nil
}
