package graph

import "github.com/papapumpkin/riskgraph/internal/record"

// Build constructs a graph from records. Each record contributes a node per
// present field and the edges sender → url and url → domain when both ends
// are present. Records with no fields are skipped. Build never fails:
// absent fields are handled by omission.
func Build(records []record.Record) *Graph {
	g := New()
	for _, rec := range records {
		g.addRecord(rec.Normalize())
	}
	return g
}

func (g *Graph) addRecord(rec record.Record) {
	if rec.Empty() {
		return
	}
	sender := rec.ResolvedSender()

	if sender != "" {
		g.AddNode(sender, TypeSender)
	}
	if rec.URL != "" {
		g.AddNode(rec.URL, TypeURL)
	}
	if rec.Domain != "" {
		g.AddNode(rec.Domain, TypeDomain)
	}

	// Both endpoints were added above, so AddEdge cannot fail here.
	if sender != "" && rec.URL != "" {
		_, _ = g.AddEdge(sender, rec.URL)
	}
	if rec.URL != "" && rec.Domain != "" {
		_, _ = g.AddEdge(rec.URL, rec.Domain)
	}
}
