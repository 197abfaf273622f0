// Package record reads the loosely-structured input rows that link message
// senders, URLs, and domains. Every field is optional; an empty string means
// the field is absent.
package record

import "strings"

// Record is a single input row.
type Record struct {
	Sender       string
	SenderDomain string
	URL          string
	Domain       string
}

// Normalize returns a copy of r with surrounding whitespace removed from
// every field, so a whitespace-only value is treated as absent.
func (r Record) Normalize() Record {
	return Record{
		Sender:       strings.TrimSpace(r.Sender),
		SenderDomain: strings.TrimSpace(r.SenderDomain),
		URL:          strings.TrimSpace(r.URL),
		Domain:       strings.TrimSpace(r.Domain),
	}
}

// ResolvedSender returns the sender key used for graph construction:
// SenderDomain when present, otherwise Sender.
func (r Record) ResolvedSender() string {
	if d := strings.TrimSpace(r.SenderDomain); d != "" {
		return d
	}
	return strings.TrimSpace(r.Sender)
}

// Empty reports whether the record carries no sender, URL, or domain and
// therefore contributes nothing to a graph.
func (r Record) Empty() bool {
	return r.ResolvedSender() == "" &&
		strings.TrimSpace(r.URL) == "" &&
		strings.TrimSpace(r.Domain) == ""
}
